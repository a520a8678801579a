// Package config provides environment-based configuration management.
package config

import (
	"fmt"
	"os"

	"babelflag/internal/types"
	"babelflag/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Manager implements types.ConfigManager backed by environment variables.
type Manager struct {
	server   types.ServerConfig
	auth     types.AuthConfig
	log      types.LogConfig
	database types.DatabaseConfig
	discord  types.DiscordConfig
	provider types.ProviderConfig
	redisDSN string
}

// NewManager creates a configuration manager from the environment. A .env
// file is loaded first when present.
func NewManager() (*Manager, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	m := &Manager{}
	m.reload()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return m, nil
}

func (m *Manager) reload() {
	m.server = types.ServerConfig{
		Port:                    utils.ParseInteger(os.Getenv("PORT"), 3001),
		Host:                    utils.GetEnvOrDefault("HOST", "0.0.0.0"),
		ReadTimeout:             utils.ParseInteger(os.Getenv("SERVER_READ_TIMEOUT"), 60),
		WriteTimeout:            utils.ParseInteger(os.Getenv("SERVER_WRITE_TIMEOUT"), 60),
		IdleTimeout:             utils.ParseInteger(os.Getenv("SERVER_IDLE_TIMEOUT"), 120),
		GracefulShutdownTimeout: utils.ParseInteger(os.Getenv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT"), 10),
	}
	m.auth = types.AuthConfig{
		Key: os.Getenv("AUTH_KEY"),
	}
	m.log = types.LogConfig{
		Level:      utils.GetEnvOrDefault("LOG_LEVEL", "info"),
		Format:     utils.GetEnvOrDefault("LOG_FORMAT", "text"),
		EnableFile: utils.ParseBoolean(os.Getenv("LOG_ENABLE_FILE"), false),
		FilePath:   utils.GetEnvOrDefault("LOG_FILE_PATH", "./data/logs/babelflag.log"),
	}
	m.database = types.DatabaseConfig{
		DSN: utils.GetEnvOrDefault("DATABASE_DSN", "./data/babelflag.db"),
	}
	m.discord = types.DiscordConfig{
		Token:         os.Getenv("DISCORD_BOT_TOKEN"),
		CommandPrefix: utils.GetEnvOrDefault("COMMAND_PREFIX", "!bf"),
		WorkerPool:    utils.ParseInteger(os.Getenv("WORKER_POOL_SIZE"), 16),
	}
	m.provider = types.ProviderConfig{
		DeepLAPIKey:        os.Getenv("DEEPL_API_KEY"),
		DeepLAPIURL:        utils.GetEnvOrDefault("DEEPL_API_URL", "https://api-free.deepl.com/v2/translate"),
		LibreTranslateURL:  utils.GetEnvOrDefault("LIBRETRANSLATE_URL", "https://libretranslate.com/translate"),
		MyMemoryURL:        utils.GetEnvOrDefault("MYMEMORY_URL", "https://api.mymemory.translated.net/get"),
		RequestTimeoutSecs: utils.ParseInteger(os.Getenv("PROVIDER_TIMEOUT_SECONDS"), 10),
	}
	m.redisDSN = os.Getenv("REDIS_DSN")
}

// Validate checks the loaded configuration for fatal misconfiguration.
func (m *Manager) Validate() error {
	if m.discord.Token == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if m.auth.Key == "" {
		return fmt.Errorf("AUTH_KEY is required")
	}
	if m.server.Port < 1 || m.server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", m.server.Port)
	}
	if m.discord.WorkerPool < 1 {
		return fmt.Errorf("worker pool size cannot be less than 1, got %d", m.discord.WorkerPool)
	}
	if m.provider.RequestTimeoutSecs < 1 {
		return fmt.Errorf("provider timeout cannot be less than 1 second, got %d", m.provider.RequestTimeoutSecs)
	}
	return nil
}

func (m *Manager) GetServerConfig() types.ServerConfig     { return m.server }
func (m *Manager) GetAuthConfig() types.AuthConfig         { return m.auth }
func (m *Manager) GetLogConfig() types.LogConfig           { return m.log }
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig { return m.database }
func (m *Manager) GetDiscordConfig() types.DiscordConfig   { return m.discord }
func (m *Manager) GetProviderConfig() types.ProviderConfig { return m.provider }
func (m *Manager) GetRedisDSN() string                     { return m.redisDSN }

// DisplayConfig logs a summary of the effective configuration.
func (m *Manager) DisplayConfig() {
	logrus.WithFields(logrus.Fields{
		"host": m.server.Host,
		"port": m.server.Port,
	}).Info("Admin API server configured")
	logrus.WithFields(logrus.Fields{
		"prefix":  m.discord.CommandPrefix,
		"workers": m.discord.WorkerPool,
	}).Info("Discord gateway configured")
	if m.provider.DeepLAPIKey != "" {
		logrus.Info("DeepL provider configured (primary)")
	} else {
		logrus.Info("DeepL provider not configured, cascade starts at LibreTranslate")
	}
	if m.redisDSN != "" {
		logrus.Info("Using Redis session store")
	} else {
		logrus.Info("Using in-memory session store")
	}
}
