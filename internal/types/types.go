// Package types defines shared configuration types and interfaces.
package types

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetServerConfig() ServerConfig
	GetAuthConfig() AuthConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetDiscordConfig() DiscordConfig
	GetProviderConfig() ProviderConfig
	GetRedisDSN() string
	Validate() error
	DisplayConfig()
}

// ServerConfig represents the admin API server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// AuthConfig represents admin API authentication configuration
type AuthConfig struct {
	Key string `json:"key"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// DiscordConfig represents the Discord gateway configuration
type DiscordConfig struct {
	Token         string `json:"-"`
	CommandPrefix string `json:"command_prefix"`
	WorkerPool    int    `json:"worker_pool"`
}

// ProviderConfig holds credentials and endpoints for the translation providers.
// DeepL is skipped by the cascade when APIKey is empty.
type ProviderConfig struct {
	DeepLAPIKey        string `json:"-"`
	DeepLAPIURL        string `json:"deepl_api_url"`
	LibreTranslateURL  string `json:"libretranslate_url"`
	MyMemoryURL        string `json:"mymemory_url"`
	RequestTimeoutSecs int    `json:"request_timeout_seconds"`
}

// GlobalDefaults is the process-wide default configuration new guilds are
// seeded from. It is loaded from the defaults file at startup and may be
// hot-reloaded while the bot is running.
type GlobalDefaults struct {
	DefaultLanguages []string          `yaml:"default_languages"`
	DefaultFlags     map[string]string `yaml:"default_flags"`
	PriorityOrder    []string          `yaml:"priority_order"`
	DefaultMode      string            `yaml:"default_mode"`
	RetentionDays    int               `yaml:"retention_days"`
}
