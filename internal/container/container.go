// Package container wires the application dependencies together.
package container

import (
	"time"

	"babelflag/internal/app"
	"babelflag/internal/bot"
	"babelflag/internal/config"
	"babelflag/internal/db"
	"babelflag/internal/handler"
	"babelflag/internal/router"
	"babelflag/internal/services"
	"babelflag/internal/store"
	"babelflag/internal/translator"
	"babelflag/internal/types"
	"babelflag/internal/utils"

	"go.uber.org/dig"
)

// BuildContainer creates and configures the dependency injection container.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		// Configuration
		config.NewManager,
		func(m *config.Manager) types.ConfigManager { return m },
		func() (*config.DefaultsStore, error) {
			return config.NewDefaultsStore(utils.GetEnvOrDefault("DEFAULTS_FILE", "./data/defaults.yaml"))
		},

		// Infrastructure
		db.NewDB,
		store.NewStore,

		// Translation cascade
		translator.NewProviders,
		func(cm types.ConfigManager, logService *services.TranslationLogService, providers []translator.Provider) *translator.Cascade {
			timeout := time.Duration(cm.GetProviderConfig().RequestTimeoutSecs) * time.Second
			return translator.NewCascade(providers, logService, timeout)
		},

		// Services
		services.NewGuildConfigService,
		services.NewTranslationLogService,
		services.NewLogCleanupService,

		// Discord bot
		bot.NewBot,

		// HTTP layer
		handler.NewServer,
		router.NewRouter,

		// Application
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
