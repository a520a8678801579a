// Package app provides the main application logic and lifecycle management.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"babelflag/internal/bot"
	"babelflag/internal/config"
	"babelflag/internal/models"
	"babelflag/internal/services"
	"babelflag/internal/store"
	"babelflag/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// App holds all services and manages the application lifecycle.
type App struct {
	engine            *gin.Engine
	configManager     types.ConfigManager
	defaults          *config.DefaultsStore
	bot               *bot.Bot
	logCleanupService *services.LogCleanupService
	storage           store.Store
	db                *gorm.DB
	httpServer        *http.Server
}

// AppParams defines the dependencies for the App.
type AppParams struct {
	dig.In
	Engine            *gin.Engine
	ConfigManager     types.ConfigManager
	Defaults          *config.DefaultsStore
	Bot               *bot.Bot
	LogCleanupService *services.LogCleanupService
	Storage           store.Store
	DB                *gorm.DB
}

// NewApp is the constructor for App, with dependencies injected by dig.
func NewApp(params AppParams) *App {
	return &App{
		engine:            params.Engine,
		configManager:     params.ConfigManager,
		defaults:          params.Defaults,
		bot:               params.Bot,
		logCleanupService: params.LogCleanupService,
		storage:           params.Storage,
		db:                params.DB,
	}
}

// Start runs the application, it is a non-blocking call.
func (a *App) Start() error {
	if err := a.db.AutoMigrate(
		&models.GuildConfig{},
		&models.TranslationLog{},
		&models.ProviderUsage{},
	); err != nil {
		return fmt.Errorf("database auto-migration failed: %w", err)
	}
	logrus.Info("Database auto-migration completed.")

	// Stale in-flight locks and game sessions do not survive a restart.
	if err := a.storage.Clear(); err != nil {
		return fmt.Errorf("cache cleanup failed: %w", err)
	}

	a.defaults.Watch()
	a.logCleanupService.Start()

	if err := a.bot.Start(); err != nil {
		return fmt.Errorf("failed to connect Discord gateway: %w", err)
	}

	a.configManager.DisplayConfig()

	serverConfig := a.configManager.GetServerConfig()
	a.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:        a.engine,
		ReadTimeout:    time.Duration(serverConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(serverConfig.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(serverConfig.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Infof("Admin API listening on http://%s:%d", serverConfig.Host, serverConfig.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server startup failed: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application.
func (a *App) Stop(ctx context.Context) {
	logrus.Info("Shutting down...")

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("HTTP server shutdown timed out, forcing close")
			if closeErr := a.httpServer.Close(); closeErr != nil {
				logrus.Errorf("Error forcing HTTP server to close: %v", closeErr)
			}
		}
		logrus.Info("HTTP server has been shut down.")
	}

	// Close the gateway first so no new events arrive while services drain.
	a.bot.Stop(ctx)

	stoppableServices := []func(context.Context){
		a.logCleanupService.Stop,
	}

	var wg sync.WaitGroup
	wg.Add(len(stoppableServices))
	for _, stopFunc := range stoppableServices {
		go func(stop func(context.Context)) {
			defer wg.Done()
			stop(ctx)
		}(stopFunc)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("All background services stopped.")
	case <-ctx.Done():
		logrus.Warn("Shutdown timed out, some services may not have stopped gracefully.")
	}

	a.defaults.Stop()

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing store")
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logrus.WithError(err).Warn("Error closing database")
			}
		}
	}

	logrus.Info("Server exited gracefully")
}
