// Package handler implements the admin API endpoints.
package handler

import (
	"babelflag/internal/config"
	"babelflag/internal/services"
	"babelflag/internal/types"

	"gorm.io/gorm"
)

// Server holds the dependencies the admin API endpoints need.
type Server struct {
	DB                    *gorm.DB
	ConfigManager         types.ConfigManager
	Defaults              *config.DefaultsStore
	GuildConfigService    *services.GuildConfigService
	TranslationLogService *services.TranslationLogService
}

// NewServer creates a new Server.
func NewServer(
	db *gorm.DB,
	configManager types.ConfigManager,
	defaults *config.DefaultsStore,
	guildConfigService *services.GuildConfigService,
	translationLogService *services.TranslationLogService,
) *Server {
	return &Server{
		DB:                    db,
		ConfigManager:         configManager,
		Defaults:              defaults,
		GuildConfigService:    guildConfigService,
		TranslationLogService: translationLogService,
	}
}
