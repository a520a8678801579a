package handler

import (
	"time"

	app_errors "babelflag/internal/errors"
	"babelflag/internal/models"
	"babelflag/internal/response"

	"github.com/gin-gonic/gin"
)

// ListGuilds returns the known guild configurations, paginated.
func (s *Server) ListGuilds(c *gin.Context) {
	var rows []models.GuildConfig
	query := s.DB.Model(&models.GuildConfig{}).Order("guild_id ASC")
	page, err := response.Paginate(c, query, &rows)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, page)
}

// GetGuild returns one guild's parsed settings, creating them from the
// defaults when the guild is unknown.
func (s *Server) GetGuild(c *gin.Context) {
	settings, err := s.GuildConfigService.GetOrCreate(c.Param("guild_id"))
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, settings)
}

// LanguageRequest is the payload for enabling a language.
type LanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// AddGuildLanguage enables a language for a guild.
func (s *Server) AddGuildLanguage(c *gin.Context) {
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}
	langs, err := s.GuildConfigService.AddLanguage(c.Param("guild_id"), req.Language)
	if err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}
	response.Success(c, gin.H{"languages": langs})
}

// RemoveGuildLanguage disables a language for a guild.
func (s *Server) RemoveGuildLanguage(c *gin.Context) {
	langs, err := s.GuildConfigService.RemoveLanguage(c.Param("guild_id"), c.Param("lang"))
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, gin.H{"languages": langs})
}

// ModeRequest is the payload for switching display mode.
type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// UpdateGuildMode switches a guild between thread and inline output.
func (s *Server) UpdateGuildMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}
	if err := s.GuildConfigService.SetMode(c.Param("guild_id"), req.Mode); err != nil {
		response.Error(c, app_errors.NewValidationError(err.Error()))
		return
	}
	response.Success(c, gin.H{"mode": req.Mode})
}

// GetGuildStats returns a guild's translation activity for the last 30 days.
func (s *Server) GetGuildStats(c *gin.Context) {
	stats, err := s.TranslationLogService.GuildStats(c.Param("guild_id"), time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, stats)
}
