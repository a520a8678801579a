package handler

import (
	"strconv"

	app_errors "babelflag/internal/errors"
	"babelflag/internal/models"
	"babelflag/internal/response"

	"github.com/gin-gonic/gin"
)

// GetLogs returns the translation audit trail, newest first, optionally
// filtered by guild.
func (s *Server) GetLogs(c *gin.Context) {
	query := s.DB.Model(&models.TranslationLog{}).Order("timestamp DESC")
	if guildID := c.Query("guild_id"); guildID != "" {
		query = query.Where("guild_id = ?", guildID)
	}
	if lang := c.Query("target_lang"); lang != "" {
		query = query.Where("target_lang = ?", lang)
	}

	var rows []models.TranslationLog
	page, err := response.Paginate(c, query, &rows)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, page)
}

// GetUsage returns per-provider daily character totals.
func (s *Server) GetUsage(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		response.Error(c, app_errors.NewValidationError("days must be a positive integer"))
		return
	}
	rows, err := s.TranslationLogService.UsageByDay(days)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}
	response.Success(c, rows)
}

// GetDefaults returns the global defaults new guilds are seeded from.
func (s *Server) GetDefaults(c *gin.Context) {
	response.Success(c, s.Defaults.Get())
}
