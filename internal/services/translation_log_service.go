package services

import (
	"fmt"
	"time"

	"babelflag/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TranslationLogService writes the per-invocation audit trail and the
// provider usage counters, and answers the stats queries behind the stats
// command and the admin API.
type TranslationLogService struct {
	db *gorm.DB
}

// NewTranslationLogService creates a TranslationLogService.
func NewTranslationLogService(db *gorm.DB) *TranslationLogService {
	return &TranslationLogService{db: db}
}

// Record appends one audit row. Failures to log never block the translation
// path; they are reported and dropped.
func (s *TranslationLogService) Record(guildID, messageID, targetLang, provider string, success bool) {
	row := models.TranslationLog{
		GuildID:    guildID,
		MessageID:  messageID,
		TargetLang: targetLang,
		Provider:   provider,
		Success:    success,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"guild_id":   guildID,
			"message_id": messageID,
		}).Error("Failed to record translation log")
	}
}

// RecordUsage accumulates the character count sent to a provider. Satisfies
// the cascade's usage recorder.
func (s *TranslationLogService) RecordUsage(provider string, chars int) {
	row := models.ProviderUsage{
		Provider:  provider,
		Chars:     chars,
		Date:      time.Now().UTC().Format("2006-01-02"),
		Timestamp: time.Now().UTC(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		logrus.WithError(err).WithField("provider", provider).Error("Failed to record provider usage")
	}
}

// LangCount is one per-language aggregation bucket.
type LangCount struct {
	TargetLang string `json:"target_lang"`
	Count      int64  `json:"count"`
}

// ProviderCount is one per-provider aggregation bucket.
type ProviderCount struct {
	Provider string `json:"provider"`
	Count    int64  `json:"count"`
}

// GuildStats summarizes a guild's translation activity since a cutoff.
type GuildStats struct {
	Total       int64           `json:"total"`
	Succeeded   int64           `json:"succeeded"`
	Failed      int64           `json:"failed"`
	ByLanguage  []LangCount     `json:"by_language"`
	ByProvider  []ProviderCount `json:"by_provider"`
	WindowSince time.Time       `json:"window_since"`
}

// GuildStats aggregates the guild's audit rows newer than since.
func (s *TranslationLogService) GuildStats(guildID string, since time.Time) (*GuildStats, error) {
	stats := &GuildStats{WindowSince: since}
	base := s.db.Model(&models.TranslationLog{}).
		Where("guild_id = ? AND timestamp >= ?", guildID, since)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count translations: %w", err)
	}
	if err := base.Session(&gorm.Session{}).Where("success = ?", true).Count(&stats.Succeeded).Error; err != nil {
		return nil, fmt.Errorf("failed to count successful translations: %w", err)
	}
	stats.Failed = stats.Total - stats.Succeeded

	if err := base.Session(&gorm.Session{}).
		Select("target_lang, COUNT(*) as count").
		Group("target_lang").
		Order("count DESC").
		Scan(&stats.ByLanguage).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate by language: %w", err)
	}
	if err := base.Session(&gorm.Session{}).
		Where("success = ?", true).
		Select("provider, COUNT(*) as count").
		Group("provider").
		Order("count DESC").
		Scan(&stats.ByProvider).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate by provider: %w", err)
	}
	return stats, nil
}

// DailyUsage is the character total one provider consumed on one day.
type DailyUsage struct {
	Provider string `json:"provider"`
	Date     string `json:"date"`
	Chars    int64  `json:"chars"`
}

// UsageByDay returns per-provider daily character totals for the last N days,
// most recent first.
func (s *TranslationLogService) UsageByDay(days int) ([]DailyUsage, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	var rows []DailyUsage
	err := s.db.Model(&models.ProviderUsage{}).
		Where("date >= ?", cutoff).
		Select("provider, date, SUM(chars) as chars").
		Group("provider, date").
		Order("date DESC, provider ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate provider usage: %w", err)
	}
	return rows, nil
}
