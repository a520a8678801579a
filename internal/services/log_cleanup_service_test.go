package services

import (
	"context"
	"testing"
	"time"

	"babelflag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupExpiredRemovesOldRows(t *testing.T) {
	t.Parallel()
	db, defaults := setupServiceTest(t, &models.TranslationLog{}, &models.ProviderUsage{})
	svc := NewLogCleanupService(db, defaults)

	old := time.Now().UTC().AddDate(0, 0, -120)
	recent := time.Now().UTC()

	require.NoError(t, db.Create(&models.TranslationLog{
		GuildID: "guild-1", MessageID: "old", TargetLang: "es", Provider: "DeepL",
		Success: true, Timestamp: old,
	}).Error)
	require.NoError(t, db.Create(&models.TranslationLog{
		GuildID: "guild-1", MessageID: "new", TargetLang: "es", Provider: "DeepL",
		Success: true, Timestamp: recent,
	}).Error)
	require.NoError(t, db.Create(&models.ProviderUsage{
		Provider: "DeepL", Chars: 10, Date: old.Format("2006-01-02"), Timestamp: old,
	}).Error)

	svc.cleanupExpired()

	var logs []models.TranslationLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "new", logs[0].MessageID)

	var usageCount int64
	require.NoError(t, db.Model(&models.ProviderUsage{}).Count(&usageCount).Error)
	assert.Zero(t, usageCount)
}

func TestCleanupStartStop(t *testing.T) {
	t.Parallel()
	db, defaults := setupServiceTest(t, &models.TranslationLog{}, &models.ProviderUsage{})
	svc := NewLogCleanupService(db, defaults)

	svc.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	svc.Stop(ctx)
}
