package services

import (
	"testing"
	"time"

	"babelflag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTranslationLogTest(t *testing.T) *TranslationLogService {
	t.Helper()
	db, _ := setupServiceTest(t, &models.TranslationLog{}, &models.ProviderUsage{})
	return NewTranslationLogService(db)
}

func TestRecordAndGuildStats(t *testing.T) {
	t.Parallel()
	svc := setupTranslationLogTest(t)

	svc.Record("guild-1", "msg-1", "es", "DeepL", true)
	svc.Record("guild-1", "msg-2", "es", "MyMemory", true)
	svc.Record("guild-1", "msg-3", "fr", "", false)
	svc.Record("guild-2", "msg-4", "de", "DeepL", true)

	stats, err := svc.GuildStats("guild-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Failed)

	require.Len(t, stats.ByLanguage, 2)
	assert.Equal(t, "es", stats.ByLanguage[0].TargetLang)
	assert.Equal(t, int64(2), stats.ByLanguage[0].Count)

	// Failed attempts carry no provider and are excluded from provider counts.
	for _, p := range stats.ByProvider {
		assert.NotEmpty(t, p.Provider)
	}
}

func TestGuildStatsWindowExcludesOldRows(t *testing.T) {
	t.Parallel()
	svc := setupTranslationLogTest(t)

	svc.Record("guild-1", "msg-1", "es", "DeepL", true)

	stats, err := svc.GuildStats("guild-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestUsageByDayAggregates(t *testing.T) {
	t.Parallel()
	svc := setupTranslationLogTest(t)

	svc.RecordUsage("DeepL", 100)
	svc.RecordUsage("DeepL", 50)
	svc.RecordUsage("MyMemory", 10)

	rows, err := svc.UsageByDay(7)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	today := time.Now().UTC().Format("2006-01-02")
	byProvider := make(map[string]int64)
	for _, row := range rows {
		assert.Equal(t, today, row.Date)
		byProvider[row.Provider] = row.Chars
	}
	assert.Equal(t, int64(150), byProvider["DeepL"])
	assert.Equal(t, int64(10), byProvider["MyMemory"])
}
