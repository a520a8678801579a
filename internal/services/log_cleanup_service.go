package services

import (
	"context"
	"sync"
	"time"

	"babelflag/internal/config"
	"babelflag/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LogCleanupService removes translation logs and provider usage rows older
// than the configured retention window.
type LogCleanupService struct {
	db       *gorm.DB
	defaults *config.DefaultsStore
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewLogCleanupService creates a new log cleanup service.
func NewLogCleanupService(db *gorm.DB, defaults *config.DefaultsStore) *LogCleanupService {
	return &LogCleanupService{
		db:       db,
		defaults: defaults,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the cleanup loop.
func (s *LogCleanupService) Start() {
	s.wg.Add(1)
	go s.run()
	logrus.Debug("Log cleanup service started")
}

// Stop stops the log cleanup service gracefully.
func (s *LogCleanupService) Stop(ctx context.Context) {
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("LogCleanupService stopped gracefully.")
	case <-ctx.Done():
		logrus.Warn("LogCleanupService stop timed out.")
	}
}

func (s *LogCleanupService) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(2 * time.Hour)
	defer ticker.Stop()

	// Initial cleanup on startup
	s.cleanupExpired()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *LogCleanupService) cleanupExpired() {
	retentionDays := s.defaults.Get().RetentionDays
	if retentionDays <= 0 {
		logrus.Debug("Log retention is disabled (retention_days <= 0)")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).UTC()
	for _, table := range []string{"translation_logs", "provider_usage"} {
		s.cleanupTable(table, cutoff, retentionDays)
	}
}

// cleanupTable deletes expired rows in batches so the database is never
// locked for long on large backlogs.
func (s *LogCleanupService) cleanupTable(table string, cutoff time.Time, retentionDays int) {
	const batchSize = 2000
	totalDeleted := int64(0)
	dialect := s.db.Dialector.Name()

	for {
		batchCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var result *gorm.DB
		switch dialect {
		case "postgres":
			// PostgreSQL does not support LIMIT in DELETE directly.
			result = s.db.WithContext(batchCtx).Exec(`
				WITH c AS (
					SELECT id
					FROM `+table+`
					WHERE timestamp < ?
					ORDER BY timestamp
					LIMIT ?
				)
				DELETE FROM `+table+`
				WHERE id IN (SELECT id FROM c)
			`, cutoff, batchSize)
		case "mysql":
			result = s.db.WithContext(batchCtx).Exec(
				"DELETE FROM "+table+" WHERE timestamp < ? ORDER BY timestamp LIMIT ?",
				cutoff,
				batchSize,
			)
		default: // sqlite
			result = s.db.WithContext(batchCtx).Exec(
				"DELETE FROM "+table+" WHERE rowid IN (SELECT rowid FROM "+table+" WHERE timestamp < ? LIMIT ?)",
				cutoff,
				batchSize,
			)
		}
		cancel()

		if result.Error != nil {
			if utils.IsTransientDBError(result.Error) {
				logrus.WithError(result.Error).Warnf("Cleanup of %s interrupted by transient DB error", table)
				return
			}
			logrus.WithError(result.Error).Errorf("Failed to cleanup expired rows in %s", table)
			return
		}

		deleted := result.RowsAffected
		totalDeleted += deleted
		if deleted < int64(batchSize) {
			break
		}

		// Brief pause between batches to reduce lock contention.
		time.Sleep(50 * time.Millisecond)
	}

	if totalDeleted > 0 {
		logrus.WithFields(logrus.Fields{
			"table":          table,
			"deleted_count":  totalDeleted,
			"cutoff_time":    cutoff.Format(time.RFC3339),
			"retention_days": retentionDays,
		}).Info("Cleaned up expired rows")
	} else {
		logrus.Debugf("No expired rows found in %s", table)
	}
}
