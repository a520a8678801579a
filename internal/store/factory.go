package store

import (
	"babelflag/internal/types"

	"github.com/sirupsen/logrus"
)

// NewStore creates a Store based on the configuration: Redis when REDIS_DSN
// is set, otherwise the in-memory store.
func NewStore(configManager types.ConfigManager) (Store, error) {
	if dsn := configManager.GetRedisDSN(); dsn != "" {
		logrus.Debug("Creating Redis store")
		return NewRedisStore(dsn)
	}
	logrus.Debug("Creating in-memory store")
	return NewMemoryStore(), nil
}
