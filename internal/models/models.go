// Package models defines the gorm persistence models.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Translation display modes.
const (
	ModeThread = "thread"
	ModeInline = "inline"
)

// GuildConfig corresponds to the guild_configs table: per-server enabled
// languages, custom flags, dictionary and display mode. Created lazily on
// first event for a guild, seeded from the global defaults; mutated only by
// admin commands. Rows are never expired.
type GuildConfig struct {
	ID               uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	GuildID          string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"guild_id"`
	EnabledLanguages datatypes.JSON `gorm:"type:text;not null" json:"enabled_languages"`
	CustomFlags      datatypes.JSON `gorm:"type:text" json:"custom_flags"`
	Dictionary       datatypes.JSON `gorm:"type:text" json:"dictionary"`
	Mode             string         `gorm:"type:varchar(16);not null;default:thread" json:"mode"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TranslationLog is the append-only audit record of one cascade invocation.
// Rows are only ever removed by the retention cleanup job.
type TranslationLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	GuildID    string    `gorm:"type:varchar(32);not null;index:idx_translation_logs_guild,priority:1" json:"guild_id"`
	MessageID  string    `gorm:"type:varchar(32);not null" json:"message_id"`
	TargetLang string    `gorm:"type:varchar(8);not null" json:"target_lang"`
	Provider   string    `gorm:"type:varchar(32);not null" json:"provider"`
	Success    bool      `gorm:"not null" json:"success"`
	Timestamp  time.Time `gorm:"not null;index;index:idx_translation_logs_guild,priority:2" json:"timestamp"`
}

// ProviderUsage records the characters sent to a provider, for quota
// accounting. Queryable by day and provider.
//
// TableName is overridden because "usage" is a mass noun.
type ProviderUsage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider  string    `gorm:"type:varchar(32);not null;index:idx_provider_usage_day,priority:1" json:"provider"`
	Chars     int       `gorm:"not null" json:"chars"`
	Date      string    `gorm:"type:varchar(10);not null;index:idx_provider_usage_day,priority:2" json:"date"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// TableName overrides gorm's pluralized default.
func (ProviderUsage) TableName() string {
	return "provider_usage"
}
