// Package services contains the database-backed domain services.
package services

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"babelflag/internal/config"
	"babelflag/internal/models"
	"babelflag/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// guildLockStripes bounds the mutex table; contention per stripe is
// negligible at Discord guild counts.
const guildLockStripes = 64

// maxTransientRetries caps retries on SQLite busy/locked errors.
const maxTransientRetries = 3

// GuildSettings is the parsed form of one guild's configuration row.
type GuildSettings struct {
	GuildID     string            `json:"guild_id"`
	Languages   []string          `json:"languages"`
	CustomFlags map[string]string `json:"custom_flags"`
	Dictionary  map[string]string `json:"dictionary"`
	Mode        string            `json:"mode"`
}

// GuildConfigService manages per-guild configuration rows. Rows are created
// lazily from the global defaults on first access and mutated per field so
// concurrent admin commands cannot clobber each other's changes.
type GuildConfigService struct {
	db       *gorm.DB
	defaults *config.DefaultsStore
	locks    [guildLockStripes]sync.Mutex
}

// NewGuildConfigService creates a GuildConfigService.
func NewGuildConfigService(db *gorm.DB, defaults *config.DefaultsStore) *GuildConfigService {
	return &GuildConfigService{db: db, defaults: defaults}
}

func (s *GuildConfigService) lockFor(guildID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(guildID))
	return &s.locks[h.Sum32()%guildLockStripes]
}

// GetOrCreate returns the guild's settings, creating the row from the global
// defaults when the guild is seen for the first time.
func (s *GuildConfigService) GetOrCreate(guildID string) (*GuildSettings, error) {
	mu := s.lockFor(guildID)
	mu.Lock()
	defer mu.Unlock()
	return s.getOrCreateLocked(guildID)
}

// getOrCreateLocked loads or seeds the row. The caller must hold the guild's
// stripe lock so mutators read and write in one critical section.
func (s *GuildConfigService) getOrCreateLocked(guildID string) (*GuildSettings, error) {
	var row models.GuildConfig
	err := s.db.Where("guild_id = ?", guildID).First(&row).Error
	if err == nil {
		return parseGuildRow(&row)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to load guild config: %w", err)
	}

	defaults := s.defaults.Get()
	row = models.GuildConfig{
		GuildID:          guildID,
		EnabledLanguages: mustJSON(defaults.DefaultLanguages),
		CustomFlags:      mustJSON(map[string]string{}),
		Dictionary:       mustJSON(map[string]string{}),
		Mode:             defaults.DefaultMode,
	}
	if err := s.createWithRetry(&row); err != nil {
		return nil, err
	}
	logrus.WithField("guild_id", guildID).Info("Created guild config from defaults")
	return parseGuildRow(&row)
}

// createWithRetry inserts the row, absorbing a concurrent insert of the same
// guild by re-reading, and retrying transient lock errors.
func (s *GuildConfigService) createWithRetry(row *models.GuildConfig) error {
	for attempt := 0; ; attempt++ {
		err := s.db.Create(row).Error
		if err == nil {
			return nil
		}
		if utils.IsDBLockError(err) && attempt < maxTransientRetries {
			time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
			continue
		}
		// Another writer may have won the unique index race.
		var existing models.GuildConfig
		if readErr := s.db.Where("guild_id = ?", row.GuildID).First(&existing).Error; readErr == nil {
			*row = existing
			return nil
		}
		return fmt.Errorf("failed to create guild config: %w", err)
	}
}

// AddLanguage enables a language for the guild. Returns the updated list.
func (s *GuildConfigService) AddLanguage(guildID, lang string) ([]string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil, fmt.Errorf("language code must not be empty")
	}
	return s.mutateLanguages(guildID, func(langs []string) []string {
		for _, l := range langs {
			if l == lang {
				return langs
			}
		}
		return append(langs, lang)
	})
}

// RemoveLanguage disables a language for the guild. Returns the updated list.
func (s *GuildConfigService) RemoveLanguage(guildID, lang string) ([]string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return s.mutateLanguages(guildID, func(langs []string) []string {
		out := langs[:0]
		for _, l := range langs {
			if l != lang {
				out = append(out, l)
			}
		}
		return out
	})
}

func (s *GuildConfigService) mutateLanguages(guildID string, mutate func([]string) []string) ([]string, error) {
	mu := s.lockFor(guildID)
	mu.Lock()
	defer mu.Unlock()

	settings, err := s.getOrCreateLocked(guildID)
	if err != nil {
		return nil, err
	}

	langs := mutate(settings.Languages)
	if err := s.updateField(guildID, "enabled_languages", mustJSON(langs)); err != nil {
		return nil, err
	}
	return langs, nil
}

// SetMode switches the guild between thread and inline output.
func (s *GuildConfigService) SetMode(guildID, mode string) error {
	if mode != models.ModeThread && mode != models.ModeInline {
		return fmt.Errorf("mode must be %q or %q", models.ModeThread, models.ModeInline)
	}
	mu := s.lockFor(guildID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.getOrCreateLocked(guildID); err != nil {
		return err
	}
	return s.updateField(guildID, "mode", mode)
}

// SetDictionaryEntry adds or replaces one dictionary term.
func (s *GuildConfigService) SetDictionaryEntry(guildID, term, replacement string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return fmt.Errorf("dictionary term must not be empty")
	}
	mu := s.lockFor(guildID)
	mu.Lock()
	defer mu.Unlock()

	settings, err := s.getOrCreateLocked(guildID)
	if err != nil {
		return err
	}

	dict := settings.Dictionary
	if dict == nil {
		dict = make(map[string]string)
	}
	dict[term] = replacement
	return s.updateField(guildID, "dictionary", mustJSON(dict))
}

// RemoveDictionaryEntry deletes one dictionary term. Reports whether the term
// existed.
func (s *GuildConfigService) RemoveDictionaryEntry(guildID, term string) (bool, error) {
	mu := s.lockFor(guildID)
	mu.Lock()
	defer mu.Unlock()

	settings, err := s.getOrCreateLocked(guildID)
	if err != nil {
		return false, err
	}

	if _, ok := settings.Dictionary[term]; !ok {
		return false, nil
	}
	delete(settings.Dictionary, term)
	return true, s.updateField(guildID, "dictionary", mustJSON(settings.Dictionary))
}

// DictionaryTerms returns the guild's dictionary terms sorted for stable
// command output.
func (s *GuildConfigService) DictionaryTerms(guildID string) ([]string, map[string]string, error) {
	settings, err := s.GetOrCreate(guildID)
	if err != nil {
		return nil, nil, err
	}
	terms := make([]string, 0, len(settings.Dictionary))
	for term := range settings.Dictionary {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms, settings.Dictionary, nil
}

// SetCustomFlag maps a flag emoji to a language code for this guild.
func (s *GuildConfigService) SetCustomFlag(guildID, emoji, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if emoji == "" || lang == "" {
		return fmt.Errorf("emoji and language code must not be empty")
	}
	mu := s.lockFor(guildID)
	mu.Lock()
	defer mu.Unlock()

	settings, err := s.getOrCreateLocked(guildID)
	if err != nil {
		return err
	}

	flags := settings.CustomFlags
	if flags == nil {
		flags = make(map[string]string)
	}
	flags[emoji] = lang
	return s.updateField(guildID, "custom_flags", mustJSON(flags))
}

// updateField writes a single column so concurrent updates to different
// fields never overwrite each other.
func (s *GuildConfigService) updateField(guildID, column string, value any) error {
	for attempt := 0; ; attempt++ {
		err := s.db.Model(&models.GuildConfig{}).
			Where("guild_id = ?", guildID).
			Update(column, value).Error
		if err == nil {
			return nil
		}
		if utils.IsDBLockError(err) && attempt < maxTransientRetries {
			time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
			continue
		}
		return fmt.Errorf("failed to update guild %s: %w", column, err)
	}
}

func parseGuildRow(row *models.GuildConfig) (*GuildSettings, error) {
	settings := &GuildSettings{
		GuildID:     row.GuildID,
		Mode:        row.Mode,
		CustomFlags: make(map[string]string),
		Dictionary:  make(map[string]string),
	}
	if len(row.EnabledLanguages) > 0 {
		if err := json.Unmarshal(row.EnabledLanguages, &settings.Languages); err != nil {
			return nil, fmt.Errorf("corrupt enabled_languages for guild %s: %w", row.GuildID, err)
		}
	}
	if len(row.CustomFlags) > 0 {
		if err := json.Unmarshal(row.CustomFlags, &settings.CustomFlags); err != nil {
			return nil, fmt.Errorf("corrupt custom_flags for guild %s: %w", row.GuildID, err)
		}
	}
	if len(row.Dictionary) > 0 {
		if err := json.Unmarshal(row.Dictionary, &settings.Dictionary); err != nil {
			return nil, fmt.Errorf("corrupt dictionary for guild %s: %w", row.GuildID, err)
		}
	}
	return settings, nil
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with unmarshalable types, which these are not.
		logrus.WithError(err).Error("Failed to marshal guild config field")
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
