package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"babelflag/internal/types"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// MaxFlagsPerMessage is the platform ceiling on reactions per message.
const MaxFlagsPerMessage = 20

// DefaultsStore holds the process-wide global defaults new guild configs are
// seeded from. The backing file is hot-reloaded on change.
type DefaultsStore struct {
	mu       sync.RWMutex
	defaults types.GlobalDefaults
	path     string
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

var builtinDefaults = types.GlobalDefaults{
	DefaultLanguages: []string{"en", "es", "fr", "de", "ru", "pt"},
	DefaultFlags: map[string]string{
		"en": "🇬🇧", "es": "🇪🇸", "fr": "🇫🇷",
		"de": "🇩🇪", "ru": "🇷🇺", "pt": "🇵🇹",
	},
	PriorityOrder: []string{
		"en", "es", "fr", "de", "ru", "pt", "it", "pl",
		"ja", "ko", "zh", "ar", "hi", "nl", "sv", "no",
		"da", "fi", "tr", "cs",
	},
	DefaultMode:   "thread",
	RetentionDays: 90,
}

// NewDefaultsStore loads global defaults from path, writing the built-in
// defaults there first if the file does not exist.
func NewDefaultsStore(path string) (*DefaultsStore, error) {
	s := &DefaultsStore{
		path:   path,
		stopCh: make(chan struct{}),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.writeBuiltin(); err != nil {
			return nil, err
		}
		logrus.Infof("Created default global config at %s", path)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DefaultsStore) writeBuiltin() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create defaults directory: %w", err)
	}
	data, err := yaml.Marshal(builtinDefaults)
	if err != nil {
		return fmt.Errorf("failed to marshal built-in defaults: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write defaults file: %w", err)
	}
	return nil
}

func (s *DefaultsStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read defaults file: %w", err)
	}

	var d types.GlobalDefaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to parse defaults file: %w", err)
	}
	if len(d.DefaultLanguages) == 0 {
		return fmt.Errorf("defaults file must list at least one default language")
	}
	if d.DefaultMode != "inline" && d.DefaultMode != "thread" {
		return fmt.Errorf("default_mode must be 'inline' or 'thread', got %q", d.DefaultMode)
	}

	s.mu.Lock()
	s.defaults = d
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current global defaults.
func (s *DefaultsStore) Get() types.GlobalDefaults {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := s.defaults
	d.DefaultLanguages = append([]string(nil), s.defaults.DefaultLanguages...)
	d.PriorityOrder = append([]string(nil), s.defaults.PriorityOrder...)
	d.DefaultFlags = make(map[string]string, len(s.defaults.DefaultFlags))
	for k, v := range s.defaults.DefaultFlags {
		d.DefaultFlags[k] = v
	}
	return d
}

// SortByPriority orders language codes by the global priority order and caps
// the result at MaxFlagsPerMessage. Codes absent from the priority list sort
// last, in their given order.
func (s *DefaultsStore) SortByPriority(langs []string) []string {
	d := s.Get()
	rank := make(map[string]int, len(d.PriorityOrder))
	for i, code := range d.PriorityOrder {
		rank[code] = i
	}

	sorted := append([]string(nil), langs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, oki := rank[sorted[i]]
		rj, okj := rank[sorted[j]]
		if oki && okj {
			return ri < rj
		}
		return oki && !okj
	})

	if len(sorted) > MaxFlagsPerMessage {
		sorted = sorted[:MaxFlagsPerMessage]
	}
	return sorted
}

// Watch starts a filesystem watcher that reloads the defaults file on change.
func (s *DefaultsStore) Watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.WithError(err).Warn("Defaults hot reload disabled, could not create watcher")
		return
	}
	// Watch the directory: editors replace files rather than writing in place.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		logrus.WithError(err).Warn("Defaults hot reload disabled, could not watch directory")
		watcher.Close()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer watcher.Close()
		for {
			select {
			case <-s.stopCh:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if err := s.load(); err != nil {
					logrus.WithError(err).Warn("Failed to reload global defaults, keeping previous values")
					continue
				}
				logrus.Info("Global defaults reloaded")
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

// Stop terminates the watcher goroutine, if running.
func (s *DefaultsStore) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}
