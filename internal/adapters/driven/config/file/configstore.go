package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/boorufind/internal/core/ports/driven"
	"github.com/custodia-labs/boorufind/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore
// using TOML. Settings are stored in a TOML file within the boorufind
// config directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.boorufind/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".boorufind")
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Path returns the backing file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// Set stores a configuration value and persists it.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return s.Save()
}

// Delete removes a configuration key and persists the change.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return s.Save()
}

// Keys returns all stored keys, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads the TOML file into memory.
func (s *ConfigStore) Load() error {
	content, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	data := make(map[string]any)
	if err := toml.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Save writes the in-memory settings to the TOML file.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	content, err := toml.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.WriteFile(s.filePath, content, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.filePath, err)
	}
	return nil
}

// Watch invokes fn after every on-disk change to the config file,
// reloading the store first. Returns a stop function that releases
// the watcher.
func (s *ConfigStore) Watch(fn func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.filePath, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.filePath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.Load(); err != nil {
					logger.Warn("Config reload failed: %v", err)
					continue
				}
				logger.Debug("Config file reloaded")
				if fn != nil {
					fn()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
