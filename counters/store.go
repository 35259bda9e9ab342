package counters

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/google/renameio/v2"
)

// Config is the persisted mapping from counter kinds to display channels.
type Config struct {
	// CategoryID is empty until setup has run.
	CategoryID string
	Counters   map[Kind]string
}

// DefaultConfig is the state before any setup: no category, no counters.
func DefaultConfig() Config {
	return Config{Counters: map[Kind]string{}}
}

// Clone returns a copy whose Counters map can be modified independently.
func (c Config) Clone() Config {
	out := Config{CategoryID: c.CategoryID, Counters: make(map[Kind]string, len(c.Counters))}
	maps.Copy(out.Counters, c.Counters)
	return out
}

// Complete reports whether every kind has a channel.
func (c Config) Complete() bool {
	for _, k := range Kinds {
		if c.Counters[k] == "" {
			return false
		}
	}
	return true
}

var errNullConfig = errors.New("config document is null")

// configFile is the on-disk shape: {"categoryId": string|null, "counters": {...}}.
type configFile struct {
	CategoryID *string           `json:"categoryId"`
	Counters   map[string]string `json:"counters"`
}

func (c Config) MarshalJSON() ([]byte, error) {
	f := configFile{Counters: make(map[string]string, len(c.Counters))}
	if c.CategoryID != "" {
		id := c.CategoryID
		f.CategoryID = &id
	}
	for k, id := range c.Counters {
		f.Counters[string(k)] = id
	}
	return json.Marshal(f)
}

func (c *Config) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return errNullConfig
	}
	var f configFile
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	out := DefaultConfig()
	if f.CategoryID != nil {
		out.CategoryID = *f.CategoryID
	}
	for k, id := range f.Counters {
		kind := Kind(k)
		if !kind.Valid() {
			slog.Warn("ignoring unknown counter kind in config", "kind", k, "channel", id)
			continue
		}
		if id == "" {
			continue
		}
		out.Counters[kind] = id
	}
	*c = out
	return nil
}

// Store keeps the in-memory config and mirrors it to a JSON file.
type Store struct {
	path string

	mu      sync.Mutex
	current Config
}

// NewStore returns a store for path holding the default config.
// Nothing is read until Load is called.
func NewStore(path string) *Store {
	return &Store{path: path, current: DefaultConfig()}
}

// Path is the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Current returns a copy of the in-memory config.
func (s *Store) Current() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Load refreshes the in-memory config from disk and returns it. A missing file
// keeps the current value; an unreadable or malformed file is logged and also
// keeps the current value.
func (s *Store) Load() Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no counter config file found", "path", s.path)
		return s.current.Clone()
	}
	if err != nil {
		slog.Error("failed to read counter config", "path", s.path, "error", err)
		return s.current.Clone()
	}

	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		slog.Error("failed to parse counter config, keeping previous value", "path", s.path, "error", err)
		return s.current.Clone()
	}

	s.current = cfg
	slog.Debug("counter config loaded", "path", s.path, "category", cfg.CategoryID, "counters", len(cfg.Counters))
	return s.current.Clone()
}

// Save replaces both the in-memory config and the file with cfg. Readers
// never see a partial document.
func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode counter config: %w", err)
	}
	b = append(b, '\n')

	if err := renameio.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}

	s.current = cfg.Clone()
	slog.Info("counter config saved", "path", s.path, "category", cfg.CategoryID, "counters", len(cfg.Counters))
	return nil
}
