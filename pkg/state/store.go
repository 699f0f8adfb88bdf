package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned for keys outside of the configuration key set
var ErrUnknownKey = errors.New("unknown configuration key")

// FileName is the workspace state file inside the .kenning directory
const FileName = "workspace-state.yaml"

// Store is a workspace scoped key/value store for the last used form values.
// Every Update is persisted on its own; there is no multi-key transaction.
type Store struct {
	path string

	mu     sync.RWMutex
	values map[Key]any
}

// Open loads the store persisted at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: map[Key]any{},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace state %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse workspace state: %w", err)
	}
	for k, v := range raw {
		// Values written by other versions are ignored rather than rejected
		if IsKnown(Key(k)) {
			s.values[Key(k)] = v
		}
	}
	return s, nil
}

// NewMemory creates a store that is never written to disk
func NewMemory() *Store {
	return &Store{values: map[Key]any{}}
}

// Path returns the backing file, empty for in-memory stores
func (s *Store) Path() string {
	return s.path
}

// Has reports whether a value is stored under key
func (s *Store) Has(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Update stores value under key and persists the store. Reads after Update
// returns observe the new value even if writing the file failed.
func (s *Store) Update(key Key, value any) error {
	if !IsKnown(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if value == nil {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
	return s.save()
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	raw := make(map[string]any, len(s.values))
	for k, v := range s.values {
		raw[string(k)] = v
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write workspace state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace workspace state: %w", err)
	}
	return nil
}

// Get returns the value stored under key converted to T, or def when nothing
// is stored or the stored value cannot be represented as T.
func Get[T any](s *Store, key Key, def T) T {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return def
	}

	if typed, ok := v.(T); ok {
		return typed
	}

	// Values loaded from disk are generic YAML values; re-decode them
	data, err := yaml.Marshal(v)
	if err != nil {
		return def
	}
	var out T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return def
	}
	return out
}

// Lookup is like Get but reports whether a value was stored
func Lookup[T any](s *Store, key Key) (T, bool) {
	var zero T
	if !s.Has(key) {
		return zero, false
	}
	return Get(s, key, zero), true
}
