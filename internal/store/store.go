package store

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"strawberryphone/pkg/logger"
)

// Store is the durable key-value store backing all domain entities. Keys are
// plain strings; values are JSON documents for structured records and bare
// text for scalars. Writes are synced so a mutation a subsequent read could
// observe is on disk before Set returns.
type Store struct {
	db  *pebble.DB
	log *logger.Logger
}

// Open opens (or creates) the database at the given path
func Open(path string) (*Store, error) {
	log := logger.GetGlobal().WithComponent("store")
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		log.LogError(err, "store open failed", "path", path)
		return nil, fmt.Errorf("open store at %s: %w", path, err)
	}
	log.Debug("store opened", "path", path)
	return &Store{db: db, log: log}, nil
}

// Close closes the store
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ready reports whether the store is opened and usable
func (s *Store) Ready() bool {
	return s.db != nil
}

// Get returns the raw value for key. ok is false when the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	raw, closer, err := s.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	value = string(raw)
	closer.Close()
	return value, true, nil
}

// Set writes the raw value for key, synced to disk before returning
func (s *Store) Set(key, value string) error {
	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		s.log.LogError(err, "store write failed", "key", key)
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key if present
func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// GetJSON unmarshals the value at key into out. Absent or malformed values
// leave out untouched and return false, so callers fall back to defaults
// rather than fail.
func (s *Store) GetJSON(key string, out any) bool {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.log.Warn("malformed record, using defaults", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON marshals v and writes it at key
func (s *Store) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return s.Set(key, string(data))
}
