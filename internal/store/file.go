// Package store persists workflow state: the session record as a single
// JSON file replaced atomically on every save, and an SQLite archive for
// configuration values and published-post history.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/scribe/internal/session"
)

// ErrStateCorrupt means the persisted session exists but cannot be parsed.
// The caller should prompt for an explicit clear rather than guessing.
var ErrStateCorrupt = errors.New("session state is corrupt")

// FileStore reads and writes one session record. Single-writer usage is
// assumed; the atomic rename on save means a crash mid-write never leaves a
// partially-written record behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the session record.
func (f *FileStore) Path() string {
	return f.path
}

// Load returns the persisted session, or an empty default session when no
// record exists yet. Unreadable or unparseable state returns ErrStateCorrupt.
func (f *FileStore) Load() (*session.Session, error) {
	data, err := os.ReadFile(f.path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return session.New(), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	if s.Turns == nil {
		s.Turns = []session.Turn{}
	}
	if s.Topics == nil {
		s.Topics = []session.Topic{}
	}
	return &s, nil
}

// Save overwrites the persisted record wholesale. The record is written to a
// temporary file in the same directory and renamed into place.
func (f *FileStore) Save(s *session.Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush state: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Clear resets the persisted record to an empty default session.
func (f *FileStore) Clear() error {
	return f.Save(session.New())
}
