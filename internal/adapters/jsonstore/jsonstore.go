// Package jsonstore implements store.Store as a single JSON document file.
package jsonstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/bft-labs/appshell/internal/dotpath"
)

// FileName is the document file created inside the store directory.
const FileName = "settings.json"

// Store keeps the whole document in memory and rewrites the file on every Set.
type Store struct {
	mu  sync.RWMutex
	dir string
	doc map[string]any
}

// Open loads the document in dir. A missing file yields an empty document.
// The file may contain comments and trailing commas.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir}
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

// Path returns the full path to the document file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

func (s *Store) read() (map[string]any, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("jsonstore: invalid JSONC in %s: %w", s.Path(), err)
	}
	var doc map[string]any
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return nil, fmt.Errorf("jsonstore: invalid document in %s: %w", s.Path(), err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Get implements store.Store.
func (s *Store) Get(key string) (any, bool, error) {
	segs, err := dotpath.Split(key)
	if err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := dotpath.Lookup(s.doc, segs)
	if !ok {
		return nil, false, nil
	}
	return dotpath.Clone(v), true, nil
}

// Set implements store.Store. The file is replaced atomically; the in-memory
// document only changes when the write succeeded.
func (s *Store) Set(key string, value any) error {
	segs, err := dotpath.Split(key)
	if err != nil {
		return fmt.Errorf("jsonstore: set: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := dotpath.Clone(s.doc).(map[string]any)
	dotpath.SetCreate(next, segs, dotpath.Clone(value))
	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Store) write(doc map[string]any) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonstore: encode: %w", err)
	}
	if err := atomic.WriteFile(s.Path(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("jsonstore: write %s: %w", s.Path(), err)
	}
	return nil
}

// Reload re-reads the file, replacing the in-memory document, and returns a
// copy of it. Used when the file was edited outside the process.
func (s *Store) Reload() (map[string]any, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return dotpath.Clone(doc).(map[string]any), nil
}

// Snapshot returns a deep copy of the document.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dotpath.Clone(s.doc).(map[string]any)
}
