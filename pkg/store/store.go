package store

import (
	"fmt"
	"sync"

	"github.com/bft-labs/appshell/internal/dotpath"
)

// Store is the persistence adapter used by the host process.
type Store interface {
	// Get returns the value stored at key. ok is false when nothing is stored.
	Get(key string) (value any, ok bool, err error)

	// Set stores value at key, creating intermediate nodes as needed.
	Set(key string, value any) error
}

// Memory is an in-memory Store intended for tests and examples.
type Memory struct {
	mu  sync.RWMutex
	doc map[string]any
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{doc: map[string]any{}}
}

// Get implements Store. Returned maps are copies.
func (m *Memory) Get(key string) (any, bool, error) {
	segs, err := dotpath.Split(key)
	if err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := dotpath.Lookup(m.doc, segs)
	if !ok {
		return nil, false, nil
	}
	return dotpath.Clone(v), true, nil
}

// Set implements Store.
func (m *Memory) Set(key string, value any) error {
	segs, err := dotpath.Split(key)
	if err != nil {
		return fmt.Errorf("store: set: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dotpath.SetCreate(m.doc, segs, dotpath.Clone(value))
	return nil
}

// Snapshot returns a deep copy of the whole document.
func (m *Memory) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return dotpath.Clone(m.doc).(map[string]any)
}
