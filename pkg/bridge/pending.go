package bridge

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type result struct {
	payload json.RawMessage
	err     error
}

// pendingEntry is one outstanding call or request.
type pendingEntry struct {
	id        string
	name      string
	createdAt time.Time
	done      chan result
}

// pendingTable maps correlation ids to their single-resolution entries.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[string]*pendingEntry)}
}

// add registers a new entry. Ids must not be reused while outstanding.
func (t *pendingTable) add(id, name string) (*pendingEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[id]; ok {
		return nil, fmt.Errorf("bridge: correlation id %s already outstanding", id)
	}
	e := &pendingEntry{
		id:        id,
		name:      name,
		createdAt: time.Now(),
		done:      make(chan result, 1),
	}
	t.entries[id] = e
	return e, nil
}

// resolve removes the entry for id and delivers r to it. It reports false
// when no entry is outstanding, e.g. for a reply that arrived after timeout.
func (t *pendingTable) resolve(id string, r result) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	if ok {
		e.done <- r
	}
	return ok
}

// remove drops the entry for id without resolving it.
func (t *pendingTable) remove(id string) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// failAll resolves every outstanding entry with err.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[string]*pendingEntry)
	t.mu.Unlock()
	for _, e := range entries {
		e.done <- result{err: err}
	}
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
