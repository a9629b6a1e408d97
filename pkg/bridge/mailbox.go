package bridge

import (
	"context"
	"sync"
)

// mailbox is an unbounded FIFO feeding the dispatch goroutine. The read loop
// never blocks on it, so replies keep flowing while a handler waits.
type mailbox struct {
	mu     sync.Mutex
	items  []Envelope
	closed bool
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) push(env Envelope) {
	m.mu.Lock()
	m.items = append(m.items, env)
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// close makes run return once the queued envelopes are handled.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) take() ([]Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items
	m.items = nil
	return items, m.closed
}

// run hands queued envelopes to handle in order until ctx is done, or until
// the mailbox is closed and empty.
func (m *mailbox) run(ctx context.Context, handle func(Envelope)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.signal:
			for {
				items, closed := m.take()
				if len(items) == 0 {
					if closed {
						return
					}
					break
				}
				for _, env := range items {
					if ctx.Err() != nil {
						return
					}
					handle(env)
				}
			}
		}
	}
}
