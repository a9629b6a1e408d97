package bus

import (
	"fmt"
	"sync"

	"github.com/bft-labs/appshell/pkg/log"
)

// Listener receives the payload passed to Emit and the selector it was
// emitted on.
type Listener func(payload []any, selector string)

type registration struct {
	id       uint64
	listener Listener
}

// Bus is the action bus. The zero value is not usable; call New.
// One Bus is created per process and passed to every module that needs it.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]registration
	nextID    uint64
	logger    log.Logger
}

// New creates an empty bus. A nil logger discards output.
func New(logger log.Logger) *Bus {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Bus{
		listeners: make(map[string][]registration),
		logger:    logger,
	}
}

// Subscription identifies one registration made with On.
type Subscription struct {
	bus      *Bus
	selector string
	id       uint64
}

// Cancel removes the registration. Further calls are no-ops.
func (s Subscription) Cancel() {
	if s.bus == nil {
		return
	}
	s.bus.remove(s.selector, s.id)
}

// On appends listener to the ordered list for selector. Registering the same
// listener twice yields two deliveries. An empty selector or nil listener is
// rejected and logged; the returned Subscription is then inert.
func (b *Bus) On(selector string, listener Listener) Subscription {
	if selector == "" || listener == nil {
		b.logger.Warn("rejected action listener",
			log.Selector(selector),
			log.Bool("nil_listener", listener == nil))
		return Subscription{}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[selector] = append(b.listeners[selector], registration{id: id, listener: listener})
	b.mu.Unlock()

	b.logger.Debug("registered action listener", log.Selector(selector))
	return Subscription{bus: b, selector: selector, id: id}
}

// Emit synchronously invokes every listener registered for selector, in
// registration order, and returns the number invoked. A panicking listener is
// logged and counted; delivery continues with the next listener.
func (b *Bus) Emit(selector string, payload ...any) int {
	if selector == "" {
		b.logger.Warn("rejected emit with empty selector")
		return 0
	}
	if payload == nil {
		payload = []any{}
	}

	b.mu.RLock()
	regs := make([]registration, len(b.listeners[selector]))
	copy(regs, b.listeners[selector])
	b.mu.RUnlock()

	for _, r := range regs {
		b.deliver(r.listener, payload, selector)
	}

	b.logger.Debug("emitted action", log.Selector(selector), log.Int("delivered", len(regs)))
	return len(regs)
}

// Count returns the number of listeners currently registered for selector.
func (b *Bus) Count(selector string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[selector])
}

func (b *Bus) deliver(l Listener, payload []any, selector string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("action listener panicked",
				log.Selector(selector),
				log.String("panic", fmt.Sprint(r)))
		}
	}()
	l(payload, selector)
}

func (b *Bus) remove(selector string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[selector]
	for i, r := range regs {
		if r.id != id {
			continue
		}
		next := make([]registration, 0, len(regs)-1)
		next = append(next, regs[:i]...)
		next = append(next, regs[i+1:]...)
		if len(next) == 0 {
			delete(b.listeners, selector)
		} else {
			b.listeners[selector] = next
		}
		return
	}
}
