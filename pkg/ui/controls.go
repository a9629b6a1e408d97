package ui

import (
	"sync/atomic"

	"github.com/bft-labs/appshell/pkg/bus"
)

// Controls turns key presses into keyaction.<key> bus events. While locked,
// for example when a text field has focus, presses are swallowed.
type Controls struct {
	bus    *bus.Bus
	locked atomic.Bool
}

// NewControls returns unlocked Controls emitting on b.
func NewControls(b *bus.Bus) *Controls {
	return &Controls{bus: b}
}

func (c *Controls) Lock()   { c.locked.Store(true) }
func (c *Controls) Unlock() { c.locked.Store(false) }

// Locked reports whether key presses are swallowed.
func (c *Controls) Locked() bool { return c.locked.Load() }

// KeyDown emits keyaction.<key> with key lowercased. It reports the number of
// listeners notified and false when the controls are locked.
func (c *Controls) KeyDown(key string) (int, bool) {
	if c.locked.Load() || key == "" {
		return 0, false
	}
	return c.bus.Emit(bus.KeyAction(key), key), true
}
