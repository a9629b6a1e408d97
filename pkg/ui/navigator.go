package ui

import (
	"sync"

	"github.com/bft-labs/appshell/pkg/bus"
)

// Navigator tracks the active page and announces page changes on the bus.
type Navigator struct {
	mu     sync.RWMutex
	bus    *bus.Bus
	active string
}

// NewNavigator returns a Navigator showing start.
func NewNavigator(b *bus.Bus, start string) *Navigator {
	return &Navigator{bus: b, active: start}
}

// LoadPage makes page active and emits page.changed.to.<page>. It returns the
// number of listeners notified. Loading the active page emits again.
func (n *Navigator) LoadPage(page string) int {
	n.mu.Lock()
	n.active = page
	n.mu.Unlock()
	return n.bus.Emit(bus.PageChanged(page), page)
}

// Active returns the current page.
func (n *Navigator) Active() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}
