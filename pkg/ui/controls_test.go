package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bft-labs/appshell/pkg/bus"
)

func TestControlsEmitLowercasedKeys(t *testing.T) {
	b := bus.New(nil)
	c := NewControls(b)

	var got []string
	b.On(bus.KeyAction("escape"), func(payload []any, selector string) {
		got = append(got, selector)
	})

	n, ok := c.KeyDown("Escape")
	assert.True(t, ok)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"keyaction.escape"}, got)
}

func TestControlsLocked(t *testing.T) {
	b := bus.New(nil)
	c := NewControls(b)
	calls := 0
	b.On(bus.KeyAction("s"), func([]any, string) { calls++ })

	c.Lock()
	assert.True(t, c.Locked())
	_, ok := c.KeyDown("s")
	assert.False(t, ok)
	assert.Equal(t, 0, calls)

	c.Unlock()
	_, ok = c.KeyDown("S")
	assert.True(t, ok)
	assert.Equal(t, 1, calls)

	_, ok = c.KeyDown("")
	assert.False(t, ok)
}

func TestNavigatorLoadPage(t *testing.T) {
	b := bus.New(nil)
	n := NewNavigator(b, "home")
	assert.Equal(t, "home", n.Active())

	var payloads []any
	b.On(bus.PageChanged("settings"), func(payload []any, _ string) {
		payloads = append(payloads, payload...)
	})

	assert.Equal(t, 1, n.LoadPage("settings"))
	assert.Equal(t, "settings", n.Active())
	assert.Equal(t, []any{"settings"}, payloads)

	assert.Equal(t, 0, n.LoadPage("playground"))
	assert.Equal(t, "playground", n.Active())
}
