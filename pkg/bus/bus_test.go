package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_DeliversInRegistrationOrder(t *testing.T) {
	b := New(nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		b.On("page.changed.to.settings", func([]any, string) { order = append(order, i) })
	}

	n := b.Emit("page.changed.to.settings")

	assert.Equal(t, 3, n)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestEmit_NoListenersReturnsZero(t *testing.T) {
	b := New(nil)
	assert.Equal(t, 0, b.Emit("keyaction.escape"))
}

func TestEmit_CountMatchesRegisteredListeners(t *testing.T) {
	b := New(nil)
	for n := 0; n < 5; n++ {
		assert.Equal(t, n, b.Emit("sel"))
		b.On("sel", func([]any, string) {})
	}
}

func TestEmit_PassesPayloadAndSelector(t *testing.T) {
	b := New(nil)
	var gotPayload []any
	var gotSelector string
	b.On(CacheReady, func(p []any, s string) {
		gotPayload = p
		gotSelector = s
	})

	b.Emit(CacheReady, "a", 1)

	assert.Equal(t, []any{"a", 1}, gotPayload)
	assert.Equal(t, CacheReady, gotSelector)
}

func TestEmit_EmptyPayloadIsNonNil(t *testing.T) {
	b := New(nil)
	var got []any
	b.On("x", func(p []any, _ string) { got = p })
	b.Emit("x")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOn_DuplicateListenerDeliveredTwice(t *testing.T) {
	b := New(nil)
	calls := 0
	l := func([]any, string) { calls++ }
	b.On("x", l)
	b.On("x", l)

	assert.Equal(t, 2, b.Emit("x"))
	assert.Equal(t, 2, calls)
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	b := New(nil)
	early, late := 0, 0
	b.On(CacheReady, func([]any, string) { early++ })
	b.Emit(CacheReady)
	b.On(CacheReady, func([]any, string) { late++ })

	assert.Equal(t, 1, early)
	assert.Equal(t, 0, late)
}

func TestEmit_PanickingListenerDoesNotStopDelivery(t *testing.T) {
	b := New(nil)
	after := false
	b.On("x", func([]any, string) { panic("boom") })
	b.On("x", func([]any, string) { after = true })

	assert.Equal(t, 2, b.Emit("x"))
	assert.True(t, after)
	assert.Equal(t, 2, b.Count("x"))
}

func TestEmit_ReentrantRecursion(t *testing.T) {
	b := New(nil)
	depth := 0
	b.On("r", func([]any, string) {
		depth++
		if depth < 3 {
			b.Emit("r")
		}
	})
	b.Emit("r")
	assert.Equal(t, 3, depth)
}

func TestSubscription_Cancel(t *testing.T) {
	b := New(nil)
	s1 := b.On("x", func([]any, string) {})
	b.On("x", func([]any, string) {})

	s1.Cancel()
	s1.Cancel()

	assert.Equal(t, 1, b.Count("x"))
	assert.Equal(t, 1, b.Emit("x"))
}

func TestOn_RejectsInvalidRegistration(t *testing.T) {
	b := New(nil)
	b.On("", func([]any, string) {}).Cancel()
	b.On("x", nil).Cancel()

	assert.Equal(t, 0, b.Count(""))
	assert.Equal(t, 0, b.Count("x"))
	assert.Equal(t, 0, b.Emit(""))
}

func TestSelectors(t *testing.T) {
	assert.Equal(t, "page.changed.to.container-playground", PageChanged("container-playground"))
	assert.Equal(t, "keyaction.escape", KeyAction("Escape"))
	assert.Equal(t, "new.key.stored.app.general.language", KeyStored("app.general.language"))
}
