// Package bus provides the action bus: a single-process, synchronous
// publish/subscribe registry keyed by string selectors.
//
// UI modules use it to sequence initialization (settings become interactive
// only after the cache reports ready) and to propagate navigation and key
// events without holding references to each other.
//
// # Delivery
//
// [Bus.Emit] invokes every listener registered for the selector, in
// registration order, on the calling goroutine, and returns how many were
// invoked. Emitting to a selector nobody listens on is a no-op that returns 0.
// Events are not retained: a listener registered after an emit never sees it.
//
// Delivery is reentrant-unsafe by contract: a listener that emits its own
// selector recurses.
//
// # Usage
//
//	b := bus.New(logger)
//	b.On(bus.CacheReady, func(payload []any, selector string) {
//	    doc := payload[0].(map[string]any)
//	    ...
//	})
//	b.Emit(bus.CacheReady, doc)
package bus
