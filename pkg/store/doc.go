// Package store defines the persistence contract the settings machinery
// depends on, the storage targets the host routes writes to, and an
// in-memory implementation.
//
// # Contract
//
// A [Store] is a synchronous, hierarchical key-value store keyed by dot-path
// strings. Unlike the UI-side settings cache, durable stores create
// intermediate nodes on write, and reading an inner key returns the nested
// document below it:
//
//	s.Set("app.settings.storeWindowBounds", true)
//	doc, ok, _ := s.Get("app") // map[string]any{"settings": map[string]any{...}}
//
// File and bbolt backed implementations live in internal/adapters.
package store
