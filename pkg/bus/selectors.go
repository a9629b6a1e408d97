package bus

import "strings"

// CacheReady is emitted once the settings cache holds a loaded document.
// The payload is the loaded document.
const CacheReady = "ready.cache"

const (
	pageChangedPrefix = "page.changed.to."
	keyActionPrefix   = "keyaction."
	keyStoredPrefix   = "new.key.stored."
)

// PageChanged returns the selector emitted after navigating to page.
func PageChanged(page string) string {
	return pageChangedPrefix + page
}

// KeyAction returns the selector emitted for a key press. Keys are lowercased.
func KeyAction(key string) string {
	return keyActionPrefix + strings.ToLower(key)
}

// KeyStored returns the selector emitted after a settings key was stored.
func KeyStored(key string) string {
	return keyStoredPrefix + key
}
