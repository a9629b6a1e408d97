package store

import (
	"errors"
	"fmt"
)

// Target names the durable store a write is routed to.
type Target string

const (
	// General is the user-selected data store. It is the default target.
	General Target = "general"

	// Process is the per-installation store. Writes to it are mirrored to
	// General so that reads through General stay authoritative.
	Process Target = "process"
)

// ErrUnknownTarget is returned for targets other than General and Process.
var ErrUnknownTarget = errors.New("store: unknown target")

// ParseTarget validates a target received from the UI process. The empty
// string selects General.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case "", General:
		return General, nil
	case Process:
		return Process, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
	}
}

// Targets routes writes to the general and process stores.
type Targets struct {
	General Store
	Process Store
}

// Set writes value according to target.
func (t Targets) Set(key string, value any, target Target) error {
	switch target {
	case General:
		return t.General.Set(key, value)
	case Process:
		if err := t.Process.Set(key, value); err != nil {
			return fmt.Errorf("process store: %w", err)
		}
		return t.General.Set(key, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTarget, target)
	}
}

// Get reads from the general store.
func (t Targets) Get(key string) (any, bool, error) {
	return t.General.Get(key)
}
