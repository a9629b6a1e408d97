package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent error conditions in the appshell domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidPath is returned for malformed dot-paths (empty segments,
	// or fewer than two segments where an unfold read was requested).
	ErrInvalidPath = errors.New("appshell: invalid path")

	// ErrPathResolution is returned when a settings write cannot locate the
	// parent node of its terminal segment.
	ErrPathResolution = errors.New("appshell: path resolution failed")

	// ErrCacheNotLoaded is returned by settings reads before the first Load.
	ErrCacheNotLoaded = errors.New("appshell: settings cache not loaded")

	// ErrRequestTimeout is returned when a correlated request is not answered
	// within the configured timeout.
	ErrRequestTimeout = errors.New("appshell: request timeout")

	// ErrClosed is returned when the bridge channel has been closed.
	ErrClosed = errors.New("appshell: channel closed")

	// ErrInvalidMessage is returned for envelopes that fail validation at the
	// process edge.
	ErrInvalidMessage = errors.New("appshell: invalid message")

	// ErrUnknownCall is returned to a caller whose call name has no handler.
	ErrUnknownCall = errors.New("appshell: unknown call")

	// ErrProjectNotFound is returned when loading a project that does not exist.
	ErrProjectNotFound = errors.New("appshell: project not found")

	// ErrInvalidURL is returned when an open-url command carries a malformed URL.
	ErrInvalidURL = errors.New("appshell: invalid url")

	// ErrAlreadyRunning is returned when Start() is called on a running runtime.
	ErrAlreadyRunning = errors.New("appshell: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped runtime.
	ErrNotRunning = errors.New("appshell: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("appshell: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("appshell: invalid configuration")
)

// PathError reports a settings path that could not be resolved.
type PathError struct {
	Path    string
	Segment string
}

func (e *PathError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("appshell: path resolution failed for %q", e.Path)
	}
	return fmt.Sprintf("appshell: path resolution failed for %q at segment %q", e.Path, e.Segment)
}

// Unwrap lets errors.Is match ErrPathResolution.
func (e *PathError) Unwrap() error { return ErrPathResolution }

// TimeoutError reports a correlated request that expired unanswered.
type TimeoutError struct {
	ID     string
	Action string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("appshell: request %s (%s) timed out after %s", e.Action, e.ID, e.After)
}

// Unwrap lets errors.Is match ErrRequestTimeout.
func (e *TimeoutError) Unwrap() error { return ErrRequestTimeout }

// RemoteError carries a handler failure from the other process.
type RemoteError struct {
	Name    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("appshell: %s: %s", e.Name, e.Message)
}

// FatalReport is an explicit UI-originated crash report.
type FatalReport struct {
	Message string
}

func (e *FatalReport) Error() string {
	return "appshell: fatal ui error: " + e.Message
}
