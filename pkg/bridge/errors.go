package bridge

import "github.com/bft-labs/appshell/internal/domain"

// Errors returned by endpoints and channels. They can be checked with
// errors.Is.
var (
	ErrClosed         = domain.ErrClosed
	ErrRequestTimeout = domain.ErrRequestTimeout
	ErrInvalidMessage = domain.ErrInvalidMessage
	ErrUnknownCall    = domain.ErrUnknownCall
	ErrInvalidURL     = domain.ErrInvalidURL
)

type (
	// TimeoutError is the typed form of ErrRequestTimeout.
	TimeoutError = domain.TimeoutError

	// RemoteError is a handler failure reported by the other side.
	RemoteError = domain.RemoteError
)
