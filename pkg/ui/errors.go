package ui

import "github.com/bft-labs/appshell/internal/domain"

// Errors returned by the runtime and its API.
var (
	ErrAlreadyRunning = domain.ErrAlreadyRunning
	ErrNotRunning     = domain.ErrNotRunning
	ErrInvalidURL     = domain.ErrInvalidURL
)
