package host

import "github.com/bft-labs/appshell/internal/domain"

// Errors returned by the runtime. They can be checked with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrProjectNotFound = domain.ErrProjectNotFound
)

// FatalReport is the error carried by a crash exit.
type FatalReport = domain.FatalReport
