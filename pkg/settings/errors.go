package settings

import "github.com/bft-labs/appshell/internal/domain"

// Errors returned by the cache. They can be checked with errors.Is.
var (
	ErrInvalidPath    = domain.ErrInvalidPath
	ErrPathResolution = domain.ErrPathResolution
	ErrNotLoaded      = domain.ErrCacheNotLoaded
)

// PathError is the typed form of ErrPathResolution.
type PathError = domain.PathError
