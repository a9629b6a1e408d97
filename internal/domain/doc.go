// Package domain contains the error taxonomy and value types shared by the
// host and UI runtimes of appshell.
//
// This package is the innermost layer. It has no dependencies on transports,
// storage backends or logging, and holds only the conditions every other layer
// needs to agree on.
//
// # Error classes
//
//   - TypeError-class: [ErrInvalidPath], [ErrInvalidMessage], [ErrInvalidURL]
//     (caught where detected, never fatal)
//   - [ErrPathResolution] / [PathError]: a settings write whose parent node does
//     not exist; recovered by requesting a restart
//   - [ErrRequestTimeout] / [TimeoutError]: a correlated request that was not
//     answered in time
//   - [FatalReport]: an explicit crash report from the UI process, the only
//     condition that terminates the host
package domain
