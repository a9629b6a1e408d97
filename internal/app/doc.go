// Package app holds the process lifecycle state machine and retry helpers
// shared by the host and UI runtimes.
package app
