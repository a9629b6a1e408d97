// Package log provides the logging abstraction used by every appshell component.
//
// Components never import a logging library directly; they accept a [Logger]
// and emit structured [Field] values. A zerolog-backed implementation is
// provided for the binaries and a no-op logger for tests and embedding.
//
// # Usage
//
//	logger := log.NewZerologAdapter()
//	logger.Info("action emitted", log.Selector("ready.cache"), log.Int("delivered", 3))
//
// Domain helpers ([Selector], [CorrelationID], [Path], [Command]) keep key
// names consistent across the host and UI processes so that both sides of a
// request can be joined in the logs.
package log
