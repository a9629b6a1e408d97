// Package ui implements the UI side of the application shell.
//
// A Runtime owns one action bus, the settings cache mirroring the host's
// "app" document, a Translator and the page and keyboard helpers. It talks to
// the host through a bridge.Client wrapped by API, which is also the cache's
// forwarder for durable writes.
//
// Boot order:
//
//	rt := ui.New(ch, ui.WithLogger(logger))
//	if err := rt.Start(ctx); err != nil { ... }   // cache loaded, ready.cache emitted
//	<-rt.Done()                                    // host went away
package ui
