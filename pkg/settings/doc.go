// Package settings holds the UI process's in-memory mirror of the persisted
// settings document.
//
// The [Cache] is loaded once per session from the host, read and written by
// dot-path, and kept write-through consistent with the host's durable store by
// [Cache.StoreKey]. The mirror is an optimization: the host store is the
// system of record, so a durable write is forwarded even when the mirror
// could not be updated.
//
// Paths are dot-separated ("settings.storeWindowBounds"). The reserved "app."
// prefix used by the durable stores is stripped before resolution. Writes
// never create intermediate nodes: writing below a missing parent fails with
// an error matching [ErrPathResolution].
package settings
