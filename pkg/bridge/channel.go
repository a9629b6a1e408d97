package bridge

// Channel carries envelopes between the two processes. Send may be called
// from several goroutines; implementations serialize writes. Receive is only
// called by the read loop. Close unblocks a pending Receive, which then
// returns an error; closing twice is allowed. A message that cannot be
// decoded is reported with an error wrapping ErrInvalidMessage and must not
// prevent later messages from being received.
type Channel interface {
	Send(env Envelope) error
	Receive() (Envelope, error)
	Close() error
}
