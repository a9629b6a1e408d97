package bridge

import (
	"sync"

	"github.com/bft-labs/appshell/internal/domain"
)

// memChannel is one end of an in-process channel pair.
type memChannel struct {
	in  <-chan Envelope
	out chan<- Envelope

	closed    chan struct{}
	peerDone  <-chan struct{}
	closeOnce sync.Once
}

// Pipe returns two connected in-process channels. It is used by tests and by
// embedders running both runtimes in one binary.
func Pipe() (Channel, Channel) {
	ab := make(chan Envelope, 64)
	ba := make(chan Envelope, 64)
	aDone := make(chan struct{})
	bDone := make(chan struct{})
	a := &memChannel{in: ba, out: ab, closed: aDone, peerDone: bDone}
	b := &memChannel{in: ab, out: ba, closed: bDone, peerDone: aDone}
	return a, b
}

func (c *memChannel) Send(env Envelope) error {
	select {
	case <-c.closed:
		return domain.ErrClosed
	case <-c.peerDone:
		return domain.ErrClosed
	default:
	}
	select {
	case c.out <- env:
		return nil
	case <-c.closed:
		return domain.ErrClosed
	case <-c.peerDone:
		return domain.ErrClosed
	}
}

func (c *memChannel) Receive() (Envelope, error) {
	select {
	case env := <-c.in:
		return env, nil
	case <-c.closed:
		return Envelope{}, domain.ErrClosed
	case <-c.peerDone:
		// drain what the peer sent before closing
		select {
		case env := <-c.in:
			return env, nil
		default:
			return Envelope{}, domain.ErrClosed
		}
	}
}

func (c *memChannel) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}
