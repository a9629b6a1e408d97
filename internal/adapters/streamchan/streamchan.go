// Package streamchan carries bridge envelopes as newline-delimited JSON over
// a byte stream: a child process's stdio or a net.Conn.
package streamchan

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"sync"

	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/pkg/bridge"
)

// Channel implements bridge.Channel on a reader/writer pair.
type Channel struct {
	r *bufio.Reader

	mu  sync.Mutex
	enc *json.Encoder

	closers   []io.Closer
	closed    chan struct{}
	closeOnce sync.Once
}

var _ bridge.Channel = (*Channel)(nil)

// New returns a Channel reading from r and writing to w. Close closes both
// when they implement io.Closer.
func New(r io.Reader, w io.Writer) *Channel {
	c := &Channel{
		r:      bufio.NewReader(r),
		enc:    json.NewEncoder(w),
		closed: make(chan struct{}),
	}
	if rc, ok := r.(io.Closer); ok {
		c.closers = append(c.closers, rc)
	}
	if wc, ok := w.(io.Closer); ok && any(wc) != any(r) {
		c.closers = append(c.closers, wc)
	}
	return c
}

// NewConn returns a Channel over a network connection.
func NewConn(conn net.Conn) *Channel {
	return New(conn, conn)
}

// Send implements bridge.Channel.
func (c *Channel) Send(env bridge.Envelope) error {
	if c.isClosed() {
		return domain.ErrClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(env); err != nil {
		return c.mapErr(err)
	}
	return nil
}

// Receive implements bridge.Channel. Each line holds one envelope; a line
// that does not decode is reported as bridge.ErrInvalidMessage and the next
// call continues with the following line.
func (c *Channel) Receive() (bridge.Envelope, error) {
	for {
		line, err := c.r.ReadBytes('\n')
		if err != nil && c.isClosed() {
			return bridge.Envelope{}, domain.ErrClosed
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			// A final line without newline is still delivered; the
			// read error surfaces on the next call.
			return bridge.DecodeEnvelope(line)
		}
		if err != nil {
			return bridge.Envelope{}, c.mapErr(err)
		}
	}
}

// Close implements bridge.Channel.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		for _, cl := range c.closers {
			if cerr := cl.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

func (c *Channel) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Channel) mapErr(err error) error {
	switch {
	case c.isClosed(),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, os.ErrClosed),
		errors.Is(err, io.ErrClosedPipe):
		return domain.ErrClosed
	case errors.Is(err, io.ErrUnexpectedEOF):
		return io.EOF
	default:
		return err
	}
}
