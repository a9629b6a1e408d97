// Package wschan carries bridge envelopes over a websocket connection. The
// host listens and accepts a single UI connection; the UI dials.
package wschan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/pkg/bridge"
)

// Path is the HTTP path the listener upgrades.
const Path = "/bridge"

const writeWait = 5 * time.Second

// Conn implements bridge.Channel on a websocket connection.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

var _ bridge.Channel = (*Conn)(nil)

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, closed: make(chan struct{})}
}

// Dial connects to a host listening at addr (host:port).
func Dial(ctx context.Context, addr string) (*Conn, error) {
	url := "ws://" + addr + Path
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("wschan: dial %s: %w", url, err)
	}
	return newConn(ws), nil
}

// Send implements bridge.Channel.
func (c *Conn) Send(env bridge.Envelope) error {
	select {
	case <-c.closed:
		return domain.ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(env); err != nil {
		return c.mapErr(err)
	}
	return nil
}

// Receive implements bridge.Channel. A message that does not decode is
// reported as bridge.ErrInvalidMessage; the connection stays usable.
func (c *Conn) Receive() (bridge.Envelope, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return bridge.Envelope{}, c.mapErr(err)
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		return bridge.DecodeEnvelope(data)
	}
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) mapErr(err error) error {
	select {
	case <-c.closed:
		return domain.ErrClosed
	default:
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed) {
		return domain.ErrClosed
	}
	return err
}

// Listener accepts UI connections on a TCP address.
type Listener struct {
	ln       net.Listener
	srv      *http.Server
	upgrader websocket.Upgrader
	conns    chan *Conn
	done     chan struct{}
	once     sync.Once
}

// Listen starts serving websocket upgrades on addr. Use port 0 to pick a free
// port and read it back with Addr.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("wschan: listen %s: %w", addr, err)
	}
	l := &Listener{
		ln: ln,
		upgrader: websocket.Upgrader{
			// The UI is a local child process, not a browser page.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(chan *Conn),
		done:  make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(Path, l.handle)
	l.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = l.srv.Serve(ln) }()
	return l, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newConn(ws)
	select {
	case l.conns <- c:
	case <-l.done:
		_ = c.Close()
	}
}

// Accept waits for the next UI connection.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, domain.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting connections. Accepted connections stay open.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.srv.Close()
	})
	return err
}
