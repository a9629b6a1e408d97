package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bft-labs/appshell/pkg/log"
)

// ActionHandler answers a host request with a value.
type ActionHandler func(param any) any

// Client is the UI side of the bridge.
type Client struct {
	*peer

	mu      sync.RWMutex
	actions map[string]ActionHandler
}

// NewClient creates a Client over ch. Call Serve to start processing traffic.
func NewClient(ch Channel, opts ...Option) *Client {
	c := &Client{
		peer:    newPeer(ch, opts, KindRequest),
		actions: make(map[string]ActionHandler),
	}
	c.peer.dispatch = c.dispatch
	return c
}

// Send sends a fire-and-forget command to the host.
func (c *Client) Send(name string, args ...any) error {
	raw, err := encodeArgs(args)
	if err != nil {
		return err
	}
	return c.send(Envelope{Kind: KindCommand, Name: name, Args: raw})
}

// Call invokes a host call handler and waits for its result. A handler error
// comes back as a *domain.RemoteError. Calls are not time-bounded: they end
// with the reply, ctx or channel close.
func (c *Client) Call(ctx context.Context, name string, args ...any) (json.RawMessage, error) {
	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, Envelope{Kind: KindCall, Name: name, Args: raw}, 0)
}

// HandleAction registers a handler for a host request. A second
// registration under the same name chains: the previous handler's output
// becomes the new handler's input.
func (c *Client) HandleAction(name string, fn ActionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.actions[name]; ok {
		c.actions[name] = func(param any) any { return fn(prev(param)) }
		return
	}
	c.actions[name] = fn
}

// Serve processes traffic until the channel closes or ctx is done.
func (c *Client) Serve(ctx context.Context) error {
	return c.serve(ctx)
}

func (c *Client) dispatch(_ context.Context, env Envelope) {
	c.mu.RLock()
	fn, ok := c.actions[env.Name]
	c.mu.RUnlock()
	if !ok {
		c.logger.Debug("no action handler, answering null", log.Command(env.Name))
		c.reply(env.ID, env.Name, nil, nil)
		return
	}
	var param any
	if len(env.Args) > 0 {
		if err := json.Unmarshal(env.Args[0], &param); err != nil {
			c.reply(env.ID, env.Name, nil, err)
			return
		}
	}
	v, err := guard(env.Name, func() (any, error) { return fn(param), nil })
	c.reply(env.ID, env.Name, v, err)
}
