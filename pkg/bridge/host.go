package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/pkg/log"
)

// CommandHandler handles a fire-and-forget command from the UI.
type CommandHandler func(ctx context.Context, args Args)

// CallHandler handles a call from the UI. The returned value is sent back as
// the call's result.
type CallHandler func(ctx context.Context, args Args) (any, error)

// Host is the privileged side of the bridge.
type Host struct {
	*peer

	mu       sync.RWMutex
	commands map[string]CommandHandler
	calls    map[string]CallHandler
}

// NewHost creates a Host over ch. Call Serve to start processing traffic.
func NewHost(ch Channel, opts ...Option) *Host {
	h := &Host{
		peer:     newPeer(ch, opts, KindCommand, KindCall),
		commands: make(map[string]CommandHandler),
		calls:    make(map[string]CallHandler),
	}
	h.peer.dispatch = h.dispatch
	return h
}

// OnCommand registers the handler for a command name. A later registration
// replaces an earlier one.
func (h *Host) OnCommand(name string, fn CommandHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.commands[name]; ok {
		h.logger.Warn("replacing command handler", log.Command(name))
	}
	h.commands[name] = fn
}

// HandleCall registers the handler for a call name. A later registration
// replaces an earlier one.
func (h *Host) HandleCall(name string, fn CallHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.calls[name]; ok {
		h.logger.Warn("replacing call handler", log.Command(name))
	}
	h.calls[name] = fn
}

// Request asks the UI to run the action handler registered under action and
// waits for its result. It fails with a *domain.TimeoutError after the
// configured timeout, with ctx.Err() when ctx ends first, and with
// domain.ErrClosed when the channel closes.
func (h *Host) Request(ctx context.Context, action string, param any) (json.RawMessage, error) {
	return h.RequestTimeout(ctx, action, param, h.opts.timeout)
}

// RequestTimeout is Request with an explicit timeout.
func (h *Host) RequestTimeout(ctx context.Context, action string, param any, timeout time.Duration) (json.RawMessage, error) {
	args, err := encodeArgs([]any{param})
	if err != nil {
		return nil, err
	}
	return h.roundTrip(ctx, Envelope{Kind: KindRequest, Name: action, Args: args}, timeout)
}

// RequestString is Request for actions answering with a string. A null
// result decodes to the empty string.
func (h *Host) RequestString(ctx context.Context, action string, param any) (string, error) {
	raw, err := h.Request(ctx, action, param)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s result is not a string", domain.ErrInvalidMessage, action)
	}
	return s, nil
}

// Serve processes traffic until the channel closes or ctx is done.
func (h *Host) Serve(ctx context.Context) error {
	return h.serve(ctx)
}

func (h *Host) dispatch(ctx context.Context, env Envelope) {
	switch env.Kind {
	case KindCommand:
		h.mu.RLock()
		fn, ok := h.commands[env.Name]
		h.mu.RUnlock()
		if !ok {
			h.logger.Warn("no handler for command", log.Command(env.Name))
			return
		}
		if _, err := guard(env.Name, func() (any, error) {
			fn(ctx, Args(env.Args))
			return nil, nil
		}); err != nil {
			h.logger.Error("command handler failed", log.Command(env.Name), log.Err(err))
		}

	case KindCall:
		h.mu.RLock()
		fn, ok := h.calls[env.Name]
		h.mu.RUnlock()
		if !ok {
			h.reply(env.ID, env.Name, nil, fmt.Errorf("%w: %s", domain.ErrUnknownCall, env.Name))
			return
		}
		v, err := guard(env.Name, func() (any, error) { return fn(ctx, Args(env.Args)) })
		if err != nil {
			h.logger.Warn("call handler failed", log.Command(env.Name), log.Err(err))
		}
		h.reply(env.ID, env.Name, v, err)
	}
}
