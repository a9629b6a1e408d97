package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/pkg/log"
)

// peer is the machinery shared by Host and Client: outgoing sends, the
// request table, the read loop and the dispatch goroutine.
type peer struct {
	ch      Channel
	opts    options
	logger  log.Logger
	pending *pendingTable
	box     *mailbox

	sendMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once

	// accept lists the kinds this role dispatches; replies are always matched.
	accept   map[Kind]bool
	dispatch func(ctx context.Context, env Envelope)
}

func newPeer(ch Channel, opts []Option, accept ...Kind) *peer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &peer{
		ch:      ch,
		opts:    o,
		logger:  o.logger,
		pending: newPendingTable(),
		box:     newMailbox(),
		closed:  make(chan struct{}),
		accept:  make(map[Kind]bool, len(accept)),
	}
	for _, k := range accept {
		p.accept[k] = true
	}
	return p
}

func (p *peer) send(env Envelope) error {
	select {
	case <-p.closed:
		return domain.ErrClosed
	default:
	}
	env.Version = ProtocolVersion

	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if err := p.ch.Send(env); err != nil {
		return fmt.Errorf("bridge: send %s %q: %w", env.Kind, env.Name, err)
	}
	return nil
}

// roundTrip sends env under a fresh correlation id and waits for its reply.
// timeout <= 0 waits until ctx is done or the channel closes. The table entry
// is removed on every path.
func (p *peer) roundTrip(ctx context.Context, env Envelope, timeout time.Duration) (json.RawMessage, error) {
	id, err := p.opts.newID()
	if err != nil {
		return nil, fmt.Errorf("bridge: correlation id: %w", err)
	}
	env.ID = id

	entry, err := p.pending.add(id, env.Name)
	if err != nil {
		return nil, err
	}

	if err := p.send(env); err != nil {
		p.pending.remove(id)
		return nil, err
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-entry.done:
		return r.payload, r.err
	case <-expired:
		p.pending.remove(id)
		p.logger.Warn("request timed out",
			log.Command(env.Name),
			log.CorrelationID(id),
			log.Duration("timeout", timeout))
		return nil, &domain.TimeoutError{ID: id, Action: env.Name, After: timeout}
	case <-ctx.Done():
		p.pending.remove(id)
		return nil, ctx.Err()
	case <-p.closed:
		p.pending.remove(id)
		return nil, domain.ErrClosed
	}
}

// reply answers a call or request. Handler failures travel as Error.
func (p *peer) reply(id, name string, value any, herr error) {
	env := Envelope{Kind: KindReply, ID: id, Name: name}
	if herr != nil {
		env.Error = herr.Error()
	} else {
		b, err := json.Marshal(value)
		if err != nil {
			env.Error = fmt.Sprintf("encode result: %v", err)
		} else {
			env.Result = b
		}
	}
	if err := p.send(env); err != nil {
		p.logger.Warn("failed to send reply", log.Command(name), log.CorrelationID(id), log.Err(err))
	}
}

// serve runs the read loop until the channel closes or ctx is done.
func (p *peer) serve(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-runCtx.Done()
		_ = p.ch.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.box.run(runCtx, func(env Envelope) { p.dispatch(runCtx, env) })
	}()

	// drain is set when the other side closed: envelopes it sent before
	// closing are still dispatched.
	drain := false
	defer func() {
		p.shutdown()
		if drain {
			p.box.close()
			wg.Wait()
		}
		cancel()
		wg.Wait()
	}()

	for {
		env, err := p.ch.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, domain.ErrClosed) {
				p.logger.Info("bridge channel closed")
				drain = true
				return nil
			}
			if errors.Is(err, domain.ErrInvalidMessage) {
				p.logger.Warn("skipping undecodable envelope", log.Err(err))
				continue
			}
			return fmt.Errorf("bridge: receive: %w", err)
		}
		p.route(env)
	}
}

func (p *peer) route(env Envelope) {
	if err := env.Validate(); err != nil {
		p.logger.Warn("dropping invalid envelope", log.Err(err))
		if (env.Kind == KindCall || env.Kind == KindRequest) && env.ID != "" {
			p.reply(env.ID, env.Name, nil, err)
		}
		return
	}

	if env.Kind == KindReply {
		r := result{payload: env.Result}
		if env.Error != "" {
			r.err = &domain.RemoteError{Name: env.Name, Message: env.Error}
		}
		if !p.pending.resolve(env.ID, r) {
			p.logger.Debug("reply without outstanding entry", log.CorrelationID(env.ID))
		}
		return
	}

	if !p.accept[env.Kind] {
		p.logger.Warn("dropping envelope not accepted by this side",
			log.String("kind", string(env.Kind)), log.Command(env.Name))
		if env.ID != "" {
			p.reply(env.ID, env.Name, nil, fmt.Errorf("%w: %s not accepted", domain.ErrInvalidMessage, env.Kind))
		}
		return
	}
	p.box.push(env)
}

func (p *peer) shutdown() {
	p.closeOnce.Do(func() {
		close(p.closed)
		_ = p.ch.Close()
		p.pending.failAll(domain.ErrClosed)
	})
}

// Close closes the channel and fails outstanding calls and requests.
func (p *peer) Close() error {
	p.shutdown()
	return nil
}

// Pending returns the number of outstanding calls or requests.
func (p *peer) Pending() int {
	return p.pending.len()
}

// guard runs fn, converting a panic into an error.
func guard(name string, fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", name, r)
		}
	}()
	return fn()
}
