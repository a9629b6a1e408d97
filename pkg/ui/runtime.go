package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/appshell/internal/app"
	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/internal/dotpath"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/bus"
	"github.com/bft-labs/appshell/pkg/log"
	"github.com/bft-labs/appshell/pkg/settings"
)

// SettingsRoot is the host store key mirrored by the settings cache.
const SettingsRoot = "app"

// Dialer opens a channel to the host.
type Dialer func(ctx context.Context) (bridge.Channel, error)

// Connect dials the host until it answers, backing off between attempts.
func Connect(ctx context.Context, dial Dialer, attempts int, logger log.Logger) (bridge.Channel, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	backoff := app.NewBackoff(app.DefaultBackoffInitial, app.DefaultBackoffMax)
	var ch bridge.Channel
	err := app.Retry(ctx, backoff, attempts, func(ctx context.Context) error {
		c, err := dial(ctx)
		if err != nil {
			logger.Debug("host not reachable yet", log.Err(err), log.Duration("backoff", backoff.Current()))
			return err
		}
		ch = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to host: %w", err)
	}
	return ch, nil
}

// Runtime is the UI process runtime.
type Runtime struct {
	opts      options
	logger    log.Logger
	lifecycle *app.Lifecycle

	bus        *bus.Bus
	client     *bridge.Client
	api        *API
	cache      *settings.Cache
	translator *Translator
	navigator  *Navigator
	controls   *Controls

	mu      sync.Mutex
	done    chan struct{}
	serveMu sync.Mutex
	serve   error
}

// New creates a Runtime talking to the host over ch.
func New(ch bridge.Channel, opts ...Option) *Runtime {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalogs == nil {
		o.catalogs = DefaultCatalogs()
	}

	b := bus.New(o.logger)
	client := bridge.NewClient(ch, bridge.WithLogger(o.logger))
	api := NewAPI(client)
	cache := settings.New(b, settings.WithLogger(o.logger), settings.WithForwarder(api))

	r := &Runtime{
		opts:       o,
		logger:     o.logger,
		lifecycle:  app.NewLifecycle(o.logger, nil),
		bus:        b,
		client:     client,
		api:        api,
		cache:      cache,
		translator: NewTranslator(o.catalogs, cache),
		navigator:  NewNavigator(b, o.startPage),
		controls:   NewControls(b),
		done:       make(chan struct{}),
	}
	api.OnWindowEvent(bridge.ActionTranslateContextID, r.translator.HandleTranslate)
	api.OnWindowEvent(bridge.ActionReloadSettings, r.reloadSettings)
	return r
}

func (r *Runtime) Bus() *bus.Bus { return r.bus }
func (r *Runtime) API() *API { return r.api }
func (r *Runtime) Settings() *settings.Cache { return r.cache }
func (r *Runtime) Translator() *Translator { return r.translator }
func (r *Runtime) Navigator() *Navigator { return r.navigator }
func (r *Runtime) Controls() *Controls { return r.controls }
func (r *Runtime) Status() app.State { return r.lifecycle.State() }

// Start begins serving host requests, fetches the settings document and
// loads the cache, which emits ready.cache. It returns once the cache is
// loaded or the fetch failed. A failed fetch is reported to the host.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.lifecycle.SetCancel(cancel)

	r.lifecycle.Go(func() {
		err := r.client.Serve(runCtx)
		if err != nil && runCtx.Err() == nil {
			r.logger.Error("bridge failed", log.Err(err))
		} else {
			r.logger.Info("host connection closed")
		}
		r.serveMu.Lock()
		r.serve = err
		r.serveMu.Unlock()
		close(r.done)
	})

	if err := r.boot(runCtx); err != nil {
		if rerr := r.api.ReportError(err.Error()); rerr != nil {
			r.logger.Error("crash report failed", log.Err(rerr))
		}
		r.lifecycle.Crash("boot failed: " + err.Error())
		_ = r.client.Close()
		return err
	}

	if err := r.lifecycle.TransitionTo(app.StateRunning, "settings loaded"); err != nil {
		return err
	}
	r.navigator.LoadPage(r.opts.startPage)
	return nil
}

func (r *Runtime) boot(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.callTimeout)
	defer cancel()

	v, err := r.api.GetStorageKey(callCtx, SettingsRoot)
	if err != nil {
		return fmt.Errorf("fetch settings: %w", err)
	}
	doc, ok := dotpath.AsMap(v)
	if v != nil && !ok {
		r.logger.Warn("settings root is not a mapping, starting empty",
			log.String("type", fmt.Sprintf("%T", v)))
	}
	n := r.cache.Load(doc)
	r.logger.Debug("settings ready", log.Int("listeners", n), log.String("language", r.translator.Language()))
	return nil
}

func (r *Runtime) reloadSettings(param any) any {
	doc, ok := dotpath.AsMap(param)
	if !ok && param != nil {
		r.logger.Warn("ignoring settings reload with non-mapping document")
		return false
	}
	r.cache.Load(doc)
	return true
}

// Done is closed once the connection to the host ended.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

// Err returns the error that ended serving, or nil for an orderly close.
// It is only meaningful after Done is closed.
func (r *Runtime) Err() error {
	r.serveMu.Lock()
	defer r.serveMu.Unlock()
	if errors.Is(r.serve, context.Canceled) {
		return nil
	}
	return r.serve
}

// Stop closes the host connection and waits for background work.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	crashed := r.lifecycle.State() == app.StateCrashed
	if !crashed {
		if !r.lifecycle.CanStop() {
			r.mu.Unlock()
			return domain.ErrNotRunning
		}
		if err := r.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
			r.mu.Unlock()
			return err
		}
	}
	r.lifecycle.Cancel()
	r.mu.Unlock()

	_ = r.client.Close()
	err := r.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if crashed {
		return err
	}
	if err != nil {
		_ = r.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = r.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}
