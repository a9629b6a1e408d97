package host

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/appshell/internal/adapters/projects"
	"github.com/bft-labs/appshell/internal/app"
	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/log"
	"github.com/bft-labs/appshell/pkg/store"
)

// RelaunchFlag is appended to the arguments of a relaunched process.
const RelaunchFlag = "--relaunch"

// Exit is the runtime's decision on how the process should end.
type Exit struct {
	Code   int
	Reason string
	// Err is the error behind a failure exit: a *FatalReport for crashes,
	// the bridge error when serving failed.
	Err error
}

// Exit decisions.
var (
	ExitQuit           = Exit{Code: 0, Reason: "quit"}
	ExitUIDisconnected = Exit{Code: 0, Reason: "ui disconnected"}
	ExitCrash          = Exit{Code: 1, Reason: "crash reported"}
	ExitRelaunch       = Exit{Code: 1, Reason: "relaunch"}
)

// crashExit is ExitCrash carrying the admitted report.
func crashExit(report *FatalReport) Exit {
	return Exit{Code: ExitCrash.Code, Reason: report.Error(), Err: report}
}

// Runtime is the host process runtime.
type Runtime struct {
	cfg       Config
	opts      options
	logger    log.Logger
	lifecycle *app.Lifecycle
	stores    store.Targets
	bridge    *bridge.Host
	projects  ProjectRepository
	latch     CrashLatch

	restarting atomic.Bool

	mu          sync.Mutex
	stopPlugins sync.Once

	exitOnce sync.Once
	exit     Exit
	done     chan struct{}
}

// New creates a Runtime serving the UI on ch. The runtime is created in
// StateStopped; call Start to begin serving.
func New(cfg Config, stores store.Targets, ch bridge.Channel, opts ...Option) (*Runtime, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stores.General == nil || stores.Process == nil {
		return nil, domain.ErrInvalidConfig
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Runtime{
		cfg:       cfg,
		opts:      o,
		logger:    o.logger,
		lifecycle: app.NewLifecycle(o.logger, eventEmitter{handler: o.eventHandler}),
		stores:    stores,
		projects:  o.projects,
		done:      make(chan struct{}),
	}
	if r.projects == nil {
		r.projects = projects.NewRepository(filepath.Join(cfg.DataDir, "projects"))
	}
	bopts := []bridge.Option{bridge.WithLogger(o.logger)}
	if o.timeout > 0 {
		bopts = append(bopts, bridge.WithTimeout(o.timeout))
	}
	r.bridge = bridge.NewHost(ch, bopts...)
	r.registerHandlers()
	return r, nil
}

// Bridge returns the bridge endpoint, e.g. for sending requests to the UI.
func (r *Runtime) Bridge() *bridge.Host {
	return r.bridge
}

// Start initializes plugins and begins serving the UI in the background.
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

	pluginCfg := PluginConfig{
		DataDir: r.cfg.DataDir,
		Logger:  r.logger,
		Store:   r.stores.General,
		UI:      r.bridge,
	}
	for _, p := range r.opts.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			_ = r.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		r.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	r.lifecycle.Go(func() {
		if err := r.lifecycle.TransitionTo(app.StateRunning, "serving ui"); err != nil {
			r.logger.Error("failed to transition to running", log.Err(err))
			return
		}
		err := r.bridge.Serve(runCtx)
		switch {
		case err == nil:
			r.finish(ExitUIDisconnected)
		case runCtx.Err() != nil:
		default:
			r.logger.Error("bridge failed", log.Err(err))
			r.finish(Exit{Code: 1, Reason: err.Error(), Err: err})
		}
	})
	return nil
}

// Stop stops serving, waits for background work and shuts plugins down.
// A crashed runtime is cleaned up as well.
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

	_ = r.bridge.Close()
	err := r.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	r.shutdownPlugins()

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

func (r *Runtime) shutdownPlugins() {
	r.stopPlugins.Do(func() {
		ctx := context.Background()
		for i := len(r.opts.plugins) - 1; i >= 0; i-- {
			p := r.opts.plugins[i]
			if err := p.Shutdown(ctx); err != nil {
				r.logger.Error("plugin shutdown failed",
					log.String("plugin", p.Name()),
					log.Err(err))
			} else {
				r.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
			}
		}
	})
}

// Status returns the current lifecycle state.
func (r *Runtime) Status() State {
	return r.lifecycle.State()
}

// Done is closed once the runtime decided to end the process.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

// Exit waits for Done and returns the exit decision.
func (r *Runtime) Exit() Exit {
	<-r.done
	return r.exit
}

// finish records the first exit decision and stops serving.
func (r *Runtime) finish(e Exit) {
	r.exitOnce.Do(func() {
		r.logger.Info("host exiting", log.Int("code", e.Code), log.String("reason", e.Reason))
		r.exit = e
		close(r.done)
		r.lifecycle.Cancel()
	})
}
