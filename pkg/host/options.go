package host

import (
	"context"
	"time"

	"github.com/bft-labs/appshell/internal/adapters/system"
	"github.com/bft-labs/appshell/internal/ports"
	"github.com/bft-labs/appshell/pkg/log"
)

// Collaborator interfaces, re-exported for embedders.
type (
	Dialogs           = ports.Dialogs
	Confirmation      = ports.Confirmation
	Shell             = ports.Shell
	Launcher          = ports.Launcher
	ProjectRepository = ports.ProjectRepository
)

// Option configures optional behavior of a Runtime.
type Option func(*options)

type options struct {
	logger       log.Logger
	dialogs      ports.Dialogs
	shell        ports.Shell
	launcher     ports.Launcher
	projects     ports.ProjectRepository
	eventHandler EventHandler
	plugins      []Plugin
	timeout      time.Duration
}

func defaultOptions() options {
	return options{
		logger:   log.NewNoopLogger(),
		dialogs:  declineDialogs{},
		shell:    system.Shell{},
		launcher: system.Launcher{},
	}
}

// WithLogger sets the logger. If not provided, output is discarded.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDialogs sets the dialog implementation. If not provided, every
// confirmation is declined and messages are dropped.
func WithDialogs(d Dialogs) Option {
	return func(o *options) { o.dialogs = d }
}

// WithShell sets how URLs are opened.
func WithShell(s Shell) Option {
	return func(o *options) { o.shell = s }
}

// WithLauncher sets how the program is relaunched.
func WithLauncher(l Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// WithProjects sets the project repository. If not provided, projects are
// stored below Config.DataDir.
func WithProjects(p ProjectRepository) Option {
	return func(o *options) { o.projects = p }
}

// WithEventHandler sets a handler for lifecycle events.
func WithEventHandler(h EventHandler) Option {
	return func(o *options) { o.eventHandler = h }
}

// WithRequestTimeout bounds requests sent to the UI. The default is
// bridge.DefaultTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithPlugin registers a plugin to be initialized when the runtime starts.
func WithPlugin(p Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, p)
	}
}

// declineDialogs is used when no dialogs were configured.
type declineDialogs struct{}

func (declineDialogs) Info(context.Context, string, string) error  { return nil }
func (declineDialogs) Error(context.Context, string, string) error { return nil }
func (declineDialogs) Confirm(context.Context, ports.Confirmation) (bool, error) {
	return false, nil
}
