package bridge

import (
	"time"

	"github.com/bft-labs/appshell/pkg/log"
)

// DefaultTimeout bounds correlated host-to-UI requests.
const DefaultTimeout = 8 * time.Second

// Option configures a Host or Client.
type Option func(*options)

type options struct {
	logger  log.Logger
	timeout time.Duration
	newID   func() (string, error)
}

func defaultOptions() options {
	return options{
		logger:  log.NewNoopLogger(),
		timeout: DefaultTimeout,
		newID:   NewCorrelationID,
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTimeout sets the hard upper bound for correlated requests.
// Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithIDGenerator replaces the correlation id generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}
