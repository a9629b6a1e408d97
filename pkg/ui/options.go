package ui

import (
	"time"

	"github.com/bft-labs/appshell/pkg/log"
)

// DefaultStartPage is the page shown after boot.
const DefaultStartPage = "home"

// Option configures a Runtime.
type Option func(*options)

type options struct {
	logger      log.Logger
	catalogs    Catalogs
	startPage   string
	callTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:      log.NewNoopLogger(),
		startPage:   DefaultStartPage,
		callTimeout: 10 * time.Second,
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCatalogs replaces the built-in translation catalogs.
func WithCatalogs(c Catalogs) Option {
	return func(o *options) {
		o.catalogs = c
	}
}

// WithStartPage sets the page active after boot.
func WithStartPage(page string) Option {
	return func(o *options) {
		if page != "" {
			o.startPage = page
		}
	}
}

// WithBootTimeout bounds the initial settings fetch.
func WithBootTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}
