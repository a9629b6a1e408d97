package host

import (
	"fmt"
	"os"
	"time"

	"github.com/bft-labs/appshell/internal/domain"
)

// Default configuration values.
const (
	DefaultAppName      = "appshell"
	DefaultVersion      = "0.1.0"
	DefaultRestartDelay = 100 * time.Millisecond
)

// Config configures a host Runtime.
type Config struct {
	// AppName and Version are shown by show-app-info.
	AppName string
	Version string

	// DataDir is the user-selected data directory. Projects live below it.
	DataDir string

	// RestartDelay is waited before a restart dialog is prepared, so that
	// writes sent just before request-restart land first.
	RestartDelay time.Duration

	// Args are passed to the relaunched process, followed by --relaunch.
	// Defaults to the current process arguments.
	Args []string
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.RestartDelay == 0 {
		c.RestartDelay = DefaultRestartDelay
	}
	if c.Args == nil && len(os.Args) > 1 {
		c.Args = withoutFlag(os.Args[1:], RelaunchFlag)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is required", domain.ErrInvalidConfig)
	}
	if c.RestartDelay < 0 {
		return fmt.Errorf("%w: restart delay must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

func withoutFlag(args []string, flag string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != flag {
			out = append(out, a)
		}
	}
	return out
}
