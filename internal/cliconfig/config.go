package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendJSON = "json"
	BackendBolt = "bolt"
)

// Transports between the host and UI processes.
const (
	TransportStdio = "stdio"
	TransportWS    = "ws"
)

// Defaults.
const (
	DefaultListenAddr      = "127.0.0.1:7878"
	DefaultRequestTimeout  = 8 * time.Second
	DefaultRestartDelay    = 100 * time.Millisecond
	DefaultConnectAttempts = 20
	DefaultLogLevel        = "info"
)

// Config holds CLI configuration for appshell.
type Config struct {
	// DataDir holds the general store and saved projects.
	DataDir string
	// ProcessDir holds the process store. Defaults to the parent of DataDir.
	ProcessDir string
	Backend    string

	Transport       string
	ListenAddr      string
	RequestTimeout  time.Duration
	RestartDelay    time.Duration
	ConnectAttempts int

	WatchSettings bool
	LogLevel      string

	// UICommand starts the UI process for "appshell run". Empty means this
	// executable with the "ui" subcommand.
	UICommand string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendJSON,
		Transport:       TransportStdio,
		ListenAddr:      DefaultListenAddr,
		RequestTimeout:  DefaultRequestTimeout,
		RestartDelay:    DefaultRestartDelay,
		ConnectAttempts: DefaultConnectAttempts,
		WatchSettings:   true,
		LogLevel:        DefaultLogLevel,
	}
}

// DefaultHome returns ~/.appshell, or "" when the home directory is unknown.
func DefaultHome() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".appshell")
	}
	return ""
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		home := DefaultHome()
		if home == "" {
			return fmt.Errorf("data-dir is required (home directory unknown)")
		}
		c.DataDir = filepath.Join(home, "data")
	}
	if c.ProcessDir == "" {
		c.ProcessDir = filepath.Dir(filepath.Clean(c.DataDir))
	}
	if filepath.Clean(c.ProcessDir) == filepath.Clean(c.DataDir) {
		return fmt.Errorf("process-dir and data-dir must differ (both %s)", c.DataDir)
	}

	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendJSON, BackendBolt:
	case "":
		c.Backend = BackendJSON
	default:
		return fmt.Errorf("unknown store backend %q (want %s or %s)", c.Backend, BackendJSON, BackendBolt)
	}

	c.Transport = strings.ToLower(c.Transport)
	switch c.Transport {
	case TransportStdio, TransportWS:
	case "":
		c.Transport = TransportStdio
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportWS)
	}
	if c.Transport == TransportWS && c.ListenAddr == "" {
		return fmt.Errorf("listen address is required for the %s transport", TransportWS)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.RestartDelay < 0 {
		return fmt.Errorf("restart delay must not be negative")
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = DefaultConnectAttempts
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
