package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir         string `toml:"data_dir"`
	ProcessDir      string `toml:"process_dir"`
	Backend         string `toml:"backend"`
	Transport       string `toml:"transport"`
	ListenAddr      string `toml:"listen_addr"`
	RequestTimeout  string `toml:"request_timeout"`
	RestartDelay    string `toml:"restart_delay"`
	ConnectAttempts int    `toml:"connect_attempts"`
	WatchSettings   *bool  `toml:"watch_settings"`
	LogLevel        string `toml:"log_level"`
	UICommand       string `toml:"ui_command"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.appshell/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if home := DefaultHome(); home != "" {
		return filepath.Join(home, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("process-dir", fc.ProcessDir, &cfg.ProcessDir)
	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setString("transport", fc.Transport, &cfg.Transport)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("ui-command", fc.UICommand, &cfg.UICommand)

	if err := s.setDuration("timeout", fc.RequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := s.setDuration("restart-delay", fc.RestartDelay, &cfg.RestartDelay); err != nil {
		return err
	}

	s.setInt("connect-attempts", fc.ConnectAttempts, &cfg.ConnectAttempts)
	s.setBool("watch-settings", fc.WatchSettings, &cfg.WatchSettings)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
