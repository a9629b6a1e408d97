package cliconfig

import "os"

// EnvPrefix is the prefix of every environment variable read by ApplyEnvConfig.
const EnvPrefix = "APPSHELL_"

// ApplyEnvConfig applies configuration from environment variables (APPSHELL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv(EnvPrefix+"DATA_DIR"), &cfg.DataDir)
	s.setString("process-dir", os.Getenv(EnvPrefix+"PROCESS_DIR"), &cfg.ProcessDir)
	s.setString("backend", os.Getenv(EnvPrefix+"BACKEND"), &cfg.Backend)
	s.setString("transport", os.Getenv(EnvPrefix+"TRANSPORT"), &cfg.Transport)
	s.setString("listen", os.Getenv(EnvPrefix+"LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("log-level", os.Getenv(EnvPrefix+"LOG_LEVEL"), &cfg.LogLevel)
	s.setString("ui-command", os.Getenv(EnvPrefix+"UI_COMMAND"), &cfg.UICommand)

	if err := s.setDuration("timeout", os.Getenv(EnvPrefix+"REQUEST_TIMEOUT"), &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := s.setDuration("restart-delay", os.Getenv(EnvPrefix+"RESTART_DELAY"), &cfg.RestartDelay); err != nil {
		return err
	}
	if err := s.setIntFromString("connect-attempts", os.Getenv(EnvPrefix+"CONNECT_ATTEMPTS"), &cfg.ConnectAttempts); err != nil {
		return err
	}

	s.setBoolFromString("watch-settings", os.Getenv(EnvPrefix+"WATCH_SETTINGS"), &cfg.WatchSettings)

	return nil
}
