package settingswatcher

import "github.com/bft-labs/appshell/pkg/host"

// WithSettingsWatcher returns a host Option that pushes external edits of
// the settings file to the UI.
//
// Usage:
//
//	rt, err := host.New(cfg, stores, ch,
//	    settingswatcher.WithSettingsWatcher(settingswatcher.Config{
//	        DebounceDelay: 200 * time.Millisecond,
//	    }),
//	)
func WithSettingsWatcher(cfg Config) host.Option {
	return host.WithPlugin(New(cfg))
}

// WithDefaultSettingsWatcher enables the watcher with default settings.
func WithDefaultSettingsWatcher() host.Option {
	return WithSettingsWatcher(DefaultConfig())
}
