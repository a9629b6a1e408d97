// Package settingswatcher pushes edits of the settings file made outside the
// host process to the UI. When the file changes on disk, the document is
// reloaded and its "app" subtree is sent with the reloadSettings action, so
// the UI's settings cache is replaced without a restart.
package settingswatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/host"
	"github.com/bft-labs/appshell/pkg/log"
)

// Root is the document key mirrored by the UI.
const Root = "app"

// Watchable is a store backed by a file that can be re-read.
type Watchable interface {
	Path() string
	Snapshot() map[string]any
	Reload() (map[string]any, error)
}

// Plugin watches the general store's file.
type Plugin struct {
	mu sync.Mutex

	retryInterval time.Duration
	debounceDelay time.Duration
	maxRetries    int

	store    Watchable
	ui       host.Requester
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the settings watcher.
type Config struct {
	// RetryInterval is the delay between failed pushes.
	// Default: 1 second
	RetryInterval time.Duration

	// DebounceDelay is the quiet period after a file event before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// MaxRetries bounds the pushes attempted per change.
	// Default: 3
	MaxRetries int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryInterval: time.Second,
		DebounceDelay: 100 * time.Millisecond,
		MaxRetries:    3,
	}
}

// New creates a settings watcher with the given configuration.
func New(cfg Config) *Plugin {
	def := DefaultConfig()
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = def.DebounceDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	return &Plugin{
		retryInterval: cfg.RetryInterval,
		debounceDelay: cfg.DebounceDelay,
		maxRetries:    cfg.MaxRetries,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "settingswatcher"
}

// Initialize starts watching the store's directory. Stores that are not
// file backed disable the plugin.
func (p *Plugin) Initialize(ctx context.Context, cfg host.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.ui = cfg.UI
	w, ok := cfg.Store.(Watchable)
	p.mu.Unlock()

	if !ok || cfg.UI == nil {
		p.logger.Warn("settings watcher disabled: store is not file backed")
		return nil
	}
	p.store = w

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settingswatcher: create watcher: %w", err)
	}
	dir := filepath.Dir(w.Path())
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("settingswatcher: watch %s: %w", dir, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("settings watcher initialized", log.Path(w.Path()))
	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)
	return nil
}

// Shutdown stops watching and waits for a pending push.
func (p *Plugin) Shutdown(context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Lock()
	p.stopDebounce()
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

// stopDebounce cancels a scheduled reload. p.mu must be held.
func (p *Plugin) stopDebounce() {
	if p.debounce != nil && p.debounce.Stop() {
		p.wg.Done()
	}
	p.debounce = nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.store.Path())
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("settings watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	p.stopDebounce()
	p.wg.Add(1)
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		defer p.wg.Done()
		p.reload(ctx)
	})
}

// reload re-reads the file and pushes the "app" subtree when it differs from
// the document the store held. Writes made through the store leave the two
// equal and are not pushed.
func (p *Plugin) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	before, err := encodeRoot(p.store.Snapshot())
	if err != nil {
		p.logger.Error("settings document not encodable", log.Err(err))
		return
	}
	doc, err := p.store.Reload()
	if err != nil {
		p.logger.Warn("settings file unreadable, keeping previous document",
			log.Path(p.store.Path()), log.Err(err))
		return
	}
	encoded, err := encodeRoot(doc)
	if err != nil {
		p.logger.Error("settings document not encodable", log.Err(err))
		return
	}

	if bytes.Equal(encoded, before) {
		return
	}

	root, _ := doc[Root].(map[string]any)
	if root == nil {
		root = map[string]any{}
	}
	for attempt := 1; ; attempt++ {
		err := p.push(ctx, root)
		if err == nil {
			p.logger.Info("pushed settings reload to ui", log.Int("attempt", attempt))
			return
		}
		if attempt >= p.maxRetries {
			p.logger.Error("settings reload push failed", log.Int("attempts", attempt), log.Err(err))
			return
		}
		p.logger.Warn("settings reload push failed, retrying", log.Err(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.retryInterval):
		}
	}
}

func (p *Plugin) push(ctx context.Context, root map[string]any) error {
	raw, err := p.ui.Request(ctx, bridge.ActionReloadSettings, root)
	if err != nil {
		return err
	}
	var accepted bool
	if err := json.Unmarshal(raw, &accepted); err != nil || !accepted {
		return fmt.Errorf("ui rejected reload: %s", string(raw))
	}
	return nil
}

// encodeRoot returns the canonical encoding of doc's "app" subtree.
func encodeRoot(doc map[string]any) ([]byte, error) {
	return json.Marshal(doc[Root])
}

// Ensure Plugin implements host.Plugin.
var _ host.Plugin = (*Plugin)(nil)
