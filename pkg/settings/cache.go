package settings

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bft-labs/appshell/internal/dotpath"
	"github.com/bft-labs/appshell/pkg/bus"
	"github.com/bft-labs/appshell/pkg/log"
	"github.com/bft-labs/appshell/pkg/store"
)

// Document is a nested settings document.
type Document = map[string]any

// Forwarder carries settings writes and corrective actions to the host.
type Forwarder interface {
	// SetStorageKey persists value at key in the host's durable store.
	SetStorageKey(key string, value any, target store.Target) error

	// RequestRestart asks the host to offer an application restart.
	RequestRestart(once bool) error
}

// Cache is the settings mirror. One Cache exists per UI process.
type Cache struct {
	mu     sync.RWMutex
	doc    Document
	loaded bool

	bus     *bus.Bus
	forward Forwarder
	logger  log.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger log.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithForwarder sets the host link used by StoreKey.
func WithForwarder(f Forwarder) Option {
	return func(c *Cache) {
		c.forward = f
	}
}

// New creates an unloaded cache that announces readiness on b.
func New(b *bus.Bus, opts ...Option) *Cache {
	c := &Cache{
		doc:    Document{},
		bus:    b,
		logger: log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load installs doc as the current document, replacing any previous one, and
// emits bus.CacheReady with the loaded document as the only payload element.
// A nil doc installs an empty document. It returns the number of listeners
// notified.
func (c *Cache) Load(doc Document) int {
	installed := Document{}
	if doc != nil {
		installed = dotpath.Clone(doc).(Document)
	}

	c.mu.Lock()
	c.doc = installed
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("settings cache loaded", log.Int("keys", len(installed)))
	if c.bus == nil {
		return 0
	}
	return c.bus.Emit(bus.CacheReady, c.Snapshot())
}

// Loaded reports whether Load has been called.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Snapshot returns a deep copy of the current document.
func (c *Cache) Snapshot() Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return dotpath.Clone(c.doc).(Document)
}

// Lookup resolves path and reports whether a value exists there.
// Missing paths are not errors.
func (c *Cache) Lookup(path string) (any, bool, error) {
	segs, err := dotpath.Split(dotpath.StripPrefix(path))
	if err != nil {
		return nil, false, err
	}
	return c.lookup(segs)
}

// Read returns the value at path, or nil when any segment is absent.
func (c *Cache) Read(path string) (any, error) {
	v, _, err := c.Lookup(path)
	return v, err
}

// Unfold reads a nested value. Paths with fewer than two segments are
// rejected; use Root for top-level keys.
func (c *Cache) Unfold(path string) (any, error) {
	segs, err := dotpath.Split(dotpath.StripPrefix(path))
	if err != nil {
		return nil, err
	}
	if len(segs) < 2 {
		return nil, fmt.Errorf("%w: %q has fewer than two segments", ErrInvalidPath, path)
	}
	v, _, err := c.lookup(segs)
	return v, err
}

// Root returns the top-level value stored under key.
func (c *Cache) Root(key string) (any, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidPath)
	}
	v, _, err := c.lookup([]string{key})
	return v, err
}

// ReadOr returns the value at path, or fallback when the value is missing,
// nil, or cannot be read.
func (c *Cache) ReadOr(path string, fallback any) any {
	v, err := c.Read(path)
	return Fallback(v, err, fallback)
}

// ReadString is ReadOr for string settings. Non-string values yield fallback.
func (c *Cache) ReadString(path, fallback string) string {
	if s, ok := c.ReadOr(path, fallback).(string); ok {
		return s
	}
	return fallback
}

// Fallback returns fallback when err is non-nil or v is nil, else v.
func Fallback(v any, err error, fallback any) any {
	if err != nil || v == nil {
		return fallback
	}
	return v
}

func (c *Cache) lookup(segs []string) (any, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false, ErrNotLoaded
	}
	v, ok := dotpath.Lookup(c.doc, segs)
	if !ok {
		return nil, false, nil
	}
	return dotpath.Clone(v), true, nil
}

// Write sets the terminal segment of path to value and returns a copy of the
// updated document. The parent node must already exist and be a mapping;
// otherwise the document is left untouched and the error matches
// ErrPathResolution.
func (c *Cache) Write(path string, value any) (Document, error) {
	segs, err := dotpath.Split(dotpath.StripPrefix(path))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return nil, fmt.Errorf("%w: %w", ErrNotLoaded, &PathError{Path: path})
	}

	parentSegs, last := segs[:len(segs)-1], segs[len(segs)-1]
	parent, ok := dotpath.Lookup(c.doc, parentSegs)
	if !ok {
		return nil, &PathError{Path: path, Segment: missingSegment(c.doc, parentSegs)}
	}
	node, ok := dotpath.AsMap(parent)
	if !ok {
		return nil, &PathError{Path: path, Segment: parentSegs[len(parentSegs)-1]}
	}

	node[last] = dotpath.Clone(value)
	return dotpath.Clone(c.doc).(Document), nil
}

// missingSegment returns the first segment of segs that does not resolve to a
// mapping.
func missingSegment(root Document, segs []string) string {
	for i := range segs {
		v, ok := dotpath.Lookup(root, segs[:i+1])
		if !ok {
			return segs[i]
		}
		if _, ok := dotpath.AsMap(v); !ok {
			return segs[i]
		}
	}
	return ""
}

// StoreKey updates the mirror and forwards key, value and target to the host
// for durable persistence. The durable write is forwarded whatever happened
// to the mirror: a path resolution failure is logged and answered with a
// restart request, a malformed key is logged and left for the host to
// reject. After forwarding, bus.KeyStored(key) is emitted.
func (c *Cache) StoreKey(key string, value any, target store.Target) error {
	if _, err := c.Write(key, value); err != nil {
		switch {
		case errors.Is(err, ErrPathResolution):
			c.logger.Warn("settings cache update failed; a restart will resync it",
				log.Path(key), log.Err(err))
			if c.forward != nil {
				if rerr := c.forward.RequestRestart(true); rerr != nil {
					c.logger.Error("restart request failed", log.Err(rerr))
				}
			}
		default:
			c.logger.Warn("settings cache update skipped", log.Path(key), log.Err(err))
		}
	}

	var ferr error
	if c.forward != nil {
		ferr = c.forward.SetStorageKey(key, value, target)
		if ferr != nil {
			c.logger.Error("forwarding settings write failed", log.Path(key), log.Err(ferr))
		}
	}

	if c.bus != nil {
		c.bus.Emit(bus.KeyStored(key))
	}
	return ferr
}
