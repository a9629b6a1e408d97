package host

import (
	"context"
	"encoding/json"

	"github.com/bft-labs/appshell/pkg/log"
	"github.com/bft-labs/appshell/pkg/store"
)

// Plugin extends the host runtime.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called from Start. ctx is canceled when the runtime stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop, in reverse registration order.
	Shutdown(ctx context.Context) error
}

// Requester sends correlated requests to the UI.
type Requester interface {
	Request(ctx context.Context, action string, param any) (json.RawMessage, error)
}

// PluginConfig is handed to plugins on Initialize.
type PluginConfig struct {
	DataDir string
	Logger  log.Logger

	// Store is the general store.
	Store store.Store

	// UI reaches the UI process's action handlers.
	UI Requester
}
