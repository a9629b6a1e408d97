package ui

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bft-labs/appshell/internal/dotpath"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/store"
)

// API is the typed surface over the host bridge available to UI code.
// It implements settings.Forwarder.
type API struct {
	client *bridge.Client
}

// NewAPI wraps client.
func NewAPI(client *bridge.Client) *API {
	return &API{client: client}
}

// Quit asks the host to end the process.
func (a *API) Quit() error {
	return a.client.Send(bridge.CmdQuit)
}

// GetStorageKey reads key from the host's durable stores. A missing key
// yields nil.
func (a *API) GetStorageKey(ctx context.Context, key string) (any, error) {
	raw, err := a.client.Call(ctx, bridge.CallGetStorageKey, key)
	if err != nil {
		return nil, err
	}
	var v any
	if len(raw) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

// SetStorageKey persists value at key. Keys are placed under the "app."
// namespace and an empty target means the general store.
func (a *API) SetStorageKey(key string, value any, target store.Target) error {
	if target == "" {
		target = store.General
	}
	return a.client.Send(bridge.CmdSetStorageKey, dotpath.EnsurePrefix(key), value, string(target))
}

// UpdateLanguage stores the new language id and asks for a restart so the
// change takes effect.
func (a *API) UpdateLanguage(id string) error {
	if err := a.client.Send(bridge.CmdUpdateLanguage, id); err != nil {
		return err
	}
	return a.client.Send(bridge.CmdRequestRestart)
}

// RequestRestart asks the host to offer a restart. once marks the restart as
// a one-time requirement in the dialog text.
func (a *API) RequestRestart(once bool) error {
	return a.client.Send(bridge.CmdRequestRestart, bridge.RestartOptions{Once: once})
}

// ReportError reports an unrecoverable UI error. The host shows it and exits.
func (a *API) ReportError(message string) error {
	return a.client.Send(bridge.CmdReportError, message)
}

// ShowAppInfo asks the host to display application information.
func (a *API) ShowAppInfo() error {
	return a.client.Send(bridge.CmdShowAppInfo)
}

// OpenURL asks the host to open raw in the user's browser after
// confirmation. Only http and https URLs are forwarded.
func (a *API) OpenURL(raw string) error {
	u, err := bridge.ValidateURL(raw)
	if err != nil {
		return err
	}
	return a.client.Send(bridge.CmdOpenURL, u.String())
}

// SaveProject stores content under name in the host's project directory.
func (a *API) SaveProject(name, content string) error {
	return a.client.Send(bridge.CmdSaveProject, name, content)
}

// LoadProject returns the content saved under name.
func (a *API) LoadProject(ctx context.Context, name string) (string, error) {
	raw, err := a.client.Call(ctx, bridge.CallLoadProject, name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decode project %s: %w", name, err)
	}
	return s, nil
}

// ListProjects returns the names of the saved projects.
func (a *API) ListProjects(ctx context.Context) ([]string, error) {
	raw, err := a.client.Call(ctx, bridge.CallListProjects)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("decode project list: %w", err)
	}
	return names, nil
}

// OnWindowEvent registers fn for host requests named action. Registering the
// same action twice chains the handlers.
func (a *API) OnWindowEvent(action string, fn bridge.ActionHandler) {
	a.client.HandleAction(action, fn)
}
