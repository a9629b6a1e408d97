package settingswatcher

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/appshell/internal/adapters/jsonstore"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/host"
	"github.com/bft-labs/appshell/pkg/store"
)

type fakeUI struct {
	mu     sync.Mutex
	pushes []map[string]any
	fail   int
	reply  string
}

func (u *fakeUI) Request(_ context.Context, action string, param any) (json.RawMessage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if action != bridge.ActionReloadSettings {
		return nil, errors.New("unexpected action " + action)
	}
	if u.fail > 0 {
		u.fail--
		return nil, errors.New("ui busy")
	}
	doc, _ := param.(map[string]any)
	u.pushes = append(u.pushes, doc)
	if u.reply != "" {
		return json.RawMessage(u.reply), nil
	}
	return json.RawMessage("true"), nil
}

func (u *fakeUI) received() []map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]map[string]any(nil), u.pushes...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func startPlugin(t *testing.T, ui *fakeUI) (*Plugin, *jsonstore.Store) {
	t.Helper()
	dir := t.TempDir()
	s, err := jsonstore.Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Set("app.general.language", "en_US"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	p := New(Config{
		RetryInterval: 10 * time.Millisecond,
		DebounceDelay: 20 * time.Millisecond,
	})
	if err := p.Initialize(context.Background(), host.PluginConfig{
		DataDir: dir,
		Store:   s,
		UI:      ui,
	}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
	return p, s
}

func TestPlugin_PushesExternalEdits(t *testing.T) {
	ui := &fakeUI{}
	_, s := startPlugin(t, ui)

	edited := "// edited by hand\n{\"app\": {\"general\": {\"language\": \"de_DE\"},},}"
	if err := os.WriteFile(s.Path(), []byte(edited), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	waitFor(t, func() bool { return len(ui.received()) > 0 })
	got := ui.received()[0]
	general, _ := got["general"].(map[string]any)
	if general["language"] != "de_DE" {
		t.Errorf("pushed document = %v, want language de_DE", got)
	}

	v, _, _ := s.Get("app.general.language")
	if v != "de_DE" {
		t.Errorf("store value = %v, want de_DE", v)
	}
}

func TestPlugin_IgnoresOwnWrites(t *testing.T) {
	ui := &fakeUI{}
	_, s := startPlugin(t, ui)

	if err := s.Set("app.general.language", "de_DE"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := len(ui.received()); n != 0 {
		t.Errorf("pushes = %d, want 0 for writes made through the store", n)
	}
}

func TestPlugin_RetriesFailedPush(t *testing.T) {
	ui := &fakeUI{fail: 2}
	_, s := startPlugin(t, ui)

	if err := os.WriteFile(s.Path(), []byte(`{"app": {"x": 1}}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	waitFor(t, func() bool { return len(ui.received()) == 1 })
}

func TestPlugin_KeepsDocumentOnInvalidFile(t *testing.T) {
	ui := &fakeUI{}
	_, s := startPlugin(t, ui)

	if err := os.WriteFile(s.Path(), []byte(`{"app": `), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if n := len(ui.received()); n != 0 {
		t.Errorf("pushes = %d, want 0", n)
	}
	v, _, _ := s.Get("app.general.language")
	if v != "en_US" {
		t.Errorf("store value = %v, want en_US", v)
	}
}

func TestPlugin_DisabledForMemoryStore(t *testing.T) {
	p := New(DefaultConfig())
	err := p.Initialize(context.Background(), host.PluginConfig{
		Store: store.NewMemory(),
		UI:    &fakeUI{},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})
	def := DefaultConfig()
	if p.retryInterval != def.RetryInterval || p.debounceDelay != def.DebounceDelay || p.maxRetries != def.MaxRetries {
		t.Errorf("New(Config{}) = %+v, want defaults %+v", p, def)
	}
	if p.Name() != "settingswatcher" {
		t.Errorf("Name() = %q", p.Name())
	}
}
