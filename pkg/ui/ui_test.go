package ui

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/appshell/internal/app"
	"github.com/bft-labs/appshell/internal/domain"
	"github.com/bft-labs/appshell/pkg/bridge"
	"github.com/bft-labs/appshell/pkg/bus"
	"github.com/bft-labs/appshell/pkg/store"
)

type command struct {
	name string
	args []string
}

// fakeHost answers get-storage-key from doc and records commands.
type fakeHost struct {
	host *bridge.Host

	mu       sync.Mutex
	doc      any
	fetchErr error
	commands chan command
}

func newFakeHost(t *testing.T, doc any) (*fakeHost, bridge.Channel) {
	t.Helper()
	clearLocale(t)
	hostCh, uiCh := bridge.Pipe()
	f := &fakeHost{
		host:     bridge.NewHost(hostCh),
		doc:      doc,
		commands: make(chan command, 16),
	}
	f.host.HandleCall(bridge.CallGetStorageKey, func(_ context.Context, args bridge.Args) (any, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fetchErr != nil {
			return nil, f.fetchErr
		}
		return f.doc, nil
	})
	for _, name := range []string{
		bridge.CmdSetStorageKey, bridge.CmdUpdateLanguage, bridge.CmdRequestRestart,
		bridge.CmdOpenURL, bridge.CmdReportError, bridge.CmdQuit,
	} {
		name := name
		f.host.OnCommand(name, func(_ context.Context, args bridge.Args) {
			c := command{name: name}
			for _, a := range args {
				c.args = append(c.args, string(a))
			}
			f.commands <- c
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.host.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return f, uiCh
}

func (f *fakeHost) next(t *testing.T) command {
	t.Helper()
	select {
	case c := <-f.commands:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no command received")
		return command{}
	}
}

func startRuntime(t *testing.T, doc any, opts ...Option) (*Runtime, *fakeHost) {
	t.Helper()
	f, ch := newFakeHost(t, doc)
	rt := New(ch, opts...)
	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(func() { _ = rt.Stop() })
	return rt, f
}

func TestRuntimeBootLoadsSettings(t *testing.T) {
	_, ch := newFakeHost(t, map[string]any{
		"general": map[string]any{"language": "de_DE"},
	})
	rt := New(ch)

	var ready []any
	rt.Bus().On(bus.CacheReady, func(payload []any, _ string) {
		ready = append(ready, payload...)
	})
	var pages []string
	rt.Bus().On(bus.PageChanged(DefaultStartPage), func(_ []any, selector string) {
		pages = append(pages, selector)
	})

	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(func() { _ = rt.Stop() })

	assert.Equal(t, app.StateRunning, rt.Status())
	require.Len(t, ready, 1)
	assert.Equal(t, "de_DE", rt.Settings().ReadString("general.language", ""))
	assert.Equal(t, "de_DE", rt.Translator().Language())
	assert.Equal(t, "App neu starten", rt.Translator().Translate("ipc.requestRestart.title"))
	assert.Equal(t, []string{"page.changed.to.home"}, pages)
	assert.Equal(t, DefaultStartPage, rt.Navigator().Active())
}

func TestRuntimeBootWithEmptyStore(t *testing.T) {
	rt, _ := startRuntime(t, nil)

	assert.True(t, rt.Settings().Loaded())
	assert.Empty(t, rt.Settings().Snapshot())
}

func TestRuntimeBootFailure(t *testing.T) {
	f, ch := newFakeHost(t, nil)
	f.mu.Lock()
	f.fetchErr = errors.New("disk on fire")
	f.mu.Unlock()
	rt := New(ch)

	err := rt.Start(context.Background())
	require.Error(t, err)

	var remote *domain.RemoteError
	assert.ErrorAs(t, err, &remote)
	assert.Equal(t, app.StateCrashed, rt.Status())
	assert.False(t, rt.Settings().Loaded())
	assert.NoError(t, rt.Stop())

	report := f.next(t)
	assert.Equal(t, bridge.CmdReportError, report.name)
	require.Len(t, report.args, 1)
	assert.Contains(t, report.args[0], "disk on fire")
}

func TestTranslateContextIDAction(t *testing.T) {
	_, f := startRuntime(t, map[string]any{})
	ctx := context.Background()

	got, err := f.host.RequestString(ctx, bridge.ActionTranslateContextID, "settings.header")
	require.NoError(t, err)
	assert.Equal(t, "settings", got)

	got, err = f.host.RequestString(ctx, bridge.ActionTranslateContextID, "no.such.id")
	require.NoError(t, err)
	assert.Equal(t, "translation missing {no.such.id}", got)
}

func TestReloadSettingsAction(t *testing.T) {
	rt, f := startRuntime(t, map[string]any{"general": map[string]any{"language": "en_US"}})

	readies := 0
	rt.Bus().On(bus.CacheReady, func([]any, string) { readies++ })

	raw, err := f.host.Request(context.Background(), bridge.ActionReloadSettings,
		map[string]any{"general": map[string]any{"language": "de_DE"}})
	require.NoError(t, err)
	assert.JSONEq(t, "true", string(raw))
	assert.Equal(t, 1, readies)
	assert.Equal(t, "de_DE", rt.Settings().ReadString("general.language", ""))

	raw, err = f.host.Request(context.Background(), bridge.ActionReloadSettings, "nope")
	require.NoError(t, err)
	assert.JSONEq(t, "false", string(raw))
	assert.Equal(t, "de_DE", rt.Settings().ReadString("general.language", ""))
}

func TestStoreKeyForwardsWithPrefix(t *testing.T) {
	rt, f := startRuntime(t, map[string]any{"general": map[string]any{"language": "en_US"}})

	require.NoError(t, rt.Settings().StoreKey("general.language", "de_DE", store.Process))

	c := f.next(t)
	assert.Equal(t, bridge.CmdSetStorageKey, c.name)
	assert.Equal(t, []string{`"app.general.language"`, `"de_DE"`, `"process"`}, c.args)
	assert.Equal(t, "de_DE", rt.Settings().ReadString("general.language", ""))
}

func TestStoreKeyUnresolvedPathRequestsRestart(t *testing.T) {
	rt, f := startRuntime(t, map[string]any{})

	require.NoError(t, rt.Settings().StoreKey("missing.branch.key", 1, ""))

	restart := f.next(t)
	assert.Equal(t, bridge.CmdRequestRestart, restart.name)
	assert.Equal(t, []string{`{"once":true}`}, restart.args)

	set := f.next(t)
	assert.Equal(t, bridge.CmdSetStorageKey, set.name)
	assert.Equal(t, []string{`"app.missing.branch.key"`, `1`, `"general"`}, set.args)
}

func TestUpdateLanguageRequestsRestart(t *testing.T) {
	rt, f := startRuntime(t, map[string]any{})

	require.NoError(t, rt.API().UpdateLanguage("de_DE"))

	c := f.next(t)
	assert.Equal(t, bridge.CmdUpdateLanguage, c.name)
	assert.Equal(t, []string{`"de_DE"`}, c.args)
	c = f.next(t)
	assert.Equal(t, bridge.CmdRequestRestart, c.name)
	assert.Empty(t, c.args)
}

func TestOpenURLValidatesBeforeSending(t *testing.T) {
	rt, f := startRuntime(t, map[string]any{})

	err := rt.API().OpenURL("file:///etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidURL)

	require.NoError(t, rt.API().OpenURL("https://example.com/docs"))
	c := f.next(t)
	assert.Equal(t, bridge.CmdOpenURL, c.name)
	assert.Equal(t, []string{`"https://example.com/docs"`}, c.args)
}

func TestReportErrorAndQuit(t *testing.T) {
	rt, f := startRuntime(t, map[string]any{})

	require.NoError(t, rt.API().ReportError("boom"))
	c := f.next(t)
	assert.Equal(t, bridge.CmdReportError, c.name)
	assert.Equal(t, []string{`"boom"`}, c.args)

	require.NoError(t, rt.API().Quit())
	assert.Equal(t, bridge.CmdQuit, f.next(t).name)
}

func TestDoneWhenHostGoesAway(t *testing.T) {
	hostCh, uiCh := bridge.Pipe()
	host := bridge.NewHost(hostCh)
	host.HandleCall(bridge.CallGetStorageKey, func(context.Context, bridge.Args) (any, error) {
		return map[string]any{}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = host.Serve(ctx) }()

	rt := New(uiCh)
	require.NoError(t, rt.Start(context.Background()))

	cancel()
	_ = host.Close()

	select {
	case <-rt.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not notice the host closing")
	}
	assert.NoError(t, rt.Err())
	assert.NoError(t, rt.Stop())
	assert.Equal(t, app.StateStopped, rt.Status())
}

func TestStartTwice(t *testing.T) {
	rt, _ := startRuntime(t, map[string]any{})
	assert.ErrorIs(t, rt.Start(context.Background()), domain.ErrAlreadyRunning)
}

func clearLocale(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		t.Setenv(key, "")
	}
}

func TestConnectRetries(t *testing.T) {
	attempts := 0
	_, uiCh := bridge.Pipe()
	ch, err := Connect(context.Background(), func(context.Context) (bridge.Channel, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return uiCh, nil
	}, 5, nil)

	require.NoError(t, err)
	assert.Same(t, uiCh, ch)
	assert.Equal(t, 3, attempts)
}

func TestConnectGivesUp(t *testing.T) {
	_, err := Connect(context.Background(), func(context.Context) (bridge.Channel, error) {
		return nil, errors.New("connection refused")
	}, 2, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLoadProjectRoundTrip(t *testing.T) {
	f, ch := newFakeHost(t, map[string]any{})
	f.host.HandleCall(bridge.CallLoadProject, func(_ context.Context, args bridge.Args) (any, error) {
		name, err := args.String(0)
		if err != nil {
			return nil, err
		}
		return "content of " + name, nil
	})
	rt := New(ch)
	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(func() { _ = rt.Stop() })

	got, err := rt.API().LoadProject(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "content of demo", got)
}

func TestListProjects(t *testing.T) {
	f, ch := newFakeHost(t, map[string]any{})
	f.host.HandleCall(bridge.CallListProjects, func(context.Context, bridge.Args) (any, error) {
		return []string{"alpha", "demo"}, nil
	})
	rt := New(ch)
	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(func() { _ = rt.Stop() })

	got, err := rt.API().ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "demo"}, got)
}

func TestGetStorageKeyDecodes(t *testing.T) {
	rt, _ := startRuntime(t, map[string]any{"n": 2})

	v, err := rt.API().GetStorageKey(context.Background(), "app")
	require.NoError(t, err)
	want, _ := json.Marshal(map[string]any{"n": 2})
	got, _ := json.Marshal(v)
	assert.JSONEq(t, string(want), string(got))
}
