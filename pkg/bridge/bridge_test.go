package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/appshell/internal/domain"
)

func serve(t *testing.T, fn func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = fn(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// newPair starts a served Host and Client connected by an in-memory pipe.
func newPair(t *testing.T, hostOpts ...Option) (*Host, *Client) {
	t.Helper()
	hostCh, uiCh := Pipe()
	host := NewHost(hostCh, hostOpts...)
	ui := NewClient(uiCh)
	serve(t, host.Serve)
	serve(t, ui.Serve)
	return host, ui
}

// newRawHost starts a served Host whose peer is driven by the test directly.
func newRawHost(t *testing.T, opts ...Option) (*Host, Channel) {
	t.Helper()
	hostCh, raw := Pipe()
	host := NewHost(hostCh, opts...)
	serve(t, host.Serve)
	return host, raw
}

func receiveKind(t *testing.T, ch Channel, kind Kind) Envelope {
	t.Helper()
	for {
		env, err := ch.Receive()
		require.NoError(t, err)
		if env.Kind == kind {
			return env
		}
	}
}

func TestRequest_RoundTrip(t *testing.T) {
	host, ui := newPair(t)
	ui.HandleAction("translateContextId", func(v any) any {
		return strings.ToUpper(v.(string))
	})

	got, err := host.RequestString(context.Background(), "translateContextId", "ipc.title")
	require.NoError(t, err)
	assert.Equal(t, "IPC.TITLE", got)
	assert.Equal(t, 0, host.Pending())
}

func TestRequest_UnknownActionAnswersNull(t *testing.T) {
	host, _ := newPair(t)

	raw, err := host.Request(context.Background(), "noSuchAction", 1)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	s, err := host.RequestString(context.Background(), "noSuchAction", 1)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestRequest_ChainedActionHandlers(t *testing.T) {
	host, ui := newPair(t)
	ui.HandleAction("value", func(v any) any { return v.(float64) + 1 })
	ui.HandleAction("value", func(v any) any { return v.(float64) * 10 })

	raw, err := host.Request(context.Background(), "value", 2)
	require.NoError(t, err)
	assert.JSONEq(t, "30", string(raw))
}

func TestRequest_ActionPanicBecomesRemoteError(t *testing.T) {
	host, ui := newPair(t)
	ui.HandleAction("boom", func(any) any { panic("bad") })

	_, err := host.Request(context.Background(), "boom", nil)
	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Message, "panicked")
}

func TestRequest_RepeatedTimeoutsLeaveNoEntries(t *testing.T) {
	host, _ := newRawHost(t, WithTimeout(20*time.Millisecond))

	const n = 10
	for i := 0; i < n; i++ {
		_, err := host.Request(context.Background(), "translateContextId", "key")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrRequestTimeout)

		var te *domain.TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "translateContextId", te.Action)
		assert.Equal(t, 20*time.Millisecond, te.After)
		assert.Len(t, te.ID, 32)
	}
	assert.Equal(t, 0, host.Pending())
}

func TestRequest_LateReplyIsIgnored(t *testing.T) {
	host, raw := newRawHost(t, WithTimeout(20*time.Millisecond))

	_, err := host.Request(context.Background(), "slow", nil)
	require.ErrorIs(t, err, domain.ErrRequestTimeout)

	req := receiveKind(t, raw, KindRequest)
	require.NoError(t, raw.Send(Envelope{
		Version: ProtocolVersion, Kind: KindReply, ID: req.ID, Result: json.RawMessage(`"late"`),
	}))

	// The host keeps working after discarding the late reply.
	done := make(chan error, 1)
	go func() {
		_, err := host.Request(context.Background(), "next", nil)
		done <- err
	}()
	next := receiveKind(t, raw, KindRequest)
	assert.Equal(t, "next", next.Name)
	require.NoError(t, raw.Send(Envelope{Version: ProtocolVersion, Kind: KindReply, ID: next.ID, Result: json.RawMessage(`1`)}))
	require.NoError(t, <-done)
	assert.Equal(t, 0, host.Pending())
}

func TestRequest_OutOfOrderReplies(t *testing.T) {
	host, raw := newRawHost(t)

	type outcome struct {
		value string
		err   error
	}
	results := make(map[string]outcome)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, key := range []string{"first", "second"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			v, err := host.RequestString(context.Background(), "translateContextId", key)
			mu.Lock()
			results[key] = outcome{v, err}
			mu.Unlock()
		}(key)
	}

	a := receiveKind(t, raw, KindRequest)
	b := receiveKind(t, raw, KindRequest)
	require.NotEqual(t, a.ID, b.ID)

	// Answer in reverse arrival order, echoing each parameter.
	for _, env := range []Envelope{b, a} {
		var param string
		require.NoError(t, json.Unmarshal(env.Args[0], &param))
		result, _ := json.Marshal("reply:" + param)
		require.NoError(t, raw.Send(Envelope{Version: ProtocolVersion, Kind: KindReply, ID: env.ID, Result: result}))
	}
	wg.Wait()

	for _, key := range []string{"first", "second"} {
		require.NoError(t, results[key].err)
		assert.Equal(t, "reply:"+key, results[key].value)
	}
	assert.Equal(t, 0, host.Pending())
}

func TestRequest_ContextCancel(t *testing.T) {
	host, _ := newRawHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := host.Request(ctx, "translateContextId", "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, host.Pending())
}

func TestRequest_CloseFailsOutstanding(t *testing.T) {
	host, _ := newRawHost(t, WithTimeout(time.Minute))

	done := make(chan error, 1)
	go func() {
		_, err := host.Request(context.Background(), "translateContextId", "x")
		done <- err
	}()
	require.Eventually(t, func() bool { return host.Pending() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, host.Close())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("request not released by Close")
	}
	assert.Equal(t, 0, host.Pending())

	_, err := host.Request(context.Background(), "translateContextId", "y")
	assert.ErrorIs(t, err, domain.ErrClosed)
}

func TestCommand_DeliveredInOrder(t *testing.T) {
	host, ui := newPair(t)

	got := make(chan string, 3)
	host.OnCommand("update-language", func(_ context.Context, args Args) {
		id, err := args.String(0)
		assert.NoError(t, err)
		got <- id
	})

	for _, id := range []string{"en_US", "de_DE", "fr_FR"} {
		require.NoError(t, ui.Send("update-language", id))
	}
	for _, want := range []string{"en_US", "de_DE", "fr_FR"} {
		select {
		case id := <-got:
			assert.Equal(t, want, id)
		case <-time.After(time.Second):
			t.Fatalf("command %s not delivered", want)
		}
	}
}

func TestCommand_LastRegistrationWins(t *testing.T) {
	host, ui := newPair(t)

	got := make(chan string, 2)
	host.OnCommand("quit", func(context.Context, Args) { got <- "first" })
	host.OnCommand("quit", func(context.Context, Args) { got <- "second" })

	require.NoError(t, ui.Send("quit"))
	select {
	case v := <-got:
		assert.Equal(t, "second", v)
	case <-time.After(time.Second):
		t.Fatal("command not delivered")
	}
}

func TestCall_ReturnsValue(t *testing.T) {
	host, ui := newPair(t)
	host.HandleCall("get-storage-key", func(_ context.Context, args Args) (any, error) {
		key, err := args.String(0)
		if err != nil {
			return nil, err
		}
		return map[string]any{"key": key, "value": true}, nil
	})

	raw, err := ui.Call(context.Background(), "get-storage-key", "app.settings")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"app.settings","value":true}`, string(raw))
	assert.Equal(t, 0, ui.Pending())
}

func TestCall_Errors(t *testing.T) {
	host, ui := newPair(t)
	host.HandleCall("load-project", func(context.Context, Args) (any, error) {
		return nil, domain.ErrProjectNotFound
	})

	tests := []struct {
		name string
		call string
		want string
	}{
		{name: "handler error", call: "load-project", want: "project not found"},
		{name: "unknown call", call: "no-such-call", want: "unknown call"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ui.Call(context.Background(), tt.call)
			var remote *domain.RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, tt.call, remote.Name)
			assert.Contains(t, remote.Message, tt.want)
		})
	}
}

func TestCall_HandlerMayRequestFromUI(t *testing.T) {
	host, ui := newPair(t)
	ui.HandleAction("translateContextId", func(v any) any { return "translated " + v.(string) })
	host.HandleCall("title", func(ctx context.Context, _ Args) (any, error) {
		return host.RequestString(ctx, "translateContextId", "title")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := ui.Call(ctx, "title")
	require.NoError(t, err)
	assert.JSONEq(t, `"translated title"`, string(raw))
}

func TestInvalidEnvelopes(t *testing.T) {
	host, raw := newRawHost(t)
	called := make(chan struct{}, 1)
	host.HandleCall("ping", func(context.Context, Args) (any, error) {
		called <- struct{}{}
		return "pong", nil
	})

	// Incompatible version with an id is answered with an error.
	require.NoError(t, raw.Send(Envelope{Version: "2.0.0", Kind: KindCall, Name: "ping", ID: "a"}))
	reply := receiveKind(t, raw, KindReply)
	assert.Equal(t, "a", reply.ID)
	assert.Contains(t, reply.Error, "invalid message")

	// Commands without a name and unknown kinds are dropped.
	require.NoError(t, raw.Send(Envelope{Version: ProtocolVersion, Kind: KindCommand}))
	require.NoError(t, raw.Send(Envelope{Version: ProtocolVersion, Kind: "bogus", Name: "x"}))

	// A request sent to the host is not accepted on that side.
	require.NoError(t, raw.Send(Envelope{Version: ProtocolVersion, Kind: KindRequest, Name: "x", ID: "b"}))
	reply = receiveKind(t, raw, KindReply)
	assert.Equal(t, "b", reply.ID)
	assert.NotEmpty(t, reply.Error)

	// The host still serves valid traffic.
	require.NoError(t, raw.Send(Envelope{Version: ProtocolVersion, Kind: KindCall, Name: "ping", ID: "c"}))
	reply = receiveKind(t, raw, KindReply)
	assert.Equal(t, "c", reply.ID)
	assert.JSONEq(t, `"pong"`, string(reply.Result))
	select {
	case <-called:
	default:
		t.Fatal("ping handler not invoked")
	}
}

func TestServe_ReturnsOnPeerClose(t *testing.T) {
	hostCh, uiCh := Pipe()
	host := NewHost(hostCh)
	done := make(chan error, 1)
	go func() { done <- host.Serve(context.Background()) }()

	require.NoError(t, uiCh.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServe_DispatchesCommandsSentBeforeClose(t *testing.T) {
	hostCh, uiCh := Pipe()
	host := NewHost(hostCh)

	var mu sync.Mutex
	var got []string
	host.OnCommand("report-error", func(_ context.Context, args Args) {
		time.Sleep(20 * time.Millisecond)
		msg, _ := args.String(0)
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})

	ui := NewClient(uiCh)
	require.NoError(t, ui.Send("report-error", "first"))
	require.NoError(t, ui.Send("report-error", "second"))
	require.NoError(t, ui.Close())

	done := make(chan error, 1)
	go func() { done <- host.Serve(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, got)
}

// garbledChannel reports an undecodable message before every envelope.
type garbledChannel struct {
	Channel
	mu      sync.Mutex
	garbled bool
}

func (c *garbledChannel) Receive() (Envelope, error) {
	c.mu.Lock()
	c.garbled = !c.garbled
	garbled := c.garbled
	c.mu.Unlock()
	if garbled {
		return DecodeEnvelope([]byte(`{"v":"1.0.0","kind":"command","name":5}`))
	}
	return c.Channel.Receive()
}

func TestServe_SkipsUndecodableMessages(t *testing.T) {
	hostCh, uiCh := Pipe()
	host := NewHost(&garbledChannel{Channel: hostCh})
	host.HandleCall("get-storage-key", func(context.Context, Args) (any, error) {
		return "stored", nil
	})
	ui := NewClient(uiCh)
	serve(t, host.Serve)
	serve(t, ui.Serve)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		raw, err := ui.Call(ctx, "get-storage-key", "app")
		require.NoError(t, err)
		assert.JSONEq(t, `"stored"`, string(raw))
	}
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"v":"1.0.0","kind":"command","name":"quit"}`))
	require.NoError(t, err)
	assert.Equal(t, Envelope{Version: "1.0.0", Kind: KindCommand, Name: "quit"}, env)

	for _, in := range []string{`not json`, `{"name":5}`, `[]`} {
		_, err := DecodeEnvelope([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidMessage, in)
	}
}

func TestServe_ReturnsContextError(t *testing.T) {
	hostCh, _ := Pipe()
	host := NewHost(hostCh)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- host.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestIsVersionCompatible(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", true},
		{"1.0.5", true},
		{"1.2.0", true},
		{"2.0.0", false},
		{"0.9.9", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, isVersionCompatible(tt.version, "1.0.0"))
		})
	}
}

func TestNewCorrelationID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewCorrelationID()
		require.NoError(t, err)
		require.Len(t, id, 32)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
