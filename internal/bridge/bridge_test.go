package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/wui/internal/config"
	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/wui/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/wui/internal/ipc"
	"github.com/GriffinCanCode/wui/internal/value"
)

func pong(context.Context, string, value.Value) (value.Value, error) {
	return value.NewString("pong"), nil
}

func TestPingRepliesOnlyToSender(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{})
	b.RegisterCommand("ping", HandlerFunc(pong))
	start(t, b)

	engine.window("settings").post(`{"event_type":"request","command":"ping","args":null,"request_id":"r1"}`)

	awaitScript(t, engine.window("settings"), dataReply(t, "r1", value.NewString("pong")))
	assert.Empty(t, engine.window("main").Scripts())
}

func TestEmitBroadcastsToOpenWindows(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings", "about"), engine, Config{})
	start(t, b)

	require.NoError(t, b.CloseWindow("about"))
	require.Eventually(t, func() bool { return len(b.Labels()) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Emit("theme-changed", map[string]any{"dark": true}))

	want, err := ipc.EncodeEvent("theme-changed", value.MustFromNative(map[string]any{"dark": true}))
	require.NoError(t, err)
	awaitScript(t, engine.window("main"), want)
	awaitScript(t, engine.window("settings"), want)
	assert.Empty(t, engine.window("about").Scripts())
}

func TestCloseOrder(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{})

	var (
		mu      sync.Mutex
		stopped []string
		exited  bool
	)
	b.OnStop(func(label string) {
		mu.Lock()
		defer mu.Unlock()
		stopped = append(stopped, label)
	})
	b.OnExit(func() {
		mu.Lock()
		defer mu.Unlock()
		exited = true
	})
	done := start(t, b)

	engine.requestClose("main")
	require.Eventually(t, func() bool { return engine.window("main").Closed() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateRunning, b.State())
	assert.Equal(t, []string{"settings"}, b.Labels())

	require.NoError(t, b.CloseWindow("settings"))
	require.NoError(t, wait(t, done))

	assert.Equal(t, StateStopped, b.State())
	assert.True(t, engine.window("settings").Closed())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"main", "settings"}, stopped)
	assert.True(t, exited)
}

func TestOnStartFiresPerWindow(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{})

	var started []string
	b.OnStart(func(label string) { started = append(started, label) })
	start(t, b)

	assert.Equal(t, []string{"main", "settings"}, started)
}

func TestDuplicateLabelIsFatal(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "main"), engine, Config{})

	err := b.Run(context.Background())
	require.ErrorIs(t, err, ErrDuplicateLabel)
	assert.Equal(t, StateStopped, b.State())
	assert.True(t, engine.window("main").Closed(), "the first window is torn down")
}

func TestDefaultLabels(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("", "named", ""), engine, Config{})
	start(t, b)

	assert.Equal(t, []string{"Window 1", "named", "Window 3"}, b.Labels())
}

func TestEngineFailureIsIsolated(t *testing.T) {
	engine := newFakeEngine()
	engine.fail["broken"] = errors.New("no display")
	b := New(windows("broken", "main"), engine, Config{})
	start(t, b)

	assert.Equal(t, []string{"main"}, b.Labels())
}

func TestAllWindowsFailingStops(t *testing.T) {
	engine := newFakeEngine()
	engine.fail["broken"] = errors.New("no display")
	b := New(windows("broken"), engine, Config{})

	require.NoError(t, b.Run(context.Background()))
	assert.Equal(t, StateStopped, b.State())
}

func TestIconPolicy(t *testing.T) {
	s := windows("main")
	s.Windows[0].Icon = "/does/not/exist.png"

	t.Run("fallback", func(t *testing.T) {
		engine := newFakeEngine()
		b := New(s, engine, Config{IconPolicy: config.IconPolicyFallback})
		start(t, b)

		require.NotNil(t, engine.window("main").spec.Icon)
	})

	t.Run("fatal", func(t *testing.T) {
		b := New(s, newFakeEngine(), Config{IconPolicy: config.IconPolicyFatal})
		err := b.Run(context.Background())
		assert.ErrorIs(t, err, ErrResourceLoad)
		assert.Equal(t, StateStopped, b.State())
	})
}

func TestErrorReplies(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{})
	b.RegisterCommand("fail", HandlerFunc(func(context.Context, string, value.Value) (value.Value, error) {
		return value.Value{}, errors.New("boom")
	}))
	b.RegisterCommand("panic", HandlerFunc(func(context.Context, string, value.Value) (value.Value, error) {
		panic("kaboom")
	}))
	start(t, b)
	w := engine.window("main")

	tests := []struct {
		command string
		want    string
	}{
		{"missing", `{"error":"unknown command: missing"}`},
		{"fail", `{"error":"handler failed: boom"}`},
		{"panic", `{"error":"handler failed: panic: kaboom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			reqID := "req-" + tt.command
			w.request(tt.command, reqID, nil)
			assert.Contains(t, awaitReply(t, w, reqID), tt.want)
		})
	}
	assert.Equal(t, StateRunning, b.State())
}

func TestHandlerSeesWindow(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{})
	b.RegisterCommand("whoami", HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
		info, ok := WindowFromContext(ctx)
		if !ok {
			return value.Value{}, errors.New("no window")
		}
		return value.NewString(info.Label + "/" + info.RequestID), nil
	}))
	start(t, b)

	engine.window("settings").request("whoami", "w1", nil)
	awaitScript(t, engine.window("settings"), dataReply(t, "w1", value.NewString("settings/w1")))
}

func TestHandlerMayReenter(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{})
	b.RegisterCommand("broadcast", HandlerFunc(func(_ context.Context, _ string, args value.Value) (value.Value, error) {
		b.RegisterCommand("later", HandlerFunc(pong))
		return value.NewBool(true), b.Emit("note", args)
	}))
	start(t, b)

	engine.window("main").request("broadcast", "b1", "hi")

	want, err := ipc.EncodeEvent("note", value.NewString("hi"))
	require.NoError(t, err)
	awaitScript(t, engine.window("settings"), want)
	awaitScript(t, engine.window("main"), dataReply(t, "b1", value.NewBool(true)))
}

func TestListenerReceivesEvents(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{})

	got := make(chan string, 1)
	b.RegisterListener("log", HandlerFunc(func(ctx context.Context, _ string, args value.Value) (value.Value, error) {
		info, _ := WindowFromContext(ctx)
		msg, _ := args.AsString()
		got <- info.Label + ":" + msg
		return value.Value{}, nil
	}))
	start(t, b)

	engine.window("main").post(`{"event_type":"event","command":"log","args":"hello"}`)
	engine.window("main").post(`{"event_type":"event","command":"nobody","args":1}`)
	engine.window("main").post(`not json`)

	select {
	case msg := <-got:
		assert.Equal(t, "main:hello", msg)
	case <-time.After(time.Second):
		t.Fatal("listener not called")
	}
	assert.Empty(t, engine.window("main").Scripts(), "events are never answered")
}

func TestRequestTimeout(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{RequestTimeout: 50 * time.Millisecond})
	b.RegisterCommand("hang", HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
		Defer(ctx)
		return value.Value{}, nil
	}))
	start(t, b)

	engine.window("main").request("hang", "h1", nil)
	assert.Contains(t, awaitReply(t, engine.window("main"), "h1"), `{"error":"request timed out"}`)
	assert.Zero(t, b.corr.Len())
}

func TestDeferredReply(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{RequestTimeout: time.Second})

	release := make(chan struct{})
	b.RegisterCommand("slow", HandlerFunc(func(ctx context.Context, _ string, args value.Value) (value.Value, error) {
		r := Defer(ctx)
		go func() {
			<-release
			r.Resolve(args, nil)
			r.Resolve(value.NewString("second"), nil)
		}()
		return value.NewString("ignored"), nil
	}))
	start(t, b)

	w := engine.window("main")
	w.request("slow", "s1", 42)
	assert.Equal(t, 1, b.corr.Len())

	close(release)
	awaitScript(t, w, dataReply(t, "s1", value.NewInt(42)))

	time.Sleep(20 * time.Millisecond)
	replies := 0
	for _, s := range w.Scripts() {
		if s == dataReply(t, "s1", value.NewInt(42)) || s == dataReply(t, "s1", value.NewString("second")) {
			replies++
		}
	}
	assert.Equal(t, 1, replies, "a request is answered exactly once")
}

func TestDeferOutsideHandler(t *testing.T) {
	r := Defer(context.Background())
	assert.False(t, r.Valid())
	r.Resolve(value.NewInt(1), nil)
}

func TestDuplicateRequestDropped(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{})

	var mu sync.Mutex
	calls := 0
	b.RegisterCommand("hold", HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		Defer(ctx)
		return value.Value{}, nil
	}))
	start(t, b)

	w := engine.window("main")
	w.request("hold", "d1", nil)
	w.request("hold", "d1", nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, b.corr.Len())
}

func TestClosingWindowDropsPending(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{})
	b.RegisterCommand("hold", HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
		Defer(ctx)
		return value.Value{}, nil
	}))
	start(t, b)

	engine.window("main").request("hold", "p1", nil)
	require.Equal(t, 1, b.corr.Len())

	require.NoError(t, b.CloseWindow("main"))
	require.Eventually(t, func() bool { return b.corr.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRequestFromClosedWindowIsNotTracked(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{})
	var calls int32
	b.RegisterCommand("hold", HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
		atomic.AddInt32(&calls, 1)
		Defer(ctx)
		return value.Value{}, nil
	}))
	start(t, b)

	main := engine.window("main")
	require.NoError(t, b.CloseWindow("main"))
	require.Eventually(t, func() bool { return main.Closed() }, time.Second, 5*time.Millisecond)

	main.request("hold", "late", nil)
	assert.Zero(t, b.corr.Len(), "nothing would ever collect it without a timeout")
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Empty(t, main.Scripts())
}

func TestRateLimit(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main", "settings"), engine, Config{
		RateLimit: LimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1},
	})
	b.RegisterCommand("ping", HandlerFunc(pong))
	start(t, b)

	main := engine.window("main")
	main.request("ping", "a", nil)
	main.request("ping", "b", nil)
	engine.window("settings").request("ping", "c", nil)

	awaitScript(t, main, dataReply(t, "a", value.NewString("pong")))
	assert.Contains(t, awaitReply(t, main, "b"), `{"error":"rate limit exceeded"}`)
	awaitScript(t, engine.window("settings"), dataReply(t, "c", value.NewString("pong")))
}

func TestBreakerShortCircuits(t *testing.T) {
	engine := newFakeEngine()
	breakers := resilience.NewGroup(resilience.Settings{
		ReadyToTrip: resilience.ConsecutiveFailures(1),
		IsFailure:   IsHandlerFailure,
		Timeout:     time.Hour,
	})
	b := New(windows("main"), engine, Config{Breakers: breakers})

	var mu sync.Mutex
	calls := 0
	b.RegisterCommand("flaky", HandlerFunc(func(context.Context, string, value.Value) (value.Value, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return value.Value{}, errors.New("down")
	}))
	start(t, b)

	w := engine.window("main")
	w.request("flaky", "f1", nil)
	assert.Contains(t, awaitReply(t, w, "f1"), "handler failed: down")

	w.request("flaky", "f2", nil)
	assert.Contains(t, awaitReply(t, w, "f2"), resilience.ErrCircuitOpen.Error())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestUpdateWindow(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{})
	start(t, b)

	title := "Renamed"
	width := 400.0
	fullscreen := true
	url := "https://example.com/"
	engine.window("main").unsupported["fullscreen"] = true

	require.NoError(t, b.UpdateWindow("main", Patch{
		Window:  WindowPatch{Title: &title, Width: &width, Fullscreen: &fullscreen},
		Webview: WebviewPatch{URL: &url, Clear: true},
	}))
	require.NoError(t, b.UpdateWindow("ghost", Patch{Window: WindowPatch{Title: &title}}))

	w := engine.window("main")
	require.Eventually(t, func() bool { return len(w.Calls()) == 4 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"size=400x600", "title=Renamed", "url=https://example.com/", "clear=true"}, w.Calls())
	assert.Equal(t, StateRunning, b.State())
}

func TestFailedSizeIsNotRemembered(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{})
	start(t, b)

	w := engine.window("main")
	w.setUnsupported("size", true)
	big, title := 1000.0, "Kept"
	require.NoError(t, b.UpdateWindow("main", Patch{Window: WindowPatch{Width: &big, Height: &big, Title: &title}}))
	require.Eventually(t, func() bool { return len(w.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	w.setUnsupported("size", false)
	width := 500.0
	require.NoError(t, b.UpdateWindow("main", Patch{Window: WindowPatch{Width: &width}}))
	require.Eventually(t, func() bool { return len(w.Calls()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"title=Kept", "size=500x600"}, w.Calls(), "height comes from the size the window took")
	e, ok := b.registry.Find("main")
	require.True(t, ok)
	assert.Equal(t, "Kept", e.Spec.Title)
}

func TestUpdateWebviewScript(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{})
	start(t, b)

	script := "document.title = 'x'"
	require.NoError(t, b.UpdateWebview("main", WebviewPatch{Script: &script}))
	awaitScript(t, engine.window("main"), script)
}

func TestOpenWindowAfterStart(t *testing.T) {
	engine := newFakeEngine()
	b := New(nil, engine, Config{})
	done := start(t, b)

	assert.Empty(t, b.Labels(), "an empty configuration keeps running")

	w := b.settings.DefaultWindow()
	w.Label = "late"
	require.NoError(t, b.OpenWindow(w))
	require.Eventually(t, func() bool { return len(b.Labels()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.CloseWindow("late"))
	require.NoError(t, wait(t, done))
	assert.Equal(t, StateStopped, b.State())
}

func TestExitAndCancel(t *testing.T) {
	t.Run("exit", func(t *testing.T) {
		engine := newFakeEngine()
		b := New(windows("main", "settings"), engine, Config{})
		done := start(t, b)

		require.NoError(t, b.CloseWindow(""))
		require.NoError(t, wait(t, done))
		assert.True(t, engine.window("main").Closed())
		assert.True(t, engine.window("settings").Closed())
	})

	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		b := New(windows("main"), newFakeEngine(), Config{})

		exited := make(chan struct{})
		b.OnExit(func() { close(exited) })
		done := startContext(t, ctx, b)

		cancel()
		require.NoError(t, wait(t, done))
		<-exited
		assert.Equal(t, StateStopped, b.State())
	})
}

func TestNotRunning(t *testing.T) {
	b := New(windows("main"), newFakeEngine(), Config{})
	assert.Equal(t, StateStarting, b.State())
	assert.ErrorIs(t, b.Emit("x", nil), ErrNotRunning)

	done := start(t, b)
	require.NoError(t, b.Exit())
	require.NoError(t, wait(t, done))

	assert.ErrorIs(t, b.Emit("x", nil), ErrNotRunning)
	assert.ErrorIs(t, b.Run(context.Background()), ErrAlreadyStarted)
}

func TestHostHookPanicIsContained(t *testing.T) {
	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{})
	b.OnStart(func(string) { panic("start hook") })
	b.OnStop(func(string) { panic("stop hook") })
	done := start(t, b)

	require.NoError(t, b.CloseWindow("main"))
	require.NoError(t, wait(t, done))
	assert.Equal(t, StateStopped, b.State())
}

func TestTracerRecordsHandlerSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := tracing.New(logging.Wrap(zap.New(core)), 8)

	engine := newFakeEngine()
	b := New(windows("main"), engine, Config{Tracer: tracer})
	b.RegisterCommand("ping", HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
		tracing.SpanFromContext(ctx).SetTag("handled", "yes")
		return value.NewString("pong"), nil
	}))
	start(t, b)

	engine.window("main").request("ping", "t1", nil)
	awaitScript(t, engine.window("main"), dataReply(t, "t1", value.NewString("pong")))
	tracer.Close()

	spans := logs.FilterMessage("span completed").All()
	require.Len(t, spans, 1)
	fields := spans[0].ContextMap()
	assert.Equal(t, "request ping", fields["operation"])
	assert.Equal(t, "main", fields["window"])
	assert.Equal(t, "t1", fields["request_id"])
	assert.Equal(t, "yes", fields["handled"])
}
