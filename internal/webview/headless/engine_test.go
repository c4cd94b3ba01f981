package headless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/webview"
)

func drain(e *Engine) {
	for {
		select {
		case _, ok := <-e.Events():
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func TestWindowAttributes(t *testing.T) {
	e := newEngine(t)
	w := create(t, e, spec("main", func(w *settings.Window) {
		w.Title = "Start"
		w.Resizable = false
	}), webview.Hooks{})

	attrs := w.Attributes()
	assert.Equal(t, "Start", attrs.Title)
	assert.False(t, attrs.Resizable)
	assert.NotNil(t, attrs.Icon)

	require.NoError(t, w.SetTitle("Next"))
	require.NoError(t, w.SetSize(320, 200))
	require.NoError(t, w.SetFullscreen(true))
	require.NoError(t, w.SetBackgroundColor(settings.Color{R: 1, A: 255}))
	assert.Error(t, w.SetSize(0, 10))

	attrs = w.Attributes()
	assert.Equal(t, "Next", attrs.Title)
	assert.Equal(t, 320.0, attrs.Width)
	assert.True(t, attrs.Fullscreen)
	assert.Equal(t, settings.Color{R: 1, A: 255}, attrs.Background)

	require.NoError(t, w.Page().SetDevtools(false))
	_, _, devtools := w.Page().Flags()
	assert.False(t, devtools)
}

func TestRequestCloseAndFocusEvents(t *testing.T) {
	e := newEngine(t)
	w := create(t, e, spec("main", nil), webview.Hooks{})
	drain(e)

	require.NoError(t, w.Focus())
	require.NoError(t, e.RequestClose("main"))
	assert.ErrorIs(t, e.RequestClose("ghost"), ErrUnknownWindow)

	want := []webview.EventKind{webview.Focused, webview.CloseRequested}
	for _, kind := range want {
		select {
		case ev := <-e.Events():
			assert.Equal(t, kind, ev.Kind)
			assert.Equal(t, w.ID(), ev.WindowID)
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", kind)
		}
	}
}

func TestCloseWindow(t *testing.T) {
	e := newEngine(t)
	w := create(t, e, spec("main", nil), webview.Hooks{})

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.True(t, w.Closed())

	assert.ErrorIs(t, w.SetTitle("x"), webview.ErrClosed)
	assert.ErrorIs(t, w.Webview().Eval("1"), webview.ErrClosed)

	_, ok := e.Window("main")
	assert.False(t, ok)
	assert.Empty(t, e.Windows())
}

func TestEngineClose(t *testing.T) {
	e := New(Config{})
	w := create(t, e, spec("main", nil), webview.Hooks{})

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, w.Closed())

	drain(e)
	_, open := <-e.Events()
	assert.False(t, open)

	_, err := e.CreateWindow(spec("late", nil), webview.Hooks{})
	assert.ErrorIs(t, err, ErrEngineClosed)
}
