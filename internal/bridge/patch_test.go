package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/value"
	"github.com/GriffinCanCode/wui/internal/webview"
)

func TestParseWindowPatch(t *testing.T) {
	p, err := ParseWindowPatch(value.MustFromNative(map[string]any{
		"width":            640,
		"title":            "Prefs",
		"always_on_top":    true,
		"focus":            true,
		"background_color": []any{1, 2, 3, 4},
		"unknown":          "ignored",
	}))
	require.NoError(t, err)

	require.NotNil(t, p.Width)
	assert.Equal(t, 640.0, *p.Width)
	assert.Nil(t, p.Height)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Prefs", *p.Title)
	require.NotNil(t, p.AlwaysOnTop)
	assert.True(t, *p.AlwaysOnTop)
	assert.Nil(t, p.Resizable)
	assert.True(t, p.Focus)
	assert.Equal(t, &settings.Color{R: 1, G: 2, B: 3, A: 4}, p.BackgroundColor)
}

func TestParsePatchErrors(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"not an object", []any{1}},
		{"string width", map[string]any{"width": "wide"}},
		{"numeric title", map[string]any{"title": 1}},
		{"short color", map[string]any{"background_color": []any{1, 2, 3}}},
		{"color out of range", map[string]any{"background_color": []any{1, 2, 3, 400}}},
		{"string flag", map[string]any{"visible": "yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWindowPatch(value.MustFromNative(tt.in))
			assert.ErrorIs(t, err, ErrInvalidPatch)
		})
	}

	_, err := ParseWebviewPatch(value.MustFromNative(map[string]any{"url": 3}))
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestParseWebviewPatch(t *testing.T) {
	p, err := ParseWebviewPatch(value.MustFromNative(map[string]any{
		"url":      "wui://wui/about.html",
		"devtools": false,
		"clear":    true,
		"script":   "init()",
	}))
	require.NoError(t, err)

	assert.Equal(t, "wui://wui/about.html", *p.URL)
	assert.False(t, *p.Devtools)
	assert.True(t, p.Clear)
	assert.False(t, p.Focus)
	assert.Equal(t, "init()", *p.Script)
	assert.Nil(t, p.HTML)
}

func TestPatchApplyIsolatesFailures(t *testing.T) {
	w := &fakeWindow{id: id.NewWindowID(), unsupported: map[string]bool{"resizable": true, "devtools": true}}
	yes := true
	title := "t"

	errs := Patch{
		Window:  WindowPatch{Resizable: &yes, Title: &title, Focus: true},
		Webview: WebviewPatch{Devtools: &yes, Visible: &yes},
	}.Apply(w)

	require.Len(t, errs, 2)
	assert.Equal(t, "resizable", errs[0].Attribute)
	assert.ErrorIs(t, errs[0], webview.ErrUnsupported)
	assert.Equal(t, "devtools", errs[1].Attribute)
	assert.Equal(t, []string{"title=t", "focus=true", "webview_visible=true"}, w.Calls())
}

func TestPatchWithSize(t *testing.T) {
	h := 300.0
	p := Patch{Window: WindowPatch{Height: &h}}.withSize(800, 600)
	assert.Equal(t, 800.0, *p.Window.Width)
	assert.Equal(t, 300.0, *p.Window.Height)

	assert.True(t, Patch{}.withSize(1, 1).Empty())
}
