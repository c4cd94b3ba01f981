package bridge

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/value"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// ErrInvalidPatch is returned when a patch value has the wrong shape.
var ErrInvalidPatch = errors.New("invalid patch")

// Patch changes attributes of a live window. Nil fields are left alone.
type Patch struct {
	Window  WindowPatch
	Webview WebviewPatch
}

// WindowPatch holds window-level attribute changes.
type WindowPatch struct {
	Width           *float64
	Height          *float64
	Title           *string
	Resizable       *bool
	Minimizable     *bool
	Maximizable     *bool
	Closable        *bool
	Fullscreen      *bool
	Visible         *bool
	AlwaysOnTop     *bool
	Focus           bool
	BackgroundColor *settings.Color
}

// WebviewPatch holds webview-level changes.
type WebviewPatch struct {
	URL     *string
	HTML    *string
	Script  *string
	Visible *bool
	Focus   bool
	// Devtools opens (true) or closes (false) the inspector.
	Devtools *bool
	Clear    bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Window == (WindowPatch{}) && p.Webview == (WebviewPatch{})
}

// Attribute names whose successful application is remembered on the
// window's entry.
const (
	attrSize  = "size"
	attrTitle = "title"
)

// AttributeError reports one attribute that could not be applied.
type AttributeError struct {
	Attribute string
	Err       error
}

func (e AttributeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Attribute, e.Err)
}

func (e AttributeError) Unwrap() error { return e.Err }

// Apply sets every attribute in the patch. A failing attribute does not
// stop the rest from being applied. Size is set as a pair, so callers
// fill a missing dimension first (see withSize).
func (p Patch) Apply(w webview.Window) []AttributeError {
	var errs []AttributeError
	try := func(attr string, err error) {
		if err != nil {
			errs = append(errs, AttributeError{Attribute: attr, Err: err})
		}
	}

	wp := p.Window
	if wp.Width != nil || wp.Height != nil {
		try(attrSize, w.SetSize(derefOr(wp.Width, 0), derefOr(wp.Height, 0)))
	}
	if wp.Title != nil {
		try(attrTitle, w.SetTitle(*wp.Title))
	}
	if wp.Resizable != nil {
		try("resizable", w.SetResizable(*wp.Resizable))
	}
	if wp.Minimizable != nil {
		try("minimizable", w.SetMinimizable(*wp.Minimizable))
	}
	if wp.Maximizable != nil {
		try("maximizable", w.SetMaximizable(*wp.Maximizable))
	}
	if wp.Closable != nil {
		try("closable", w.SetClosable(*wp.Closable))
	}
	if wp.Fullscreen != nil {
		try("fullscreen", w.SetFullscreen(*wp.Fullscreen))
	}
	if wp.Visible != nil {
		try("visible", w.SetVisible(*wp.Visible))
	}
	if wp.AlwaysOnTop != nil {
		try("always_on_top", w.SetAlwaysOnTop(*wp.AlwaysOnTop))
	}
	if wp.BackgroundColor != nil {
		try("background_color", w.SetBackgroundColor(*wp.BackgroundColor))
	}
	if wp.Focus {
		try("focus", w.Focus())
	}

	vp := p.Webview
	if vp == (WebviewPatch{}) {
		return errs
	}
	wv := w.Webview()
	if vp.URL != nil {
		try("url", wv.LoadURL(*vp.URL))
	}
	if vp.HTML != nil {
		try("html", wv.LoadHTML(*vp.HTML))
	}
	if vp.Visible != nil {
		try("webview_visible", wv.SetVisible(*vp.Visible))
	}
	if vp.Devtools != nil {
		try("devtools", wv.SetDevtools(*vp.Devtools))
	}
	if vp.Clear {
		try("clear", wv.ClearBrowsingData())
	}
	if vp.Focus {
		try("webview_focus", wv.Focus())
	}
	if vp.Script != nil {
		try("script", wv.Eval(*vp.Script))
	}
	return errs
}

// ParseWindowPatch reads window attributes from an object such as
// {"title": "x", "width": 400, "background_color": [0, 0, 0, 255]}.
// Unknown keys are ignored.
func ParseWindowPatch(v value.Value) (WindowPatch, error) {
	var p WindowPatch
	if v.Kind() != value.Object {
		return p, fmt.Errorf("%w: expected object, got %s", ErrInvalidPatch, v.Kind())
	}

	var err error
	if p.Width, err = optFloat(v, "width"); err != nil {
		return p, err
	}
	if p.Height, err = optFloat(v, "height"); err != nil {
		return p, err
	}
	if p.Title, err = optString(v, "title"); err != nil {
		return p, err
	}
	for key, dst := range map[string]**bool{
		"resizable":     &p.Resizable,
		"minimizable":   &p.Minimizable,
		"maximizable":   &p.Maximizable,
		"closable":      &p.Closable,
		"fullscreen":    &p.Fullscreen,
		"visible":       &p.Visible,
		"always_on_top": &p.AlwaysOnTop,
	} {
		if *dst, err = optBool(v, key); err != nil {
			return p, err
		}
	}
	if focus, err := optBool(v, "focus"); err != nil {
		return p, err
	} else if focus != nil {
		p.Focus = *focus
	}

	if raw, ok := v.Get("background_color"); ok {
		color, err := parseColor(raw)
		if err != nil {
			return p, err
		}
		p.BackgroundColor = &color
	}
	return p, nil
}

// ParseWebviewPatch reads webview changes from an object with the keys
// url, html, script, visible, focus, devtools and clear.
func ParseWebviewPatch(v value.Value) (WebviewPatch, error) {
	var p WebviewPatch
	if v.Kind() != value.Object {
		return p, fmt.Errorf("%w: expected object, got %s", ErrInvalidPatch, v.Kind())
	}

	var err error
	if p.URL, err = optString(v, "url"); err != nil {
		return p, err
	}
	if p.HTML, err = optString(v, "html"); err != nil {
		return p, err
	}
	if p.Script, err = optString(v, "script"); err != nil {
		return p, err
	}
	if p.Visible, err = optBool(v, "visible"); err != nil {
		return p, err
	}
	if p.Devtools, err = optBool(v, "devtools"); err != nil {
		return p, err
	}

	focus, err := optBool(v, "focus")
	if err != nil {
		return p, err
	}
	p.Focus = focus != nil && *focus

	wipe, err := optBool(v, "clear")
	if err != nil {
		return p, err
	}
	p.Clear = wipe != nil && *wipe
	return p, nil
}

// withSize completes a partial size change from the current size.
func (p Patch) withSize(width, height float64) Patch {
	if p.Window.Width == nil && p.Window.Height == nil {
		return p
	}
	if p.Window.Width == nil {
		p.Window.Width = &width
	}
	if p.Window.Height == nil {
		p.Window.Height = &height
	}
	return p
}

func parseColor(raw value.Value) (settings.Color, error) {
	items := raw.Items()
	if raw.Kind() != value.Array || len(items) != 4 {
		return settings.Color{}, fmt.Errorf("%w: background_color must be [r, g, b, a]", ErrInvalidPatch)
	}
	rgba := make([]int, 4)
	for i, item := range items {
		n, ok := item.AsInt()
		if !ok {
			return settings.Color{}, fmt.Errorf("%w: background_color[%d] is not an integer", ErrInvalidPatch, i)
		}
		rgba[i] = int(n)
	}
	color, err := settings.ParseColor(rgba)
	if err != nil {
		return settings.Color{}, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	return color, nil
}

func optFloat(v value.Value, key string) (*float64, error) {
	raw, ok := v.Get(key)
	if !ok || raw.IsNull() {
		return nil, nil
	}
	f, ok := raw.AsFloat()
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidPatch, key)
	}
	return &f, nil
}

func optString(v value.Value, key string) (*string, error) {
	raw, ok := v.Get(key)
	if !ok || raw.IsNull() {
		return nil, nil
	}
	s, ok := raw.AsString()
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidPatch, key)
	}
	return &s, nil
}

func optBool(v value.Value, key string) (*bool, error) {
	raw, ok := v.Get(key)
	if !ok || raw.IsNull() {
		return nil, nil
	}
	b, ok := raw.AsBool()
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a boolean", ErrInvalidPatch, key)
	}
	return &b, nil
}

func derefOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
