package settings

import (
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"strings"
)

// Window defaults.
const (
	DefaultTitle  = "Window"
	DefaultWidth  = 800.0
	DefaultHeight = 600.0
)

// DefaultBackground is opaque-capable white with zero alpha.
var DefaultBackground = Color{R: 255, G: 255, B: 255, A: 0}

// passthroughSchemes are URL schemes left untouched by URL resolution.
var passthroughSchemes = []string{"http://", "https://", "ftp://", "file://", "ws://", "wss://", "data:", "about:"}

// Color is an RGBA background color.
type Color struct {
	R, G, B, A uint8
}

// Settings is the resolved, immutable settings value.
type Settings struct {
	Build   Build
	Package Package
	Windows []Window

	resolver resolver
}

// Window is a fully resolved window descriptor. Label may be empty, in
// which case the bridge assigns one at creation.
type Window struct {
	Label       string
	Title       string
	Width       float64
	Height      float64
	Decorations bool
	Transparent bool
	Background  Color
	AlwaysOnTop bool
	Closable    bool
	Maximizable bool
	Minimizable bool
	Maximized   bool
	Visible     bool
	Focused     bool
	Resizable   bool
	// Icon is the selected icon path for the running OS; empty means the
	// generated default icon.
	Icon    string
	Webview Webview
}

// Webview is the resolved webview part of a window.
type Webview struct {
	URL         string
	HTML        string
	UserAgent   string
	Visible     bool
	Devtools    bool
	ZoomHotkeys bool
	Clipboard   bool
	Incognito   bool
	Autoplay    bool
	Focused     bool
	InitScripts []string
	// Schemes maps a custom URL scheme to the directory it serves.
	Schemes map[string]string
}

// Options carries process-level inputs to resolution.
type Options struct {
	// AssetScheme is the default custom scheme, e.g. "wui".
	AssetScheme string
	// AssetsDir is served under AssetScheme unless a window overrides it.
	AssetsDir string
	// BaseDir anchors relative icon and scheme directory paths.
	BaseDir string
	// GOOS overrides runtime.GOOS for icon selection.
	GOOS string
}

type resolver struct {
	opts    Options
	devPath string
	icons   IconPaths
}

// Resolve applies defaults to every configured window.
func Resolve(f *File, opts Options) (*Settings, error) {
	if f == nil {
		f = &File{}
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}

	s := &Settings{
		Build:   f.Build,
		Package: f.Package,
		resolver: resolver{
			opts:    opts,
			devPath: f.Build.DevPath,
			icons:   f.Icon,
		},
	}

	s.Windows = make([]Window, 0, len(f.WUI.Windows))
	for i, cfg := range f.WUI.Windows {
		w, err := s.resolver.window(cfg)
		if err != nil {
			return nil, fmt.Errorf("settings: window %d: %w", i, err)
		}
		s.Windows = append(s.Windows, w)
	}
	return s, nil
}

// ResolveWindow resolves a descriptor against this file's defaults, for
// windows opened after start.
func (s *Settings) ResolveWindow(cfg WindowConfig) (Window, error) {
	return s.resolver.window(cfg)
}

// DefaultWindow returns a window with every default applied.
func (s *Settings) DefaultWindow() Window {
	w, _ := s.resolver.window(WindowConfig{})
	return w
}

func (r resolver) window(cfg WindowConfig) (Window, error) {
	w := Window{
		Label:       deref(cfg.Label, ""),
		Title:       deref(cfg.Title, DefaultTitle),
		Width:       deref(cfg.Width, DefaultWidth),
		Height:      deref(cfg.Height, DefaultHeight),
		Decorations: deref(cfg.Decorations, true),
		Transparent: deref(cfg.Transparent, false),
		Background:  DefaultBackground,
		AlwaysOnTop: deref(cfg.AlwaysOnTop, false),
		Closable:    deref(cfg.Closable, true),
		Maximizable: deref(cfg.Maximizable, true),
		Minimizable: deref(cfg.Minimizable, true),
		Maximized:   deref(cfg.Maximized, false),
		Visible:     deref(cfg.Visible, true),
		Focused:     deref(cfg.Focused, true),
		Resizable:   deref(cfg.Resizable, true),
	}

	if w.Width <= 0 || w.Height <= 0 {
		return Window{}, fmt.Errorf("size must be positive, got %gx%g", w.Width, w.Height)
	}

	if cfg.BackgroundColor != nil {
		c, err := ParseColor(cfg.BackgroundColor)
		if err != nil {
			return Window{}, err
		}
		w.Background = c
	}

	icons := r.icons
	if cfg.Icon != nil {
		icons = *cfg.Icon
	}
	w.Icon = r.path(icons.Select(r.opts.GOOS))

	wv := cfg.Webview
	if wv == nil {
		wv = &WebviewConfig{}
	}
	w.Webview = Webview{
		HTML:        deref(wv.HTML, ""),
		UserAgent:   deref(wv.UserAgent, ""),
		Visible:     deref(wv.Visible, true),
		Devtools:    deref(wv.Devtools, true),
		ZoomHotkeys: deref(wv.ZoomHotkeys, true),
		Clipboard:   deref(wv.Clipboard, false),
		Incognito:   deref(wv.Incognito, false),
		Autoplay:    deref(wv.Autoplay, false),
		Focused:     deref(wv.Focused, false),
		InitScripts: append([]string(nil), wv.InitScripts...),
		Schemes:     r.schemes(wv.Schemes),
	}

	switch {
	case wv.URL != nil && *wv.URL != "":
		w.Webview.URL = EnsureValidURL(*wv.URL, r.opts.AssetScheme, w.Webview.Schemes)
	case w.Webview.HTML != "":
		// Inline markup wins over the dev path.
	case r.devPath != "":
		w.Webview.URL = EnsureValidURL(r.devPath, r.opts.AssetScheme, w.Webview.Schemes)
	case r.opts.AssetScheme != "":
		w.Webview.URL = EnsureValidURL("", r.opts.AssetScheme, w.Webview.Schemes)
	}

	return w, nil
}

func (r resolver) schemes(configured map[string]string) map[string]string {
	out := make(map[string]string, len(configured)+1)
	if r.opts.AssetScheme != "" && r.opts.AssetsDir != "" {
		out[r.opts.AssetScheme] = r.path(r.opts.AssetsDir)
	}
	for name, dir := range configured {
		out[strings.ToLower(name)] = r.path(dir)
	}
	return out
}

func (r resolver) path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.opts.BaseDir == "" {
		return p
	}
	return filepath.Join(r.opts.BaseDir, p)
}

// Select picks the icon path for an OS family, falling back to Default.
func (p IconPaths) Select(goos string) string {
	var path string
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		path = p.Linux
	case "darwin":
		path = p.Darwin
	case "windows":
		path = p.Windows
	}
	if path == "" {
		path = p.Default
	}
	return path
}

// ParseColor converts a four-element [r, g, b, a] list.
func ParseColor(rgba []int) (Color, error) {
	if len(rgba) != 4 {
		return Color{}, fmt.Errorf("background_color needs 4 components, got %d", len(rgba))
	}
	for _, c := range rgba {
		if c < 0 || c > 255 {
			return Color{}, fmt.Errorf("background_color component %d out of range", c)
		}
	}
	return Color{R: uint8(rgba[0]), G: uint8(rgba[1]), B: uint8(rgba[2]), A: uint8(rgba[3])}, nil
}

// EnsureValidURL rewrites a relative location into the custom asset
// scheme: "index.html" becomes "wui://wui/index.html". URLs with a known
// network scheme, or with one of the window's custom schemes, pass through.
func EnsureValidURL(raw, scheme string, custom map[string]string) string {
	for _, prefix := range passthroughSchemes {
		if hasPrefixFold(raw, prefix) {
			return raw
		}
	}
	if name, _, ok := strings.Cut(raw, "://"); ok {
		if _, known := custom[strings.ToLower(name)]; known {
			return raw
		}
	}
	if scheme == "" {
		return raw
	}

	path := strings.TrimLeft(strings.TrimPrefix(raw, "./"), "/")
	return scheme + "://" + scheme + "/" + path
}

// SchemeDirs returns a copy of the scheme map.
func (w Webview) SchemeDirs() map[string]string {
	return maps.Clone(w.Schemes)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
