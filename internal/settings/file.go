// Package settings loads the window layout file and resolves it into
// immutable, fully-defaulted window descriptors.
//
// The file has four sections:
//
//	build:   beforeBuildCommand, beforeDevCommand, devPath
//	package: productName, version
//	icon:    default, linux, darwin, windows
//	wui:     windows: [...]
//
// Every window field is optional; Resolve applies defaults exactly once.
package settings

// File is the raw settings document. Pointer fields distinguish "unset"
// from the zero value.
type File struct {
	Build   Build     `json:"build" yaml:"build" toml:"build"`
	Package Package   `json:"package" yaml:"package" toml:"package"`
	Icon    IconPaths `json:"icon" yaml:"icon" toml:"icon"`
	WUI     Section   `json:"wui" yaml:"wui" toml:"wui"`
}

// Build holds the developer tooling section.
type Build struct {
	BeforeBuildCommand string `json:"beforeBuildCommand" yaml:"beforeBuildCommand" toml:"beforeBuildCommand"`
	BeforeDevCommand   string `json:"beforeDevCommand" yaml:"beforeDevCommand" toml:"beforeDevCommand"`
	DevPath            string `json:"devPath" yaml:"devPath" toml:"devPath"`
}

// Package describes the application.
type Package struct {
	ProductName string `json:"productName" yaml:"productName" toml:"productName"`
	Version     string `json:"version" yaml:"version" toml:"version"`
}

// IconPaths selects a window icon per OS family.
type IconPaths struct {
	Default string `json:"default" yaml:"default" toml:"default"`
	Linux   string `json:"linux" yaml:"linux" toml:"linux"`
	Darwin  string `json:"darwin" yaml:"darwin" toml:"darwin"`
	Windows string `json:"windows" yaml:"windows" toml:"windows"`
}

// Section is the bridge-specific part of the file.
type Section struct {
	Windows []WindowConfig `json:"windows" yaml:"windows" toml:"windows"`
}

// WindowConfig is one raw window descriptor.
type WindowConfig struct {
	Label           *string        `json:"label" yaml:"label" toml:"label"`
	Title           *string        `json:"title" yaml:"title" toml:"title"`
	Width           *float64       `json:"width" yaml:"width" toml:"width"`
	Height          *float64       `json:"height" yaml:"height" toml:"height"`
	Decorations     *bool          `json:"decorations" yaml:"decorations" toml:"decorations"`
	Transparent     *bool          `json:"transparent" yaml:"transparent" toml:"transparent"`
	BackgroundColor []int          `json:"background_color" yaml:"background_color" toml:"background_color"`
	AlwaysOnTop     *bool          `json:"always_on_top" yaml:"always_on_top" toml:"always_on_top"`
	Closable        *bool          `json:"closable" yaml:"closable" toml:"closable"`
	Maximizable     *bool          `json:"maximizable" yaml:"maximizable" toml:"maximizable"`
	Minimizable     *bool          `json:"minimizable" yaml:"minimizable" toml:"minimizable"`
	Maximized       *bool          `json:"maximized" yaml:"maximized" toml:"maximized"`
	Visible         *bool          `json:"visible" yaml:"visible" toml:"visible"`
	Focused         *bool          `json:"focused" yaml:"focused" toml:"focused"`
	Resizable       *bool          `json:"resizable" yaml:"resizable" toml:"resizable"`
	Icon            *IconPaths     `json:"icon" yaml:"icon" toml:"icon"`
	Webview         *WebviewConfig `json:"webview" yaml:"webview" toml:"webview"`
}

// WebviewConfig is the raw webview part of a window descriptor.
type WebviewConfig struct {
	URL         *string           `json:"url" yaml:"url" toml:"url"`
	HTML        *string           `json:"html" yaml:"html" toml:"html"`
	UserAgent   *string           `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
	Visible     *bool             `json:"visible" yaml:"visible" toml:"visible"`
	Devtools    *bool             `json:"devtools" yaml:"devtools" toml:"devtools"`
	ZoomHotkeys *bool             `json:"zoom_hotkeys" yaml:"zoom_hotkeys" toml:"zoom_hotkeys"`
	Clipboard   *bool             `json:"clipboard" yaml:"clipboard" toml:"clipboard"`
	Incognito   *bool             `json:"incognito" yaml:"incognito" toml:"incognito"`
	Autoplay    *bool             `json:"autoplay" yaml:"autoplay" toml:"autoplay"`
	Focused     *bool             `json:"focused" yaml:"focused" toml:"focused"`
	InitScripts []string          `json:"init_scripts" yaml:"init_scripts" toml:"init_scripts"`
	Schemes     map[string]string `json:"schemes" yaml:"schemes" toml:"schemes"`
}
