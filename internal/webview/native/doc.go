// Package native renders windows with the system webview through
// github.com/webview/webview_go.
//
// The cgo engine is compiled only with the webview build tag:
//
//	go build -tags webview ./cmd/wui
//
// Without the tag New returns ErrUnavailable and hosts fall back to the
// headless engine.
//
// All webview calls run on one OS thread. Loop must be called from the
// main goroutine, locked to the main thread, and returns after Close.
// Custom scheme pages are fetched through their handlers and loaded as
// inline markup, since the system webview offers no scheme hook here.
package native
