// Package headless is an in-process rendering engine for tests and
// display-less hosts.
//
// Each window owns a Page: a goja runtime whose global object stands in for
// window, with ipc.postMessage, event listeners, CustomEvent, timers,
// console and localStorage. Markup is parsed with htmlquery and queried
// through goquery; inline and same-scheme scripts run on load.
//
// Custom scheme URLs are served in-process by the handlers in
// webview.Hooks, file URLs are read from disk, and network URLs are
// recorded without being fetched.
//
// Example Usage:
//
//	engine := headless.New(headless.Config{ScriptTimeout: time.Second, Logger: logger})
//	defer engine.Close()
//
//	w, _ := engine.Window("main")
//	result, err := w.Page().EvalValue(`document.title`)
package headless
