/*
Wui opens the windows described by a settings file and serves their IPC.

Usage:

	wui [flags]

The flags are:

	-settings path
		Settings file (.json, .yaml, .yml or .toml). Without one a single
		default window is opened on the asset scheme.
	-assets dir
		Directory served under the asset scheme.
	-engine name
		Rendering engine: headless or native. The native engine needs a
		build with -tags webview.
	-timeout duration
		Request timeout for page invocations.
	-dev
		Development logging and debug asset serving.

Runtime configuration is read from the environment first (see package
config); flags override it.

Pages can invoke the built-in commands ping, echo, sum, greet, windows,
update_window and update_webview, and emit the log and close events. The
update commands take an attribute object, for example

	{"label": "main", "title": "Settings", "width": 640}

and patch the named window, or the calling window when label is absent.
*/
package main
