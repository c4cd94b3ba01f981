// Package bridge connects host command handlers to the pages running in a
// set of webview windows.
//
// A single event loop owns every window. Pages post JSON messages through
// window.ipc.postMessage; events go to listeners, requests go to commands
// and their replies are dispatched back into the window that asked as a
// DOM CustomEvent named after the request id. Emit broadcasts to all
// windows.
//
// Key Components:
//   - Registry: label and id addressing of open windows
//   - Table: command and listener registrations
//   - Correlator: outstanding requests with per-request timeouts
//   - Bus: the loop's unbounded inbox of Commands
//   - Limiter: per-window IPC rate limiting
//
// The loop moves through Starting, Running, Draining and Stopped. Closing
// the last window, Exit, or cancelling the Run context drains it.
//
// Example Usage:
//
//	b := bridge.New(s, engine, bridge.Config{Logger: logger, RequestTimeout: 5 * time.Second})
//	b.RegisterCommand("ping", bridge.HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
//	    return value.NewString("pong"), nil
//	}))
//	b.OnStop(func(label string) { logger.Info("closed", logging.Window(label)) })
//	if err := b.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bridge
