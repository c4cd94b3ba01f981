package bridge

import "errors"

var (
	// ErrUnknownCommand resolves a request naming no registered command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownListener is reported, not replied, for unmatched events.
	ErrUnknownListener = errors.New("unknown listener")
	// ErrDuplicateLabel rejects a window whose label is already registered.
	ErrDuplicateLabel = errors.New("duplicate window label")
	// ErrHandlerFailure wraps errors and panics raised by host handlers.
	ErrHandlerFailure = errors.New("handler failed")
	// ErrResourceLoad reports an unusable icon or local asset.
	ErrResourceLoad = errors.New("resource load failure")
	// ErrRequestTimeout resolves requests the host did not answer in time.
	ErrRequestTimeout = errors.New("request timed out")
	// ErrRateLimited resolves requests from a window over its IPC budget.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNotRunning is returned when posting to a bridge that is not running.
	ErrNotRunning = errors.New("bridge is not running")
	// ErrDuplicateRequest rejects a request id that is already outstanding.
	ErrDuplicateRequest = errors.New("duplicate request id")
	// ErrAlreadyStarted is returned by a second call to Run.
	ErrAlreadyStarted = errors.New("bridge already started")
)
