package ipc

import (
	_ "embed"
	"strconv"
	"strings"
	"time"
)

//go:embed bridge.js
var bootstrap string

const timeoutPlaceholder = "__WUI_TIMEOUT__"

// DefaultTimeout is how long the page waits for a reply when the host
// does not configure a timeout.
const DefaultTimeout = 5 * time.Second

// InitScript returns the page bootstrap that installs window.__wui__.
// The host timeout is mirrored as the page-side default; zero disables the
// page-side timer.
func InitScript(timeout time.Duration) string {
	if timeout < 0 {
		timeout = 0
	}
	return strings.Replace(bootstrap, timeoutPlaceholder, strconv.FormatInt(timeout.Milliseconds(), 10), 1)
}
