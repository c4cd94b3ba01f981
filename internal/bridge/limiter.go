package bridge

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/wui/internal/shared/id"
)

// LimitConfig bounds how many IPC messages one window may send.
type LimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// Limiter keeps one token bucket per window.
type Limiter struct {
	cfg LimitConfig

	mu      sync.Mutex
	windows map[id.WindowID]*rate.Limiter
}

// NewLimiter creates a limiter. A disabled config allows everything.
func NewLimiter(cfg LimitConfig) *Limiter {
	return &Limiter{
		cfg:     cfg,
		windows: make(map[id.WindowID]*rate.Limiter),
	}
}

// Allow reports whether windowID may send another message now.
func (l *Limiter) Allow(windowID id.WindowID) bool {
	if l == nil || !l.cfg.Enabled {
		return true
	}

	l.mu.Lock()
	limiter, exists := l.windows[windowID]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
		l.windows[windowID] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// Forget drops the bucket of a closed window.
func (l *Limiter) Forget(windowID id.WindowID) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, windowID)
}
