package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/wui/internal/shared/id"
)

// Pending is an outstanding request awaiting its reply.
type Pending struct {
	ID       string
	WindowID id.WindowID
	Label    string
	Deadline time.Time

	timer *time.Timer
}

// Correlator tracks outstanding requests. The first Resolve for an id wins;
// later ones, and those racing a timeout, find nothing.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]*Pending
	closed  bool

	timeout   time.Duration
	onTimeout func(Pending)
}

// NewCorrelator creates a correlator. A zero timeout never expires
// requests; onTimeout runs without the lock held, on a timer goroutine.
func NewCorrelator(timeout time.Duration, onTimeout func(Pending)) *Correlator {
	return &Correlator{
		pending:   make(map[string]*Pending),
		timeout:   timeout,
		onTimeout: onTimeout,
	}
}

// Track records a new outstanding request.
func (c *Correlator) Track(reqID string, windowID id.WindowID, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrNotRunning
	}
	if _, exists := c.pending[reqID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, reqID)
	}

	p := &Pending{ID: reqID, WindowID: windowID, Label: label}
	if c.timeout > 0 {
		p.Deadline = time.Now().Add(c.timeout)
		p.timer = time.AfterFunc(c.timeout, func() { c.expire(p) })
	}
	c.pending[reqID] = p
	return nil
}

// Resolve removes and returns the pending request.
func (c *Correlator) Resolve(reqID string) (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[reqID]
	if !ok {
		return Pending{}, false
	}
	c.removeLocked(p)
	return *p, true
}

func (c *Correlator) expire(p *Pending) {
	c.mu.Lock()
	cur, ok := c.pending[p.ID]
	if !ok || cur != p {
		c.mu.Unlock()
		return
	}
	delete(c.pending, p.ID)
	c.mu.Unlock()

	if c.onTimeout != nil {
		c.onTimeout(*p)
	}
}

// DropWindow forgets every request sent by a closed window.
func (c *Correlator) DropWindow(windowID id.WindowID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for _, p := range c.pending {
		if p.WindowID == windowID {
			c.removeLocked(p)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of outstanding requests.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close drops every outstanding request and refuses new ones.
func (c *Correlator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.pending {
		c.removeLocked(p)
	}
	c.closed = true
}

func (c *Correlator) removeLocked(p *Pending) {
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(c.pending, p.ID)
}
