package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// Entry owns one window and its webview.
type Entry struct {
	ID      id.WindowID
	Label   string
	Window  webview.Window
	Spec    settings.Window
	Created time.Time
}

// Registry maps labels and window ids to entries. Only the loop goroutine
// mutates it; other goroutines read through Snapshot and Labels.
type Registry struct {
	mu      sync.RWMutex
	byLabel map[string]*Entry
	byID    map[id.WindowID]*Entry
	order   []*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLabel: make(map[string]*Entry),
		byID:    make(map[id.WindowID]*Entry),
	}
}

// Register adds an entry. The existing entry is kept on ErrDuplicateLabel.
func (r *Registry) Register(e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLabel[e.Label]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, e.Label)
	}
	if _, exists := r.byID[e.ID]; exists {
		return fmt.Errorf("window id %s already registered", e.ID)
	}

	r.byLabel[e.Label] = e
	r.byID[e.ID] = e
	r.order = append(r.order, e)
	return nil
}

// Has reports whether a label is registered.
func (r *Registry) Has(label string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byLabel[label]
	return ok
}

// Find looks an entry up by label.
func (r *Registry) Find(label string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byLabel[label]
	return e, ok
}

// FindByID looks an entry up by window id.
func (r *Registry) FindByID(wid id.WindowID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[wid]
	return e, ok
}

// Remove deletes the entry with label.
func (r *Registry) Remove(label string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byLabel[label]
	if !ok {
		return nil, false
	}
	r.removeLocked(e)
	return e, true
}

// RemoveByID deletes the entry with window id.
func (r *Registry) RemoveByID(wid id.WindowID) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[wid]
	if !ok {
		return nil, false
	}
	r.removeLocked(e)
	return e, true
}

func (r *Registry) removeLocked(e *Entry) {
	delete(r.byLabel, e.Label)
	delete(r.byID, e.ID)
	for i, cur := range r.order {
		if cur == e {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered windows.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Entries returns the entries in creation order.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Entry(nil), r.order...)
}

// Labels returns the labels in creation order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make([]string, len(r.order))
	for i, e := range r.order {
		labels[i] = e.Label
	}
	return labels
}

// Snapshot copies the label to window id mapping.
func (r *Registry) Snapshot() map[string]id.WindowID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := make(map[string]id.WindowID, len(r.byLabel))
	for label, e := range r.byLabel {
		snap[label] = e.ID
	}
	return snap
}
