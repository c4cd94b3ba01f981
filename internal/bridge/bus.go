package bridge

import "sync"

// Bus is the loop's inbox. Posting never blocks; commands are applied in
// the order they were posted.
type Bus struct {
	mu     sync.Mutex
	queue  []Command
	open   bool
	notify chan struct{}
}

// NewBus creates a closed bus.
func NewBus() *Bus {
	return &Bus{notify: make(chan struct{}, 1)}
}

// Open starts accepting commands.
func (b *Bus) Open() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = true
}

// Close stops accepting commands and discards anything queued.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.queue = nil
}

// Post enqueues cmd and wakes the loop.
func (b *Bus) Post(cmd Command) error {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return ErrNotRunning
	}
	b.queue = append(b.queue, cmd)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// Notify is signalled after one or more posts.
func (b *Bus) Notify() <-chan struct{} {
	return b.notify
}

// Drain takes every queued command.
func (b *Bus) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	cmds := b.queue
	b.queue = nil
	return cmds
}
