package headless

import (
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/value"
)

// newRuntime builds a fresh global scope for a navigation. Callers hold mu.
func (p *Page) newRuntime() *goja.Runtime {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)
	window := vm.GlobalObject()

	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		_ = window.Delete(name)
	}

	_ = window.Set("window", window)
	_ = window.Set("self", window)

	ipc := vm.NewObject()
	_ = ipc.Set("postMessage", func(body string) { p.outbox.push(body) })
	_ = window.Set("ipc", ipc)

	_ = window.Set("__wuiRecord", p.record)
	_ = window.Set("setTimeout", p.setTimeout(vm))
	_ = window.Set("clearTimeout", func(handle int64) { p.clearTimer(handle) })

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(level, p.consoleFunc(level))
	}
	_ = window.Set("console", console)

	_ = window.Set("localStorage", p.localStorage(vm))

	navigator := vm.NewObject()
	_ = navigator.Set("userAgent", p.agent)
	_ = window.Set("navigator", navigator)

	location := vm.NewObject()
	_ = location.Set("href", p.url)
	_ = window.Set("location", location)

	_ = window.Set("document", p.document(vm))

	if _, err := vm.RunString(prelude); err != nil {
		p.log.Error("prelude failed", zap.Error(err))
	}
	return vm
}

func (p *Page) record(name, detail string) {
	v, err := value.Parse([]byte(detail))
	if err != nil {
		p.log.Debug("event detail not decodable", zap.String("event", name), zap.Error(err))
	}
	p.events = append(p.events, Dispatched{Name: name, Detail: v, At: time.Now()})
}

// setTimeout schedules fn on a timer goroutine. The callback re-enters the
// page under mu and is skipped if the page navigated or closed meanwhile.
func (p *Page) setTimeout(vm *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			return goja.Undefined()
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		args := append([]goja.Value(nil), call.Arguments[min(2, len(call.Arguments)):]...)

		p.nextTimer++
		handle := p.nextTimer
		generation := p.generation

		p.timers[handle] = time.AfterFunc(delay, func() {
			p.mu.Lock()
			defer p.mu.Unlock()

			if p.closed || p.generation != generation {
				return
			}
			if _, pending := p.timers[handle]; !pending {
				return
			}
			delete(p.timers, handle)

			if _, err := p.guarded(vm, func() (goja.Value, error) { return fn(goja.Undefined(), args...) }); err != nil {
				p.log.Warn("timer callback failed", zap.Error(err))
			}
		})
		return vm.ToValue(handle)
	}
}

// guarded runs fn with the interrupt timeout armed. Callers hold mu.
func (p *Page) guarded(vm *goja.Runtime, fn func() (goja.Value, error)) (goja.Value, error) {
	if p.timeout > 0 {
		timer := time.AfterFunc(p.timeout, func() { vm.Interrupt(ErrScriptTimeout) })
		defer func() {
			timer.Stop()
			vm.ClearInterrupt()
		}()
	}
	return fn()
}

func (p *Page) clearTimer(handle int64) {
	if t, ok := p.timers[handle]; ok {
		t.Stop()
		delete(p.timers, handle)
	}
}

func (p *Page) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		p.console = append(p.console, ConsoleEntry{Level: level, Message: msg, Time: time.Now()})

		switch level {
		case "error":
			p.log.Error(msg, zap.String("source", "console"))
		case "warn":
			p.log.Warn(msg, zap.String("source", "console"))
		default:
			p.log.Debug(msg, zap.String("source", "console"), zap.String("level", level))
		}
		return goja.Undefined()
	}
}

func (p *Page) localStorage(vm *goja.Runtime) *goja.Object {
	storage := vm.NewObject()
	_ = storage.Set("getItem", func(key string) goja.Value {
		if v, ok := p.storage[key]; ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = storage.Set("setItem", func(key, v string) { p.storage[key] = v })
	_ = storage.Set("removeItem", func(key string) { delete(p.storage, key) })
	_ = storage.Set("clear", func() { clear(p.storage) })
	return storage
}

func (p *Page) document(vm *goja.Runtime) *goja.Object {
	document := vm.NewObject()
	doc := p.doc
	if doc == nil {
		return document
	}

	_ = document.Set("title", doc.Title())
	_ = document.Set("querySelector", func(selector string) goja.Value {
		nodes := doc.Query(selector)
		if len(nodes) == 0 {
			return goja.Null()
		}
		return vm.ToValue(element(nodes[0]))
	})
	_ = document.Set("querySelectorAll", func(selector string) []map[string]any {
		nodes := doc.Query(selector)
		out := make([]map[string]any, len(nodes))
		for i, node := range nodes {
			out[i] = element(node)
		}
		return out
	})
	_ = document.Set("getElementById", func(id string) goja.Value {
		node := doc.ByID(id)
		if node == nil {
			return goja.Null()
		}
		return vm.ToValue(element(node))
	})
	return document
}

// outbox is an unbounded FIFO of posted message bodies.
type outbox struct {
	mu     sync.Mutex
	queue  []string
	closed bool
	notify chan struct{}
	done   chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1), done: make(chan struct{})}
}

func (o *outbox) push(body string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, body)
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// wait blocks until messages are queued or the outbox closes.
func (o *outbox) wait() ([]string, bool) {
	for {
		o.mu.Lock()
		if len(o.queue) > 0 {
			msgs := o.queue
			o.queue = nil
			o.mu.Unlock()
			return msgs, true
		}
		o.mu.Unlock()

		select {
		case <-o.notify:
		case <-o.done:
			return nil, false
		}
	}
}

func (o *outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		o.queue = nil
		close(o.done)
	}
}
