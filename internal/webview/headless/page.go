package headless

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/value"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// ErrScriptTimeout is returned when a script runs past the interrupt
// timeout.
var ErrScriptTimeout = errors.New("headless: script timeout exceeded")

// prelude gives the global object the event target surface pages and the
// bridge bootstrap rely on.
const prelude = `(function () {
  var listeners = {};
  window.addEventListener = function (type, fn) {
    (listeners[type] = listeners[type] || []).push(fn);
  };
  window.removeEventListener = function (type, fn) {
    var list = listeners[type];
    if (!list) return;
    var i = list.indexOf(fn);
    if (i >= 0) list.splice(i, 1);
  };
  window.dispatchEvent = function (event) {
    __wuiRecord(event.type, JSON.stringify(event.detail === undefined ? null : event.detail));
    (listeners[event.type] || []).slice().forEach(function (fn) { fn.call(window, event); });
    return true;
  };
  window.CustomEvent = function (type, init) {
    this.type = String(type);
    this.detail = init && init.detail !== undefined ? init.detail : null;
  };
  window.Event = function (type) { this.type = String(type); };
})();`

// Dispatched is an event dispatched on the page's window.
type Dispatched struct {
	Name   string
	Detail value.Value
	At     time.Time
}

// ConsoleEntry is one console call.
type ConsoleEntry struct {
	Level   string
	Message string
	Time    time.Time
}

// Page is a goja-backed document. All script execution is serialized by
// mu, the runtime is not safe for concurrent use.
type Page struct {
	label   string
	log     *logging.Logger
	timeout time.Duration
	hooks   webview.Hooks
	loader  loader
	agent   string
	onLoad  func()

	mu         sync.Mutex
	vm         *goja.Runtime
	url        string
	doc        *Document
	generation int
	timers     map[int64]*time.Timer
	nextTimer  int64
	events     []Dispatched
	console    []ConsoleEntry
	storage    map[string]string
	visible    bool
	focused    bool
	devtools   bool
	closed     bool

	outbox *outbox
}

func newPage(label string, hooks webview.Hooks, timeout time.Duration, agent string, log *logging.Logger) *Page {
	p := &Page{
		label:   label,
		log:     log,
		timeout: timeout,
		hooks:   hooks,
		loader:  loader{schemes: hooks.Schemes},
		agent:   agent,
		timers:  make(map[int64]*time.Timer),
		storage: make(map[string]string),
		visible: true,
		outbox:  newOutbox(),
	}
	go p.deliver()
	return p
}

// Eval runs script in the page.
func (p *Page) Eval(script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return webview.ErrClosed
	}
	_, err := p.exec(script)
	return err
}

// EvalValue runs script and converts its completion value.
func (p *Page) EvalValue(script string) (value.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return value.Value{}, webview.ErrClosed
	}
	v, err := p.exec(script)
	if err != nil {
		return value.Value{}, err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return value.Value{}, nil
	}
	return value.FromNative(v.Export())
}

// LoadURL navigates to url. Custom schemes are served by their handlers,
// file URLs are read from disk and network URLs load an empty document.
func (p *Page) LoadURL(url string) error {
	res, err := p.loader.fetch(url)
	switch {
	case errors.Is(err, ErrOffline):
		p.log.Info("network url not fetched", zap.String("url", url))
	case err != nil:
		return err
	case res.Status >= 400:
		p.log.Warn("page load failed", zap.String("url", url), zap.Int("status", res.Status))
	}
	return p.navigate(url, string(res.Body))
}

// LoadHTML replaces the page with markup.
func (p *Page) LoadHTML(markup string) error {
	return p.navigate("about:blank", markup)
}

// SetVisible shows or hides the page.
func (p *Page) SetVisible(visible bool) error {
	return p.set(func() { p.visible = visible })
}

// Focus gives the page keyboard focus.
func (p *Page) Focus() error {
	return p.set(func() { p.focused = true })
}

// SetDevtools opens or closes the inspector.
func (p *Page) SetDevtools(open bool) error {
	return p.set(func() { p.devtools = open })
}

// ClearBrowsingData empties local storage.
func (p *Page) ClearBrowsingData() error {
	return p.set(func() { clear(p.storage) })
}

// Events returns every event dispatched since the page was created.
func (p *Page) Events() []Dispatched {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Dispatched(nil), p.events...)
}

// EventsNamed returns the dispatched events called name.
func (p *Page) EventsNamed(name string) []Dispatched {
	var out []Dispatched
	for _, ev := range p.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Console returns console output.
func (p *Page) Console() []ConsoleEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ConsoleEntry(nil), p.console...)
}

// URL returns the current location.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Title returns document.title, which scripts may have changed.
func (p *Page) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.vm == nil {
		return ""
	}
	doc := p.vm.Get("document")
	if doc == nil || goja.IsUndefined(doc) {
		return ""
	}
	return doc.ToObject(p.vm).Get("title").String()
}

// Document returns the parsed markup of the current page.
func (p *Page) Document() *Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// Storage reads a local storage key.
func (p *Page) Storage(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.storage[key]
	return v, ok
}

// Flags reports visibility, focus and inspector state.
func (p *Page) Flags() (visible, focused, devtools bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible, p.focused, p.devtools
}

func (p *Page) set(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return webview.ErrClosed
	}
	fn()
	return nil
}

func (p *Page) navigate(url, markup string) error {
	doc, err := parseDocument(markup)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return webview.ErrClosed
	}

	p.generation++
	p.stopTimers()
	p.url = url
	p.doc = doc
	p.vm = p.newRuntime()

	for i, script := range p.hooks.InitScripts {
		if _, err := p.exec(script); err != nil {
			p.log.Warn("init script failed", zap.Int("index", i), zap.Error(err))
		}
	}
	for _, script := range doc.Scripts() {
		p.runPageScript(script)
	}
	p.mu.Unlock()

	p.log.Debug("page loaded", zap.String("url", url))
	if p.onLoad != nil {
		p.onLoad()
	}
	return nil
}

func (p *Page) runPageScript(script Script) {
	source := script.Inline
	if script.Src != "" {
		src := resolveURL(p.url, script.Src)
		res, err := p.loader.fetch(src)
		if err != nil || res.Status >= 400 {
			p.log.Warn("script not loaded", zap.String("src", src), zap.Int("status", res.Status), zap.Error(err))
			return
		}
		source = string(res.Body)
	}
	if strings.TrimSpace(source) == "" {
		return
	}
	if _, err := p.exec(source); err != nil {
		p.log.Warn("page script failed", zap.Error(err))
	}
}

// exec runs source with the interrupt timeout armed. Callers hold mu.
func (p *Page) exec(source string) (goja.Value, error) {
	if p.vm == nil {
		p.vm = p.newRuntime()
	}
	vm := p.vm

	v, err := p.guarded(vm, func() (goja.Value, error) { return vm.RunString(source) })
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, ErrScriptTimeout
		}
		return nil, fmt.Errorf("script error: %w", err)
	}
	return v, nil
}

func (p *Page) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.generation++
	p.stopTimers()
	p.vm = nil
	p.outbox.close()
}

func (p *Page) stopTimers() {
	for handle, t := range p.timers {
		t.Stop()
		delete(p.timers, handle)
	}
}

// deliver forwards posted messages to the bridge in post order, on a
// goroutine that holds no page lock.
func (p *Page) deliver() {
	for {
		msgs, ok := p.outbox.wait()
		if !ok {
			return
		}
		for _, body := range msgs {
			if p.hooks.IPC != nil {
				p.hooks.IPC(body)
			}
		}
	}
}
