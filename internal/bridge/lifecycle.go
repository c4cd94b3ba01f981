package bridge

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/assets"
	"github.com/GriffinCanCode/wui/internal/config"
	"github.com/GriffinCanCode/wui/internal/icon"
	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/ipc"
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/shared/id"
	"github.com/GriffinCanCode/wui/internal/webview"
)

// Window creation failure reasons, used as metric labels.
const (
	reasonDuplicate = "duplicate_label"
	reasonIcon      = "icon"
	reasonScheme    = "scheme"
	reasonEngine    = "engine"
)

// lifecycle holds host notifications. Several callbacks may be registered
// for each hook; they run in registration order.
type lifecycle struct {
	mu      sync.RWMutex
	onStart []func(label string)
	onStop  []func(label string)
	onExit  []func()
}

// OnStart registers fn to run after each window is created.
func (b *Bridge) OnStart(fn func(label string)) {
	b.lifecycle.mu.Lock()
	defer b.lifecycle.mu.Unlock()
	b.lifecycle.onStart = append(b.lifecycle.onStart, fn)
}

// OnStop registers fn to run after each window is closed.
func (b *Bridge) OnStop(fn func(label string)) {
	b.lifecycle.mu.Lock()
	defer b.lifecycle.mu.Unlock()
	b.lifecycle.onStop = append(b.lifecycle.onStop, fn)
}

// OnExit registers fn to run once the last window is gone.
func (b *Bridge) OnExit(fn func()) {
	b.lifecycle.mu.Lock()
	defer b.lifecycle.mu.Unlock()
	b.lifecycle.onExit = append(b.lifecycle.onExit, fn)
}

func (b *Bridge) fireStart(label string) {
	b.lifecycle.mu.RLock()
	hooks := slices.Clone(b.lifecycle.onStart)
	b.lifecycle.mu.RUnlock()

	for _, fn := range hooks {
		b.notifyHost("on_start", label, func() { fn(label) })
	}
}

func (b *Bridge) fireStop(label string) {
	b.lifecycle.mu.RLock()
	hooks := slices.Clone(b.lifecycle.onStop)
	b.lifecycle.mu.RUnlock()

	for _, fn := range hooks {
		b.notifyHost("on_stop", label, func() { fn(label) })
	}
}

func (b *Bridge) fireExit() {
	b.lifecycle.mu.RLock()
	hooks := slices.Clone(b.lifecycle.onExit)
	b.lifecycle.mu.RUnlock()

	for _, fn := range hooks {
		b.notifyHost("on_exit", "", fn)
	}
}

// notifyHost runs a host callback; a panic is logged and swallowed.
func (b *Bridge) notifyHost(hook, label string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.loopLog.Error("host notification panicked",
				zap.String("hook", hook),
				logging.Window(label),
				zap.Any("panic", r))
		}
	}()
	fn()
}

// createWindow assigns a label, builds the window and registers it. Label
// bookkeeping completes before the engine sees the window.
func (b *Bridge) createWindow(w settings.Window) (*Entry, error) {
	b.created++
	label := w.Label
	if label == "" {
		label = fmt.Sprintf("Window %d", b.created)
	}
	log := b.loopLog.With(logging.Window(label))

	if b.registry.Has(label) {
		b.metrics.RecordWindowCreateFailure(reasonDuplicate)
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}
	w.Label = label

	ic, err := b.loadIcon(w.Icon, log)
	if err != nil {
		b.metrics.RecordWindowCreateFailure(reasonIcon)
		return nil, err
	}

	schemes, err := b.schemeHandlers(w.Webview.SchemeDirs(), log)
	if err != nil {
		b.metrics.RecordWindowCreateFailure(reasonScheme)
		return nil, err
	}

	wid := id.NewWindowID()
	hooks := webview.Hooks{
		IPC:         func(body string) { b.receive(wid, label, body) },
		Schemes:     schemes,
		InitScripts: append([]string{ipc.InitScript(b.cfg.RequestTimeout)}, w.Webview.InitScripts...),
	}

	win, err := b.engine.CreateWindow(webview.Spec{ID: wid, Label: label, Window: w, Icon: ic}, hooks)
	if err != nil {
		b.metrics.RecordWindowCreateFailure(reasonEngine)
		return nil, fmt.Errorf("create window %q: %w", label, err)
	}

	entry := &Entry{ID: wid, Label: label, Window: win, Spec: w, Created: time.Now()}
	if err := b.registry.Register(entry); err != nil {
		_ = win.Close()
		b.metrics.RecordWindowCreateFailure(reasonDuplicate)
		return nil, err
	}

	b.metrics.IncWindowsCreated()
	b.metrics.SetWindowsOpen(b.registry.Count())
	log.Info("window created", logging.WindowID(wid.String()), zap.String("url", w.Webview.URL))

	b.fireStart(label)
	return entry, nil
}

// closeWindow tears down e. It reports whether no windows remain.
func (b *Bridge) closeWindow(e *Entry) bool {
	if _, ok := b.registry.RemoveByID(e.ID); !ok {
		return b.registry.Count() == 0
	}
	log := b.loopLog.With(logging.Window(e.Label))

	if dropped := b.corr.DropWindow(e.ID); dropped > 0 {
		log.Debug("discarded pending requests", zap.Int("count", dropped))
		b.metrics.SetPendingCorrelations(b.corr.Len())
	}
	b.limiter.Forget(e.ID)

	if err := e.Window.Close(); err != nil {
		log.Warn("window close failed", zap.Error(err))
	}
	remaining := b.registry.Count()
	b.metrics.SetWindowsOpen(remaining)
	log.Info("window closed", zap.Int("remaining", remaining))

	b.fireStop(e.Label)
	return remaining == 0
}

func (b *Bridge) loadIcon(path string, log *logging.Logger) (*icon.Icon, error) {
	if path == "" {
		return icon.Default(), nil
	}

	ic, err := icon.Load(path)
	if err == nil {
		return ic, nil
	}
	if b.cfg.IconPolicy == config.IconPolicyFatal {
		return nil, fmt.Errorf("%w: icon %s: %w", ErrResourceLoad, path, err)
	}
	log.Warn("icon unusable, using default", zap.String("path", path), zap.Error(err))
	return icon.Default(), nil
}

// schemeHandlers builds one asset handler per custom scheme. Handlers are
// shared between windows serving the same directory.
func (b *Bridge) schemeHandlers(dirs map[string]string, log *logging.Logger) (map[string]http.Handler, error) {
	if len(dirs) == 0 {
		return nil, nil
	}

	out := make(map[string]http.Handler, len(dirs))
	for scheme, dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			if err == nil {
				err = errors.New("not a directory")
			}
			if b.cfg.IconPolicy == config.IconPolicyFatal {
				return nil, fmt.Errorf("%w: scheme %s directory %s: %w", ErrResourceLoad, scheme, dir, err)
			}
			log.Warn("scheme directory unusable", zap.String("scheme", scheme), zap.String("dir", dir), zap.Error(err))
		}

		h, ok := b.handlers[dir]
		if !ok {
			cfg := b.cfg.Assets
			cfg.Dir = dir
			var err error
			if h, err = assets.New(cfg); err != nil {
				return nil, fmt.Errorf("%w: scheme %s: %w", ErrResourceLoad, scheme, err)
			}
			b.handlers[dir] = h
		}
		out[scheme] = h
	}
	return out, nil
}
