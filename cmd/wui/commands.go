package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/bridge"
	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/value"
)

var (
	errNotNumber  = errors.New("sum expects an array of numbers")
	errEmptyPatch = errors.New("nothing to update")
	errNoWindow   = errors.New("no target window")
)

// greetDelay is how long greet holds its deferred reply.
const greetDelay = 50 * time.Millisecond

// register installs the built-in commands and listeners.
func register(b *bridge.Bridge, logger *logging.Logger) {
	pageLog := logger.Named("page")

	b.RegisterCommand("ping", bridge.HandlerFunc(ping))
	b.RegisterCommand("echo", bridge.HandlerFunc(echo))
	b.RegisterCommand("sum", bridge.HandlerFunc(sum))
	b.RegisterCommand("greet", bridge.HandlerFunc(greet))
	b.RegisterCommand("windows", bridge.HandlerFunc(func(context.Context, string, value.Value) (value.Value, error) {
		return value.FromNative(b.Labels())
	}))

	b.RegisterCommand("update_window", updateCommand(b, false))
	b.RegisterCommand("update_webview", updateCommand(b, true))

	b.RegisterListener("log", bridge.HandlerFunc(func(ctx context.Context, _ string, payload value.Value) (value.Value, error) {
		fields := []zap.Field{zap.Stringer("payload", payload)}
		if w, ok := bridge.WindowFromContext(ctx); ok {
			fields = append(fields, logging.Window(w.Label))
		}
		pageLog.Info("page log", fields...)
		return value.Value{}, nil
	}))
	b.RegisterListener("close", bridge.HandlerFunc(func(ctx context.Context, _ string, _ value.Value) (value.Value, error) {
		w, ok := bridge.WindowFromContext(ctx)
		if !ok {
			return value.Value{}, nil
		}
		return value.Value{}, b.CloseWindow(w.Label)
	}))

	b.OnStart(func(label string) { logger.Info("window opened", logging.Window(label)) })
	b.OnStop(func(label string) { logger.Info("window closed", logging.Window(label)) })
	b.OnExit(func() { logger.Info("all windows closed") })
}

func ping(context.Context, string, value.Value) (value.Value, error) {
	return value.NewString("pong"), nil
}

func echo(_ context.Context, _ string, args value.Value) (value.Value, error) {
	return args, nil
}

func sum(_ context.Context, _ string, args value.Value) (value.Value, error) {
	if args.Kind() != value.Array {
		return value.Value{}, errNotNumber
	}
	var (
		ints     int64
		floats   float64
		integral = true
	)
	for _, item := range args.Items() {
		switch item.Kind() {
		case value.Int:
			n, _ := item.AsInt()
			ints += n
		case value.Float:
			f, _ := item.AsFloat()
			floats += f
			integral = false
		default:
			return value.Value{}, errNotNumber
		}
	}
	if integral {
		return value.NewInt(ints), nil
	}
	return value.NewFloat(float64(ints) + floats), nil
}

// greet answers after a short delay through a deferred reply.
func greet(ctx context.Context, _ string, args value.Value) (value.Value, error) {
	name, ok := args.AsString()
	if !ok || name == "" {
		name = "world"
	}
	reply := bridge.Defer(ctx)
	time.AfterFunc(greetDelay, func() {
		reply.Resolve(value.NewString(fmt.Sprintf("hello, %s", name)), nil)
	})
	return value.Value{}, nil
}

// updateCommand applies a patch object to a window. The target is the
// "label" key when present, otherwise the calling window.
func updateCommand(b *bridge.Bridge, webviewOnly bool) bridge.HandlerFunc {
	return func(ctx context.Context, _ string, args value.Value) (value.Value, error) {
		label, err := targetLabel(ctx, args)
		if err != nil {
			return value.Value{}, err
		}

		var patch bridge.Patch
		if webviewOnly {
			patch.Webview, err = bridge.ParseWebviewPatch(args)
		} else {
			patch.Window, err = bridge.ParseWindowPatch(args)
		}
		if err != nil {
			return value.Value{}, err
		}
		if patch.Empty() {
			return value.Value{}, errEmptyPatch
		}

		if err := b.UpdateWindow(label, patch); err != nil {
			return value.Value{}, err
		}
		return value.NewBool(true), nil
	}
}

func targetLabel(ctx context.Context, args value.Value) (string, error) {
	if raw, ok := args.Get("label"); ok {
		if label, ok := raw.AsString(); ok && label != "" {
			return label, nil
		}
		return "", fmt.Errorf("%w: label must be a non-empty string", bridge.ErrInvalidPatch)
	}
	if w, ok := bridge.WindowFromContext(ctx); ok {
		return w.Label, nil
	}
	return "", errNoWindow
}
