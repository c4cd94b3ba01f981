package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/wui/internal/bridge"
	"github.com/GriffinCanCode/wui/internal/config"
	"github.com/GriffinCanCode/wui/internal/infrastructure/logging"
	"github.com/GriffinCanCode/wui/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wui/internal/settings"
	"github.com/GriffinCanCode/wui/internal/webview"
	"github.com/GriffinCanCode/wui/internal/webview/headless"
	"github.com/GriffinCanCode/wui/internal/webview/native"
)

// Native webviews must be driven from the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	cfg := config.LoadOrDefault()

	settingsPath := flag.String("settings", cfg.Settings.Path, "Settings file")
	assetsDir := flag.String("assets", cfg.Assets.Dir, "Asset directory")
	engineName := flag.String("engine", cfg.Engine.Name, "Rendering engine (headless, native)")
	timeout := flag.Duration("timeout", cfg.IPC.RequestTimeout, "Request timeout")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode")
	flag.Parse()

	cfg.Settings.Path = *settingsPath
	cfg.Assets.Dir = *assetsDir
	cfg.Engine.Name = *engineName
	cfg.IPC.RequestTimeout = *timeout
	if *dev {
		cfg.Logging.Development = true
		cfg.Assets.Dev = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("wui stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics()
	}

	s, err := loadSettings(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		engine webview.Engine
		loop   func()
	)
	switch cfg.Engine.Name {
	case config.EngineNative:
		e, err := native.New(native.Config{Logger: logger})
		if err != nil {
			return err
		}
		engine, loop = e, e.Loop
	default:
		engine = headless.New(headless.Config{
			ScriptTimeout: cfg.Engine.ScriptTimeout,
			Logger:        logger,
		})
	}

	bcfg := bridge.FromConfig(cfg, logger, metrics)
	defer bcfg.Tracer.Close()

	b := bridge.New(s, engine, bcfg)
	register(b, logger)

	logger.Info("starting wui",
		zap.String("engine", cfg.Engine.Name),
		zap.Int("windows", len(s.Windows)),
		zap.String("instance", b.Instance().String()))

	var runErr error
	if loop == nil {
		runErr = b.Run(ctx)
	} else {
		done := make(chan struct{})
		go func() {
			defer close(done)
			runErr = b.Run(ctx)
			_ = engine.Close()
		}()
		loop()
		<-done
	}

	if err := engine.Close(); err != nil {
		logger.Warn("engine close failed", zap.Error(err))
	}
	if metrics != nil && cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("metrics export failed", zap.Error(err))
		}
	}

	return runErr
}

// loadSettings reads the settings file, or builds a single default window
// when none is configured.
func loadSettings(cfg *config.Config) (*settings.Settings, error) {
	opts := settings.Options{
		AssetScheme: cfg.Assets.Scheme,
		AssetsDir:   cfg.Assets.Dir,
	}

	if cfg.Settings.Path == "" {
		return settings.Resolve(&settings.File{
			WUI: settings.Section{Windows: []settings.WindowConfig{{}}},
		}, opts)
	}

	f, err := settings.Load(cfg.Settings.Path)
	if err != nil {
		return nil, err
	}
	opts.BaseDir = filepath.Dir(cfg.Settings.Path)
	return settings.Resolve(f, opts)
}
