// Package daemon runs the edge overlays: it wires the X11 backend, setting
// stores and readout to the overlay registry and serializes all work on one
// dispatcher goroutine.
package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/edge"
	"github.com/1broseidon/edgeseek/internal/gesture"
	"github.com/1broseidon/edgeseek/internal/notify"
	"github.com/1broseidon/edgeseek/internal/platform"
	"github.com/1broseidon/edgeseek/internal/runtimepath"
	"github.com/1broseidon/edgeseek/internal/settings"
	"github.com/1broseidon/edgeseek/internal/x11"
)

const (
	appName     = "edgeseek"
	bellPercent = 20
)

// Options configure Run.
type Options struct {
	ConfigPath string
	LogOutput  io.Writer
}

// Run starts the daemon and blocks until ctx is cancelled, SIGINT/SIGTERM
// arrives, or the X connection closes.
func Run(ctx context.Context, opts Options) error {
	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}
	cfg := res.Config

	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.LogLevel))
	logger := NewLogger(opts.LogOutput, level, cfg.LogFormat)
	slog.SetDefault(logger)

	pidPath, err := runtimepath.PidPath()
	if err != nil {
		return err
	}
	if err := WritePidFile(pidPath); err != nil {
		return err
	}
	defer RemovePidFile(pidPath)

	percent := 0
	if cfg.Haptics {
		percent = bellPercent
	}
	backend, err := platform.NewLinuxBackendFromDisplay(percent)
	if err != nil {
		return err
	}
	defer backend.Disconnect()
	conn := backend.Connection()

	readout, closeReadout := newReadout(cfg, conn, logger)
	defer closeReadout()

	registry := edge.NewRegistry(edge.Env{
		Display:  backend,
		Surfaces: backend,
		Gesture: gesture.Env{
			Stores:  settings.NewStores(cfg, nil),
			Haptics: backend,
			Readout: readout,
			Logger:  logger.With("component", "gesture"),
		},
		RotationAware: cfg.RotationAware,
		Logger:        logger.With("component", "edge"),
	}, cfg.Enabled)
	svc := NewService(path, cfg, registry, level, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dispatcher := NewDispatcher(logger)
	reconciler := NewReconciler(ReconcilerConfig{
		Interval: time.Duration(cfg.ReconcileIntervalSeconds) * time.Second,
		Logger:   logger.With("component", "reconciler"),
	}, backend, dispatcher.Post, func() {
		if err := svc.DisplayChanged(); err != nil {
			logger.Error("rebuild after display change failed", "error", err)
		}
	})

	// The hook runs inside an event-loop turn, which the dispatcher already
	// serializes with posted work.
	if err := conn.OnScreenChange(reconciler.ReconcileNow); err != nil {
		logger.Warn("screen change events unavailable, relying on polling", "error", err)
	}

	if err := svc.Start(); err != nil {
		logger.Error("initial overlay setup incomplete", "error", err)
	}
	reconciler.ReconcileNow()

	if cfg.ReconcileIntervalSeconds > 0 {
		go reconciler.Run(ctx)
	}

	watcher, err := config.NewWatcher(path, func() {
		dispatcher.Post(func() {
			if err := svc.Reload(); err != nil {
				logger.Error("config reload failed", "error", err)
			}
		})
	}, logger.With("component", "watcher"))
	if err != nil {
		logger.Warn("config watcher unavailable, use SIGHUP to reload", "error", err)
	} else {
		go watcher.Run(ctx)
	}

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				dispatcher.Post(func() {
					if svc.HandleSignal(sig) {
						cancel()
					}
				})
			}
		}
	}()

	logger.Info("edgeseek daemon started", "config", path, "pid", os.Getpid(), "enabled", cfg.Enabled)

	before, after, quit := conn.MainPing()
	dispatcher.Run(ctx, Pings{Before: before, After: after, Quit: quit})

	if err := svc.Shutdown(); err != nil {
		logger.Error("overlay shutdown incomplete", "error", err)
	}
	conn.Quit()
	logger.Info("edgeseek daemon stopped")
	return nil
}

// newReadout picks the readout for cfg.Readout. A notification readout
// falls back to the on-screen toast without a session bus.
func newReadout(cfg *config.Config, conn *x11.Connection, logger *slog.Logger) (platform.Readout, func()) {
	timeout := time.Duration(cfg.ReadoutTimeoutMS) * time.Millisecond

	switch cfg.Readout {
	case config.ReadoutNone:
		return platform.NopReadout{}, func() {}
	case config.ReadoutNotification:
		n, err := notify.NewSessionNotifier(appName, timeout, logger.With("component", "notify"))
		if err == nil {
			return n, n.Close
		}
		logger.Warn("desktop notifications unavailable, using on-screen readout", "error", err)
	}

	toast := x11.NewToast(conn, nil, timeout)
	return toast, toast.Close
}

