package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/edgeseek/internal/platform"
	"github.com/jonboulle/clockwork"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

// Reconciler notices display rotation and size changes. It polls for
// drivers that emit no RandR notifications and is also run on every
// screen-change event, so a change is reported once however it is noticed.
type Reconciler struct {
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	display  platform.Display
	post     func(func()) bool
	onChange func()

	rotation int
	bounds   platform.Rect
	seen     bool
}

// NewReconciler creates a reconciler. post schedules work on the dispatcher;
// onChange runs there when the display changed.
func NewReconciler(cfg ReconcilerConfig, display platform.Display, post func(func()) bool, onChange func()) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		clock:    clock,
		logger:   logger,
		display:  display,
		post:     post,
		onChange: onChange,
	}
}

// Run starts the polling loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.Chan():
			if !r.post(r.reconcile) {
				return
			}
		}
	}
}

// ReconcileNow runs a pass immediately. Call it on the dispatcher goroutine.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}

func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	rotation, err := r.display.Rotation()
	if err != nil {
		r.logger.Warn("reconciler: failed to read rotation", "error", err)
		return
	}
	bounds, err := r.display.Bounds()
	if err != nil {
		r.logger.Warn("reconciler: failed to read display bounds", "error", err)
		return
	}

	if !r.seen {
		r.rotation, r.bounds, r.seen = rotation, bounds, true
		return
	}
	if rotation == r.rotation && bounds == r.bounds {
		return
	}

	r.logger.Info("display changed",
		"rotation", rotation,
		"previous_rotation", r.rotation,
		"width", bounds.Width,
		"height", bounds.Height)
	r.rotation, r.bounds = rotation, bounds
	r.onChange()
}
