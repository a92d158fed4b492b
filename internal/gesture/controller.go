// Package gesture turns drags along an edge strip into setting adjustments.
package gesture

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/platform"
	"github.com/1broseidon/edgeseek/internal/settings"
)

// Effect is the outcome of one sample.
type Effect struct {
	Adjusted bool
	Value    int
}

// Controller converts touch samples into writes of one system setting.
type Controller interface {
	Setting() config.Setting
	OnSample(s platform.Sample) Effect
}

// Env carries the collaborators shared by all controllers.
type Env struct {
	Stores  settings.Stores
	Haptics platform.Haptics
	Readout platform.Readout
	Logger  *slog.Logger
}

// New returns the controller variant for setting. physical is the edge the
// strip is drawn on; cfg is read on every sample so sensitivity edits apply
// immediately.
func New(setting config.Setting, physical config.Edge, cfg *config.EdgeConfig, env Env) (Controller, error) {
	switch setting {
	case config.SettingBrightness:
		return NewBrightnessController(physical, cfg, env), nil
	case config.SettingMediaVolume:
		return NewMediaVolumeController(physical, cfg, env), nil
	case config.SettingRingVolume:
		return NewRingVolumeController(physical, cfg, env), nil
	case config.SettingAlarmVolume:
		return NewAlarmVolumeController(physical, cfg, env), nil
	default:
		return nil, fmt.Errorf("unknown setting %q", setting)
	}
}

// target describes the value a controller adjusts.
type target struct {
	setting config.Setting
	label   string
	min     int
	max     int
}

// DragState is the baseline of the drag in progress. remainder holds the
// fraction of a step not yet written, so slow drags still add up.
type DragState struct {
	last      float64
	hasLast   bool
	remainder float64
}

func (d *DragState) Reset() {
	d.last = 0
	d.hasLast = false
	d.remainder = 0
}

// Remainder returns the adjustment carried to the next sample.
func (d DragState) Remainder() float64 {
	return d.remainder
}

// Baseline returns the last axis value and whether one is set.
func (d DragState) Baseline() (float64, bool) {
	return d.last, d.hasLast
}

// drag implements the shared sample handling; variants differ only in their
// target.
type drag struct {
	target
	physical config.Edge
	cfg      *config.EdgeConfig
	store    settings.Store
	haptics  platform.Haptics
	readout  platform.Readout
	logger   *slog.Logger
	state    DragState
}

func newDrag(t target, physical config.Edge, cfg *config.EdgeConfig, env Env) drag {
	d := drag{
		target:   t,
		physical: physical,
		cfg:      cfg,
		store:    env.Stores.Get(t.setting),
		haptics:  env.Haptics,
		readout:  env.Readout,
		logger:   env.Logger,
	}
	if d.haptics == nil {
		d.haptics = platform.NopHaptics{}
	}
	if d.readout == nil {
		d.readout = platform.NopReadout{}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

func (d *drag) Setting() config.Setting {
	return d.setting
}

// State returns a copy of the drag baseline.
func (d *drag) State() DragState {
	return d.state
}

func (d *drag) OnSample(s platform.Sample) Effect {
	switch s.Action {
	case platform.ActionDown, platform.ActionCancel:
		d.state.Reset()
		d.haptics.Pulse()
		return Effect{}
	case platform.ActionUp:
		d.haptics.Pulse()
		return Effect{}
	case platform.ActionMove:
		return d.move(s)
	default:
		return Effect{}
	}
}

func (d *drag) move(s platform.Sample) Effect {
	current := AxisValue(d.physical, s)
	last, ok := d.state.Baseline()
	d.state.last, d.state.hasLast = current, true
	if !ok {
		return Effect{}
	}

	delta := (last - current) * float64(d.cfg.Sensitivity) / 100
	if delta == 0 {
		return Effect{}
	}

	value, err := d.store.Read()
	if err != nil {
		if errors.Is(err, settings.ErrUnavailable) {
			d.logger.Debug("setting unavailable, sample dropped", "setting", d.setting, "error", err)
		} else {
			d.logger.Warn("failed to read setting", "setting", d.setting, "error", err)
		}
		return Effect{}
	}

	// A value already above max (an over-amplified sink) may be lowered
	// but is never pushed down to max in one step.
	hi := max(d.max, value)
	target := float64(value) + delta + d.state.remainder
	next := int(math.Round(target))
	switch {
	case next < d.min:
		next, d.state.remainder = d.min, 0
	case next > hi:
		next, d.state.remainder = hi, 0
	default:
		d.state.remainder = target - float64(next)
	}
	if next == value {
		return Effect{}
	}

	if err := d.store.Write(next); err != nil {
		d.state.remainder = 0
		d.logger.Warn("failed to write setting", "setting", d.setting, "value", next, "error", err)
		return Effect{}
	}

	d.readout.Show(fmt.Sprintf("%s: %d", d.label, next))
	return Effect{Adjusted: true, Value: next}
}

// AxisValue returns the coordinate along the strip's long axis, signed so
// that a decreasing value means "increase the setting". Horizontal strips use
// -X (dragging right increases); vertical strips use Y (dragging up
// increases).
func AxisValue(physical config.Edge, s platform.Sample) float64 {
	if physical.Horizontal() {
		return -s.X
	}
	return s.Y
}
