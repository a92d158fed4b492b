package edge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/gesture"
	"github.com/1broseidon/edgeseek/internal/platform"
)

// State is the lifecycle position of an overlay.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StateAttached
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateAttached:
		return "attached"
	default:
		return "unknown"
	}
}

// Env carries what overlays need from the platform. It is shared by every
// overlay of a registry.
type Env struct {
	Display       platform.Display
	Surfaces      platform.SurfaceManager
	Gesture       gesture.Env
	RotationAware bool
	Logger        *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Overlay owns the strip surface of one configured edge.
//
// attached implies built; an overlay holds at most one surface at a time.
type Overlay struct {
	env        *Env
	cfg        *config.EdgeConfig
	geometry   Geometry
	controller gesture.Controller
	surface    platform.Surface
	built      bool

	// What the current geometry and controller were derived from.
	builtCfg   config.EdgeConfig
	builtAware bool
}

// NewOverlay returns an unbuilt overlay for cfg. cfg is read, never written.
func NewOverlay(cfg *config.EdgeConfig, env *Env) *Overlay {
	return &Overlay{env: env, cfg: cfg}
}

// State reports the lifecycle position, derived from the surface handle and
// the built flag.
func (o *Overlay) State() State {
	switch {
	case o.surface != nil:
		return StateAttached
	case o.built:
		return StateBuilt
	default:
		return StateUnbuilt
	}
}

// Geometry returns the geometry of the last successful Build.
func (o *Overlay) Geometry() Geometry {
	return o.geometry
}

// Config returns the record the overlay reads.
func (o *Overlay) Config() *config.EdgeConfig {
	return o.cfg
}

// SetConfig points the overlay at a new record. It takes effect on the next
// Build.
func (o *Overlay) SetConfig(cfg *config.EdgeConfig) {
	o.cfg = cfg
}

// Controller returns the installed gesture controller, nil before Build.
func (o *Overlay) Controller() gesture.Controller {
	return o.controller
}

// Stale reports whether the record or the rotation mode changed since the
// last Build.
func (o *Overlay) Stale() bool {
	return !o.built || *o.cfg != o.builtCfg || o.env.RotationAware != o.builtAware
}

// Build derives geometry and controller from the current config and display
// rotation. It may be called in any state. On failure the previous geometry,
// controller and state are kept.
func (o *Overlay) Build() error {
	rotation, err := o.env.Display.Rotation()
	if err != nil {
		return fmt.Errorf("read display rotation: %w", err)
	}
	physical, err := Resolve(o.cfg.Edge, rotation, o.env.RotationAware)
	if err != nil {
		return err
	}
	controller, err := gesture.New(o.cfg.Setting, physical, o.cfg, o.env.Gesture)
	if err != nil {
		return err
	}

	o.geometry = geometryFor(physical, o.cfg.Width)
	o.controller = controller
	o.built = true
	o.builtCfg = *o.cfg
	o.builtAware = o.env.RotationAware

	o.env.logger().Debug("overlay built",
		"edge", o.cfg.Edge,
		"physical", physical,
		"rotation", rotation,
		"width", o.geometry.Width,
		"height", o.geometry.Height,
		"setting", o.cfg.Setting)
	return nil
}

// Attach adds the strip surface to the display. A deactivated edge stays
// built and unattached.
func (o *Overlay) Attach() error {
	if !o.built {
		return ErrNotBuilt
	}
	if o.surface != nil {
		return ErrAlreadyAttached
	}
	if !o.cfg.Activated {
		return nil
	}

	spec := platform.SurfaceSpec{
		Gravity: o.geometry.Gravity,
		Width:   o.geometry.Width,
		Height:  o.geometry.Height,
		Color:   o.cfg.Color,
		Alpha:   o.cfg.Alpha,
	}
	surface, err := o.env.Surfaces.AddSurface(spec, o.handle)
	if err != nil {
		return fmt.Errorf("add %s strip: %w", o.geometry.Gravity, err)
	}
	o.surface = surface
	return nil
}

// Detach removes the strip surface.
func (o *Overlay) Detach() error {
	if o.surface == nil {
		return ErrNotAttached
	}
	return o.release()
}

// Reattach removes the surface, rebuilds, and adds the surface again when
// the edge is still activated. The old surface is always released first, so
// the overlay never holds two surfaces. When the rebuild fails the surface
// is added back with the previous geometry and the build error is returned.
func (o *Overlay) Reattach() error {
	if o.surface == nil {
		return ErrNotAttached
	}
	removeErr := o.release()
	buildErr := o.Build()
	return errors.Join(removeErr, buildErr, o.Attach())
}

// Destroy detaches if needed and returns the overlay to the unbuilt state.
func (o *Overlay) Destroy() error {
	var err error
	if o.surface != nil {
		err = o.release()
	}
	o.built = false
	o.controller = nil
	o.geometry = Geometry{}
	return err
}

// release drops the surface handle even when removal fails.
func (o *Overlay) release() error {
	surface := o.surface
	o.surface = nil
	if err := surface.Remove(); err != nil {
		return fmt.Errorf("remove %s strip: %w", o.geometry.Gravity, err)
	}
	return nil
}

func (o *Overlay) handle(s platform.Sample) {
	if o.controller == nil {
		return
	}
	o.controller.OnSample(s)
}
