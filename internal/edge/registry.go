package edge

import (
	"errors"
	"fmt"

	"github.com/1broseidon/edgeseek/internal/config"
)

// Registry owns one overlay per logical edge and applies the global enable
// switch. All methods must be called from the event goroutine.
type Registry struct {
	env      *Env
	overlays map[config.Edge]*Overlay
	order    []config.Edge
	enabled  bool
}

// OverlayStatus is a snapshot of one overlay.
type OverlayStatus struct {
	Edge      config.Edge
	Physical  config.Edge
	Setting   config.Setting
	Activated bool
	State     State
}

func NewRegistry(env Env, enabled bool) *Registry {
	return &Registry{
		env:      &env,
		overlays: make(map[config.Edge]*Overlay),
		enabled:  enabled,
	}
}

func (r *Registry) Enabled() bool {
	return r.enabled
}

// SetRotationAware changes how edges are resolved. It applies on the next
// build of each overlay.
func (r *Registry) SetRotationAware(aware bool) {
	r.env.RotationAware = aware
}

// Overlay returns the overlay for a logical edge.
func (r *Registry) Overlay(edge config.Edge) (*Overlay, bool) {
	o, ok := r.overlays[edge]
	return o, ok
}

// Overlays returns the overlays in configuration order.
func (r *Registry) Overlays() []*Overlay {
	out := make([]*Overlay, 0, len(r.order))
	for _, edge := range r.order {
		out = append(out, r.overlays[edge])
	}
	return out
}

// SyncFromConfig reconciles the overlay set with configs. New edges get an
// overlay, removed edges are destroyed, and existing overlays pick up the
// new record. Every overlay is processed; failures are joined.
func (r *Registry) SyncFromConfig(configs []*config.EdgeConfig) error {
	var errs []error
	seen := make(map[config.Edge]bool, len(configs))
	order := make([]config.Edge, 0, len(configs))

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		if !cfg.Edge.Valid() {
			errs = append(errs, fmt.Errorf("unknown edge %q", cfg.Edge))
			continue
		}
		if seen[cfg.Edge] {
			errs = append(errs, fmt.Errorf("%s edge: duplicate record ignored", cfg.Edge))
			continue
		}
		seen[cfg.Edge] = true
		order = append(order, cfg.Edge)

		if o, ok := r.overlays[cfg.Edge]; ok {
			o.SetConfig(cfg)
			errs = append(errs, wrapEdge(cfg.Edge, r.refresh(o)))
			continue
		}

		o := NewOverlay(cfg, r.env)
		r.overlays[cfg.Edge] = o
		r.env.logger().Info("overlay added", "edge", cfg.Edge, "setting", cfg.Setting)
		if r.enabled {
			errs = append(errs, wrapEdge(cfg.Edge, r.bringUp(o)))
		}
	}

	for _, edge := range r.order {
		if seen[edge] {
			continue
		}
		errs = append(errs, wrapEdge(edge, r.overlays[edge].Destroy()))
		delete(r.overlays, edge)
		r.env.logger().Info("overlay removed", "edge", edge)
	}
	r.order = order

	return errors.Join(errs...)
}

// ApplyGlobalEnable attaches every detached overlay when enabled, each
// respecting its own activated flag, and detaches every attached overlay
// when disabled.
func (r *Registry) ApplyGlobalEnable(enabled bool) error {
	r.enabled = enabled
	var errs []error
	for _, o := range r.Overlays() {
		edge := o.Config().Edge
		if enabled {
			if o.State() != StateAttached {
				errs = append(errs, wrapEdge(edge, r.bringUp(o)))
			}
			continue
		}
		if o.State() == StateAttached {
			errs = append(errs, wrapEdge(edge, o.Detach()))
		}
	}
	return errors.Join(errs...)
}

// OnConfigurationChanged rebuilds every attached overlay after a rotation or
// screen size change. While enabled, activated overlays left detached by an
// earlier failure are brought up again.
func (r *Registry) OnConfigurationChanged() error {
	var errs []error
	for _, o := range r.Overlays() {
		switch {
		case o.State() == StateAttached:
			errs = append(errs, wrapEdge(o.Config().Edge, o.Reattach()))
		case r.enabled && o.Config().Activated:
			errs = append(errs, wrapEdge(o.Config().Edge, r.bringUp(o)))
		}
	}
	return errors.Join(errs...)
}

// Shutdown destroys every overlay.
func (r *Registry) Shutdown() error {
	var errs []error
	for _, o := range r.Overlays() {
		errs = append(errs, wrapEdge(o.Config().Edge, o.Destroy()))
	}
	r.overlays = make(map[config.Edge]*Overlay)
	r.order = nil
	return errors.Join(errs...)
}

func (r *Registry) Status() []OverlayStatus {
	out := make([]OverlayStatus, 0, len(r.order))
	for _, o := range r.Overlays() {
		cfg := o.Config()
		out = append(out, OverlayStatus{
			Edge:      cfg.Edge,
			Physical:  o.Geometry().Gravity,
			Setting:   cfg.Setting,
			Activated: cfg.Activated,
			State:     o.State(),
		})
	}
	return out
}

// refresh applies a live edit to an existing overlay. An attached overlay
// whose inputs did not change keeps its surface.
func (r *Registry) refresh(o *Overlay) error {
	if o.State() == StateAttached {
		if !o.Stale() {
			return nil
		}
		return o.Reattach()
	}
	if r.enabled {
		return r.bringUp(o)
	}
	return nil
}

func (r *Registry) bringUp(o *Overlay) error {
	if err := o.Build(); err != nil {
		return err
	}
	return o.Attach()
}

func wrapEdge(edge config.Edge, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s edge: %w", edge, err)
}
