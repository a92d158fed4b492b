package platform

import (
	"errors"

	"github.com/1broseidon/edgeseek/internal/config"
)

// ErrInvalidRotation is returned when the display reports a rotation that is
// not a quarter turn.
var ErrInvalidRotation = errors.New("invalid rotation")

// MatchParent marks a surface dimension that spans the whole display.
const MatchParent = -1

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Action is the phase of a pointer/touch sample.
type Action int

const (
	ActionDown Action = iota
	ActionMove
	ActionUp
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionMove:
		return "move"
	case ActionUp:
		return "up"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Sample is one touch event. Coordinates are relative to the surface.
type Sample struct {
	Action Action
	X      float64
	Y      float64
}

// TouchHandler receives samples for a surface on the event thread.
type TouchHandler func(Sample)

// SurfaceSpec describes where and how a strip surface is shown.
type SurfaceSpec struct {
	Gravity config.Edge
	Width   int // pixels or MatchParent
	Height  int // pixels or MatchParent
	Color   config.Color
	Alpha   float64
}

// Surface is an added overlay surface. Remove releases it; calling Remove
// more than once is harmless.
type Surface interface {
	Remove() error
}

// SurfaceManager adds overlay surfaces to the primary display.
type SurfaceManager interface {
	AddSurface(spec SurfaceSpec, handler TouchHandler) (Surface, error)
}

// Display reports the state of the primary display.
type Display interface {
	// Rotation returns 0-3 for 0/90/180/270 degrees.
	Rotation() (int, error)
	Bounds() (Rect, error)
}

// Haptics triggers a short feedback pulse.
type Haptics interface {
	Pulse()
}

// Readout shows transient text. A new call replaces a still-visible one.
type Readout interface {
	Show(text string)
}

// Backend bundles what the overlay core needs from the window system.
type Backend interface {
	Display
	SurfaceManager
	Haptics
}

// NopHaptics discards pulses.
type NopHaptics struct{}

func (NopHaptics) Pulse() {}

// NopReadout discards text.
type NopReadout struct{}

func (NopReadout) Show(string) {}

// Place returns the surface rectangle inside bounds, anchored on Gravity.
func (s SurfaceSpec) Place(bounds Rect) Rect {
	r := Rect{X: bounds.X, Y: bounds.Y, Width: s.Width, Height: s.Height}
	if r.Width == MatchParent || r.Width > bounds.Width {
		r.Width = bounds.Width
	}
	if r.Height == MatchParent || r.Height > bounds.Height {
		r.Height = bounds.Height
	}
	switch s.Gravity {
	case config.EdgeRight:
		r.X = bounds.X + bounds.Width - r.Width
	case config.EdgeBottom:
		r.Y = bounds.Y + bounds.Height - r.Height
	}
	return r
}
