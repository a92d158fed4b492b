//go:build linux

package platform

import (
	"fmt"

	"github.com/1broseidon/edgeseek/internal/x11"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn        *x11.Connection
	bellPercent int
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11
// connection. bellPercent is the haptic pulse volume; 0 disables it.
func NewLinuxBackend(conn *x11.Connection, bellPercent int) *LinuxBackend {
	return &LinuxBackend{conn: conn, bellPercent: bellPercent}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(bellPercent int) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn, bellPercent: bellPercent}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Connection returns the underlying X11 connection.
func (b *LinuxBackend) Connection() *x11.Connection {
	if b == nil {
		return nil
	}
	return b.conn
}

// Rotation returns the primary monitor rotation in quarter turns.
func (b *LinuxBackend) Rotation() (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	m, err := conn.PrimaryMonitor()
	if err != nil {
		return 0, err
	}
	r, ok := x11.RotationIndex(m.Rotation)
	if !ok {
		return 0, fmt.Errorf("randr rotation %#x: %w", m.Rotation, ErrInvalidRotation)
	}
	return r, nil
}

// Bounds returns the primary monitor rectangle in root coordinates.
func (b *LinuxBackend) Bounds() (Rect, error) {
	conn, err := b.connection()
	if err != nil {
		return Rect{}, err
	}
	m, err := conn.PrimaryMonitor()
	if err != nil {
		return Rect{}, err
	}
	return rectFromMonitor(m), nil
}

// AddSurface creates a strip window placed on the primary monitor.
func (b *LinuxBackend) AddSurface(spec SurfaceSpec, handler TouchHandler) (Surface, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	bounds, err := b.Bounds()
	if err != nil {
		return nil, err
	}
	r := spec.Place(bounds)

	tracker := &pointerTracker{}
	strip, err := conn.NewStripWindow(r.X, r.Y, r.Width, r.Height, spec.Color.Pixel(), spec.Alpha,
		func(kind x11.PointerKind, x, y int) {
			if s, ok := tracker.sample(kind, x, y); ok {
				handler(s)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("create strip window: %w", err)
	}
	return strip, nil
}

// Pulse rings the X bell.
func (b *LinuxBackend) Pulse() {
	if b == nil || b.conn == nil || b.bellPercent == 0 {
		return
	}
	b.conn.Bell(b.bellPercent)
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func rectFromMonitor(m x11.Monitor) Rect {
	return Rect{
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
	}
}

// pointerTracker turns raw pointer events into touch samples. Motion and
// leave only count while a button is held.
type pointerTracker struct {
	pressed bool
}

func (p *pointerTracker) sample(kind x11.PointerKind, x, y int) (Sample, bool) {
	s := Sample{X: float64(x), Y: float64(y)}
	switch kind {
	case x11.PointerPress:
		p.pressed = true
		s.Action = ActionDown
		return s, true
	case x11.PointerMotion:
		if !p.pressed {
			return Sample{}, false
		}
		s.Action = ActionMove
		return s, true
	case x11.PointerRelease:
		if !p.pressed {
			return Sample{}, false
		}
		p.pressed = false
		s.Action = ActionUp
		return s, true
	case x11.PointerLeave:
		if !p.pressed {
			return Sample{}, false
		}
		p.pressed = false
		s.Action = ActionCancel
		return s, true
	default:
		return Sample{}, false
	}
}
