package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display
type Monitor struct {
	ID       int
	Name     string
	X        int
	Y        int
	Width    int
	Height   int
	Rotation uint16 // RandR rotation bits
	Primary  bool
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()

	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor

	// Query each CRTC for active monitors
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(conn, crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		isPrimary := false
		for _, out := range crtcInfo.Outputs {
			if primary != 0 && out == primary {
				isPrimary = true
			}
		}

		monitors = append(monitors, Monitor{
			ID:       i,
			Name:     outputName,
			X:        int(crtcInfo.X),
			Y:        int(crtcInfo.Y),
			Width:    int(crtcInfo.Width),
			Height:   int(crtcInfo.Height),
			Rotation: crtcInfo.Rotation,
			Primary:  isPrimary,
		})
	}

	return monitors, nil
}

// PrimaryMonitor returns the RandR primary monitor, the first active one
// when no primary is set, or the whole root window when RandR reports no
// CRTCs (nested servers, Xvfb).
func (c *Connection) PrimaryMonitor() (Monitor, error) {
	monitors, err := c.GetMonitors()
	if err == nil && len(monitors) > 0 {
		return pickPrimary(monitors), nil
	}
	return c.rootMonitor()
}

func pickPrimary(monitors []Monitor) Monitor {
	for _, m := range monitors {
		if m.Primary {
			return m
		}
	}
	return monitors[0]
}

func (c *Connection) rootMonitor() (Monitor, error) {
	conn := c.XUtil.Conn()
	geom, err := xproto.GetGeometry(conn, xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return Monitor{}, fmt.Errorf("root geometry: %w", err)
	}
	m := Monitor{
		Name:     "root",
		Width:    int(geom.Width),
		Height:   int(geom.Height),
		Rotation: randr.RotationRotate0,
		Primary:  true,
	}
	if info, err := randr.GetScreenInfo(conn, c.Root).Reply(); err == nil {
		m.Rotation = info.Rotation
	}
	return m, nil
}

// RotationIndex maps RandR rotation bits to quarter turns (0-3).
// Reflection bits are ignored. It reports false unless exactly one rotation
// bit is set.
func RotationIndex(bits uint16) (int, bool) {
	switch bits &^ (randr.RotationReflectX | randr.RotationReflectY) {
	case randr.RotationRotate0:
		return 0, true
	case randr.RotationRotate90:
		return 1, true
	case randr.RotationRotate180:
		return 2, true
	case randr.RotationRotate270:
		return 3, true
	default:
		return 0, false
	}
}
