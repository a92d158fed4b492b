package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
)

// PointerKind identifies the pointer event delivered to a strip.
type PointerKind int

const (
	PointerPress PointerKind = iota
	PointerMotion
	PointerRelease
	PointerLeave
)

// PointerFunc receives pointer events with window-relative coordinates.
type PointerFunc func(kind PointerKind, x, y int)

const stripEventMask = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskButtonMotion |
	xproto.EventMaskLeaveWindow

// StripWindow is an override-redirect window that forwards pointer input.
type StripWindow struct {
	xu      *xgbutil.XUtil
	Window  xproto.Window
	removed bool
}

// NewStripWindow creates and maps a strip at the given geometry. color is
// 0xRRGGBB; opacity in [0,1] is published as _NET_WM_WINDOW_OPACITY for the
// compositor.
func (c *Connection) NewStripWindow(x, y, width, height int, color uint32, opacity float64, fn PointerFunc) (*StripWindow, error) {
	wid, err := c.createOverrideRedirectWindow(x, y, width, height, color, stripEventMask)
	if err != nil {
		return nil, err
	}
	s := &StripWindow{xu: c.XUtil, Window: wid}

	if err := ewmh.WmWindowOpacitySet(c.XUtil, wid, opacity); err != nil {
		s.Remove()
		return nil, fmt.Errorf("set strip opacity: %w", err)
	}

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		fn(PointerPress, int(ev.EventX), int(ev.EventY))
	}).Connect(c.XUtil, wid)
	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		fn(PointerMotion, int(ev.EventX), int(ev.EventY))
	}).Connect(c.XUtil, wid)
	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		fn(PointerRelease, int(ev.EventX), int(ev.EventY))
	}).Connect(c.XUtil, wid)
	xevent.LeaveNotifyFun(func(_ *xgbutil.XUtil, ev xevent.LeaveNotifyEvent) {
		fn(PointerLeave, int(ev.EventX), int(ev.EventY))
	}).Connect(c.XUtil, wid)

	conn := c.XUtil.Conn()
	xproto.ConfigureWindow(conn, wid, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	if err := xproto.MapWindowChecked(conn, wid).Check(); err != nil {
		s.Remove()
		return nil, fmt.Errorf("map strip: %w", err)
	}
	return s, nil
}

// Remove detaches the callbacks and destroys the window. Further calls do
// nothing.
func (s *StripWindow) Remove() error {
	if s.removed {
		return nil
	}
	s.removed = true
	xevent.Detach(s.xu, s.Window)
	return xproto.DestroyWindowChecked(s.xu.Conn(), s.Window).Check()
}

// createOverrideRedirectWindow creates a single override-redirect window
func (c *Connection) createOverrideRedirectWindow(x, y, width, height int, color uint32, eventMask uint32) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	width = max(width, 1)
	height = max(height, 1)

	// override_redirect keeps the window manager from decorating or moving it.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		int16(x), int16(y),
		uint16(width), uint16(height),
		0, // border_width
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		// Value list order follows the bit positions of the mask (low to high).
		[]uint32{color, 1, eventMask},
	).Check()
	if err != nil {
		return 0, err
	}

	return wid, nil
}
