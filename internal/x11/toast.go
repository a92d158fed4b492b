package x11

import (
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/jonboulle/clockwork"
)

const (
	ColorToastText = 0xf5f7fa
	ColorToastBg   = 0x1f2933
)

const (
	toastPaddingX   = 14
	toastPaddingY   = 10
	toastLineHeight = 16
	toastCharWidth  = 7
	toastMinWidth   = 160
	toastMaxChars   = 255
)

// Toast is a single on-screen text window. Showing new text replaces the
// old text and restarts the hide timer.
type Toast struct {
	conn    *Connection
	clock   clockwork.Clock
	timeout time.Duration

	mu       sync.Mutex
	window   xproto.Window
	gc       xproto.Gcontext
	font     xproto.Font
	created  bool
	mapped   bool
	disabled bool
	text     string
	timer    clockwork.Timer
}

// NewToast returns a toast that hides itself timeout after the last Show.
func NewToast(conn *Connection, clock clockwork.Clock, timeout time.Duration) *Toast {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Toast{conn: conn, clock: clock, timeout: timeout}
}

func (t *Toast) Show(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(text) > toastMaxChars {
		text = text[:toastMaxChars]
	}
	t.text = text
	if !t.ensureResources() {
		return
	}

	bounds, err := t.conn.PrimaryMonitor()
	if err != nil {
		return
	}
	width, height := toastDimensions(text)
	x, y := toastPosition(bounds, width, height)

	conn := t.conn.XUtil.Conn()
	xproto.ConfigureWindow(
		conn,
		t.window,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(x),
			uint32(y),
			uint32(width),
			uint32(height),
			xproto.StackModeAbove,
		},
	)
	if !t.mapped {
		xproto.MapWindow(conn, t.window)
		t.mapped = true
	}
	t.draw()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = t.clock.AfterFunc(t.timeout, t.hide)
}

// Close destroys the toast window.
func (t *Toast) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.destroy()
}

// Visible reports whether the toast window is mapped.
func (t *Toast) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mapped
}

func (t *Toast) hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.mapped {
		return
	}
	xproto.UnmapWindow(t.conn.XUtil.Conn(), t.window)
	t.mapped = false
}

// draw must be called with mu held.
func (t *Toast) draw() {
	conn := t.conn.XUtil.Conn()
	xproto.ClearArea(conn, false, t.window, 0, 0, 0, 0)
	if t.text == "" {
		return
	}
	xproto.ImageText8(
		conn,
		byte(len(t.text)),
		xproto.Drawable(t.window),
		t.gc,
		int16(toastPaddingX),
		int16(toastPaddingY+toastLineHeight-4),
		t.text,
	)
}

func (t *Toast) ensureResources() bool {
	if t.disabled {
		return false
	}
	if t.created {
		return true
	}

	conn := t.conn.XUtil.Conn()

	win, err := t.conn.createOverrideRedirectWindow(0, 0, 1, 1, ColorToastBg, xproto.EventMaskExposure)
	if err != nil {
		t.disabled = true
		return false
	}

	font, err := xproto.NewFontId(conn)
	if err != nil {
		xproto.DestroyWindow(conn, win)
		t.disabled = true
		return false
	}

	opened := false
	for _, name := range []string{"fixed", "9x15", "8x13", "6x13"} {
		if err := xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			opened = true
			break
		}
	}
	if !opened {
		xproto.DestroyWindow(conn, win)
		t.disabled = true
		return false
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.CloseFont(conn, font)
		xproto.DestroyWindow(conn, win)
		t.disabled = true
		return false
	}
	err = xproto.CreateGCChecked(
		conn,
		gc,
		xproto.Drawable(win),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{ColorToastText, ColorToastBg, uint32(font), 0},
	).Check()
	if err != nil {
		xproto.CloseFont(conn, font)
		xproto.DestroyWindow(conn, win)
		t.disabled = true
		return false
	}

	t.window = win
	t.gc = gc
	t.font = font
	t.created = true

	// Exposures come from the event loop; redraw the current text.
	xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count != 0 {
			return
		}
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.created && t.mapped {
			t.draw()
		}
	}).Connect(t.conn.XUtil, win)
	return true
}

func (t *Toast) destroy() {
	if !t.created {
		return
	}
	conn := t.conn.XUtil.Conn()
	xevent.Detach(t.conn.XUtil, t.window)
	xproto.FreeGC(conn, t.gc)
	xproto.CloseFont(conn, t.font)
	xproto.DestroyWindow(conn, t.window)
	t.window = 0
	t.gc = 0
	t.font = 0
	t.created = false
	t.mapped = false
}

func toastDimensions(text string) (width, height int) {
	width = max(len(text)*toastCharWidth+2*toastPaddingX, toastMinWidth)
	height = toastLineHeight + 2*toastPaddingY
	return width, height
}

// toastPosition centers the toast horizontally, a sixth of the way up from
// the bottom of the monitor, clamped inside it.
func toastPosition(m Monitor, width, height int) (int, int) {
	x := m.X + (m.Width-width)/2
	y := m.Y + m.Height - m.Height/6 - height
	x = max(m.X, min(x, m.X+m.Width-width))
	y = max(m.Y, min(y, m.Y+m.Height-height))
	return x, y
}
