package settings

import (
	"fmt"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"
	displayBl "github.com/linuxdeepin/go-lib/backlight/display"
)

// BrightnessMax is the top of the brightness scale edges work in. Backlight
// devices with other ranges are scaled to 0..BrightnessMax.
const BrightnessMax = 255

// BacklightDevice is one display backlight controller.
type BacklightDevice struct {
	Name string
	Max  int
	Get  func() (int, error)
}

// BacklightLister enumerates the display backlight controllers.
type BacklightLister func() ([]BacklightDevice, error)

// BrightnessSetter writes a raw backlight value.
type BrightnessSetter interface {
	SetBrightness(subsystem, name string, value uint32) error
}

// ListDisplayBacklights returns the controllers go-lib finds under the
// backlight class.
func ListDisplayBacklights() ([]BacklightDevice, error) {
	controllers, err := displayBl.List()
	if err != nil {
		return nil, err
	}
	devices := make([]BacklightDevice, 0, len(controllers))
	for _, c := range controllers {
		devices = append(devices, BacklightDevice{
			Name: c.Name,
			Max:  c.MaxBrightness,
			Get:  c.GetBrightness,
		})
	}
	return devices, nil
}

// Backlight reads a display backlight through go-lib and writes it through
// logind, which lets an unprivileged session change brightness.
type Backlight struct {
	device string
	list   BacklightLister
	setter BrightnessSetter

	mu sync.Mutex
	// Last value written, so that devices with few steps do not swallow
	// small adjustments when scaled back.
	lastRaw   int
	lastValue int
	hasLast   bool
}

var _ Store = (*Backlight)(nil)

// NewBacklight creates a backlight store. An empty device selects the first
// controller; a nil list uses go-lib and a nil setter uses logind on the
// system bus.
func NewBacklight(device string, list BacklightLister, setter BrightnessSetter) *Backlight {
	if list == nil {
		list = ListDisplayBacklights
	}
	if setter == nil {
		setter = &LogindSetter{}
	}
	return &Backlight{device: device, list: list, setter: setter}
}

func (b *Backlight) Read() (int, error) {
	dev, err := b.controller()
	if err != nil {
		return 0, err
	}
	raw, err := dev.Get()
	if err != nil {
		return 0, fmt.Errorf("read backlight %s: %w", dev.Name, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hasLast && raw == b.lastRaw {
		return b.lastValue, nil
	}
	return scale(raw, dev.Max, BrightnessMax), nil
}

func (b *Backlight) Write(value int) error {
	dev, err := b.controller()
	if err != nil {
		return err
	}
	value = min(max(value, 0), BrightnessMax)
	raw := scale(value, BrightnessMax, dev.Max)

	if err := b.setter.SetBrightness("backlight", dev.Name, uint32(raw)); err != nil {
		return fmt.Errorf("set brightness on %s: %w", dev.Name, err)
	}

	b.mu.Lock()
	b.lastRaw, b.lastValue, b.hasLast = raw, value, true
	b.mu.Unlock()
	return nil
}

func (b *Backlight) controller() (BacklightDevice, error) {
	devices, err := b.list()
	if err != nil {
		return BacklightDevice{}, fmt.Errorf("list backlights: %v: %w", err, ErrUnavailable)
	}
	for _, dev := range devices {
		if b.device != "" && dev.Name != b.device {
			continue
		}
		if dev.Max <= 0 {
			return BacklightDevice{}, fmt.Errorf("backlight %s: max brightness is %d: %w", dev.Name, dev.Max, ErrUnavailable)
		}
		return dev, nil
	}
	if b.device != "" {
		return BacklightDevice{}, fmt.Errorf("backlight %s: %w", b.device, ErrUnavailable)
	}
	return BacklightDevice{}, fmt.Errorf("no backlight device: %w", ErrUnavailable)
}

func scale(v, from, to int) int {
	if from <= 0 {
		return 0
	}
	return int(math.Round(float64(v) * float64(to) / float64(from)))
}

const (
	logindService   = "org.freedesktop.login1"
	logindSession   = dbus.ObjectPath("/org/freedesktop/login1/session/auto")
	logindSetBright = "org.freedesktop.login1.Session.SetBrightness"
)

// LogindSetter calls Session.SetBrightness on the caller's logind session.
type LogindSetter struct {
	once sync.Once
	conn *dbus.Conn
	err  error
}

func (l *LogindSetter) SetBrightness(subsystem, name string, value uint32) error {
	l.once.Do(func() {
		l.conn, l.err = dbus.SystemBus()
	})
	if l.err != nil {
		return fmt.Errorf("system bus: %w", l.err)
	}
	obj := l.conn.Object(logindService, logindSession)
	return obj.Call(logindSetBright, 0, subsystem, name, value).Err
}
