package settings

import (
	"fmt"
	"math"
	"sync"

	"github.com/linuxdeepin/go-lib/pulse"
)

// VolumeMax is the top of the volume range edges drag within. A sink may
// sit above it after another mixer amplified it.
const VolumeMax = 100

// DefaultSink names whatever sink the server currently uses by default.
const DefaultSink = "@DEFAULT_SINK@"

// SinkClient reads and sets the average volume of a named sink, 1.0 being
// 100%.
type SinkClient interface {
	SinkVolume(name string) (float64, error)
	SetSinkVolume(name string, avg float64) error
}

// PulseVolume controls one PulseAudio (or PipeWire-pulse) sink.
type PulseVolume struct {
	sink   string
	client SinkClient
}

var _ Store = (*PulseVolume)(nil)

// NewPulseVolume creates a volume store; a nil client talks to the session's
// PulseAudio server.
func NewPulseVolume(sink string, client SinkClient) *PulseVolume {
	if client == nil {
		client = &PulseClient{}
	}
	return &PulseVolume{sink: sink, client: client}
}

// Read returns the volume as a percentage. Over-amplified sinks report more
// than VolumeMax.
func (p *PulseVolume) Read() (int, error) {
	avg, err := p.client.SinkVolume(p.sink)
	if err != nil {
		return 0, err
	}
	return max(int(math.Round(avg*100)), 0), nil
}

// Write sets the volume, clamped to what the sound settings UI allows.
func (p *PulseVolume) Write(value int) error {
	top := int(math.Round(pulse.VolumeUIMax * 100))
	value = min(max(value, 0), top)
	return p.client.SetSinkVolume(p.sink, float64(value)/100)
}

// PulseClient is a SinkClient over the shared go-lib pulse context.
type PulseClient struct {
	once sync.Once
	ctx  *pulse.Context
}

var _ SinkClient = (*PulseClient)(nil)

func (c *PulseClient) context() (*pulse.Context, error) {
	c.once.Do(func() {
		c.ctx = pulse.GetContextForced()
	})
	if c.ctx == nil {
		return nil, fmt.Errorf("pulse context: %w", ErrUnavailable)
	}
	return c.ctx, nil
}

func (c *PulseClient) lookup(name string) (*pulse.Context, *pulse.Sink, error) {
	ctx, err := c.context()
	if err != nil {
		return nil, nil, err
	}
	if name == DefaultSink {
		name = ctx.GetDefaultSink()
	}
	for _, s := range ctx.GetSinkList() {
		if s.Name == name {
			return ctx, s, nil
		}
	}
	return nil, nil, fmt.Errorf("sink %s: %w", name, ErrUnavailable)
}

func (c *PulseClient) SinkVolume(name string) (float64, error) {
	_, s, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	return s.Volume.Avg(), nil
}

func (c *PulseClient) SetSinkVolume(name string, avg float64) error {
	ctx, s, err := c.lookup(name)
	if err != nil {
		return err
	}
	ctx.SetSinkVolumeByIndex(s.Index, s.Volume.SetAvg(avg))
	return nil
}
