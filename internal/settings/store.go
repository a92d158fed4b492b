// Package settings reads and writes the system values that edges control.
package settings

import (
	"errors"
	"fmt"

	"github.com/1broseidon/edgeseek/internal/config"
)

// ErrUnavailable means the setting does not exist or cannot be accessed on
// this machine.
var ErrUnavailable = errors.New("setting unavailable")

// Store reads and writes one system value. Writes are synchronous and never
// retried.
type Store interface {
	Read() (int, error)
	Write(value int) error
}

// Stores maps each setting to its backing store.
type Stores map[config.Setting]Store

// Get returns the store for s, or an unavailable store.
func (s Stores) Get(setting config.Setting) Store {
	if st, ok := s[setting]; ok && st != nil {
		return st
	}
	return Unavailable{Setting: setting}
}

// Unavailable is a store for a setting this machine does not have.
type Unavailable struct {
	Setting config.Setting
}

func (u Unavailable) Read() (int, error) {
	return 0, fmt.Errorf("%s: %w", u.Setting, ErrUnavailable)
}

func (u Unavailable) Write(int) error {
	return fmt.Errorf("%s: %w", u.Setting, ErrUnavailable)
}

// NewStores builds the stores described by cfg. Settings whose backend is
// missing map to Unavailable. All volume stores share one pulse client.
func NewStores(cfg *config.Config, client SinkClient) Stores {
	if client == nil {
		client = &PulseClient{}
	}
	stores := Stores{
		config.SettingBrightness: NewBacklight(cfg.Backlight.Device, nil, nil),
	}
	volumes := map[config.Setting]string{
		config.SettingMediaVolume: cfg.Audio.MediaSink,
		config.SettingRingVolume:  cfg.Audio.RingSink,
		config.SettingAlarmVolume: cfg.Audio.AlarmSink,
	}
	for setting, sink := range volumes {
		if sink == "" {
			stores[setting] = Unavailable{Setting: setting}
			continue
		}
		stores[setting] = NewPulseVolume(sink, client)
	}
	return stores
}
