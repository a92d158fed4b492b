package gesture

import (
	"github.com/1broseidon/edgeseek/internal/config"
	"github.com/1broseidon/edgeseek/internal/settings"
)

// BrightnessController adjusts backlight brightness on a 0-255 scale.
type BrightnessController struct{ drag }

func NewBrightnessController(physical config.Edge, cfg *config.EdgeConfig, env Env) *BrightnessController {
	return &BrightnessController{newDrag(target{
		setting: config.SettingBrightness,
		label:   "Brightness",
		min:     0,
		max:     settings.BrightnessMax,
	}, physical, cfg, env)}
}

// MediaVolumeController adjusts the media sink volume in percent.
type MediaVolumeController struct{ drag }

func NewMediaVolumeController(physical config.Edge, cfg *config.EdgeConfig, env Env) *MediaVolumeController {
	return &MediaVolumeController{newDrag(target{
		setting: config.SettingMediaVolume,
		label:   "Media volume",
		min:     0,
		max:     settings.VolumeMax,
	}, physical, cfg, env)}
}

// RingVolumeController adjusts the ring sink volume in percent.
type RingVolumeController struct{ drag }

func NewRingVolumeController(physical config.Edge, cfg *config.EdgeConfig, env Env) *RingVolumeController {
	return &RingVolumeController{newDrag(target{
		setting: config.SettingRingVolume,
		label:   "Ring volume",
		min:     0,
		max:     settings.VolumeMax,
	}, physical, cfg, env)}
}

// AlarmVolumeController adjusts the alarm sink volume in percent.
type AlarmVolumeController struct{ drag }

func NewAlarmVolumeController(physical config.Edge, cfg *config.EdgeConfig, env Env) *AlarmVolumeController {
	return &AlarmVolumeController{newDrag(target{
		setting: config.SettingAlarmVolume,
		label:   "Alarm volume",
		min:     0,
		max:     settings.VolumeMax,
	}, physical, cfg, env)}
}
