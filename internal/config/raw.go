package config

// RawConfig mirrors Config with pointer fields so that keys missing from the
// file fall back to DefaultConfig().
type RawConfig struct {
	Enabled                  *bool               `yaml:"enabled"`
	RotationAware            *bool               `yaml:"rotation_aware"`
	Haptics                  *bool               `yaml:"haptics"`
	Readout                  *ReadoutMode        `yaml:"readout"`
	ReadoutTimeoutMS         *int                `yaml:"readout_timeout_ms"`
	LogLevel                 *string             `yaml:"log_level"`
	LogFormat                *string             `yaml:"log_format"`
	ReconcileIntervalSeconds *int                `yaml:"reconcile_interval_seconds"`
	Backlight                *RawBacklightConfig `yaml:"backlight"`
	Audio                    *RawAudioConfig     `yaml:"audio"`
	Edges                    *[]RawEdgeConfig    `yaml:"edges"`
}

type RawBacklightConfig struct {
	Device *string `yaml:"device"`
}

type RawAudioConfig struct {
	MediaSink *string `yaml:"media_sink"`
	RingSink  *string `yaml:"ring_sink"`
	AlarmSink *string `yaml:"alarm_sink"`
}

type RawEdgeConfig struct {
	Activated   *bool    `yaml:"activated"`
	Edge        *Edge    `yaml:"edge"`
	Width       *int     `yaml:"width"`
	Color       *Color   `yaml:"color"`
	Alpha       *float64 `yaml:"alpha"`
	Setting     *Setting `yaml:"setting"`
	Sensitivity *int     `yaml:"sensitivity"`
}

// BuildEffectiveConfig applies raw values over the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Enabled != nil {
		cfg.Enabled = *raw.Enabled
	}
	if raw.RotationAware != nil {
		cfg.RotationAware = *raw.RotationAware
	}
	if raw.Haptics != nil {
		cfg.Haptics = *raw.Haptics
	}
	if raw.Readout != nil {
		cfg.Readout = *raw.Readout
	}
	if raw.ReadoutTimeoutMS != nil {
		cfg.ReadoutTimeoutMS = *raw.ReadoutTimeoutMS
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = *raw.LogFormat
	}
	if raw.ReconcileIntervalSeconds != nil {
		cfg.ReconcileIntervalSeconds = *raw.ReconcileIntervalSeconds
	}
	if b := raw.Backlight; b != nil {
		if b.Device != nil {
			cfg.Backlight.Device = *b.Device
		}
	}
	if a := raw.Audio; a != nil {
		if a.MediaSink != nil {
			cfg.Audio.MediaSink = *a.MediaSink
		}
		if a.RingSink != nil {
			cfg.Audio.RingSink = *a.RingSink
		}
		if a.AlarmSink != nil {
			cfg.Audio.AlarmSink = *a.AlarmSink
		}
	}

	// A present edges list replaces the default list as a whole.
	if raw.Edges != nil {
		edges := make([]EdgeConfig, 0, len(*raw.Edges))
		for _, re := range *raw.Edges {
			edges = append(edges, re.effective())
		}
		cfg.Edges = edges
	}

	return cfg
}

func (re RawEdgeConfig) effective() EdgeConfig {
	var edge Edge
	if re.Edge != nil {
		edge = *re.Edge
	}
	e := DefaultEdge(edge)
	if re.Activated != nil {
		e.Activated = *re.Activated
	}
	if re.Width != nil {
		e.Width = *re.Width
	}
	if re.Color != nil {
		e.Color = *re.Color
	}
	if re.Alpha != nil {
		e.Alpha = *re.Alpha
	}
	if re.Setting != nil {
		e.Setting = *re.Setting
	}
	if re.Sensitivity != nil {
		e.Sensitivity = *re.Sensitivity
	}
	return e
}
