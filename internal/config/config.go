package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Edge names a screen side. The same type is used for the configured
// (logical) side and for the resolved (physical) side.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeRight  Edge = "right"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
)

// Edges lists every edge in clockwise order starting at the top.
var Edges = []Edge{EdgeTop, EdgeRight, EdgeBottom, EdgeLeft}

// Index returns the clockwise position of the edge (top=0 … left=3), or -1.
func (e Edge) Index() int {
	for i, edge := range Edges {
		if edge == e {
			return i
		}
	}
	return -1
}

// Horizontal reports whether a strip on this edge runs left to right.
func (e Edge) Horizontal() bool {
	return e == EdgeTop || e == EdgeBottom
}

func (e Edge) Valid() bool {
	return e.Index() >= 0
}

// Setting identifies the system value an edge controls.
type Setting string

const (
	SettingBrightness  Setting = "brightness"
	SettingMediaVolume Setting = "media_volume"
	SettingRingVolume  Setting = "ring_volume"
	SettingAlarmVolume Setting = "alarm_volume"
)

func (s Setting) Valid() bool {
	switch s {
	case SettingBrightness, SettingMediaVolume, SettingRingVolume, SettingAlarmVolume:
		return true
	default:
		return false
	}
}

// ReadoutMode selects how adjusted values are shown to the user.
type ReadoutMode string

const (
	ReadoutNotification ReadoutMode = "notification" // Desktop notification, replaced in place.
	ReadoutOSD          ReadoutMode = "osd"          // Small override-redirect window.
	ReadoutNone         ReadoutMode = "none"
)

// EdgeConfig holds the settings of one strip.
type EdgeConfig struct {
	Activated   bool    `yaml:"activated"`
	Edge        Edge    `yaml:"edge"`
	Width       int     `yaml:"width"`
	Color       Color   `yaml:"color"`
	Alpha       float64 `yaml:"alpha"` // 0-1, applied as window opacity
	Setting     Setting `yaml:"setting"`
	Sensitivity int     `yaml:"sensitivity"` // 0-100
}

// BacklightConfig selects the backlight device used for brightness.
type BacklightConfig struct {
	Device string `yaml:"device"`
}

// AudioConfig maps volume settings to PulseAudio sinks.
// An empty sink name marks the setting as unavailable on this machine.
type AudioConfig struct {
	MediaSink string `yaml:"media_sink"`
	RingSink  string `yaml:"ring_sink"`
	AlarmSink string `yaml:"alarm_sink"`
}

// Config holds the daemon configuration.
type Config struct {
	Enabled                  bool            `yaml:"enabled"`
	RotationAware            bool            `yaml:"rotation_aware"`
	Haptics                  bool            `yaml:"haptics"`
	Readout                  ReadoutMode     `yaml:"readout"`
	ReadoutTimeoutMS         int             `yaml:"readout_timeout_ms"`
	LogLevel                 string          `yaml:"log_level"`
	LogFormat                string          `yaml:"log_format"`
	ReconcileIntervalSeconds int             `yaml:"reconcile_interval_seconds"`
	Backlight                BacklightConfig `yaml:"backlight"`
	Audio                    AudioConfig     `yaml:"audio"`
	Edges                    []EdgeConfig    `yaml:"edges"`
}

const (
	DefaultWidth       = 40
	DefaultAlpha       = 0.5
	DefaultSensitivity = 45
	DefaultColor       = "#ff0000"
)

// DefaultEdge returns the settings used for an edge that the config file
// only partially describes.
func DefaultEdge(edge Edge) EdgeConfig {
	return EdgeConfig{
		Activated:   false,
		Edge:        edge,
		Width:       DefaultWidth,
		Color:       MustParseColor(DefaultColor),
		Alpha:       DefaultAlpha,
		Setting:     SettingBrightness,
		Sensitivity: DefaultSensitivity,
	}
}

func DefaultConfig() *Config {
	left := DefaultEdge(EdgeLeft)
	left.Activated = true

	right := DefaultEdge(EdgeRight)
	right.Setting = SettingMediaVolume

	return &Config{
		Enabled:                  true,
		RotationAware:            true,
		Haptics:                  true,
		Readout:                  ReadoutNotification,
		ReadoutTimeoutMS:         1200,
		LogLevel:                 "info",
		LogFormat:                "text",
		ReconcileIntervalSeconds: 5,
		Audio: AudioConfig{
			MediaSink: "@DEFAULT_SINK@",
		},
		Edges: []EdgeConfig{left, right},
	}
}

func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "edgeseek", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "edgeseek", "config.yaml"), nil
}

// Validate checks the effective configuration.
func (c *Config) Validate() error {
	switch c.Readout {
	case ReadoutNotification, ReadoutOSD, ReadoutNone:
	default:
		return &ValidationError{Path: "readout", Err: fmt.Errorf("readout must be one of: notification, osd, none")}
	}
	if c.ReadoutTimeoutMS < 0 {
		return &ValidationError{Path: "readout_timeout_ms", Err: fmt.Errorf("readout_timeout_ms must be >= 0")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: text, json")}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be >= 0")}
	}

	seen := make(map[Edge]int, len(c.Edges))
	for i, e := range c.Edges {
		prefix := fmt.Sprintf("edges.%d", i)
		if !e.Edge.Valid() {
			return &ValidationError{Path: prefix + ".edge", Err: fmt.Errorf("edge must be one of: top, right, bottom, left")}
		}
		if first, dup := seen[e.Edge]; dup {
			return &ValidationError{Path: prefix + ".edge", Err: fmt.Errorf("edge %q already configured by edges.%d", e.Edge, first)}
		}
		seen[e.Edge] = i
		if e.Width <= 0 {
			return &ValidationError{Path: prefix + ".width", Err: fmt.Errorf("width must be > 0")}
		}
		if e.Alpha < 0 || e.Alpha > 1 {
			return &ValidationError{Path: prefix + ".alpha", Err: fmt.Errorf("alpha must be between 0 and 1")}
		}
		if !e.Setting.Valid() {
			return &ValidationError{Path: prefix + ".setting", Err: fmt.Errorf("setting must be one of: brightness, media_volume, ring_volume, alarm_volume")}
		}
		if e.Sensitivity < 0 || e.Sensitivity > 100 {
			return &ValidationError{Path: prefix + ".sensitivity", Err: fmt.Errorf("sensitivity must be between 0 and 100")}
		}
	}
	return nil
}

// Edge returns the record configured for the given logical edge.
func (c *Config) Edge(edge Edge) (EdgeConfig, bool) {
	for _, e := range c.Edges {
		if e.Edge == edge {
			return e, true
		}
	}
	return EdgeConfig{}, false
}
