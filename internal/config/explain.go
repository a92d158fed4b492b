package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and where
// it came from.
//
// Supported paths include:
//
//	enabled
//	readout
//	backlight.device
//	audio.media_sink
//	edges
//	edges.0.width
//	edges.left.setting
//
// An edge may be addressed by its list index or by its side name.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	canon, err := canonicalExplainPath(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	value, err := lookupValue(res.Config, canon)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[canon]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// canonicalExplainPath rewrites edges.<side> to edges.<index>, which is how
// sources are keyed.
func canonicalExplainPath(cfg *Config, path string) (string, error) {
	parts := strings.Split(path, ".")
	if parts[0] != "edges" || len(parts) < 2 {
		return path, nil
	}
	if _, err := strconv.Atoi(parts[1]); err == nil {
		return path, nil
	}
	side := Edge(parts[1])
	for i, e := range cfg.Edges {
		if e.Edge == side {
			parts[1] = strconv.Itoa(i)
			return strings.Join(parts, "."), nil
		}
	}
	return "", fmt.Errorf("no edge configured for %q", parts[1])
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	unknown := fmt.Errorf("unknown path: %s", path)

	if len(parts) == 1 {
		switch parts[0] {
		case "enabled":
			return cfg.Enabled, nil
		case "rotation_aware":
			return cfg.RotationAware, nil
		case "haptics":
			return cfg.Haptics, nil
		case "readout":
			return cfg.Readout, nil
		case "readout_timeout_ms":
			return cfg.ReadoutTimeoutMS, nil
		case "log_level":
			return cfg.LogLevel, nil
		case "log_format":
			return cfg.LogFormat, nil
		case "reconcile_interval_seconds":
			return cfg.ReconcileIntervalSeconds, nil
		case "backlight":
			return cfg.Backlight, nil
		case "audio":
			return cfg.Audio, nil
		case "edges":
			return cfg.Edges, nil
		}
		return nil, unknown
	}

	switch parts[0] {
	case "backlight":
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "device":
			return cfg.Backlight.Device, nil
		}
	case "audio":
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "media_sink":
			return cfg.Audio.MediaSink, nil
		case "ring_sink":
			return cfg.Audio.RingSink, nil
		case "alarm_sink":
			return cfg.Audio.AlarmSink, nil
		}
	case "edges":
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= len(cfg.Edges) {
			return nil, fmt.Errorf("unknown edges entry %q", parts[1])
		}
		e := cfg.Edges[i]
		if len(parts) == 2 {
			return e, nil
		}
		if len(parts) != 3 {
			return nil, unknown
		}
		switch parts[2] {
		case "activated":
			return e.Activated, nil
		case "edge":
			return e.Edge, nil
		case "width":
			return e.Width, nil
		case "color":
			return e.Color, nil
		case "alpha":
			return e.Alpha, nil
		case "setting":
			return e.Setting, nil
		case "sensitivity":
			return e.Sensitivity, nil
		}
	}
	return nil, unknown
}
