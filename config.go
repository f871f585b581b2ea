package rampart

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the scene configuration. Zero values in a parsed file keep the
// defaults; see DefaultConfig.
type Config struct {
	Viewport    ViewportConfig    `toml:"viewport"`
	Camera      CameraConfig      `toml:"camera"`
	Pool        PoolConfig        `toml:"pool"`
	LOD         LODConfig         `toml:"lod"`
	Sectors     SectorConfig      `toml:"sectors"`
	Effects     EffectsConfig     `toml:"effects"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Logging     LoggingConfig     `toml:"logging"`

	// Set by LoadConfig from Effects.Presets, or by WithPresets.
	presets  *EffectPresets
	policies *[NumCategories]CategoryPolicy
}

type ViewportConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

func (v ViewportConfig) rect() Rect {
	return Rect{Width: v.Width, Height: v.Height}
}

type CameraConfig struct {
	MinZoom float64 `toml:"min_zoom"`
	MaxZoom float64 `toml:"max_zoom"`
}

type PoolConfig struct {
	MaxPerType int `toml:"max_per_type"`
}

type EffectsConfig struct {
	MaxPerCall int `toml:"max_per_call"`
	MaxActive  int `toml:"max_active"`
	NodeBudget int `toml:"node_budget"`
	// Presets is an optional YAML preset catalog, relative to the config
	// file.
	Presets string `toml:"presets"`
}

// Policy returns the scheduler load policy.
func (e EffectsConfig) Policy() EffectPolicy {
	return EffectPolicy{MaxPerCall: e.MaxPerCall, MaxActive: e.MaxActive, NodeBudget: e.NodeBudget}
}

type DiagnosticsConfig struct {
	// Interval is the sample period in seconds.
	Interval float64 `toml:"interval"`
	Debug    bool    `toml:"debug"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	p := DefaultEffectPolicy()
	return Config{
		Viewport: ViewportConfig{Width: 1280, Height: 720},
		Camera:   CameraConfig{MinZoom: 0.25, MaxZoom: 4},
		Pool:     PoolConfig{MaxPerType: DefaultMaxPerType},
		LOD:      DefaultLODConfig(),
		Sectors:  DefaultSectorConfig(),
		Effects: EffectsConfig{
			MaxPerCall: p.MaxPerCall,
			MaxActive:  p.MaxActive,
			NodeBudget: p.NodeBudget,
		},
		Diagnostics: DiagnosticsConfig{Interval: defaultSampleInterval},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ParseConfig decodes TOML over the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config: %w", err)
	}
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		return DefaultConfig(), fmt.Errorf("parse config: viewport must be positive, got %gx%g",
			cfg.Viewport.Width, cfg.Viewport.Height)
	}
	return cfg, nil
}

// LoadConfig reads a TOML file and, when it names one, the effect preset
// catalog next to it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Effects.Presets != "" {
		pp := cfg.Effects.Presets
		if !filepath.IsAbs(pp) {
			pp = filepath.Join(filepath.Dir(path), pp)
		}
		presets, err := LoadEffectPresets(pp)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg.presets = &presets
	}
	return cfg, nil
}
