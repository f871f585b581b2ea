package rampart

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EffectKind identifies a transient effect preset.
type EffectKind uint8

const (
	EffectSpawn      EffectKind = iota // entity or mechanic appeared
	EffectDeath                        // generic enemy death sparkle
	EffectPhase                        // boss phase transition
	EffectDestroyed                    // boss mechanic destroyed
	EffectCoreBreach                   // enemy reached the core
	EffectFlash                        // short ring flash
	numEffectKinds
)

var effectKindNames = [numEffectKinds]string{
	EffectSpawn:      "spawn",
	EffectDeath:      "death",
	EffectPhase:      "phase",
	EffectDestroyed:  "destroyed",
	EffectCoreBreach: "core_breach",
	EffectFlash:      "flash",
}

func (k EffectKind) String() string {
	if k < numEffectKinds {
		return effectKindNames[k]
	}
	return "unknown"
}

// ParseEffectKind converts a preset name to an EffectKind.
func ParseEffectKind(s string) (EffectKind, bool) {
	for i, name := range effectKindNames {
		if name == s {
			return EffectKind(i), true
		}
	}
	return 0, false
}

// EffectPreset parameterizes one effect kind.
type EffectPreset struct {
	// Count is the fragment count at intensity 1.
	Count int `yaml:"count"`
	// Duration is the effect lifetime in seconds.
	Duration float64 `yaml:"duration"`
	// Speed is the fragment launch speed in world units per second.
	Speed Range `yaml:"speed"`
	// Size is the fragment radius.
	Size Range `yaml:"size"`
	// Shape names the fragment shape; empty uses the source entity's shape.
	Shape string `yaml:"shape"`
	// Ring adds an expanding ring.
	Ring bool `yaml:"ring"`
	// Critical effects are never dropped under load.
	Critical bool `yaml:"critical"`
	// Shake requests a camera shake of this intensity; zero requests none.
	Shake float64 `yaml:"shake"`
}

// EffectPresets holds one preset per kind.
type EffectPresets [numEffectKinds]EffectPreset

// DefaultEffectPresets returns the built-in presets.
func DefaultEffectPresets() EffectPresets {
	return EffectPresets{
		EffectSpawn: {
			Count: 6, Duration: 0.4,
			Speed: Range{20, 60}, Size: Range{1.5, 3},
			Ring: true,
		},
		EffectDeath: {
			Count: 10, Duration: 0.5,
			Speed: Range{40, 120}, Size: Range{1.5, 3.5},
		},
		EffectPhase: {
			Count: 16, Duration: 0.8,
			Speed: Range{60, 160}, Size: Range{2, 4},
			Ring: true, Critical: true, Shake: 4,
		},
		EffectDestroyed: {
			Count: 14, Duration: 0.7,
			Speed: Range{50, 150}, Size: Range{2, 4},
			Shape: "hexagon", Ring: true, Critical: true, Shake: 3,
		},
		EffectCoreBreach: {
			Count: 12, Duration: 0.9,
			Speed: Range{30, 90}, Size: Range{2, 5},
			Shape: "square", Ring: true, Critical: true, Shake: 6,
		},
		EffectFlash: {
			Duration: 0.25, Ring: true,
		},
	}
}

type presetFile struct {
	Effects map[string]EffectPreset `yaml:"effects"`
}

// ParseEffectPresets decodes a YAML preset catalog. Kinds missing from the
// catalog keep their built-in preset.
//
//	effects:
//	  death:
//	    count: 12
//	    duration: 0.5
//	    speed: {min: 40, max: 120}
func ParseEffectPresets(data []byte) (EffectPresets, error) {
	presets := DefaultEffectPresets()
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return presets, fmt.Errorf("parse effect presets: %w", err)
	}
	for name, p := range file.Effects {
		kind, ok := ParseEffectKind(name)
		if !ok {
			return presets, fmt.Errorf("parse effect presets: unknown effect %q", name)
		}
		if p.Count < 0 || p.Duration < 0 {
			return presets, fmt.Errorf("parse effect presets: %s: negative count or duration", name)
		}
		presets[kind] = p
	}
	return presets, nil
}

// LoadEffectPresets reads and parses a YAML preset catalog.
func LoadEffectPresets(path string) (EffectPresets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultEffectPresets(), fmt.Errorf("read effect presets %s: %w", path, err)
	}
	return ParseEffectPresets(data)
}
