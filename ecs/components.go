package ecs

import (
	"github.com/yohamta/donburi"

	"github.com/phanxgames/rampart"
)

// IdentityData names a renderable entity.
type IdentityData struct {
	ID       string
	Category rampart.Category
	Role     string
	Kind     string
}

// TransformData is the entity's placement.
type TransformData struct {
	Position rampart.Vec2
	Rotation float64
	// Target is the link end or the point a hint aims at.
	Target rampart.Vec2
}

// VitalsData carries the state that drives threshold transitions.
type VitalsData struct {
	Health float64 // fraction in [0, 1]
	Phase  int
	Flags  rampart.StatusFlags
}

// AppearanceData overrides look defaults.
type AppearanceData struct {
	Color rampart.Color
	Size  float64
	Alpha float64
}

// LifetimeData bounds simulation-owned particles.
type LifetimeData struct {
	CreatedAt float64
	Duration  float64
}

var (
	Identity   = donburi.NewComponentType[IdentityData]()
	Transform  = donburi.NewComponentType[TransformData]()
	Vitals     = donburi.NewComponentType[VitalsData]()
	Appearance = donburi.NewComponentType[AppearanceData]()
	Lifetime   = donburi.NewComponentType[LifetimeData]()
)

// Spawn creates an entity with the components a snapshot needs. Vitals,
// Appearance, and Lifetime are added only when s sets them.
func Spawn(world donburi.World, s rampart.EntitySnapshot) donburi.Entity {
	comps := []donburi.IComponentType{Identity, Transform}
	vitals := s.Health != 0 || s.Phase != 0 || s.Flags != 0
	appearance := s.Color != (rampart.Color{}) || s.Size != 0 || s.Alpha != 0
	lifetime := s.Lifetime > 0
	if vitals {
		comps = append(comps, Vitals)
	}
	if appearance {
		comps = append(comps, Appearance)
	}
	if lifetime {
		comps = append(comps, Lifetime)
	}

	e := world.Create(comps...)
	entry := world.Entry(e)
	Identity.SetValue(entry, IdentityData{ID: s.ID, Category: s.Category, Role: s.Role, Kind: s.Kind})
	Transform.SetValue(entry, TransformData{Position: s.Position, Rotation: s.Rotation, Target: s.Target})
	if vitals {
		Vitals.SetValue(entry, VitalsData{Health: s.Health, Phase: s.Phase, Flags: s.Flags})
	}
	if appearance {
		Appearance.SetValue(entry, AppearanceData{Color: s.Color, Size: s.Size, Alpha: s.Alpha})
	}
	if lifetime {
		Lifetime.SetValue(entry, LifetimeData{CreatedAt: s.CreatedAt, Duration: s.Lifetime})
	}
	return e
}
