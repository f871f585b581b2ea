package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/phanxgames/rampart"
)

var renderables = donburi.NewQuery(filter.Contains(Identity, Transform))

// Extractor builds one rampart.Frame per tick from a Donburi world. The
// frame is reused between calls, so callers must not keep it past the next
// Extract.
type Extractor struct {
	frame rampart.Frame
	tick  uint64
}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract snapshots every entity with Identity and Transform. Entities
// without Vitals are reported at full health.
func (x *Extractor) Extract(world donburi.World, now float64) *rampart.Frame {
	x.frame.Reset()
	x.tick++
	x.frame.Tick = x.tick
	x.frame.Time = now

	renderables.Each(world, func(entry *donburi.Entry) {
		id := Identity.Get(entry)
		tr := Transform.Get(entry)
		s := rampart.EntitySnapshot{
			ID:       id.ID,
			Category: id.Category,
			Role:     id.Role,
			Kind:     id.Kind,
			Position: tr.Position,
			Rotation: tr.Rotation,
			Target:   tr.Target,
			Health:   1,
		}
		if entry.HasComponent(Vitals) {
			v := Vitals.Get(entry)
			s.Health, s.Phase, s.Flags = v.Health, v.Phase, v.Flags
		}
		if entry.HasComponent(Appearance) {
			a := Appearance.Get(entry)
			s.Color, s.Size, s.Alpha = a.Color, a.Size, a.Alpha
		}
		if entry.HasComponent(Lifetime) {
			l := Lifetime.Get(entry)
			s.CreatedAt, s.Lifetime = l.CreatedAt, l.Duration
		}
		x.frame.Add(s)
	})
	return &x.frame
}
