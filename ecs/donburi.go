package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/rampart"
)

// EffectEvent asks the presentation layer for a transient effect that no
// entity disappearance implies (tower hits, core alarms, wave starts).
type EffectEvent struct {
	Kind      rampart.EffectKind
	Origin    rampart.Vec2
	Color     rampart.Color
	Intensity float64
	Critical  bool
}

// EffectEventType is the Donburi event type systems publish EffectEvents
// on.
var EffectEventType = events.NewEventType[EffectEvent]()

// Bridge connects a Donburi world to a scene: Sync extracts a frame,
// reconciles it, and delivers queued EffectEvents to the scheduler.
type Bridge struct {
	world   donburi.World
	scene   *rampart.Scene
	extract *Extractor

	// Skipped counts effect events the scheduler dropped for load.
	Skipped int
}

// NewBridge subscribes to EffectEventType on world and returns a bridge.
func NewBridge(world donburi.World, scene *rampart.Scene) *Bridge {
	b := &Bridge{world: world, scene: scene, extract: NewExtractor()}
	EffectEventType.Subscribe(world, b.onEffect)
	return b
}

// Sync reconciles the world's current state into the scene and processes
// pending effect events.
func (b *Bridge) Sync(now float64) [rampart.NumCategories]rampart.ReconcileStats {
	stats := b.scene.Sync(b.extract.Extract(b.world, now))
	EffectEventType.ProcessEvents(b.world)
	return stats
}

func (b *Bridge) onEffect(_ donburi.World, e EffectEvent) {
	ok := b.scene.Effects().Spawn(rampart.EffectRequest{
		Kind:      e.Kind,
		Origin:    e.Origin,
		Color:     e.Color,
		Intensity: e.Intensity,
		Critical:  e.Critical,
	})
	if !ok {
		b.Skipped++
	}
}
