// Package ecs adapts a [Donburi] simulation world to rampart.
//
// Entities carrying [Identity] and [Transform] are extracted into a
// rampart.Frame each tick; [Vitals], [Appearance], and [Lifetime] are
// optional. Systems request effects that no entity disappearance implies by
// publishing [EffectEvent]s on [EffectEventType].
//
// Usage:
//
//	bridge := ecs.NewBridge(world, scene)
//	// each simulation tick:
//	bridge.Sync(now)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
