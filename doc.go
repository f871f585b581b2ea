// Package rampart keeps a retained 2D scene in step with a tower-defense
// simulation. It is the presentation core: it reconciles per-frame entity
// snapshots against pooled drawable handles, decides what is worth drawing,
// and spawns short-lived effects on lifecycle edges.
//
// The package does not draw. The render package draws a Scene with
// [Ebitengine]; the ecs package builds Frames from a [Donburi] world.
//
// # Quick start
//
//	cfg := rampart.DefaultConfig()
//	scene := rampart.NewScene(cfg)
//
//	var frame rampart.Frame
//	frame.Add(rampart.EntitySnapshot{
//		ID: "17", Category: rampart.CategoryEnemy, Kind: "fast",
//		Position: rampart.Vec2{X: 120, Y: 80}, Health: 1,
//	})
//	scene.Sync(&frame)   // once per simulation tick
//	scene.Update(dt)     // once per rendered frame
//
// # Reconciliation
//
// Each [Category] has a [Reconciler] that owns a displayed set keyed by
// "{role}_{id}". A pass creates handles for new keys, updates existing ones
// in place, revives keys that reappear mid-exit, and only then retires keys
// that vanished. Retirement cancels every animation on the handle and runs
// exactly one exit chosen by the category's [CategoryPolicy]: a burst
// effect, a fade, or nothing. Categories are reconciled in the fixed order
// of [Categories].
//
// Handles come from a [Pool] of type-keyed LIFO free lists. A released
// handle is detached and reset; once a free list is full further releases
// are discarded.
//
// # Visibility
//
// After animations advance, the [LODController] classifies every displayed
// handle against the camera's padded visible rect: full, paused, or hidden.
// Zoom thresholds show fine detail (built lazily, once per handle) and glow
// halos. A pass whose decisions match the previous one mutates nothing.
// [SectorVisibility] pauses ambient handles by grid cell on a slower
// interval.
//
// # Effects
//
// The [Scheduler] builds self-terminating bursts from [EffectPresets].
// Under load it drops non-critical effects; critical kinds (phase changes,
// destroyed mechanics, core breaches) always spawn.
//
// # Threading
//
// Nothing here is safe for concurrent use. Call Sync and Update from the
// frame loop.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package rampart
