package rampart

import (
	"math"

	"go.uber.org/zap"
)

// ExitStyle selects how a displayed entity leaves the scene.
type ExitStyle uint8

const (
	ExitNone  ExitStyle = iota // release immediately
	ExitFade                   // fade out, release when the fade completes
	ExitBurst                  // transient effect at the last position, release immediately
)

// CategoryPolicy configures the lifecycle visuals of one category.
type CategoryPolicy struct {
	Exit         ExitStyle
	ExitDuration float64
	// ExitEffect is the effect kind used by ExitBurst.
	ExitEffect EffectKind
	// Spawn is played on creation when its Duration is positive.
	Spawn Animation
	// SpawnEffect emits an EffectSpawn edge on creation.
	SpawnEffect bool
}

// DefaultPolicies returns the lifecycle policy of every category.
func DefaultPolicies() [NumCategories]CategoryPolicy {
	return [NumCategories]CategoryPolicy{
		CategoryEnemy: {
			Exit:       ExitBurst,
			ExitEffect: EffectDeath,
			Spawn:      Animation{Field: FieldScale, From: 0, To: 1, Duration: 0.3, Ease: EaseOutBack},
		},
		CategoryProjectile: {
			Exit: ExitNone,
		},
		CategoryPickup: {
			Exit:         ExitFade,
			ExitDuration: 0.25,
			Spawn:        Animation{Field: FieldScale, From: 0, To: 1, Duration: 0.2, Ease: EaseOutQuad},
		},
		CategoryParticle: {
			Exit:         ExitFade,
			ExitDuration: 0.15,
		},
		CategoryBossMechanic: {
			Exit:        ExitBurst,
			ExitEffect:  EffectDestroyed,
			Spawn:       Animation{Field: FieldScale, From: 0, To: 1, Duration: 0.4, Ease: EaseOutBack},
			SpawnEffect: true,
		},
	}
}

// ReconcileStats counts what one or more passes did.
type ReconcileStats struct {
	Created  int
	Updated  int
	Revived  int
	Retired  int
	PoolHits int
	// Transitions counts threshold crossings that started a one-time
	// visual transition.
	Transitions int
	// Invalid counts snapshots dropped for an empty ID and duplicates
	// collapsed within one pass.
	Invalid    int
	Duplicates int
}

func (s *ReconcileStats) add(o ReconcileStats) {
	s.Created += o.Created
	s.Updated += o.Updated
	s.Revived += o.Revived
	s.Retired += o.Retired
	s.PoolHits += o.PoolHits
	s.Transitions += o.Transitions
	s.Invalid += o.Invalid
	s.Duplicates += o.Duplicates
}

// entry is one displayed-set record.
type entry struct {
	id       HandleID
	typeKey  string
	role     string
	state    visualState
	retiring bool
}

// Reconciler diffs the desired set of one category against what is
// displayed, creating, updating, and retiring handles.
type Reconciler struct {
	category Category
	scene    *Scene
	look     Look
	policy   CategoryPolicy
	layer    HandleID

	displayed map[string]*entry
	desired   map[string]int
	order     []string
	total     ReconcileStats
}

func newReconciler(s *Scene, c Category, look Look, policy CategoryPolicy, layer *Handle) *Reconciler {
	return &Reconciler{
		category:  c,
		scene:     s,
		look:      look,
		policy:    policy,
		layer:     layer.id,
		displayed: make(map[string]*entry, 128),
		desired:   make(map[string]int, 128),
	}
}

// Category returns the reconciled category.
func (r *Reconciler) Category() Category {
	return r.category
}

// Len returns the size of the displayed set, retiring entries included.
func (r *Reconciler) Len() int {
	return len(r.displayed)
}

// Lookup returns the handle displayed under key.
func (r *Reconciler) Lookup(key string) (*Handle, bool) {
	e, ok := r.displayed[key]
	if !ok {
		return nil, false
	}
	h := r.scene.arena.Get(e.id)
	return h, h != nil
}

// Retiring reports whether key is mid-exit.
func (r *Reconciler) Retiring(key string) bool {
	e, ok := r.displayed[key]
	return ok && e.retiring
}

// Keys returns the displayed keys in unspecified order.
func (r *Reconciler) Keys() []string {
	keys := make([]string, 0, len(r.displayed))
	for k := range r.displayed {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns the counters accumulated over every pass.
func (r *Reconciler) Stats() ReconcileStats {
	return r.total
}

// Reconcile runs one pass against snaps. All creates and updates happen
// before any retirement, so an id that vanishes and reappears within the
// same pass stays a continuous update.
func (r *Reconciler) Reconcile(snaps []EntitySnapshot, now float64) ReconcileStats {
	var st ReconcileStats

	clear(r.desired)
	r.order = r.order[:0]
	for i := range snaps {
		s := &snaps[i]
		if s.ID == "" {
			st.Invalid++
			continue
		}
		key := s.Key()
		if _, dup := r.desired[key]; dup {
			st.Duplicates++
		} else {
			r.order = append(r.order, key)
		}
		r.desired[key] = i
	}

	for _, key := range r.order {
		s := &snaps[r.desired[key]]
		e := r.displayed[key]
		switch {
		case e == nil:
			r.create(key, s, now, &st)
		case e.retiring:
			r.revive(key, e, s, now, &st)
		default:
			r.update(key, e, s, now, &st)
		}
	}

	for key, e := range r.displayed {
		if _, ok := r.desired[key]; ok || e.retiring {
			continue
		}
		r.retire(key, e, &st)
	}

	r.total.add(st)
	return st
}

func (r *Reconciler) create(key string, s *EntitySnapshot, now float64, st *ReconcileStats) {
	sc := r.scene
	hits := sc.pool.stats.Hits
	typeKey := r.look.TypeKey(s)
	h := sc.pool.Acquire(typeKey, func(a *Arena) *Handle {
		return r.look.Build(a, s)
	})
	if sc.pool.stats.Hits > hits {
		st.PoolHits++
	}
	if layer := sc.arena.Get(r.layer); layer != nil {
		sc.arena.AddChild(layer, h)
	}
	h.owner = owner{category: r.category, key: key, set: true}

	e := &entry{id: h.id, typeKey: typeKey, role: s.Role}
	e.state = r.sanitize(s, nil, now)
	r.apply(h, e, nil, st)
	r.displayed[key] = e

	// Links span two points; scaling them in from one end reads as a glitch.
	if r.policy.Spawn.Duration > 0 && s.Role != RoleLink {
		sc.animator.Play(h, AnimSpawn, r.policy.Spawn)
	}
	if r.policy.SpawnEffect || e.state.flags.Has(FlagBoss) {
		sc.effects.Spawn(EffectRequest{
			Kind:     EffectSpawn,
			Origin:   e.state.position,
			Color:    e.state.color,
			Size:     e.state.size,
			Critical: e.state.flags.Has(FlagBoss),
		})
	}
	st.Created++
}

// revive brings a mid-exit entry back: the exit is cancelled and every
// field is reapplied.
func (r *Reconciler) revive(key string, e *entry, s *EntitySnapshot, now float64, st *ReconcileStats) {
	sc := r.scene
	h := sc.arena.Get(e.id)
	if h == nil {
		delete(r.displayed, key)
		r.create(key, s, now, st)
		return
	}
	sc.animator.CancelAll(h)
	e.retiring = false
	if !sc.arena.Attached(h) {
		if layer := sc.arena.Get(r.layer); layer != nil {
			sc.arena.AddChild(layer, h)
		}
	}
	e.state = r.sanitize(s, &e.state, now)
	h.Alpha = e.state.alpha
	h.ScaleX, h.ScaleY = 1, 1
	r.apply(h, e, nil, st)
	st.Revived++
}

func (r *Reconciler) update(key string, e *entry, s *EntitySnapshot, now float64, st *ReconcileStats) {
	sc := r.scene
	h := sc.arena.Get(e.id)
	if h == nil {
		// Freed behind our back; recreate rather than fail.
		delete(r.displayed, key)
		r.create(key, s, now, st)
		return
	}
	prev := e.state
	e.state = r.sanitize(s, &prev, now)
	r.apply(h, e, &prev, st)
	st.Updated++
}

// sanitize derives the visual state, including the lifetime fade of
// particles.
func (r *Reconciler) sanitize(s *EntitySnapshot, prev *visualState, now float64) visualState {
	v := sanitize(s, prev)
	if r.category == CategoryParticle && s.Lifetime > 0 && isFinite(s.Lifetime) {
		remain, ok := safeFraction(1-(now-s.CreatedAt)/s.Lifetime, 1)
		if ok {
			v.alpha *= remain
		}
	}
	return v
}

// apply writes v to h. prev is nil on creation and revival, when every field
// is written. Otherwise continuous fields are written without animation and
// discrete changes start a one-time transition.
func (r *Reconciler) apply(h *Handle, e *entry, prev *visualState, st *ReconcileStats) {
	sc := r.scene
	a := sc.arena
	v := &e.state
	first := prev == nil

	h.X, h.Y = v.position.X, v.position.Y

	body := a.Part(h, SlotBody)
	if body != nil {
		if body.Shape == ShapeLine {
			dx, dy := v.target.X-v.position.X, v.target.Y-v.position.Y
			body.End = Vec2{X: math.Hypot(dx, dy), Y: 0}
			body.Rotation = math.Atan2(dy, dx)
		} else {
			body.Rotation = v.rotation
		}
		if first || v.color != prev.color {
			body.Color = v.color
			h.Tags.Color = v.color
		}
	}
	if first || v.size != prev.size {
		r.look.Resize(a, h, v.size)
	}

	if first || v.alpha != prev.alpha {
		h.Alpha = v.alpha
	}

	if fill := a.Part(h, SlotFill); fill != nil {
		// A non-finite health value keeps the previous ring untouched.
		if s := v; s.healthOK && (first || s.health != prev.health) {
			fill.Fraction = s.health
			fill.Color = healthColor(s.health)
		}
	}

	if hint := a.Part(h, SlotHint); hint != nil {
		dx, dy := v.target.X-v.position.X, v.target.Y-v.position.Y
		if dx != 0 || dy != 0 {
			hint.Rotation = math.Atan2(dy, dx)
			hint.X = math.Cos(hint.Rotation) * v.size * 1.3
			hint.Y = math.Sin(hint.Rotation) * v.size * 1.3
		}
	}

	slowed := v.flags&(FlagSlowed|FlagFrozen) != 0
	wasSlowed := !first && prev.flags&(FlagSlowed|FlagFrozen) != 0
	if status := a.Part(h, SlotStatus); status != nil && (first || slowed != wasSlowed) {
		if slowed {
			status.Visible = true
			sc.animator.Play(status, AnimPulse, Animation{
				Field: FieldScale, From: 0.9, To: 1.1, Duration: 0.6,
				Ease: EaseInOutSine, Loop: LoopYoyo,
			})
		} else {
			status.Visible = false
			sc.animator.Cancel(status, AnimPulse)
			status.ScaleX, status.ScaleY = 1, 1
		}
		if !first {
			st.Transitions++
		}
	}

	if r.category == CategoryEnemy && v.flags.Has(FlagBoss) {
		sc.boss = bossState{present: true, phase: v.phase, health: v.health}
	}
	if r.category == CategoryBossMechanic && e.role == RoleShield && body != nil {
		tint := phaseTint(sc.boss.phase)
		if body.Color != tint {
			body.Color = tint
		}
	}

	if !first && v.phase != prev.phase {
		st.Transitions++
		if body != nil {
			sc.animator.Play(body, AnimFlash, Animation{
				Field: FieldScale, From: 1.35, To: 1, Duration: 0.25, Ease: EaseOutQuad,
			})
		}
		boss := v.flags.Has(FlagBoss)
		sc.effects.Spawn(EffectRequest{
			Kind:      EffectPhase,
			Origin:    v.position,
			Color:     v.color,
			Size:      v.size,
			Intensity: 1 + 0.25*float64(v.phase),
			Critical:  boss,
		})
	}
}

// retire cancels every animation, then runs exactly one exit.
func (r *Reconciler) retire(key string, e *entry, st *ReconcileStats) {
	sc := r.scene
	h := sc.arena.Get(e.id)
	st.Retired++
	if h == nil {
		delete(r.displayed, key)
		return
	}
	sc.animator.CancelAll(h)

	switch r.exitFor(e) {
	case ExitBurst:
		req := EffectRequest{
			Kind:     r.policy.ExitEffect,
			Origin:   e.state.position,
			Color:    h.Tags.Color,
			Shape:    h.Tags.Shape,
			Size:     h.Tags.Size,
			Critical: e.state.flags.Has(FlagCritical) || e.state.flags.Has(FlagBoss),
		}
		if e.state.flags.Has(FlagBreach) {
			req.Kind = EffectCoreBreach
			req.Critical = true
		}
		if e.state.flags.Has(FlagBoss) {
			req.Intensity = 2
		}
		sc.effects.Spawn(req)
		r.release(key, e, h)
	case ExitFade:
		if h.paused || h.hidden {
			// A paused fade would never complete.
			r.release(key, e, h)
			return
		}
		e.retiring = true
		sc.animator.Play(h, AnimExit, Animation{
			Field: FieldAlpha, From: h.Alpha, To: 0,
			Duration: r.policy.ExitDuration, Ease: EaseLinear,
			Then: CompleteRetire,
		})
	default:
		r.release(key, e, h)
	}
}

func (r *Reconciler) exitFor(e *entry) ExitStyle {
	if e.role == RoleLink {
		return ExitNone
	}
	if r.policy.Exit == ExitFade && r.policy.ExitDuration <= 0 {
		return ExitNone
	}
	return r.policy.Exit
}

// finishRetire completes a fade exit. Stale completions (the entry was
// revived or replaced) are ignored.
func (r *Reconciler) finishRetire(key string, id HandleID) {
	e, ok := r.displayed[key]
	if !ok || !e.retiring || e.id != id {
		return
	}
	h := r.scene.arena.Get(id)
	if h == nil {
		delete(r.displayed, key)
		return
	}
	r.release(key, e, h)
}

func (r *Reconciler) release(key string, e *entry, h *Handle) {
	delete(r.displayed, key)
	r.scene.pool.Release(h, e.typeKey)
	r.scene.lod.forget(e.id)
}

// clearAll releases every displayed handle without exit visuals. Used on
// teardown before the arena is reset.
func (r *Reconciler) clearAll() {
	for key, e := range r.displayed {
		if h := r.scene.arena.Get(e.id); h != nil {
			r.scene.pool.Release(h, e.typeKey)
		}
		delete(r.displayed, key)
	}
}

// forEach visits every live, non-retiring displayed handle.
func (r *Reconciler) forEach(fn func(h *Handle)) {
	for key, e := range r.displayed {
		if e.retiring {
			continue
		}
		h := r.scene.arena.Get(e.id)
		if h == nil {
			r.scene.log.Debug("displayed entry lost its handle",
				zap.Stringer("category", r.category), zap.String("key", key))
			continue
		}
		fn(h)
	}
}

// bossState is the boss data cached by the enemy pass for the boss-mechanic
// pass.
type bossState struct {
	present bool
	phase   int
	health  float64
}

var phaseTints = []Color{
	{R: 0.4, G: 0.8, B: 1, A: 1},
	{R: 1, G: 0.75, B: 0.3, A: 1},
	{R: 1, G: 0.35, B: 0.3, A: 1},
	{R: 0.85, G: 0.3, B: 1, A: 1},
}

func phaseTint(phase int) Color {
	if phase < 0 {
		phase = 0
	}
	if phase >= len(phaseTints) {
		phase = len(phaseTints) - 1
	}
	return phaseTints[phase]
}

// healthColor blends red (empty) to green (full).
func healthColor(f float64) Color {
	return Color{R: 1, G: 0.2, B: 0.2, A: 1}.Lerp(Color{R: 0.3, G: 1, B: 0.4, A: 1}, f)
}
