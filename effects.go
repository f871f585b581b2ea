package rampart

import (
	"math"
	"math/rand/v2"
)

// EffectRequest parameterizes one transient effect.
type EffectRequest struct {
	Kind   EffectKind
	Origin Vec2
	Color  Color
	// Intensity scales fragment count and speed. Zero means 1.
	Intensity float64
	// Count overrides the preset fragment count when positive.
	Count int
	// Critical forces the never-skip path regardless of the preset.
	Critical bool
	// Shape overrides the fragment shape when not ShapeNone.
	Shape ShapeKind
	// Size is the source entity size; the ring grows relative to it.
	Size float64
}

// EffectPolicy bounds what the scheduler spends under load.
type EffectPolicy struct {
	// MaxPerCall caps the fragment count of a single effect.
	MaxPerCall int
	// MaxActive is the number of concurrent effects above which
	// non-critical requests are skipped.
	MaxActive int
	// NodeBudget is the scene node count above which non-critical requests
	// are skipped.
	NodeBudget int
}

// DefaultEffectPolicy returns the empirically tuned defaults. None of these
// numbers are correctness constraints.
func DefaultEffectPolicy() EffectPolicy {
	return EffectPolicy{MaxPerCall: 24, MaxActive: 15, NodeBudget: 1500}
}

// EffectStats are cumulative scheduler counters.
type EffectStats struct {
	Spawned   int
	Skipped   int
	Expired   int
	Fragments int
}

// ShakeRequest asks the camera for a positional jitter.
type ShakeRequest struct {
	Intensity float64
	Duration  float64
}

type fragment struct {
	id     HandleID
	vx, vy float64
	spin   float64
}

// effect is one self-owned burst. It lives only in the scheduler, never in a
// displayed set or pool.
type effect struct {
	kind    EffectKind
	root    HandleID
	ring    HandleID
	ringMax float64
	frags   []fragment
	life    float64
	maxLife float64
}

// Scheduler spawns self-terminating effects on lifecycle edges and removes
// them when their lifetime ends. It owns every effect it creates.
type Scheduler struct {
	arena   *Arena
	layer   HandleID
	presets EffectPresets
	policy  EffectPolicy
	load    func() int

	effects []*effect
	shakes  []ShakeRequest
	stats   EffectStats
}

// NewScheduler creates a scheduler that attaches effects under layer. load
// reports the drawn scene node count; nil disables the node budget.
func NewScheduler(arena *Arena, layer *Handle, policy EffectPolicy, load func() int) *Scheduler {
	def := DefaultEffectPolicy()
	if policy.MaxPerCall <= 0 {
		policy.MaxPerCall = def.MaxPerCall
	}
	if policy.MaxActive <= 0 {
		policy.MaxActive = def.MaxActive
	}
	if policy.NodeBudget <= 0 {
		policy.NodeBudget = def.NodeBudget
	}
	return &Scheduler{
		arena:   arena,
		layer:   layer.id,
		presets: DefaultEffectPresets(),
		policy:  policy,
		load:    load,
	}
}

// SetPresets replaces the preset table.
func (s *Scheduler) SetPresets(p EffectPresets) {
	s.presets = p
}

// Presets returns the preset table.
func (s *Scheduler) Presets() EffectPresets {
	return s.presets
}

// Policy returns the load policy.
func (s *Scheduler) Policy() EffectPolicy {
	return s.policy
}

// Critical reports whether req is exempt from load shedding.
func (s *Scheduler) Critical(req EffectRequest) bool {
	return req.Critical || (req.Kind < numEffectKinds && s.presets[req.Kind].Critical)
}

// Spawn builds an effect and attaches it to the effect layer. Returns false
// when a non-critical request was skipped for load.
func (s *Scheduler) Spawn(req EffectRequest) bool {
	if req.Kind >= numEffectKinds || !req.Origin.Finite() {
		s.stats.Skipped++
		return false
	}
	if !s.Critical(req) {
		if len(s.effects) >= s.policy.MaxActive || (s.load != nil && s.load() > s.policy.NodeBudget) {
			s.stats.Skipped++
			return false
		}
	}
	layer := s.arena.Get(s.layer)
	if layer == nil {
		s.stats.Skipped++
		return false
	}

	p := s.presets[req.Kind]
	intensity := req.Intensity
	if !isFinite(intensity) || intensity <= 0 {
		intensity = 1
	}
	count := req.Count
	if count <= 0 {
		count = int(math.Round(float64(p.Count) * intensity))
	}
	if count > s.policy.MaxPerCall {
		count = s.policy.MaxPerCall
	}
	shape := req.Shape
	if p.Shape != "" {
		shape = ParseShape(p.Shape)
	}
	if shape == ShapeNone || shape == ShapeLine || shape == ShapeRing {
		shape = ShapeCircle
	}
	col := req.Color
	if col == (Color{}) {
		col = ColorWhite
	}
	duration := p.Duration
	if duration <= 0 {
		duration = 0.3
	}

	root := s.arena.New("effect:"+req.Kind.String(), ShapeNone)
	root.X, root.Y = req.Origin.X, req.Origin.Y
	s.arena.AddChild(layer, root)

	e := &effect{kind: req.Kind, root: root.id, life: duration, maxLife: duration}
	if count > 0 {
		e.frags = make([]fragment, 0, count)
	}
	for i := 0; i < count; i++ {
		f := s.arena.New("fragment", shape)
		f.Size = p.Size.Random()
		f.Color = col
		f.Additive = true
		s.arena.AddChild(root, f)

		angle := rand.Float64() * 2 * math.Pi
		speed := p.Speed.Random() * intensity
		e.frags = append(e.frags, fragment{
			id:   f.id,
			vx:   math.Cos(angle) * speed,
			vy:   math.Sin(angle) * speed,
			spin: (rand.Float64()*2 - 1) * 6,
		})
	}
	if p.Ring {
		ring := s.arena.New("ring", ShapeRing)
		size := req.Size
		if !isFinite(size) || size <= 0 {
			size = defaultEntitySize
		}
		ring.Size = size
		ring.Color = col
		ring.Additive = true
		s.arena.AddChild(root, ring)
		e.ring = ring.id
		e.ringMax = 2.5 * intensity
	}
	if p.Shake > 0 {
		s.shakes = append(s.shakes, ShakeRequest{Intensity: p.Shake * intensity, Duration: duration})
	}

	s.effects = append(s.effects, e)
	s.stats.Spawned++
	s.stats.Fragments += count
	return true
}

// Update advances every effect by dt seconds and frees the expired ones.
func (s *Scheduler) Update(dt float64) {
	drag := math.Pow(0.1, dt)
	i := 0
	for i < len(s.effects) {
		e := s.effects[i]
		e.life -= dt
		root := s.arena.Get(e.root)
		if e.life <= 0 || root == nil {
			if root != nil {
				s.arena.Free(root)
			}
			last := len(s.effects) - 1
			s.effects[i] = s.effects[last]
			s.effects[last] = nil
			s.effects = s.effects[:last]
			s.stats.Expired++
			continue
		}

		t := 1 - e.life/e.maxLife
		for j := range e.frags {
			fr := &e.frags[j]
			h := s.arena.Get(fr.id)
			if h == nil {
				continue
			}
			h.X += fr.vx * dt
			h.Y += fr.vy * dt
			h.Rotation += fr.spin * dt
			fr.vx *= drag
			fr.vy *= drag
			h.Alpha = 1 - t
			sc := 1 - 0.6*t
			h.ScaleX, h.ScaleY = sc, sc
		}
		if ring := s.arena.Get(e.ring); ring != nil {
			sc := lerp(1, e.ringMax, t)
			ring.ScaleX, ring.ScaleY = sc, sc
			ring.Alpha = 1 - t
		}
		i++
	}
}

// Active returns the number of live effects.
func (s *Scheduler) Active() int {
	return len(s.effects)
}

// Stats returns the cumulative counters.
func (s *Scheduler) Stats() EffectStats {
	return s.stats
}

// DrainShakes returns and clears the pending shake requests.
func (s *Scheduler) DrainShakes() []ShakeRequest {
	out := s.shakes
	s.shakes = nil
	return out
}

// Reset frees every live effect.
func (s *Scheduler) Reset() {
	for _, e := range s.effects {
		if root := s.arena.Get(e.root); root != nil {
			s.arena.Free(root)
		}
	}
	s.effects = s.effects[:0]
	s.shakes = nil
	s.stats = EffectStats{}
}
