// Package sim is a small tower-defense simulation on Donburi used by the
// demo programs. It produces the churn the presentation core is built for:
// waves of enemies walking to a core, towers firing homing shots, drops,
// trails, and a boss with pylons, shields, and links.
package sim

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"

	"github.com/phanxgames/rampart"
	"github.com/phanxgames/rampart/ecs"
)

// MotionData moves an entity along the lane.
type MotionData struct {
	Speed    float64
	Progress float64 // distance travelled along the lane
	Lane     float64 // vertical lane offset
	SlowLeft float64 // seconds of slow remaining
}

// HomingData steers a projectile at an entity.
type HomingData struct {
	Target donburi.Entity
	Speed  float64
	Damage float64
	Slows  bool
}

// BossData links a mechanic to its boss.
type BossData struct {
	Boss  donburi.Entity
	Angle float64
}

var (
	Motion = donburi.NewComponentType[MotionData]()
	Homing = donburi.NewComponentType[HomingData]()
	Boss   = donburi.NewComponentType[BossData]()
)

var (
	walkers    = donburi.NewQuery(filter.Contains(ecs.Identity, ecs.Transform, ecs.Vitals, Motion))
	shots      = donburi.NewQuery(filter.Contains(ecs.Transform, Homing))
	mechanics  = donburi.NewQuery(filter.Contains(ecs.Identity, ecs.Transform, Boss))
	expiring   = donburi.NewQuery(filter.Contains(ecs.Lifetime))
	enemyKinds = []string{"basic", "basic", "fast", "tank", "elite"}
)

type tower struct {
	pos      rampart.Vec2
	cooldown float64
	rate     float64
	slows    bool
}

// Config sizes the field and pacing.
type Config struct {
	Width, Height float64
	// SpawnInterval is the seconds between enemy spawns.
	SpawnInterval float64
	// BossEvery spawns a boss every n waves; zero disables bosses.
	BossEvery int
	WaveSize  int
	Seed      uint64
}

// DefaultConfig returns a field matching the default viewport.
func DefaultConfig() Config {
	return Config{Width: 1280, Height: 720, SpawnInterval: 0.35, BossEvery: 3, WaveSize: 40, Seed: 1}
}

// Sim owns a Donburi world and advances it with Step.
type Sim struct {
	World donburi.World
	cfg   Config
	rng   *rand.Rand

	time      float64
	nextID    int
	spawnLeft int
	spawnT    float64
	wave      int
	towers    []tower
	remove    []donburi.Entity
	// Entities are created after queries finish iterating.
	drops  []rampart.Vec2
	trails []rampart.Vec2
	downed []string
}

// New creates a simulation with a row of towers along the lane.
func New(cfg Config) *Sim {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		d := DefaultConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	s := &Sim{
		World: donburi.NewWorld(),
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
	for i := 0; i < 6; i++ {
		x := cfg.Width * (0.15 + 0.14*float64(i))
		y := cfg.Height/2 + 110*float64(1-2*(i%2))
		s.towers = append(s.towers, tower{pos: rampart.Vec2{X: x, Y: y}, rate: 0.5 + 0.1*float64(i), slows: i%3 == 2})
	}
	return s
}

// Time returns the simulation clock.
func (s *Sim) Time() float64 { return s.time }

// Wave returns the current wave number.
func (s *Sim) Wave() int { return s.wave }

// Step advances the simulation by dt seconds.
func (s *Sim) Step(dt float64) {
	s.time += dt
	s.remove = s.remove[:0]
	s.drops = s.drops[:0]
	s.trails = s.trails[:0]
	s.downed = s.downed[:0]
	s.spawn(dt)
	s.walk(dt)
	s.fire(dt)
	s.home(dt)
	s.orbit()
	s.expire()
	for _, e := range s.remove {
		if s.World.Valid(e) {
			s.World.Remove(e)
		}
	}
	for _, at := range s.drops {
		s.drop(at)
	}
	for _, at := range s.trails {
		ecs.Spawn(s.World, rampart.EntitySnapshot{
			ID: s.id("t"), Category: rampart.CategoryParticle,
			Position: at, CreatedAt: s.time, Lifetime: 0.4, Size: 2,
			Color: rampart.Color{R: 0.5, G: 0.9, B: 1, A: 1},
		})
	}
}

func (s *Sim) id(prefix string) string {
	s.nextID++
	return prefix + strconv.Itoa(s.nextID)
}

func (s *Sim) spawn(dt float64) {
	if s.spawnLeft == 0 && walkers.Count(s.World) == 0 {
		s.wave++
		s.spawnLeft = s.cfg.WaveSize
		if s.cfg.BossEvery > 0 && s.wave%s.cfg.BossEvery == 0 {
			s.spawnBoss()
		}
	}
	s.spawnT -= dt
	if s.spawnLeft == 0 || s.spawnT > 0 {
		return
	}
	s.spawnT = s.cfg.SpawnInterval
	s.spawnLeft--
	kind := enemyKinds[s.rng.IntN(len(enemyKinds))]
	speed := 60.0
	switch kind {
	case "fast":
		speed = 110
	case "tank":
		speed = 35
	}
	e := ecs.Spawn(s.World, rampart.EntitySnapshot{
		ID: s.id("e"), Category: rampart.CategoryEnemy, Kind: kind,
		Position: rampart.Vec2{X: -20, Y: s.cfg.Height / 2},
		Health:   1,
		Color:    enemyColor(kind),
	})
	s.World.Entry(e).AddComponent(Motion)
	Motion.SetValue(s.World.Entry(e), MotionData{Speed: speed, Lane: (s.rng.Float64()*2 - 1) * 60})
}

func (s *Sim) spawnBoss() {
	boss := ecs.Spawn(s.World, rampart.EntitySnapshot{
		ID: s.id("boss"), Category: rampart.CategoryEnemy, Kind: "boss",
		Position: rampart.Vec2{X: -40, Y: s.cfg.Height / 2},
		Health:   1, Flags: rampart.FlagBoss, Size: 30,
		Color: rampart.Color{R: 0.9, G: 0.2, B: 0.5, A: 1},
	})
	entry := s.World.Entry(boss)
	entry.AddComponent(Motion)
	Motion.SetValue(entry, MotionData{Speed: 25})

	for i := 0; i < 3; i++ {
		angle := float64(i) * 2 * math.Pi / 3
		pid := s.id("p")
		for _, role := range []string{rampart.RolePylon, rampart.RoleShield, rampart.RoleLink} {
			snap := rampart.EntitySnapshot{
				ID: pid, Category: rampart.CategoryBossMechanic, Role: role,
				Health: 1, Size: 10,
				Color: rampart.Color{R: 0.6, G: 0.4, B: 1, A: 1},
			}
			if role == rampart.RoleShield {
				snap.Size = 16
			}
			m := ecs.Spawn(s.World, snap)
			me := s.World.Entry(m)
			me.AddComponent(Boss)
			Boss.SetValue(me, BossData{Boss: boss, Angle: angle})
		}
	}
}

func (s *Sim) walk(dt float64) {
	core := s.cfg.Width + 20
	walkers.Each(s.World, func(entry *donburi.Entry) {
		m := Motion.Get(entry)
		v := ecs.Vitals.Get(entry)
		if v.Flags.Has(rampart.FlagBreach) {
			// Kept for one extra tick so the breach flag reaches a frame.
			s.remove = append(s.remove, entry.Entity())
			return
		}
		speed := m.Speed
		if m.SlowLeft > 0 {
			m.SlowLeft -= dt
			speed *= 0.5
			v.Flags |= rampart.FlagSlowed
		} else {
			v.Flags &^= rampart.FlagSlowed
		}
		m.Progress += speed * dt
		tr := ecs.Transform.Get(entry)
		tr.Position.X = -20 + m.Progress
		tr.Position.Y = s.cfg.Height/2 + m.Lane + 40*math.Sin(m.Progress/90)
		tr.Rotation = math.Atan2(40.0/90*math.Cos(m.Progress/90), 1)

		if v.Health <= 0 {
			s.remove = append(s.remove, entry.Entity())
			if s.rng.Float64() < 0.25 {
				s.drops = append(s.drops, tr.Position)
			}
			return
		}
		if tr.Position.X >= core {
			v.Flags |= rampart.FlagBreach
		}
		if v.Flags.Has(rampart.FlagBoss) {
			switch {
			case v.Health < 0.33:
				v.Phase = 2
			case v.Health < 0.66:
				v.Phase = 1
			}
		}
	})
}

func (s *Sim) drop(at rampart.Vec2) {
	ecs.Spawn(s.World, rampart.EntitySnapshot{
		ID: s.id("d"), Category: rampart.CategoryPickup, Kind: "coin",
		Position: at, CreatedAt: s.time, Lifetime: 4,
		Color: rampart.Color{R: 1, G: 0.85, B: 0.2, A: 1}, Size: 7,
	})
}

func (s *Sim) fire(dt float64) {
	for i := range s.towers {
		t := &s.towers[i]
		t.cooldown -= dt
		if t.cooldown > 0 {
			continue
		}
		target, ok := s.nearest(t.pos, 260)
		if !ok {
			continue
		}
		t.cooldown = 1 / t.rate
		p := ecs.Spawn(s.World, rampart.EntitySnapshot{
			ID: s.id("s"), Category: rampart.CategoryProjectile, Kind: "bolt",
			Position: t.pos, Size: 5,
			Color: rampart.Color{R: 0.5, G: 0.9, B: 1, A: 1},
		})
		pe := s.World.Entry(p)
		pe.AddComponent(Homing)
		Homing.SetValue(pe, HomingData{Target: target, Speed: 380, Damage: 0.2, Slows: t.slows})
	}
}

func (s *Sim) nearest(from rampart.Vec2, within float64) (donburi.Entity, bool) {
	var best donburi.Entity
	bestD := within * within
	found := false
	walkers.Each(s.World, func(entry *donburi.Entry) {
		p := ecs.Transform.Get(entry).Position
		dx, dy := p.X-from.X, p.Y-from.Y
		if d := dx*dx + dy*dy; d < bestD {
			best, bestD, found = entry.Entity(), d, true
		}
	})
	return best, found
}

func (s *Sim) home(dt float64) {
	shots.Each(s.World, func(entry *donburi.Entry) {
		h := Homing.Get(entry)
		tr := ecs.Transform.Get(entry)
		if !s.World.Valid(h.Target) {
			s.remove = append(s.remove, entry.Entity())
			return
		}
		te := s.World.Entry(h.Target)
		tp := ecs.Transform.Get(te).Position
		dx, dy := tp.X-tr.Position.X, tp.Y-tr.Position.Y
		d := math.Hypot(dx, dy)
		step := h.Speed * dt
		if d <= step {
			v := ecs.Vitals.Get(te)
			v.Health -= h.Damage
			if h.Slows && te.HasComponent(Motion) {
				Motion.Get(te).SlowLeft = 1.5
			}
			ecs.EffectEventType.Publish(s.World, ecs.EffectEvent{
				Kind: rampart.EffectFlash, Origin: tp,
				Color: rampart.Color{R: 0.5, G: 0.9, B: 1, A: 1}, Intensity: 0.5,
			})
			s.remove = append(s.remove, entry.Entity())
			return
		}
		tr.Position.X += dx / d * step
		tr.Position.Y += dy / d * step
		tr.Rotation = math.Atan2(dy, dx)
		if s.rng.Float64() < 0.3 {
			s.trails = append(s.trails, tr.Position)
		}
	})
}

// orbit keeps boss mechanics around their boss; pylons wear down over time
// and take their shield and link with them.
func (s *Sim) orbit() {
	mechanics.Each(s.World, func(entry *donburi.Entry) {
		b := Boss.Get(entry)
		if !s.World.Valid(b.Boss) {
			s.remove = append(s.remove, entry.Entity())
			return
		}
		bp := ecs.Transform.Get(s.World.Entry(b.Boss)).Position
		id := ecs.Identity.Get(entry)
		tr := ecs.Transform.Get(entry)
		b.Angle += 0.01
		pylon := rampart.Vec2{X: bp.X + 70*math.Cos(b.Angle), Y: bp.Y + 70*math.Sin(b.Angle)}
		tr.Position = pylon
		tr.Target = bp
		if id.Role == rampart.RolePylon {
			v := ecs.Vitals.Get(entry)
			v.Health -= 0.002
			if v.Health <= 0 {
				s.downed = append(s.downed, id.ID)
			}
		}
	})
	if len(s.downed) > 0 {
		s.removeMechanics()
	}
}

// removeMechanics queues every role of the downed pylons. It runs after
// the orbit query returns; Each holds the archetype lock.
func (s *Sim) removeMechanics() {
	mechanics.Each(s.World, func(entry *donburi.Entry) {
		if slices.Contains(s.downed, ecs.Identity.Get(entry).ID) {
			s.remove = append(s.remove, entry.Entity())
		}
	})
}

func (s *Sim) expire() {
	expiring.Each(s.World, func(entry *donburi.Entry) {
		l := ecs.Lifetime.Get(entry)
		if s.time-l.CreatedAt >= l.Duration {
			s.remove = append(s.remove, entry.Entity())
		}
	})
}

func enemyColor(kind string) rampart.Color {
	switch kind {
	case "fast":
		return rampart.Color{R: 1, G: 0.6, B: 0.2, A: 1}
	case "tank":
		return rampart.Color{R: 0.5, G: 0.6, B: 0.7, A: 1}
	case "elite":
		return rampart.Color{R: 0.8, G: 0.3, B: 1, A: 1}
	}
	return rampart.Color{R: 0.9, G: 0.25, B: 0.25, A: 1}
}
