package rampart

import (
	"time"

	"go.uber.org/zap"
)

// defaultSampleInterval matches the refresh rate of the on-screen overlay.
const defaultSampleInterval = 0.5

// Sample is one throttled snapshot of scene counters.
type Sample struct {
	Time      float64
	NodeCount int
	Live      int
	// Displayed counts displayed-set entries per category, retiring ones
	// included.
	Displayed [NumCategories]int

	PoolFree   int
	Pool       PoolStats
	Effects    int
	EffectStat EffectStats
	Animating  int
	Geometry   int
	LOD        LODResult
	Sectors    SectorStats

	// FPS is frames per second averaged over the sample interval.
	FPS float64
	// UpdateTime is the wall time of the last Update call.
	UpdateTime time.Duration
}

// Diagnostics samples scene counters on a fixed interval. It is pull-based:
// nothing is pushed anywhere unless debug mode logs the sample.
type Diagnostics struct {
	interval float64
	elapsed  float64
	frames   int
	started  time.Time
	last     Sample
}

func newDiagnostics(interval float64) *Diagnostics {
	if !isFinite(interval) || interval <= 0 {
		interval = defaultSampleInterval
	}
	return &Diagnostics{interval: interval}
}

func (d *Diagnostics) beginFrame() {
	d.started = time.Now()
}

// tick accumulates dt and reports whether a sample is due.
func (d *Diagnostics) tick(dt float64) bool {
	d.elapsed += dt
	d.frames++
	return d.elapsed >= d.interval
}

func (d *Diagnostics) sample(s *Scene) {
	smp := Sample{
		Time:       s.time,
		NodeCount:  s.NodeCount(),
		Live:       s.arena.Live(),
		PoolFree:   s.pool.TotalFree(),
		Pool:       s.pool.Stats(),
		Effects:    s.effects.Active(),
		EffectStat: s.effects.Stats(),
		Animating:  s.animator.Active(),
		Geometry:   s.geometry.Len(),
		LOD:        s.lod.Last(),
		Sectors:    s.sectors.Stats(),
		UpdateTime: time.Since(d.started),
	}
	for _, c := range Categories {
		smp.Displayed[c] = s.reconcilers[c].Len()
	}
	if d.elapsed > 0 {
		smp.FPS = float64(d.frames) / d.elapsed
	}
	d.last = smp
	d.elapsed = 0
	d.frames = 0
}

func (d *Diagnostics) log(log *zap.Logger) {
	smp := d.last
	log.Debug("scene sample",
		zap.Float64("fps", smp.FPS),
		zap.Int("nodes", smp.NodeCount),
		zap.Int("live", smp.Live),
		zap.Int("enemies", smp.Displayed[CategoryEnemy]),
		zap.Int("projectiles", smp.Displayed[CategoryProjectile]),
		zap.Int("pickups", smp.Displayed[CategoryPickup]),
		zap.Int("particles", smp.Displayed[CategoryParticle]),
		zap.Int("boss", smp.Displayed[CategoryBossMechanic]),
		zap.Int("pool_free", smp.PoolFree),
		zap.Int("pool_hits", smp.Pool.Hits),
		zap.Int("pool_misses", smp.Pool.Misses),
		zap.Int("effects", smp.Effects),
		zap.Int("effects_skipped", smp.EffectStat.Skipped),
		zap.Int("animating", smp.Animating),
		zap.Int("lod_hidden", smp.LOD.Hidden),
		zap.Duration("update", smp.UpdateTime),
	)
}

// Diagnostics returns the most recent sample.
func (s *Scene) Diagnostics() Sample {
	return s.diag.last
}
