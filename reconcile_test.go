package rampart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(t *testing.T, opts ...Option) *Scene {
	t.Helper()
	return NewScene(DefaultConfig(), opts...)
}

func enemy(id string, x, y float64) EntitySnapshot {
	return EntitySnapshot{ID: id, Category: CategoryEnemy, Position: Vec2{X: x, Y: y}, Health: 1}
}

func snap(c Category, id, role string, x, y float64) EntitySnapshot {
	return EntitySnapshot{ID: id, Category: c, Role: role, Position: Vec2{X: x, Y: y}, Health: 1}
}

func frameOf(snaps ...EntitySnapshot) *Frame {
	f := &Frame{}
	for _, s := range snaps {
		f.Add(s)
	}
	return f
}

// effectNames lists the effects currently attached under the effect layer.
func effectNames(s *Scene) []string {
	var names []string
	for _, id := range s.EffectLayer().Children() {
		if h := s.Arena().Get(id); h != nil {
			names = append(names, h.Name)
		}
	}
	return names
}

func TestReconcileCreates(t *testing.T) {
	s := newTestScene(t)
	st := s.Sync(frameOf(enemy("e1", 100, 200)))
	assert.Equal(t, 1, st[CategoryEnemy].Created)

	r := s.Reconciler(CategoryEnemy)
	h, ok := r.Lookup(Key("enemy", "e1"))
	require.True(t, ok)
	assert.Equal(t, 100.0, h.X)
	assert.Equal(t, 200.0, h.Y)
	assert.Same(t, s.Layer(CategoryEnemy), s.Arena().Parent(h))
	assert.True(t, s.Animator().Running(h, AnimSpawn))
}

func TestReconcileUpdateIsIdempotent(t *testing.T) {
	s := newTestScene(t)
	f := frameOf(enemy("e1", 100, 200), enemy("e2", 300, 200))
	s.Sync(f)
	s.Update(1.0 / 60)

	starts := s.Animator().Starts
	h, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	id := h.ID()
	for i := 0; i < 5; i++ {
		st := s.Sync(f)
		assert.Equal(t, 0, st[CategoryEnemy].Created)
		assert.Equal(t, 2, st[CategoryEnemy].Updated)
		assert.Equal(t, 0, st[CategoryEnemy].Transitions)
	}
	assert.Equal(t, starts, s.Animator().Starts, "unchanged snapshots must not restart animations")
	again, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	assert.Equal(t, id, again.ID(), "updates keep the same handle")
}

func TestReconcileCollapsesDuplicates(t *testing.T) {
	s := newTestScene(t)
	st := s.Sync(frameOf(enemy("e1", 10, 10), enemy("e1", 50, 60), EntitySnapshot{Category: CategoryEnemy}))
	assert.Equal(t, 1, st[CategoryEnemy].Duplicates)
	assert.Equal(t, 1, st[CategoryEnemy].Invalid)
	assert.Equal(t, 1, s.Reconciler(CategoryEnemy).Len())

	h, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	assert.Equal(t, 50.0, h.X, "last snapshot wins")
	assert.Equal(t, 1, s.Layer(CategoryEnemy).NumChildren())
}

func TestReconcileBurstExitReleasesAtOnce(t *testing.T) {
	s := newTestScene(t)
	s.Sync(frameOf(enemy("e1", 100, 100)))
	h, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	typeKey := h.TypeKey()

	st := s.Sync(frameOf())
	assert.Equal(t, 1, st[CategoryEnemy].Retired)
	assert.Equal(t, 0, s.Reconciler(CategoryEnemy).Len())
	assert.Equal(t, 1, s.Pool().FreeLen(typeKey))
	assert.True(t, h.Pooled())
	assert.Equal(t, []string{"effect:death"}, effectNames(s))
}

func TestReconcileFadeExitReleasesOnCompletion(t *testing.T) {
	s := newTestScene(t)
	s.Sync(frameOf(snap(CategoryPickup, "p1", "", 100, 100)))
	s.Update(0.5)
	key := Key("pickup", "p1")
	h, _ := s.Reconciler(CategoryPickup).Lookup(key)

	s.Sync(frameOf())
	r := s.Reconciler(CategoryPickup)
	require.True(t, r.Retiring(key))
	assert.True(t, s.Animator().Running(h, AnimExit))

	for i := 0; i < 30; i++ {
		s.Sync(frameOf())
		s.Update(1.0 / 60)
	}
	assert.Equal(t, 0, r.Len())
	assert.True(t, h.Pooled())
	assert.Equal(t, 1, s.Pool().FreeLen(h.TypeKey()))
}

func TestReconcileNoneExit(t *testing.T) {
	s := newTestScene(t)
	s.Sync(frameOf(snap(CategoryProjectile, "s1", "", 10, 10)))
	s.Sync(frameOf())
	assert.Equal(t, 0, s.Reconciler(CategoryProjectile).Len())
	assert.Empty(t, effectNames(s))
}

func TestReconcileReviveMidFade(t *testing.T) {
	s := newTestScene(t)
	p := snap(CategoryPickup, "p1", "", 100, 100)
	s.Sync(frameOf(p))
	s.Update(0.5)
	key := Key("pickup", "p1")
	h, _ := s.Reconciler(CategoryPickup).Lookup(key)

	s.Sync(frameOf())
	s.Update(0.1)
	require.Less(t, h.Alpha, 1.0)

	st := s.Sync(frameOf(p))
	assert.Equal(t, 1, st[CategoryPickup].Revived)
	r := s.Reconciler(CategoryPickup)
	assert.False(t, r.Retiring(key))
	assert.False(t, s.Animator().Running(h, AnimExit))
	assert.Equal(t, 1.0, h.Alpha)

	for i := 0; i < 30; i++ {
		s.Sync(frameOf(p))
		s.Update(1.0 / 60)
	}
	again, ok := r.Lookup(key)
	require.True(t, ok, "revived entity must not be released by the cancelled fade")
	assert.Same(t, h, again)
}

func TestReconcileFadeOffscreenReleasesAtOnce(t *testing.T) {
	s := newTestScene(t)
	s.Sync(frameOf(snap(CategoryPickup, "p1", "", 50000, 50000)))
	s.Update(1.0 / 60)
	h, _ := s.Reconciler(CategoryPickup).Lookup(Key("pickup", "p1"))
	require.True(t, h.Hidden())

	s.Sync(frameOf())
	assert.Equal(t, 0, s.Reconciler(CategoryPickup).Len())
}

func churnWave(prefix string, n int) *Frame {
	f := &Frame{}
	for i := 0; i < n; i++ {
		f.Add(enemy(prefix+string(rune('a'+i%26))+string(rune('a'+i/26)), float64(20+i*20), 300))
	}
	return f
}

func TestReconcileChurnReusesPool(t *testing.T) {
	for _, max := range []int{100, 20} {
		cfg := DefaultConfig()
		cfg.Pool.MaxPerType = max
		s := NewScene(cfg)

		st := s.Sync(churnWave("w1", 50))
		require.Equal(t, 50, st[CategoryEnemy].Created)
		assert.Equal(t, 0, st[CategoryEnemy].PoolHits)

		st = s.Sync(frameOf())
		assert.Equal(t, 50, st[CategoryEnemy].Retired)
		assert.Equal(t, min(50, max), s.Pool().TotalFree())

		st = s.Sync(churnWave("w2", 50))
		assert.Equal(t, min(50, max), st[CategoryEnemy].PoolHits, "max per type %d", max)
		assert.Equal(t, 50, s.Reconciler(CategoryEnemy).Len())
		assert.Equal(t, 0, s.checkInvariants())
	}
}

func TestReconcilePylonDestroyedBursts(t *testing.T) {
	s := newTestScene(t)
	s.Sync(frameOf(snap(CategoryBossMechanic, "p1", RolePylon, 200, 200)))
	s.Update(1) // let the spawn effect expire
	spawned := s.Effects().Stats().Spawned

	st := s.Sync(frameOf())
	assert.Equal(t, 1, st[CategoryBossMechanic].Retired)
	assert.Equal(t, spawned+1, s.Effects().Stats().Spawned, "exactly one effect")
	assert.Equal(t, 0, s.Reconciler(CategoryBossMechanic).Len(), "no fade for a burst exit")
	assert.Equal(t, []string{"effect:destroyed"}, effectNames(s))
}

func TestReconcileRolesPartitionKeys(t *testing.T) {
	s := newTestScene(t)
	pylon := snap(CategoryBossMechanic, "m1", RolePylon, 100, 100)
	shield := snap(CategoryBossMechanic, "m1", RoleShield, 100, 100)
	link := snap(CategoryBossMechanic, "m1", RoleLink, 100, 100)
	link.Target = Vec2{X: 300, Y: 100}

	s.Sync(frameOf(pylon, shield, link))
	r := s.Reconciler(CategoryBossMechanic)
	require.Equal(t, 3, r.Len())
	lh, ok := r.Lookup(Key(RoleLink, "m1"))
	require.True(t, ok)
	body := s.Arena().Part(lh, SlotBody)
	require.NotNil(t, body)
	assert.Equal(t, ShapeLine, body.Shape)
	assert.InDelta(t, 200, body.End.X, 1e-9)

	s.Update(1)
	spawned := s.Effects().Stats().Spawned
	s.Sync(frameOf(pylon, shield))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, spawned, s.Effects().Stats().Spawned, "links leave without an effect")
	_, ok = r.Lookup(Key(RolePylon, "m1"))
	assert.True(t, ok)
}

func TestReconcileNaNHealthSkipsFill(t *testing.T) {
	s := newTestScene(t)
	e := enemy("e1", 100, 100)
	e.Health = 0.5
	s.Sync(frameOf(e))
	h, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	fill := s.Arena().Part(h, SlotFill)
	require.NotNil(t, fill)
	assert.Equal(t, 0.5, fill.Fraction)

	e.Health = math.NaN()
	s.Sync(frameOf(e))
	assert.Equal(t, 0.5, fill.Fraction)

	e.Health = 0.25
	s.Sync(frameOf(e))
	assert.Equal(t, 0.25, fill.Fraction)

	e.Health = 7
	s.Sync(frameOf(e))
	assert.Equal(t, 1.0, fill.Fraction, "health is clamped")
}

func TestReconcileNonFinitePositionKeepsLast(t *testing.T) {
	s := newTestScene(t)
	e := enemy("e1", 100, 100)
	s.Sync(frameOf(e))
	e.Position = Vec2{X: math.Inf(1), Y: 5}
	s.Sync(frameOf(e))
	h, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	assert.Equal(t, 100.0, h.X)
	assert.Equal(t, 100.0, h.Y)
}

func TestReconcilePhaseTransition(t *testing.T) {
	s := newTestScene(t)
	e := enemy("b1", 100, 100)
	e.Flags = FlagBoss
	s.Sync(frameOf(e))
	s.Update(1)
	h, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "b1"))
	body := s.Arena().Part(h, SlotBody)

	e.Phase = 1
	st := s.Sync(frameOf(e))
	assert.Equal(t, 1, st[CategoryEnemy].Transitions)
	assert.True(t, s.Animator().Running(body, AnimFlash))
	assert.Contains(t, effectNames(s), "effect:phase")

	starts := s.Animator().Starts
	st = s.Sync(frameOf(e))
	assert.Equal(t, 0, st[CategoryEnemy].Transitions)
	assert.Equal(t, starts, s.Animator().Starts)
}

func TestReconcileStatusFlip(t *testing.T) {
	s := newTestScene(t)
	e := enemy("e1", 100, 100)
	s.Sync(frameOf(e))
	h, _ := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	status := s.Arena().Part(h, SlotStatus)
	require.NotNil(t, status)
	assert.False(t, status.Visible)

	e.Flags = FlagSlowed
	st := s.Sync(frameOf(e))
	assert.Equal(t, 1, st[CategoryEnemy].Transitions)
	assert.True(t, status.Visible)
	assert.True(t, s.Animator().Running(status, AnimPulse))

	e.Flags = FlagFrozen
	st = s.Sync(frameOf(e))
	assert.Equal(t, 0, st[CategoryEnemy].Transitions, "slowed to frozen is not an edge")

	e.Flags = 0
	s.Sync(frameOf(e))
	assert.False(t, status.Visible)
	assert.False(t, s.Animator().Running(status, AnimPulse))
}

func TestReconcileShieldFollowsBossPhase(t *testing.T) {
	s := newTestScene(t)
	boss := enemy("b1", 100, 100)
	boss.Flags = FlagBoss
	boss.Phase = 2
	shield := snap(CategoryBossMechanic, "m1", RoleShield, 120, 100)

	s.Sync(frameOf(boss, shield))
	h, _ := s.Reconciler(CategoryBossMechanic).Lookup(Key(RoleShield, "m1"))
	assert.Equal(t, phaseTint(2), s.Arena().Part(h, SlotBody).Color)

	boss.Phase = 3
	s.Sync(frameOf(boss, shield))
	assert.Equal(t, phaseTint(3), s.Arena().Part(h, SlotBody).Color)
}

func TestReconcileParticleLifetimeFade(t *testing.T) {
	s := newTestScene(t)
	p := snap(CategoryParticle, "t1", "", 10, 10)
	p.CreatedAt = 0
	p.Lifetime = 1
	f := frameOf(p)
	f.Time = 0.5
	s.Sync(f)
	h, _ := s.Reconciler(CategoryParticle).Lookup(Key("particle", "t1"))
	assert.InDelta(t, 0.5, h.Alpha, 1e-9)
}

func TestReconcileBreachUsesCoreBreachEffect(t *testing.T) {
	s := newTestScene(t)
	e := enemy("e1", 100, 100)
	e.Flags = FlagBreach
	s.Sync(frameOf(e))
	s.Update(1)
	s.Sync(frameOf())
	assert.Equal(t, []string{"effect:core_breach"}, effectNames(s))
}

func TestReconcileBossSpawnEffectIsCritical(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Effects.MaxActive = 1
	s := NewScene(cfg)
	s.Effects().Spawn(EffectRequest{Kind: EffectDeath})

	boss := enemy("b1", 100, 100)
	boss.Flags = FlagBoss
	s.Sync(frameOf(boss))
	assert.Contains(t, effectNames(s), "effect:spawn")
}

func sizedEnemy(id string, size float64) EntitySnapshot {
	e := enemy(id, 640, 360)
	e.Size = size
	return e
}

func assertPartSizes(t *testing.T, s *Scene, h *Handle, size float64) {
	t.Helper()
	a := s.Arena()
	assert.Equal(t, size, a.Part(h, SlotBody).Size)
	assert.Equal(t, size*fillScale, a.Part(h, SlotFill).Size)
	assert.Equal(t, size*glowScale, a.Part(h, SlotGlow).Size)
	assert.Equal(t, size*statusScale, a.Part(h, SlotStatus).Size)
	assert.Equal(t, size, h.Tags.Size)
}

func TestReconcileReusedHandleTakesNewSize(t *testing.T) {
	s := newTestScene(t)
	s.Sync(frameOf(sizedEnemy("small", 5)))
	small := lookupEnemy(t, s, "small")
	s.Sync(frameOf())
	require.Equal(t, 1, s.Pool().FreeLen(small.TypeKey()))

	st := s.Sync(frameOf(sizedEnemy("big", 40)))
	require.Equal(t, 1, st[CategoryEnemy].PoolHits)
	big := lookupEnemy(t, s, "big")
	assert.Same(t, small, big)
	assertPartSizes(t, s, big, 40)
}

func TestReconcileSizeChangeRescalesParts(t *testing.T) {
	s := newTestScene(t)
	s.Sync(frameOf(sizedEnemy("a", 5)))
	h := lookupEnemy(t, s, "a")
	assertPartSizes(t, s, h, 5)

	s.Camera().Zoom = 2
	s.Update(1.0 / 60)
	detail := s.Arena().Part(h, SlotDetail)
	require.NotNil(t, detail)

	s.Sync(frameOf(sizedEnemy("a", 40)))
	assertPartSizes(t, s, h, 40)
	assert.InDelta(t, 40*detailScale, detail.Size, 1e-9)
}
