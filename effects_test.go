package rampart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchedulerFixture(policy EffectPolicy, load func() int) (*Arena, *Handle, *Scheduler) {
	a := NewArena()
	layer := a.New("layer:effects", ShapeNone)
	return a, layer, NewScheduler(a, layer, policy, load)
}

func TestSchedulerSpawnAttachesToLayer(t *testing.T) {
	_, layer, s := newSchedulerFixture(EffectPolicy{}, nil)
	require.True(t, s.Spawn(EffectRequest{Kind: EffectDeath, Origin: Vec2{X: 10, Y: 20}}))
	assert.Equal(t, 1, s.Active())
	assert.Equal(t, 1, layer.NumChildren())
	assert.Equal(t, DefaultEffectPresets()[EffectDeath].Count, s.Stats().Fragments)
}

func TestSchedulerCapsFragmentsPerCall(t *testing.T) {
	_, _, s := newSchedulerFixture(EffectPolicy{MaxPerCall: 5}, nil)
	s.Spawn(EffectRequest{Kind: EffectDeath, Intensity: 10})
	assert.Equal(t, 5, s.Stats().Fragments)
}

func TestSchedulerSkipsNonCriticalOverMaxActive(t *testing.T) {
	_, _, s := newSchedulerFixture(EffectPolicy{MaxActive: 2}, nil)
	assert.True(t, s.Spawn(EffectRequest{Kind: EffectDeath}))
	assert.True(t, s.Spawn(EffectRequest{Kind: EffectDeath}))
	assert.False(t, s.Spawn(EffectRequest{Kind: EffectDeath}))
	assert.Equal(t, 1, s.Stats().Skipped)

	// Critical requests are never skipped, whether flagged or by preset.
	assert.True(t, s.Spawn(EffectRequest{Kind: EffectDeath, Critical: true}))
	assert.True(t, s.Spawn(EffectRequest{Kind: EffectCoreBreach}))
	assert.Equal(t, 4, s.Active())
}

func TestSchedulerSkipsOverNodeBudget(t *testing.T) {
	load := 5000
	_, _, s := newSchedulerFixture(EffectPolicy{NodeBudget: 100}, func() int { return load })
	assert.False(t, s.Spawn(EffectRequest{Kind: EffectSpawn}))
	assert.True(t, s.Spawn(EffectRequest{Kind: EffectDestroyed}))

	load = 10
	assert.True(t, s.Spawn(EffectRequest{Kind: EffectSpawn}))
}

func TestSchedulerRejectsBadRequests(t *testing.T) {
	_, _, s := newSchedulerFixture(EffectPolicy{}, nil)
	assert.False(t, s.Spawn(EffectRequest{Kind: numEffectKinds}))
	assert.False(t, s.Spawn(EffectRequest{Kind: EffectDeath, Origin: Vec2{X: math.NaN()}}))
	assert.Equal(t, 0, s.Active())
}

func TestSchedulerExpiryFreesNodes(t *testing.T) {
	a, layer, s := newSchedulerFixture(EffectPolicy{}, nil)
	base := a.Live()
	s.Spawn(EffectRequest{Kind: EffectPhase, Origin: Vec2{X: 1, Y: 1}})
	require.Greater(t, a.Live(), base)

	d := DefaultEffectPresets()[EffectPhase].Duration
	for i := 0; i < int(d*60)+2; i++ {
		s.Update(1.0 / 60)
	}
	assert.Equal(t, 0, s.Active())
	assert.Equal(t, base, a.Live())
	assert.Equal(t, 0, layer.NumChildren())
	assert.Equal(t, 1, s.Stats().Expired)
}

func TestSchedulerFragmentsMoveAndFade(t *testing.T) {
	a, layer, s := newSchedulerFixture(EffectPolicy{}, nil)
	s.Spawn(EffectRequest{Kind: EffectDeath})
	root := a.Get(layer.Children()[0])
	require.NotNil(t, root)
	frag := a.Get(root.Children()[0])
	require.NotNil(t, frag)

	s.Update(0.1)
	assert.Less(t, frag.Alpha, 1.0)
	assert.NotEqual(t, Vec2{}, Vec2{X: frag.X, Y: frag.Y})
}

func TestSchedulerShakeRequests(t *testing.T) {
	_, _, s := newSchedulerFixture(EffectPolicy{}, nil)
	s.Spawn(EffectRequest{Kind: EffectCoreBreach})
	s.Spawn(EffectRequest{Kind: EffectDeath})
	shakes := s.DrainShakes()
	require.Len(t, shakes, 1)
	assert.Equal(t, DefaultEffectPresets()[EffectCoreBreach].Shake, shakes[0].Intensity)
	assert.Empty(t, s.DrainShakes())
}

func TestSchedulerReset(t *testing.T) {
	a, _, s := newSchedulerFixture(EffectPolicy{}, nil)
	base := a.Live()
	s.Spawn(EffectRequest{Kind: EffectDeath})
	s.Spawn(EffectRequest{Kind: EffectSpawn})
	s.Reset()
	assert.Equal(t, 0, s.Active())
	assert.Equal(t, base, a.Live())
}

func TestParseEffectPresets(t *testing.T) {
	data := []byte(`
effects:
  death:
    count: 3
    duration: 0.2
    speed: {min: 1, max: 2}
    critical: true
`)
	p, err := ParseEffectPresets(data)
	require.NoError(t, err)
	assert.Equal(t, 3, p[EffectDeath].Count)
	assert.True(t, p[EffectDeath].Critical)
	assert.Equal(t, Range{Min: 1, Max: 2}, p[EffectDeath].Speed)
	assert.Equal(t, DefaultEffectPresets()[EffectPhase], p[EffectPhase], "unlisted kinds keep defaults")
}

func TestParseEffectPresetsErrors(t *testing.T) {
	_, err := ParseEffectPresets([]byte("effects:\n  sparkle: {count: 1}\n"))
	assert.ErrorContains(t, err, "unknown effect")

	_, err = ParseEffectPresets([]byte("effects:\n  death: {count: -1}\n"))
	assert.ErrorContains(t, err, "negative")

	_, err = ParseEffectPresets([]byte("effects: [unclosed"))
	assert.Error(t, err)
}
