package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/phanxgames/rampart"
	"github.com/phanxgames/rampart/ecs"
)

func TestSimDrivesScene(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BossEvery = 1
	s := New(cfg)
	scene := rampart.NewScene(rampart.DefaultConfig())
	bridge := ecs.NewBridge(s.World, scene)

	s.Step(1.0 / 60)
	bridge.Sync(s.Time())
	require.Equal(t, 1, s.Wave())
	assert.Equal(t, 9, scene.Reconciler(rampart.CategoryBossMechanic).Len(), "three pylons with shield and link")

	var created, retired, mechanicsRetired int
	for i := 0; i < 60*20; i++ {
		s.Step(1.0 / 60)
		st := bridge.Sync(s.Time())
		scene.Update(1.0 / 60)
		for _, c := range st {
			created += c.Created
			retired += c.Retired
		}
		mechanicsRetired += st[rampart.CategoryBossMechanic].Retired
	}
	assert.Greater(t, mechanicsRetired, 0, "pylons fall and take their shield and link")
	assert.Greater(t, scene.Reconciler(rampart.CategoryEnemy).Len()+retired, 1)
	assert.Greater(t, created, 20)
	assert.Greater(t, retired, 0)
	assert.Greater(t, scene.Effects().Stats().Spawned, 0)
}

func TestSimDeterministic(t *testing.T) {
	a, b := New(DefaultConfig()), New(DefaultConfig())
	for i := 0; i < 600; i++ {
		a.Step(1.0 / 60)
		b.Step(1.0 / 60)
	}
	xa, xb := ecs.NewExtractor(), ecs.NewExtractor()
	assert.Equal(t, xa.Extract(a.World, a.Time()).Len(), xb.Extract(b.World, b.Time()).Len())
}

func TestSimDownedPylonRemovesAllRoles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BossEvery = 0
	s := New(cfg)
	s.spawnBoss()
	require.Equal(t, 9, mechanics.Count(s.World))

	var pid string
	mechanics.Each(s.World, func(entry *donburi.Entry) {
		id := ecs.Identity.Get(entry)
		if pid == "" && id.Role == rampart.RolePylon {
			pid = id.ID
			ecs.Vitals.Get(entry).Health = 0.001
		}
	})
	require.NotEmpty(t, pid)

	s.Step(1.0 / 60)
	assert.Equal(t, 6, mechanics.Count(s.World))
	mechanics.Each(s.World, func(entry *donburi.Entry) {
		assert.NotEqual(t, pid, ecs.Identity.Get(entry).ID)
	})
}
