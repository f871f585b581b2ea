package rampart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", "name: x\n", "no steps"},
		{"bad yaml", "steps: [", "parse scenario"},
		{"unknown action", "steps:\n  - {action: explode}\n", `unknown action "explode"`},
		{"unknown category", "steps:\n  - {action: spawn, category: tower, id: t}\n", "unknown category"},
		{"missing id", "steps:\n  - {action: damage, category: enemy}\n", "missing id"},
		{"unknown flag", "steps:\n  - {action: status, category: enemy, id: e, flags: [sparkly]}\n", "unknown flag"},
		{"bad zoom", "steps:\n  - {action: zoom, zoom: 0}\n", "zoom: must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"boss", "shielded"})
	require.NoError(t, err)
	assert.Equal(t, FlagBoss|FlagShielded, f)
}

func TestScenarioSpawnWaitDespawn(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: churn
steps:
  - {action: spawn, category: enemy, id: e, count: 3, x: 600, y: 300, spacing: 20}
  - {action: wait, frames: 1}
  - {action: despawn, category: enemy, all: true}
`))
	require.NoError(t, err)
	assert.Equal(t, 1.0/60, sc.DT, "dt defaults to 60 Hz")

	s := newTestScene(t)
	require.True(t, sc.Step(s))
	assert.Equal(t, 3, s.Reconciler(CategoryEnemy).Len())
	h, ok := s.Reconciler(CategoryEnemy).Lookup(Key("enemy", "e1"))
	require.True(t, ok)
	assert.Equal(t, 620.0, h.X)
	assert.False(t, sc.Done())

	require.True(t, sc.Step(s))
	assert.True(t, sc.Done())
	assert.Equal(t, 0, s.Reconciler(CategoryEnemy).Len())
	assert.Equal(t, 3, s.Effects().Stats().Spawned, "one death burst per enemy")
	assert.False(t, sc.Step(s))
}

func TestScenarioMutations(t *testing.T) {
	sc, err := ParseScenario([]byte(`
dt: 0.1
steps:
  - {action: spawn, category: enemy, id: a, x: 100, y: 100}
  - {action: damage, category: enemy, id: a, amount: 0.75}
  - {action: status, category: enemy, id: a, flags: [frozen]}
  - {action: move, category: enemy, id: a, x: 200, y: 150}
  - {action: zoom, zoom: 2}
  - {action: move, x: 300, y: 400}
  - {action: wait, frames: 3}
`))
	require.NoError(t, err)
	s := newTestScene(t)
	assert.Equal(t, 3, sc.Run(s, 100))
	assert.True(t, sc.Done())

	e := sc.Frame().Entities[CategoryEnemy]
	require.Len(t, e, 1)
	assert.InDelta(t, 0.25, e[0].Health, 1e-9)
	assert.Equal(t, FlagFrozen, e[0].Flags)
	assert.Equal(t, Vec2{X: 200, Y: 150}, e[0].Position)
	assert.Equal(t, 2.0, s.Camera().Zoom)
	assert.Equal(t, 300.0, s.Camera().X)
	assert.InDelta(t, 0.3, sc.Frame().Time, 1e-9)
	assert.Equal(t, uint64(3), sc.Frame().Tick)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - {action: wait}\n"), 0o644))
	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 1, sc.Run(newTestScene(t), 10))

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read scenario")
}
