package rampart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotKey(t *testing.T) {
	e := enemy("e1", 0, 0)
	assert.Equal(t, "enemy_e1", e.Key())

	pylon := snap(CategoryBossMechanic, "p1", RolePylon, 0, 0)
	shield := snap(CategoryBossMechanic, "p1", RoleShield, 0, 0)
	assert.Equal(t, "pylon_p1", pylon.Key())
	assert.NotEqual(t, pylon.Key(), shield.Key(), "roles partition one entity")
}

func TestDefaultLookTypeKey(t *testing.T) {
	looks := DefaultLooks()
	tests := []struct {
		snap EntitySnapshot
		want string
	}{
		{EntitySnapshot{Category: CategoryEnemy, Kind: "tank"}, "enemy::square"},
		{EntitySnapshot{Category: CategoryEnemy, Kind: "mystery"}, "enemy::circle"},
		{EntitySnapshot{Category: CategoryBossMechanic, Role: RoleShield}, "boss:shield:ring"},
		{EntitySnapshot{Category: CategoryBossMechanic, Role: RoleLink, Kind: "boss"}, "boss:link:line"},
		{EntitySnapshot{Category: CategoryPickup}, "pickup::diamond"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looks[tt.snap.Category].TypeKey(&tt.snap))
	}
}

func TestDefaultLookBuildParts(t *testing.T) {
	a := NewArena()
	looks := DefaultLooks()

	s := EntitySnapshot{Category: CategoryEnemy, Kind: "elite", Size: 10}
	h := looks[CategoryEnemy].Build(a, &s)
	assert.Equal(t, ShapeDiamond, h.Tags.Shape)
	for _, slot := range []Slot{SlotBody, SlotGlow, SlotFill, SlotStatus} {
		assert.NotNil(t, a.Part(h, slot), slot.String())
	}
	assert.Nil(t, a.Part(h, SlotDetail), "detail is left to LOD")
	assert.False(t, a.Part(h, SlotGlow).Visible)

	detail := looks[CategoryEnemy].BuildDetail(a, h)
	require.NotNil(t, detail)
	assert.Equal(t, 0.0, detail.Alpha)

	link := EntitySnapshot{Category: CategoryBossMechanic, Role: RoleLink}
	lh := looks[CategoryBossMechanic].Build(a, &link)
	assert.Equal(t, 1, lh.NumChildren(), "links are a bare line")
	assert.Nil(t, looks[CategoryBossMechanic].BuildDetail(a, lh))

	shield := EntitySnapshot{Category: CategoryBossMechanic, Role: RoleShield}
	sh := looks[CategoryBossMechanic].Build(a, &shield)
	assert.Nil(t, a.Part(sh, SlotFill), "shields carry no health ring")

	assert.Nil(t, looks[CategoryParticle].BuildDetail(a, looks[CategoryParticle].Build(a, &EntitySnapshot{Category: CategoryParticle})))
}
