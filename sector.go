package rampart

import (
	"math"

	"github.com/kamstrup/intmap"
)

// SectorConfig configures region-level visibility for ambient animation.
type SectorConfig struct {
	// CellSize is the sector edge length in world units.
	CellSize float64 `toml:"cell_size"`
	// Interval is the re-evaluation period in seconds.
	Interval float64 `toml:"interval"`
	// Padding grows the visible rect before sectors are tested.
	Padding float64 `toml:"padding"`
}

// DefaultSectorConfig returns the default grid.
func DefaultSectorConfig() SectorConfig {
	return SectorConfig{CellSize: 512, Interval: 0.25, Padding: 128}
}

// SectorID packs a grid cell coordinate.
type SectorID uint64

// MakeSectorID packs cell (cx, cy).
func MakeSectorID(cx, cy int32) SectorID {
	return SectorID(uint64(uint32(cx))<<32 | uint64(uint32(cy)))
}

// Cell unpacks the grid coordinate.
func (s SectorID) Cell() (cx, cy int32) {
	return int32(uint32(s >> 32)), int32(uint32(s))
}

// SectorStats are cumulative sector-pass counters.
type SectorStats struct {
	Passes  int
	Paused  int
	Resumed int
}

// SectorVisibility pauses and resumes ambient handles a whole sector at a
// time. Ambient effects are keyed by region rather than entity, so this runs
// on a throttled interval independent of the per-entity LOD pass.
type SectorVisibility struct {
	arena *Arena
	cfg   SectorConfig

	members  *intmap.Map[SectorID, []HandleID]
	sectorOf *intmap.Map[HandleID, SectorID]
	visible  *intmap.Map[SectorID, bool]

	elapsed float64
	dirty   bool
	stats   SectorStats
}

// NewSectorVisibility creates an empty sector grid.
func NewSectorVisibility(arena *Arena, cfg SectorConfig) *SectorVisibility {
	def := DefaultSectorConfig()
	if !isFinite(cfg.CellSize) || cfg.CellSize <= 0 {
		cfg.CellSize = def.CellSize
	}
	if !isFinite(cfg.Interval) || cfg.Interval < 0 {
		cfg.Interval = def.Interval
	}
	if !isFinite(cfg.Padding) || cfg.Padding < 0 {
		cfg.Padding = 0
	}
	return &SectorVisibility{
		arena:    arena,
		cfg:      cfg,
		members:  intmap.New[SectorID, []HandleID](64),
		sectorOf: intmap.New[HandleID, SectorID](256),
		visible:  intmap.New[SectorID, bool](64),
	}
}

// SectorAt returns the sector containing world point (x, y).
func (sv *SectorVisibility) SectorAt(x, y float64) SectorID {
	cx := int32(math.Floor(x / sv.cfg.CellSize))
	cy := int32(math.Floor(y / sv.cfg.CellSize))
	return MakeSectorID(cx, cy)
}

// Register files h under the sector of its world position. A handle joining
// a known sector takes its state at once; an unseen sector is evaluated on
// the next Update.
func (sv *SectorVisibility) Register(h *Handle) SectorID {
	sv.Unregister(h.id)
	p := sv.arena.WorldPosition(h)
	sid := sv.SectorAt(p.X, p.Y)
	list, _ := sv.members.Get(sid)
	sv.members.Put(sid, append(list, h.id))
	sv.sectorOf.Put(h.id, sid)
	if vis, seen := sv.visible.Get(sid); seen {
		h.paused = !vis
	} else {
		sv.dirty = true
	}
	return sid
}

// Unregister removes id from its sector. No-op when not registered.
func (sv *SectorVisibility) Unregister(id HandleID) {
	sid, ok := sv.sectorOf.Get(id)
	if !ok {
		return
	}
	sv.sectorOf.Del(id)
	list, _ := sv.members.Get(sid)
	for i, m := range list {
		if m == id {
			list[i] = list[len(list)-1]
			list = list[:len(list)-1]
			break
		}
	}
	if len(list) == 0 {
		sv.members.Del(sid)
		sv.visible.Del(sid)
		return
	}
	sv.members.Put(sid, list)
}

// Len returns the number of registered handles.
func (sv *SectorVisibility) Len() int {
	return sv.sectorOf.Len()
}

// Visible reports whether sector sid was visible at the last evaluation.
func (sv *SectorVisibility) Visible(sid SectorID) bool {
	v, _ := sv.visible.Get(sid)
	return v
}

// Stats returns the cumulative counters.
func (sv *SectorVisibility) Stats() SectorStats {
	return sv.stats
}

// Update accumulates dt and re-evaluates sectors once Interval has elapsed
// (or after a registration). Returns true when a pass ran.
func (sv *SectorVisibility) Update(dt float64, cam *Camera) bool {
	sv.elapsed += dt
	if sv.elapsed < sv.cfg.Interval && !sv.dirty {
		return false
	}
	sv.elapsed = 0
	sv.dirty = false
	sv.Evaluate(cam)
	return true
}

// Evaluate runs a sector pass now. Sectors whose visibility is unchanged
// since the last pass are not touched.
func (sv *SectorVisibility) Evaluate(cam *Camera) {
	sv.stats.Passes++
	view := cam.VisibleBounds().Expand(sv.cfg.Padding)
	minX := int32(math.Floor(view.X / sv.cfg.CellSize))
	minY := int32(math.Floor(view.Y / sv.cfg.CellSize))
	maxX := int32(math.Floor((view.X + view.Width) / sv.cfg.CellSize))
	maxY := int32(math.Floor((view.Y + view.Height) / sv.cfg.CellSize))

	sv.members.ForEach(func(sid SectorID, list []HandleID) bool {
		cx, cy := sid.Cell()
		vis := cx >= minX && cx <= maxX && cy >= minY && cy <= maxY
		prev, seen := sv.visible.Get(sid)
		if seen && prev == vis {
			return true
		}
		sv.visible.Put(sid, vis)
		for _, id := range list {
			h := sv.arena.Get(id)
			if h == nil {
				continue
			}
			if setFlag(&h.paused, !vis) == 1 {
				if vis {
					sv.stats.Resumed++
				} else {
					sv.stats.Paused++
				}
			}
		}
		return true
	})
	sv.prune()
}

// prune drops registrations whose handles were freed.
func (sv *SectorVisibility) prune() {
	var stale []HandleID
	sv.sectorOf.ForEach(func(id HandleID, _ SectorID) bool {
		if sv.arena.Get(id) == nil {
			stale = append(stale, id)
		}
		return true
	})
	for _, id := range stale {
		sv.Unregister(id)
	}
}

// Reset drops every registration.
func (sv *SectorVisibility) Reset() {
	sv.members.Clear()
	sv.sectorOf.Clear()
	sv.visible.Clear()
	sv.elapsed = 0
	sv.dirty = false
}
