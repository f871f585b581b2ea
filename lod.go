package rampart

import (
	"math"

	"github.com/kamstrup/intmap"
)

// Visibility is the per-pass LOD decision for one handle.
type Visibility uint8

const (
	VisFull   Visibility = iota // inside the padded visible rect
	VisPaused                   // off-screen within the hide margin; animations frozen
	VisHidden                   // far off-screen; not drawn, animations frozen
)

func (v Visibility) String() string {
	switch v {
	case VisFull:
		return "full"
	case VisPaused:
		return "paused"
	case VisHidden:
		return "hidden"
	}
	return "unknown"
}

// LODConfig holds the visibility and detail thresholds. Zoom follows the
// camera convention: larger values are closer.
type LODConfig struct {
	// DetailZoom is the zoom at or above which fine decoration shows.
	DetailZoom float64 `toml:"detail_zoom"`
	// GlowZoom is the zoom at or above which glow halos render.
	GlowZoom float64 `toml:"glow_zoom"`
	// Padding grows the visible rect to avoid pop-in at its edges.
	Padding float64 `toml:"padding"`
	// HideMargin is how far beyond the padded rect a handle stays drawn but
	// paused before it is hidden.
	HideMargin float64 `toml:"hide_margin"`
	// DetailFade is the detail fade duration in seconds.
	DetailFade float64 `toml:"detail_fade"`
}

// DefaultLODConfig returns the default thresholds.
func DefaultLODConfig() LODConfig {
	return LODConfig{
		DetailZoom: 1.5,
		GlowZoom:   0.75,
		Padding:    64,
		HideMargin: 256,
		DetailFade: 0.25,
	}
}

// LODResult summarizes one pass.
type LODResult struct {
	Tracked int
	Full    int
	Paused  int
	Hidden  int

	// Entered and Left count viewport membership edges against the previous
	// pass.
	Entered int
	Left    int

	DetailBuilt int
	// Mutations counts every handle write the pass made. Zero on a pass
	// whose decisions all match the previous one.
	Mutations int
}

// DetailBuilder builds the detail part for a handle, or returns nil.
type DetailBuilder func(a *Arena, h *Handle) *Handle

// LODController derives visibility, pause state, detail, and glow from the
// camera every frame. Decisions are recomputed from scratch; only the
// previous pass's membership is kept, to count edges.
type LODController struct {
	arena    *Arena
	animator *Animator
	cfg      LODConfig
	detail   DetailBuilder

	prev *intmap.Map[HandleID, Visibility]
	next *intmap.Map[HandleID, Visibility]
	last LODResult
}

// NewLODController creates a controller. detail may be nil when no handle
// has decoration.
func NewLODController(arena *Arena, animator *Animator, cfg LODConfig, detail DetailBuilder) *LODController {
	def := DefaultLODConfig()
	if cfg.DetailZoom <= 0 {
		cfg.DetailZoom = def.DetailZoom
	}
	if cfg.GlowZoom <= 0 {
		cfg.GlowZoom = def.GlowZoom
	}
	if cfg.Padding < 0 {
		cfg.Padding = 0
	}
	if cfg.HideMargin < 0 {
		cfg.HideMargin = 0
	}
	if cfg.DetailFade <= 0 {
		cfg.DetailFade = def.DetailFade
	}
	return &LODController{
		arena:    arena,
		animator: animator,
		cfg:      cfg,
		detail:   detail,
		prev:     intmap.New[HandleID, Visibility](256),
		next:     intmap.New[HandleID, Visibility](256),
	}
}

// Config returns the active thresholds.
func (l *LODController) Config() LODConfig {
	return l.cfg
}

// Last returns the result of the most recent pass.
func (l *LODController) Last() LODResult {
	return l.last
}

// State returns the visibility a handle had in the most recent pass.
func (l *LODController) State(id HandleID) (Visibility, bool) {
	return l.prev.Get(id)
}

// Pass evaluates every tracked handle against cam. Calling it twice with an
// unchanged camera and tracked set mutates nothing the second time.
func (l *LODController) Pass(cam *Camera, tracked []*Handle) LODResult {
	var res LODResult
	bounds := cam.VisibleBounds()
	full := bounds.Expand(l.cfg.Padding)
	outer := full.Expand(l.cfg.HideMargin)
	zoom := cam.zoom()
	wantDetail := zoom >= l.cfg.DetailZoom
	wantGlow := zoom >= l.cfg.GlowZoom

	l.next.Clear()
	for _, h := range tracked {
		if h == nil || l.arena.Get(h.id) != h {
			continue
		}
		res.Tracked++
		ext := l.extent(h)
		vis := VisHidden
		switch {
		case full.Intersects(ext):
			vis = VisFull
		case outer.Intersects(ext):
			vis = VisPaused
		}
		l.next.Put(h.id, vis)

		prev, had := l.prev.Get(h.id)
		if vis == VisFull && (!had || prev != VisFull) {
			res.Entered++
		} else if vis != VisFull && had && prev == VisFull {
			res.Left++
		}

		switch vis {
		case VisFull:
			res.Full++
			res.Mutations += setFlag(&h.hidden, false) + setFlag(&h.paused, false)
			// Detail only changes on screen; off-screen handles catch up
			// when they come back.
			res.Mutations += l.applyDetail(h, wantDetail, &res)
		case VisPaused:
			res.Paused++
			res.Mutations += setFlag(&h.hidden, false) + setFlag(&h.paused, true)
		default:
			res.Hidden++
			res.Mutations += setFlag(&h.hidden, true) + setFlag(&h.paused, true)
		}
		res.Mutations += l.applyGlow(h, wantGlow)
	}
	l.prev, l.next = l.next, l.prev
	l.last = res
	return res
}

// extent is the world-space box LOD tests a handle with: the link line for
// line bodies, otherwise the glow radius around the origin.
func (l *LODController) extent(h *Handle) Rect {
	if body := l.arena.Part(h, SlotBody); body != nil && body.Shape == ShapeLine {
		return l.arena.WorldBounds(body)
	}
	p := l.arena.WorldPosition(h)
	r := h.Tags.Size
	if !isFinite(r) || r <= 0 {
		r = defaultEntitySize
	}
	r *= 1.8 * math.Max(math.Abs(h.ScaleX), math.Abs(h.ScaleY))
	return Rect{X: p.X - r, Y: p.Y - r, Width: 2 * r, Height: 2 * r}
}

func (l *LODController) applyDetail(h *Handle, want bool, res *LODResult) int {
	if h.detailShown == want {
		return 0
	}
	if want {
		if l.detail == nil {
			return 0
		}
		part, created := l.arena.EnsurePart(h, SlotDetail, func(a *Arena) *Handle {
			return l.detail(a, h)
		})
		if part == nil {
			return 0
		}
		if created {
			res.DetailBuilt++
		}
		part.Visible = true
		l.animator.Play(part, AnimDetail, Animation{
			Field: FieldAlpha, From: part.Alpha, To: 1,
			Duration: l.cfg.DetailFade, Ease: EaseOutQuad,
		})
		h.detailShown = true
		return 1
	}
	h.detailShown = false
	if part := l.arena.Part(h, SlotDetail); part != nil {
		l.animator.Play(part, AnimDetail, Animation{
			Field: FieldAlpha, From: part.Alpha, To: 0,
			Duration: l.cfg.DetailFade, Ease: EaseOutQuad,
			Then: CompleteHide,
		})
	}
	return 1
}

func (l *LODController) applyGlow(h *Handle, want bool) int {
	glow := l.arena.Part(h, SlotGlow)
	if glow == nil || h.glowEnabled == want {
		return 0
	}
	h.glowEnabled = want
	glow.Visible = want
	return 1
}

// forget drops id from the previous-pass membership.
func (l *LODController) forget(id HandleID) {
	l.prev.Del(id)
}

// Reset forgets all membership.
func (l *LODController) Reset() {
	l.prev.Clear()
	l.next.Clear()
	l.last = LODResult{}
}

// setFlag writes v to *f and returns 1 when it changed.
func setFlag(f *bool, v bool) int {
	if *f == v {
		return 0
	}
	*f = v
	return 1
}
