package rampart

import (
	"github.com/kamstrup/intmap"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// AnimKey names an animation slot on a Handle. At most one animation runs
// per key; playing a new one replaces the old.
type AnimKey uint8

const (
	AnimSpawn   AnimKey = iota // scale-in after creation
	AnimExit                   // fade-out before release
	AnimFlash                  // one-shot phase-change flash
	AnimPulse                  // status loop (slowed, frozen)
	AnimDetail                 // LOD detail fade
	AnimAmbient                // ambient loop, paused by sector visibility
	numAnimKeys
)

// Field selects the handle property an animation drives.
type Field uint8

const (
	FieldAlpha Field = iota
	FieldScale       // ScaleX and ScaleY together
	FieldRotation
	FieldX
	FieldY
)

// Easing selects a gween easing function. It is an enum rather than a
// function value so animation specs stay comparable.
type Easing uint8

const (
	EaseLinear Easing = iota
	EaseOutQuad
	EaseInQuad
	EaseInOutSine
	EaseOutBack
	EaseOutCubic
)

var easeFuncs = [...]ease.TweenFunc{
	EaseLinear:    ease.Linear,
	EaseOutQuad:   ease.OutQuad,
	EaseInQuad:    ease.InQuad,
	EaseInOutSine: ease.InOutSine,
	EaseOutBack:   ease.OutBack,
	EaseOutCubic:  ease.OutCubic,
}

func (e Easing) fn() ease.TweenFunc {
	if int(e) < len(easeFuncs) {
		return easeFuncs[e]
	}
	return ease.Linear
}

// LoopMode controls what happens when an animation reaches its end.
type LoopMode uint8

const (
	LoopNone    LoopMode = iota // complete and report
	LoopRestart                 // re-arm from From
	LoopYoyo                    // re-arm with From and To swapped
)

// Completion is the follow-up action reported when a non-looping animation
// finishes. The scene routes it; animations never hold callbacks.
type Completion uint8

const (
	CompleteNone   Completion = iota
	CompleteRetire            // release the owning entity to its pool
	CompleteHide              // set Visible = false
)

// Animation is a declarative animation record. It is comparable, so playing
// an identical record on a slot where it already runs is a no-op.
type Animation struct {
	Field    Field
	From, To float64
	// Duration in seconds.
	Duration float64
	Ease     Easing
	Loop     LoopMode
	Then     Completion
}

// animState is the per-slot runtime record.
type animState struct {
	spec    Animation
	tween   *gween.Tween
	forward bool
}

func newAnimState(a Animation) *animState {
	st := &animState{spec: a, forward: true}
	st.arm()
	return st
}

func (st *animState) arm() {
	from, to := st.spec.From, st.spec.To
	if !st.forward {
		from, to = to, from
	}
	d := st.spec.Duration
	if d <= 0 {
		d = 1e-6
	}
	st.tween = gween.New(float32(from), float32(to), float32(d), st.spec.Ease.fn())
}

// Completed reports a finished animation and its follow-up action.
type Completed struct {
	ID   HandleID
	Key  AnimKey
	Then Completion
}

// Animator advances every animation of an arena with a single time-stepped
// update. Handles with running animations are tracked in an active list with
// an intmap position index, so Step never scans idle handles.
type Animator struct {
	arena  *Arena
	active []HandleID
	index  *intmap.Map[HandleID, int]
	done   []Completed

	// Starts counts Play calls that (re)started an animation. Tests and
	// diagnostics use it to detect redundant restarts.
	Starts int
}

// NewAnimator creates an animator for the given arena.
func NewAnimator(arena *Arena) *Animator {
	return &Animator{
		arena:  arena,
		active: make([]HandleID, 0, 256),
		index:  intmap.New[HandleID, int](256),
	}
}

// Play starts a on h's slot key. If the identical record is already running
// on that slot nothing happens and Play returns false.
func (an *Animator) Play(h *Handle, key AnimKey, a Animation) bool {
	if cur := h.anims[key]; cur != nil {
		if cur.spec == a {
			return false
		}
	} else {
		h.animCount++
	}
	st := newAnimState(a)
	h.anims[key] = st
	an.Starts++
	// Apply the starting value immediately so the first rendered frame does
	// not show the pre-animation state.
	val, _ := st.tween.Update(0)
	applyField(h, a.Field, float64(val))
	an.track(h)
	return true
}

// Running reports whether an animation occupies h's slot key.
func (an *Animator) Running(h *Handle, key AnimKey) bool {
	return h.anims[key] != nil
}

// Spec returns the record running on h's slot key.
func (an *Animator) Spec(h *Handle, key AnimKey) (Animation, bool) {
	if st := h.anims[key]; st != nil {
		return st.spec, true
	}
	return Animation{}, false
}

// Cancel stops the animation on h's slot key, leaving the property at its
// current value.
func (an *Animator) Cancel(h *Handle, key AnimKey) {
	if h.anims[key] == nil {
		return
	}
	h.anims[key] = nil
	h.animCount--
	if h.animCount == 0 {
		an.untrack(h.id)
	}
}

// CancelAll stops every animation on h and its descendants.
func (an *Animator) CancelAll(h *Handle) {
	an.arena.Walk(h, func(n *Handle, _ int) bool {
		if n.animCount > 0 {
			n.anims = [numAnimKeys]*animState{}
			n.animCount = 0
			an.untrack(n.id)
		}
		return true
	})
}

// Active returns the number of handles with at least one animation.
func (an *Animator) Active() int {
	return len(an.active)
}

// Step advances all animations by dt seconds. Handles that are paused (or
// whose ancestors are paused) keep their state and consume nothing. Returns
// the animations that completed during this step; the slice is reused by
// the next call.
func (an *Animator) Step(dt float64) []Completed {
	an.done = an.done[:0]
	fdt := float32(dt)
	for i := 0; i < len(an.active); {
		id := an.active[i]
		h := an.arena.Get(id)
		if h == nil || h.animCount == 0 {
			an.untrack(id)
			continue
		}
		if an.pausedChain(h) {
			i++
			continue
		}
		for k := range h.anims {
			st := h.anims[k]
			if st == nil {
				continue
			}
			val, finished := st.tween.Update(fdt)
			applyField(h, st.spec.Field, float64(val))
			if !finished {
				continue
			}
			switch st.spec.Loop {
			case LoopRestart:
				st.arm()
			case LoopYoyo:
				st.forward = !st.forward
				st.arm()
			default:
				h.anims[k] = nil
				h.animCount--
				an.done = append(an.done, Completed{ID: id, Key: AnimKey(k), Then: st.spec.Then})
				if st.spec.Then == CompleteHide {
					h.Visible = false
				}
			}
		}
		if h.animCount == 0 {
			an.untrack(id)
			continue
		}
		i++
	}
	return an.done
}

// Reset forgets every tracked handle.
func (an *Animator) Reset() {
	an.active = an.active[:0]
	an.index.Clear()
	an.done = an.done[:0]
	an.Starts = 0
}

func (an *Animator) pausedChain(h *Handle) bool {
	for p := h; p != nil; p = an.arena.Get(p.parent) {
		if p.paused {
			return true
		}
	}
	return false
}

func (an *Animator) track(h *Handle) {
	if _, ok := an.index.Get(h.id); ok {
		return
	}
	an.index.Put(h.id, len(an.active))
	an.active = append(an.active, h.id)
}

// untrack swap-removes id from the active list.
func (an *Animator) untrack(id HandleID) {
	pos, ok := an.index.Get(id)
	if !ok {
		return
	}
	last := len(an.active) - 1
	moved := an.active[last]
	an.active[pos] = moved
	an.active = an.active[:last]
	an.index.Del(id)
	if moved != id {
		an.index.Put(moved, pos)
	}
}

// applyField writes an animated value to the handle property.
func applyField(h *Handle, f Field, v float64) {
	switch f {
	case FieldAlpha:
		h.Alpha = v
	case FieldScale:
		h.ScaleX = v
		h.ScaleY = v
	case FieldRotation:
		h.Rotation = v
	case FieldX:
		h.X = v
	case FieldY:
		h.Y = v
	}
}
