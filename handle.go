package rampart

// HandleID references a Handle inside an Arena. The low bits are the slot
// index (+1, so the zero value means "none") and the high bits a generation
// counter, so an ID kept after its handle was freed never resolves to the
// slot's next occupant.
type HandleID uint32

const (
	indexBits = 20
	indexMask = 1<<indexBits - 1
	genMask   = 1<<(32-indexBits) - 1
)

func makeHandleID(index int, gen uint32) HandleID {
	return HandleID(gen<<indexBits | uint32(index+1))
}

func (id HandleID) index() int {
	return int(uint32(id)&indexMask) - 1
}

func (id HandleID) gen() uint32 {
	return uint32(id) >> indexBits
}

// Tags carry the metadata needed to rebuild spawn and death effects without
// consulting the original snapshot.
type Tags struct {
	Shape ShapeKind
	Color Color
	Size  float64
	Kind  string
}

// owner records which reconciler entry a handle belongs to, so animation
// completions can be routed back without closures.
type owner struct {
	category Category
	key      string
	set      bool
}

// Handle is the engine-owned drawable node. A single flat struct is used for
// every kind of drawable; sub-parts are Handles too, referenced through
// typed slots.
type Handle struct {
	id   HandleID
	Name string

	// Shape and Size describe the geometry. Size is the radius (or half
	// extent) in local units before scaling. End is the local end point for
	// ShapeLine. Fraction trims ring and bar shapes (health fill).
	Shape    ShapeKind
	Size     float64
	End      Vec2
	Fraction float64

	// Hierarchy (index references into the arena)
	parent   HandleID
	children []HandleID
	parts    [numSlots]HandleID

	// Transform (local)
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64

	Alpha   float64
	Color   Color
	Visible bool
	// Additive marks nodes drawn with additive blending (glow halos, sparks).
	Additive bool

	Tags Tags

	// Engine state
	anims       [numAnimKeys]*animState
	animCount   int
	paused      bool
	hidden      bool
	glowEnabled bool
	detailShown bool
	pooled      bool
	typeKey     string
	owner       owner
}

// handleDefaults sets the common default field values for new handles.
func handleDefaults(h *Handle) {
	h.ScaleX = 1
	h.ScaleY = 1
	h.Alpha = 1
	h.Color = ColorWhite
	h.Visible = true
	h.Fraction = 1
}

// ID returns the handle's arena reference.
func (h *Handle) ID() HandleID {
	return h.id
}

// Parent returns the parent reference, or zero when detached.
func (h *Handle) Parent() HandleID {
	return h.parent
}

// Children returns the child references. The returned slice MUST NOT be
// mutated by the caller.
func (h *Handle) Children() []HandleID {
	return h.children
}

// NumChildren returns the number of children, slot parts included.
func (h *Handle) NumChildren() int {
	return len(h.children)
}

// PartID returns the reference stored in the given slot, or zero.
func (h *Handle) PartID(s Slot) HandleID {
	return h.parts[s]
}

// Hidden reports whether the LOD controller hid this handle.
func (h *Handle) Hidden() bool {
	return h.hidden
}

// Paused reports whether this handle's animations are frozen.
func (h *Handle) Paused() bool {
	return h.paused
}

// GlowEnabled reports whether glow rendering is on for this handle.
func (h *Handle) GlowEnabled() bool {
	return h.glowEnabled
}

// DetailShown reports whether the detail part is faded in.
func (h *Handle) DetailShown() bool {
	return h.detailShown
}

// Pooled reports whether the handle currently sits in a pool free list.
func (h *Handle) Pooled() bool {
	return h.pooled
}

// TypeKey returns the pool type key the handle was acquired under.
func (h *Handle) TypeKey() string {
	return h.typeKey
}

// Animating reports whether any animation is registered on this handle.
func (h *Handle) Animating() bool {
	return h.animCount > 0
}

// SetPosition sets the local position.
func (h *Handle) SetPosition(x, y float64) {
	h.X = x
	h.Y = y
}

// SetScale sets ScaleX and ScaleY.
func (h *Handle) SetScale(sx, sy float64) {
	h.ScaleX = sx
	h.ScaleY = sy
}

// resetBaseline restores the pooled baseline: opaque, visible, unrotated,
// unit scale, no LOD state. Slot parts are kept; the caller strips
// temporary children and animations.
func (h *Handle) resetBaseline() {
	h.X, h.Y = 0, 0
	h.Rotation = 0
	h.ScaleX, h.ScaleY = 1, 1
	h.Alpha = 1
	h.Visible = true
	h.paused = false
	h.hidden = false
	h.detailShown = false
	h.glowEnabled = false
	h.owner = owner{}
}
