package rampart

import "strings"

// Look builds the drawables for one category. Concrete art lives outside
// this package; DefaultLook gives every category a generic silhouette so the
// mechanism runs without it.
type Look interface {
	// TypeKey selects the pool bucket. Handles sharing a key must share a
	// part structure, since pooled handles are reused as-is.
	TypeKey(s *EntitySnapshot) string
	// Build constructs a detached handle with every part needed at spawn.
	Build(a *Arena, s *EntitySnapshot) *Handle
	// BuildDetail constructs the fine decoration part for h, or returns nil
	// when the look has none. Called lazily by the LOD controller.
	BuildDetail(a *Arena, h *Handle) *Handle
	// Resize rescales the parts of h that derive from the entity size. It
	// runs on creation, including pooled reuse, and whenever size changes.
	Resize(a *Arena, h *Handle, size float64)
}

// Part sizes relative to the entity size.
const (
	glowScale   = 1.8
	fillScale   = 1.4
	statusScale = 1.7
	hintScale   = 0.4
	detailScale = 0.45
)

// DefaultLook is a generic Look: a container handle with a body shape and
// optional fill ring, glow halo, status ring, link line, and heading hint.
type DefaultLook struct {
	Category Category
	// Shapes maps snapshot kinds to body shapes; unknown kinds use Fallback.
	Shapes   map[string]ShapeKind
	Fallback ShapeKind

	Fill   bool // health ring
	Glow   bool // glow halo (toggled by LOD)
	Status bool // slow/freeze ring
	Hint   bool // heading triangle aimed at Target
	Detail bool // inner decoration built lazily by LOD
}

// Role names with special structure.
const (
	RoleLink   = "link"
	RoleShield = "shield"
	RolePylon  = "pylon"
)

// DefaultLooks returns the generic look for every category.
func DefaultLooks() [NumCategories]Look {
	return [NumCategories]Look{
		CategoryEnemy: &DefaultLook{
			Category: CategoryEnemy,
			Shapes: map[string]ShapeKind{
				"basic": ShapeCircle, "fast": ShapeTriangle, "tank": ShapeSquare,
				"elite": ShapeDiamond, "boss": ShapeHexagon,
			},
			Fallback: ShapeCircle,
			Fill:     true, Glow: true, Status: true, Detail: true,
		},
		CategoryProjectile: &DefaultLook{
			Category: CategoryProjectile,
			Shapes:   map[string]ShapeKind{"bolt": ShapeTriangle, "shell": ShapeCircle},
			Fallback: ShapeCircle,
			Glow:     true,
		},
		CategoryPickup: &DefaultLook{
			Category: CategoryPickup,
			Fallback: ShapeDiamond,
			Glow:     true, Detail: true,
		},
		CategoryParticle: &DefaultLook{
			Category: CategoryParticle,
			Fallback: ShapeCircle,
		},
		CategoryBossMechanic: &DefaultLook{
			Category: CategoryBossMechanic,
			Shapes: map[string]ShapeKind{
				RolePylon: ShapeHexagon, RoleShield: ShapeRing, RoleLink: ShapeLine,
			},
			Fallback: ShapeCircle,
			Fill:     true, Glow: true, Hint: true, Detail: true,
		},
	}
}

func (l *DefaultLook) shapeFor(s *EntitySnapshot) ShapeKind {
	if s.Role == RoleLink {
		return ShapeLine
	}
	if k, ok := l.Shapes[s.Kind]; ok {
		return k
	}
	if k, ok := l.Shapes[s.Role]; ok {
		return k
	}
	return l.Fallback
}

// TypeKey is "{category}:{role}:{shape}".
func (l *DefaultLook) TypeKey(s *EntitySnapshot) string {
	var b strings.Builder
	b.WriteString(l.Category.String())
	b.WriteByte(':')
	b.WriteString(s.Role)
	b.WriteByte(':')
	b.WriteString(l.shapeFor(s).String())
	return b.String()
}

// Build constructs the container handle and its parts.
func (l *DefaultLook) Build(a *Arena, s *EntitySnapshot) *Handle {
	shape := l.shapeFor(s)
	root := a.New(l.TypeKey(s), ShapeNone)
	size := s.Size
	if !isFinite(size) || size <= 0 {
		size = defaultEntitySize
	}
	root.Tags = Tags{Shape: shape, Color: s.Color, Size: size, Kind: s.Kind}

	body := a.New("body", shape)
	body.Size = size
	a.SetPart(root, SlotBody, body)

	if shape == ShapeLine {
		// Links are a bare line; no decoration.
		body.Size = 2
		return root
	}

	if l.Glow {
		glow := a.New("glow", ShapeCircle)
		glow.Size = size * glowScale
		glow.Alpha = 0.35
		glow.Additive = true
		glow.Visible = false
		a.SetPart(root, SlotGlow, glow)
	}
	if l.Fill && s.Role != RoleShield {
		fill := a.New("fill", ShapeRing)
		fill.Size = size * fillScale
		a.SetPart(root, SlotFill, fill)
	}
	if l.Status {
		status := a.New("status", ShapeRing)
		status.Size = size * statusScale
		status.Color = Color{R: 0.55, G: 0.85, B: 1, A: 1}
		status.Visible = false
		a.SetPart(root, SlotStatus, status)
	}
	if l.Hint && s.Role == RolePylon {
		hint := a.New("hint", ShapeTriangle)
		hint.Size = size * hintScale
		a.SetPart(root, SlotHint, hint)
	}
	return root
}

// BuildDetail returns an inner hexagon at half size, fully transparent; the
// LOD controller fades it in.
func (l *DefaultLook) BuildDetail(a *Arena, h *Handle) *Handle {
	if !l.Detail || h.Tags.Shape == ShapeLine {
		return nil
	}
	d := a.New("detail", ShapeHexagon)
	d.Size = h.Tags.Size * detailScale
	c := h.Tags.Color
	d.Color = Color{R: c.R * 0.5, G: c.G * 0.5, B: c.B * 0.5, A: 1}
	d.Alpha = 0
	d.Visible = false
	return d
}

// Resize rescales every size-derived part present on h. Links keep their
// fixed line width.
func (l *DefaultLook) Resize(a *Arena, h *Handle, size float64) {
	if !isFinite(size) || size <= 0 {
		size = defaultEntitySize
	}
	h.Tags.Size = size
	if h.Tags.Shape == ShapeLine {
		return
	}
	if body := a.Part(h, SlotBody); body != nil {
		body.Size = size
	}
	scaled := [...]struct {
		slot  Slot
		scale float64
	}{
		{SlotGlow, glowScale},
		{SlotFill, fillScale},
		{SlotStatus, statusScale},
		{SlotHint, hintScale},
		{SlotDetail, detailScale},
	}
	for _, p := range scaled {
		if part := a.Part(h, p.slot); part != nil {
			part.Size = size * p.scale
		}
	}
}
