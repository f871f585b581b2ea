package rampart

import (
	"image/color"
	"math"
	"math/rand/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// RGBA converts the color to a premultiplied color.RGBA.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// Lerp linearly interpolates each component toward to by t.
func (c Color) Lerp(to Color, t float64) Color {
	return Color{
		R: lerp(c.R, to.R, t),
		G: lerp(c.G, to.G, t),
		B: lerp(c.B, to.B, t),
		A: lerp(c.A, to.A, t),
	}
}

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions.
type Vec2 struct {
	X, Y float64
}

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Expand returns r grown by m on every side. Negative m shrinks it.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// Range is a general-purpose min/max range.
type Range struct {
	Min, Max float64
}

// Random returns a random float64 in [Min, Max].
func (r Range) Random() float64 {
	if r.Min == r.Max {
		return r.Min
	}
	return r.Min + rand.Float64()*(r.Max-r.Min)
}

// Category groups entities that share one reconciler and one scene layer.
type Category uint8

const (
	CategoryEnemy        Category = iota // enemies, including bosses
	CategoryProjectile                   // tower shots
	CategoryPickup                       // collectible drops
	CategoryParticle                     // simulation-owned particles with lifetimes
	CategoryBossMechanic                 // pylons, shields, links
	NumCategories
)

// Categories lists every category in reconciliation order. Boss mechanics run
// last so the boss phase cached by the enemy pass is current.
var Categories = [NumCategories]Category{
	CategoryEnemy,
	CategoryProjectile,
	CategoryPickup,
	CategoryParticle,
	CategoryBossMechanic,
}

func (c Category) String() string {
	switch c {
	case CategoryEnemy:
		return "enemy"
	case CategoryProjectile:
		return "projectile"
	case CategoryPickup:
		return "pickup"
	case CategoryParticle:
		return "particle"
	case CategoryBossMechanic:
		return "boss"
	default:
		return "unknown"
	}
}

// ParseCategory converts a category name back to a Category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// Slot names a typed sub-part of a Handle.
type Slot uint8

const (
	SlotBody   Slot = iota // main silhouette
	SlotFill               // health fill, rebuilt on health change
	SlotGlow               // glow halo, toggled by LOD
	SlotDetail             // fine decoration, lazily built by LOD
	SlotStatus             // slow/freeze ring
	SlotLink               // connecting line to a target
	SlotHint               // directional hint
	numSlots
)

var slotNames = [numSlots]string{"body", "fill", "glow", "detail", "status", "link", "hint"}

func (s Slot) String() string {
	if s < numSlots {
		return slotNames[s]
	}
	return "unknown"
}

// ShapeKind selects the outline the geometry cache produces for a handle.
type ShapeKind uint8

const (
	ShapeNone ShapeKind = iota // containers
	ShapeCircle
	ShapeSquare
	ShapeTriangle
	ShapeDiamond
	ShapeHexagon
	ShapeRing
	ShapeLine
)

var shapeNames = map[string]ShapeKind{
	"none":     ShapeNone,
	"circle":   ShapeCircle,
	"square":   ShapeSquare,
	"triangle": ShapeTriangle,
	"diamond":  ShapeDiamond,
	"hexagon":  ShapeHexagon,
	"ring":     ShapeRing,
	"line":     ShapeLine,
}

// ParseShape converts a shape name to a ShapeKind. Unknown names map to
// ShapeCircle.
func ParseShape(s string) ShapeKind {
	if k, ok := shapeNames[s]; ok {
		return k
	}
	return ShapeCircle
}

func (k ShapeKind) String() string {
	for name, v := range shapeNames {
		if v == k {
			return name
		}
	}
	return "unknown"
}

// --- numeric helpers ---

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// safeFraction clamps a ratio to [0, 1], returning def when it is not finite.
func safeFraction(f, def float64) (float64, bool) {
	if !isFinite(f) {
		return def, false
	}
	return clamp01(f), true
}

// lerp linearly interpolates between a and b by t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
