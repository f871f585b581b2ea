package rampart

import "math"

// Affine is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

// IdentityAffine is the identity matrix.
var IdentityAffine = Affine{1, 0, 0, 1, 0, 0}

// LocalTransform computes a handle's local matrix.
//
// Composition order: Scale -> Rotate -> Translate(X, Y)
func LocalTransform(h *Handle) Affine {
	sin, cos := math.Sincos(h.Rotation)
	sx, sy := h.ScaleX, h.ScaleY
	return Affine{cos * sx, sin * sx, -sin * sy, cos * sy, h.X, h.Y}
}

// Multiply returns p * c (c applied first).
func (p Affine) Multiply(c Affine) Affine {
	return Affine{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Invert computes the inverse matrix.
// Returns the identity matrix if m is singular (determinant ~ 0).
func (m Affine) Invert() Affine {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return IdentityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms a point.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// WorldTransform composes the matrices from the root down to h.
func (a *Arena) WorldTransform(h *Handle) Affine {
	m := LocalTransform(h)
	for p := a.Get(h.parent); p != nil; p = a.Get(p.parent) {
		m = LocalTransform(p).Multiply(m)
	}
	return m
}

// WorldPosition returns h's origin in world space.
func (a *Arena) WorldPosition(h *Handle) Vec2 {
	m := a.WorldTransform(h)
	return Vec2{m[4], m[5]}
}

// WorldBounds returns the axis-aligned box of h's unit outline scaled by
// Size and transformed to world space. Line shapes use End instead of Size
// along their length.
func (a *Arena) WorldBounds(h *Handle) Rect {
	m := a.WorldTransform(h)
	r := h.Size
	if r <= 0 || !isFinite(r) {
		r = 1
	}
	if h.Shape == ShapeLine {
		return aabb(m, []Vec2{{0, 0}, h.End})
	}
	return aabb(m, []Vec2{{-r, -r}, {r, -r}, {r, r}, {-r, r}})
}

func aabb(m Affine, pts []Vec2) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		x, y := m.Apply(p.X, p.Y)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
