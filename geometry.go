package rampart

import "math"

// fractionSteps quantizes ring trims so health changes map onto a bounded
// number of cached outlines.
const fractionSteps = 32

// ringInner is the inner radius of ring outlines relative to the outer one.
const ringInner = 0.78

// GeometryKey identifies one cached outline.
type GeometryKey struct {
	Shape    ShapeKind
	Segments int
	Fraction int // trim in 1/fractionSteps units; fractionSteps = whole
}

// Geometry is a unit-sized, fan- or strip-triangulated outline. Renderers
// scale it by the handle's Size.
type Geometry struct {
	Key     GeometryKey
	Points  []Vec2
	Indices []uint16
}

// GeometryCache builds outlines on demand and keeps them keyed by shape,
// size bucket, and trim. It is owned by a Scene and emptied on teardown.
type GeometryCache struct {
	entries map[GeometryKey]*Geometry
	hits    int
	misses  int
}

// NewGeometryCache creates an empty cache.
func NewGeometryCache() *GeometryCache {
	return &GeometryCache{entries: make(map[GeometryKey]*Geometry)}
}

// SegmentsFor returns the circle segment count for an on-screen radius.
// Radii are bucketed so nearby sizes share an outline.
func SegmentsFor(radius float64) int {
	switch {
	case !isFinite(radius) || radius <= 6:
		return 8
	case radius <= 16:
		return 16
	case radius <= 48:
		return 24
	default:
		return 40
	}
}

// KeyFor computes the cache key for a handle.
func KeyFor(h *Handle) GeometryKey {
	k := GeometryKey{Shape: h.Shape, Fraction: fractionSteps}
	switch h.Shape {
	case ShapeCircle, ShapeRing:
		k.Segments = SegmentsFor(h.Size * math.Max(h.ScaleX, h.ScaleY))
	}
	if h.Shape == ShapeRing {
		f, _ := safeFraction(h.Fraction, 1)
		k.Fraction = int(math.Round(f * fractionSteps))
	}
	return k
}

// Get returns the outline for h, building it on first use.
func (c *GeometryCache) Get(h *Handle) *Geometry {
	return c.Lookup(KeyFor(h))
}

// Lookup returns the outline for k, building it on first use.
func (c *GeometryCache) Lookup(k GeometryKey) *Geometry {
	if g, ok := c.entries[k]; ok {
		c.hits++
		return g
	}
	c.misses++
	g := buildGeometry(k)
	c.entries[k] = g
	return g
}

// Len returns the number of cached outlines.
func (c *GeometryCache) Len() int {
	return len(c.entries)
}

// Stats returns cache hits and misses.
func (c *GeometryCache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Reset drops every cached outline.
func (c *GeometryCache) Reset() {
	clear(c.entries)
	c.hits = 0
	c.misses = 0
}

func buildGeometry(k GeometryKey) *Geometry {
	g := &Geometry{Key: k}
	switch k.Shape {
	case ShapeNone:
	case ShapeCircle:
		g.Points = regularPolygon(k.Segments, 0)
		g.Indices = fanIndices(len(g.Points))
	case ShapeSquare:
		g.Points = []Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		g.Indices = fanIndices(4)
	case ShapeTriangle:
		// Pointing along +X so rotation matches heading.
		g.Points = regularPolygon(3, 0)
		g.Indices = fanIndices(3)
	case ShapeDiamond:
		g.Points = []Vec2{{1, 0}, {0, 0.7}, {-1, 0}, {0, -0.7}}
		g.Indices = fanIndices(4)
	case ShapeHexagon:
		g.Points = regularPolygon(6, math.Pi/6)
		g.Indices = fanIndices(6)
	case ShapeRing:
		g.Points, g.Indices = ringStrip(k.Segments, float64(k.Fraction)/fractionSteps)
	case ShapeLine:
		g.Points = []Vec2{{0, -0.5}, {1, -0.5}, {1, 0.5}, {0, 0.5}}
		g.Indices = fanIndices(4)
	}
	return g
}

// regularPolygon returns n unit-radius points starting at angle offset.
func regularPolygon(n int, offset float64) []Vec2 {
	if n < 3 {
		n = 3
	}
	pts := make([]Vec2, n)
	step := 2 * math.Pi / float64(n)
	for i := range pts {
		sin, cos := math.Sincos(offset + step*float64(i))
		pts[i] = Vec2{cos, sin}
	}
	return pts
}

// fanIndices triangulates a convex polygon around vertex 0.
// N vertices, 3*(N-2) indices.
func fanIndices(n int) []uint16 {
	if n < 3 {
		return nil
	}
	inds := make([]uint16, (n-2)*3)
	for i := 0; i < n-2; i++ {
		inds[i*3+0] = 0
		inds[i*3+1] = uint16(i + 1)
		inds[i*3+2] = uint16(i + 2)
	}
	return inds
}

// ringStrip builds an annulus trimmed to fraction of a full turn, starting
// at twelve o'clock and running clockwise.
func ringStrip(segments int, fraction float64) ([]Vec2, []uint16) {
	if fraction <= 0 {
		return nil, nil
	}
	steps := int(math.Ceil(float64(segments) * fraction))
	if steps < 1 {
		steps = 1
	}
	pts := make([]Vec2, 0, (steps+1)*2)
	start := -math.Pi / 2
	sweep := 2 * math.Pi * fraction
	for i := 0; i <= steps; i++ {
		sin, cos := math.Sincos(start + sweep*float64(i)/float64(steps))
		pts = append(pts, Vec2{cos, sin}, Vec2{cos * ringInner, sin * ringInner})
	}
	inds := make([]uint16, 0, steps*6)
	for i := 0; i < steps; i++ {
		o := uint16(i * 2)
		inds = append(inds, o, o+1, o+2, o+1, o+3, o+2)
	}
	return pts, inds
}
