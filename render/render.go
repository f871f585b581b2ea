// Package render draws a rampart Scene with Ebitengine.
package render

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/rampart"
)

// --- White pixel singleton (no sync.Once; rendering is single-threaded) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
// Every shape is an untextured triangle list sampled from it.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// maxBatchVerts bounds one DrawTriangles32 call.
const maxBatchVerts = 1 << 16

// Stats counts what the last Draw emitted.
type Stats struct {
	Visited   int
	Culled    int
	Shapes    int
	Triangles int
	DrawCalls int
}

// Renderer walks the arena from the scene root and emits every visible
// shape as batched triangles. Consecutive shapes with the same blend share
// a draw call.
type Renderer struct {
	scene *rampart.Scene
	// Background is filled before drawing; nil leaves the target untouched.
	Background color.Color
	// Cull skips shapes whose screen bounds miss the target.
	Cull bool

	verts    []ebiten.Vertex
	inds     []uint32
	additive bool
	screen   rampart.Rect
	stats    Stats
}

// NewRenderer creates a renderer for scene with culling on.
func NewRenderer(scene *rampart.Scene) *Renderer {
	return &Renderer{
		scene:      scene,
		Background: color.RGBA{R: 12, G: 14, B: 22, A: 255},
		Cull:       true,
		verts:      make([]ebiten.Vertex, 0, 4096),
		inds:       make([]uint32, 0, 8192),
	}
}

// Stats returns the counters of the last Draw.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Draw renders the scene through its camera onto target.
func (r *Renderer) Draw(target *ebiten.Image) {
	if r.Background != nil {
		target.Fill(r.Background)
	}
	b := target.Bounds()
	r.screen = rampart.Rect{X: float64(b.Min.X), Y: float64(b.Min.Y), Width: float64(b.Dx()), Height: float64(b.Dy())}
	r.stats = Stats{}
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]

	root := r.scene.Root()
	if root == nil {
		return
	}
	view := r.scene.Camera().ViewMatrix()
	r.traverse(target, root, view, 1)
	r.flush(target)
}

// traverse emits h and its subtree. Culling only suppresses h's own shape;
// children are always visited since their positions differ from h's.
func (r *Renderer) traverse(target *ebiten.Image, h *rampart.Handle, parent rampart.Affine, parentAlpha float64) {
	if !h.Visible || h.Hidden() {
		return
	}
	r.stats.Visited++
	world := parent.Multiply(rampart.LocalTransform(h))
	alpha := parentAlpha * h.Alpha
	if alpha <= 0 {
		return
	}

	// Glow parts are made visible by the LOD pass only while glow is on.
	if h.Shape != rampart.ShapeNone {
		r.emit(target, h, world, alpha)
	}

	arena := r.scene.Arena()
	for _, cid := range h.Children() {
		if c := arena.Get(cid); c != nil {
			r.traverse(target, c, world, alpha)
		}
	}
}

func (r *Renderer) emit(target *ebiten.Image, h *rampart.Handle, world rampart.Affine, alpha float64) {
	g := r.scene.Geometry().Get(h)
	if len(g.Indices) == 0 {
		return
	}
	sx, sy := h.Size, h.Size
	if h.Shape == rampart.ShapeLine {
		sx = math.Hypot(h.End.X, h.End.Y)
	}
	if r.Cull && !r.onScreen(world, h.Shape, sx, sy) {
		r.stats.Culled++
		return
	}

	if h.Additive != r.additive || len(r.verts)+len(g.Points) > maxBatchVerts {
		r.flush(target)
		r.additive = h.Additive
	}

	c := h.Color
	a := float32(c.A * alpha)
	cr, cg, cb := float32(c.R)*a, float32(c.G)*a, float32(c.B)*a
	base := uint32(len(r.verts))
	for _, p := range g.Points {
		x, y := world.Apply(p.X*sx, p.Y*sy)
		r.verts = append(r.verts, ebiten.Vertex{
			DstX: float32(x), DstY: float32(y),
			SrcX: 0.5, SrcY: 0.5,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: a,
		})
	}
	for _, i := range g.Indices {
		r.inds = append(r.inds, base+uint32(i))
	}
	r.stats.Shapes++
	r.stats.Triangles += len(g.Indices) / 3
}

// onScreen tests the shape's transformed bounding box against the target.
func (r *Renderer) onScreen(world rampart.Affine, shape rampart.ShapeKind, sx, sy float64) bool {
	x0, y0, x1, y1 := -sx, -sy, sx, sy
	if shape == rampart.ShapeLine {
		x0, y0, x1, y1 = 0, -sy/2, sx, sy/2
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}} {
		x, y := world.Apply(p[0], p[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return r.screen.Intersects(rampart.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY})
}

// flush submits the accumulated triangles as one DrawTriangles32 call.
func (r *Renderer) flush(target *ebiten.Image) {
	if len(r.inds) == 0 {
		r.verts = r.verts[:0]
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	op.AntiAlias = true
	if r.additive {
		op.Blend = ebiten.BlendLighter
	}
	target.DrawTriangles32(r.verts, r.inds, ensureWhitePixel(), &op)
	r.stats.DrawCalls++
	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
}
