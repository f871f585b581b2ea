package rampart

import (
	"math"
	"math/rand/v2"

	"github.com/tanema/gween"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera controls the view into the scene: position, zoom, rotation, and
// viewport. The LOD controller derives everything it decides from a Camera.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	// MinZoom and MaxZoom clamp Zoom in update. Zero disables the bound.
	MinZoom, MaxZoom float64

	scrollTween *scrollAnim

	shakeTime      float64
	shakeDuration  float64
	shakeIntensity float64
	shakeX, shakeY float64
}

// NewCamera creates a camera with default values and the given viewport.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Zoom:     1.0,
		Viewport: viewport,
		X:        viewport.Width / 2,
		Y:        viewport.Height / 2,
	}
}

// ScrollTo animates the camera to the given world position over duration
// seconds.
func (c *Camera) ScrollTo(x, y float64, duration float64, easing Easing) {
	fn := easing.fn()
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), float32(duration), fn),
		tweenY: gween.New(float32(c.Y), float32(y), float32(duration), fn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool {
	return c.scrollTween != nil
}

// Shake starts a decaying positional jitter. A stronger request replaces a
// weaker one in progress; weaker requests are ignored.
func (c *Camera) Shake(intensity, duration float64) {
	if duration <= 0 || !isFinite(intensity) || intensity <= 0 {
		return
	}
	if c.shakeTime > 0 && intensity < c.shakeIntensity*(c.shakeTime/c.shakeDuration) {
		return
	}
	c.shakeIntensity = intensity
	c.shakeDuration = duration
	c.shakeTime = duration
}

// ShakeOffset returns the current jitter in world units.
func (c *Camera) ShakeOffset() (float64, float64) {
	return c.shakeX, c.shakeY
}

// Update advances scroll and shake animations and clamps zoom.
func (c *Camera) Update(dt float64) {
	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(float32(dt))
			c.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(float32(dt))
			c.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	c.shakeX, c.shakeY = 0, 0
	if c.shakeTime > 0 {
		c.shakeTime -= dt
		if c.shakeTime < 0 {
			c.shakeTime = 0
		}
		amp := c.shakeIntensity * (c.shakeTime / c.shakeDuration)
		c.shakeX = (rand.Float64()*2 - 1) * amp
		c.shakeY = (rand.Float64()*2 - 1) * amp
	}

	c.clampZoom()
}

func (c *Camera) clampZoom() {
	if !isFinite(c.Zoom) || c.Zoom <= 0 {
		c.Zoom = 1
	}
	if c.MinZoom > 0 && c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	if c.MaxZoom > 0 && c.Zoom > c.MaxZoom {
		c.Zoom = c.MaxZoom
	}
}

// ViewMatrix returns the world-to-screen matrix.
//
// viewMatrix = Translate(cx, cy) * Scale(zoom) * Rotate(-rotation) * Translate(-X, -Y)
// where cx, cy = viewport center.
func (c *Camera) ViewMatrix() Affine {
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2

	sin, cos := math.Sincos(-c.Rotation)
	z := c.zoom()
	x := c.X + c.shakeX
	y := c.Y + c.shakeY

	a := z * cos
	b := -z * sin
	cc := z * sin
	d := z * cos
	tx := cx + z*(-cos*x+sin*y)
	ty := cy + z*(-sin*x-cos*y)

	return Affine{a, cc, b, d, tx, ty}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return c.ViewMatrix().Apply(wx, wy)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	return c.ViewMatrix().Invert().Apply(sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's
// visible area in world space. Shake is ignored so visibility decisions do
// not jitter.
func (c *Camera) VisibleBounds() Rect {
	sx, sy := c.shakeX, c.shakeY
	c.shakeX, c.shakeY = 0, 0
	inv := c.ViewMatrix().Invert()
	c.shakeX, c.shakeY = sx, sy

	vx := c.Viewport.X
	vy := c.Viewport.Y
	vr := vx + c.Viewport.Width
	vb := vy + c.Viewport.Height

	return aabb(inv, []Vec2{{vx, vy}, {vr, vy}, {vr, vb}, {vx, vb}})
}

func (c *Camera) zoom() float64 {
	if !isFinite(c.Zoom) || c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// CameraState is the comparable subset of a Camera that LOD decisions depend
// on.
type CameraState struct {
	X, Y, Zoom, Rotation float64
	Viewport             Rect
}

// State returns the camera's comparable state.
func (c *Camera) State() CameraState {
	return CameraState{X: c.X, Y: c.Y, Zoom: c.zoom(), Rotation: c.Rotation, Viewport: c.Viewport}
}
