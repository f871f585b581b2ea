package rampart

import (
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	if cam.Zoom != 1.0 {
		t.Errorf("Zoom = %f, want 1.0", cam.Zoom)
	}
	if cam.X != 400 || cam.Y != 300 {
		t.Errorf("position = (%f,%f), want (400,300)", cam.X, cam.Y)
	}
}

func TestCameraCenterMapsToViewportCenter(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 100, 50
	sx, sy := cam.WorldToScreen(100, 50)
	if !approxEqual(sx, 400, epsilon) || !approxEqual(sy, 300, epsilon) {
		t.Errorf("WorldToScreen(100,50) = (%f,%f), want (400,300)", sx, sy)
	}
}

func TestCameraZoom(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Zoom = 2.0

	// At zoom 2, one world unit spans two pixels.
	sx1, _ := cam.WorldToScreen(1, 0)
	sx0, _ := cam.WorldToScreen(0, 0)
	if !approxEqual(sx1-sx0, 2.0, epsilon) {
		t.Errorf("screen distance = %f, want 2", sx1-sx0)
	}
}

func TestCameraScreenToWorldRoundTrip(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 37, -12
	cam.Zoom = 1.7
	cam.Rotation = 0.3

	sx, sy := cam.WorldToScreen(123, 456)
	wx, wy := cam.ScreenToWorld(sx, sy)
	if !approxEqual(wx, 123, 1e-6) || !approxEqual(wy, 456, 1e-6) {
		t.Errorf("round trip = (%f,%f), want (123,456)", wx, wy)
	}
}

func TestCameraVisibleBoundsShrinksWithZoom(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Zoom = 2
	b := cam.VisibleBounds()
	if !approxEqual(b.Width, 400, 1e-6) || !approxEqual(b.Height, 300, 1e-6) {
		t.Errorf("bounds size = %fx%f, want 400x300", b.Width, b.Height)
	}
	if !approxEqual(b.X, 200, 1e-6) || !approxEqual(b.Y, 150, 1e-6) {
		t.Errorf("bounds origin = (%f,%f), want (200,150)", b.X, b.Y)
	}
}

func TestCameraVisibleBoundsIgnoresShake(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	before := cam.VisibleBounds()
	cam.Shake(50, 1)
	cam.Update(0.1)
	if before != cam.VisibleBounds() {
		t.Error("shake should not move the visible bounds")
	}
}

func TestCameraShakeDecays(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Shake(10, 0.5)
	cam.Update(0.6)
	if x, y := cam.ShakeOffset(); x != 0 || y != 0 {
		t.Errorf("shake offset after expiry = (%f,%f), want 0", x, y)
	}
}

func TestCameraShakeIgnoresInvalid(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Shake(math.NaN(), 1)
	cam.Shake(5, 0)
	cam.Update(0.01)
	if x, y := cam.ShakeOffset(); x != 0 || y != 0 {
		t.Errorf("invalid shake produced offset (%f,%f)", x, y)
	}
}

func TestCameraClampsZoom(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.MinZoom, cam.MaxZoom = 0.5, 3
	cam.Zoom = 10
	cam.Update(0)
	if cam.Zoom != 3 {
		t.Errorf("Zoom = %f, want 3", cam.Zoom)
	}
	cam.Zoom = math.Inf(1)
	cam.Update(0)
	if cam.Zoom != 1 {
		t.Errorf("non-finite Zoom = %f, want 1", cam.Zoom)
	}
}

func TestCameraScrollTo(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.ScrollTo(1000, -200, 0.5, EaseInOutSine)
	if !cam.Scrolling() {
		t.Fatal("Scrolling should be true")
	}
	for i := 0; i < 40; i++ {
		cam.Update(1.0 / 60)
	}
	if cam.Scrolling() {
		t.Error("scroll should have finished")
	}
	if !approxEqual(cam.X, 1000, 1e-3) || !approxEqual(cam.Y, -200, 1e-3) {
		t.Errorf("position = (%f,%f), want (1000,-200)", cam.X, cam.Y)
	}
}
