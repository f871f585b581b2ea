package render

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/rampart"
)

// RunConfig configures the window and loop started by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// Overlay shows the diagnostics overlay.
	Overlay bool
	// Step is called once per tick before the scene updates, with the tick
	// length in seconds. It typically advances the simulation and calls
	// Scene.Sync. Returning an error ends the loop.
	Step func(dt float64) error
	// Resizable lets the window resize; the camera viewport follows.
	Resizable bool
}

// Run opens a window and drives scene until the window closes or Step
// fails.
func Run(scene *rampart.Scene, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("run: window size must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	g := &game{
		scene:    scene,
		renderer: NewRenderer(scene),
		cfg:      cfg,
	}
	if cfg.Overlay {
		g.overlay = NewOverlay(scene)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	return ebiten.RunGame(g)
}

type game struct {
	scene    *rampart.Scene
	renderer *Renderer
	overlay  *Overlay
	cfg      RunConfig
}

func (g *game) Update() error {
	dt := 1.0 / float64(ebiten.TPS())
	if g.cfg.Step != nil {
		if err := g.cfg.Step(dt); err != nil {
			return err
		}
	}
	g.scene.Update(dt)
	if g.overlay != nil {
		g.overlay.Update(dt)
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
}

func (g *game) Layout(w, h int) (int, int) {
	cam := g.scene.Camera()
	vp := rampart.Rect{Width: float64(w), Height: float64(h)}
	if cam.Viewport != vp {
		cam.Viewport = vp
	}
	return w, h
}
