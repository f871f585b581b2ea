// rampart-demo opens a window and renders a running tower-defense
// simulation through the rampart presentation core.
//
// Controls: mouse wheel zooms, arrow keys pan, F3 toggles debug checks,
// Q or Escape quits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/phanxgames/rampart"
	"github.com/phanxgames/rampart/ecs"
	"github.com/phanxgames/rampart/internal/sim"
	"github.com/phanxgames/rampart/render"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file")
	overlay := flag.Bool("overlay", true, "show the diagnostics overlay")
	seed := flag.Uint64("seed", 1, "simulation seed")
	flag.Parse()

	cfg := rampart.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = rampart.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	log, err := rampart.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	scene := rampart.NewScene(cfg, rampart.WithLogger(log))
	prewarm(scene)
	addCore(scene, cfg)

	simCfg := sim.DefaultConfig()
	simCfg.Width, simCfg.Height = cfg.Viewport.Width, cfg.Viewport.Height
	simCfg.Seed = *seed
	world := sim.New(simCfg)
	bridge := ecs.NewBridge(world.World, scene)

	log.Info("demo starting",
		zap.Float64("width", cfg.Viewport.Width),
		zap.Float64("height", cfg.Viewport.Height),
		zap.Uint64("seed", *seed),
	)

	wave := 0
	step := func(dt float64) error {
		if err := handleInput(scene); err != nil {
			return err
		}
		world.Step(dt)
		bridge.Sync(world.Time())
		if w := world.Wave(); w != wave {
			wave = w
			log.Info("wave", zap.Int("wave", w), zap.Int("skipped_effects", bridge.Skipped))
		}
		return nil
	}

	err = render.Run(scene, render.RunConfig{
		Title:     "rampart",
		Width:     int(cfg.Viewport.Width),
		Height:    int(cfg.Viewport.Height),
		Overlay:   *overlay,
		Step:      step,
		Resizable: true,
	})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// prewarm fills the pools for the hot types so the first wave does not
// allocate.
func prewarm(scene *rampart.Scene) {
	scene.Prewarm(rampart.CategoryEnemy, rampart.EntitySnapshot{Kind: "basic"}, 32)
	scene.Prewarm(rampart.CategoryProjectile, rampart.EntitySnapshot{Kind: "bolt"}, 32)
	scene.Prewarm(rampart.CategoryParticle, rampart.EntitySnapshot{}, 64)
}

// addCore places the pulsing core marker at the end of the lane.
func addCore(scene *rampart.Scene, cfg rampart.Config) {
	core := scene.Arena().New("core", rampart.ShapeHexagon)
	core.Size = 26
	core.Color = rampart.Color{R: 0.3, G: 0.8, B: 1, A: 1}
	core.SetPosition(cfg.Viewport.Width-40, cfg.Viewport.Height/2)
	scene.AddAmbient(core, rampart.Animation{
		Field: rampart.FieldScale, From: 0.9, To: 1.1,
		Duration: 1.2, Ease: rampart.EaseInOutSine, Loop: rampart.LoopYoyo,
	})
}

const panSpeed = 8.0

func handleInput(scene *rampart.Scene) error {
	if ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		scene.SetDebugMode(!scene.DebugMode())
	}
	cam := scene.Camera()
	if _, dy := ebiten.Wheel(); dy != 0 {
		cam.Zoom *= math.Pow(1.1, dy)
	}
	step := panSpeed / cam.Zoom
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		cam.X -= step
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		cam.X += step
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		cam.Y -= step
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		cam.Y += step
	}
	return nil
}
