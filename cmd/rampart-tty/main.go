// rampart-tty drives the rampart presentation core without a GPU. It draws
// the scene graph as terminal glyphs, or with -scenario replays a YAML
// scenario headlessly and logs diagnostics.
//
// Keys: +/- zoom, arrow keys pan, d toggles debug checks, q or Escape quits.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
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
	scenarioPath := flag.String("scenario", "", "replay a YAML scenario headlessly")
	maxFrames := flag.Int("frames", 36000, "frame limit for -scenario")
	flag.Parse()

	cfg := rampart.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = rampart.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *scenarioPath == "" {
		// Terminal output would interleave with the view.
		cfg.Logging.Level = "error"
	}
	log, err := rampart.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	scene := rampart.NewScene(cfg, rampart.WithLogger(log))
	if *scenarioPath != "" {
		return replay(scene, *scenarioPath, *maxFrames, log)
	}
	return interactive(scene, cfg)
}

func replay(scene *rampart.Scene, path string, maxFrames int, log *zap.Logger) error {
	sc, err := rampart.LoadScenario(path)
	if err != nil {
		return err
	}
	scene.SetDebugMode(true)
	start := time.Now()
	n := sc.Run(scene, maxFrames)
	d := scene.Diagnostics()
	log.Info("scenario finished",
		zap.String("name", sc.Name),
		zap.Int("frames", n),
		zap.Bool("done", sc.Done()),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Println(render.Format(d, 0, 0))
	if !sc.Done() {
		return fmt.Errorf("scenario %s: not finished after %d frames", sc.Name, n)
	}
	return nil
}

const tickRate = 30

func interactive(scene *rampart.Scene, cfg rampart.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	simCfg := sim.DefaultConfig()
	simCfg.Width, simCfg.Height = cfg.Viewport.Width, cfg.Viewport.Height
	world := sim.New(simCfg)
	bridge := ecs.NewBridge(world.World, scene)

	events := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()
	dt := 1.0 / tickRate
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if !handleKey(scene, ev) {
					return nil
				}
			}
		case <-ticker.C:
			world.Step(dt)
			bridge.Sync(world.Time())
			scene.Update(dt)
			draw(screen, scene, world.Wave())
		}
	}
}

func handleKey(scene *rampart.Scene, ev *tcell.EventKey) bool {
	cam := scene.Camera()
	step := 40 / cam.Zoom
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		cam.X -= step
	case tcell.KeyRight:
		cam.X += step
	case tcell.KeyUp:
		cam.Y -= step
	case tcell.KeyDown:
		cam.Y += step
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case '+', '=':
			cam.Zoom *= 1.25
		case '-':
			cam.Zoom /= 1.25
		case 'd':
			scene.SetDebugMode(!scene.DebugMode())
		}
	}
	return true
}

// entityDepth is the depth of entity and effect nodes below the root:
// root, layer, node.
const entityDepth = 2

func draw(screen tcell.Screen, scene *rampart.Scene, wave int) {
	screen.Clear()
	cols, rows := screen.Size()
	cam := scene.Camera()
	sx := float64(cols) / cam.Viewport.Width
	sy := float64(rows-1) / cam.Viewport.Height

	arena := scene.Arena()
	arena.Walk(scene.Root(), func(h *rampart.Handle, depth int) bool {
		if !h.Visible || h.Hidden() {
			return false
		}
		if depth < entityDepth {
			return true
		}
		if h.Shape != rampart.ShapeNone || h.NumChildren() == 0 {
			p := arena.WorldPosition(h)
			x, y := cam.WorldToScreen(p.X, p.Y)
			cx, cy := int(x*sx), int(y*sy)+1
			if cx >= 0 && cx < cols && cy >= 1 && cy < rows {
				screen.SetContent(cx, cy, glyph(h), nil, style(h))
			}
			return false
		}
		// Effect containers hold their sparks as children.
		return true
	})

	d := scene.Diagnostics()
	status := fmt.Sprintf("wave %d  nodes %d  enemy %d  proj %d  effects %d  pool free %d  zoom %.2f",
		wave, d.NodeCount, d.Displayed[rampart.CategoryEnemy], d.Displayed[rampart.CategoryProjectile],
		d.Effects, d.PoolFree, cam.Zoom)
	put(screen, 0, 0, status, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	screen.Show()
}

func put(screen tcell.Screen, x, y int, s string, st tcell.Style) {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, st)
		x++
	}
}

func glyph(h *rampart.Handle) rune {
	switch h.Shape {
	case rampart.ShapeSquare:
		return '#'
	case rampart.ShapeTriangle:
		return '^'
	case rampart.ShapeDiamond:
		return '+'
	case rampart.ShapeHexagon:
		return 'H'
	case rampart.ShapeRing:
		return 'O'
	case rampart.ShapeLine:
		return '-'
	case rampart.ShapeCircle:
		if h.Size < 4 {
			return '.'
		}
		return 'o'
	}
	return '*'
}

func style(h *rampart.Handle) tcell.Style {
	c := h.Color
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(
		int32(c.R*255), int32(c.G*255), int32(c.B*255),
	))
}
