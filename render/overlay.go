package render

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/rampart"
)

// overlayRefresh is how often the overlay text is re-rendered, in seconds.
const overlayRefresh = 0.5

// Overlay prints the scene's diagnostics sample in the top-left corner. The
// text is re-rendered into its own image every ~0.5 seconds.
type Overlay struct {
	scene *rampart.Scene
	img   *ebiten.Image
	since float64
	text  string
}

// NewOverlay creates an overlay for scene.
func NewOverlay(scene *rampart.Scene) *Overlay {
	// 220x112 fits the eight lines printed by Format.
	return &Overlay{scene: scene, img: ebiten.NewImage(220, 112), since: overlayRefresh}
}

// Update advances the refresh timer and redraws the text when it is due.
func (o *Overlay) Update(dt float64) {
	o.since += dt
	if o.since < overlayRefresh {
		return
	}
	o.since = 0
	o.text = Format(o.scene.Diagnostics(), ebiten.ActualFPS(), ebiten.ActualTPS())

	o.img.Clear()
	// Semi-transparent background for readability
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
}

// Text returns the last rendered text.
func (o *Overlay) Text() string {
	return o.text
}

// Draw composites the overlay onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(4, 4)
	screen.DrawImage(o.img, &op)
}

// Format renders a diagnostics sample as overlay text.
func Format(s rampart.Sample, fps, tps float64) string {
	return fmt.Sprintf(
		"FPS: %.1f  TPS: %.1f\n"+
			"nodes: %d  live: %d\n"+
			"enemy %d  proj %d  pick %d\n"+
			"part %d  boss %d\n"+
			"pool free %d  hit %d  miss %d\n"+
			"effects %d  skipped %d\n"+
			"anim %d  lod hidden %d\n"+
			"update %s",
		fps, tps,
		s.NodeCount, s.Live,
		s.Displayed[rampart.CategoryEnemy], s.Displayed[rampart.CategoryProjectile], s.Displayed[rampart.CategoryPickup],
		s.Displayed[rampart.CategoryParticle], s.Displayed[rampart.CategoryBossMechanic],
		s.PoolFree, s.Pool.Hits, s.Pool.Misses,
		s.Effects, s.EffectStat.Skipped,
		s.Animating, s.LOD.Hidden,
		s.UpdateTime,
	)
}
