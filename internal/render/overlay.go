package render

import (
	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
)

var (
	inkDark  = draw.Hex("#1a1a1a", fallbackColor)
	inkLight = draw.RGB(255, 255, 255)
	shade    = draw.RGB(0, 0, 0)
)

// Overlay opacities, from #000000aa and #00000088.
const (
	gameOverShade = float64(0xaa) / 255
	pauseShade    = float64(0x88) / 255
)

func (r *Renderer) drawOverlay(c *draw.Canvas, state game.State) {
	w, h := r.cfg.Canvas.Width, r.cfg.Canvas.Height
	switch state {
	case game.StateIdle:
		y := h * 0.35
		c.Text(w/2, y, "Appuie pour jouer", inkDark, draw.AlignCenter)
		c.Text(w/2, y+max(26, c.TextRows()), "Espace / clic = saut", inkDark, draw.AlignCenter)
	case game.StateDead:
		c.SetAlpha(gameOverShade)
		c.FillRect(0, 0, w, h, draw.Solid(shade))
		c.SetAlpha(1)
		c.Text(w/2, h/2-30, "Perdu !", inkLight, draw.AlignCenter)
		c.Text(w/2, max(h/2+6, h/2-30+c.TextRows()), "Cliquer ou espace pour rejouer", inkLight, draw.AlignCenter)
	case game.StatePaused:
		c.SetAlpha(pauseShade)
		c.FillRect(0, 0, w, h, draw.Solid(shade))
		c.SetAlpha(1)
		c.Text(w/2, h/2-20, "PAUSE", inkLight, draw.AlignCenter)
		c.Text(w/2, max(h/2+20, h/2-20+c.TextRows()), "Appuie sur P pour reprendre", inkLight, draw.AlignCenter)
	}
}
