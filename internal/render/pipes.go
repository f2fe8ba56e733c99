package render

import (
	"math"

	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
)

// foam is one ground wave layer.
type foam struct {
	col   draw.Color
	alpha float64
}

// foamLayers are the three ground waves, back to front.
var foamLayers = [3]foam{
	{draw.RGB(232, 245, 255), 0.9},
	{draw.RGB(207, 232, 255), 0.8},
	{draw.RGB(207, 232, 255), 0.6},
}

// foamStep is the horizontal sampling distance of a wave.
const foamStep = 8

// drawGround paints the animated foam strip along the bottom of the playfield.
// The atelier theme takes the blue out of the foam.
func (r *Renderer) drawGround(c *draw.Canvas, theme config.Theme) {
	w, h := r.cfg.Canvas.Width, r.cfg.Canvas.Height
	y0 := h - r.cfg.Ground.Height + 8
	for i, layer := range foamLayers {
		col := layer.col
		if theme.ID == "atelier" {
			col.B = 245
		}
		fi := float64(i)
		amp := 8 + fi*4
		depth := 26 - fi*6
		off := math.Mod(float64(r.t)*0.8+fi*30, w)

		pts := r.wave[:0]
		pts = append(pts, draw.Point{X: 0, Y: y0 + depth})
		for x := 0.0; x <= w; x += foamStep {
			pts = append(pts, draw.Point{X: x, Y: y0 + math.Sin((x+off)/40)*amp})
		}
		pts = append(pts, draw.Point{X: w, Y: h}, draw.Point{X: 0, Y: h})
		r.wave = pts

		c.SetAlpha(layer.alpha)
		c.FillPolygon(pts, draw.Solid(col))
	}
	c.SetAlpha(1)
}

var (
	kraftTop       = draw.Hex("#d5b48a", fallbackColor)
	kraftBottom    = draw.Hex("#b78b5f", fallbackColor)
	kraftCap       = draw.Hex("#9e7a52", fallbackColor)
	kraftHighlight = draw.RGB(255, 255, 255)
)

// highlightAlpha is the opacity of #ffffff3a.
const highlightAlpha = float64(0x3a) / 255

const (
	pipeRadius    = 12
	pipeCapHeight = 8
	// minTextureHeight keeps very short obstacle segments legible.
	minTextureHeight = 20
)

func (r *Renderer) drawPipes(c *draw.Canvas, pipes []game.Pipe) {
	pw := r.cfg.Pipes.Width
	groundY := r.cfg.GroundY()
	if r.texture != nil {
		r.texture.prepare(c.Cells(pw))
		for _, p := range pipes {
			top := max(minTextureHeight, p.TopH)
			c.FillRect(p.X, p.TopH-top, pw, top, r.texture.paint(p.X, p.TopH-top, pw))
			bottom := max(minTextureHeight, groundY-p.BottomY)
			c.FillRect(p.X, p.BottomY, pw, bottom, r.texture.paint(p.X, p.BottomY, pw))
		}
		return
	}

	h := r.cfg.Canvas.Height
	body := draw.LinearGradient{X0: 0, Y0: 0, X1: 0, Y1: h, From: kraftTop, To: kraftBottom}
	for _, p := range pipes {
		bottomH := groundY - p.BottomY

		// The top segment's rounded end sits at the gap; its far end runs off
		// screen so only one pair of corners shows.
		c.FillRoundRect(p.X, -pipeRadius, pw, p.TopH+pipeRadius, pipeRadius, body)
		c.FillRoundRect(p.X, p.BottomY, pw, bottomH+pipeRadius, pipeRadius, body)

		c.FillRect(p.X, p.TopH-pipeCapHeight, pw, pipeCapHeight, draw.Solid(kraftCap))
		c.FillRect(p.X, p.BottomY, pw, pipeCapHeight, draw.Solid(kraftCap))

		c.SetAlpha(highlightAlpha)
		c.FillRect(p.X+8, max(8, p.TopH*0.35), pw-16, 12, draw.Solid(kraftHighlight))
		c.FillRect(p.X+8, p.BottomY+bottomH*0.2, pw-16, 12, draw.Solid(kraftHighlight))
		c.SetAlpha(1)
	}
}
