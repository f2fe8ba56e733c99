package render

import (
	"math"

	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
	"github.com/tomz197/flappysavon/internal/particle"
)

// soapLabel is embossed on the bar when there is room for it.
const soapLabel = "SAVON YVARD"

const (
	soapRadius      = 12
	glossAlpha      = 0.6
	glossRadius     = 6
	glossHeight     = 8
	glossInset      = 6
	labelInk        = "#0e1116"
	darkSkinCutoff  = 0.35
	stripeAlpha     = 0.35
	leafDecorAlpha  = 0.9
	labelLightShare = 0.85
)

var (
	glossColor = draw.RGB(255, 255, 255)
	leafDecor  = draw.Hex("#4f9a53", fallbackColor)
)

// soapCache holds the colours derived from the active skin. It is rebuilt
// only when the skin id changes.
type soapCache struct {
	id     string
	c1, c2 draw.Color
	ink    draw.Color
	stripe draw.Color
	decor  string
}

func (r *Renderer) skinColors(id string) *soapCache {
	if r.soap.id == id && id != "" {
		return &r.soap
	}
	skin := r.lookup.Skin(id)
	c1 := draw.Hex(skin.C1, fallbackColor)
	c2 := draw.Hex(skin.C2, fallbackColor)
	r.soap = soapCache{
		id:     id,
		c1:     c1,
		c2:     c2,
		ink:    labelColor(skin),
		stripe: draw.Mix(c1, c2, 0.5),
		decor:  skin.Decor,
	}
	return &r.soap
}

// labelColor keeps the label readable on both light and dark skins.
func labelColor(skin config.Skin) draw.Color {
	ink := draw.Hex(labelInk, fallbackColor)
	if luminance(draw.Hex(skin.C2, fallbackColor)) < darkSkinCutoff {
		return draw.Mix(draw.Hex(skin.C1, fallbackColor), glossColor, labelLightShare)
	}
	return ink
}

func luminance(c draw.Color) float64 {
	return (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255
}

func (r *Renderer) drawSoap(c *draw.Canvas, s game.Soap, skinID string) {
	sc := r.skinColors(skinID)
	w, h := s.W, s.H

	body := draw.LinearGradient{
		X0: s.X - w/2, Y0: s.Y - h/2,
		X1: s.X + w/2, Y1: s.Y + h/2,
		From: sc.c1, To: sc.c2,
	}
	c.FillRotatedRoundRect(s.X, s.Y, w, h, soapRadius, s.Rot, body)

	if sc.decor == "stripe" {
		c.SetAlpha(stripeAlpha)
		c.FillRotatedRoundRect(s.X, s.Y+h/6, w-4, h/5, 2, s.Rot, draw.Solid(draw.Mix(sc.stripe, glossColor, 0.3)))
	}

	// Gloss band, offset from the top edge in the soap's own frame.
	gx, gy := rotateOffset(0, -h/2+glossInset+glossHeight/2, s.Rot)
	c.SetAlpha(glossAlpha)
	c.FillRotatedRoundRect(s.X+gx, s.Y+gy, w-2*glossInset, glossHeight, glossRadius, s.Rot, draw.Solid(glossColor))

	if sc.decor == "leaf" {
		lx, ly := rotateOffset(w/2-12, -h/2+10, s.Rot)
		c.SetAlpha(leafDecorAlpha)
		fillEllipse(c, s.X+lx, s.Y+ly, 7, 3.5, s.Rot-0.6, draw.Solid(leafDecor))
	}
	c.SetAlpha(1)

	if c.Cells(w) >= len(soapLabel) {
		c.Text(s.X, s.Y+h/8, soapLabel, sc.ink, draw.AlignCenter)
	}
}

// rotateOffset rotates the vector (dx, dy) by angle.
func rotateOffset(dx, dy, angle float64) (float64, float64) {
	sin, cos := math.Sincos(angle)
	return dx*cos - dy*sin, dx*sin + dy*cos
}

var (
	bubbleInner = draw.RGB(255, 255, 255)
	bubbleOuter = draw.Hex("#a9d4ff", fallbackColor)
)

const confettiSize = 4

func (r *Renderer) drawParticles(c *draw.Canvas, ps *particle.System) {
	for i := range ps.Bubbles {
		b := &ps.Bubbles[i]
		if !b.Active {
			continue
		}
		c.SetAlpha(b.Alpha)
		c.FillCircle(b.X, b.Y, b.R, draw.RadialGradient{
			CX: b.X - b.R/3, CY: b.Y - b.R/3, R: b.R * 1.3,
			Inner: bubbleInner, Outer: bubbleOuter,
		})
	}
	c.SetAlpha(1)

	for i := range ps.Confetti {
		p := &ps.Confetti[i]
		if !p.Active {
			continue
		}
		col := draw.HSL(p.Hue, 0.7, 0.55)
		c.FillRotatedRoundRect(p.X, p.Y, confettiSize, confettiSize, 0, p.Rot, draw.Solid(col))
	}
}
