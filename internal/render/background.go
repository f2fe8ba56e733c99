package render

import (
	"math"
	"time"

	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
	"github.com/tomz197/flappysavon/internal/particle"
)

// fallbackColor replaces any colour that fails to parse.
var fallbackColor = draw.RGB(15, 26, 38)

// MixColor blends two hex colours per channel, k=0 giving a and k=1 giving b.
// Unparseable input falls back to a dark slate.
func MixColor(a, b string, k float64) draw.Color {
	return draw.Mix(draw.Hex(a, fallbackColor), draw.Hex(b, fallbackColor), k)
}

func (r *Renderer) drawBackground(c *draw.Canvas, ts game.ThemeState) {
	w, h := r.cfg.Canvas.Width, r.cfg.Canvas.Height
	top := MixColor(ts.Previous.BG1, ts.Current.BG1, ts.Transition)
	bottom := MixColor(ts.Previous.BG2, ts.Current.BG2, ts.Transition)

	c.Clear(top)
	c.FillRect(0, 0, w, h, draw.LinearGradient{X0: 0, Y0: 0, X1: 0, Y1: h, From: top, To: bottom})
}

// Sunrise and sunset in local decimal hours, one pair per month.
var sunTable = [12][2]float64{
	{8.6, 17.3}, // January
	{8.0, 18.1},
	{7.2, 18.9},
	{7.1, 20.6},
	{6.4, 21.3},
	{6.0, 21.9},
	{6.2, 21.9},
	{6.8, 21.2},
	{7.5, 20.2},
	{8.2, 19.1},
	{7.9, 17.3},
	{8.5, 16.9}, // December
}

// IsNight reports whether t falls outside the daylight hours of its month.
func IsNight(t time.Time) bool {
	sun := sunTable[t.Month()-1]
	hour := float64(t.Hour()) + float64(t.Minute())/60
	return hour < sun[0] || hour >= sun[1]
}

// skyInterval bounds how often the day/night state is recomputed.
const skyInterval = time.Minute

type skyClock struct {
	checked time.Time
	dark    bool
}

func (s *skyClock) night(now time.Time) bool {
	if s.checked.IsZero() || now.Sub(s.checked) >= skyInterval || now.Before(s.checked) {
		s.checked = now
		s.dark = IsNight(now)
	}
	return s.dark
}

var (
	hillFar   = draw.RGB(214, 205, 188)
	hillNear  = draw.RGB(196, 186, 166)
	nightTint = draw.RGB(40, 52, 78)
	starColor = draw.RGB(255, 250, 225)
	cloudTint = draw.RGB(255, 255, 255)
	critterFg = draw.RGB(70, 62, 54)
	steamTint = draw.RGB(255, 255, 255)
	leafTint  = draw.Hex("#6fbf73", fallbackColor)
	leafLight = draw.Hex("#7ecb80", fallbackColor)
)

func (r *Renderer) drawDecor(c *draw.Canvas, ts game.ThemeState, ps *particle.System) {
	night := r.sky.night(r.now())

	if night {
		r.drawNightSky(c)
	} else {
		r.drawClouds(c)
	}
	r.drawHills(c, night)
	if !night {
		r.drawCritter(c)
	}

	if ts.Current.Fog {
		for i := range ps.Steam {
			s := &ps.Steam[i]
			if !s.Active {
				continue
			}
			c.SetAlpha(s.Alpha)
			c.FillCircle(s.X, s.Y, s.R, draw.RadialGradient{
				CX: s.X, CY: s.Y, R: s.R,
				Inner: steamTint, Outer: MixColor(ts.Current.BG1, "#ffffff", 0.5),
			})
		}
	}

	tint := leafTint
	if ts.Current.ID == "atelier" {
		tint = leafLight
	}
	c.SetAlpha(0.85)
	for i := range ps.Leaves {
		l := &ps.Leaves[i]
		if !l.Active {
			continue
		}
		fillEllipse(c, l.X, l.Y, l.W/2, l.H/2, l.Rot, draw.Solid(tint))
	}
	c.SetAlpha(1)
}

// drawHills paints two parallax layers of rolling hills above the ground.
func (r *Renderer) drawHills(c *draw.Canvas, night bool) {
	w := r.cfg.Canvas.Width
	base := r.cfg.GroundY() + 10
	layers := []struct {
		col    draw.Color
		height float64
		period float64
		speed  float64
	}{
		{hillFar, 70, 140, 0.15},
		{hillNear, 45, 95, 0.35},
	}
	for _, l := range layers {
		col := l.col
		if night {
			col = draw.Mix(col, nightTint, 0.55)
		}
		off := math.Mod(float64(r.t)*l.speed, l.period*2*math.Pi)
		pts := r.wave[:0]
		pts = append(pts, draw.Point{X: 0, Y: base})
		for x := 0.0; x <= w; x += 10 {
			y := base - l.height*(0.6+0.4*math.Sin((x+off)/l.period))
			pts = append(pts, draw.Point{X: x, Y: y})
		}
		pts = append(pts, draw.Point{X: w, Y: base})
		r.wave = pts
		c.FillPolygon(pts, draw.Solid(col))
	}
}

// drawNightSky darkens the upper sky and scatters twinkling stars.
func (r *Renderer) drawNightSky(c *draw.Canvas) {
	w := r.cfg.Canvas.Width
	skyH := r.cfg.GroundY() * 0.6
	c.SetAlpha(0.35)
	c.FillRect(0, 0, w, skyH, draw.LinearGradient{X1: 0, Y1: skyH, From: nightTint, To: hillFar})
	for i := range 24 {
		x := math.Mod(float64(i)*97.3+13, w)
		y := math.Mod(float64(i)*53.1+7, skyH*0.8)
		c.SetAlpha(0.45 + 0.45*math.Sin(float64(r.t)*0.05+float64(i)))
		c.FillCircle(x, y, 1.6, draw.Solid(starColor))
	}
	c.SetAlpha(1)
}

// drawClouds drifts a few soft clouds across the daytime sky.
func (r *Renderer) drawClouds(c *draw.Canvas) {
	w := r.cfg.Canvas.Width
	span := w + 160
	c.SetAlpha(0.55)
	for i := range 3 {
		fi := float64(i)
		x := math.Mod(fi*170+float64(r.t)*(0.2+0.1*fi)+r.gridOffset, span) - 80
		y := 70 + fi*55
		for j, dx := range []float64{-22, 0, 24} {
			rad := 16.0
			if j == 1 {
				rad = 22
			}
			c.FillCircle(x+dx, y, rad, draw.Solid(cloudTint))
		}
	}
	c.SetAlpha(1)
}

// critterPeriod is how many ticks separate two bird crossings.
const critterPeriod = 900

// drawCritter sends a small bird across the sky once in a while.
func (r *Renderer) drawCritter(c *draw.Canvas) {
	w := r.cfg.Canvas.Width
	phase := r.t % critterPeriod
	x := w + 20 - float64(phase)*1.2
	if x < -20 {
		return
	}
	y := 120 + 20*math.Sin(float64(r.t)*0.04)
	flapUp := (r.t/8)%2 == 0
	wing := 5.0
	if flapUp {
		wing = -5
	}
	p := draw.Solid(critterFg)
	c.StrokeLine(draw.Point{X: x - 7, Y: y + wing}, draw.Point{X: x, Y: y}, p)
	c.StrokeLine(draw.Point{X: x, Y: y}, draw.Point{X: x + 7, Y: y + wing}, p)
}

// fillEllipse fills a rotated ellipse with radii rx, ry.
func fillEllipse(c *draw.Canvas, cx, cy, rx, ry, angle float64, p draw.Paint) {
	const segments = 12
	var pts [segments]draw.Point
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segments
		pts[i] = draw.RotateAround(draw.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}, cx, cy, angle)
	}
	c.FillPolygon(pts[:], p)
}
