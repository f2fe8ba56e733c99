package draw

import "math"

// Paint yields the fill colour at a logical coordinate.
type Paint interface {
	ColorAt(x, y float64) Color
}

// Solid is a single-colour paint.
type Solid Color

// ColorAt implements Paint.
func (s Solid) ColorAt(_, _ float64) Color { return Color(s) }

// LinearGradient interpolates From→To along the segment (X0,Y0)→(X1,Y1).
// Points beyond either end take the end colour.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	From, To       Color
}

// ColorAt implements Paint.
func (g LinearGradient) ColorAt(x, y float64) Color {
	dx, dy := g.X1-g.X0, g.Y1-g.Y0
	den := dx*dx + dy*dy
	if den == 0 {
		return g.From
	}
	t := ((x-g.X0)*dx + (y-g.Y0)*dy) / den
	return Mix(g.From, g.To, t)
}

// RadialGradient interpolates Inner at the centre to Outer at radius R.
type RadialGradient struct {
	CX, CY, R    float64
	Inner, Outer Color
}

// ColorAt implements Paint.
func (g RadialGradient) ColorAt(x, y float64) Color {
	if g.R <= 0 {
		return g.Outer
	}
	d := math.Hypot(x-g.CX, y-g.CY)
	return Mix(g.Inner, g.Outer, d/g.R)
}

// Rotated samples Paint in a frame rotated by Angle around (CX,CY), so a
// gradient defined for an upright shape follows the shape when it rotates.
type Rotated struct {
	Paint
	CX, CY, Angle float64
}

// ColorAt implements Paint.
func (r Rotated) ColorAt(x, y float64) Color {
	p := RotateAround(Point{X: x, Y: y}, r.CX, r.CY, -r.Angle)
	return r.Paint.ColorAt(p.X, p.Y)
}
