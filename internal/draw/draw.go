package draw

import "math"

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockEmpty     = ' '
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Align positions text relative to its anchor x.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// RotateAround rotates p by angle radians around (cx, cy).
func RotateAround(p Point, cx, cy, angle float64) Point {
	if angle == 0 {
		return p
	}
	sin, cos := math.Sincos(angle)
	dx, dy := p.X-cx, p.Y-cy
	return Point{
		X: cx + dx*cos - dy*sin,
		Y: cy + dx*sin + dy*cos,
	}
}

// cornerSegments is the number of line segments per rounded corner.
const cornerSegments = 4

// AppendRoundRect appends the outline of a rounded rectangle to dst.
// The radius is clamped to half of the shorter side.
func AppendRoundRect(dst []Point, x, y, w, h, r float64) []Point {
	r = math.Max(0, math.Min(r, math.Min(w, h)/2))
	if r == 0 {
		return append(dst,
			Point{X: x, Y: y}, Point{X: x + w, Y: y},
			Point{X: x + w, Y: y + h}, Point{X: x, Y: y + h})
	}
	corners := [4]struct{ cx, cy, start float64 }{
		{x + w - r, y + r, -math.Pi / 2},
		{x + w - r, y + h - r, 0},
		{x + r, y + h - r, math.Pi / 2},
		{x + r, y + r, math.Pi},
	}
	for _, c := range corners {
		for i := 0; i <= cornerSegments; i++ {
			a := c.start + float64(i)*(math.Pi/2)/cornerSegments
			dst = append(dst, Point{X: c.cx + r*math.Cos(a), Y: c.cy + r*math.Sin(a)})
		}
	}
	return dst
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
