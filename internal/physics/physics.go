// Package physics provides the axis-aligned collision test used by the game.
package physics

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X, Y, W, H float64
}

// Inset shrinks the rectangle by dx on the left and right and dy on the top and bottom.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Contains reports whether (x, y) lies inside the rectangle (edges inclusive on the top-left).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersects reports whether r and o overlap. See IntersectAABB.
func (r Rect) Intersects(o Rect) bool {
	return IntersectAABB(r.X, r.Y, r.X+r.W, r.Y+r.H, o.X, o.Y, o.X+o.W, o.Y+o.H)
}

// IntersectAABB reports whether the boxes (ax1,ay1)-(ax2,ay2) and
// (bx1,by1)-(bx2,by2) overlap. Corners are top-left and bottom-right.
// Touching edges do not count: the comparisons are strict on every axis,
// which makes the test symmetric.
func IntersectAABB(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 float64) bool {
	return ax1 < bx2 && ax2 > bx1 && ay1 < by2 && ay2 > by1
}
