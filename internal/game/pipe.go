package game

import (
	"math"

	"github.com/tomz197/flappysavon/internal/physics"
)

// Pipe is one obstacle pair. BottomY-TopH is always the configured gap.
type Pipe struct {
	X       float64
	TopH    float64
	BottomY float64
	Passed  bool
}

// newPipe spawns a pipe at x with a random opening that always fits the
// playfield: TopH is clamped to [margin, H-ground-margin-gap]. TopH is a
// whole number so that BottomY-TopH equals the (whole) gap exactly.
func (g *Game) newPipe(x float64) Pipe {
	lo := math.Ceil(g.cfg.Pipes.Margin)
	hi := max(lo, math.Floor(g.cfg.MaxPipeTop()))
	topH := math.Round(lo + g.rng.Float64()*(hi-lo))
	topH = max(lo, min(hi, topH))
	return Pipe{X: x, TopH: topH, BottomY: topH + g.cfg.Pipes.Gap}
}

// recyclePipe drops the lead pipe and appends a fresh one behind the last,
// keeping the ring length constant.
func (g *Game) recyclePipe() {
	last := g.pipes[len(g.pipes)-1]
	copy(g.pipes, g.pipes[1:])
	g.pipes[len(g.pipes)-1] = g.newPipe(last.X + g.cfg.Pipes.Spacing)
}

// hitbox is the soap's bounding box shrunk by the forgiving padding.
func (g *Game) hitbox() physics.Rect {
	s := g.soap
	return physics.Rect{X: s.X - s.W/2, Y: s.Y - s.H/2, W: s.W, H: s.H}.
		Inset(g.cfg.Soap.HitboxPadX, g.cfg.Soap.HitboxPadY)
}

// PipeRects returns the top and bottom obstacle rectangles of p.
func (g *Game) PipeRects(p Pipe) (top, bottom physics.Rect) {
	w := g.cfg.Pipes.Width
	top = physics.Rect{X: p.X, Y: 0, W: w, H: p.TopH}
	bottom = physics.Rect{X: p.X, Y: p.BottomY, W: w, H: g.cfg.GroundY() - p.BottomY}
	return top, bottom
}

func (g *Game) collides(p *Pipe, hitbox physics.Rect) bool {
	top, bottom := g.PipeRects(*p)
	return hitbox.Intersects(top) || hitbox.Intersects(bottom)
}
