// Package particle owns the short-lived visual effects: bubbles, confetti,
// ambient leaves and steam. Particles live in fixed pools and are reused in
// place; they never take part in collision or scoring.
package particle

import (
	"math"
	"math/rand/v2"

	"github.com/tomz197/flappysavon/internal/config"
)

// Pool capacities. Spawning into a full pool is a silent no-op.
const (
	BubblePool   = 20
	ConfettiPool = 50
	LeafPool     = 16
	SteamPool    = 12
)

// ConfettiBurst is the number of confetti pieces per SpawnConfetti call.
const ConfettiBurst = 10

// splashBubbles is the base bubble count of a scoring splash.
const splashBubbles = 3

// Bubble rises and fades.
type Bubble struct {
	Active bool
	X, Y   float64
	R      float64
	VY     float64
	Alpha  float64
}

// Confetto is one piece of a confetti burst.
type Confetto struct {
	Active bool
	X, Y   float64
	VX, VY float64
	Life   float64
	Rot    float64
	Hue    float64
}

// Leaf drifts across the screen when the theme has leaves.
type Leaf struct {
	Active bool
	X, Y   float64
	VX     float64
	W, H   float64
	Rot    float64
	Spin   float64
	Phase  float64
}

// Steam is a fog puff rising from the ground in foggy themes.
type Steam struct {
	Active bool
	X, Y   float64
	VY     float64
	R      float64
	Alpha  float64
}

// System holds every particle pool. The zero value is not usable; call New.
type System struct {
	Bubbles  [BubblePool]Bubble
	Confetti [ConfettiPool]Confetto
	Leaves   [LeafPool]Leaf
	Steam    [SteamPool]Steam

	width, height, groundY float64
	rng                    *rand.Rand

	leafTarget int
	fog        bool
	bubbleMul  float64
}

// New creates a particle system for a playfield of the given size.
// rng drives every random choice so tests can make the system deterministic.
func New(width, height, groundY float64, rng *rand.Rand) *System {
	return &System{
		width:     width,
		height:    height,
		groundY:   groundY,
		rng:       rng,
		bubbleMul: 1,
	}
}

// Reset deactivates every particle.
func (s *System) Reset() {
	for i := range s.Bubbles {
		s.Bubbles[i].Active = false
	}
	for i := range s.Confetti {
		s.Confetti[i].Active = false
	}
	for i := range s.Leaves {
		s.Leaves[i].Active = false
	}
	for i := range s.Steam {
		s.Steam[i].Active = false
	}
}

// AdjustForTheme retargets the ambient effects for theme.
func (s *System) AdjustForTheme(theme config.Theme) {
	s.leafTarget = min(theme.Leaves, LeafPool)
	s.fog = theme.Fog
	s.bubbleMul = theme.BubbleMul
	if s.bubbleMul <= 0 {
		s.bubbleMul = 1
	}
}

// SpawnBubble activates the first free bubble at (x, y).
func (s *System) SpawnBubble(x, y float64) bool {
	for i := range s.Bubbles {
		b := &s.Bubbles[i]
		if b.Active {
			continue
		}
		*b = Bubble{
			Active: true,
			X:      x,
			Y:      y,
			R:      s.rand(3, 9),
			VY:     s.rand(0.6, 1.6),
			Alpha:  s.rand(0.25, 0.6),
		}
		return true
	}
	return false
}

// SpawnConfetti bursts up to ConfettiBurst pieces near the top centre.
// It returns how many were spawned.
func (s *System) SpawnConfetti() int {
	spawned := 0
	for i := range s.Confetti {
		if spawned >= ConfettiBurst {
			break
		}
		c := &s.Confetti[i]
		if c.Active {
			continue
		}
		*c = Confetto{
			Active: true,
			X:      s.width/2 + s.rand(-60, 60),
			Y:      s.height * 0.3,
			VX:     s.rand(-0.8, 0.8),
			VY:     s.rand(-1.5, -0.3),
			Life:   s.rand(15, 25),
			Rot:    s.rand(0, 5),
			Hue:    math.Floor(s.rand(0, 360)),
		}
		spawned++
	}
	return spawned
}

// Splash spawns a small cluster of bubbles around (x, y), scaled by the
// theme's bubble multiplier.
func (s *System) Splash(x, y float64) {
	n := int(math.Round(splashBubbles * s.bubbleMul))
	for range n {
		if !s.SpawnBubble(x+s.rand(-10, 10), y+s.rand(-6, 6)) {
			return
		}
	}
}

// Update advances every active particle by dt ticks. It is safe to call
// while the game is paused or over.
func (s *System) Update(dt float64) {
	for i := range s.Bubbles {
		b := &s.Bubbles[i]
		if !b.Active {
			continue
		}
		b.Y -= b.VY * dt
		b.Alpha -= 0.002 * dt
		if b.Y < -20 || b.Alpha <= 0 {
			b.Active = false
		}
	}

	for i := range s.Confetti {
		c := &s.Confetti[i]
		if !c.Active {
			continue
		}
		c.X += c.VX * dt
		c.Y += c.VY * dt
		c.VY += 0.05 * dt
		c.Life -= dt
		if c.Life <= 0 {
			c.Active = false
		}
	}

	s.updateLeaves(dt)
	s.updateSteam(dt)
}

func (s *System) updateLeaves(dt float64) {
	active := 0
	for i := range s.Leaves {
		f := &s.Leaves[i]
		if !f.Active {
			continue
		}
		f.Phase += 0.03 * dt
		f.X += f.VX * dt
		f.Y += math.Sin(f.Phase) * 0.4 * dt
		f.Rot += f.Spin * dt
		if f.X < -20 || f.Y > s.groundY {
			f.Active = false
			continue
		}
		active++
	}

	// Top up one leaf per tick so the density ramps in smoothly.
	if active >= s.leafTarget {
		return
	}
	for i := range s.Leaves {
		f := &s.Leaves[i]
		if f.Active {
			continue
		}
		*f = Leaf{
			Active: true,
			X:      s.width + s.rand(10, 120),
			Y:      s.rand(20, s.groundY*0.7),
			VX:     -s.rand(0.4, 1.2),
			W:      s.rand(4, 7),
			H:      s.rand(2, 3.5),
			Rot:    s.rand(0, math.Pi),
			Spin:   s.rand(-0.03, 0.03),
			Phase:  s.rand(0, 2*math.Pi),
		}
		return
	}
}

func (s *System) updateSteam(dt float64) {
	for i := range s.Steam {
		p := &s.Steam[i]
		if !p.Active {
			continue
		}
		p.Y -= p.VY * dt
		p.R += 0.05 * dt
		p.Alpha -= 0.003 * dt
		if p.Alpha <= 0 {
			p.Active = false
		}
	}

	if !s.fog || s.rng.Float64() >= 0.05*dt {
		return
	}
	for i := range s.Steam {
		p := &s.Steam[i]
		if p.Active {
			continue
		}
		*p = Steam{
			Active: true,
			X:      s.rand(0, s.width),
			Y:      s.groundY,
			VY:     s.rand(0.3, 0.8),
			R:      s.rand(8, 16),
			Alpha:  s.rand(0.2, 0.4),
		}
		return
	}
}

// ActiveCounts reports how many bubbles, confetti, leaves and steam puffs are live.
func (s *System) ActiveCounts() (bubbles, confetti, leaves, steam int) {
	for _, b := range s.Bubbles {
		if b.Active {
			bubbles++
		}
	}
	for _, c := range s.Confetti {
		if c.Active {
			confetti++
		}
	}
	for _, f := range s.Leaves {
		if f.Active {
			leaves++
		}
	}
	for _, p := range s.Steam {
		if p.Active {
			steam++
		}
	}
	return
}

// rand returns a uniform value in [a, b).
func (s *System) rand(a, b float64) float64 {
	return s.rng.Float64()*(b-a) + a
}
