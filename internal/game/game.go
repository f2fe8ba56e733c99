// Package game is the Flappy Savon state machine: soap physics, the pipe
// ring, collision, scoring and theme selection. It performs no I/O; side
// effects go through the injected collaborators.
package game

import (
	"math"
	"math/rand/v2"

	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/particle"
)

// State is the coarse lifecycle state of a playthrough.
type State int

const (
	StateIdle    State = iota // waiting for the first flap
	StatePlaying              // alive
	StatePaused               // alive, frozen
	StateDead                 // game over until Reset
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDead:
		return "dead"
	}
	return "idle"
}

// Signal is the outcome of one Update tick.
type Signal int

const (
	SignalNone Signal = iota
	SignalScore
	SignalDead
)

// rotationDamping is the horizontal term of atan2(vy, k) used for the soap tilt.
const rotationDamping = 8

// themeTransitionRate is how far the background crossfade advances per tick.
const themeTransitionRate = 0.02

// flapBubbleChance is the probability that a flap releases a bubble.
const flapBubbleChance = 0.1

// Sounds receives fire-and-forget audio cues.
type Sounds interface {
	Flap()
	Score()
	Hit()
}

// Recorder receives the security bookkeeping of a playthrough.
type Recorder interface {
	Init() string
	RecordFlap()
	RecordPipe(score int)
}

// Scheduler defers work out of the input handler. The main loop drains it
// once per frame after physics.
type Scheduler interface {
	Defer(task func())
}

// Soap is the player sprite. X is fixed after spawn.
type Soap struct {
	X, Y float64
	VY   float64
	W, H float64
	Rot  float64
}

// Deps are the collaborators of a Game. Nil fields get silent defaults.
type Deps struct {
	Particles *particle.System
	Sounds    Sounds
	Recorder  Recorder
	Scheduler Scheduler
	Rand      *rand.Rand
}

// Game owns all gameplay state. Renderer and UI only read it.
type Game struct {
	cfg       *config.Config
	lookup    *config.Lookup
	particles *particle.System
	sounds    Sounds
	recorder  Recorder
	sched     Scheduler
	rng       *rand.Rand

	alive    bool
	gameOver bool
	paused   bool
	crashed  bool // Update returned SignalDead; frozen until Die or Reset
	score    int
	t        int

	soap  Soap
	pipes []Pipe
	theme ThemeState
}

// New builds a game and resets it to a fresh playthrough.
func New(cfg *config.Config, lookup *config.Lookup, deps Deps) *Game {
	g := &Game{
		cfg:       cfg,
		lookup:    lookup,
		particles: deps.Particles,
		sounds:    deps.Sounds,
		recorder:  deps.Recorder,
		sched:     deps.Scheduler,
		rng:       deps.Rand,
		pipes:     make([]Pipe, cfg.Pipes.Count),
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.particles == nil {
		g.particles = particle.New(cfg.Canvas.Width, cfg.Canvas.Height, cfg.GroundY(), g.rng)
	}
	if g.sounds == nil {
		g.sounds = nopSounds{}
	}
	if g.recorder == nil {
		g.recorder = nopRecorder{}
	}
	if g.sched == nil {
		g.sched = immediate{}
	}
	g.Reset()
	return g
}

// Reset starts a fresh playthrough: no score, soap at spawn, a new pipe
// ring, the lowest theme, no particles and a new security session.
func (g *Game) Reset() {
	g.alive = false
	g.gameOver = false
	g.paused = false
	g.crashed = false
	g.score = 0
	g.t = 0

	g.soap = Soap{
		X: g.cfg.Soap.StartX,
		Y: g.cfg.Canvas.Height * 0.5,
		W: g.cfg.Soap.Width,
		H: g.cfg.Soap.Height,
	}

	for i := range g.pipes {
		g.pipes[i] = g.newPipe(g.cfg.Canvas.Width + float64(i)*g.cfg.Pipes.Spacing)
	}

	first := g.lookup.ThemeForScore(0)
	g.theme = ThemeState{Previous: first, Current: first, Transition: 1}

	g.particles.Reset()
	g.particles.AdjustForTheme(first)
	g.recorder.Init()
}

// Flap gives the soap its upward impulse. After game over the first flap
// restarts instead. Audio, the flap counter and the occasional bubble run
// later through the scheduler.
func (g *Game) Flap() {
	if g.paused {
		return
	}
	if g.gameOver {
		g.Reset()
		return
	}
	if g.crashed {
		return
	}

	g.alive = true
	g.soap.VY = g.cfg.Physics.FlapForce

	g.sched.Defer(func() {
		g.sounds.Flap()
		g.recorder.RecordFlap()
		if g.rng.Float64() < flapBubbleChance {
			g.particles.SpawnBubble(g.soap.X+8, g.soap.Y)
		}
	})
}

// TogglePause flips the paused flag while playing and returns the new value.
func (g *Game) TogglePause() bool {
	if !g.alive || g.gameOver {
		return g.paused
	}
	g.paused = !g.paused
	return g.paused
}

// Update advances the simulation by dt ticks (1.0 = one 1/60 s step).
func (g *Game) Update(dt float64) Signal {
	g.theme.advance(g.lookup.ThemeForScore(g.score), dt)

	// Ambient effects keep running while paused or over.
	g.particles.Update(dt)

	if g.paused || g.gameOver || g.crashed {
		return SignalNone
	}

	for i := range g.pipes {
		g.pipes[i].X -= g.cfg.Physics.ScrollSpeed * dt
	}
	if g.pipes[0].X+g.cfg.Pipes.Width < 0 {
		g.recyclePipe()
	}

	// Before the first flap the soap hangs at spawn while the pipes scroll.
	if g.alive {
		g.soap.VY += g.cfg.Physics.Gravity * dt
		g.soap.Y += g.soap.VY * dt
		g.soap.Rot = math.Atan2(g.soap.VY, rotationDamping)
	}

	groundY := g.cfg.GroundY()
	inset := g.cfg.Soap.GroundInset
	if g.soap.Y+g.soap.H/2 > groundY+inset {
		g.soap.Y = groundY - g.soap.H/2 + inset
		g.crashed = true
		return SignalDead
	}

	if g.soap.Y-g.soap.H/2 < 0 {
		g.soap.Y = g.soap.H / 2
		g.soap.VY = 0
	}

	// First match wins, in ring order.
	hitbox := g.hitbox()
	for i := range g.pipes {
		p := &g.pipes[i]
		if !p.Passed && p.X+g.cfg.Pipes.Width < g.soap.X {
			p.Passed = true
			g.score++
			g.onScore()
			return SignalScore
		}
		if g.collides(p, hitbox) {
			g.crashed = true
			return SignalDead
		}
	}

	g.t++
	return SignalNone
}

func (g *Game) onScore() {
	g.recorder.RecordPipe(g.score)
	g.particles.Splash(g.soap.X, g.soap.Y)
	g.particles.AdjustForTheme(g.lookup.ThemeForScore(g.score))
	g.sounds.Score()
}

// Die ends the playthrough. Calling it again is a no-op.
func (g *Game) Die() {
	if g.gameOver {
		return
	}
	g.gameOver = true
	g.alive = false
	g.paused = false
	g.sounds.Hit()
}

// State returns the lifecycle state.
func (g *Game) State() State {
	switch {
	case g.gameOver:
		return StateDead
	case g.paused:
		return StatePaused
	case g.alive:
		return StatePlaying
	}
	return StateIdle
}

// Score returns the pipes passed in this playthrough.
func (g *Game) Score() int { return g.score }

// Alive reports whether the soap is in flight.
func (g *Game) Alive() bool { return g.alive }

// GameOver reports whether Die has been called since the last Reset.
func (g *Game) GameOver() bool { return g.gameOver }

// Paused reports whether the game is paused.
func (g *Game) Paused() bool { return g.paused }

// Tick returns the number of uneventful ticks since Reset.
func (g *Game) Tick() int { return g.t }

// Soap returns a copy of the player state.
func (g *Game) Soap() Soap { return g.soap }

// Pipes returns the pipe ring, lead pipe first. Callers must not modify it.
func (g *Game) Pipes() []Pipe { return g.pipes }

// Theme returns the theme crossfade state.
func (g *Game) Theme() ThemeState { return g.theme }

// Particles returns the particle system driven by this game.
func (g *Game) Particles() *particle.System { return g.particles }

type nopSounds struct{}

func (nopSounds) Flap()  {}
func (nopSounds) Score() {}
func (nopSounds) Hit()   {}

type nopRecorder struct{}

func (nopRecorder) Init() string   { return "" }
func (nopRecorder) RecordFlap()    {}
func (nopRecorder) RecordPipe(int) {}

type immediate struct{}

func (immediate) Defer(task func()) { task() }
