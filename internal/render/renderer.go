// Package render paints a game frame onto a draw.Canvas. Apart from a few
// cached values it holds no state of its own; everything it draws is read
// from the game and its particle system.
package render

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
	"github.com/tomz197/flappysavon/internal/particle"
)

// gridPeriod is the wrap length of the drifting decor offset.
const gridPeriod = 32

// Scene is the read-only view of a playthrough the renderer needs.
// *game.Game implements it.
type Scene interface {
	State() game.State
	Soap() game.Soap
	Pipes() []game.Pipe
	Theme() game.ThemeState
	Particles() *particle.System
}

var _ Scene = (*game.Game)(nil)

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces the wall clock used for day and night.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithTexture sets the obstacle texture. A nil texture keeps the kraft style.
func WithTexture(tex *Texture) Option {
	return func(r *Renderer) { r.texture = tex }
}

// WithLogger sets the logger used for texture problems.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// Renderer draws frames. It is owned by one client loop and is not safe for
// concurrent use.
type Renderer struct {
	cfg     *config.Config
	lookup  *config.Lookup
	logger  *log.Logger
	now     func() time.Time
	texture *Texture

	t          int
	gridOffset float64

	sky  skyClock
	soap soapCache

	wave []draw.Point
}

// New builds a renderer for cfg. If cfg names an obstacle image and no
// texture was given, it is loaded here; failures fall back to the kraft style.
func New(cfg *config.Config, lookup *config.Lookup, opts ...Option) *Renderer {
	r := &Renderer{
		cfg:    cfg,
		lookup: lookup,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.texture == nil && cfg.Images.Obstacle != "" {
		tex, err := LoadTexture(cfg.Images.Obstacle)
		if err != nil {
			r.logger.Warn("obstacle texture unavailable", "path", cfg.Images.Obstacle, "err", err)
		} else {
			r.texture = tex
		}
	}
	return r
}

// Tick advances the renderer's own animation clock by dt ticks.
func (r *Renderer) Tick(dt float64) {
	r.t++
	r.gridOffset += 0.15 * dt
	for r.gridOffset >= gridPeriod {
		r.gridOffset -= gridPeriod
	}
}

// Frame returns the number of ticks seen so far.
func (r *Renderer) Frame() int { return r.t }

// Night reports whether the decor currently shows the night sky.
func (r *Renderer) Night() bool { return r.sky.night(r.now()) }

// Draw paints one frame of s with the soap wearing skinID.
func (r *Renderer) Draw(c *draw.Canvas, s Scene, skinID string) {
	theme := s.Theme()
	c.SetAlpha(1)

	r.drawBackground(c, theme)
	r.drawDecor(c, theme, s.Particles())
	r.drawGround(c, theme.Current)
	r.drawPipes(c, s.Pipes())
	r.drawParticles(c, s.Particles())
	r.drawSoap(c, s.Soap(), skinID)
	r.drawOverlay(c, s.State())

	c.SetAlpha(1)
}
