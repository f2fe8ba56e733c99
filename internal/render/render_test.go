package render

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
	"github.com/tomz197/flappysavon/internal/particle"
)

type fakeScene struct {
	state game.State
	soap  game.Soap
	pipes []game.Pipe
	theme game.ThemeState
	ps    *particle.System
}

func (s *fakeScene) State() game.State           { return s.state }
func (s *fakeScene) Soap() game.Soap             { return s.soap }
func (s *fakeScene) Pipes() []game.Pipe          { return s.pipes }
func (s *fakeScene) Theme() game.ThemeState      { return s.theme }
func (s *fakeScene) Particles() *particle.System { return s.ps }

// winterNight is well after sunset in January.
var winterNight = time.Date(2025, time.January, 10, 2, 0, 0, 0, time.UTC)

func newScene(cfg *config.Config, lookup *config.Lookup, state game.State) *fakeScene {
	first := lookup.ThemeForScore(0)
	return &fakeScene{
		state: state,
		soap:  game.Soap{X: 300, Y: 520, W: cfg.Soap.Width, H: cfg.Soap.Height},
		pipes: []game.Pipe{{X: 100, TopH: 200, BottomY: 350}},
		theme: game.ThemeState{Previous: first, Current: first, Transition: 1},
		ps:    particle.New(cfg.Canvas.Width, cfg.Canvas.Height, cfg.GroundY(), rand.New(rand.NewPCG(1, 2))),
	}
}

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *config.Config, *config.Lookup) {
	t.Helper()
	cfg := config.Default()
	lookup := config.NewLookup(cfg)
	opts = append([]Option{WithClock(func() time.Time { return winterNight })}, opts...)
	return New(cfg, lookup, opts...), cfg, lookup
}

func fullScaleCanvas(cfg *config.Config) *draw.Canvas {
	c := draw.NewCanvas(cfg.Canvas.Width, cfg.Canvas.Height)
	c.Fit(int(cfg.Canvas.Width), int(cfg.Canvas.Height)/2)
	return c
}

func near(a, b draw.Color, tol int) bool {
	d := func(x, y uint8) bool { return abs(int(x)-int(y)) <= tol }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestMixColor(t *testing.T) {
	if got := MixColor("#000000", "#ffffff", 0); got != draw.RGB(0, 0, 0) {
		t.Errorf("k=0: %v", got)
	}
	if got := MixColor("#000000", "#ffffff", 1); got != draw.RGB(255, 255, 255) {
		t.Errorf("k=1: %v", got)
	}
	if got := MixColor("#000000", "#ffffff", 0.5); !near(got, draw.RGB(128, 128, 128), 1) {
		t.Errorf("k=0.5: %v", got)
	}
	if got := MixColor("nope", "also nope", 0.3); got != fallbackColor {
		t.Errorf("bad input: %v, want fallback", got)
	}
}

func TestIsNight(t *testing.T) {
	tests := []struct {
		when time.Time
		want bool
	}{
		{time.Date(2025, time.January, 5, 3, 0, 0, 0, time.UTC), true},
		{time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC), false},
		{time.Date(2025, time.June, 21, 21, 0, 0, 0, time.UTC), false},
		{time.Date(2025, time.June, 21, 22, 30, 0, 0, time.UTC), true},
		{time.Date(2025, time.December, 1, 17, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		if got := IsNight(tt.when); got != tt.want {
			t.Errorf("IsNight(%v) = %v, want %v", tt.when, got, tt.want)
		}
	}
}

func TestSkyIsReevaluatedAtMostOncePerMinute(t *testing.T) {
	now := time.Date(2025, time.January, 5, 17, 17, 50, 0, time.UTC)
	r, _, _ := newTestRenderer(t, WithClock(func() time.Time { return now }))

	if r.Night() {
		t.Fatal("17:17 in January should still be day")
	}
	now = now.Add(30 * time.Second) // past sunset, inside the minute
	if r.Night() {
		t.Fatal("day/night flipped before the minute elapsed")
	}
	now = now.Add(time.Minute)
	if !r.Night() {
		t.Fatal("night not picked up after a minute")
	}
}

func TestTickWrapsGridOffset(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	for range 1000 {
		r.Tick(1)
	}
	if r.Frame() != 1000 {
		t.Fatalf("frame = %d, want 1000", r.Frame())
	}
	if r.gridOffset < 0 || r.gridOffset >= gridPeriod {
		t.Fatalf("gridOffset = %v, want within [0,%d)", r.gridOffset, gridPeriod)
	}
}

func TestKraftPipeCaps(t *testing.T) {
	r, cfg, lookup := newTestRenderer(t)
	c := fullScaleCanvas(cfg)
	r.Draw(c, newScene(cfg, lookup, game.StatePlaying), "ortie")

	// Caps sit just above the top segment's end and at the bottom segment's start.
	if got := c.At(135, 196); got != kraftCap {
		t.Errorf("top cap = %v, want %v", got, kraftCap)
	}
	if got := c.At(135, 353); got != kraftCap {
		t.Errorf("bottom cap = %v, want %v", got, kraftCap)
	}
	// Inside the gap the background shows through.
	if got := c.At(135, 275); got == kraftCap {
		t.Error("gap painted as pipe")
	}
}

func TestTexturedPipes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 40, A: 255})
		}
	}
	tex, err := NewTexture(img)
	if err != nil {
		t.Fatal(err)
	}
	r, cfg, lookup := newTestRenderer(t, WithTexture(tex))
	c := fullScaleCanvas(cfg)
	r.Draw(c, newScene(cfg, lookup, game.StatePlaying), "ortie")

	if got := c.At(135, 100); !near(got, draw.RGB(200, 30, 40), 2) {
		t.Fatalf("textured pipe = %v, want ~#c81e28", got)
	}
}

func TestEmptyTextureRejected(t *testing.T) {
	if _, err := NewTexture(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Fatal("expected an error for an empty image")
	}
}

func TestMissingTextureFallsBackToKraft(t *testing.T) {
	cfg := config.Default()
	cfg.Images.Obstacle = "/nonexistent/obstacle.png"
	r := New(cfg, config.NewLookup(cfg), WithClock(func() time.Time { return winterNight }))
	if r.texture != nil {
		t.Fatal("texture should stay nil when the file is missing")
	}
}

func TestGameOverOverlayDarkens(t *testing.T) {
	r, cfg, lookup := newTestRenderer(t)
	playing := fullScaleCanvas(cfg)
	r.Draw(playing, newScene(cfg, lookup, game.StatePlaying), "ortie")
	dead := fullScaleCanvas(cfg)
	r.Draw(dead, newScene(cfg, lookup, game.StateDead), "ortie")

	a, b := playing.At(300, 100), dead.At(300, 100)
	if luminance(b) >= luminance(a)*0.5 {
		t.Fatalf("game over luminance %v not well below playing %v", luminance(b), luminance(a))
	}
}

func TestSoapColoursCachedPerSkin(t *testing.T) {
	r, _, _ := newTestRenderer(t)

	first := r.skinColors("noir")
	if first.id != "noir" {
		t.Fatalf("cached id = %q", first.id)
	}
	if luminance(first.ink) < 0.5 {
		t.Errorf("label on the dark skin should be light, got %v", first.ink)
	}
	if r.skinColors("noir").c1 != first.c1 {
		t.Error("same skin should reuse cached colours")
	}
	if got := r.skinColors("ortie").ink; got != draw.Hex(labelInk, fallbackColor) {
		t.Errorf("light skin label = %v, want dark ink", got)
	}
}

func TestSoapBodyUsesSkinGradient(t *testing.T) {
	r, cfg, lookup := newTestRenderer(t)
	c := fullScaleCanvas(cfg)
	s := newScene(cfg, lookup, game.StatePlaying)
	r.Draw(c, s, "noir")

	// Lower half of the bar, clear of the gloss band.
	got := c.At(s.soap.X-20, s.soap.Y+12)
	if luminance(got) > 0.2 {
		t.Fatalf("soap body = %v, want the dark noir gradient", got)
	}
}
