package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/flappysavon/internal/analytics"
	"github.com/tomz197/flappysavon/internal/audio"
	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/game"
	"github.com/tomz197/flappysavon/internal/input"
	loopconfig "github.com/tomz197/flappysavon/internal/loop/config"
	"github.com/tomz197/flappysavon/internal/loop/server"
	"github.com/tomz197/flappysavon/internal/particle"
	"github.com/tomz197/flappysavon/internal/profile"
	"github.com/tomz197/flappysavon/internal/render"
	"github.com/tomz197/flappysavon/internal/scores"
	"github.com/tomz197/flappysavon/internal/security"
)

// Client runs one player's game on one terminal connection.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Buffers canvas output for chunked writes
	reader       *bufio.Reader
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
	termWidth    int
	termHeight   int
	lastStatus   string // Status line as last written

	cfg      *config.Config
	lookup   *config.Lookup
	game     *game.Game
	queue    *game.TaskQueue
	stepper  *Stepper
	renderer *render.Renderer
	session  *security.Session
	sounds   *audio.Player
	tracker  *analytics.Tracker

	profiles   *profile.Store
	profileKey string
	profile    profile.Profile

	submitter   *scores.Submitter
	completions chan func() // Background results, applied on the loop goroutine

	device string
	logger *log.Logger
	now    func() time.Time
}

// ClientOptions configures the client. Only the server, reader and writer
// are required by NewClient; everything here has a working default.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string // Hub display name and default profile key
	ProfileKey   string
	Pseudo       string // Overrides the saved pseudo when set
	Email        string // Overrides the saved email when set
	Device       string // Reported in analytics, e.g. "ssh" or "terminal"

	Config    *config.Config
	Lookup    *config.Lookup
	Renderer  *render.Renderer
	Profiles  *profile.Store
	Submitter *scores.Submitter
	Sink      analytics.Sink
	Policy    security.Policy
	Logger    *log.Logger
	Rand      *rand.Rand
	Clock     func() time.Time
}

// NewClient creates a new client connected to the given hub.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = config.NewLookup(cfg)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	profiles := opts.Profiles
	if profiles == nil {
		profiles = profile.NewStore("", logger)
	}
	submitter := opts.Submitter
	if submitter == nil {
		submitter = scores.NewSubmitter(scores.NewMemoryStore(), opts.Device, logger)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.New(cfg, lookup, render.WithLogger(logger))
	}
	key := opts.ProfileKey
	if key == "" {
		key = opts.Username
	}

	handle := gs.RegisterClient(opts.Username)
	logger = logger.With("client", handle.ID)

	prof := profiles.Load(key)
	if opts.Pseudo != "" {
		prof.Pseudo = opts.Pseudo
	}
	if opts.Email != "" {
		prof.Email = opts.Email
	}
	if prof.Pseudo == "" {
		prof.Pseudo = opts.Username
	}
	if !lookup.HasSkin(prof.Skin) || lookup.Skin(prof.Skin).Unlock > prof.Best {
		prof.Skin = cfg.Skins[0].ID
	}

	c := &Client{
		server:       gs,
		handle:       handle,
		state:        NewClientState(),
		canvas:       draw.NewCanvas(cfg.Canvas.Width, cfg.Canvas.Height),
		reader:       r,
		writer:       w,
		lastInput:    now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		cfg:          cfg,
		lookup:       lookup,
		queue:        &game.TaskQueue{},
		stepper:      NewStepper(loopconfig.StepTime, loopconfig.MaxFrameDelta),
		renderer:     renderer,
		session:      security.NewSession(cfg.Security, opts.Policy, security.WithClock(now)),
		profiles:     profiles,
		profileKey:   key,
		profile:      prof,
		submitter:    submitter,
		completions:  make(chan func(), 8),
		device:       opts.Device,
		logger:       logger,
		now:          now,
	}
	c.chunkWriter = draw.NewChunkWriter(w)
	c.sounds = audio.New(c.chunkWriter, prof.Muted, audio.WithLogger(logger), audio.WithClock(now))
	c.tracker = analytics.NewTracker(opts.Sink, analytics.WithLogger(logger), analytics.WithClock(now))
	c.game = game.New(cfg, lookup, game.Deps{
		Particles: particle.New(cfg.Canvas.Width, cfg.Canvas.Height, cfg.GroundY(), rng),
		Sounds:    c.sounds,
		Recorder:  c.session,
		Scheduler: c.queue,
		Rand:      rng,
	})
	return c
}

// Run starts the client loop. Blocks until the client disconnects or the
// hub stops.
func (c *Client) Run() error {
	draw.EnterGame(c.writer)
	defer draw.LeaveGame(c.writer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.tracker.Run(ctx)
	defer c.tracker.Close()

	c.updateScreen()
	c.tracker.SessionStart(analytics.SessionInfo{
		Referrer:  c.device,
		Device:    c.device,
		Returning: c.profile.Games > 0,
		Screen:    fmt.Sprintf("%dx%d", c.termWidth, c.termHeight),
		Email:     c.profile.Email,
		Pseudo:    c.profile.Pseudo,
	})

	lastTime := c.now()
	for c.state.Running {
		frameStart := c.now()
		delta := frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()
		c.processCompletions()
		c.updateScreen()

		if c.state.Screen == ScreenShutdown {
			c.updateShutdownState(delta)
		} else {
			c.advance(delta)
		}

		if err := c.drawFrame(); err != nil {
			c.leave()
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < loopconfig.ClientTargetFrameTime {
			time.Sleep(loopconfig.ClientTargetFrameTime - elapsed)
		}
	}

	c.leave()
	return nil
}

// leave ends an unfinished playthrough and unregisters from the hub.
func (c *Client) leave() {
	if c.game.Alive() {
		c.tracker.GameEnd(c.game.Score(), c.profile.Email, c.profile.Pseudo)
	}
	c.saveProfile()
	c.server.UnregisterClient(c.handle.ID)
}

// advance runs the fixed steps due for delta, then the deferred tasks.
func (c *Client) advance(delta time.Duration) {
	for range c.stepper.Advance(delta) {
		c.dispatch(c.game.Update(1))
		c.renderer.Tick(1)
	}
	c.queue.Drain()
}

// dispatch reacts to a game signal.
func (c *Client) dispatch(sig game.Signal) {
	switch sig {
	case game.SignalScore:
		c.onScore(c.game.Score())
	case game.SignalDead:
		c.onDead(c.game.Score())
	}
}

// processInput reads input and applies it to the game.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)
	in := c.state.Input

	now := c.now()
	if len(in.Pressed) > 0 || len(in.Clicks) > 0 {
		c.lastInput = now
		c.state.isInactive = false
	} else if now.Sub(c.lastInput).Seconds() > loopconfig.InactivityDisconnectUser {
		c.state.Running = false
	} else if now.Sub(c.lastInput).Seconds() > loopconfig.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.Quit {
		c.state.Running = false
		return
	}
	if c.state.Screen == ScreenShutdown {
		return
	}

	if in.Flap || c.clickedCanvas(in.Clicks) {
		c.flap()
	}
	if in.Pause {
		c.game.TogglePause()
	}
	if in.Skin {
		c.nextSkin()
	}
	if in.Mute {
		c.toggleMute()
	}
	if in.Leaderboard {
		c.state.ShowBoard = !c.state.ShowBoard
	}
}

// clickedCanvas reports whether any click landed on the playfield.
func (c *Client) clickedCanvas(clicks []input.Click) bool {
	for _, cl := range clicks {
		if _, _, ok := c.canvas.TerminalToLogical(cl.Col, cl.Row); ok {
			return true
		}
	}
	return false
}

// processServerEvents handles events from the hub.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Hub closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventLeaderboard:
				c.onLeaderboard(event.Version)
			case server.EventServerShutdown:
				c.state.Screen = ScreenShutdown
				c.state.shutdownTimer = loopconfig.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// processCompletions applies results posted by background work.
func (c *Client) processCompletions() {
	for {
		select {
		case apply := <-c.completions:
			apply()
		default:
			return
		}
	}
}

// post hands fn to the loop goroutine. Results are dropped if the loop is
// not keeping up.
func (c *Client) post(fn func()) {
	select {
	case c.completions <- fn:
	default:
		c.logger.Debug("completion dropped")
	}
}

// updateScreen refits the canvas on terminal resize. On actual size changes
// it clears the terminal to remove residual pixels outside the new canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := draw.TerminalSizeRawWith(c.termSizeFunc)
	if err != nil {
		return
	}
	if termWidth == c.termWidth && termHeight == c.termHeight {
		return
	}
	c.termWidth, c.termHeight = termWidth, termHeight

	// Keep the bottom row free for the status line.
	c.canvas.Fit(termWidth, max(termHeight-1, 1))
	draw.ClearScreen(c.writer)
	c.canvas.ForceRedraw()
	c.lastStatus = ""
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState(delta time.Duration) {
	c.state.shutdownTimer -= delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
