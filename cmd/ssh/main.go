package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/flappysavon/internal/backend"
	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/draw"
	"github.com/tomz197/flappysavon/internal/loop/client"
	"github.com/tomz197/flappysavon/internal/loop/server"
	"github.com/tomz197/flappysavon/internal/profile"
	"github.com/tomz197/flappysavon/internal/render"
	"github.com/tomz197/flappysavon/internal/scores"
	"github.com/tomz197/flappysavon/internal/security"
)

// emailEnv is the session variable a player can pass with
// `ssh -o SetEnv=FLAPPY_EMAIL=...` to have scores saved.
const emailEnv = "FLAPPY_EMAIL"

// Process-wide state shared by all SSH sessions.
var (
	gameServer   *server.Server
	cancelServer context.CancelFunc
	serverOnce   sync.Once

	settings  *config.Settings
	gameCfg   *config.Config
	lookup    *config.Lookup
	be        *backend.Backend
	submitter *scores.Submitter
	profiles  *profile.Store
	texture   *render.Texture
	logger    *log.Logger
)

func main() {
	settings = config.Load()

	var err error
	var closeLog io.Closer
	logger, closeLog, err = backend.NewLogger(settings, os.Stderr, "ssh")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog.Close()
	workingDir, workErr := os.Getwd()
	if workErr != nil {
		logger.Warn("failed to get working directory", "err", workErr)
	}
	logger.Info("ssh config",
		"host", settings.SSHHost, "port", settings.SSHPort,
		"hostKeyPath", settings.SSHHostKeyPath, "workingDir", workingDir)

	gameCfg = config.Default()
	if settings.GameConfigPath != "" {
		if gameCfg, err = config.LoadFile(settings.GameConfigPath); err != nil {
			logger.Fatal("failed to load game config", "err", err)
		}
	}
	lookup = config.NewLookup(gameCfg)

	if gameCfg.Images.Obstacle != "" {
		if texture, err = render.LoadTexture(gameCfg.Images.Obstacle); err != nil {
			logger.Warn("obstacle texture unavailable", "err", err)
		}
	}

	be, err = backend.Open(context.Background(), settings, gameCfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend", "err", err)
	}
	defer be.Close()

	submitter = scores.NewSubmitter(be.Store, "ssh", logger)
	profiles = profile.NewStore(settings.ProfileDir, logger)

	// Initialize and start the shared hub
	serverOnce.Do(func() {
		var ctx context.Context
		ctx, cancelServer = context.WithCancel(context.Background())
		gameServer = server.NewServer(be.Store,
			server.WithRefresh(gameCfg.UI.LeaderboardRefresh),
			server.WithLogger(logger))
		go gameServer.Run(ctx)
		logger.Info("game server started")
	})

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(settings.SSHHost, settings.SSHPort)),
		wish.WithMiddleware(
			gameMiddleware,
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if settings.SSHHostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(settings.SSHHostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting SSH server", "addr", net.JoinHostPort(settings.SSHHost, settings.SSHPort))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server...")

	// Notify players and wait for them to disconnect
	if gameServer != nil {
		logger.Info("notifying connected players about shutdown")
		gameServer.Shutdown(15 * time.Second)
		cancelServer()
		logger.Info("game server stopped")
	}
	submitter.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

// gameMiddleware handles SSH sessions and runs the game client.
func gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		logger.Info("new game session",
			"user", sess.User(), "term", pty.Term,
			"size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		c := client.NewClient(gameServer, bufio.NewReader(sess), sess, sessionOptions(sess, sizeTracker))
		if err := c.Run(); err != nil {
			logger.Warn("game error", "user", sess.User(), "err", err)
		}

		logger.Info("session ended", "user", sess.User())
		next(sess)
	}
}

// sessionOptions builds the per-session client options. Every session gets
// its own renderer and texture cache.
func sessionOptions(sess ssh.Session, sizeTracker *sizeTracker) client.ClientOptions {
	renderOpts := []render.Option{render.WithLogger(logger)}
	if texture != nil {
		renderOpts = append(renderOpts, render.WithTexture(texture.Clone()))
	}
	return client.ClientOptions{
		TermSizeFunc: sizeTracker.getSize,
		Username:     sess.User(),
		ProfileKey:   "ssh-" + sess.User(),
		Email:        sessionEmail(sess.Environ()),
		Device:       "ssh",
		Config:       gameCfg,
		Lookup:       lookup,
		Renderer:     render.New(gameCfg, lookup, renderOpts...),
		Profiles:     profiles,
		Submitter:    submitter,
		Sink:         be.Sink,
		Policy:       security.ParsePolicy(settings.ValidationPolicy),
		Logger:       logger,
	}
}

// sessionEmail picks FLAPPY_EMAIL out of the session environment.
func sessionEmail(environ []string) string {
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, emailEnv+"="); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
