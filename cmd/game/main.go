package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/tomz197/flappysavon/internal/backend"
	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/loop/client"
	"github.com/tomz197/flappysavon/internal/loop/server"
	"github.com/tomz197/flappysavon/internal/profile"
	"github.com/tomz197/flappysavon/internal/render"
	"github.com/tomz197/flappysavon/internal/scores"
	"github.com/tomz197/flappysavon/internal/security"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings := config.Load()

	// The game owns the terminal, so logs go to a file or nowhere.
	logger, closeLog, err := backend.NewLogger(settings, io.Discard, "flappy")
	if err != nil {
		return err
	}
	defer closeLog.Close()

	cfg, err := loadGameConfig(settings.GameConfigPath)
	if err != nil {
		return err
	}
	lookup := config.NewLookup(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be, err := backend.Open(ctx, settings, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	hub := server.NewServer(be.Store,
		server.WithRefresh(cfg.UI.LeaderboardRefresh),
		server.WithLogger(logger))
	go hub.Run(ctx)

	submitter := scores.NewSubmitter(be.Store, "terminal", logger)
	defer submitter.Wait()

	renderOpts := []render.Option{render.WithLogger(logger)}
	if tex := loadTexture(cfg, logger); tex != nil {
		renderOpts = append(renderOpts, render.WithTexture(tex))
	}

	username := settings.Pseudo
	if username == "" {
		username = "local"
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	c := client.NewClient(hub, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
		Username:  username,
		Pseudo:    settings.Pseudo,
		Email:     settings.Email,
		Device:    "terminal",
		Config:    cfg,
		Lookup:    lookup,
		Renderer:  render.New(cfg, lookup, renderOpts...),
		Profiles:  profile.NewStore(settings.ProfileDir, logger),
		Submitter: submitter,
		Sink:      be.Sink,
		Policy:    security.ParsePolicy(settings.ValidationPolicy),
		Logger:    logger,
	})
	return c.Run()
}

func loadGameConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

// loadTexture returns the obstacle texture, or nil to draw plain pipes.
func loadTexture(cfg *config.Config, logger *log.Logger) *render.Texture {
	if cfg.Images.Obstacle == "" {
		return nil
	}
	tex, err := render.LoadTexture(cfg.Images.Obstacle)
	if err != nil {
		logger.Warn("obstacle texture unavailable", "path", cfg.Images.Obstacle, "err", err)
		return nil
	}
	return tex
}
