package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/tomz197/flappysavon/internal/backend"
	"github.com/tomz197/flappysavon/internal/config"
)

func main() {
	settings := config.Load()

	logger, closeLog, err := backend.NewLogger(settings, os.Stderr, "web")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog.Close()

	gameCfg := config.Default()
	if settings.GameConfigPath != "" {
		if gameCfg, err = config.LoadFile(settings.GameConfigPath); err != nil {
			logger.Fatal("failed to load game config", "err", err)
		}
	}

	be, err := backend.Open(context.Background(), settings, gameCfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend", "err", err)
	}
	defer be.Close()

	if settings.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	setupRoutes(router, be.Store, be, settings.SSHDisplayHost, logger)

	addr := fmt.Sprintf("%s:%s", settings.WebHost, settings.WebPort)
	logger.Info("starting web server", "addr", "http://"+addr)
	if err := router.Run(addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
