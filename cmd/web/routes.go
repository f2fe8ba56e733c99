package main

import (
	"context"
	_ "embed"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/tomz197/flappysavon/internal/scores"
)

//go:embed index.html
var htmlPage string

var startTime = time.Now()

// Pinger reports whether the score backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// boardRow is the public leaderboard row. Emails never leave the server.
type boardRow struct {
	Rank   int    `json:"rank"`
	Pseudo string `json:"pseudo"`
	Score  int    `json:"score"`
}

// setupRoutes configures the landing page and the JSON endpoints.
func setupRoutes(router *gin.Engine, store scores.Store, health Pinger, sshHost string, logger *log.Logger) {
	page := strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost)

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	})

	router.GET("/healthz", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := health.Ping(c.Request.Context()); err != nil {
			logger.Warn("health check failed", "err", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": "flappysavon-web",
			"uptime":  time.Since(startTime).String(),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/leaderboard", leaderboardHandler(store, logger))
	}
}

// leaderboardHandler serves the top entries. ?type=contest selects the
// contest ranking on stores that keep one.
func leaderboardHandler(store scores.Store, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var (
			rows    []scores.Entry
			err     error
			contest = c.Query("type") == "contest"
		)
		if contest {
			cb, ok := store.(scores.ContestBoard)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "no contest ranking on this backend"})
				return
			}
			rows, err = cb.ContestLeaderboard(ctx)
		} else {
			rows, err = store.Leaderboard(ctx)
		}
		if err != nil {
			logger.Error("leaderboard fetch failed", "contest", contest, "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "leaderboard unavailable"})
			return
		}

		out := make([]boardRow, 0, len(rows))
		for i, e := range rows {
			score := e.Value()
			if contest {
				score = e.ContestBest
			}
			pseudo := e.Pseudo
			if pseudo == "" {
				pseudo = scores.DefaultPseudo
			}
			out = append(out, boardRow{Rank: i + 1, Pseudo: pseudo, Score: score})
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, out)
	}
}
