// Package backend opens the score store, the analytics sink and the logger
// selected by the process settings. Every binary wires its dependencies here.
package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/tomz197/flappysavon/internal/analytics"
	"github.com/tomz197/flappysavon/internal/config"
	"github.com/tomz197/flappysavon/internal/scores"
)

// Backend holds the opened connections. Close releases them.
type Backend struct {
	Store scores.Store
	Sink  analytics.Sink
	Kind  string

	db  *sqlx.DB
	rdb *redis.Client
}

// Open connects the store named by s.StoreBackend. The contest window in cfg
// applies to the stores that track one.
func Open(ctx context.Context, s *config.Settings, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	if logger == nil {
		logger = log.Default()
	}
	opts := []scores.StoreOption{scores.WithContest(cfg.Contest)}
	b := &Backend{Kind: s.StoreBackend}

	switch s.StoreBackend {
	case config.BackendMemory, "":
		b.Kind = config.BackendMemory
		b.Store = scores.NewMemoryStore(opts...)

	case config.BackendREST:
		b.Store = scores.NewRESTStore(s.ScoreAPIBase, nil)

	case config.BackendPostgres:
		db, err := scores.Connect(ctx, s.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if s.MigrateOnStart {
			logger.Info("running migrations")
			if err := scores.Migrate(db, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		b.db = db
		b.Store = scores.NewPostgresStore(db, opts...)

	case config.BackendRedis:
		rdb, err := scores.ConnectRedis(ctx, s.RedisURL)
		if err != nil {
			return nil, err
		}
		b.rdb = rdb
		b.Store = scores.NewRedisStore(rdb, opts...)

	default:
		return nil, fmt.Errorf("unknown store backend %q", s.StoreBackend)
	}

	switch {
	case s.AnalyticsURL != "":
		b.Sink = analytics.NewRESTSink(s.AnalyticsURL, s.AnalyticsKey, nil)
	case b.db != nil:
		b.Sink = analytics.NewSQLSink(b.db)
	default:
		b.Sink = analytics.NopSink{}
	}

	logger.Info("backend ready", "store", b.Kind, "analytics", sinkName(b.Sink))
	return b, nil
}

// Ping checks the connection behind the store. The memory and REST stores
// have nothing to check.
func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	switch {
	case b.db != nil:
		return b.db.PingContext(ctx)
	case b.rdb != nil:
		return b.rdb.Ping(ctx).Err()
	}
	return nil
}

// Close releases the database connections.
func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	if b.rdb != nil {
		return b.rdb.Close()
	}
	return nil
}

func sinkName(s analytics.Sink) string {
	switch s.(type) {
	case *analytics.RESTSink:
		return "rest"
	case *analytics.SQLSink:
		return "sql"
	}
	return "none"
}

// NewLogger builds the process logger. When s.LogFile is set the log goes to
// that file instead of w; the returned closer releases it.
func NewLogger(s *config.Settings, w io.Writer, prefix string) (*log.Logger, io.Closer, error) {
	var closer io.Closer = nopCloser{}
	if s.LogFile != "" {
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	level, err := log.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
