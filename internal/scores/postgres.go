package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens a PostgreSQL pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return db, nil
}

// PostgresStore keeps one row per email in the scores table.
type PostgresStore struct {
	db  *sqlx.DB
	win window
}

// NewPostgresStore wraps an open pool. Run Migrate first.
func NewPostgresStore(db *sqlx.DB, opts ...StoreOption) *PostgresStore {
	return &PostgresStore{db: db, win: newWindow(opts)}
}

type scoreRow struct {
	ID          int64 `db:"id"`
	Best        int   `db:"best"`
	ContestBest int   `db:"contest_best"`
}

// Submit implements Store. Score, points, badges and opt-in always follow
// the latest game; best and pseudo change only on a new best, and the
// contest best only inside the contest window.
func (p *PostgresStore) Submit(ctx context.Context, s Submission) error {
	rec := normalize(s)
	if rec.Email == "" {
		return ErrNoEmail
	}
	contest := p.win.active()

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var existing scoreRow
	err = tx.GetContext(ctx, &existing,
		`SELECT id, best, contest_best FROM scores WHERE email = $1 LIMIT 1 FOR UPDATE`, rec.Email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		contestBest := 0
		if contest {
			contestBest = rec.Score
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO scores (email, pseudo, score, best, points, optin, badges, contest_best)
			 VALUES (:email, :pseudo, :score, :best, :points, :optin, :badges, :contest_best)`,
			map[string]any{
				"email": rec.Email, "pseudo": rec.Pseudo, "score": rec.Score, "best": rec.Best,
				"points": rec.Points, "optin": rec.Optin, "badges": rec.Badges, "contest_best": contestBest,
			})
		if err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
	case err != nil:
		return fmt.Errorf("load score: %w", err)
	default:
		best, pseudo := existing.Best, sql.NullString{}
		if rec.Best > existing.Best {
			best = rec.Best
			pseudo = sql.NullString{String: rec.Pseudo, Valid: true}
		}
		contestBest := existing.ContestBest
		if contest && rec.Score > contestBest {
			contestBest = rec.Score
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE scores
			    SET score = $1, points = $2, badges = $3, optin = $4,
			        best = $5, pseudo = COALESCE($6, pseudo), contest_best = $7,
			        updated_at = NOW()
			  WHERE id = $8`,
			rec.Score, rec.Points, rec.Badges, rec.Optin, best, pseudo, contestBest, existing.ID)
		if err != nil {
			return fmt.Errorf("update score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Leaderboard implements Store.
func (p *PostgresStore) Leaderboard(ctx context.Context) ([]Entry, error) {
	var rows []Entry
	err := p.db.SelectContext(ctx, &rows,
		`SELECT pseudo, email, best, score, contest_best FROM scores ORDER BY best DESC, id ASC LIMIT $1`,
		LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	return rows, nil
}

// ContestLeaderboard implements ContestBoard.
func (p *PostgresStore) ContestLeaderboard(ctx context.Context) ([]Entry, error) {
	var rows []Entry
	err := p.db.SelectContext(ctx, &rows,
		`SELECT pseudo, email, best, score, contest_best FROM scores
		  WHERE contest_best > 0
		  ORDER BY contest_best DESC, best DESC, id ASC LIMIT $1`,
		LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("select contest leaderboard: %w", err)
	}
	return rows, nil
}

// Ping checks the connection.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
