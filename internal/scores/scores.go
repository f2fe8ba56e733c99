// Package scores talks to the remote leaderboard: submitting finished games,
// fetching the top entries and estimating a player's rank. Several backends
// implement Store; the game only depends on the interface.
package scores

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomz197/flappysavon/internal/config"
)

// LeaderboardSize is how many entries a leaderboard query returns.
const LeaderboardSize = 10

// Version tags submissions so the receiving side can evolve its checks.
const Version = "0.013"

// DefaultPseudo is sent when the player has not chosen a name.
const DefaultPseudo = "Invité"

var (
	// ErrNoEmail means the submission has no identity and was not stored.
	ErrNoEmail = errors.New("scores: no email, save skipped")
	// ErrRateLimited means a submission was attempted inside the cooldown.
	ErrRateLimited = errors.New("scores: rate limited")
	// ErrRejected means the score failed the local plausibility check.
	ErrRejected = errors.New("scores: score rejected")
)

// Submission is the payload describing one finished game.
type Submission struct {
	Pseudo  string    `json:"pseudo"`
	Email   string    `json:"email"`
	Optin   bool      `json:"optin_email"`
	Score   int       `json:"score"`
	Points  int       `json:"points"`
	Best    int       `json:"best"`
	Elapsed int       `json:"elapsed"`
	Seed    string    `json:"seed"`
	Flaps   int       `json:"flaps"`
	Checks  int       `json:"checks"`
	Hash    string    `json:"hash"`
	Badges  []string  `json:"badges"`
	TS      time.Time `json:"ts"`
	UA      string    `json:"ua"`
	V       string    `json:"v"`
}

// Entry is one leaderboard row.
type Entry struct {
	Pseudo      string `json:"pseudo" db:"pseudo"`
	Email       string `json:"email,omitempty" db:"email"`
	Best        int    `json:"best" db:"best"`
	Score       int    `json:"score,omitempty" db:"score"`
	ContestBest int    `json:"contest_best,omitempty" db:"contest_best"`
}

// Value is the score an entry ranks by: its best, or its last score when no
// best is known.
func (e Entry) Value() int {
	if e.Best != 0 {
		return e.Best
	}
	return e.Score
}

// Store persists submissions and serves the leaderboard.
type Store interface {
	Submit(ctx context.Context, s Submission) error
	Leaderboard(ctx context.Context) ([]Entry, error)
}

// ContestBoard is implemented by stores that track the contest ranking.
type ContestBoard interface {
	ContestLeaderboard(ctx context.Context) ([]Entry, error)
}

// ComputeRank returns the player's 1-based position in entries. A player
// listed by email gets that exact position; otherwise the rank is one more
// than the number of entries strictly above localBest. ok is false for an
// empty leaderboard.
func ComputeRank(entries []Entry, email string, localBest int) (rank int, ok bool) {
	if len(entries) == 0 {
		return 0, false
	}
	if email != "" {
		for i, e := range entries {
			if strings.EqualFold(e.Email, email) {
				return i + 1, true
			}
		}
	}
	rank = 1
	for _, e := range entries {
		if e.Value() > localBest {
			rank++
		}
	}
	return rank, true
}

// record is a submission normalised for storage: trimmed, lower-cased email,
// trimmed pseudo and comma-joined badges.
type record struct {
	Email  string `db:"email"`
	Pseudo string `db:"pseudo"`
	Score  int    `db:"score"`
	Best   int    `db:"best"`
	Points int    `db:"points"`
	Optin  bool   `db:"optin"`
	Badges string `db:"badges"`
}

func normalize(s Submission) record {
	return record{
		Email:  strings.ToLower(strings.TrimSpace(s.Email)),
		Pseudo: strings.TrimSpace(s.Pseudo),
		Score:  max(s.Score, 0),
		Best:   max(s.Best, 0),
		Points: max(s.Points, 0),
		Optin:  s.Optin,
		Badges: strings.Join(s.Badges, ","),
	}
}

// window decides whether a moment falls in the contest.
type window struct {
	contest config.Contest
	now     func() time.Time
}

func (w window) active() bool {
	if w.now == nil {
		return w.contest.Active(time.Now())
	}
	return w.contest.Active(w.now())
}

// StoreOption configures the database-backed stores.
type StoreOption func(*window)

// WithContest enables contest bookkeeping for c.
func WithContest(c config.Contest) StoreOption {
	return func(w *window) { w.contest = c }
}

// WithClock replaces time.Now for the contest window.
func WithClock(now func() time.Time) StoreOption {
	return func(w *window) { w.now = now }
}

func newWindow(opts []StoreOption) window {
	var w window
	for _, opt := range opts {
		opt(&w)
	}
	return w
}
