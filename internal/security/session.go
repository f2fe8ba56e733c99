// Package security keeps per-playthrough session metadata and the advisory
// score-plausibility checks sent along with a submission. None of it is a
// real anti-cheat: the game runs client-side and the receiving service is
// expected to apply its own rules.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomz197/flappysavon/internal/config"
)

// Policy selects how strict ValidateScore is.
type Policy int

const (
	// Lenient accepts any non-negative score.
	Lenient Policy = iota
	// Strict applies the duration, rate, flap-ratio and pipe-count checks.
	Strict
)

// ParsePolicy maps a settings value to a Policy. Unknown values are lenient.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), config.PolicyStrict) {
		return Strict
	}
	return Lenient
}

func (p Policy) String() string {
	if p == Strict {
		return config.PolicyStrict
	}
	return config.PolicyLenient
}

// Validation failures.
var (
	ErrNegativeScore = errors.New("score is negative")
	ErrTooShort      = errors.New("game too short for score")
	ErrRateTooHigh   = errors.New("score rate too high")
	ErrTooFewFlaps   = errors.New("insufficient flaps for score")
	ErrScoreMismatch = errors.New("score does not match pipes passed")
)

// Checkpoint is a {score, elapsed} pair recorded each time a pipe is passed.
type Checkpoint struct {
	Score   int
	Elapsed time.Duration
}

// Telemetry is the session data attached to a submission.
type Telemetry struct {
	Seed    string
	Flaps   int
	Elapsed int // whole seconds, rounded
	Checks  int
}

// Session is the security record of one playthrough. The submission cooldown
// survives Init so that rapid restarts cannot bypass it.
type Session struct {
	cfg     config.Security
	policy  Policy
	now     func() time.Time
	entropy io.Reader

	seed        string
	start       time.Time
	flaps       int
	pipesPassed int
	checks      []Checkpoint
	lastPost    time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithEntropy replaces crypto/rand as the seed source.
func WithEntropy(r io.Reader) Option {
	return func(s *Session) { s.entropy = r }
}

// NewSession creates a session and starts its first playthrough.
func NewSession(cfg config.Security, policy Policy, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		policy:  policy,
		now:     time.Now,
		entropy: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Init()
	return s
}

// Init starts a new playthrough with a fresh seed and zeroed counters.
func (s *Session) Init() string {
	s.seed = s.newSeed()
	s.start = s.now()
	s.flaps = 0
	s.pipesPassed = 0
	s.checks = s.checks[:0]
	return s.seed
}

func (s *Session) newSeed() string {
	var buf [16]byte
	if _, err := io.ReadFull(s.entropy, buf[:]); err != nil {
		// The seed only diversifies hashes; a time-derived value still does that.
		return strconv.FormatInt(s.now().UnixNano(), 16)
	}
	return hex.EncodeToString(buf[:])
}

// Seed returns the current playthrough seed.
func (s *Session) Seed() string {
	return s.seed
}

// RecordFlap counts one flap.
func (s *Session) RecordFlap() {
	s.flaps++
}

// RecordPipe notes that score pipes have been passed and appends a
// checkpoint, evicting the oldest once the history is full.
func (s *Session) RecordPipe(score int) {
	s.pipesPassed = score
	limit := s.cfg.MaxCheckpoints
	if limit <= 0 {
		limit = 64
	}
	if len(s.checks) >= limit {
		copy(s.checks, s.checks[1:])
		s.checks = s.checks[:len(s.checks)-1]
	}
	s.checks = append(s.checks, Checkpoint{Score: score, Elapsed: s.now().Sub(s.start)})
}

// Checkpoints returns a copy of the checkpoint history, oldest first.
func (s *Session) Checkpoints() []Checkpoint {
	return append([]Checkpoint(nil), s.checks...)
}

// Elapsed returns the time since Init.
func (s *Session) Elapsed() time.Duration {
	return s.now().Sub(s.start)
}

// ValidateScore reports whether score is plausible for this playthrough
// under the session's policy. A nil error means the score is accepted.
func (s *Session) ValidateScore(score int) error {
	if score < 0 {
		return ErrNegativeScore
	}
	if s.policy == Lenient {
		return nil
	}

	elapsed := s.Elapsed().Seconds()
	if elapsed < s.cfg.MinGameDuration.Seconds() && score > 0 {
		return ErrTooShort
	}
	maxScore := int(math.Ceil(elapsed * s.cfg.MaxScorePerSecond))
	if score > maxScore+2 {
		return fmt.Errorf("%w: %d in %.1fs", ErrRateTooHigh, score, elapsed)
	}
	if float64(s.flaps) < float64(score)*0.5 {
		return ErrTooFewFlaps
	}
	if s.pipesPassed != score {
		return fmt.Errorf("%w: %d recorded, %d submitted", ErrScoreMismatch, s.pipesPassed, score)
	}
	return nil
}

// CanPostScore enforces the submission cooldown. A true result claims the
// slot: the next call within the cooldown returns false.
func (s *Session) CanPostScore() bool {
	now := s.now()
	if !s.lastPost.IsZero() && now.Sub(s.lastPost) < s.cfg.PostCooldown {
		return false
	}
	s.lastPost = now
	return true
}

// Data returns the telemetry for the current playthrough.
func (s *Session) Data() Telemetry {
	return Telemetry{
		Seed:    s.seed,
		Flaps:   s.flaps,
		Elapsed: int(math.Round(s.Elapsed().Seconds())),
		Checks:  len(s.checks),
	}
}

// Hash returns the hex SHA-256 digest of
// pseudo|email|score|elapsed|seed|flaps|salt for the current playthrough.
func (s *Session) Hash(pseudo, email string, score, elapsed int) string {
	return HashFields(pseudo, email, score, elapsed, s.seed, s.flaps, s.cfg.HashSalt)
}

// HashFields computes the submission digest from explicit values, so a
// receiver can recompute it.
func HashFields(pseudo, email string, score, elapsed int, seed string, flaps int, salt string) string {
	payload := strings.Join([]string{
		pseudo,
		email,
		strconv.Itoa(score),
		strconv.Itoa(elapsed),
		seed,
		strconv.Itoa(flaps),
		salt,
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
