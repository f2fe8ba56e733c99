package scores

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/flappysavon/internal/security"
)

// submitTimeout bounds one asynchronous store call.
const submitTimeout = 10 * time.Second

// Guard is the per-playthrough security record consulted before a post.
// *security.Session implements it.
type Guard interface {
	CanPostScore() bool
	ValidateScore(score int) error
	Data() security.Telemetry
	Hash(pseudo, email string, score, elapsed int) string
}

var _ Guard = (*security.Session)(nil)

// Result is what the game knows about a finished playthrough.
type Result struct {
	Pseudo string
	Email  string
	Optin  bool
	Score  int
	Points int
	Best   int
	Badges []string
}

// Submitter posts results in the background. Checks and payload assembly
// happen synchronously on the caller's goroutine; only the store call runs
// asynchronously, so a completion never touches game state.
type Submitter struct {
	store  Store
	logger *log.Logger
	agent  string
	now    func() time.Time
	wg     sync.WaitGroup
}

// NewSubmitter wraps store. agent is sent as the submission's user agent.
func NewSubmitter(store Store, agent string, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Submitter{store: store, logger: logger.WithPrefix("scores"), agent: agent, now: time.Now}
}

// Prepare checks the plausibility and cooldown of r and builds the payload.
// A rejected score does not use up the cooldown.
func (s *Submitter) Prepare(g Guard, r Result) (Submission, error) {
	if err := g.ValidateScore(r.Score); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	if !g.CanPostScore() {
		return Submission{}, ErrRateLimited
	}

	data := g.Data()
	pseudo := r.Pseudo
	if pseudo == "" {
		pseudo = DefaultPseudo
	}
	return Submission{
		Pseudo:  pseudo,
		Email:   r.Email,
		Optin:   r.Optin,
		Score:   r.Score,
		Points:  r.Points,
		Best:    r.Best,
		Elapsed: data.Elapsed,
		Seed:    data.Seed,
		Flaps:   data.Flaps,
		Checks:  data.Checks,
		Hash:    g.Hash(pseudo, r.Email, r.Score, data.Elapsed),
		Badges:  append(make([]string, 0, len(r.Badges)), r.Badges...),
		TS:      s.now().UTC(),
		UA:      s.agent,
		V:       Version,
	}, nil
}

// Submit prepares r and, if it passes, stores it in the background. done,
// if non-nil, runs on the background goroutine with the store's result.
// Errors from Prepare are returned directly and done is not called.
func (s *Submitter) Submit(ctx context.Context, g Guard, r Result, done func(error)) error {
	sub, err := s.Prepare(g, r)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
		defer cancel()

		err := s.store.Submit(ctx, sub)
		switch {
		case errors.Is(err, ErrNoEmail):
			s.logger.Debug("guest score not saved", "score", sub.Score)
		case err != nil:
			s.logger.Warn("submit failed", "score", sub.Score, "err", err)
		default:
			s.logger.Debug("score submitted", "score", sub.Score, "pseudo", sub.Pseudo)
		}
		if done != nil {
			done(err)
		}
	}()
	return nil
}

// Wait blocks until every background call has returned.
func (s *Submitter) Wait() {
	s.wg.Wait()
}
