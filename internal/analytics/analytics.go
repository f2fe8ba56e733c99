// Package analytics records gameplay events and ships them in batches.
// Tracking never blocks the game and never fails loudly: events queue in
// memory and a failed batch is put back for the next flush.
package analytics

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// FlushThreshold is the queue length that triggers an early flush.
	FlushThreshold = 5
	// FlushInterval is the period of the background flush.
	FlushInterval = 10 * time.Second
	// maxQueue caps the backlog while the sink is unreachable; the oldest
	// events go first.
	maxQueue = 500
	// closeTimeout bounds the final flush.
	closeTimeout = 3 * time.Second
)

// Event is one analytics row. Data is the JSON-encoded event payload.
type Event struct {
	SessionID string    `json:"session_id" db:"session_id"`
	Event     string    `json:"event" db:"event"`
	Data      string    `json:"data" db:"data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Sink delivers a batch of events.
type Sink interface {
	Send(ctx context.Context, events []Event) error
}

// SessionInfo describes the visit for session_start.
type SessionInfo struct {
	Referrer  string
	Device    string
	Returning bool
	Screen    string
	Email     string
	Pseudo    string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l.WithPrefix("analytics") }
}

// WithRand sets the random source for the session id.
func WithRand(r *rand.Rand) Option {
	return func(t *Tracker) { t.rng = r }
}

// Tracker queues events for one visit. It is safe for concurrent use.
type Tracker struct {
	sink   Sink
	logger *log.Logger
	now    func() time.Time
	rng    *rand.Rand

	session string
	kick    chan struct{}

	mu        sync.Mutex
	queue     []Event
	sending   bool
	gameStart time.Time
}

// NewTracker returns a tracker with a fresh session id.
func NewTracker(sink Sink, opts ...Option) *Tracker {
	t := &Tracker{
		sink:   sink,
		logger: log.Default().WithPrefix("analytics"),
		now:    time.Now,
		kick:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.sink == nil {
		t.sink = NopSink{}
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	t.session = NewSessionID(t.now(), t.rng)
	return t
}

// NewSessionID returns "sess_" followed by the base-36 millisecond time and
// six random base-36 characters.
func NewSessionID(now time.Time, rng *rand.Rand) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = digits[rng.IntN(len(digits))]
	}
	return "sess_" + strconv.FormatInt(now.UnixMilli(), 36) + string(suffix)
}

// SessionID returns the visit id.
func (t *Tracker) SessionID() string { return t.session }

// Track queues an event. A full batch wakes the background flusher.
func (t *Tracker) Track(event string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		t.logger.Debug("unencodable event dropped", "event", event, "err", err)
		return
	}

	t.mu.Lock()
	t.queue = append(t.queue, Event{
		SessionID: t.session,
		Event:     event,
		Data:      string(raw),
		CreatedAt: t.now().UTC(),
	})
	if over := len(t.queue) - maxQueue; over > 0 {
		t.queue = append(t.queue[:0], t.queue[over:]...)
	}
	full := len(t.queue) >= FlushThreshold
	t.mu.Unlock()

	t.logger.Debug("track", "event", event)
	if full {
		select {
		case t.kick <- struct{}{}:
		default:
		}
	}
}

// SessionStart records the start of the visit.
func (t *Tracker) SessionStart(info SessionInfo) {
	t.Track("session_start", map[string]any{
		"referrer":  orDefault(info.Referrer, "direct"),
		"device":    info.Device,
		"returning": info.Returning,
		"screen":    info.Screen,
		"email":     nullable(info.Email),
		"pseudo":    nullable(info.Pseudo),
	})
}

// GameStart records the first flap of a playthrough. Later calls before
// GameEnd are ignored.
func (t *Tracker) GameStart(registered bool, best int) {
	t.mu.Lock()
	if !t.gameStart.IsZero() {
		t.mu.Unlock()
		return
	}
	t.gameStart = t.now()
	t.mu.Unlock()

	t.Track("game_start", map[string]any{
		"is_registered": registered,
		"best_score":    best,
	})
}

// GameEnd records the end of the playthrough started by GameStart. Without
// a matching GameStart it does nothing.
func (t *Tracker) GameEnd(score int, email, pseudo string) {
	t.mu.Lock()
	if t.gameStart.IsZero() {
		t.mu.Unlock()
		return
	}
	duration := t.now().Sub(t.gameStart)
	t.gameStart = time.Time{}
	t.mu.Unlock()

	t.Track("game_end", map[string]any{
		"score":         score,
		"duration_ms":   duration.Milliseconds(),
		"is_registered": email != "",
		"email":         nullable(email),
		"pseudo":        nullable(pseudo),
	})
}

// Pending returns the number of queued events.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Flush sends the queue. On failure the batch goes back in front of any
// events queued meanwhile. A flush already in progress makes this a no-op.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	if t.sending || len(t.queue) == 0 {
		t.mu.Unlock()
		return nil
	}
	batch := t.queue
	t.queue = nil
	t.sending = true
	t.mu.Unlock()

	err := t.sink.Send(ctx, batch)

	t.mu.Lock()
	t.sending = false
	if err != nil {
		t.queue = append(batch, t.queue...)
		if over := len(t.queue) - maxQueue; over > 0 {
			t.queue = t.queue[over:]
		}
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("send failed", "events", len(batch), "err", err)
	}
	return err
}

// Run flushes every FlushInterval and whenever a batch fills up, until ctx
// is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-t.kick:
		}
		t.Flush(ctx)
	}
}

// Close makes a last attempt to deliver the queue.
func (t *Tracker) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return t.Flush(ctx)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
