// Package audio plays the game's sound cues on the terminal bell.
package audio

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// bell is the ASCII BEL control character.
const bell = "\a"

// minGap is the shortest interval between two rings. Terminals coalesce or
// drop bells sent closer together.
const minGap = 150 * time.Millisecond

// Cue identifies a sound.
type Cue int

const (
	CueFlap Cue = iota
	CueScore
	CueHit
)

// Player rings the bell for enabled cues. It satisfies game.Sounds. Write
// errors are logged at debug level and otherwise ignored.
type Player struct {
	mu      sync.Mutex
	w       io.Writer
	muted   bool
	enabled [3]bool
	last    time.Time
	now     func() time.Time
	logger  *log.Logger
	rung    int
}

// Option configures a Player.
type Option func(*Player)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// WithLogger sets the logger for write failures.
func WithLogger(l *log.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithCue enables or disables a cue. Score and hit ring by default; flaps
// are silent.
func WithCue(c Cue, on bool) Option {
	return func(p *Player) { p.enabled[c] = on }
}

// New returns a player writing to w.
func New(w io.Writer, muted bool, opts ...Option) *Player {
	p := &Player{
		w:      w,
		muted:  muted,
		now:    time.Now,
		logger: log.Default(),
	}
	p.enabled[CueScore] = true
	p.enabled[CueHit] = true
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Player) Flap()  { p.play(CueFlap) }
func (p *Player) Score() { p.play(CueScore) }
func (p *Player) Hit()   { p.play(CueHit) }

// SetMuted mutes or unmutes all cues.
func (p *Player) SetMuted(m bool) {
	p.mu.Lock()
	p.muted = m
	p.mu.Unlock()
}

// ToggleMute flips the mute flag and returns the new value.
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = !p.muted
	return p.muted
}

// Muted reports whether the player is muted.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Rung returns how many bells were written.
func (p *Player) Rung() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rung
}

func (p *Player) play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted || p.w == nil || !p.enabled[c] {
		return
	}
	now := p.now()
	if !p.last.IsZero() && now.Sub(p.last) < minGap {
		return
	}
	if _, err := io.WriteString(p.w, bell); err != nil {
		p.logger.Debug("bell failed", "err", err)
		return
	}
	p.last = now
	p.rung++
}
