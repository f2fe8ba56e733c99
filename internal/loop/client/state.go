package client

import (
	"time"

	"github.com/tomz197/flappysavon/internal/input"
)

// Screen is the connection-level phase. Gameplay phases (idle, playing,
// paused, dead) belong to the game itself.
type Screen int

const (
	ScreenGame     Screen = iota // Normal play
	ScreenShutdown               // Server is shutting down
)

// toast is a transient one-line message.
type toast struct {
	text  string
	until time.Time
}

// ClientState holds per-connection UI state. Each client has its own
// instance, managed by the Client on its loop goroutine.
type ClientState struct {
	Input     input.Input
	Screen    Screen
	Running   bool // Client loop running
	ShowBoard bool // Leaderboard overlay visible

	toast     toast
	rankToast toast

	rank         int  // Live rank from the cached leaderboard, 0 if unknown
	boardVersion int  // Last hub leaderboard version seen
	awaitingRank bool // A submission finished; show the rank on the next leaderboard
	reminder     bool // Guest reminder visible until the next playthrough

	shutdownTimer float64 // Countdown before auto-disconnect on shutdown
	isInactive    bool    // Whether the client is in inactive warning state
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Screen:  ScreenGame,
		Running: true,
	}
}

// showToast replaces the current toast.
func (s *ClientState) showToast(text string, now time.Time, d time.Duration) {
	s.toast = toast{text: text, until: now.Add(d)}
}

// showRank replaces the rank bubble.
func (s *ClientState) showRank(text string, now time.Time, d time.Duration) {
	s.rankToast = toast{text: text, until: now.Add(d)}
}

// Toast returns the visible toast, if any.
func (s *ClientState) Toast(now time.Time) (string, bool) {
	if s.toast.text == "" || !now.Before(s.toast.until) {
		return "", false
	}
	return s.toast.text, true
}

// RankToast returns the visible rank bubble, if any.
func (s *ClientState) RankToast(now time.Time) (string, bool) {
	if s.rankToast.text == "" || !now.Before(s.rankToast.until) {
		return "", false
	}
	return s.rankToast.text, true
}
