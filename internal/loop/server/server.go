package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/flappysavon/internal/loop/config"
	"github.com/tomz197/flappysavon/internal/scores"
)

// fetchTimeout bounds one leaderboard request.
const fetchTimeout = 10 * time.Second

// GameServer is the interface clients use to communicate with the hub.
// Decouples the Client from the concrete Server implementation, enabling
// testing and a single-player hub for the local binary.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	ReportScore(clientID, score int, playing bool)
	RequestRefresh()
	GetSnapshot() *Snapshot
}

// Server is the hub shared by every connected client. Each client runs its
// own game; the hub tracks who is connected, their live scores and one
// shared copy of the remote leaderboard.
type Server struct {
	snapshot     atomic.Pointer[Snapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	registerCh   chan *ClientHandle
	unregisterCh chan int
	scoreCh      chan ScoreReport
	refreshCh    chan struct{}
	boardCh      chan boardResult
	mu           sync.RWMutex

	store   scores.Store
	refresh time.Duration
	logger  *log.Logger
	now     func() time.Time

	live      map[int]LiveScore
	board     []scores.Entry
	version   int
	fetching  bool
	lastFetch time.Time
}

// Compile-time check that Server implements GameServer.
var _ GameServer = (*Server)(nil)

// ClientHandle represents a client's connection to the hub.
type ClientHandle struct {
	ID       int
	Username string           // Display name for this client
	EventsCh chan ClientEvent // Events sent to client (leaderboard, shutdown)
}

// ScoreReport is a client's current score.
type ScoreReport struct {
	ClientID int
	Score    int
	Playing  bool
}

// ClientEvent represents an event sent from the hub to a client.
type ClientEvent struct {
	Type    ClientEventType
	Version int // Leaderboard version for EventLeaderboard
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventLeaderboard ClientEventType = iota
	EventServerShutdown
)

type boardResult struct {
	rows []scores.Entry
	err  error
}

// Option configures a Server.
type Option func(*Server)

// WithRefresh sets the leaderboard refresh period.
func WithRefresh(d time.Duration) Option {
	return func(s *Server) { s.refresh = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l.WithPrefix("hub") }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a hub reading the leaderboard from store. A nil store
// disables the leaderboard.
func NewServer(store scores.Store, opts ...Option) *Server {
	s := &Server{
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
		scoreCh:      make(chan ScoreReport, 256),
		refreshCh:    make(chan struct{}, 1),
		boardCh:      make(chan boardResult, 1),
		store:        store,
		refresh:      30 * time.Second,
		logger:       log.Default().WithPrefix("hub"),
		now:          time.Now,
		live:         make(map[int]LiveScore),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Create initial empty snapshot
	s.snapshot.Store(&Snapshot{})
	return s
}

// Run starts the hub loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frameStart := time.Now()
		s.tick(ctx)

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ServerTickTime {
			time.Sleep(config.ServerTickTime - elapsed)
		}
	}
}

// tick runs one hub cycle.
func (s *Server) tick(ctx context.Context) {
	s.processRegistrations()
	s.collectScores()
	s.collectLeaderboard()
	s.maybeFetch(ctx)
	s.createSnapshot()
}

// Shutdown gracefully shuts down the hub by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	s.broadcast(ClientEvent{Type: EventServerShutdown})

	// Wait for all clients to disconnect, or timeout
	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.clients)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: truncateName(username),
		EventsCh: make(chan ClientEvent, 16),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the hub.
func (s *Server) UnregisterClient(clientID int) {
	s.unregisterCh <- clientID
}

// ReportScore records a client's current score. Reports with playing false
// take the client off the live board.
func (s *Server) ReportScore(clientID, score int, playing bool) {
	select {
	case s.scoreCh <- ScoreReport{ClientID: clientID, Score: score, Playing: playing}:
	default:
		// Score channel full, drop report; the next one supersedes it
	}
}

// RequestRefresh asks for a leaderboard fetch on the next tick, typically
// after a score was submitted.
func (s *Server) RequestRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// GetSnapshot returns the current hub snapshot.
func (s *Server) GetSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			s.mu.Unlock()
			s.logger.Debug("client joined", "id", handle.ID, "name", handle.Username)
		case clientID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.clients[clientID]; ok {
				close(handle.EventsCh)
				delete(s.clients, clientID)
				delete(s.live, clientID)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// collectScores applies all pending score reports.
func (s *Server) collectScores() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case r := <-s.scoreCh:
			handle, ok := s.clients[r.ClientID]
			if !ok {
				continue
			}
			if !r.Playing {
				delete(s.live, r.ClientID)
				continue
			}
			s.live[r.ClientID] = LiveScore{Username: handle.Username, Score: r.Score, clientID: r.ClientID}
		default:
			return
		}
	}
}

// maybeFetch starts a background leaderboard fetch when one is due and none
// is in flight.
func (s *Server) maybeFetch(ctx context.Context) {
	if s.store == nil || s.fetching {
		return
	}
	requested := false
	select {
	case <-s.refreshCh:
		requested = true
	default:
	}
	if !requested && !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < s.refresh {
		return
	}

	s.fetching = true
	s.lastFetch = s.now()
	go func() {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		rows, err := s.store.Leaderboard(ctx)
		s.boardCh <- boardResult{rows: rows, err: err}
	}()
}

// collectLeaderboard installs a finished fetch and tells every client.
func (s *Server) collectLeaderboard() {
	var res boardResult
	select {
	case res = <-s.boardCh:
	default:
		return
	}
	s.fetching = false
	if res.err != nil {
		// Keep the previous board.
		s.logger.Warn("leaderboard fetch failed", "err", res.err)
		return
	}

	s.mu.Lock()
	s.board = res.rows
	s.version++
	version := s.version
	s.mu.Unlock()

	s.broadcast(ClientEvent{Type: EventLeaderboard, Version: version})
}

// broadcast sends ev to every client without blocking.
func (s *Server) broadcast(ev ClientEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, handle := range s.clients {
		select {
		case handle.EventsCh <- ev:
		default:
		}
	}
}

// createSnapshot creates an immutable snapshot of the hub state.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.snapshot.Store(&Snapshot{
		Players:     len(s.clients),
		Live:        topLive(s.live, config.LiveBoardSize),
		Leaderboard: s.board,
		Version:     s.version,
	})
}

// truncateName caps a display name at MaxUsernameLength runes.
func truncateName(name string) string {
	r := []rune(name)
	if len(r) > config.MaxUsernameLength {
		return string(r[:config.MaxUsernameLength])
	}
	return name
}
