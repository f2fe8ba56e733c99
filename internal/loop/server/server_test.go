package server

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/flappysavon/internal/scores"
)

func newTestServer(store scores.Store, now *time.Time) *Server {
	l := log.New(io.Discard)
	return NewServer(store,
		WithLogger(l),
		WithRefresh(30*time.Second),
		WithClock(func() time.Time { return *now }),
	)
}

// tickUntil runs hub ticks until cond holds or a second passes.
func tickUntil(t *testing.T, s *Server, cond func(*Snapshot) bool) *Snapshot {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.tick(context.Background())
		if snap := s.GetSnapshot(); cond(snap) {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached, snapshot %+v", s.GetSnapshot())
	return nil
}

func TestLiveScoresOrdered(t *testing.T) {
	now := time.Unix(0, 0)
	s := newTestServer(nil, &now)
	a := s.RegisterClient("alice")
	b := s.RegisterClient("bob")
	c := s.RegisterClient("carol")
	s.tick(context.Background())

	s.ReportScore(a.ID, 4, true)
	s.ReportScore(b.ID, 9, true)
	s.ReportScore(c.ID, 4, true)
	s.tick(context.Background())

	snap := s.GetSnapshot()
	if snap.Players != 3 {
		t.Fatalf("players = %d, want 3", snap.Players)
	}
	var names []string
	for _, ls := range snap.Live {
		names = append(names, ls.Username)
	}
	if got := strings.Join(names, ","); got != "bob,alice,carol" {
		t.Fatalf("live = %s, want bob,alice,carol", got)
	}

	s.ReportScore(b.ID, 9, false)
	s.tick(context.Background())
	if live := s.GetSnapshot().Live; len(live) != 2 || live[0].Username != "alice" {
		t.Fatalf("after bob died: %+v", live)
	}
}

func TestLeaderboardFetchedAndBroadcast(t *testing.T) {
	store := scores.NewMemoryStore()
	_ = store.Submit(context.Background(), scores.Submission{Pseudo: "Léa", Email: "lea@x.fr", Best: 12, Score: 12})

	now := time.Unix(0, 0)
	s := newTestServer(store, &now)
	h := s.RegisterClient("léa")

	snap := tickUntil(t, s, func(sn *Snapshot) bool { return sn.Version == 1 })
	if len(snap.Leaderboard) != 1 || snap.Leaderboard[0].Best != 12 {
		t.Fatalf("leaderboard = %+v", snap.Leaderboard)
	}

	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventLeaderboard || ev.Version != 1 {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("client was not told about the new leaderboard")
	}

	// Not due yet: no new version without a request.
	for range 5 {
		s.tick(context.Background())
	}
	if v := s.GetSnapshot().Version; v != 1 {
		t.Fatalf("version = %d before the refresh period", v)
	}

	_ = store.Submit(context.Background(), scores.Submission{Email: "bob@x.fr", Best: 20, Score: 20})
	s.RequestRefresh()
	snap = tickUntil(t, s, func(sn *Snapshot) bool { return sn.Version == 2 })
	if snap.Leaderboard[0].Email != "bob@x.fr" {
		t.Fatalf("leader = %+v", snap.Leaderboard[0])
	}

	now = now.Add(31 * time.Second)
	tickUntil(t, s, func(sn *Snapshot) bool { return sn.Version == 3 })
}

func TestUnregisterClosesEvents(t *testing.T) {
	now := time.Unix(0, 0)
	s := newTestServer(nil, &now)
	h := s.RegisterClient("x")
	s.tick(context.Background())
	s.ReportScore(h.ID, 3, true)
	s.tick(context.Background())

	s.UnregisterClient(h.ID)
	s.tick(context.Background())

	if _, ok := <-h.EventsCh; ok {
		t.Fatal("events channel still open")
	}
	snap := s.GetSnapshot()
	if snap.Players != 0 || len(snap.Live) != 0 {
		t.Fatalf("snapshot after leave = %+v", snap)
	}
}

func TestShutdownNotifiesClients(t *testing.T) {
	now := time.Unix(0, 0)
	s := newTestServer(nil, &now)
	h := s.RegisterClient("x")
	s.tick(context.Background())

	done := make(chan struct{})
	go func() {
		s.Shutdown(2 * time.Second)
		close(done)
	}()

	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventServerShutdown {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no shutdown event")
	}

	s.UnregisterClient(h.ID)
	s.tick(context.Background())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return after the last client left")
	}
}

func TestUsernameTruncated(t *testing.T) {
	now := time.Unix(0, 0)
	s := newTestServer(nil, &now)
	h := s.RegisterClient("ÉlodieDeLaSavonnerie")
	if n := len([]rune(h.Username)); n != 16 {
		t.Fatalf("username %q has %d runes", h.Username, n)
	}
}
