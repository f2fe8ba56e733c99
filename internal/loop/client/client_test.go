package client

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/flappysavon/internal/game"
	"github.com/tomz197/flappysavon/internal/input"
	loopconfig "github.com/tomz197/flappysavon/internal/loop/config"
	"github.com/tomz197/flappysavon/internal/loop/server"
	"github.com/tomz197/flappysavon/internal/profile"
	"github.com/tomz197/flappysavon/internal/scores"
	"github.com/tomz197/flappysavon/internal/security"
)

type fakeServer struct {
	handle    *server.ClientHandle
	reports   []server.ScoreReport
	refreshes int
	left      bool
	snap      *server.Snapshot
}

func (f *fakeServer) RegisterClient(name string) *server.ClientHandle {
	f.handle = &server.ClientHandle{ID: 1, Username: name, EventsCh: make(chan server.ClientEvent, 4)}
	return f.handle
}

func (f *fakeServer) UnregisterClient(int) { f.left = true }

func (f *fakeServer) ReportScore(id, score int, playing bool) {
	f.reports = append(f.reports, server.ScoreReport{ClientID: id, Score: score, Playing: playing})
}

func (f *fakeServer) RequestRefresh() { f.refreshes++ }

func (f *fakeServer) GetSnapshot() *server.Snapshot {
	if f.snap == nil {
		return &server.Snapshot{}
	}
	return f.snap
}

func (f *fakeServer) lastReport() server.ScoreReport {
	if len(f.reports) == 0 {
		return server.ScoreReport{}
	}
	return f.reports[len(f.reports)-1]
}

type fixture struct {
	c        *Client
	srv      *fakeServer
	store    *scores.MemoryStore
	profiles *profile.Store
	out      *bytes.Buffer
	now      *time.Time
}

func quiet() *log.Logger {
	l := log.New(io.Discard)
	l.SetLevel(log.FatalLevel)
	return l
}

func newFixture(t *testing.T, saved profile.Profile, opts ClientOptions) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{
		srv:      &fakeServer{},
		store:    scores.NewMemoryStore(),
		profiles: profile.NewStore("", quiet()),
		out:      &bytes.Buffer{},
		now:      &now,
	}
	if err := f.profiles.Save("léa", saved); err != nil {
		t.Fatal(err)
	}

	opts.Username = "léa"
	opts.Profiles = f.profiles
	opts.Submitter = scores.NewSubmitter(f.store, "test", quiet())
	opts.Policy = security.Lenient
	opts.Logger = quiet()
	opts.Clock = func() time.Time { return *f.now }
	opts.TermSizeFunc = func() (int, int, error) { return 80, 40, nil }
	f.c = NewClient(f.srv, bufio.NewReader(strings.NewReader("")), f.out, opts)
	return f
}

func TestStepperClampsAndCarries(t *testing.T) {
	s := NewStepper(loopconfig.StepTime, loopconfig.MaxFrameDelta)
	steps := []struct {
		delta time.Duration
		want  int
	}{
		{10 * time.Millisecond, 0},
		{10 * time.Millisecond, 1},
		{-time.Second, 0},
		{50 * time.Millisecond, 3},
		{5 * time.Second, 6}, // clamped to 100 ms
	}
	for i, st := range steps {
		if got := s.Advance(st.delta); got != st.want {
			t.Fatalf("step %d: Advance(%v) = %d, want %d", i, st.delta, got, st.want)
		}
	}
	if p := s.Pending(); p < 0 || p >= loopconfig.StepTime {
		t.Fatalf("pending = %v, want within one step", p)
	}
}

func TestScoreAwardsPointsBadgeAndRank(t *testing.T) {
	f := newFixture(t, profile.Profile{Best: 10}, ClientOptions{})
	f.srv.snap = &server.Snapshot{Leaderboard: []scores.Entry{{Best: 30}, {Best: 5}}}

	f.c.onScore(10)

	if f.c.profile.Points != 10 {
		t.Fatalf("points = %d, want 10", f.c.profile.Points)
	}
	if !f.c.profile.HasBadge("Apprenti Mousse") {
		t.Fatalf("badges = %v", f.c.profile.Badges)
	}
	if text, ok := f.c.state.Toast(*f.now); !ok || text != "Badge débloqué: Apprenti Mousse" {
		t.Fatalf("toast = %q, %v", text, ok)
	}
	if _, confetti, _, _ := f.c.game.Particles().ActiveCounts(); confetti == 0 {
		t.Fatal("badge should burst confetti")
	}
	if f.c.state.rank != 2 {
		t.Fatalf("rank = %d, want 2", f.c.state.rank)
	}
	if r := f.srv.lastReport(); r.Score != 10 || !r.Playing {
		t.Fatalf("report = %+v", r)
	}

	// The toast expires.
	*f.now = f.now.Add(f.c.cfg.UI.ToastDuration)
	if _, ok := f.c.state.Toast(*f.now); ok {
		t.Fatal("toast still visible after its duration")
	}
}

func TestDeathRecordsSubmitsAndShowsRank(t *testing.T) {
	f := newFixture(t, profile.Profile{Best: 3, Points: 40}, ClientOptions{Email: "lea@x.fr"})

	f.c.onDead(7)

	if !f.c.game.GameOver() {
		t.Fatal("game should be over")
	}
	saved := f.profiles.Load("léa")
	if saved.Best != 7 || saved.Games != 1 || saved.Email != "lea@x.fr" {
		t.Fatalf("saved profile = %+v", saved)
	}
	if text, _ := f.c.state.Toast(*f.now); text != "Nouveau record !" {
		t.Fatalf("toast = %q", text)
	}
	if r := f.srv.lastReport(); r.Playing {
		t.Fatalf("report = %+v, want off the live board", r)
	}

	f.c.submitter.Wait()
	f.c.processCompletions()
	if !f.c.state.awaitingRank || f.srv.refreshes != 1 {
		t.Fatalf("awaiting = %v, refreshes = %d", f.c.state.awaitingRank, f.srv.refreshes)
	}

	rows, err := f.store.Leaderboard(context.Background())
	if err != nil || len(rows) != 1 || rows[0].Best != 7 {
		t.Fatalf("stored rows = %+v, %v", rows, err)
	}
	f.srv.snap = &server.Snapshot{Leaderboard: rows, Version: 1}
	f.srv.handle.EventsCh <- server.ClientEvent{Type: server.EventLeaderboard, Version: 1}
	f.c.processServerEvents()

	if f.c.state.rank != 1 {
		t.Fatalf("rank = %d, want 1", f.c.state.rank)
	}
	if text, ok := f.c.state.RankToast(*f.now); !ok || text != "1ère place !" {
		t.Fatalf("rank toast = %q, %v", text, ok)
	}
	if f.c.state.awaitingRank {
		t.Fatal("rank should only be announced once")
	}
}

func TestGuestReminderAndSilentSkip(t *testing.T) {
	f := newFixture(t, profile.Profile{Games: 1}, ClientOptions{})

	f.c.onDead(0)

	if !f.c.state.reminder {
		t.Fatal("guest reminder not shown after the second game")
	}
	if _, ok := f.c.state.Toast(*f.now); ok {
		t.Fatal("a zero score is never a record")
	}

	f.c.submitter.Wait()
	f.c.processCompletions()
	if f.srv.refreshes != 1 {
		t.Fatalf("refreshes = %d; a guest still gets a rank", f.srv.refreshes)
	}
	rows, _ := f.store.Leaderboard(context.Background())
	if len(rows) != 0 {
		t.Fatalf("guest score was stored: %+v", rows)
	}

	// Restart, then start a new playthrough.
	f.c.flap()
	f.c.flap()
	if f.c.state.reminder {
		t.Fatal("reminder should hide when a new playthrough starts")
	}
}

func TestFlapStartsPlaythrough(t *testing.T) {
	f := newFixture(t, profile.Profile{}, ClientOptions{})

	f.c.flap()
	if f.c.game.State() != game.StatePlaying {
		t.Fatalf("state = %v", f.c.game.State())
	}
	if r := f.srv.lastReport(); !r.Playing || r.Score != 0 {
		t.Fatalf("report = %+v", r)
	}
	if f.c.tracker.Pending() != 1 {
		t.Fatalf("pending analytics = %d, want game_start", f.c.tracker.Pending())
	}

	// Flap effects are deferred to the end of the frame.
	if f.c.queue.Len() != 1 {
		t.Fatalf("queued tasks = %d", f.c.queue.Len())
	}
	f.c.advance(20 * time.Millisecond)
	if f.c.queue.Len() != 0 || f.c.session.Data().Flaps != 1 {
		t.Fatalf("queue = %d, flaps = %d", f.c.queue.Len(), f.c.session.Data().Flaps)
	}
	if f.c.renderer.Frame() != 1 {
		t.Fatalf("renderer ticks = %d, want 1", f.c.renderer.Frame())
	}
}

func TestSkinAndMuteArePersisted(t *testing.T) {
	f := newFixture(t, profile.Profile{Skin: "noir"}, ClientOptions{})
	if f.c.profile.Skin != "ortie" {
		t.Fatalf("locked skin kept: %q", f.c.profile.Skin)
	}

	f.c.nextSkin()
	if text, _ := f.c.state.Toast(*f.now); text != "Skin: Monoï" {
		t.Fatalf("toast = %q", text)
	}
	f.c.toggleMute()
	if text, _ := f.c.state.Toast(*f.now); text != "Son coupé" || !f.c.sounds.Muted() {
		t.Fatalf("toast = %q, muted = %v", text, f.c.sounds.Muted())
	}

	saved := f.profiles.Load("léa")
	if saved.Skin != "monoi" || !saved.Muted {
		t.Fatalf("saved = %+v", saved)
	}

	f.c.toggleMute()
	if text, _ := f.c.state.Toast(*f.now); text != "Son activé" {
		t.Fatalf("toast = %q", text)
	}
}

func TestClicksOnlyCountOnCanvas(t *testing.T) {
	f := newFixture(t, profile.Profile{}, ClientOptions{})
	f.c.canvas.Fit(60, 39)

	if f.c.clickedCanvas([]input.Click{{Col: 1, Row: 1}}) {
		t.Fatal("click in the margin counted")
	}
	if !f.c.clickedCanvas([]input.Click{{Col: 1, Row: 1}, {Col: 30, Row: 20}}) {
		t.Fatal("click on the playfield ignored")
	}
}

func TestShutdownCountsDown(t *testing.T) {
	f := newFixture(t, profile.Profile{}, ClientOptions{})
	f.srv.handle.EventsCh <- server.ClientEvent{Type: server.EventServerShutdown}
	f.c.processServerEvents()

	if f.c.state.Screen != ScreenShutdown {
		t.Fatal("shutdown not shown")
	}
	f.c.updateShutdownState(5 * time.Second)
	if !f.c.state.Running {
		t.Fatal("disconnected too early")
	}
	f.c.updateShutdownState(6 * time.Second)
	if f.c.state.Running {
		t.Fatal("still running after the countdown")
	}
}

func TestClosedInputQuits(t *testing.T) {
	f := newFixture(t, profile.Profile{}, ClientOptions{})
	deadline := time.Now().Add(time.Second)
	for f.c.state.Running && time.Now().Before(deadline) {
		f.c.processInput()
		time.Sleep(time.Millisecond)
	}
	if f.c.state.Running {
		t.Fatal("client kept running after the input stream closed")
	}

	f.c.leave()
	if !f.srv.left {
		t.Fatal("client did not unregister")
	}
}

func TestDrawFrameWritesCanvasAndStatus(t *testing.T) {
	f := newFixture(t, profile.Profile{}, ClientOptions{})
	f.c.updateScreen()
	f.srv.snap = &server.Snapshot{Players: 2}
	f.c.state.ShowBoard = true

	if err := f.c.drawFrame(); err != nil {
		t.Fatal(err)
	}
	out := f.out.String()
	if !strings.Contains(out, "Joueurs: 2") {
		t.Fatal("status line missing")
	}
	if !strings.Contains(out, "\033[38;2;") {
		t.Fatal("no truecolor cells rendered")
	}

	// An unchanged status line is not rewritten.
	f.out.Reset()
	if err := f.c.drawFrame(); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(f.out.String(), "Joueurs") {
		t.Fatal("status line rewritten although unchanged")
	}
}
