package particle

import (
	"math/rand/v2"
	"testing"

	"github.com/tomz197/flappysavon/internal/config"
)

func newSystem() *System {
	return New(420, 700, 610, rand.New(rand.NewPCG(1, 2)))
}

func TestBubblePoolIsBounded(t *testing.T) {
	s := newSystem()
	for i := 0; i < BubblePool*3; i++ {
		s.SpawnBubble(100, 300)
	}
	if b, _, _, _ := s.ActiveCounts(); b != BubblePool {
		t.Fatalf("active bubbles = %d, want %d", b, BubblePool)
	}
	if s.SpawnBubble(1, 1) {
		t.Fatal("spawn into a full pool should report false")
	}
}

func TestBubbleRanges(t *testing.T) {
	s := newSystem()
	for i := 0; i < BubblePool; i++ {
		s.SpawnBubble(0, 0)
	}
	for _, b := range s.Bubbles {
		if b.R < 3 || b.R >= 9 || b.VY < 0.6 || b.VY >= 1.6 || b.Alpha < 0.25 || b.Alpha >= 0.6 {
			t.Fatalf("bubble out of range: %+v", b)
		}
	}
}

func TestBubbleRisesAndExpires(t *testing.T) {
	s := newSystem()
	s.SpawnBubble(100, 10)
	y := s.Bubbles[0].Y

	s.Update(1)
	if s.Bubbles[0].Y >= y {
		t.Fatalf("bubble did not rise: %v -> %v", y, s.Bubbles[0].Y)
	}
	for i := 0; i < 100; i++ {
		s.Update(1)
	}
	if s.Bubbles[0].Active {
		t.Fatal("bubble above y=-20 should have been deactivated")
	}
}

func TestConfettiBurstAndDecay(t *testing.T) {
	s := newSystem()
	if n := s.SpawnConfetti(); n != ConfettiBurst {
		t.Fatalf("burst = %d, want %d", n, ConfettiBurst)
	}
	for i := 0; i < 10; i++ {
		s.SpawnConfetti()
	}
	if _, c, _, _ := s.ActiveCounts(); c != ConfettiPool {
		t.Fatalf("active confetti = %d, want capped at %d", c, ConfettiPool)
	}
	for i := 0; i < 25; i++ {
		s.Update(1)
	}
	if _, c, _, _ := s.ActiveCounts(); c != 0 {
		t.Fatalf("confetti still alive after max life: %d", c)
	}
}

func TestSplashUsesBubbleMultiplier(t *testing.T) {
	s := newSystem()
	s.AdjustForTheme(config.Theme{BubbleMul: 1.4})
	s.Splash(100, 300)
	if b, _, _, _ := s.ActiveCounts(); b != 4 {
		t.Fatalf("splash bubbles = %d, want round(3*1.4) = 4", b)
	}
}

func TestLeavesFollowThemeDensity(t *testing.T) {
	s := newSystem()
	s.AdjustForTheme(config.Theme{Leaves: 6})
	for i := 0; i < 20; i++ {
		s.Update(1)
	}
	if _, _, l, _ := s.ActiveCounts(); l != 6 {
		t.Fatalf("leaves = %d, want 6", l)
	}

	s.AdjustForTheme(config.Theme{Leaves: 0})
	s.Reset()
	s.Update(1)
	if _, _, l, _ := s.ActiveCounts(); l != 0 {
		t.Fatalf("leaves = %d after switching to a leafless theme", l)
	}
}

func TestSteamOnlyInFog(t *testing.T) {
	s := newSystem()
	for i := 0; i < 500; i++ {
		s.Update(1)
	}
	if _, _, _, st := s.ActiveCounts(); st != 0 {
		t.Fatalf("steam = %d without fog", st)
	}

	s.AdjustForTheme(config.Theme{Fog: true})
	seen := 0
	for i := 0; i < 500; i++ {
		s.Update(1)
		_, _, _, st := s.ActiveCounts()
		seen = max(seen, st)
	}
	if seen == 0 {
		t.Fatal("no steam during 500 ticks of fog")
	}
	if seen > SteamPool {
		t.Fatalf("steam = %d exceeds the pool", seen)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := newSystem()
	s.SpawnBubble(1, 1)
	s.SpawnConfetti()
	s.Reset()
	b, c, l, st := s.ActiveCounts()
	if b+c+l+st != 0 {
		t.Fatalf("after reset: %d %d %d %d", b, c, l, st)
	}
}
