package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultMatchesLockedDifficulty(t *testing.T) {
	cfg := Default()

	if cfg.Physics.Gravity != 0.45 || cfg.Physics.FlapForce != -8.5 || cfg.Physics.ScrollSpeed != 2.25 {
		t.Fatalf("physics = %+v, want gravity 0.45 flap -8.5 scroll 2.25", cfg.Physics)
	}
	if cfg.Pipes.Gap != 150 || cfg.Pipes.Width != 70 || cfg.Pipes.Spacing != 220 || cfg.Pipes.Count != 4 {
		t.Fatalf("pipes = %+v", cfg.Pipes)
	}
	if cfg.Security.PostCooldown != 3*time.Second {
		t.Fatalf("post cooldown = %v, want 3s", cfg.Security.PostCooldown)
	}
	if cfg.UI.ToastDuration != 1700*time.Millisecond {
		t.Fatalf("toast duration = %v, want 1.7s", cfg.UI.ToastDuration)
	}
	if len(cfg.Themes) != 3 || len(cfg.Skins) != 7 || len(cfg.Badges) != 3 {
		t.Fatalf("got %d themes, %d skins, %d badges", len(cfg.Themes), len(cfg.Skins), len(cfg.Badges))
	}
}

func TestThemeForScore(t *testing.T) {
	l := NewLookup(Default())

	tests := []struct {
		score int
		want  string
	}{
		{0, "savonnerie"},
		{9, "savonnerie"},
		{10, "atelier"},
		{24, "atelier"},
		{25, "hammam"},
		{1000, "hammam"},
		{-1, "savonnerie"},
	}
	for _, tt := range tests {
		if got := l.ThemeForScore(tt.score).ID; got != tt.want {
			t.Errorf("ThemeForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestSkinLookupFallsBackToFirst(t *testing.T) {
	l := NewLookup(Default())

	if got := l.Skin("noir").Name; got != "Savon noir" {
		t.Fatalf("Skin(noir) = %q", got)
	}
	if got := l.Skin("missing").ID; got != "ortie" {
		t.Fatalf("Skin(missing) = %q, want ortie", got)
	}
}

func TestNextSkinCyclesUnlocked(t *testing.T) {
	l := NewLookup(Default())

	if got := l.NextSkin("ortie", 0).ID; got != "monoi" {
		t.Fatalf("NextSkin(ortie, 0) = %s, want monoi", got)
	}
	if got := l.NextSkin("monoi", 0).ID; got != "ortie" {
		t.Fatalf("NextSkin(monoi, 0) = %s, want ortie (wrap)", got)
	}
	if got := l.NextSkin("monoi", 5).ID; got != "citron" {
		t.Fatalf("NextSkin(monoi, 5) = %s, want citron", got)
	}
}

func TestValidateRejectsUnsortedThemes(t *testing.T) {
	cfg := Default()
	cfg.Themes[1], cfg.Themes[2] = cfg.Themes[2], cfg.Themes[1]
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsorted themes")
	}
}

func TestValidateRejectsImpossibleGap(t *testing.T) {
	cfg := Default()
	cfg.Pipes.Gap = cfg.Canvas.Height
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for a gap that cannot fit")
	}
}

func TestValidateRejectsFractionalGap(t *testing.T) {
	cfg := Default()
	cfg.Pipes.Gap = 150.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for a fractional gap")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	if err := os.WriteFile(path, []byte("images:\n  obstacle: /tmp/pipe.png\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Images.Obstacle != "/tmp/pipe.png" {
		t.Fatalf("obstacle = %q", cfg.Images.Obstacle)
	}
	if cfg.Pipes.Gap != 150 {
		t.Fatalf("gap = %v, want default 150 kept", cfg.Pipes.Gap)
	}
}

func TestContestActive(t *testing.T) {
	c := Default().Contest
	if !c.Active(time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("mid-January 2025 should be inside the contest")
	}
	if c.Active(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("March 2025 should be outside the contest")
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAPPY_TEST_BOOL", "yes")
	if !GetEnvBool("FLAPPY_TEST_BOOL", false) {
		t.Fatal("yes should parse as true")
	}
	t.Setenv("FLAPPY_TEST_BOOL", "maybe")
	if GetEnvBool("FLAPPY_TEST_BOOL", false) {
		t.Fatal("unparseable value should return the fallback")
	}
}
