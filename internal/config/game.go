package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultYAML []byte

// Validation policies for score submission.
const (
	PolicyLenient = "lenient"
	PolicyStrict  = "strict"
)

// Config is the immutable game tuning. Build it once with Default or LoadFile
// and pass it by pointer; nothing mutates it after load.
type Config struct {
	Canvas   Canvas   `yaml:"canvas"`
	Physics  Physics  `yaml:"physics"`
	Pipes    Pipes    `yaml:"pipes"`
	Ground   Ground   `yaml:"ground"`
	Soap     Soap     `yaml:"soap"`
	Scoring  Scoring  `yaml:"scoring"`
	Security Security `yaml:"security"`
	UI       UI       `yaml:"ui"`
	Contest  Contest  `yaml:"contest"`
	Themes   []Theme  `yaml:"themes"`
	Skins    []Skin   `yaml:"skins"`
	Badges   []Badge  `yaml:"badges"`
	Images   Images   `yaml:"images"`
}

// Canvas is the logical playfield size.
type Canvas struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Physics holds per-tick constants (one tick = 1/60 s).
type Physics struct {
	Gravity     float64 `yaml:"gravity"`
	FlapForce   float64 `yaml:"flap_force"`
	ScrollSpeed float64 `yaml:"scroll_speed"`
}

// Pipes describes obstacle geometry.
type Pipes struct {
	Gap     float64 `yaml:"gap"`
	Width   float64 `yaml:"width"`
	Spacing float64 `yaml:"spacing"`
	Margin  float64 `yaml:"margin"`
	Count   int     `yaml:"count"`
}

// Ground is the strip at the bottom of the playfield.
type Ground struct {
	Height float64 `yaml:"height"`
}

// Soap is the player sprite and its forgiving hitbox.
type Soap struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	StartX      float64 `yaml:"start_x"`
	HitboxPadX  float64 `yaml:"hitbox_pad_x"`
	HitboxPadY  float64 `yaml:"hitbox_pad_y"`
	GroundInset float64 `yaml:"ground_inset"`
}

// Scoring controls cumulative points.
type Scoring struct {
	PointsPerPipe int `yaml:"points_per_pipe"`
}

// Security holds the advisory anti-cheat thresholds.
type Security struct {
	MaxScorePerSecond float64       `yaml:"max_score_per_second"`
	MinGameDuration   time.Duration `yaml:"min_game_duration"`
	PostCooldown      time.Duration `yaml:"post_cooldown"`
	HashSalt          string        `yaml:"hash_salt"`
	MaxCheckpoints    int           `yaml:"max_checkpoints"`
}

// UI holds overlay timings.
type UI struct {
	ToastDuration       time.Duration `yaml:"toast_duration"`
	RankDisplayDuration time.Duration `yaml:"rank_display_duration"`
	LeaderboardRefresh  time.Duration `yaml:"leaderboard_refresh"`
	ReminderAfterGames  int           `yaml:"reminder_after_games"`
}

// Contest is the window during which scores count toward the contest best.
type Contest struct {
	Start    time.Time `yaml:"start"`
	End      time.Time `yaml:"end"`
	Top3Goal int       `yaml:"top3_goal"`
}

// Active reports whether t falls inside the contest window.
func (c Contest) Active(t time.Time) bool {
	if c.Start.IsZero() || c.End.IsZero() {
		return false
	}
	return !t.Before(c.Start) && !t.After(c.End)
}

// Theme is a score-gated palette.
type Theme struct {
	ID        string  `yaml:"id"`
	From      int     `yaml:"from"`
	BG1       string  `yaml:"bg1"`
	BG2       string  `yaml:"bg2"`
	Fog       bool    `yaml:"fog"`
	Leaves    int     `yaml:"leaves"`
	BubbleMul float64 `yaml:"bubble_mul"`
}

// Skin is an unlockable soap appearance.
type Skin struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	C1     string `yaml:"c1"`
	C2     string `yaml:"c2"`
	Unlock int    `yaml:"unlock"`
	Decor  string `yaml:"decor"`
}

// Badge is awarded the first time a run reaches Score.
type Badge struct {
	Score int    `yaml:"score"`
	Name  string `yaml:"name"`
}

// Images lists optional texture files.
type Images struct {
	Obstacle string `yaml:"obstacle"`
}

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := parse(defaultYAML)
	if err != nil {
		// The embedded file is part of the binary; a failure here is a build defect.
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// LoadFile reads a YAML override. Fields missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse game config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("game config %s: %w", path, err)
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural invariants the game relies on.
func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.New("canvas dimensions must be positive")
	}
	if len(c.Themes) == 0 {
		return errors.New("at least one theme is required")
	}
	if c.Themes[0].From != 0 {
		return errors.New("first theme must start at score 0")
	}
	if !sort.SliceIsSorted(c.Themes, func(i, j int) bool { return c.Themes[i].From < c.Themes[j].From }) {
		return errors.New("themes must be sorted by threshold")
	}
	if len(c.Skins) == 0 {
		return errors.New("at least one skin is required")
	}
	if c.Pipes.Count < 1 {
		return errors.New("pipe count must be at least 1")
	}
	if c.Pipes.Gap <= 0 || c.Pipes.Width <= 0 || c.Pipes.Spacing <= 0 {
		return errors.New("pipe geometry must be positive")
	}
	if c.Pipes.Gap != math.Trunc(c.Pipes.Gap) {
		return fmt.Errorf("pipe gap %v must be a whole number", c.Pipes.Gap)
	}
	if c.MaxPipeTop() < c.Pipes.Margin {
		return fmt.Errorf("pipe gap %.0f does not fit the playfield with margin %.0f", c.Pipes.Gap, c.Pipes.Margin)
	}
	return nil
}

// GroundY is the y coordinate where the ground strip starts.
func (c *Config) GroundY() float64 {
	return c.Canvas.Height - c.Ground.Height
}

// MaxPipeTop is the largest allowed height of an upper pipe segment.
func (c *Config) MaxPipeTop() float64 {
	return c.Canvas.Height - c.Ground.Height - c.Pipes.Margin - c.Pipes.Gap
}
