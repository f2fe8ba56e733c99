// Package profile persists the per-player local state: best score, total
// points, games played, unlocked badges, chosen skin, mute and identity.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Profile is one player's saved state. Zero values are valid defaults.
type Profile struct {
	Best   int      `json:"best"`
	Points int      `json:"points"`
	Games  int      `json:"games"`
	Badges []string `json:"badges,omitempty"`
	Skin   string   `json:"skin,omitempty"`
	Muted  bool     `json:"muted,omitempty"`
	Pseudo string   `json:"pseudo,omitempty"`
	Email  string   `json:"email,omitempty"`
}

// HasBadge reports whether name is unlocked.
func (p *Profile) HasBadge(name string) bool {
	return slices.Contains(p.Badges, name)
}

// AddBadge unlocks name and reports whether it was new.
func (p *Profile) AddBadge(name string) bool {
	if p.HasBadge(name) {
		return false
	}
	p.Badges = append(p.Badges, name)
	return true
}

// Registered reports whether the player has given an email.
func (p *Profile) Registered() bool {
	return strings.TrimSpace(p.Email) != ""
}

// Decode parses a saved profile. Malformed data yields the zero profile and
// the parse error; negative counters are clamped to zero.
func Decode(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.Best = max(p.Best, 0)
	p.Points = max(p.Points, 0)
	p.Games = max(p.Games, 0)
	return p, nil
}

// Store loads and saves profiles keyed by player name. With an empty
// directory it keeps profiles in memory only.
type Store struct {
	mu     sync.Mutex
	dir    string
	mem    map[string]Profile
	logger *log.Logger
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{dir: dir, mem: make(map[string]Profile), logger: logger.WithPrefix("profile")}
}

// Load returns the profile for key. A missing or unreadable profile is
// reported as the zero profile.
func (s *Store) Load(key string) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == "" {
		p := s.mem[key]
		p.Badges = slices.Clone(p.Badges)
		return p
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read failed", "key", key, "err", err)
		}
		return Profile{}
	}
	p, err := Decode(data)
	if err != nil {
		s.logger.Warn("corrupt profile ignored", "key", key, "err", err)
	}
	return p
}

// Save writes p for key, replacing the file atomically.
func (s *Store) Save(key string, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == "" {
		p.Badges = slices.Clone(p.Badges)
		s.mem[key] = p
		return nil
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".profile-*")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, FileName(key))
}

// FileName maps a player key to a safe file name.
func FileName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), ".")
	if name == "" {
		name = "guest"
	}
	return name + ".json"
}
