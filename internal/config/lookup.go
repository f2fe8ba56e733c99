package config

import "sort"

// Lookup resolves skins and themes by id or score without rescanning the
// config lists. Build it once after loading the config.
type Lookup struct {
	cfg    *Config
	skins  map[string]int
	themes map[string]int
}

// NewLookup indexes cfg.
func NewLookup(cfg *Config) *Lookup {
	l := &Lookup{
		cfg:    cfg,
		skins:  make(map[string]int, len(cfg.Skins)),
		themes: make(map[string]int, len(cfg.Themes)),
	}
	for i, s := range cfg.Skins {
		l.skins[s.ID] = i
	}
	for i, t := range cfg.Themes {
		l.themes[t.ID] = i
	}
	return l
}

// Skin returns the skin with the given id, or the first skin if unknown.
func (l *Lookup) Skin(id string) Skin {
	if i, ok := l.skins[id]; ok {
		return l.cfg.Skins[i]
	}
	return l.cfg.Skins[0]
}

// HasSkin reports whether id names a configured skin.
func (l *Lookup) HasSkin(id string) bool {
	_, ok := l.skins[id]
	return ok
}

// Theme returns the theme with the given id, or the first theme if unknown.
func (l *Lookup) Theme(id string) Theme {
	if i, ok := l.themes[id]; ok {
		return l.cfg.Themes[i]
	}
	return l.cfg.Themes[0]
}

// ThemeForScore returns the last theme whose threshold is <= score.
func (l *Lookup) ThemeForScore(score int) Theme {
	themes := l.cfg.Themes
	// First index whose threshold exceeds the score.
	i := sort.Search(len(themes), func(i int) bool { return themes[i].From > score })
	if i == 0 {
		return themes[0]
	}
	return themes[i-1]
}

// UnlockedSkins returns the skins available for the given best score, in config order.
func (l *Lookup) UnlockedSkins(best int) []Skin {
	out := make([]Skin, 0, len(l.cfg.Skins))
	for _, s := range l.cfg.Skins {
		if s.Unlock <= best {
			out = append(out, s)
		}
	}
	return out
}

// NextSkin returns the unlocked skin after current, wrapping around.
func (l *Lookup) NextSkin(current string, best int) Skin {
	unlocked := l.UnlockedSkins(best)
	if len(unlocked) == 0 {
		return l.cfg.Skins[0]
	}
	for i, s := range unlocked {
		if s.ID == current {
			return unlocked[(i+1)%len(unlocked)]
		}
	}
	return unlocked[0]
}

// BadgesAt returns the badges whose threshold equals score.
func (l *Lookup) BadgesAt(score int) []Badge {
	var out []Badge
	for _, b := range l.cfg.Badges {
		if b.Score == score {
			out = append(out, b)
		}
	}
	return out
}
