package game

import "github.com/tomz197/flappysavon/internal/config"

// ThemeState is the background crossfade from Previous to Current.
// Transition runs from 0 (all Previous) to 1 (all Current).
type ThemeState struct {
	Previous   config.Theme
	Current    config.Theme
	Transition float64
}

// advance switches to next if it differs from the current theme, then moves
// the crossfade toward 1.
func (ts *ThemeState) advance(next config.Theme, dt float64) {
	if next.ID != ts.Current.ID {
		ts.Previous = ts.Current
		ts.Current = next
		ts.Transition = 0
	}
	if ts.Transition < 1 {
		ts.Transition = min(1, ts.Transition+themeTransitionRate*dt)
	}
}
