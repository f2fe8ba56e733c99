package server

import (
	"cmp"
	"slices"

	"github.com/tomz197/flappysavon/internal/scores"
)

// LiveScore is a connected player's score in the current playthrough.
type LiveScore struct {
	Username string
	Score    int
	clientID int // Used for deterministic tie-break when scores are equal
}

// Snapshot is an immutable view of the hub for rendering. Leaderboard is
// shared between snapshots and must not be modified.
type Snapshot struct {
	Players     int
	Live        []LiveScore   // Best live scores, highest first
	Leaderboard []scores.Entry // Last successful fetch, nil before the first
	Version     int            // Incremented on every successful fetch
}

// topLive returns up to n live scores, highest first. Zero scores are left out.
func topLive(live map[int]LiveScore, n int) []LiveScore {
	out := make([]LiveScore, 0, len(live))
	for _, ls := range live {
		if ls.Score > 0 {
			out = append(out, ls)
		}
	}
	slices.SortFunc(out, func(a, b LiveScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.clientID, b.clientID)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
