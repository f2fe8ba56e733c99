package scores

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

type memRow struct {
	record
	contestBest int
	seq         int
}

// MemoryStore keeps the leaderboard in process. It applies the same upsert
// rules as PostgresStore and serves as the default backend.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*memRow
	seq  int
	win  window
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return &MemoryStore{rows: make(map[string]*memRow), win: newWindow(opts)}
}

// Submit implements Store.
func (m *MemoryStore) Submit(_ context.Context, s Submission) error {
	rec := normalize(s)
	if rec.Email == "" {
		return ErrNoEmail
	}
	contest := m.win.active()

	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[rec.Email]
	if !ok {
		m.seq++
		row = &memRow{record: rec, seq: m.seq}
		if contest {
			row.contestBest = rec.Score
		}
		m.rows[rec.Email] = row
		return nil
	}

	row.Score = rec.Score
	row.Points = rec.Points
	row.Badges = rec.Badges
	row.Optin = rec.Optin
	if rec.Best > row.Best {
		row.Best = rec.Best
		row.Pseudo = rec.Pseudo
	}
	if contest && rec.Score > row.contestBest {
		row.contestBest = rec.Score
	}
	return nil
}

// Leaderboard implements Store: the top entries by best score.
func (m *MemoryStore) Leaderboard(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.sorted(func(a, b *memRow) int { return cmp.Compare(b.Best, a.Best) })
	return entries(rows), nil
}

// ContestLeaderboard implements ContestBoard.
func (m *MemoryStore) ContestLeaderboard(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.sorted(func(a, b *memRow) int {
		return cmp.Or(cmp.Compare(b.contestBest, a.contestBest), cmp.Compare(b.Best, a.Best))
	})
	rows = slices.DeleteFunc(rows, func(r *memRow) bool { return r.contestBest <= 0 })
	return entries(rows), nil
}

func (m *MemoryStore) sorted(order func(a, b *memRow) int) []*memRow {
	rows := make([]*memRow, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, r)
	}
	slices.SortFunc(rows, func(a, b *memRow) int {
		return cmp.Or(order(a, b), cmp.Compare(a.seq, b.seq))
	})
	return rows
}

func entries(rows []*memRow) []Entry {
	out := make([]Entry, 0, min(len(rows), LeaderboardSize))
	for _, r := range rows {
		if len(out) == LeaderboardSize {
			break
		}
		out = append(out, Entry{
			Pseudo:      r.Pseudo,
			Email:       r.Email,
			Best:        r.Best,
			Score:       r.Score,
			ContestBest: r.contestBest,
		})
	}
	return out
}
