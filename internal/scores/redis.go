package scores

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis keys. Best scores live in a sorted set keyed by email; the rest of a
// player's row is a hash.
const (
	redisBestKey    = "flappy:best"
	redisContestKey = "flappy:contest"
	redisPlayerKey  = "flappy:player:"
)

// ConnectRedis parses url and verifies the server answers.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps the leaderboard in sorted sets.
type RedisStore struct {
	rdb *redis.Client
	win window
}

// NewRedisStore wraps a connected client.
func NewRedisStore(rdb *redis.Client, opts ...StoreOption) *RedisStore {
	return &RedisStore{rdb: rdb, win: newWindow(opts)}
}

// Submit implements Store with the same rules as PostgresStore. GT adds keep
// the sorted sets monotonic; the pseudo follows the best score.
func (r *RedisStore) Submit(ctx context.Context, s Submission) error {
	rec := normalize(s)
	if rec.Email == "" {
		return ErrNoEmail
	}
	key := redisPlayerKey + rec.Email

	prev, err := r.rdb.ZScore(ctx, redisBestKey, rec.Email).Result()
	known := err == nil
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read best: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"email", rec.Email,
			"score", rec.Score,
			"points", rec.Points,
			"badges", rec.Badges,
			"optin", rec.Optin,
		)
		if !known || float64(rec.Best) > prev {
			pipe.HSet(ctx, key, "pseudo", rec.Pseudo, "best", rec.Best)
		}
		pipe.ZAddArgs(ctx, redisBestKey, redis.ZAddArgs{GT: true, Members: []redis.Z{{Score: float64(rec.Best), Member: rec.Email}}})
		if r.win.active() {
			pipe.ZAddArgs(ctx, redisContestKey, redis.ZAddArgs{GT: true, Members: []redis.Z{{Score: float64(rec.Score), Member: rec.Email}}})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store score: %w", err)
	}
	return nil
}

// Leaderboard implements Store.
func (r *RedisStore) Leaderboard(ctx context.Context) ([]Entry, error) {
	return r.board(ctx, redisBestKey)
}

// ContestLeaderboard implements ContestBoard.
func (r *RedisStore) ContestLeaderboard(ctx context.Context) ([]Entry, error) {
	rows, err := r.board(ctx, redisContestKey)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, e := range rows {
		if e.ContestBest > 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *RedisStore) board(ctx context.Context, zkey string) ([]Entry, error) {
	top, err := r.rdb.ZRevRangeWithScores(ctx, zkey, 0, LeaderboardSize-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", zkey, err)
	}

	cmds := make([]*redis.SliceCmd, len(top))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, z := range top {
			cmds[i] = pipe.HMGet(ctx, redisPlayerKey+z.Member.(string), "pseudo", "best", "score")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read players: %w", err)
	}

	rows := make([]Entry, 0, len(top))
	for i, z := range top {
		email := z.Member.(string)
		vals := cmds[i].Val()
		e := Entry{Email: email, Pseudo: field(vals, 0), Best: atoi(field(vals, 1)), Score: atoi(field(vals, 2))}
		if zkey == redisContestKey {
			e.ContestBest = int(z.Score)
		} else {
			e.Best = int(z.Score)
		}
		rows = append(rows, e)
	}
	return rows, nil
}

func field(vals []any, i int) string {
	if i >= len(vals) || vals[i] == nil {
		return ""
	}
	s, _ := vals[i].(string)
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
