package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-service/internal/domain"
	"quiz-service/internal/infra/memory"
)

// Leaderboard keeps scores in a sorted set. ZADD overwrites a player's previous score.
type Leaderboard struct {
	client redis.UniversalClient
	key    string
}

func NewLeaderboard(client redis.UniversalClient, prefix string) *Leaderboard {
	return &Leaderboard{client: client, key: prefix + ":leaderboard"}
}

func (l *Leaderboard) HasUser(ctx context.Context, name string) (bool, error) {
	err := l.client.ZScore(ctx, l.key, name).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("zscore: %w", err)
	}
	return true, nil
}

func (l *Leaderboard) AddScore(ctx context.Context, name string, score int) error {
	if err := l.client.ZAdd(ctx, l.key, redis.Z{Score: float64(score), Member: name}).Err(); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

func (l *Leaderboard) ScoresSorted(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	res, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	scores := make(map[string]int, len(res))
	for _, z := range res {
		scores[z.Member.(string)] = int(z.Score)
	}
	// ZREVRANGE orders equal scores by reverse member name.
	return memory.SortScores(scores), nil
}
