package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-service/internal/domain"
)

// Leaderboard stores one row per player; a new score replaces the old one.
type Leaderboard struct {
	pool *pgxpool.Pool
}

func NewLeaderboard(pool *pgxpool.Pool) *Leaderboard {
	return &Leaderboard{pool: pool}
}

func (l *Leaderboard) HasUser(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leaderboard WHERE user_name=$1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return exists, nil
}

func (l *Leaderboard) AddScore(ctx context.Context, name string, score int) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO leaderboard (user_name, score, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_name) DO UPDATE SET score=EXCLUDED.score, updated_at=EXCLUDED.updated_at`,
		name, score)
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	return nil
}

func (l *Leaderboard) ScoresSorted(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	rows, err := l.pool.Query(ctx, `SELECT user_name, score FROM leaderboard ORDER BY score DESC, user_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserName, &e.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
