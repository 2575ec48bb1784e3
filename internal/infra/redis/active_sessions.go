package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"quiz-service/internal/domain"
)

// ActiveSessions stores the registry as a hash of session id to JSON snapshot, so every
// instance sharing the Redis sees the same dashboard.
type ActiveSessions struct {
	client redis.UniversalClient
	key    string
}

func NewActiveSessions(client redis.UniversalClient, prefix string) *ActiveSessions {
	return &ActiveSessions{client: client, key: prefix + ":active_sessions"}
}

func (a *ActiveSessions) AddSession(ctx context.Context, sessionID string, session domain.ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode active session: %w", err)
	}
	if err := a.client.HSet(ctx, a.key, sessionID, data).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

func (a *ActiveSessions) RemoveSession(ctx context.Context, sessionID string) error {
	if err := a.client.HDel(ctx, a.key, sessionID).Err(); err != nil {
		return fmt.Errorf("hdel: %w", err)
	}
	return nil
}

func (a *ActiveSessions) ActiveSessions(ctx context.Context) ([]domain.ActiveSession, error) {
	raw, err := a.client.HGetAll(ctx, a.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}
	sessions := make([]domain.ActiveSession, 0, len(raw))
	for id, value := range raw {
		var s domain.ActiveSession
		if err := json.Unmarshal([]byte(value), &s); err != nil {
			return nil, fmt.Errorf("decode active session %s: %w", id, err)
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].SessionID < sessions[j].SessionID
	})
	return sessions, nil
}

func (a *ActiveSessions) ActiveSessionCount(ctx context.Context) (int, error) {
	n, err := a.client.HLen(ctx, a.key).Result()
	if err != nil {
		return 0, fmt.Errorf("hlen: %w", err)
	}
	return int(n), nil
}
