package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-service/internal/domain"
)

// ActiveSessions is an in-memory registry of sessions with a live game.
type ActiveSessions struct {
	mu       sync.RWMutex
	sessions map[string]domain.ActiveSession
}

func NewActiveSessions() *ActiveSessions {
	return &ActiveSessions{sessions: make(map[string]domain.ActiveSession)}
}

func (a *ActiveSessions) AddSession(_ context.Context, sessionID string, session domain.ActiveSession) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[sessionID] = session
	return nil
}

func (a *ActiveSessions) RemoveSession(_ context.Context, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
	return nil
}

// ActiveSessions lists sessions oldest first.
func (a *ActiveSessions) ActiveSessions(_ context.Context) ([]domain.ActiveSession, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.ActiveSession, 0, len(a.sessions))
	for _, s := range a.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

func (a *ActiveSessions) ActiveSessionCount(_ context.Context) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sessions), nil
}
