package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Sessions own a live game clock, so they stay in a local map.
//   - Redis marks session liveness under quiz:session:<id>; the key is refreshed
//     whenever the session is looked up and expires with the configured ttl.
//   - A session whose key has expired is ended and dropped on its next lookup or sweep.
type SessionStore struct {
	client   redis.UniversalClient
	ttl      time.Duration
	mu       sync.Mutex
	sessions map[string]*app.Session
}

func NewSessionStore(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string, create func(string) *app.Session) *app.Session {
	ctx := context.Background()
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	var expired *app.Session
	if ok && !s.refresh(ctx, sessionID) {
		expired = session
		ok = false
	}
	if !ok {
		session = create(sessionID)
		s.sessions[sessionID] = session
		s.mark(ctx, sessionID)
	}
	s.mu.Unlock()

	if expired != nil {
		expired.EndGame(ctx)
	}
	return session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	ctx := context.Background()
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	if !s.refresh(ctx, sessionID) {
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		session.EndGame(ctx)
		return nil, false
	}
	s.mu.Unlock()
	return session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	if err := s.client.Del(context.Background(), s.key(sessionID)).Err(); err != nil {
		slog.Warn("quiz: clear session marker failed", "session", sessionID, "error", err)
	}
}

// Sweep ends and drops every local session whose marker has expired.
func (s *SessionStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	if len(ids) == 0 || s.ttl <= 0 {
		return 0
	}

	cmds := make([]*redis.IntCmd, len(ids))
	if _, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.Exists(ctx, s.key(id))
		}
		return nil
	}); err != nil {
		slog.WarnContext(ctx, "quiz: sweep session markers failed", "error", err)
		return 0
	}

	var expired []*app.Session
	s.mu.Lock()
	for i, id := range ids {
		if cmds[i].Val() != 0 {
			continue
		}
		if session, ok := s.sessions[id]; ok {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.EndGame(ctx)
	}
	return len(expired)
}

// refresh extends the marker and reports whether it was still there. Redis errors keep
// the session.
func (s *SessionStore) refresh(ctx context.Context, sessionID string) bool {
	if s.ttl <= 0 {
		return true
	}
	alive, err := s.client.Expire(ctx, s.key(sessionID), s.ttl).Result()
	if err != nil {
		slog.Warn("quiz: refresh session marker failed", "session", sessionID, "error", err)
		return true
	}
	return alive
}

func (s *SessionStore) mark(ctx context.Context, sessionID string) {
	if err := s.client.Set(ctx, s.key(sessionID), "1", max(s.ttl, 0)).Err(); err != nil {
		slog.Warn("quiz: set session marker failed", "session", sessionID, "error", err)
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
