package memory

import (
	"context"
	"sync"
	"time"

	"quiz-service/internal/app"
)

type storedSession struct {
	session  *app.Session
	lastSeen time.Time
}

// SessionStore is an in-memory implementation of app.SessionRepository.
// A session not looked up for idleTimeout is ended and dropped; zero keeps sessions forever.
type SessionStore struct {
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*storedSession
}

func NewSessionStore(idleTimeout time.Duration) *SessionStore {
	return NewSessionStoreWithClock(idleTimeout, time.Now)
}

// NewSessionStoreWithClock is test-only for deterministic idle expiry.
func NewSessionStoreWithClock(idleTimeout time.Duration, now func() time.Time) *SessionStore {
	return &SessionStore{
		idleTimeout: idleTimeout,
		now:         now,
		sessions:    make(map[string]*storedSession),
	}
}

func (s *SessionStore) GetOrCreate(sessionID string, create func(string) *app.Session) *app.Session {
	s.mu.Lock()
	now := s.now()
	stored, ok := s.sessions[sessionID]
	var expired *app.Session
	if ok && s.idleLocked(stored, now) {
		expired = stored.session
		ok = false
	}
	if !ok {
		stored = &storedSession{session: create(sessionID)}
		s.sessions[sessionID] = stored
	}
	stored.lastSeen = now
	s.mu.Unlock()

	if expired != nil {
		expired.EndGame(context.Background())
	}
	return stored.session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.Lock()
	now := s.now()
	stored, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	if s.idleLocked(stored, now) {
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		stored.session.EndGame(context.Background())
		return nil, false
	}
	stored.lastSeen = now
	s.mu.Unlock()
	return stored.session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Sweep ends and drops every idle session and returns how many went.
func (s *SessionStore) Sweep(ctx context.Context) int {
	s.mu.Lock()
	now := s.now()
	var expired []*app.Session
	for id, stored := range s.sessions {
		if s.idleLocked(stored, now) {
			expired = append(expired, stored.session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.EndGame(ctx)
	}
	return len(expired)
}

func (s *SessionStore) idleLocked(stored *storedSession, now time.Time) bool {
	return s.idleTimeout > 0 && now.Sub(stored.lastSeen) >= s.idleTimeout
}
