package app

import (
	"context"
	"sync"
	"time"

	"quiz-service/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeRegistry records active sessions in a map.
type fakeRegistry struct {
	mu       sync.Mutex
	sessions map[string]domain.ActiveSession
	err      error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{sessions: make(map[string]domain.ActiveSession)}
}

func (r *fakeRegistry) AddSession(_ context.Context, id string, s domain.ActiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sessions[id] = s
	return nil
}

func (r *fakeRegistry) RemoveSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeRegistry) ActiveSessions(_ context.Context) ([]domain.ActiveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActiveSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, r.err
}

func (r *fakeRegistry) ActiveSessionCount(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions), r.err
}

func (r *fakeRegistry) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	return ok
}

func bankOf(n int) []domain.Question {
	bank := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		bank = append(bank, domain.Question{
			Text:         string(rune('A'+i)) + "?",
			Options:      []string{"right", "wrong-1", "wrong-2"},
			CorrectIndex: 0,
		})
	}
	return bank
}
