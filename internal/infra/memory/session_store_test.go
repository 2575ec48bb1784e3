package memory

import (
	"context"
	"testing"
	"time"

	"quiz-service/internal/app"
	"quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(0)
	registry := NewActiveSessions()
	created := 0
	create := func(id string) *app.Session {
		created++
		return app.NewSession(id, app.Settings{}, registry)
	}

	session := store.GetOrCreate("s1", create)
	if session == nil {
		t.Fatalf("expected session")
	}
	if again := store.GetOrCreate("s1", create); again != session {
		t.Fatalf("expected the same session on second lookup")
	}
	if created != 1 {
		t.Fatalf("expected one create call, got %d", created)
	}
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStoreWithClock(time.Minute, func() time.Time { return now })
	registry := NewActiveSessions()
	create := func(id string) *app.Session {
		return app.NewSession(id, app.Settings{}, registry)
	}
	bank := []domain.Question{{Text: "Q?", Options: []string{"a", "b"}, CorrectIndex: 0}}

	store.GetOrCreate("idle", create).StartNewGame(ctx, "alice", bank)
	store.GetOrCreate("swept", create).StartNewGame(ctx, "bob", bank)
	if n, _ := registry.ActiveSessionCount(ctx); n != 2 {
		t.Fatalf("expected 2 active sessions, got %d", n)
	}

	now = now.Add(59 * time.Second)
	if _, ok := store.Get("idle"); !ok {
		t.Fatalf("expected session alive before the idle timeout")
	}

	now = now.Add(time.Minute)
	if _, ok := store.Get("idle"); ok {
		t.Fatalf("expected idle session dropped on lookup")
	}
	if n := store.Sweep(ctx); n != 1 {
		t.Fatalf("expected sweep to drop 1 session, got %d", n)
	}
	if n, _ := registry.ActiveSessionCount(ctx); n != 0 {
		t.Fatalf("expected expired games deregistered, got %d active", n)
	}

	fresh := store.GetOrCreate("idle", create)
	if fresh.IsGameActive() {
		t.Fatalf("expected a fresh session after expiry")
	}
}

func TestSessionStoreWithoutIdleTimeoutKeepsSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStoreWithClock(0, func() time.Time { return now })
	store.GetOrCreate("s1", func(id string) *app.Session {
		return app.NewSession(id, app.Settings{}, NewActiveSessions())
	})

	now = now.Add(24 * time.Hour)
	if n := store.Sweep(context.Background()); n != 0 {
		t.Fatalf("expected nothing swept, got %d", n)
	}
	if _, ok := store.Get("s1"); !ok {
		t.Fatalf("expected session kept")
	}
}
