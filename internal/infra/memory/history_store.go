package memory

import (
	"context"
	"sync"

	"quiz-service/internal/domain"
)

// HistoryStore keeps completed quizzes in insertion order.
type HistoryStore struct {
	mu      sync.RWMutex
	quizzes []domain.CompletedQuiz
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (h *HistoryStore) AddCompletedQuiz(_ context.Context, quiz domain.CompletedQuiz) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quizzes = append(h.quizzes, quiz)
	return nil
}

func (h *HistoryStore) CompletedQuizzes(_ context.Context) ([]domain.CompletedQuiz, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.CompletedQuiz, len(h.quizzes))
	copy(out, h.quizzes)
	return out, nil
}

func (h *HistoryStore) Stats(_ context.Context) (domain.HistoryStats, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return domain.SummarizeHistory(h.quizzes), nil
}
