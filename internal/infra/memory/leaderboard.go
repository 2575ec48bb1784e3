package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-service/internal/domain"
)

// Leaderboard keeps one score per player name in memory. A later score for the same
// name replaces the earlier one.
type Leaderboard struct {
	mu     sync.RWMutex
	scores map[string]int
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{scores: make(map[string]int)}
}

func (l *Leaderboard) HasUser(_ context.Context, name string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.scores[name]
	return ok, nil
}

func (l *Leaderboard) AddScore(_ context.Context, name string, score int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[name] = score
	return nil
}

func (l *Leaderboard) ScoresSorted(_ context.Context) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return SortScores(l.scores), nil
}

// Restore replaces the board with scores, used when loading a saved leaderboard.
func (l *Leaderboard) Restore(scores map[string]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores = make(map[string]int, len(scores))
	for name, score := range scores {
		l.scores[name] = score
	}
}

// Snapshot copies the current scores.
func (l *Leaderboard) Snapshot() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int, len(l.scores))
	for name, score := range l.scores {
		out[name] = score
	}
	return out
}

// SortScores orders scores descending, ties broken by name.
func SortScores(scores map[string]int) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(scores))
	for name, score := range scores {
		entries = append(entries, domain.LeaderboardEntry{UserName: name, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserName < entries[j].UserName
	})
	return entries
}
