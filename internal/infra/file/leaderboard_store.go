package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"quiz-service/internal/domain"
	"quiz-service/internal/infra/memory"
)

type leaderboardFile struct {
	Scores map[string]int `yaml:"scores"`
}

// LeaderboardStore is an in-memory leaderboard that is written to a YAML file after
// every score, and read back on startup.
type LeaderboardStore struct {
	path  string
	board *memory.Leaderboard

	saveMu sync.Mutex
}

// NewLeaderboardStore loads path if it exists. A missing file starts an empty board.
func NewLeaderboardStore(path string) (*LeaderboardStore, error) {
	s := &LeaderboardStore{path: path, board: memory.NewLeaderboard()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read leaderboard %s: %w", path, err)
	}

	var f leaderboardFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse leaderboard %s: %w", path, err)
	}
	s.board.Restore(f.Scores)
	return s, nil
}

// Path is the save file location, served by the dashboard download.
func (s *LeaderboardStore) Path() string {
	return s.path
}

func (s *LeaderboardStore) HasUser(ctx context.Context, name string) (bool, error) {
	return s.board.HasUser(ctx, name)
}

func (s *LeaderboardStore) ScoresSorted(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.board.ScoresSorted(ctx)
}

// AddScore keeps the score in memory even if the save fails.
func (s *LeaderboardStore) AddScore(ctx context.Context, name string, score int) error {
	if err := s.board.AddScore(ctx, name, score); err != nil {
		return err
	}
	return s.save()
}

func (s *LeaderboardStore) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	data, err := yaml.Marshal(leaderboardFile{Scores: s.board.Snapshot()})
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create leaderboard dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace leaderboard: %w", err)
	}
	return nil
}
