package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-service/internal/domain"
)

// QuestionLoader loads question bank JSONB from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, bank string) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE name=$1`, bank).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load bank %q: %w", bank, domain.ErrQuestionBankNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load bank %q: %w", bank, err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal bank %q: %w", bank, err)
	}
	return domain.ValidQuestions(questions, func(position int, q domain.Question, reason string) {
		slog.WarnContext(ctx, "quiz: skipping stored question", "bank", bank, "position", position, "question", q.Text, "reason", reason)
	}), nil
}

// SaveQuestions replaces the bank's questions.
func (l *QuestionLoader) SaveQuestions(ctx context.Context, bank string, questions []domain.Question) error {
	if questions == nil {
		questions = []domain.Question{}
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal bank %q: %w", bank, err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO question_banks (name, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		bank, string(data))
	if err != nil {
		return fmt.Errorf("save bank %q: %w", bank, err)
	}
	return nil
}
