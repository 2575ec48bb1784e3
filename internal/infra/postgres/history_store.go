package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-service/internal/domain"
)

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type completedQuiz struct {
	bun.BaseModel `bun:"table:completed_quizzes,alias:cq"`

	ID                int64     `bun:"id,pk,autoincrement"`
	UserName          string    `bun:"user_name,notnull"`
	Score             int       `bun:"score,notnull"`
	TotalQuestions    int       `bun:"total_questions,notnull"`
	AnsweredQuestions int       `bun:"answered_questions,notnull"`
	DurationSeconds   int64     `bun:"duration_seconds,notnull"`
	CompletedAt       time.Time `bun:"completed_at,notnull"`
}

// HistoryStore keeps completed quizzes in the completed_quizzes table.
type HistoryStore struct {
	db *bun.DB
}

func NewHistoryStore(db *bun.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (h *HistoryStore) AddCompletedQuiz(ctx context.Context, quiz domain.CompletedQuiz) error {
	row := &completedQuiz{
		UserName:          quiz.UserName,
		Score:             quiz.Score,
		TotalQuestions:    quiz.TotalQuestions,
		AnsweredQuestions: quiz.AnsweredQuestions,
		DurationSeconds:   quiz.DurationSeconds,
		CompletedAt:       quiz.CompletedAt,
	}
	if _, err := h.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert completed quiz: %w", err)
	}
	return nil
}

func (h *HistoryStore) CompletedQuizzes(ctx context.Context) ([]domain.CompletedQuiz, error) {
	var rows []completedQuiz
	if err := h.db.NewSelect().Model(&rows).Order("completed_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list completed quizzes: %w", err)
	}
	quizzes := make([]domain.CompletedQuiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, domain.CompletedQuiz{
			UserName:          r.UserName,
			Score:             r.Score,
			TotalQuestions:    r.TotalQuestions,
			AnsweredQuestions: r.AnsweredQuestions,
			DurationSeconds:   r.DurationSeconds,
			CompletedAt:       r.CompletedAt,
		})
	}
	return quizzes, nil
}

// Stats aggregates in SQL; accuracy of a game without questions counts as 0.
func (h *HistoryStore) Stats(ctx context.Context) (domain.HistoryStats, error) {
	var (
		count, asked, answered int
		accuracy, duration     decimal.Decimal
	)
	err := h.db.NewSelect().
		Model((*completedQuiz)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("coalesce(sum(total_questions), 0)").
		ColumnExpr("coalesce(sum(answered_questions), 0)").
		ColumnExpr("coalesce(round(avg(CASE WHEN total_questions > 0 THEN score * 100.0 / total_questions ELSE 0 END), 2), 0)").
		ColumnExpr("coalesce(round(avg(duration_seconds), 2), 0)").
		Scan(ctx, &count, &asked, &answered, &accuracy, &duration)
	if err != nil {
		return domain.HistoryStats{}, fmt.Errorf("history stats: %w", err)
	}
	return domain.HistoryStats{
		Count:                  count,
		TotalQuestionsAsked:    asked,
		TotalQuestionsAnswered: answered,
		AverageAccuracy:        accuracy,
		AverageDurationSeconds: duration,
	}, nil
}
