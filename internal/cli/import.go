package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-service/internal/infra/file"
	"quiz-service/internal/infra/postgres"
)

// NewImportQuestionsCmd copies a YAML question bank into Postgres.
func NewImportQuestionsCmd(configPath *string) *cobra.Command {
	var (
		path string
		bank string
	)
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import a YAML question bank into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return importQuestions(cmd.Context(), *configPath, path, bank)
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "YAML question file (defaults to quiz.questions_file)")
	cmd.Flags().StringVar(&bank, "bank", "", "bank name (defaults to quiz.question_bank)")
	return cmd
}

func importQuestions(ctx context.Context, configPath, path, bank string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if path == "" {
		path = cfg.Quiz.QuestionsFile
	}
	if bank == "" {
		bank = cfg.Quiz.QuestionBank
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	questions, err := file.ParseQuestions(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.NewQuestionLoader(pool).SaveQuestions(ctx, bank, questions); err != nil {
		return err
	}
	slog.InfoContext(ctx, "questions imported", "bank", bank, "file", path, "questions", len(questions))
	return nil
}
