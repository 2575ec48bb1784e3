package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-service/internal/domain"
)

// questionFile is the on-disk layout of a question bank:
//
//	questions:
//	  - text: What is 2 + 2?
//	    options: ["3", "4", "5"]
//	    correct: 1
type questionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// QuestionLoader reads a YAML question bank. One file holds one bank, so the bank name
// is only used for logging.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, bank string) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read question file %s: %w", l.path, domain.ErrQuestionBankNotFound)
		}
		return nil, fmt.Errorf("read question file %s: %w", l.path, err)
	}
	questions, err := ParseQuestions(data)
	if err != nil {
		return nil, fmt.Errorf("parse question file %s: %w", l.path, err)
	}
	slog.InfoContext(ctx, "quiz: question bank loaded", "bank", bank, "path", l.path, "questions", len(questions))
	return questions, nil
}

// ParseQuestions decodes a YAML bank and drops the questions domain.ValidQuestions rejects.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var f questionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return domain.ValidQuestions(f.Questions, logSkipped), nil
}

func logSkipped(position int, q domain.Question, reason string) {
	slog.Warn("quiz: skipping question", "position", position, "question", q.Text, "reason", reason)
}
