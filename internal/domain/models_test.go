package domain_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-service/internal/domain"
)

func TestQuestionShuffledTracksCorrectOption(t *testing.T) {
	q := domain.Question{Text: "Pick B", Options: []string{"A", "B", "C"}, CorrectIndex: 1}
	rnd := rand.New(rand.NewSource(42))

	positions := make(map[int]int)
	for i := 0; i < 1000; i++ {
		shuffled := q.Shuffled(rnd)

		require.Equal(t, q.Text, shuffled.Text)
		require.ElementsMatch(t, q.Options, shuffled.Options)
		require.Equal(t, "B", shuffled.Options[shuffled.CorrectIndex], "trial %d", i)
		positions[shuffled.CorrectIndex]++
	}

	// every position should have been used at least once across 1000 trials
	assert.Len(t, positions, 3)
	// the source question is untouched
	assert.Equal(t, []string{"A", "B", "C"}, q.Options)
	assert.Equal(t, 1, q.CorrectIndex)
}

func TestQuestionShuffledEmptyOptions(t *testing.T) {
	q := domain.Question{Text: "No options", CorrectIndex: 0}

	shuffled := q.Shuffled(rand.New(rand.NewSource(1)))

	assert.Equal(t, "No options", shuffled.Text)
	assert.Empty(t, shuffled.Options)
	assert.NotNil(t, shuffled.Options)
	assert.Equal(t, 0, shuffled.CorrectIndex)
}

func TestQuestionShuffledCopiesOptions(t *testing.T) {
	q := domain.Question{Text: "Single", Options: []string{"only"}, CorrectIndex: 0}

	shuffled := q.Shuffled(rand.New(rand.NewSource(1)))
	shuffled.Options[0] = "mutated"

	assert.Equal(t, "only", q.Options[0])
}

func TestGameStateOver(t *testing.T) {
	tests := map[string]struct {
		state domain.GameState
		want  bool
	}{
		"in progress":         {state: domain.GameState{HasNextQuestion: true}, want: false},
		"no questions left":   {state: domain.GameState{HasNextQuestion: false}, want: true},
		"time up":             {state: domain.GameState{HasNextQuestion: true, TimeUp: true}, want: true},
		"time up and no more": {state: domain.GameState{TimeUp: true}, want: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Over())
		})
	}
}

func TestCompletedQuizDerivedValues(t *testing.T) {
	c := domain.CompletedQuiz{UserName: "alice", Score: 3, TotalQuestions: 4, AnsweredQuestions: 4}
	assert.Equal(t, 1, c.IncorrectAnswers())
	assert.InDelta(t, 75.0, c.AccuracyPercentage(), 0.0001)

	empty := domain.CompletedQuiz{UserName: "bob"}
	assert.Equal(t, 0, empty.IncorrectAnswers())
	assert.Zero(t, empty.AccuracyPercentage())
}

func TestSummarizeHistory(t *testing.T) {
	stats := domain.SummarizeHistory(nil)
	assert.Equal(t, 0, stats.Count)
	assert.True(t, stats.AverageAccuracy.Equal(decimal.Zero))

	now := time.Now()
	stats = domain.SummarizeHistory([]domain.CompletedQuiz{
		{UserName: "a", Score: 1, TotalQuestions: 3, AnsweredQuestions: 2, DurationSeconds: 10, CompletedAt: now},
		{UserName: "b", Score: 2, TotalQuestions: 2, AnsweredQuestions: 2, DurationSeconds: 25, CompletedAt: now},
	})

	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 5, stats.TotalQuestionsAsked)
	assert.Equal(t, 4, stats.TotalQuestionsAnswered)
	// (33.33.. + 100) / 2
	assert.Equal(t, "66.67", stats.AverageAccuracy.StringFixed(2))
	assert.Equal(t, "17.50", stats.AverageDurationSeconds.StringFixed(2))
}

func TestValidQuestions(t *testing.T) {
	questions := []domain.Question{
		{Text: " What is 2 + 2? ", Options: []string{"3", "4"}, CorrectIndex: 1},
		{Text: "What is 2 + 2?", Options: []string{"4", "5"}, CorrectIndex: 0},
		{Text: "  ", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Text: "One option", Options: []string{"a"}, CorrectIndex: 0},
		{Text: "Past the end", Options: []string{"a", "b"}, CorrectIndex: 2},
		{Text: "Negative", Options: []string{"a", "b"}, CorrectIndex: -1},
		{Text: "Capital of France?", Options: []string{"Rome", "Paris"}, CorrectIndex: 1},
	}

	skipped := map[int]string{}
	got := domain.ValidQuestions(questions, func(position int, _ domain.Question, reason string) {
		skipped[position] = reason
	})

	assert.Equal(t, []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1},
		{Text: "Capital of France?", Options: []string{"Rome", "Paris"}, CorrectIndex: 1},
	}, got)
	assert.Equal(t, map[int]string{
		1: "duplicate",
		2: "no text",
		3: "too few options",
		4: "invalid correct index",
		5: "invalid correct index",
	}, skipped)

	assert.Empty(t, domain.ValidQuestions(nil, nil))
}
