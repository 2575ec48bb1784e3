package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompletedQuiz is the history record of one finished game.
type CompletedQuiz struct {
	UserName          string    `json:"userName"`
	Score             int       `json:"score"`
	TotalQuestions    int       `json:"totalQuestions"`
	AnsweredQuestions int       `json:"answeredQuestions"`
	DurationSeconds   int64     `json:"durationSeconds"`
	CompletedAt       time.Time `json:"completedAt"`
}

// IncorrectAnswers counts answered questions that did not score.
func (c CompletedQuiz) IncorrectAnswers() int {
	return max(0, c.AnsweredQuestions-c.Score)
}

// AccuracyPercentage is the score relative to all questions of the game, 0 for empty games.
func (c CompletedQuiz) AccuracyPercentage() float64 {
	if c.TotalQuestions <= 0 {
		return 0
	}
	return float64(c.Score) * 100 / float64(c.TotalQuestions)
}

// HistoryStats aggregates the completed-quiz history for the dashboard.
type HistoryStats struct {
	Count                  int             `json:"completedQuizCount"`
	TotalQuestionsAsked    int             `json:"totalQuestionsAsked"`
	TotalQuestionsAnswered int             `json:"totalQuestionsAnswered"`
	AverageAccuracy        decimal.Decimal `json:"averageAccuracy"`
	AverageDurationSeconds decimal.Decimal `json:"averageDurationSeconds"`
}

// SummarizeHistory computes HistoryStats over quizzes. Averages are rounded to two places.
func SummarizeHistory(quizzes []CompletedQuiz) HistoryStats {
	stats := HistoryStats{
		Count:                  len(quizzes),
		AverageAccuracy:        decimal.Zero,
		AverageDurationSeconds: decimal.Zero,
	}
	if len(quizzes) == 0 {
		return stats
	}

	accuracy := decimal.Zero
	duration := decimal.Zero
	for _, q := range quizzes {
		stats.TotalQuestionsAsked += q.TotalQuestions
		stats.TotalQuestionsAnswered += q.AnsweredQuestions
		accuracy = accuracy.Add(decimal.NewFromFloat(q.AccuracyPercentage()))
		duration = duration.Add(decimal.NewFromInt(q.DurationSeconds))
	}

	n := decimal.NewFromInt(int64(len(quizzes)))
	stats.AverageAccuracy = accuracy.Div(n).Round(2)
	stats.AverageDurationSeconds = duration.Div(n).Round(2)
	return stats
}
