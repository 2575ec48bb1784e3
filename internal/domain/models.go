package domain

import (
	"math/rand"
	"strings"
	"time"
)

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Text         string   `json:"text" yaml:"text"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correct"` // 0-based
}

// IsCorrect reports whether selected points at the correct option.
func (q Question) IsCorrect(selected int) bool {
	return selected == q.CorrectIndex
}

// Shuffled returns a copy of q with its options permuted by rnd.
// CorrectIndex follows the correct option to its new position.
func (q Question) Shuffled(rnd *rand.Rand) Question {
	if len(q.Options) == 0 {
		return Question{Text: q.Text, Options: []string{}, CorrectIndex: q.CorrectIndex}
	}

	perm := rnd.Perm(len(q.Options))
	options := make([]string, len(q.Options))
	correct := 0
	for pos, original := range perm {
		options[pos] = q.Options[original]
		if original == q.CorrectIndex {
			correct = pos
		}
	}
	return Question{Text: q.Text, Options: options, CorrectIndex: correct}
}

// ValidQuestions keeps the playable questions of a bank: trimmed non-blank text, at least
// two options and a correct index inside them. Later repeats of a text are dropped too.
// skip, when non-nil, is told about every dropped question.
func ValidQuestions(questions []Question, skip func(position int, q Question, reason string)) []Question {
	seen := make(map[string]struct{}, len(questions))
	out := make([]Question, 0, len(questions))
	for i, q := range questions {
		q.Text = strings.TrimSpace(q.Text)
		reason := ""
		switch {
		case q.Text == "":
			reason = "no text"
		case len(q.Options) < 2:
			reason = "too few options"
		case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options):
			reason = "invalid correct index"
		default:
			if _, dup := seen[q.Text]; dup {
				reason = "duplicate"
			}
		}
		if reason != "" {
			if skip != nil {
				skip(i, q, reason)
			}
			continue
		}
		seen[q.Text] = struct{}{}
		out = append(out, q)
	}
	return out
}

// ActiveSession is what the active-sessions registry keeps about a live game.
type ActiveSession struct {
	SessionID      string    `json:"sessionId"`
	UserName       string    `json:"userName"`
	TotalQuestions int       `json:"totalQuestions"`
	StartedAt      time.Time `json:"startedAt"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	UserName string `json:"userName"`
	Score    int    `json:"score"`
}

// GameState is a consistent read of a player's game.
type GameState struct {
	UserName          string    `json:"userName"`
	Score             int       `json:"score"`
	TotalQuestions    int       `json:"totalQuestions"`
	AnsweredQuestions int       `json:"answeredQuestions"`
	QuestionNumber    int       `json:"questionNumber"`
	CurrentQuestion   *Question `json:"-"`
	RemainingSeconds  int64     `json:"remainingSeconds"`
	ElapsedSeconds    int64     `json:"elapsedSeconds"`
	TimeUp            bool      `json:"timeUp"`
	HasNextQuestion   bool      `json:"hasNextQuestion"`
	BonusTimeActive   bool      `json:"bonusTimeActive"`
	BonusTimeSeconds  int64     `json:"bonusTimeSeconds"`
}

// Over reports whether the player can no longer answer.
func (s GameState) Over() bool {
	return s.TimeUp || !s.HasNextQuestion
}

// AnswerResult summarizes the outcome of one submission.
type AnswerResult struct {
	Correct      bool      `json:"correct"`
	BonusSeconds int64     `json:"bonusSeconds"`
	Feedback     string    `json:"feedback"`
	State        GameState `json:"state"`
}

// GameResult is the final summary shown once a game is over.
type GameResult struct {
	UserName           string             `json:"userName"`
	Score              int                `json:"score"`
	TotalQuestions     int                `json:"totalQuestions"`
	AnsweredQuestions  int                `json:"answeredQuestions"`
	IncorrectAnswers   int                `json:"incorrectAnswers"`
	DurationSeconds    int64              `json:"durationSeconds"`
	AccuracyPercentage float64            `json:"accuracyPercentage"`
	Leaderboard        []LeaderboardEntry `json:"leaderboard"`
}
