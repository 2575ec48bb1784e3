package app

import (
	"time"

	"quiz-service/internal/domain"
)

// Game is one player's run through a fixed, pre-shuffled question sequence.
// It holds no policy: callers decide what happens between answering and advancing.
type Game struct {
	userName  string
	questions []domain.Question
	startTime time.Time
	now       func() time.Time

	currentIndex int
	score        int
	answered     int
}

// NewGame starts the clock for userName over questions.
func NewGame(userName string, questions []domain.Question) *Game {
	return newGameWithClock(userName, questions, time.Now)
}

// newGameWithClock allows deterministic elapsed times in tests.
func newGameWithClock(userName string, questions []domain.Question, now func() time.Time) *Game {
	if questions == nil {
		questions = []domain.Question{}
	}
	return &Game{
		userName:  userName,
		questions: questions,
		startTime: now(),
		now:       now,
	}
}

// CurrentQuestion returns the question awaiting an answer, false once completed.
func (g *Game) CurrentQuestion() (domain.Question, bool) {
	if !g.HasNextQuestion() {
		return domain.Question{}, false
	}
	return g.questions[g.currentIndex], true
}

func (g *Game) HasNextQuestion() bool {
	return g.currentIndex < len(g.questions)
}

// AnswerQuestion scores selected against the current question without advancing.
// It is a no-op returning false once the game is completed.
func (g *Game) AnswerQuestion(selected int) bool {
	q, ok := g.CurrentQuestion()
	if !ok {
		return false
	}
	g.answered++
	if q.IsCorrect(selected) {
		g.score++
		return true
	}
	return false
}

// MoveToNextQuestion advances the pointer, stopping at the end of the sequence.
func (g *Game) MoveToNextQuestion() {
	if g.currentIndex < len(g.questions) {
		g.currentIndex++
	}
}

// IsTimeUp reports whether at least allowed has passed since the game started.
func (g *Game) IsTimeUp(allowed time.Duration) bool {
	return g.Elapsed() >= allowed
}

func (g *Game) Elapsed() time.Duration {
	return g.now().Sub(g.startTime)
}

// ElapsedSeconds truncates Elapsed to whole seconds.
func (g *Game) ElapsedSeconds() int64 {
	return int64(g.Elapsed() / time.Second)
}

func (g *Game) UserName() string { return g.userName }

func (g *Game) Score() int { return g.score }

func (g *Game) AnsweredCount() int { return g.answered }

func (g *Game) CurrentIndex() int { return g.currentIndex }

func (g *Game) TotalQuestions() int { return len(g.questions) }

func (g *Game) StartTime() time.Time { return g.startTime }
