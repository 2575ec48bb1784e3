package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"quiz-service/internal/domain"
)

// DefaultDuration is the base time budget of a game before any bonus.
const DefaultDuration = 60 * time.Second

// Settings is the per-game policy shared by all sessions.
type Settings struct {
	Duration         time.Duration
	BonusTimeEnabled bool
	BonusTime        time.Duration // per correct answer
	QuestionsPerGame int           // <= 0 means the whole bank
}

// BonusTimeActive reports whether correct answers extend the clock.
func (s Settings) BonusTimeActive() bool {
	return s.BonusTimeEnabled && s.BonusTime > 0
}

// ActiveSessions tracks sessions that currently count as playing.
type ActiveSessions interface {
	AddSession(ctx context.Context, sessionID string, session domain.ActiveSession) error
	RemoveSession(ctx context.Context, sessionID string) error
	ActiveSessions(ctx context.Context) ([]domain.ActiveSession, error)
	ActiveSessionCount(ctx context.Context) (int, error)
}

// Session holds at most one game for a single player session.
// Invalid calls (no game, time up) are no-ops returning zero values.
type Session struct {
	id       string
	settings Settings
	registry ActiveSessions
	now      func() time.Time
	rnd      *rand.Rand

	mu          sync.Mutex
	game        *Game
	earnedBonus time.Duration
	recorded    bool
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, settings Settings, registry ActiveSessions) *Session {
	return NewSessionWithClock(id, settings, registry, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSessionWithClock is test-only for deterministic timestamps and shuffles.
func NewSessionWithClock(id string, settings Settings, registry ActiveSessions, now func() time.Time, rnd *rand.Rand) *Session {
	if settings.Duration <= 0 {
		settings.Duration = DefaultDuration
	}
	if settings.BonusTime < 0 {
		settings.BonusTime = 0
	}
	return &Session{
		id:       id,
		settings: settings,
		registry: registry,
		now:      now,
		rnd:      rnd,
	}
}

func (s *Session) ID() string {
	return s.id
}

// StartNewGame replaces any current game with a fresh one drawn from bank.
// An empty bank yields a game without questions.
func (s *Session) StartNewGame(ctx context.Context, userName string, bank []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := SelectQuestions(bank, s.settings.QuestionsPerGame, s.rnd)
	if len(questions) == 0 {
		slog.WarnContext(ctx, "quiz: starting game with no questions loaded", "session", s.id, "user", userName)
	}

	s.game = newGameWithClock(userName, questions, s.now)
	s.earnedBonus = 0
	s.recorded = false

	if err := s.registry.AddSession(ctx, s.id, domain.ActiveSession{
		SessionID:      s.id,
		UserName:       userName,
		TotalQuestions: len(questions),
		StartedAt:      s.game.StartTime(),
	}); err != nil {
		slog.ErrorContext(ctx, "quiz: register active session failed", "session", s.id, "error", err)
	}
}

// IsGameActive reports whether a game exists, finished or not.
func (s *Session) IsGameActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game != nil
}

func (s *Session) HasNextQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game != nil && s.game.HasNextQuestion()
}

func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return domain.Question{}, false
	}
	return s.game.CurrentQuestion()
}

func (s *Session) IsTimeUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTimeUpLocked()
}

func (s *Session) isTimeUpLocked() bool {
	return s.game != nil && s.game.IsTimeUp(s.allowedLocked())
}

func (s *Session) allowedLocked() time.Duration {
	return s.settings.Duration + s.earnedBonus
}

// SubmitAnswer answers the current question and advances. A correct answer earns bonus
// time before advancing, so the next time-up check already sees the extended budget.
func (s *Session) SubmitAnswer(selected int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game == nil || s.isTimeUpLocked() {
		return false
	}
	return s.answerLocked(selected)
}

// Answer is SubmitAnswer for request handlers: the refusal reason is returned instead of
// a bare false, and a game whose result was already recorded takes no more answers.
func (s *Session) Answer(selected int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.game == nil:
		return false, domain.ErrNoActiveGame
	case s.recorded:
		return false, domain.ErrGameOver
	case s.isTimeUpLocked():
		return false, domain.ErrTimeUp
	case !s.game.HasNextQuestion():
		return false, domain.ErrGameOver
	}
	return s.answerLocked(selected), nil
}

func (s *Session) answerLocked(selected int) bool {
	correct := s.game.AnswerQuestion(selected)
	if correct && s.settings.BonusTimeActive() {
		s.earnedBonus += s.settings.BonusTime
	}
	s.game.MoveToNextQuestion()
	return correct
}

// RemainingTimeSeconds is the whole seconds left on the clock, never negative.
func (s *Session) RemainingTimeSeconds() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

func (s *Session) remainingLocked() int64 {
	if s.game == nil {
		return 0
	}
	remaining := max(0, s.allowedLocked()-s.game.Elapsed())
	return int64(remaining / time.Second)
}

// EndGame stops counting the session as active. The game stays readable.
func (s *Session) EndGame(ctx context.Context) {
	if err := s.registry.RemoveSession(ctx, s.id); err != nil {
		slog.ErrorContext(ctx, "quiz: deregister active session failed", "session", s.id, "error", err)
	}
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return 0
	}
	return s.game.Score()
}

func (s *Session) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return ""
	}
	return s.game.UserName()
}

func (s *Session) TotalQuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return 0
	}
	return s.game.TotalQuestions()
}

func (s *Session) AnsweredQuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return 0
	}
	return s.game.AnsweredCount()
}

func (s *Session) ElapsedSeconds() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return 0
	}
	return s.game.ElapsedSeconds()
}

func (s *Session) EarnedBonus() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.earnedBonus
}

func (s *Session) BonusTimeActive() bool {
	return s.settings.BonusTimeActive()
}

func (s *Session) BonusTimeSeconds() int64 {
	return int64(s.settings.BonusTime / time.Second)
}

// State reads the whole game under one lock.
func (s *Session) State() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() domain.GameState {
	state := domain.GameState{
		BonusTimeActive:  s.settings.BonusTimeActive(),
		BonusTimeSeconds: int64(s.settings.BonusTime / time.Second),
	}
	if s.game == nil {
		return state
	}

	state.UserName = s.game.UserName()
	state.Score = s.game.Score()
	state.TotalQuestions = s.game.TotalQuestions()
	state.AnsweredQuestions = s.game.AnsweredCount()
	state.RemainingSeconds = s.remainingLocked()
	state.ElapsedSeconds = s.game.ElapsedSeconds()
	state.TimeUp = s.isTimeUpLocked()
	state.HasNextQuestion = s.game.HasNextQuestion()
	if q, ok := s.game.CurrentQuestion(); ok {
		state.CurrentQuestion = &q
		state.QuestionNumber = s.game.CurrentIndex() + 1
	}
	return state
}

// Recorded reports whether the current game's result has been written out.
func (s *Session) Recorded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded
}

// markRecorded flips the recorded flag and reports whether this call did so.
// It keeps a finished game from reaching the leaderboard twice.
func (s *Session) markRecorded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil || s.recorded {
		return false
	}
	s.recorded = true
	return true
}
