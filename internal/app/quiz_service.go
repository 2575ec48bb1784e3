package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quiz-service/internal/domain"
	"quiz-service/internal/metrics"
)

// SessionRepository abstracts how player sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string, create func(sessionID string) *Session) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	// Sweep ends and drops idle sessions, returning how many were removed.
	Sweep(ctx context.Context) int
}

// QuestionRepository serves the shared question bank (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context, bank string) ([]domain.Question, error)
}

// Leaderboard keeps the best known score per player name.
type Leaderboard interface {
	HasUser(ctx context.Context, name string) (bool, error)
	AddScore(ctx context.Context, name string, score int) error
	ScoresSorted(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// History records finished games.
type History interface {
	AddCompletedQuiz(ctx context.Context, quiz domain.CompletedQuiz) error
	CompletedQuizzes(ctx context.Context) ([]domain.CompletedQuiz, error)
	Stats(ctx context.Context) (domain.HistoryStats, error)
}

type Config struct {
	Sessions       SessionRepository
	Questions      QuestionRepository
	QuestionBank   string
	ActiveSessions ActiveSessions
	Leaderboard    Leaderboard
	History        History
	Settings       Settings
	Metrics        *metrics.Metrics
	Feed           *Feed

	// Clock and NewRand are overridden by tests.
	Clock   func() time.Time
	NewRand func() *rand.Rand
}

// QuizService contains the quiz use cases called by request handlers.
type QuizService struct {
	sessions    SessionRepository
	questions   QuestionRepository
	bank        string
	registry    ActiveSessions
	leaderboard Leaderboard
	history     History
	settings    Settings
	metrics     *metrics.Metrics
	feed        *Feed
	clock       func() time.Time
	newRand     func() *rand.Rand

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizService(c Config) *QuizService {
	s := &QuizService{
		sessions:    c.Sessions,
		questions:   c.Questions,
		bank:        c.QuestionBank,
		registry:    c.ActiveSessions,
		leaderboard: c.Leaderboard,
		history:     c.History,
		settings:    c.Settings,
		metrics:     c.Metrics,
		feed:        c.Feed,
		clock:       c.Clock,
		newRand:     c.NewRand,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newRand == nil {
		s.newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	if s.feed == nil {
		s.feed = NewFeed()
	}
	s.rnd = s.newRand()
	return s
}

func (s *QuizService) newSession(sessionID string) *Session {
	return NewSessionWithClock(sessionID, s.settings, s.registry, s.clock, s.newRand())
}

// Bank returns the shared question bank. A failed load is logged and yields an empty bank.
func (s *QuizService) Bank(ctx context.Context) []domain.Question {
	questions, err := s.questions.GetQuestions(ctx, s.bank)
	if err != nil {
		slog.ErrorContext(ctx, "quiz: load question bank failed", "bank", s.bank, "error", err)
		return []domain.Question{}
	}
	return questions
}

// StartGame begins a new game for the session. The game is created even when the bank is
// empty; ErrNoQuestions tells the caller there is nothing to play.
func (s *QuizService) StartGame(ctx context.Context, sessionID, userName string, confirmOverwrite bool) (domain.GameState, error) {
	name := strings.TrimSpace(userName)
	if name == "" {
		return domain.GameState{}, domain.ErrEmptyUserName
	}

	if !confirmOverwrite {
		exists, err := s.leaderboard.HasUser(ctx, name)
		if err != nil {
			slog.ErrorContext(ctx, "quiz: leaderboard lookup failed", "user", name, "error", err)
		}
		if exists {
			return domain.GameState{}, domain.ErrUserNameTaken
		}
	}

	session := s.sessions.GetOrCreate(sessionID, s.newSession)
	session.StartNewGame(ctx, name, s.Bank(ctx))
	s.metrics.GameStarted()
	s.publishActiveSessions(ctx)

	state := session.State()
	if !state.HasNextQuestion {
		return state, domain.ErrNoQuestions
	}
	return state, nil
}

// State returns the session's game as it stands now.
func (s *QuizService) State(_ context.Context, sessionID string) (domain.GameState, error) {
	session, ok := s.activeSession(sessionID)
	if !ok {
		return domain.GameState{}, domain.ErrNoActiveGame
	}
	return session.State(), nil
}

// SubmitAnswer answers the current question and reports the outcome. Answers are refused
// once time is up, the last question is answered or the game has been finished.
func (s *QuizService) SubmitAnswer(_ context.Context, sessionID string, selected int) (domain.AnswerResult, error) {
	session, ok := s.activeSession(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrNoActiveGame
	}

	correct, err := session.Answer(selected)
	if err != nil {
		return domain.AnswerResult{State: session.State()}, err
	}
	result := domain.AnswerResult{
		Correct:  correct,
		Feedback: "Incorrect answer.",
	}
	if correct {
		result.Feedback = "Correct answer!"
		if session.BonusTimeActive() {
			result.BonusSeconds = session.BonusTimeSeconds()
			result.Feedback += fmt.Sprintf(" +%ds bonus.", result.BonusSeconds)
		}
	}
	result.State = session.State()

	s.metrics.AnswerSubmitted(correct, result.BonusSeconds)
	return result, nil
}

// FinishGame ends the session's game, records its result once and returns the summary
// together with the current leaderboard.
func (s *QuizService) FinishGame(ctx context.Context, sessionID string) (domain.GameResult, error) {
	session, ok := s.activeSession(sessionID)
	if !ok {
		if existing, found := s.sessions.Get(sessionID); found {
			existing.EndGame(ctx)
		}
		return domain.GameResult{Leaderboard: s.scores(ctx)}, domain.ErrNoActiveGame
	}

	state := session.State()
	completed := domain.CompletedQuiz{
		UserName:          state.UserName,
		Score:             state.Score,
		TotalQuestions:    state.TotalQuestions,
		AnsweredQuestions: state.AnsweredQuestions,
		DurationSeconds:   state.ElapsedSeconds,
		CompletedAt:       s.clock(),
	}

	if session.markRecorded() {
		s.record(ctx, completed)
		s.metrics.GameFinished(completed.Score)
	}

	session.EndGame(ctx)
	s.publishActiveSessions(ctx)

	return domain.GameResult{
		UserName:           completed.UserName,
		Score:              completed.Score,
		TotalQuestions:     completed.TotalQuestions,
		AnsweredQuestions:  completed.AnsweredQuestions,
		IncorrectAnswers:   completed.IncorrectAnswers(),
		DurationSeconds:    completed.DurationSeconds,
		AccuracyPercentage: completed.AccuracyPercentage(),
		Leaderboard:        s.scores(ctx),
	}, nil
}

// record writes the result to the leaderboard and history. Failures are the
// collaborators' concern: they are logged and never touch the game.
func (s *QuizService) record(ctx context.Context, completed domain.CompletedQuiz) {
	var eg errgroup.Group
	eg.Go(func() error {
		if err := s.leaderboard.AddScore(ctx, completed.UserName, completed.Score); err != nil {
			return fmt.Errorf("add score: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		if err := s.history.AddCompletedQuiz(ctx, completed); err != nil {
			return fmt.Errorf("add completed quiz: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "quiz: record result failed", "user", completed.UserName, "error", err)
	}
}

// Leave ends the game and drops the session from the store.
func (s *QuizService) Leave(ctx context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.EndGame(ctx)
	s.sessions.Delete(sessionID)
	s.publishActiveSessions(ctx)
}

// ExpireIdleSessions drops abandoned sessions, whose games leave the active list.
func (s *QuizService) ExpireIdleSessions(ctx context.Context) int {
	n := s.sessions.Sweep(ctx)
	if n > 0 {
		slog.InfoContext(ctx, "quiz: idle sessions expired", "count", n)
		s.publishActiveSessions(ctx)
	}
	return n
}

func (s *QuizService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard.ScoresSorted(ctx)
}

// SuggestUserName proposes a fun name that is not on the leaderboard.
func (s *QuizService) SuggestUserName(ctx context.Context) string {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return suggestUserName(ctx, s.rnd, s.leaderboard.HasUser)
}

func (s *QuizService) ActiveSessions(ctx context.Context) (ActiveSessionsSnapshot, error) {
	sessions, err := s.registry.ActiveSessions(ctx)
	if err != nil {
		return ActiveSessionsSnapshot{}, fmt.Errorf("list active sessions: %w", err)
	}
	count, err := s.registry.ActiveSessionCount(ctx)
	if err != nil {
		return ActiveSessionsSnapshot{}, fmt.Errorf("count active sessions: %w", err)
	}
	return ActiveSessionsSnapshot{Sessions: sessions, Count: count, UpdatedAt: s.clock()}, nil
}

// CompletedQuizzes returns the finished games and their aggregate statistics.
func (s *QuizService) CompletedQuizzes(ctx context.Context) ([]domain.CompletedQuiz, domain.HistoryStats, error) {
	quizzes, err := s.history.CompletedQuizzes(ctx)
	if err != nil {
		return nil, domain.HistoryStats{}, fmt.Errorf("list completed quizzes: %w", err)
	}
	stats, err := s.history.Stats(ctx)
	if err != nil {
		return nil, domain.HistoryStats{}, fmt.Errorf("history stats: %w", err)
	}
	return quizzes, stats, nil
}

// SubscribeActiveSessions returns a channel that receives active-session snapshots, primed
// with the registry as it is now so sessions started elsewhere show up at once.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) SubscribeActiveSessions(ctx context.Context) (<-chan ActiveSessionsSnapshot, func()) {
	s.publishActiveSessions(ctx)
	return s.feed.Subscribe()
}

func (s *QuizService) activeSession(sessionID string) (*Session, bool) {
	session, ok := s.sessions.Get(sessionID)
	if !ok || !session.IsGameActive() {
		return nil, false
	}
	return session, true
}

func (s *QuizService) scores(ctx context.Context) []domain.LeaderboardEntry {
	entries, err := s.leaderboard.ScoresSorted(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "quiz: read leaderboard failed", "error", err)
		return []domain.LeaderboardEntry{}
	}
	return entries
}

func (s *QuizService) publishActiveSessions(ctx context.Context) {
	snapshot, err := s.ActiveSessions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "quiz: snapshot active sessions failed", "error", err)
		return
	}
	s.feed.Publish(snapshot)
}
