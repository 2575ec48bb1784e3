package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-service/internal/app"
	"quiz-service/internal/domain"
	"quiz-service/internal/infra/memory"
	"quiz-service/internal/metrics"
)

type testEnv struct {
	service     *app.QuizService
	sessions    *memory.SessionStore
	registry    *memory.ActiveSessions
	leaderboard *memory.Leaderboard
	history     *memory.HistoryStore

	mu  sync.Mutex
	now time.Time
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func newTestEnv(bank []domain.Question, settings app.Settings) *testEnv {
	env := &testEnv{
		registry:    memory.NewActiveSessions(),
		leaderboard: memory.NewLeaderboard(),
		history:     memory.NewHistoryStore(),
		now:         time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	env.sessions = memory.NewSessionStoreWithClock(30*time.Minute, env.clock)
	seed := int64(0)
	env.service = app.NewQuizService(app.Config{
		Sessions:       env.sessions,
		Questions:      memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string][]domain.Question{"default": bank}), 0),
		QuestionBank:   "default",
		ActiveSessions: env.registry,
		Leaderboard:    env.leaderboard,
		History:        env.history,
		Settings:       settings,
		Metrics:        metrics.New(),
		Clock:          env.clock,
		NewRand: func() *rand.Rand {
			seed++
			return rand.New(rand.NewSource(seed))
		},
	})
	return env
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
		{Text: "Capital of France?", Options: []string{"Rome", "Paris"}, CorrectIndex: 1},
		{Text: "Largest ocean?", Options: []string{"Pacific", "Atlantic", "Indian"}, CorrectIndex: 0},
	}
}

// answer submits the correct option when correct is true, a wrong one otherwise.
func answer(t *testing.T, env *testEnv, sessionID string, correct bool) domain.AnswerResult {
	t.Helper()
	state, err := env.service.State(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, state.CurrentQuestion)

	selected := state.CurrentQuestion.CorrectIndex
	if !correct {
		selected = (selected + 1) % len(state.CurrentQuestion.Options)
	}
	result, err := env.service.SubmitAnswer(context.Background(), sessionID, selected)
	require.NoError(t, err)
	return result
}

func TestFullGameIsRecordedOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{QuestionsPerGame: -1})

	state, err := env.service.StartGame(ctx, "s1", "  Alice  ", false)
	require.NoError(t, err)
	assert.Equal(t, "Alice", state.UserName)
	assert.Equal(t, 3, state.TotalQuestions)
	assert.Equal(t, 1, state.QuestionNumber)

	n, _ := env.registry.ActiveSessionCount(ctx)
	assert.Equal(t, 1, n)

	for i := 0; i < 3; i++ {
		res := answer(t, env, "s1", i != 1)
		env.advance(5 * time.Second)
		if i == 1 {
			assert.False(t, res.Correct)
			assert.Equal(t, "Incorrect answer.", res.Feedback)
		} else {
			assert.True(t, res.Correct)
			assert.Equal(t, "Correct answer!", res.Feedback)
		}
	}

	_, err = env.service.SubmitAnswer(ctx, "s1", 0)
	require.ErrorIs(t, err, domain.ErrGameOver)

	result, err := env.service.FinishGame(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.GameResult{
		UserName:           "Alice",
		Score:              2,
		TotalQuestions:     3,
		AnsweredQuestions:  3,
		IncorrectAnswers:   1,
		DurationSeconds:    15,
		AccuracyPercentage: 200.0 / 3,
		Leaderboard:        []domain.LeaderboardEntry{{UserName: "Alice", Score: 2}},
	}, result)

	n, _ = env.registry.ActiveSessionCount(ctx)
	assert.Equal(t, 0, n)

	// Finishing again returns the summary but does not record it twice.
	_, err = env.service.FinishGame(ctx, "s1")
	require.NoError(t, err)
	quizzes, stats, err := env.service.CompletedQuizzes(ctx)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, env.clock(), quizzes[0].CompletedAt)
	assert.Equal(t, 1, stats.Count)
}

func TestFinishedGameTakesNoAnswers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{QuestionsPerGame: -1})

	_, err := env.service.StartGame(ctx, "s1", "alice", false)
	require.NoError(t, err)
	first, err := env.service.FinishGame(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, first.Score)

	state, err := env.service.State(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, state.CurrentQuestion)
	_, err = env.service.SubmitAnswer(ctx, "s1", state.CurrentQuestion.CorrectIndex)
	require.ErrorIs(t, err, domain.ErrGameOver)

	second, err := env.service.FinishGame(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Score)
	assert.Equal(t, []domain.LeaderboardEntry{{UserName: "alice", Score: 0}}, second.Leaderboard)
}

func TestStartGameValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})
	require.NoError(t, env.leaderboard.AddScore(ctx, "Bob", 1))

	_, err := env.service.StartGame(ctx, "s1", "   ", false)
	require.ErrorIs(t, err, domain.ErrEmptyUserName)

	_, err = env.service.StartGame(ctx, "s1", "Bob", false)
	require.ErrorIs(t, err, domain.ErrUserNameTaken)
	_, ok := env.sessions.Get("s1")
	assert.False(t, ok, "a refused start must not create a session")

	_, err = env.service.StartGame(ctx, "s1", "Bob", true)
	require.NoError(t, err)
}

func TestEmptyBankStartsGameWithoutQuestions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil, app.Settings{})

	state, err := env.service.StartGame(ctx, "s1", "alice", false)
	require.ErrorIs(t, err, domain.ErrNoQuestions)
	assert.False(t, state.HasNextQuestion)
	assert.Nil(t, state.CurrentQuestion)

	session, ok := env.sessions.Get("s1")
	require.True(t, ok)
	assert.True(t, session.IsGameActive())
	_, hasQuestion := session.CurrentQuestion()
	assert.False(t, hasQuestion)
}

func TestMissingBankYieldsEmptyGame(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})
	service := app.NewQuizService(app.Config{
		Sessions:       memory.NewSessionStore(0),
		Questions:      memory.NewQuestionRepository(memory.NewStaticQuestionLoader(nil), 0),
		QuestionBank:   "missing",
		ActiveSessions: env.registry,
		Leaderboard:    env.leaderboard,
		History:        env.history,
	})

	assert.Equal(t, []domain.Question{}, service.Bank(ctx))
	_, err := service.StartGame(ctx, "s1", "alice", false)
	require.ErrorIs(t, err, domain.ErrNoQuestions)
}

func TestSubmitAnswerWithoutGame(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})

	_, err := env.service.SubmitAnswer(ctx, "nobody", 0)
	require.ErrorIs(t, err, domain.ErrNoActiveGame)
	_, err = env.service.State(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNoActiveGame)

	result, err := env.service.FinishGame(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNoActiveGame)
	assert.Empty(t, result.Leaderboard)

	quizzes, _, err := env.service.CompletedQuizzes(ctx)
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestTimeUpWithoutBonus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{Duration: 60 * time.Second})

	_, err := env.service.StartGame(ctx, "s1", "alice", false)
	require.NoError(t, err)
	answer(t, env, "s1", true)

	env.advance(61 * time.Second)
	state, err := env.service.State(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.TimeUp)
	assert.True(t, state.Over())
	assert.Equal(t, int64(0), state.RemainingSeconds)

	_, err = env.service.SubmitAnswer(ctx, "s1", 0)
	require.ErrorIs(t, err, domain.ErrTimeUp)

	result, err := env.service.FinishGame(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, int64(61), result.DurationSeconds)
}

func TestBonusTimeExtendsGame(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{Duration: 60 * time.Second, BonusTimeEnabled: true, BonusTime: 30 * time.Second})

	_, err := env.service.StartGame(ctx, "s1", "alice", false)
	require.NoError(t, err)

	env.advance(10 * time.Second)
	res := answer(t, env, "s1", true)
	assert.Equal(t, int64(30), res.BonusSeconds)
	assert.Equal(t, "Correct answer! +30s bonus.", res.Feedback)
	assert.Equal(t, int64(80), res.State.RemainingSeconds)

	env.advance(55 * time.Second)
	state, err := env.service.State(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.TimeUp, "65s elapsed is within the 90s budget")

	env.advance(30 * time.Second)
	state, err = env.service.State(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.TimeUp, "95s elapsed is past the 90s budget")
}

func TestLeaveDropsSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})

	_, err := env.service.StartGame(ctx, "s1", "alice", false)
	require.NoError(t, err)
	env.service.Leave(ctx, "s1")
	env.service.Leave(ctx, "s1")

	_, ok := env.sessions.Get("s1")
	assert.False(t, ok)
	n, _ := env.registry.ActiveSessionCount(ctx)
	assert.Equal(t, 0, n)
}

func TestIdleSessionsExpire(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})

	_, err := env.service.StartGame(ctx, "idle", "alice", false)
	require.NoError(t, err)
	_, err = env.service.StartGame(ctx, "busy", "bob", false)
	require.NoError(t, err)

	env.advance(20 * time.Minute)
	_, err = env.service.State(ctx, "busy")
	require.NoError(t, err)
	env.advance(10 * time.Minute)

	updates, cancel := env.service.SubscribeActiveSessions(ctx)
	defer cancel()
	<-updates

	assert.Equal(t, 1, env.service.ExpireIdleSessions(ctx))
	snapshot := <-updates
	assert.Equal(t, 1, snapshot.Count)
	require.Len(t, snapshot.Sessions, 1)
	assert.Equal(t, "bob", snapshot.Sessions[0].UserName)

	_, err = env.service.State(ctx, "idle")
	require.ErrorIs(t, err, domain.ErrNoActiveGame)
	assert.Equal(t, 0, env.service.ExpireIdleSessions(ctx))
}

func TestActiveSessionsFeed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})

	updates, cancel := env.service.SubscribeActiveSessions(ctx)
	defer cancel()
	<-updates

	_, err := env.service.StartGame(ctx, "s1", "alice", false)
	require.NoError(t, err)
	snapshot := <-updates
	assert.Equal(t, 1, snapshot.Count)
	require.Len(t, snapshot.Sessions, 1)
	assert.Equal(t, "alice", snapshot.Sessions[0].UserName)
	assert.Equal(t, 3, snapshot.Sessions[0].TotalQuestions)

	_, err = env.service.FinishGame(ctx, "s1")
	require.NoError(t, err)
	snapshot = <-updates
	assert.Equal(t, 0, snapshot.Count)
}

func TestActiveSessionsFeedStartsFromRegistry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})
	elsewhere := domain.ActiveSession{SessionID: "other-replica", UserName: "carol", TotalQuestions: 3, StartedAt: env.clock()}
	require.NoError(t, env.registry.AddSession(ctx, elsewhere.SessionID, elsewhere))

	updates, cancel := env.service.SubscribeActiveSessions(ctx)
	defer cancel()

	snapshot := <-updates
	assert.Equal(t, 1, snapshot.Count)
	assert.Equal(t, []domain.ActiveSession{elsewhere}, snapshot.Sessions)
	assert.Equal(t, env.clock(), snapshot.UpdatedAt)
}

func TestSuggestUserNameSkipsLeaderboardNames(t *testing.T) {
	env := newTestEnv(sampleBank(), app.Settings{})
	name := env.service.SuggestUserName(context.Background())
	assert.NotEmpty(t, name)

	has, err := env.leaderboard.HasUser(context.Background(), name)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(sampleBank(), app.Settings{})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := env.service.StartGame(ctx, id, "player-"+id, false); err != nil {
				errs <- err
				return
			}
			for {
				state, err := env.service.State(ctx, id)
				if err != nil {
					errs <- err
					return
				}
				if state.Over() {
					break
				}
				if _, err := env.service.SubmitAnswer(ctx, id, state.CurrentQuestion.CorrectIndex); err != nil {
					errs <- err
					return
				}
			}
			if _, err := env.service.FinishGame(ctx, id); err != nil {
				errs <- err
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := env.service.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for _, e := range entries {
		assert.Equal(t, 3, e.Score)
	}
	_, stats, err := env.service.CompletedQuizzes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Count)
	assert.True(t, stats.AverageAccuracy.Equal(stats.AverageAccuracy.Round(2)))
}

var errBoom = errors.New("boom")

type failingLeaderboard struct{ *memory.Leaderboard }

func (failingLeaderboard) AddScore(context.Context, string, int) error { return errBoom }

func TestRecordFailureStillFinishesGame(t *testing.T) {
	ctx := context.Background()
	history := memory.NewHistoryStore()
	service := app.NewQuizService(app.Config{
		Sessions:       memory.NewSessionStore(0),
		Questions:      memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string][]domain.Question{"default": sampleBank()}), 0),
		QuestionBank:   "default",
		ActiveSessions: memory.NewActiveSessions(),
		Leaderboard:    failingLeaderboard{memory.NewLeaderboard()},
		History:        history,
	})

	_, err := service.StartGame(ctx, "s1", "alice", false)
	require.NoError(t, err)
	result, err := service.FinishGame(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.UserName)

	quizzes, _ := history.CompletedQuizzes(ctx)
	assert.Len(t, quizzes, 1, "history write is independent of the leaderboard failure")
}
