package domain

import "errors"

var (
	// ErrEmptyUserName is returned when a game is started without a player name.
	ErrEmptyUserName = errors.New("username cannot be empty")
	// ErrUserNameTaken is returned when the name is already on the leaderboard and the
	// player has not confirmed overwriting it.
	ErrUserNameTaken = errors.New("username already exists on the leaderboard")
	// ErrNoQuestions indicates the question bank produced an empty game.
	ErrNoQuestions = errors.New("no questions available to start the quiz")
	// ErrNoActiveGame is returned when a session has not started a game.
	ErrNoActiveGame = errors.New("no active game found")
	// ErrTimeUp is returned when answering after the clock ran out.
	ErrTimeUp = errors.New("time is up")
	// ErrGameOver is returned when there are no questions left to answer.
	ErrGameOver = errors.New("game is over")
	// ErrUnauthorized is returned for dashboard access without a valid login.
	ErrUnauthorized = errors.New("dashboard access not authorized")
	// ErrQuestionBankNotFound indicates the requested bank does not exist in the store.
	ErrQuestionBankNotFound = errors.New("question bank not found")
)
