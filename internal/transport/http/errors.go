package http

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"quiz-service/internal/domain"
	"quiz-service/internal/errors"
)

var domainCodes = []struct {
	err  error
	code errors.Code
}{
	{domain.ErrEmptyUserName, errors.CodeInvalidArgument},
	{domain.ErrUserNameTaken, errors.CodeAlreadyExists},
	{domain.ErrNoQuestions, errors.CodeFailedPrecondition},
	{domain.ErrNoActiveGame, errors.CodeNotFound},
	{domain.ErrTimeUp, errors.CodeFailedPrecondition},
	{domain.ErrGameOver, errors.CodeFailedPrecondition},
	{domain.ErrUnauthorized, errors.CodeUnauthenticated},
	{domain.ErrQuestionBankNotFound, errors.CodeNotFound},
}

// toAppError maps domain sentinels to coded errors; anything unknown is internal.
func toAppError(err error) *errors.Error {
	for _, m := range domainCodes {
		if stderrors.Is(err, m.err) {
			return errors.New(m.code, errors.WithMessagef("%s", m.err.Error()), errors.WithCause(err))
		}
	}
	return errors.Convert(err)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := toAppError(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(r.Context(), "http: request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, e.HTTPStatusCode(), e)
}

func badRequest(err error) error {
	return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid request body"), errors.WithCause(err))
}
