package http

import (
	stderrors "errors"
	"net/http"

	"quiz-service/internal/domain"
)

var errMissingSelection = stderrors.New("selectedIndex is required")

type questionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// gameView never exposes the correct option.
type gameView struct {
	domain.GameState
	Question *questionView `json:"question,omitempty"`
	GameOver bool          `json:"gameOver"`
}

func newGameView(state domain.GameState) gameView {
	v := gameView{GameState: state, GameOver: state.Over()}
	if q := state.CurrentQuestion; q != nil && !v.GameOver {
		v.Question = &questionView{Text: q.Text, Options: q.Options}
	}
	return v
}

type answerView struct {
	Correct      bool     `json:"correct"`
	BonusSeconds int64    `json:"bonusSeconds"`
	Feedback     string   `json:"feedback"`
	Game         gameView `json:"game"`
}

type startGameRequest struct {
	UserName         string `json:"userName"`
	ConfirmOverwrite bool   `json:"confirmOverwrite"`
}

type answerRequest struct {
	SelectedIndex *int `json:"selectedIndex"`
}

func (h *Handler) suggestUserName(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"userName": h.service.SuggestUserName(r.Context())})
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, badRequest(err))
		return
	}

	state, err := h.service.StartGame(r.Context(), h.session(w, r), req.UserName, req.ConfirmOverwrite)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGameView(state))
}

func (h *Handler) gameState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context(), existingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGameView(state))
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	if req.SelectedIndex == nil {
		writeError(w, r, badRequest(errMissingSelection))
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), existingSession(r), *req.SelectedIndex)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerView{
		Correct:      result.Correct,
		BonusSeconds: result.BonusSeconds,
		Feedback:     result.Feedback,
		Game:         newGameView(result.State),
	})
}

func (h *Handler) finishGame(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.FinishGame(r.Context(), existingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	if id := existingSession(r); id != "" {
		h.service.Leave(r.Context(), id)
	}
	http.SetCookie(w, deleteCookie(r, sessionCookie))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
