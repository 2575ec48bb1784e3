package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"quiz-service/internal/domain"
	"quiz-service/internal/security"
)

type loginRequest struct {
	Password string `json:"password"`
}

func deleteCookie(r *http.Request, name string) *http.Cookie {
	return security.CreateDeleteCookie(r, name)
}

func (h *Handler) dashboardLogin(w http.ResponseWriter, r *http.Request) {
	if h.guard == nil {
		writeError(w, r, fmt.Errorf("dashboard disabled: %w", domain.ErrUnauthorized))
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	if !h.guard.CheckPassword(req.Password) {
		writeError(w, r, domain.ErrUnauthorized)
		return
	}

	token, expires, err := h.guard.Token(h.session(w, r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, security.CreateSessionCookie(r, dashboardCookie, token, expires))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dashboardLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(dashboardCookie); err == nil && h.guard != nil {
		h.guard.Revoke(c.Value)
	}
	http.SetCookie(w, deleteCookie(r, dashboardCookie))
	w.WriteHeader(http.StatusNoContent)
}

// authorizeDashboard reports whether the request carries a valid dashboard login.
func (h *Handler) authorizeDashboard(r *http.Request) error {
	if h.guard == nil {
		return domain.ErrUnauthorized
	}
	c, err := r.Cookie(dashboardCookie)
	if err != nil || !h.guard.Authorized(existingSession(r), c.Value) {
		return domain.ErrUnauthorized
	}
	return nil
}

func (h *Handler) dashboardSessions(w http.ResponseWriter, r *http.Request) {
	if err := h.authorizeDashboard(r); err != nil {
		writeError(w, r, err)
		return
	}
	snapshot, err := h.service.ActiveSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) dashboardResults(w http.ResponseWriter, r *http.Request) {
	if err := h.authorizeDashboard(r); err != nil {
		writeError(w, r, err)
		return
	}
	quizzes, stats, err := h.service.CompletedQuizzes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	type resultRow struct {
		domain.CompletedQuiz
		IncorrectAnswers   int     `json:"incorrectAnswers"`
		AccuracyPercentage float64 `json:"accuracyPercentage"`
	}
	rows := make([]resultRow, 0, len(quizzes))
	for _, q := range quizzes {
		rows = append(rows, resultRow{CompletedQuiz: q, IncorrectAnswers: q.IncorrectAnswers(), AccuracyPercentage: q.AccuracyPercentage()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": rows, "stats": stats})
}

func (h *Handler) downloadLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := h.authorizeDashboard(r); err != nil {
		writeError(w, r, err)
		return
	}
	if h.leaderboardFile == "" {
		http.Error(w, "leaderboard file not found", http.StatusNotFound)
		return
	}
	f, err := os.Open(h.leaderboardFile)
	if err != nil {
		http.Error(w, "leaderboard file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "leaderboard file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(h.leaderboardFile)))
	w.Header().Set("Content-Type", "application/x-yaml")
	http.ServeContent(w, r, filepath.Base(h.leaderboardFile), info.ModTime(), f)
}
