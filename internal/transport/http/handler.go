package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"quiz-service/internal/app"
	"quiz-service/internal/security"
)

const (
	sessionCookie   = "quiz_session"
	dashboardCookie = "quiz_dashboard"
)

type Config struct {
	Service *app.QuizService
	// Guard protects the dashboard; nil disables it.
	Guard *security.DashboardGuard
	// LeaderboardFile is served by the dashboard download, empty when scores are not kept in a file.
	LeaderboardFile string
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

// Handler serves the quiz JSON API, the dashboard and its live feed.
type Handler struct {
	service         *app.QuizService
	guard           *security.DashboardGuard
	leaderboardFile string
	metrics         http.Handler
	ws              *WSHandler
}

func NewHandler(c Config) *Handler {
	h := &Handler{
		service:         c.Service,
		guard:           c.Guard,
		leaderboardFile: c.LeaderboardFile,
		metrics:         c.Metrics,
	}
	h.ws = NewWSHandler(c.Service, h.authorizeDashboard)
	return h
}

// Routes returns the mux with request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/username/suggest", h.suggestUserName)
	mux.HandleFunc("POST /api/game", h.startGame)
	mux.HandleFunc("GET /api/game", h.gameState)
	mux.HandleFunc("POST /api/game/answer", h.submitAnswer)
	mux.HandleFunc("POST /api/game/finish", h.finishGame)
	mux.HandleFunc("DELETE /api/session", h.leave)
	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)

	mux.HandleFunc("POST /api/dashboard/login", h.dashboardLogin)
	mux.HandleFunc("POST /api/dashboard/logout", h.dashboardLogout)
	mux.HandleFunc("GET /api/dashboard/sessions", h.dashboardSessions)
	mux.HandleFunc("GET /api/dashboard/results", h.dashboardResults)
	mux.HandleFunc("GET /api/dashboard/leaderboard/download", h.downloadLeaderboard)
	mux.HandleFunc("GET /ws/dashboard", h.ws.ServeWS)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
	return logRequests(mux)
}

// session returns the caller's session id, issuing a new cookie on first contact.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := security.GenerateSessionID()
	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookie, id, time.Time{}))
	return id
}

func existingSession(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("http: encode response failed", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader reach the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.DebugContext(r.Context(), "http: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start),
		)
	})
}
