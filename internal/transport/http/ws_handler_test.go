package http

import (
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestDashboardFeedPushesActiveSessions(t *testing.T) {
	srv := newTestServer(t, oneQuestionBank())

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	admin := &http.Client{Jar: jar}
	resp, _ := do(t, admin, http.MethodPost, srv.URL+"/api/dashboard/login", map[string]any{"password": "admin"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	dialer := websocket.Dialer{Jar: jar}
	u := "ws" + srv.URL[len("http"):] + "/ws/dashboard"
	conn, _, err := dialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Expect the current (empty) snapshot first.
	msg := readNext(t, conn, "activeSessions")
	require.Equal(t, float64(0), msg.Payload["count"])

	player := newClient(t)
	resp, _ = do(t, player, http.MethodPost, srv.URL+"/api/game", map[string]any{"userName": "Alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	msg = readNext(t, conn, "activeSessions")
	require.Equal(t, float64(1), msg.Payload["count"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "refresh"}))
	msg = readNext(t, conn, "activeSessions")
	require.Equal(t, float64(1), msg.Payload["count"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "answer"}))
	readNext(t, conn, "error")

	resp, _ = do(t, player, http.MethodPost, srv.URL+"/api/game/finish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msg = readNext(t, conn, "activeSessions")
	require.Equal(t, float64(0), msg.Payload["count"])
}

func TestDashboardFeedRequiresLogin(t *testing.T) {
	srv := newTestServer(t, nil)

	u := "ws" + srv.URL[len("http"):] + "/ws/dashboard"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type wsMessage struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) wsMessage {
	t.Helper()
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, expect, msg.Type)
	return msg
}
