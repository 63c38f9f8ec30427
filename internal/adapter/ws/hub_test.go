package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"stressless/internal/domain"
)

func startHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r, "u1"); err != nil {
			t.Errorf("ServeWS: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Connections("u1") == 1 }, time.Second, 10*time.Millisecond)
	return hub, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev map[string]any
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHubDeliversPresenterEvents(t *testing.T) {
	hub, conn := startHub(t)

	hub.OnTimerTick("u1", 30, 50)
	ev := readEvent(t, conn)
	require.Equal(t, EventTimerTick, ev["type"])
	data := ev["data"].(map[string]any)
	require.EqualValues(t, 30, data["remainingSeconds"])
	require.EqualValues(t, 50, data["percentElapsed"])

	hub.OnAchievementEarned("u1", domain.AchievementFirstPost, "desc", time.Now())
	ev = readEvent(t, conn)
	require.Equal(t, EventAchievementEarned, ev["type"])
	require.Equal(t, domain.AchievementFirstPost, ev["data"].(map[string]any)["name"])
}

func TestHubIgnoresOtherUsers(t *testing.T) {
	hub, conn := startHub(t)

	hub.OnTimerExpired("someone-else")
	hub.OnSessionFinalized("u1", 75)

	ev := readEvent(t, conn)
	require.Equal(t, EventSessionFinalized, ev["type"])
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub, conn := startHub(t)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connections("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
