package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/auth"
	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/editor"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startHub(t *testing.T, authCfg config.AuthConfig) (*Hub, string) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	hub := NewHub(logger, auth.NewAuthService(authCfg, logger))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

// expectClosed asserts the server ended the connection with a close frame
// rather than dropping the socket.
func expectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived), "got %v", err)
}

func TestHubBroadcastsWorkspaceChanges(t *testing.T) {
	hub, url := startHub(t, config.AuthConfig{})
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	ws := editor.NewWorkspace(nil, zaptest.NewLogger(t))
	hub.Watch(ws)
	require.NoError(t, ws.Update("io.added", "io/0", func(doc *document.Document) error {
		doc.IO.Add(document.IOElement{Name: "S1", Frame: document.FrameState, Signal: document.SignalInput})
		return nil
	}))

	msg := readMessage(t, conn)
	assert.Equal(t, string(MessageTypeDocumentChanged), msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "io.added", data["kind"])
	assert.Equal(t, "io/0", data["path"])
}

func TestClientAuthentication(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	cfg := config.AuthConfig{
		Enabled:        true,
		AccessTokenTTL: time.Minute,
		Users:          []config.UserConfig{{Username: "ada", PasswordHash: hash, Role: "viewer"}},
	}

	t.Run("rejects non-auth first message", func(t *testing.T) {
		hub, url := startHub(t, cfg)
		conn := dial(t, url)
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "hello"}))

		msg := readMessage(t, conn)
		assert.Equal(t, messageTypeAuthFailed, msg["type"])
		assert.Equal(t, "First message must be authentication", msg["reason"])
		expectClosed(t, conn)
		assert.Equal(t, 0, hub.GetClientCount())
	})

	t.Run("rejects bad token", func(t *testing.T) {
		_, url := startHub(t, cfg)
		conn := dial(t, url)
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": "nope"}))

		msg := readMessage(t, conn)
		assert.Equal(t, messageTypeAuthFailed, msg["type"])
		assert.Equal(t, "Invalid or expired token", msg["reason"])
		expectClosed(t, conn)
	})

	t.Run("rejects auth message without token", func(t *testing.T) {
		_, url := startHub(t, cfg)
		conn := dial(t, url)
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth"}))

		msg := readMessage(t, conn)
		assert.Equal(t, messageTypeAuthFailed, msg["type"])
		assert.Equal(t, "Missing token in auth message", msg["reason"])
		expectClosed(t, conn)
	})

	t.Run("accepts valid token", func(t *testing.T) {
		hub, url := startHub(t, cfg)
		token, _, err := hub.authService.LoginUser("ada", "pw")
		require.NoError(t, err)

		conn := dial(t, url)
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": token}))

		msg := readMessage(t, conn)
		assert.Equal(t, messageTypeAuthSuccess, msg["type"])
		require.Eventually(t, func() bool { return hub.GetClientCount() == 1 },
			2*time.Second, 10*time.Millisecond)

		hub.Broadcast(NewSystemStatusMessage("RUNNING", "INITIALIZING"))
		msg = readMessage(t, conn)
		assert.Equal(t, string(MessageTypeSystemStatus), msg["type"])
	})
}

func TestNewExportMessage(t *testing.T) {
	ok := NewExportMessage("out.xlsx", 2, nil)
	assert.Equal(t, MessageTypeExportCompleted, ok.Type)
	assert.Equal(t, ExportData{Path: "out.xlsx", Shadowed: 2}, ok.Data)

	failed := NewExportMessage("out.xlsx", 0, assert.AnError)
	assert.Equal(t, MessageTypeExportFailed, failed.Type)
}
