package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"agrilink/internal/auth"
	"agrilink/internal/config"
	"agrilink/internal/middleware"
	"agrilink/internal/models"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeChatService records sent messages without a database
type fakeChatService struct {
	mu     sync.Mutex
	nextID int64
}

func (f *fakeChatService) SendMessage(ctx context.Context, senderID int64, req *services.SendMessageRequest) (*models.ChatMessage, error) {
	if req.ReceiverID == senderID {
		return nil, services.NewBusinessError("cannot message yourself", "SELF_MESSAGE")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return &models.ChatMessage{
		ID:         f.nextID,
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
		SentAt:     time.Now().UTC(),
	}, nil
}

func (f *fakeChatService) GetConversation(ctx context.Context, userID, peerID int64, page, limit int) (*models.PaginatedResponse[*models.ChatMessage], error) {
	return &models.PaginatedResponse[*models.ChatMessage]{}, nil
}

// newChatTestServer mounts ServeWS behind the same logging and auth
// middleware the assembled router uses.
func newChatTestServer(t *testing.T) (*httptest.Server, *auth.TokenManager) {
	t.Helper()

	tm := auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:     "test-chat-secret",
		JWTExpiry:     time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "agrilink-test",
	})
	builder := response.NewBuilder(nil, zap.NewNop())
	am := middleware.NewAuthMiddleware(tm, builder, zap.NewNop())
	hub := NewHub(&fakeChatService{}, zap.NewNop())

	r := chi.NewRouter()
	r.Use(middleware.RequestLogging(middleware.DefaultLoggingConfig()))
	r.Group(func(r chi.Router) {
		r.Use(am.RequireAuth())
		r.Get("/api/v1/chat/ws", hub.ServeWS)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, tm
}

func dialAs(t *testing.T, srv *httptest.Server, tm *auth.TokenManager, userID int64) *websocket.Conn {
	t.Helper()

	token, _, err := tm.IssueAccessToken(userID, "user@example.com", "farmer")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readOutbound(t *testing.T, conn *websocket.Conn) outbound {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg outbound
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestUpgradeSucceedsBehindLoggingMiddleware(t *testing.T) {
	srv, tm := newChatTestServer(t)

	conn := dialAs(t, srv, tm, 1)
	assert.NotNil(t, conn)
}

func TestUpgradeRejectedWithoutToken(t *testing.T) {
	srv, _ := newChatTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessageDeliveredToReceiverAndEchoedToSender(t *testing.T) {
	srv, tm := newChatTestServer(t)

	receiver := dialAs(t, srv, tm, 2)
	sender := dialAs(t, srv, tm, 1)

	// Registration happens after the handshake; give the hub a moment.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, sender.WriteJSON(inbound{ReceiverID: 2, Body: "soil results are in"}))

	got := readOutbound(t, receiver)
	assert.Equal(t, int64(1), got.SenderID)
	assert.Equal(t, "soil results are in", got.Body)

	echo := readOutbound(t, sender)
	assert.Equal(t, got.ID, echo.ID)
	assert.Equal(t, "soil results are in", echo.Body)
}

func TestRejectedMessageIsNotDelivered(t *testing.T) {
	srv, tm := newChatTestServer(t)

	sender := dialAs(t, srv, tm, 1)
	time.Sleep(100 * time.Millisecond)

	// Self-messages are refused by the service and never fan out.
	require.NoError(t, sender.WriteJSON(inbound{ReceiverID: 1, Body: "note to self"}))

	require.NoError(t, sender.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := sender.ReadMessage()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timeout") || websocket.IsUnexpectedCloseError(err))
}
