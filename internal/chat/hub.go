// Package chat runs the websocket hub for farmer-officer messaging.
// Messages are delivered to connected receivers and persisted through
// the chat service either way.
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"agrilink/internal/middleware"
	"agrilink/internal/services"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// inbound is the wire format clients send
type inbound struct {
	ReceiverID int64  `json:"receiver_id"`
	Body       string `json:"body"`
}

// outbound is the wire format clients receive
type outbound struct {
	ID       int64     `json:"id"`
	SenderID int64     `json:"sender_id"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}

// client is one websocket connection owned by a user
type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks connected clients and routes messages between them
type Hub struct {
	chatService services.ChatService
	logger      *zap.Logger
	upgrader    websocket.Upgrader

	mu      sync.RWMutex
	clients map[int64][]*client
}

// NewHub creates a new chat hub
func NewHub(chatService services.ChatService, logger *zap.Logger) *Hub {
	return &Hub{
		chatService: chatService,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients carry the bearer token in the query
			// string, so origin checks are left to the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[int64][]*client),
	}
}

// ServeWS upgrades an authenticated request to a websocket connection.
// Registered as GET /api/v1/chat/ws behind auth middleware.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		userID: authCtx.UserID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c)

	h.logger.Info("Chat client connected", zap.Int64("user_id", c.userID))

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.userID] = append(h.clients[c.userID], c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[c.userID]
	for i, other := range conns {
		if other == c {
			h.clients[c.userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.clients[c.userID]) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// deliver pushes a payload to every open connection of one user.
// Slow consumers are skipped rather than blocking the hub.
func (h *Hub) deliver(userID int64, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("Dropping message for slow chat client", zap.Int64("user_id", userID))
		}
	}
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.logger.Info("Chat client disconnected", zap.Int64("user_id", c.userID))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Chat read error", zap.Error(err), zap.Int64("user_id", c.userID))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		h.handleMessage(c, &msg)
	}
}

func (h *Hub) handleMessage(c *client, msg *inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	saved, err := h.chatService.SendMessage(ctx, c.userID, &services.SendMessageRequest{
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
	})
	if err != nil {
		h.logger.Warn("Rejected chat message", zap.Error(err), zap.Int64("sender_id", c.userID))
		return
	}

	payload, err := json.Marshal(outbound{
		ID:       saved.ID,
		SenderID: saved.SenderID,
		Body:     saved.Body,
		SentAt:   saved.SentAt,
	})
	if err != nil {
		return
	}

	h.deliver(msg.ReceiverID, payload)
	// Echo to the sender's other devices as well.
	h.deliver(c.userID, payload)
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
