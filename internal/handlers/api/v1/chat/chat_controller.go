// ===============================
// FILE: internal/handlers/api/v1/chat/chat_controller.go
// ===============================

package chat

import (
	"encoding/json"
	"net/http"
	"strconv"

	"agrilink/internal/middleware"
	"agrilink/internal/response"
	"agrilink/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Controller handles the REST side of chat: message history and a
// plain-HTTP send fallback for clients without websockets.
type Controller struct {
	services *services.ServiceCollection
	logger   *zap.Logger
	builder  *response.Builder
	parser   *response.PaginationParser
}

// NewController creates a new chat controller
func NewController(sc *services.ServiceCollection, logger *zap.Logger, builder *response.Builder) *Controller {
	return &Controller{
		services: sc,
		logger:   logger,
		builder:  builder,
		parser:   response.NewPaginationParser(response.DefaultPaginationConfig()),
	}
}

// SendMessage sends a message - POST /api/v1/chat/messages
func (c *Controller) SendMessage(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	var req services.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return services.NewValidationError("invalid request body")
	}

	msg, err := c.services.ChatService.SendMessage(r.Context(), authCtx.UserID, &req)
	if err != nil {
		return err
	}

	c.builder.WriteCreated(w, msg, "Message sent")
	return nil
}

// GetConversation loads history with a peer - GET /api/v1/chat/conversations/{peerID}
func (c *Controller) GetConversation(w http.ResponseWriter, r *http.Request) error {
	authCtx := middleware.GetAuthContext(r.Context())
	if authCtx == nil {
		return services.NewUnauthorizedError("authentication required")
	}

	raw := chi.URLParam(r, "peerID")
	peerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || peerID <= 0 {
		return services.NewValidationError("invalid peerID parameter")
	}

	params, err := c.parser.ParseFromRequest(r)
	if err != nil {
		return services.NewValidationError(err.Error())
	}

	result, err := c.services.ChatService.GetConversation(r.Context(), authCtx.UserID, peerID, params.Page, params.Limit)
	if err != nil {
		return err
	}

	c.builder.WritePaginated(w, result.Data, response.BuildBlock(params, result.Pagination.Total), "")
	return nil
}
