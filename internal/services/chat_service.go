// file: internal/services/chat_service.go
package services

import (
	"context"

	"agrilink/internal/models"
	"agrilink/internal/repositories"

	"go.uber.org/zap"
)

// chatService implements ChatService
type chatService struct {
	chatRepo repositories.ChatRepository
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(chatRepo repositories.ChatRepository, userRepo repositories.UserRepository, logger *zap.Logger) ChatService {
	return &chatService{chatRepo: chatRepo, userRepo: userRepo, logger: logger}
}

// SendMessage persists a message to another user
func (s *chatService) SendMessage(ctx context.Context, senderID int64, req *SendMessageRequest) (*models.ChatMessage, error) {
	if senderID <= 0 {
		return nil, NewValidationError("invalid sender ID")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.ReceiverID == senderID {
		return nil, NewBusinessError("cannot message yourself", "SELF_MESSAGE")
	}

	receiver, err := s.userRepo.GetByID(ctx, req.ReceiverID)
	if err != nil {
		s.logger.Error("Failed to load receiver", zap.Error(err), zap.Int64("receiver_id", req.ReceiverID))
		return nil, NewInternalError("failed to send message")
	}
	if receiver == nil || !receiver.IsActive {
		return nil, EntityNotFoundError("user", req.ReceiverID)
	}

	msg := &models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
	}
	if err := s.chatRepo.SaveMessage(ctx, msg); err != nil {
		s.logger.Error("Failed to save message", zap.Error(err), zap.Int64("sender_id", senderID))
		return nil, NewInternalError("failed to send message")
	}
	return msg, nil
}

// GetConversation returns the message history between two users
func (s *chatService) GetConversation(ctx context.Context, userID, peerID int64, page, limit int) (*models.PaginatedResponse[*models.ChatMessage], error) {
	if userID <= 0 || peerID <= 0 {
		return nil, NewValidationError("invalid user ID")
	}
	page, limit, offset := normalizePage(page, limit)

	messages, total, err := s.chatRepo.ListConversation(ctx, userID, peerID, offset, limit)
	if err != nil {
		s.logger.Error("Failed to list conversation", zap.Error(err),
			zap.Int64("user_id", userID), zap.Int64("peer_id", peerID))
		return nil, NewInternalError("failed to load conversation")
	}

	return &models.PaginatedResponse[*models.ChatMessage]{
		Data:       messages,
		Pagination: paginationMeta(page, limit, total),
	}, nil
}
