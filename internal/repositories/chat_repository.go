package repositories

import (
	"context"

	"agrilink/internal/database"
	"agrilink/internal/models"

	"go.uber.org/zap"
)

// ChatRepository persists chat messages exchanged over the websocket hub
type ChatRepository interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	ListConversation(ctx context.Context, userA, userB int64, offset, limit int) ([]*models.ChatMessage, int64, error)
}

type chatRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *database.Manager, logger *zap.Logger) ChatRepository {
	return &chatRepository{db: db, logger: logger}
}

func (r *chatRepository) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (sender_id, receiver_id, body, sent_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, sent_at`
	return r.db.QueryRowContext(ctx, query,
		msg.SenderID, msg.ReceiverID, msg.Body,
	).Scan(&msg.ID, &msg.SentAt)
}

// ListConversation returns messages between two users in either direction,
// newest first.
func (r *chatRepository) ListConversation(ctx context.Context, userA, userB int64, offset, limit int) ([]*models.ChatMessage, int64, error) {
	const pair = `(sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE `+pair, userA, userB).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, body, sent_at FROM chat_messages WHERE `+pair+
			` ORDER BY sent_at DESC OFFSET $3 LIMIT $4`,
		userA, userB, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0, limit)
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body, &msg.SentAt); err != nil {
			return nil, 0, err
		}
		messages = append(messages, &msg)
	}
	return messages, total, rows.Err()
}
