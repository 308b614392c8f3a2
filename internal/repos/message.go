package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

type MessageRepo interface {
	// ChatBefore returns the most recent limit chat messages created strictly
	// before cutoff, in chronological order.
	ChatBefore(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, cutoff time.Time, limit int) ([]*types.Message, error)
	// ChatSince returns all chat messages created at or after cutoff.
	ChatSince(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, cutoff time.Time) ([]*types.Message, error)
	// TypedSince returns messages of the given types created at or after cutoff.
	TypedSince(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, messageTypes []string, cutoff time.Time) ([]*types.Message, error)
	// AllChat returns every chat message in the conversation.
	AllChat(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error)
	LastIncoming(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Message, error)
	LastNonIncoming(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "MessageRepo")
	return &messageRepo{db: db, log: repoLog}
}

func (mr *messageRepo) ChatBefore(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, cutoff time.Time, limit int) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	// Fetch newest-first so LIMIT picks the tail of the window, then flip.
	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Where("message_type IN ?", types.ChatMessageTypes).
		Where("created_at < ?", cutoff).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func (mr *messageRepo) ChatSince(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, cutoff time.Time) ([]*types.Message, error) {
	return mr.TypedSince(ctx, tx, conversationID, types.ChatMessageTypes, cutoff)
}

func (mr *messageRepo) TypedSince(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, messageTypes []string, cutoff time.Time) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Where("message_type IN ?", messageTypes).
		Where("created_at >= ?", cutoff).
		Order("created_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *messageRepo) AllChat(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Where("message_type IN ?", types.ChatMessageTypes).
		Order("created_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *messageRepo) LastIncoming(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Message, error) {
	return mr.lastOfTypes(ctx, tx, conversationID, []string{types.MessageTypeIncoming})
}

func (mr *messageRepo) LastNonIncoming(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (*types.Message, error) {
	return mr.lastOfTypes(ctx, tx, conversationID, []string{types.MessageTypeOutgoing, types.MessageTypeTemplate})
}

// lastOfTypes returns (nil, nil) when the conversation has no such message.
func (mr *messageRepo) lastOfTypes(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, messageTypes []string) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.Message
	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Where("message_type IN ?", messageTypes).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
