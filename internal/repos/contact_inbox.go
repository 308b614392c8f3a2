package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

type ContactInboxRepo interface {
	GetBySourceID(ctx context.Context, tx *gorm.DB, inboxID uuid.UUID, sourceID string) (*types.ContactInbox, error)
	Create(ctx context.Context, tx *gorm.DB, contactInbox *types.ContactInbox) (*types.ContactInbox, error)
	MarkVerified(ctx context.Context, tx *gorm.DB, contactInboxID uuid.UUID) error
}

type contactInboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactInboxRepo(db *gorm.DB, baseLog *logger.Logger) ContactInboxRepo {
	repoLog := baseLog.With("repo", "ContactInboxRepo")
	return &contactInboxRepo{db: db, log: repoLog}
}

func (cir *contactInboxRepo) GetBySourceID(ctx context.Context, tx *gorm.DB, inboxID uuid.UUID, sourceID string) (*types.ContactInbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = cir.db
	}

	var result types.ContactInbox
	if err := transaction.WithContext(ctx).
		Preload("Contact").
		Where("inbox_id = ? AND source_id = ?", inboxID, sourceID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cir *contactInboxRepo) Create(ctx context.Context, tx *gorm.DB, contactInbox *types.ContactInbox) (*types.ContactInbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = cir.db
	}

	if err := transaction.WithContext(ctx).Create(contactInbox).Error; err != nil {
		return nil, err
	}
	return contactInbox, nil
}

func (cir *contactInboxRepo) MarkVerified(ctx context.Context, tx *gorm.DB, contactInboxID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cir.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ContactInbox{}).
		Where("id = ?", contactInboxID).
		Update("hmac_verified", true).Error
}
