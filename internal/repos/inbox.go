package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

type InboxRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, inboxID uuid.UUID) (*types.Inbox, error)
	GetByWebsiteToken(ctx context.Context, tx *gorm.DB, websiteToken string) (*types.Inbox, error)
}

type inboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInboxRepo(db *gorm.DB, baseLog *logger.Logger) InboxRepo {
	repoLog := baseLog.With("repo", "InboxRepo")
	return &inboxRepo{db: db, log: repoLog}
}

func (ir *inboxRepo) GetByID(ctx context.Context, tx *gorm.DB, inboxID uuid.UUID) (*types.Inbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.Inbox
	if err := transaction.WithContext(ctx).
		Preload("Account").
		Where("id = ?", inboxID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ir *inboxRepo) GetByWebsiteToken(ctx context.Context, tx *gorm.DB, websiteToken string) (*types.Inbox, error) {
	transaction := tx
	if transaction == nil {
		transaction = ir.db
	}

	var result types.Inbox
	if err := transaction.WithContext(ctx).
		Preload("Account").
		Where("website_token = ?", websiteToken).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
