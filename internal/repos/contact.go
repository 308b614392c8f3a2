package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

type ContactRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) (*types.Contact, error)
	FindByAccountAndEmail(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, email string) (*types.Contact, error)
	FindByAccountAndIdentifier(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, identifier string) (*types.Contact, error)
	FindByAccountAndPhone(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, phone string) (*types.Contact, error)
	Save(ctx context.Context, tx *gorm.DB, contact *types.Contact) (*types.Contact, error)
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	repoLog := baseLog.With("repo", "ContactRepo")
	return &contactRepo{db: db, log: repoLog}
}

func (cr *contactRepo) GetByID(ctx context.Context, tx *gorm.DB, contactID uuid.UUID) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Contact
	if err := transaction.WithContext(ctx).
		Where("id = ?", contactID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *contactRepo) FindByAccountAndEmail(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, email string) (*types.Contact, error) {
	return cr.findByField(ctx, tx, accountID, "email", email)
}

func (cr *contactRepo) FindByAccountAndIdentifier(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, identifier string) (*types.Contact, error) {
	return cr.findByField(ctx, tx, accountID, "identifier", identifier)
}

func (cr *contactRepo) FindByAccountAndPhone(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, phone string) (*types.Contact, error) {
	return cr.findByField(ctx, tx, accountID, "phone_number", phone)
}

// findByField returns (nil, nil) when no contact holds the value; callers
// distinguish "free to claim" from lookup failure.
func (cr *contactRepo) findByField(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, column, value string) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if value == "" {
		return nil, nil
	}

	var results []*types.Contact
	if err := transaction.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where(column+" = ?", value).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *contactRepo) Save(ctx context.Context, tx *gorm.DB, contact *types.Contact) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Save(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}
