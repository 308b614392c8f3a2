package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactInbox binds a Contact to an Inbox under a channel-specific source id.
// HMACVerified gates whether the widget session's identity claims are trusted
// to overwrite the contact.
type ContactInbox struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContactID    uuid.UUID `gorm:"type:uuid;not null;index" json:"contact_id"`
	Contact      *Contact  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContactID;references:ID" json:"contact,omitempty"`
	InboxID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_source_per_inbox" json:"inbox_id"`
	Inbox        *Inbox    `gorm:"constraint:OnDelete:CASCADE;foreignKey:InboxID;references:ID" json:"inbox,omitempty"`
	SourceID     string    `gorm:"not null;uniqueIndex:uniq_source_per_inbox;column:source_id" json:"source_id"`
	HMACVerified bool      `gorm:"not null;default:false;column:hmac_verified" json:"hmac_verified"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (ContactInbox) TableName() string { return "contact_inbox" }

func (ci *ContactInbox) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}
