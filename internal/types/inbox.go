package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChannelTypeEmail  = "email"
	ChannelTypeWidget = "widget"
	ChannelTypeAPI    = "api"
)

// Inbox is a channel configuration owned by an Account. It is administered
// outside this service and read-only here.
type Inbox struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID    uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	Account      *Account  `gorm:"constraint:OnDelete:CASCADE;foreignKey:AccountID;references:ID" json:"account,omitempty"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	ChannelType  string    `gorm:"not null;column:channel_type" json:"channel_type"`
	EmailAddress string    `gorm:"column:email_address" json:"email_address"`
	WebsiteToken string    `gorm:"uniqueIndex;column:website_token" json:"website_token"`
	HMACToken    string    `gorm:"column:hmac_token" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Inbox) TableName() string { return "inbox" }

func (i *Inbox) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Inbox) IsEmailChannel() bool {
	return i != nil && i.ChannelType == ChannelTypeEmail
}
