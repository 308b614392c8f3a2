package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Contact is a person known to an Account. Email, identifier and phone number
// are each unique per account when set; they stay NULL (never "") so the
// partial uniqueness holds at the database level.
type Contact struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID            uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:uniq_email_per_account;uniqueIndex:uniq_identifier_per_account;uniqueIndex:uniq_phone_per_account" json:"account_id"`
	Account              *Account          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AccountID;references:ID" json:"account,omitempty"`
	Name                 string            `gorm:"column:name" json:"name"`
	Email                *string           `gorm:"uniqueIndex:uniq_email_per_account;column:email" json:"email"`
	Identifier           *string           `gorm:"uniqueIndex:uniq_identifier_per_account;column:identifier" json:"identifier"`
	PhoneNumber          *string           `gorm:"uniqueIndex:uniq_phone_per_account;column:phone_number" json:"phone_number"`
	AvatarURL            string            `gorm:"column:avatar_url" json:"avatar_url"`
	PubsubToken          string            `gorm:"uniqueIndex;column:pubsub_token" json:"pubsub_token"`
	CustomAttributes     datatypes.JSONMap `gorm:"type:jsonb;column:custom_attributes" json:"custom_attributes"`
	AdditionalAttributes datatypes.JSONMap `gorm:"type:jsonb;column:additional_attributes" json:"additional_attributes"`
	LastActivityAt       *time.Time        `gorm:"column:last_activity_at" json:"last_activity_at"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`
}

func (Contact) TableName() string { return "contact" }

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.PubsubToken == "" {
		c.PubsubToken = uuid.NewString()
	}
	return nil
}

// PushEventData is the boundary-safe view of a contact handed to event
// subscribers and widget clients. No secrets, no trust flags.
func (c *Contact) PushEventData() map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"id":                    c.ID,
		"type":                  "contact",
		"name":                  c.Name,
		"email":                 strOrNil(c.Email),
		"identifier":            strOrNil(c.Identifier),
		"phone_number":          strOrNil(c.PhoneNumber),
		"pubsub_token":          c.PubsubToken,
		"thumbnail":             c.AvatarURL,
		"custom_attributes":     c.CustomAttributes,
		"additional_attributes": c.AdditionalAttributes,
	}
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
