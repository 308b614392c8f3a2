package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	ID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"account_id"`
	Account              *Account          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AccountID;references:ID" json:"account,omitempty"`
	InboxID              uuid.UUID         `gorm:"type:uuid;not null;index" json:"inbox_id"`
	Inbox                *Inbox            `gorm:"constraint:OnDelete:CASCADE;foreignKey:InboxID;references:ID" json:"inbox,omitempty"`
	ContactID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"contact_id"`
	Contact              *Contact          `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContactID;references:ID" json:"contact,omitempty"`
	AssigneeID           *uuid.UUID        `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	Assignee             *Agent            `gorm:"constraint:OnDelete:SET NULL;foreignKey:AssigneeID;references:ID" json:"assignee,omitempty"`
	DisplayID            int64             `gorm:"not null;column:display_id" json:"display_id"`
	UUID                 string            `gorm:"uniqueIndex;not null;column:uuid" json:"uuid"`
	AdditionalAttributes datatypes.JSONMap `gorm:"type:jsonb;column:additional_attributes" json:"additional_attributes"`
	ContactLastSeenAt    *time.Time        `gorm:"column:contact_last_seen_at" json:"contact_last_seen_at"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	return nil
}

// IncomingMailSubject is the subject line of the inbound email this
// conversation started from, if any.
func (c *Conversation) IncomingMailSubject() string {
	if c == nil || c.AdditionalAttributes == nil {
		return ""
	}
	if v, ok := c.AdditionalAttributes["mail_subject"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
