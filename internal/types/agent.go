package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Agent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID     uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	Account       *Account  `gorm:"constraint:OnDelete:CASCADE;foreignKey:AccountID;references:ID" json:"account,omitempty"`
	Name          string    `gorm:"not null;column:name" json:"name"`
	AvailableName string    `gorm:"column:available_name" json:"available_name"`
	Email         string    `gorm:"column:email" json:"email"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (Agent) TableName() string { return "agent" }

func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DisplayName is what outbound email identifies the agent as.
func (a *Agent) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.AvailableName != "" {
		return a.AvailableName
	}
	return a.Name
}
