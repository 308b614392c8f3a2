package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Account struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string            `gorm:"not null;column:name" json:"name"`
	SupportEmail       string            `gorm:"column:support_email" json:"support_email"`
	InboundEmailDomain string            `gorm:"column:inbound_email_domain" json:"inbound_email_domain"`
	Features           datatypes.JSONMap `gorm:"type:jsonb;column:features" json:"features"`
	CreatedAt          time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "account" }

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// FeatureEnabled reports whether the named capability is switched on for the
// account. Features is a map of name -> truthy flag.
func (a *Account) FeatureEnabled(name string) bool {
	if a == nil || a.Features == nil {
		return false
	}
	v, ok := a.Features[name]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case float64:
		return t != 0
	default:
		return false
	}
}
