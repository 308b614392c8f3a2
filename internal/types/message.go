package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MessageTypeIncoming = "incoming"
	MessageTypeOutgoing = "outgoing"
	MessageTypeTemplate = "template"
	MessageTypeActivity = "activity"
)

const (
	ContentTypeText      = "text"
	ContentTypeInputCSAT = "input_csat"
)

type Message struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation      *Conversation     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"conversation,omitempty"`
	AccountID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"account_id"`
	MessageType       string            `gorm:"not null;index;column:message_type" json:"message_type"`
	Content           string            `gorm:"column:content" json:"content"`
	ContentType       string            `gorm:"not null;default:text;column:content_type" json:"content_type"`
	ContentAttributes datatypes.JSONMap `gorm:"type:jsonb;column:content_attributes" json:"content_attributes"`
	Private           bool              `gorm:"not null;default:false;column:private" json:"private"`
	CreatedAt         time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null" json:"updated_at"`
}

func (Message) TableName() string { return "message" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ChatMessageTypes are the types visible in the conversation itself; activity
// entries (assignment changes, labels) are bookkeeping, not chat.
var ChatMessageTypes = []string{MessageTypeIncoming, MessageTypeOutgoing, MessageTypeTemplate}

func (m *Message) IsChat() bool {
	if m == nil {
		return false
	}
	switch m.MessageType {
	case MessageTypeIncoming, MessageTypeOutgoing, MessageTypeTemplate:
		return true
	default:
		return false
	}
}

func (m *Message) IsIncoming() bool { return m != nil && m.MessageType == MessageTypeIncoming }
func (m *Message) IsTemplate() bool { return m != nil && m.MessageType == MessageTypeTemplate }

// InputCSAT reports whether this is the satisfaction-survey template, the one
// template kind that still warrants an email on its own.
func (m *Message) InputCSAT() bool {
	return m.IsTemplate() && m != nil && m.ContentType == ContentTypeInputCSAT
}

// EmailReplySummarizable: chat messages with visible substance. Private notes
// and empty system-ish entries are excluded from email recaps.
func (m *Message) EmailReplySummarizable() bool {
	if !m.IsChat() || m.Private {
		return false
	}
	if strings.TrimSpace(m.Content) != "" {
		return true
	}
	return m.hasAttachments()
}

// ConversationTranscriptable: everything a customer could legitimately see in
// a full export.
func (m *Message) ConversationTranscriptable() bool {
	return m.IsChat() && !m.Private
}

func (m *Message) hasAttachments() bool {
	if m == nil || m.ContentAttributes == nil {
		return false
	}
	switch v := m.ContentAttributes["attachments"].(type) {
	case []any:
		return len(v) > 0
	case bool:
		return v
	default:
		return false
	}
}

// IncomingEmailMessageID digs the original SMTP Message-ID out of an inbound
// email message's content attributes.
func (m *Message) IncomingEmailMessageID() string {
	if m == nil || m.ContentAttributes == nil {
		return ""
	}
	email, ok := m.ContentAttributes["email"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := email["message_id"].(string)
	return strings.TrimSpace(id)
}
