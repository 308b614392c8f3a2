package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/types"
)

type conversationFixture struct {
	account      *types.Account
	inbox        *types.Inbox
	contact      *types.Contact
	conversation *types.Conversation
}

// seedConversation persists a widget conversation with a mailable contact.
// Mods run before anything is saved, so tests can reshape the fixture.
func seedConversation(t *testing.T, db *gorm.DB, mods ...func(*conversationFixture)) *conversationFixture {
	t.Helper()

	f := &conversationFixture{
		account: &types.Account{
			Name:               "Acme",
			SupportEmail:       "support@acme.dev",
			InboundEmailDomain: "mail.acme.dev",
		},
		inbox: &types.Inbox{
			Name:         "Support",
			ChannelType:  types.ChannelTypeWidget,
			WebsiteToken: uuid.NewString(),
		},
		contact: &types.Contact{
			Name:  "Dana",
			Email: strPtr("dana@example.com"),
		},
		conversation: &types.Conversation{DisplayID: 42},
	}
	for _, mod := range mods {
		mod(f)
	}

	if err := db.Create(f.account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	f.inbox.AccountID = f.account.ID
	if err := db.Create(f.inbox).Error; err != nil {
		t.Fatalf("seed inbox: %v", err)
	}
	f.contact.AccountID = f.account.ID
	if err := db.Create(f.contact).Error; err != nil {
		t.Fatalf("seed contact: %v", err)
	}
	f.conversation.AccountID = f.account.ID
	f.conversation.InboxID = f.inbox.ID
	f.conversation.ContactID = f.contact.ID
	if err := db.Create(f.conversation).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	return f
}

func seedAssignee(t *testing.T, db *gorm.DB, f *conversationFixture, name, email string) *types.Agent {
	t.Helper()
	agent := &types.Agent{AccountID: f.account.ID, Name: name, Email: email}
	if err := db.Create(agent).Error; err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	if err := db.Model(f.conversation).Update("assignee_id", agent.ID).Error; err != nil {
		t.Fatalf("assign agent: %v", err)
	}
	f.conversation.AssigneeID = &agent.ID
	return agent
}

var messageIDSeq atomic.Int64

// sequentialUUID yields ids whose lexical order matches allocation order, so
// equal-timestamp queries that tie-break on id stay deterministic in tests.
func sequentialUUID() uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-4000-8000-%012d", messageIDSeq.Add(1)))
}

func seedMessage(t *testing.T, db *gorm.DB, conversation *types.Conversation, messageType string, createdAt time.Time, mods ...func(*types.Message)) *types.Message {
	t.Helper()
	m := &types.Message{
		ID:             sequentialUUID(),
		ConversationID: conversation.ID,
		AccountID:      conversation.AccountID,
		MessageType:    messageType,
		ContentType:    types.ContentTypeText,
		Content:        "hello",
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	for _, mod := range mods {
		mod(m)
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}
