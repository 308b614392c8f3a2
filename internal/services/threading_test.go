package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/relaydesk/relaydesk-backend/internal/types"
)

func threadingFixture() ThreadingInput {
	accountID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	msgID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	return ThreadingInput{
		Account: &types.Account{
			ID:                 accountID,
			SupportEmail:       "support@acme.dev",
			InboundEmailDomain: "mail.example.com",
			Features:           datatypes.JSONMap{"inbound_emails": true},
		},
		Inbox: &types.Inbox{
			Name:        "Acme Support",
			ChannelType: types.ChannelTypeEmail,
		},
		Assignee: &types.Agent{
			Name:          "Jane Doe",
			AvailableName: "Jane",
			Email:         "jane@acme.dev",
		},
		Conversation: &types.Conversation{
			UUID:      "abc",
			DisplayID: 57,
		},
		LastSelectedMessageID: msgID,
	}
}

func TestThreadingHeadersFullConfiguration(t *testing.T) {
	builder := NewThreadingHeaderBuilder(newTestLogger(t), MailerConfig{})
	in := threadingFixture()

	headers := builder.Build(in)

	assert.Equal(t, "Jane <reply+abc@mail.example.com>", headers.ReplyTo)
	assert.Equal(t, "Jane from Acme Support <support@acme.dev>", headers.From)
	assert.Equal(t, fmt.Sprintf("<conversation/abc/messages/%s@mail.example.com>", in.LastSelectedMessageID), headers.MessageID)
	assert.Equal(t, "<account/11111111-1111-1111-1111-111111111111/conversation/abc@mail.example.com>", headers.InReplyTo)
	assert.Equal(t, "[#57] New messages on this conversation", headers.Subject)
}

func TestThreadingInReplyToPrefersIncomingMessageID(t *testing.T) {
	builder := NewThreadingHeaderBuilder(newTestLogger(t), MailerConfig{})
	in := threadingFixture()
	in.IncomingEmailMessageID = "original-thread@customer.example"

	headers := builder.Build(in)

	assert.Equal(t, "<original-thread@customer.example>", headers.InReplyTo)
}

func TestThreadingSubjectFromIncomingMail(t *testing.T) {
	builder := NewThreadingHeaderBuilder(newTestLogger(t), MailerConfig{})
	in := threadingFixture()
	in.Conversation.AdditionalAttributes = datatypes.JSONMap{"mail_subject": "Billing question"}

	headers := builder.Build(in)

	assert.Equal(t, "Re: Billing question", headers.Subject)
}

func TestThreadingFallbacksWithoutInboundEmail(t *testing.T) {
	builder := NewThreadingHeaderBuilder(newTestLogger(t), MailerConfig{})
	in := threadingFixture()
	in.Inbox.ChannelType = types.ChannelTypeWidget
	in.Inbox.EmailAddress = "widget-inbox@acme.dev"
	in.Account.Features = nil

	headers := builder.Build(in)

	// Without the inbound email feature, replies go straight to the inbox.
	assert.Equal(t, "widget-inbox@acme.dev", headers.ReplyTo)
	assert.Equal(t, "Jane from Acme Support <widget-inbox@acme.dev>", headers.From)
}

func TestThreadingDegradesWithMissingOptionals(t *testing.T) {
	builder := NewThreadingHeaderBuilder(newTestLogger(t), MailerConfig{SenderEmail: "Relaydesk <noreply@relaydesk.dev>"})
	in := threadingFixture()
	in.Assignee = nil
	in.Inbox.ChannelType = types.ChannelTypeWidget
	in.Inbox.EmailAddress = ""
	in.Account.Features = nil
	in.Account.SupportEmail = ""

	headers := builder.Build(in)

	assert.Equal(t, "", headers.ReplyTo)
	assert.Equal(t, "Notifications from Acme Support <noreply@relaydesk.dev>", headers.From)
	assert.NotEmpty(t, headers.MessageID)
	assert.NotEmpty(t, headers.InReplyTo)
}

func TestThreadingFromParsesDisplayNameAddresses(t *testing.T) {
	builder := NewThreadingHeaderBuilder(newTestLogger(t), MailerConfig{})
	in := threadingFixture()
	in.Account.SupportEmail = "Acme Care <care@acme.dev>"

	headers := builder.Build(in)

	assert.Equal(t, "Jane from Acme Support <care@acme.dev>", headers.From)
}

func TestTranscriptSubject(t *testing.T) {
	builder := NewThreadingHeaderBuilder(newTestLogger(t), MailerConfig{})
	subject := builder.TranscriptSubject(&types.Conversation{DisplayID: 57})
	assert.Equal(t, "[#57] Conversation transcript", subject)
}
