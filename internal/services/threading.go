package services

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

// MailerConfig is the explicit process configuration for outbound
// conversation email; nothing here is read from globals at compose time.
type MailerConfig struct {
	// SenderEmail is the fallback From when an account has no usable address.
	SenderEmail string
	// ReplySubject is the default subject for conversations that did not
	// start from an inbound email.
	ReplySubject string
	// TranscriptSubject is the subject for on-demand transcript exports.
	TranscriptSubject string
}

func (c MailerConfig) withDefaults() MailerConfig {
	if c.ReplySubject == "" {
		c.ReplySubject = "New messages on this conversation"
	}
	if c.TranscriptSubject == "" {
		c.TranscriptSubject = "Conversation transcript"
	}
	return c
}

// ThreadingHeaders is everything a mail client needs to group the outbound
// message into the right thread.
type ThreadingHeaders struct {
	From      string
	ReplyTo   string
	Subject   string
	MessageID string
	InReplyTo string
}

// ThreadingInput is the conversation state the derivation runs over. Optional
// fields may be absent; every derivation degrades to a documented fallback
// instead of failing.
type ThreadingInput struct {
	Conversation *types.Conversation
	Account      *types.Account
	Inbox        *types.Inbox
	Assignee     *types.Agent
	// LastSelectedMessageID anchors the outbound Message-ID to the newest
	// message included in the email body.
	LastSelectedMessageID uuid.UUID
	// IncomingEmailMessageID is the SMTP Message-ID of the conversation's
	// most recent inbound email, when one exists.
	IncomingEmailMessageID string
}

// ThreadingHeaderBuilder deterministically derives the outbound email headers
// for a conversation notification.
type ThreadingHeaderBuilder interface {
	Build(in ThreadingInput) ThreadingHeaders
	TranscriptSubject(conversation *types.Conversation) string
}

type threadingHeaderBuilder struct {
	log *logger.Logger
	cfg MailerConfig
}

func NewThreadingHeaderBuilder(log *logger.Logger, cfg MailerConfig) ThreadingHeaderBuilder {
	serviceLog := log.With("service", "ThreadingHeaderBuilder")
	return &threadingHeaderBuilder{log: serviceLog, cfg: cfg.withDefaults()}
}

func (thb *threadingHeaderBuilder) Build(in ThreadingInput) ThreadingHeaders {
	return ThreadingHeaders{
		From:      thb.fromWithName(in),
		ReplyTo:   thb.replyAddress(in),
		Subject:   thb.subject(in),
		MessageID: thb.messageID(in),
		InReplyTo: thb.inReplyTo(in),
	}
}

func (thb *threadingHeaderBuilder) TranscriptSubject(conversation *types.Conversation) string {
	var displayID int64
	if conversation != nil {
		displayID = conversation.DisplayID
	}
	return fmt.Sprintf("[#%d] %s", displayID, thb.cfg.TranscriptSubject)
}

func assigneeName(assignee *types.Agent) string {
	if name := assignee.DisplayName(); name != "" {
		return name
	}
	return "Notifications"
}

// useConversationReplyAddress: email inboxes always thread through the
// per-conversation reply address; other channels do once the account has
// inbound email processing fully configured.
func useConversationReplyAddress(account *types.Account, inbox *types.Inbox) bool {
	if inbox.IsEmailChannel() {
		return true
	}
	return account != nil &&
		account.FeatureEnabled("inbound_emails") &&
		account.InboundEmailDomain != "" &&
		account.SupportEmail != ""
}

func (thb *threadingHeaderBuilder) replyAddress(in ThreadingInput) string {
	if useConversationReplyAddress(in.Account, in.Inbox) {
		return fmt.Sprintf("%s <reply+%s@%s>",
			assigneeName(in.Assignee), conversationUUID(in.Conversation), inboundDomain(in.Account))
	}
	if in.Inbox != nil && in.Inbox.EmailAddress != "" {
		return in.Inbox.EmailAddress
	}
	if in.Assignee != nil {
		return in.Assignee.Email
	}
	return ""
}

func (thb *threadingHeaderBuilder) fromWithName(in ThreadingInput) string {
	var inboxName string
	if in.Inbox != nil {
		inboxName = in.Inbox.Name
	}

	address := ""
	if useConversationReplyAddress(in.Account, in.Inbox) {
		address = parseEmailAddress(supportEmail(in.Account, thb.cfg))
	} else if in.Inbox != nil && in.Inbox.EmailAddress != "" {
		address = parseEmailAddress(in.Inbox.EmailAddress)
	} else {
		address = parseEmailAddress(supportEmail(in.Account, thb.cfg))
	}

	return fmt.Sprintf("%s from %s <%s>", assigneeName(in.Assignee), inboxName, address)
}

func (thb *threadingHeaderBuilder) subject(in ThreadingInput) string {
	if subject := in.Conversation.IncomingMailSubject(); subject != "" {
		return "Re: " + subject
	}
	var displayID int64
	if in.Conversation != nil {
		displayID = in.Conversation.DisplayID
	}
	return fmt.Sprintf("[#%d] %s", displayID, thb.cfg.ReplySubject)
}

func (thb *threadingHeaderBuilder) messageID(in ThreadingInput) string {
	return fmt.Sprintf("<conversation/%s/messages/%s@%s>",
		conversationUUID(in.Conversation), in.LastSelectedMessageID, inboundDomain(in.Account))
}

func (thb *threadingHeaderBuilder) inReplyTo(in ThreadingInput) string {
	if id := strings.TrimSpace(in.IncomingEmailMessageID); id != "" {
		return fmt.Sprintf("<%s>", id)
	}
	var accountID uuid.UUID
	if in.Account != nil {
		accountID = in.Account.ID
	}
	return fmt.Sprintf("<account/%s/conversation/%s@%s>",
		accountID, conversationUUID(in.Conversation), inboundDomain(in.Account))
}

func conversationUUID(c *types.Conversation) string {
	if c == nil {
		return ""
	}
	return c.UUID
}

func inboundDomain(a *types.Account) string {
	if a == nil {
		return ""
	}
	return a.InboundEmailDomain
}

func supportEmail(a *types.Account, cfg MailerConfig) string {
	if a != nil && a.SupportEmail != "" {
		return a.SupportEmail
	}
	return cfg.SenderEmail
}

// parseEmailAddress strips a display name from "Name <addr>" forms; bare
// addresses pass through unchanged.
func parseEmailAddress(emailString string) string {
	if emailString == "" {
		return ""
	}
	addr, err := mail.ParseAddress(emailString)
	if err != nil {
		return strings.TrimSpace(emailString)
	}
	return addr.Address
}
