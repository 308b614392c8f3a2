package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/platform/sendgrid"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

// Skip reasons reported when composing decides no email is due.
const (
	SkipMailNotConfigured = "mail_not_configured"
	SkipAlreadyViewed     = "already_viewed"
	SkipNoMessages        = "no_messages"
	SkipNoRecipient       = "no_recipient"
)

// ComposeResult is the explicit outcome of one compose attempt: either the
// notification went to the transport, or Skipped names why it did not.
type ComposeResult struct {
	Sent      bool   `json:"sent"`
	Skipped   string `json:"skipped,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// ConversationReplyService composes conversation notification emails. Each
// entry point either hands a fully specified request to the mail transport or
// returns a no-notification result; it never sends a partial request.
type ConversationReplyService interface {
	ReplyWithSummary(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) (*ComposeResult, error)
	ReplyWithoutSummary(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) (*ComposeResult, error)
	Transcript(ctx context.Context, conversationID uuid.UUID, toEmail string) (*ComposeResult, error)
}

type conversationReplyService struct {
	log              *logger.Logger
	conversationRepo repos.ConversationRepo
	messageRepo      repos.MessageRepo
	selector         MessageWindowSelector
	gate             NotificationGate
	headerBuilder    ThreadingHeaderBuilder
	mailer           sendgrid.Client
}

func NewConversationReplyService(
	log *logger.Logger,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.MessageRepo,
	selector MessageWindowSelector,
	gate NotificationGate,
	headerBuilder ThreadingHeaderBuilder,
	mailer sendgrid.Client,
) ConversationReplyService {
	serviceLog := log.With("service", "ConversationReplyService")
	return &conversationReplyService{
		log:              serviceLog,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		selector:         selector,
		gate:             gate,
		headerBuilder:    headerBuilder,
		mailer:           mailer,
	}
}

func (crs *conversationReplyService) ReplyWithSummary(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) (*ComposeResult, error) {
	return crs.reply(ctx, conversationID, queuedAt, crs.selector.RecapWindow)
}

func (crs *conversationReplyService) ReplyWithoutSummary(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) (*ComposeResult, error) {
	return crs.reply(ctx, conversationID, queuedAt, crs.selector.NewActivity)
}

type windowFunc func(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) ([]*types.Message, error)

func (crs *conversationReplyService) reply(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time, window windowFunc) (*ComposeResult, error) {
	if !crs.gate.TransportReady() {
		crs.log.Debug("Outbound mail not configured, skipping notification", "conversation_id", conversationID)
		return &ComposeResult{Skipped: SkipMailNotConfigured}, nil
	}

	conversation, err := crs.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	viewed, err := crs.gate.ConversationAlreadyViewed(ctx, conversation)
	if err != nil {
		return nil, err
	}
	if viewed {
		return &ComposeResult{Skipped: SkipAlreadyViewed}, nil
	}

	messages, err := window(ctx, conversationID, queuedAt)
	if err != nil {
		return nil, err
	}
	if crs.gate.NothingToSend(messages) {
		return &ComposeResult{Skipped: SkipNoMessages}, nil
	}

	recipient := contactEmail(conversation.Contact)
	if recipient == "" {
		return &ComposeResult{Skipped: SkipNoRecipient}, nil
	}

	lastIncoming, err := crs.messageRepo.LastIncoming(ctx, nil, conversationID)
	if err != nil {
		return nil, err
	}

	headers := crs.headerBuilder.Build(ThreadingInput{
		Conversation:           conversation,
		Account:                conversation.Account,
		Inbox:                  conversation.Inbox,
		Assignee:               conversation.Assignee,
		LastSelectedMessageID:  messages[len(messages)-1].ID,
		IncomingEmailMessageID: lastIncoming.IncomingEmailMessageID(),
	})

	req := sendgrid.SendEmailRequest{
		From:    splitAddress(headers.From),
		To:      []sendgrid.EmailAddress{{Email: recipient, Name: conversation.Contact.Name}},
		Subject: headers.Subject,
		Text:    renderPlainText(messages),
		Headers: map[string]string{
			"Message-ID":  headers.MessageID,
			"In-Reply-To": headers.InReplyTo,
			"References":  headers.InReplyTo,
		},
	}
	if headers.ReplyTo != "" {
		replyTo := splitAddress(headers.ReplyTo)
		req.ReplyTo = &replyTo
	}

	result, err := crs.mailer.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("conversation reply send: %w", err)
	}
	crs.log.Info("Conversation notification sent",
		"conversation_id", conversationID,
		"message_count", len(messages),
		"status", result.StatusCode,
	)
	return &ComposeResult{Sent: true, MessageID: headers.MessageID}, nil
}

// Transcript exports every eligible message to an arbitrary recipient. It
// runs unconditionally: no time window and no viewed gate, by design.
func (crs *conversationReplyService) Transcript(ctx context.Context, conversationID uuid.UUID, toEmail string) (*ComposeResult, error) {
	if !crs.gate.TransportReady() {
		crs.log.Debug("Outbound mail not configured, skipping transcript", "conversation_id", conversationID)
		return &ComposeResult{Skipped: SkipMailNotConfigured}, nil
	}

	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return &ComposeResult{Skipped: SkipNoRecipient}, nil
	}

	conversation, err := crs.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := crs.selector.TranscriptMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if crs.gate.NothingToSend(messages) {
		return &ComposeResult{Skipped: SkipNoMessages}, nil
	}

	headers := crs.headerBuilder.Build(ThreadingInput{
		Conversation: conversation,
		Account:      conversation.Account,
		Inbox:        conversation.Inbox,
		Assignee:     conversation.Assignee,
	})

	req := sendgrid.SendEmailRequest{
		From:    splitAddress(headers.From),
		To:      []sendgrid.EmailAddress{{Email: toEmail}},
		Subject: crs.headerBuilder.TranscriptSubject(conversation),
		Text:    renderPlainText(messages),
	}

	result, err := crs.mailer.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("conversation transcript send: %w", err)
	}
	crs.log.Info("Conversation transcript sent",
		"conversation_id", conversationID,
		"message_count", len(messages),
		"status", result.StatusCode,
	)
	return &ComposeResult{Sent: true}, nil
}

func (crs *conversationReplyService) loadConversation(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error) {
	conversation, err := crs.conversationRepo.GetByID(ctx, nil, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conversation, nil
}

func contactEmail(contact *types.Contact) string {
	if contact == nil || contact.Email == nil {
		return ""
	}
	return strings.TrimSpace(*contact.Email)
}

// splitAddress turns "Jane from Support <support@acme.dev>" into name and
// address parts for the transport. Unparseable strings fall back to being
// treated as a bare address.
func splitAddress(full string) sendgrid.EmailAddress {
	addr, err := mail.ParseAddress(full)
	if err != nil {
		return sendgrid.EmailAddress{Email: strings.TrimSpace(full)}
	}
	return sendgrid.EmailAddress{Email: addr.Address, Name: addr.Name}
}

func renderPlainText(messages []*types.Message) string {
	var b strings.Builder
	for _, m := range messages {
		label := "Agent"
		if m.IsIncoming() {
			label = "Customer"
		}
		content := strings.TrimSpace(m.Content)
		if content == "" {
			content = "[attachment]"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.CreatedAt.Format("Jan 2 15:04"), label, content)
	}
	return b.String()
}
