package services

import (
	"context"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

// NotificationGate decides whether a conversation email is due at all. Pure
// decision logic, no retries, evaluated once per compose attempt.
type NotificationGate interface {
	// TransportReady reports whether outbound mail is configured. Running
	// without it is a valid deployment state; composing becomes a no-op.
	TransportReady() bool
	// ConversationAlreadyViewed is true when the contact saw the latest agent
	// activity live in the widget, making an email redundant.
	ConversationAlreadyViewed(ctx context.Context, conversation *types.Conversation) (bool, error)
	// NothingToSend is the post-selection check: an empty window means no
	// notification.
	NothingToSend(messages []*types.Message) bool
}

type notificationGate struct {
	log             *logger.Logger
	messageRepo     repos.MessageRepo
	mailConfigured  bool
}

func NewNotificationGate(log *logger.Logger, messageRepo repos.MessageRepo, mailConfigured bool) NotificationGate {
	serviceLog := log.With("service", "NotificationGate")
	return &notificationGate{log: serviceLog, messageRepo: messageRepo, mailConfigured: mailConfigured}
}

func (ng *notificationGate) TransportReady() bool {
	return ng.mailConfigured
}

func (ng *notificationGate) ConversationAlreadyViewed(ctx context.Context, conversation *types.Conversation) (bool, error) {
	if conversation == nil || conversation.ContactLastSeenAt == nil {
		return false, nil
	}

	last, err := ng.messageRepo.LastNonIncoming(ctx, nil, conversation.ID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}

	return conversation.ContactLastSeenAt.After(last.CreatedAt), nil
}

func (ng *notificationGate) NothingToSend(messages []*types.Message) bool {
	return len(messages) == 0
}
