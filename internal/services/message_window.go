package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

// recapLimit bounds how far back a summary email reaches. Ten messages of
// context plus everything new keeps recaps readable.
const recapLimit = 10

// MessageWindowSelector picks which messages a notification email carries,
// given the moment the notification was queued.
type MessageWindowSelector interface {
	// RecapWindow: up to recapLimit chat messages before queuedAt plus all
	// chat messages at or after it, chronological, filtered to the ones worth
	// summarizing in email.
	RecapWindow(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) ([]*types.Message, error)
	// NewActivity: outgoing and template messages at or after queuedAt;
	// templates only survive when they ask for a satisfaction response. An
	// empty result means there is nothing to send.
	NewActivity(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) ([]*types.Message, error)
	// TranscriptMessages: every transcript-eligible chat message, no window.
	TranscriptMessages(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error)
}

type messageWindowSelector struct {
	log         *logger.Logger
	messageRepo repos.MessageRepo
}

func NewMessageWindowSelector(log *logger.Logger, messageRepo repos.MessageRepo) MessageWindowSelector {
	serviceLog := log.With("service", "MessageWindowSelector")
	return &messageWindowSelector{log: serviceLog, messageRepo: messageRepo}
}

func (mws *messageWindowSelector) RecapWindow(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) ([]*types.Message, error) {
	recap, err := mws.messageRepo.ChatBefore(ctx, nil, conversationID, queuedAt, recapLimit)
	if err != nil {
		return nil, err
	}
	fresh, err := mws.messageRepo.ChatSince(ctx, nil, conversationID, queuedAt)
	if err != nil {
		return nil, err
	}

	selected := make([]*types.Message, 0, len(recap)+len(fresh))
	for _, m := range append(recap, fresh...) {
		if m.EmailReplySummarizable() {
			selected = append(selected, m)
		}
	}
	return selected, nil
}

func (mws *messageWindowSelector) NewActivity(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) ([]*types.Message, error) {
	msgs, err := mws.messageRepo.TypedSince(ctx, nil, conversationID,
		[]string{types.MessageTypeOutgoing, types.MessageTypeTemplate}, queuedAt)
	if err != nil {
		return nil, err
	}

	selected := make([]*types.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsTemplate() && !m.InputCSAT() {
			continue
		}
		selected = append(selected, m)
	}
	return selected, nil
}

func (mws *messageWindowSelector) TranscriptMessages(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	msgs, err := mws.messageRepo.AllChat(ctx, nil, conversationID)
	if err != nil {
		return nil, err
	}

	selected := make([]*types.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ConversationTranscriptable() {
			selected = append(selected, m)
		}
	}
	return selected, nil
}
