package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/requestdata"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

// WidgetContactService is the widget-facing identity flow: verify the HMAC
// claim against the inbox secret, then reconcile the claimed attributes into
// the session's contact. Verification must succeed (and the trust flag be
// persisted) before any attribute overwrite happens.
type WidgetContactService interface {
	Show(session *requestdata.WidgetSession) map[string]any
	Identify(ctx context.Context, session *requestdata.WidgetSession, identifierHash string, params IdentifyParams) (*types.Contact, error)
}

type widgetContactService struct {
	db               *gorm.DB
	log              *logger.Logger
	verifier         IdentityVerifier
	identify         ContactIdentifyService
	contactInboxRepo repos.ContactInboxRepo
}

func NewWidgetContactService(db *gorm.DB, log *logger.Logger, verifier IdentityVerifier, identify ContactIdentifyService, contactInboxRepo repos.ContactInboxRepo) WidgetContactService {
	serviceLog := log.With("service", "WidgetContactService")
	return &widgetContactService{
		db:               db,
		log:              serviceLog,
		verifier:         verifier,
		identify:         identify,
		contactInboxRepo: contactInboxRepo,
	}
}

func (wcs *widgetContactService) Show(session *requestdata.WidgetSession) map[string]any {
	if session == nil || session.Contact == nil {
		return nil
	}
	return session.Contact.PushEventData()
}

func (wcs *widgetContactService) Identify(ctx context.Context, session *requestdata.WidgetSession, identifierHash string, params IdentifyParams) (*types.Contact, error) {
	if session == nil || session.Contact == nil || session.ContactInbox == nil {
		return nil, ErrNotFound
	}

	identifier := ""
	if params.Identifier != nil {
		identifier = *params.Identifier
	}

	verified, err := wcs.verifier.Verify(session.Inbox.HMACToken, identifier, identifierHash)
	if err != nil {
		// Tampered or stale signature: reject before anything mutates.
		return nil, err
	}
	if verified {
		if err := wcs.contactInboxRepo.MarkVerified(ctx, nil, session.ContactInbox.ID); err != nil {
			return nil, err
		}
		session.ContactInbox.HMACVerified = true
	}

	return wcs.identify.Identify(ctx, session.Contact, params)
}
