package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/events"
	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

// IdentifyParams is an optional-field patch: nil means "leave untouched".
// This is what keeps reconciliation from clobbering fields the widget did not
// send.
type IdentifyParams struct {
	Identifier       *string
	Email            *string
	Name             *string
	AvatarURL        *string
	PhoneNumber      *string
	CustomAttributes datatypes.JSONMap
}

// ContactIdentifyService merges verified or claimed identity attributes into
// an existing contact without creating duplicates. Uniqueness of email,
// identifier and phone number per account is enforced both by pre-flight
// lookups inside the transaction and by the database indexes, which act as
// the concurrency guard for simultaneous identify calls.
type ContactIdentifyService interface {
	Identify(ctx context.Context, contact *types.Contact, params IdentifyParams) (*types.Contact, error)
}

type contactIdentifyService struct {
	db          *gorm.DB
	log         *logger.Logger
	contactRepo repos.ContactRepo
	dispatcher  events.Dispatcher
}

func NewContactIdentifyService(db *gorm.DB, log *logger.Logger, contactRepo repos.ContactRepo, dispatcher events.Dispatcher) ContactIdentifyService {
	serviceLog := log.With("service", "ContactIdentifyService")
	return &contactIdentifyService{
		db:          db,
		log:         serviceLog,
		contactRepo: contactRepo,
		dispatcher:  dispatcher,
	}
}

var phoneE164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

func (cis *contactIdentifyService) Identify(ctx context.Context, contact *types.Contact, params IdentifyParams) (*types.Contact, error) {
	if contact == nil {
		return nil, ErrNotFound
	}

	normalized, err := normalizeIdentifyParams(params)
	if err != nil {
		return nil, err
	}

	var out *types.Contact
	if err := cis.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := cis.checkUniqueness(ctx, tx, contact, normalized); err != nil {
			return err
		}

		applyIdentifyParams(contact, normalized)

		saved, err := cis.contactRepo.Save(ctx, tx, contact)
		if err != nil {
			return translateUniquenessError(err)
		}
		out = saved
		return nil
	}); err != nil {
		return nil, err
	}

	cis.dispatcher.Dispatch(ctx, events.ContactUpdated, time.Now(), map[string]any{
		"contact": out.PushEventData(),
	})
	cis.log.Debug("Contact identified", "contact_id", out.ID)
	return out, nil
}

func normalizeIdentifyParams(params IdentifyParams) (IdentifyParams, error) {
	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		// "" must become unset: storing an empty string would collide on the
		// per-account unique index the first time two contacts sent one.
		if email == "" {
			params.Email = nil
		} else {
			params.Email = &email
		}
	}
	if params.Identifier != nil {
		identifier := strings.TrimSpace(*params.Identifier)
		if identifier == "" {
			params.Identifier = nil
		} else {
			params.Identifier = &identifier
		}
	}
	if params.PhoneNumber != nil {
		phone := strings.TrimSpace(*params.PhoneNumber)
		if phone == "" {
			params.PhoneNumber = nil
		} else if !phoneE164.MatchString(phone) {
			return params, fmt.Errorf("phone_number should be in e164 format")
		} else {
			params.PhoneNumber = &phone
		}
	}
	return params, nil
}

// checkUniqueness fails with ConflictError when another contact in the same
// account already holds a candidate value. The matched contact keeping its
// own value is fine; it must never be reassigned.
func (cis *contactIdentifyService) checkUniqueness(ctx context.Context, tx *gorm.DB, contact *types.Contact, params IdentifyParams) error {
	checks := []struct {
		field string
		value *string
	}{
		{"email", params.Email},
		{"identifier", params.Identifier},
		{"phone_number", params.PhoneNumber},
	}

	for _, c := range checks {
		if c.value == nil {
			continue
		}
		var existing *types.Contact
		var err error
		switch c.field {
		case "email":
			existing, err = cis.contactRepo.FindByAccountAndEmail(ctx, tx, contact.AccountID, *c.value)
		case "identifier":
			existing, err = cis.contactRepo.FindByAccountAndIdentifier(ctx, tx, contact.AccountID, *c.value)
		case "phone_number":
			existing, err = cis.contactRepo.FindByAccountAndPhone(ctx, tx, contact.AccountID, *c.value)
		}
		if err != nil {
			return fmt.Errorf("uniqueness lookup for %s: %w", c.field, err)
		}
		if existing != nil && existing.ID != contact.ID {
			return &ConflictError{Field: c.field}
		}
	}
	return nil
}

func applyIdentifyParams(contact *types.Contact, params IdentifyParams) {
	if params.Email != nil {
		contact.Email = params.Email
	}
	if params.Identifier != nil {
		contact.Identifier = params.Identifier
	}
	if params.PhoneNumber != nil {
		contact.PhoneNumber = params.PhoneNumber
	}
	if params.Name != nil {
		contact.Name = *params.Name
	}
	if params.AvatarURL != nil {
		contact.AvatarURL = *params.AvatarURL
	}
	if params.CustomAttributes != nil {
		if contact.CustomAttributes == nil {
			contact.CustomAttributes = datatypes.JSONMap{}
		}
		for k, v := range params.CustomAttributes {
			contact.CustomAttributes[k] = v
		}
	}
}

// translateUniquenessError maps a database duplicate-key failure (the losing
// side of a concurrent identify) onto the same ConflictError the pre-flight
// path produces.
func translateUniquenessError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "uniq_email_per_account"):
		return &ConflictError{Field: "email"}
	case strings.Contains(msg, "uniq_identifier_per_account"):
		return &ConflictError{Field: "identifier"}
	case strings.Contains(msg, "uniq_phone_per_account"):
		return &ConflictError{Field: "phone_number"}
	}
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed") {
		return &ConflictError{Field: "attribute"}
	}
	return err
}
