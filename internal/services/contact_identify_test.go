package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/events"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, name string, timestamp time.Time, payload map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events.Event{Name: name, Timestamp: timestamp, Payload: payload})
}

func (f *fakeDispatcher) Close() error { return nil }

func newIdentifyFixture(t *testing.T) (ContactIdentifyService, *gorm.DB, *conversationFixture, *fakeDispatcher) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)
	dispatcher := &fakeDispatcher{}
	svc := NewContactIdentifyService(db, log, repos.NewContactRepo(db, log), dispatcher)
	return svc, db, seedConversation(t, db), dispatcher
}

func TestIdentifyMergesPartialPatch(t *testing.T) {
	svc, db, f, _ := newIdentifyFixture(t)
	require.NoError(t, db.Model(f.contact).Update("custom_attributes", datatypes.JSONMap{"plan": "free", "seats": float64(3)}).Error)
	f.contact.CustomAttributes = datatypes.JSONMap{"plan": "free", "seats": float64(3)}

	out, err := svc.Identify(context.Background(), f.contact, IdentifyParams{
		Name:             strPtr("Dana R."),
		CustomAttributes: datatypes.JSONMap{"plan": "pro"},
	})
	require.NoError(t, err)

	// Fields the caller did not send stay exactly as they were.
	assert.Equal(t, "Dana R.", out.Name)
	require.NotNil(t, out.Email)
	assert.Equal(t, "dana@example.com", *out.Email)
	assert.Equal(t, "pro", out.CustomAttributes["plan"])
	assert.Equal(t, float64(3), out.CustomAttributes["seats"])
}

func TestIdentifyNormalizesEmail(t *testing.T) {
	svc, _, f, _ := newIdentifyFixture(t)

	out, err := svc.Identify(context.Background(), f.contact, IdentifyParams{
		Email: strPtr("  Dana.NEW@Example.COM "),
	})
	require.NoError(t, err)
	require.NotNil(t, out.Email)
	assert.Equal(t, "dana.new@example.com", *out.Email)
}

func TestIdentifyBlankEmailLeavesExisting(t *testing.T) {
	svc, _, f, _ := newIdentifyFixture(t)

	out, err := svc.Identify(context.Background(), f.contact, IdentifyParams{
		Email: strPtr("   "),
		Name:  strPtr("Renamed"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", out.Name)
	require.NotNil(t, out.Email)
	assert.Equal(t, "dana@example.com", *out.Email)
}

func TestIdentifyRejectsBadPhone(t *testing.T) {
	svc, db, f, dispatcher := newIdentifyFixture(t)

	for _, phone := range []string{"12345", "+0123456", "555-1234", "+1 415 555 0100"} {
		_, err := svc.Identify(context.Background(), f.contact, IdentifyParams{PhoneNumber: strPtr(phone)})
		require.Error(t, err, "phone %q", phone)
		assert.Contains(t, err.Error(), "e164")
	}

	var stored types.Contact
	require.NoError(t, db.First(&stored, "id = ?", f.contact.ID).Error)
	assert.Nil(t, stored.PhoneNumber)
	assert.Empty(t, dispatcher.events)
}

func TestIdentifyAcceptsE164Phone(t *testing.T) {
	svc, _, f, _ := newIdentifyFixture(t)

	out, err := svc.Identify(context.Background(), f.contact, IdentifyParams{PhoneNumber: strPtr(" +14155550100 ")})
	require.NoError(t, err)
	require.NotNil(t, out.PhoneNumber)
	assert.Equal(t, "+14155550100", *out.PhoneNumber)
}

func TestIdentifyConflictLeavesBothContactsUntouched(t *testing.T) {
	svc, db, f, dispatcher := newIdentifyFixture(t)

	other := &types.Contact{
		AccountID:  f.account.ID,
		Name:       "Max",
		Email:      strPtr("max@example.com"),
		Identifier: strPtr("user-77"),
	}
	require.NoError(t, db.Create(other).Error)

	tests := []struct {
		field  string
		params IdentifyParams
	}{
		{"email", IdentifyParams{Email: strPtr("MAX@example.com")}},
		{"identifier", IdentifyParams{Identifier: strPtr("user-77")}},
	}
	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			_, err := svc.Identify(context.Background(), f.contact, tc.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConflict))
			var conflict *ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, tc.field, conflict.Field)
		})
	}

	// The contact that legitimately owns the values still owns them.
	var storedOther types.Contact
	require.NoError(t, db.First(&storedOther, "id = ?", other.ID).Error)
	assert.Equal(t, "max@example.com", *storedOther.Email)
	assert.Equal(t, "user-77", *storedOther.Identifier)

	var stored types.Contact
	require.NoError(t, db.First(&stored, "id = ?", f.contact.ID).Error)
	assert.Equal(t, "dana@example.com", *stored.Email)
	assert.Nil(t, stored.Identifier)
	assert.Empty(t, dispatcher.events)
}

func TestIdentifyOwnValuesAreNotConflicts(t *testing.T) {
	svc, db, f, _ := newIdentifyFixture(t)
	require.NoError(t, db.Model(f.contact).Update("identifier", "user-1").Error)
	f.contact.Identifier = strPtr("user-1")

	// Re-presenting the contact's own email and identifier is idempotent.
	out, err := svc.Identify(context.Background(), f.contact, IdentifyParams{
		Email:      strPtr("dana@example.com"),
		Identifier: strPtr("user-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", *out.Identifier)
	assert.Equal(t, "dana@example.com", *out.Email)
}

func TestIdentifySameValuesInAnotherAccount(t *testing.T) {
	svc, db, f, _ := newIdentifyFixture(t)

	otherAccount := &types.Account{Name: "Globex"}
	require.NoError(t, db.Create(otherAccount).Error)
	require.NoError(t, db.Create(&types.Contact{
		AccountID: otherAccount.ID,
		Email:     strPtr("shared@example.com"),
	}).Error)

	// Uniqueness is scoped per account; the same email elsewhere is fine.
	out, err := svc.Identify(context.Background(), f.contact, IdentifyParams{Email: strPtr("shared@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "shared@example.com", *out.Email)
}

func TestIdentifyDispatchesContactUpdated(t *testing.T) {
	svc, _, f, dispatcher := newIdentifyFixture(t)

	_, err := svc.Identify(context.Background(), f.contact, IdentifyParams{Name: strPtr("Dana R.")})
	require.NoError(t, err)

	require.Len(t, dispatcher.events, 1)
	ev := dispatcher.events[0]
	assert.Equal(t, events.ContactUpdated, ev.Name)

	payload, ok := ev.Payload["contact"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Dana R.", payload["name"])
	assert.NotEmpty(t, payload["pubsub_token"])
	// Trust flags and secrets never ride along on the event payload.
	_, hasVerified := payload["hmac_verified"]
	assert.False(t, hasVerified)
}
