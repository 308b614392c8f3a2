package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/types"
)

func newWindowFixture(t *testing.T) (MessageWindowSelector, *gorm.DB, *conversationFixture) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)
	selector := NewMessageWindowSelector(log, repos.NewMessageRepo(db, log))
	return selector, db, seedConversation(t, db)
}

func contents(messages []*types.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}

func TestRecapWindowBoundsHistory(t *testing.T) {
	selector, db, f := newWindowFixture(t)
	queuedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// 15 messages of history, 3 new ones at or after the cutoff. Only the last
	// 10 of the history plus all 3 new ones should make the recap.
	for i := 1; i <= 15; i++ {
		seedMessage(t, db, f.conversation, types.MessageTypeIncoming,
			queuedAt.Add(time.Duration(i-16)*time.Minute),
			func(m *types.Message) { m.Content = fmt.Sprintf("m%02d", i) })
	}
	for i := 16; i <= 18; i++ {
		seedMessage(t, db, f.conversation, types.MessageTypeOutgoing,
			queuedAt.Add(time.Duration(i-16)*time.Minute),
			func(m *types.Message) { m.Content = fmt.Sprintf("m%02d", i) })
	}

	selected, err := selector.RecapWindow(context.Background(), f.conversation.ID, queuedAt)
	require.NoError(t, err)
	require.Len(t, selected, 13)

	want := make([]string, 0, 13)
	for i := 6; i <= 18; i++ {
		want = append(want, fmt.Sprintf("m%02d", i))
	}
	assert.Equal(t, want, contents(selected))
}

func TestRecapWindowFiltersUnsummarizable(t *testing.T) {
	selector, db, f := newWindowFixture(t)
	queuedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	before := queuedAt.Add(-5 * time.Minute)

	seedMessage(t, db, f.conversation, types.MessageTypeOutgoing, before,
		func(m *types.Message) { m.Content = "visible" })
	seedMessage(t, db, f.conversation, types.MessageTypeOutgoing, before,
		func(m *types.Message) { m.Content = "internal note"; m.Private = true })
	seedMessage(t, db, f.conversation, types.MessageTypeOutgoing, before,
		func(m *types.Message) { m.Content = "   " })
	seedMessage(t, db, f.conversation, types.MessageTypeActivity, before,
		func(m *types.Message) { m.Content = "Conversation was assigned" })
	seedMessage(t, db, f.conversation, types.MessageTypeIncoming, before,
		func(m *types.Message) {
			m.Content = ""
			m.ContentAttributes = datatypes.JSONMap{"attachments": []any{map[string]any{"url": "https://cdn.acme.dev/f.png"}}}
		})

	selected, err := selector.RecapWindow(context.Background(), f.conversation.ID, queuedAt)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "visible", selected[0].Content)
	assert.Equal(t, "", selected[1].Content) // attachment-only message survives
}

func TestRecapWindowEqualTimestampsKeepOrder(t *testing.T) {
	selector, db, f := newWindowFixture(t)
	queuedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := queuedAt.Add(-1 * time.Minute)

	for _, content := range []string{"first", "second", "third"} {
		c := content
		seedMessage(t, db, f.conversation, types.MessageTypeIncoming, at,
			func(m *types.Message) { m.Content = c })
	}

	selected, err := selector.RecapWindow(context.Background(), f.conversation.ID, queuedAt)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, contents(selected))
}

func TestNewActivitySelectsAgentMessages(t *testing.T) {
	selector, db, f := newWindowFixture(t)
	queuedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seedMessage(t, db, f.conversation, types.MessageTypeOutgoing, queuedAt.Add(-1*time.Minute),
		func(m *types.Message) { m.Content = "too old" })
	seedMessage(t, db, f.conversation, types.MessageTypeIncoming, queuedAt,
		func(m *types.Message) { m.Content = "customer reply" })
	seedMessage(t, db, f.conversation, types.MessageTypeOutgoing, queuedAt,
		func(m *types.Message) { m.Content = "agent reply" })
	seedMessage(t, db, f.conversation, types.MessageTypeTemplate, queuedAt.Add(time.Minute),
		func(m *types.Message) { m.Content = "auto greeting" })
	seedMessage(t, db, f.conversation, types.MessageTypeTemplate, queuedAt.Add(2*time.Minute),
		func(m *types.Message) { m.Content = "rate us"; m.ContentType = types.ContentTypeInputCSAT })

	selected, err := selector.NewActivity(context.Background(), f.conversation.ID, queuedAt)
	require.NoError(t, err)
	// Plain notifications carry agent messages plus the satisfaction survey;
	// customer messages and ordinary templates never trigger one.
	assert.Equal(t, []string{"agent reply", "rate us"}, contents(selected))
}

func TestNewActivityEmptyWhenOnlyCustomerSpoke(t *testing.T) {
	selector, db, f := newWindowFixture(t)
	queuedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seedMessage(t, db, f.conversation, types.MessageTypeIncoming, queuedAt.Add(time.Minute))

	selected, err := selector.NewActivity(context.Background(), f.conversation.ID, queuedAt)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestTranscriptMessagesIgnoreTimeWindow(t *testing.T) {
	selector, db, f := newWindowFixture(t)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seedMessage(t, db, f.conversation, types.MessageTypeIncoming, base.Add(-48*time.Hour),
		func(m *types.Message) { m.Content = "ancient" })
	seedMessage(t, db, f.conversation, types.MessageTypeOutgoing, base,
		func(m *types.Message) { m.Content = "reply" })
	seedMessage(t, db, f.conversation, types.MessageTypeOutgoing, base,
		func(m *types.Message) { m.Content = "private"; m.Private = true })
	seedMessage(t, db, f.conversation, types.MessageTypeActivity, base,
		func(m *types.Message) { m.Content = "assigned" })

	selected, err := selector.TranscriptMessages(context.Background(), f.conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ancient", "reply"}, contents(selected))
}
