package requestdata

import (
	"context"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/types"
)

type widgetSessionKeyType struct{}
type agentDataKeyType struct{}

var widgetSessionKey = widgetSessionKeyType{}
var agentDataKey = agentDataKeyType{}

// WidgetSession is the inbox-scoped session a widget request runs under,
// resolved from the website token and the visitor's auth token.
type WidgetSession struct {
	Account      *types.Account
	Inbox        *types.Inbox
	Contact      *types.Contact
	ContactInbox *types.ContactInbox
}

func WithWidgetSession(ctx context.Context, ws *WidgetSession) context.Context {
	return context.WithValue(ctx, widgetSessionKey, ws)
}

func GetWidgetSession(ctx context.Context) *WidgetSession {
	val := ctx.Value(widgetSessionKey)
	if ws, ok := val.(*WidgetSession); ok {
		return ws
	}
	return nil
}

// AgentData identifies the authenticated agent behind API requests.
type AgentData struct {
	AgentID   uuid.UUID
	AccountID uuid.UUID
}

func WithAgentData(ctx context.Context, ad *AgentData) context.Context {
	return context.WithValue(ctx, agentDataKey, ad)
}

func GetAgentData(ctx context.Context) *AgentData {
	val := ctx.Value(agentDataKey)
	if ad, ok := val.(*AgentData); ok {
		return ad
	}
	return nil
}
