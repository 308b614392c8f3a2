package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/requestdata"
)

type WidgetAuthMiddleware struct {
	log              *logger.Logger
	inboxRepo        repos.InboxRepo
	contactInboxRepo repos.ContactInboxRepo
}

func NewWidgetAuthMiddleware(log *logger.Logger, inboxRepo repos.InboxRepo, contactInboxRepo repos.ContactInboxRepo) *WidgetAuthMiddleware {
	middlewareLog := log.With("middleware", "WidgetAuthMiddleware")
	return &WidgetAuthMiddleware{log: middlewareLog, inboxRepo: inboxRepo, contactInboxRepo: contactInboxRepo}
}

// ResolveSession maps website_token to the widget Inbox and X-Auth-Token (the
// visitor's source id) to the ContactInbox. Unknown tokens are a plain 404;
// nothing distinguishes "no such inbox" from "no such visitor" to the caller.
func (wam *WidgetAuthMiddleware) ResolveSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		websiteToken := c.Query("website_token")
		if websiteToken == "" {
			websiteToken = c.GetHeader("X-Website-Token")
		}
		if websiteToken == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		ctx := c.Request.Context()
		inbox, err := wam.inboxRepo.GetByWebsiteToken(ctx, nil, websiteToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		sourceID := c.GetHeader("X-Auth-Token")
		if sourceID == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		contactInbox, err := wam.contactInboxRepo.GetBySourceID(ctx, nil, inbox.ID, sourceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		session := &requestdata.WidgetSession{
			Account:      inbox.Account,
			Inbox:        inbox,
			Contact:      contactInbox.Contact,
			ContactInbox: contactInbox,
		}
		c.Request = c.Request.WithContext(requestdata.WithWidgetSession(ctx, session))
		c.Next()
	}
}
