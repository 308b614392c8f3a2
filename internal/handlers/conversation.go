package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/services"
)

type ConversationHandler struct {
	replyService services.ConversationReplyService
}

func NewConversationHandler(replyService services.ConversationReplyService) *ConversationHandler {
	return &ConversationHandler{replyService: replyService}
}

type replyRequest struct {
	QueuedAt time.Time `json:"queued_at" binding:"required"`
}

func (ch *ConversationHandler) ReplyWithSummary(c *gin.Context) {
	ch.reply(c, ch.replyService.ReplyWithSummary)
}

func (ch *ConversationHandler) ReplyWithoutSummary(c *gin.Context) {
	ch.reply(c, ch.replyService.ReplyWithoutSummary)
}

func (ch *ConversationHandler) reply(c *gin.Context, compose func(ctx context.Context, conversationID uuid.UUID, queuedAt time.Time) (*services.ComposeResult, error)) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := compose(c.Request.Context(), conversationID, req.QueuedAt)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

type transcriptRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (ch *ConversationHandler) Transcript(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := ch.replyService.Transcript(c.Request.Context(), conversationID, req.Email)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}
