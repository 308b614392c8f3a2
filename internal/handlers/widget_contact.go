package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/relaydesk/relaydesk-backend/internal/requestdata"
	"github.com/relaydesk/relaydesk-backend/internal/services"
)

type WidgetContactHandler struct {
	widgetContactService services.WidgetContactService
}

func NewWidgetContactHandler(widgetContactService services.WidgetContactService) *WidgetContactHandler {
	return &WidgetContactHandler{widgetContactService: widgetContactService}
}

func (wch *WidgetContactHandler) Show(c *gin.Context) {
	session := requestdata.GetWidgetSession(c.Request.Context())
	if session == nil {
		RespondError(c, http.StatusNotFound, "not_found", services.ErrNotFound)
		return
	}
	RespondOK(c, wch.widgetContactService.Show(session))
}

type identifyRequest struct {
	Identifier       *string           `json:"identifier"`
	IdentifierHash   string            `json:"identifier_hash"`
	Email            *string           `json:"email"`
	Name             *string           `json:"name"`
	AvatarURL        *string           `json:"avatar_url"`
	PhoneNumber      *string           `json:"phone_number"`
	CustomAttributes datatypes.JSONMap `json:"custom_attributes"`
}

// Update is the widget identify endpoint: an optional HMAC signature over the
// claimed identifier, plus a partial attribute patch.
func (wch *WidgetContactHandler) Update(c *gin.Context) {
	session := requestdata.GetWidgetSession(c.Request.Context())
	if session == nil {
		RespondError(c, http.StatusNotFound, "not_found", services.ErrNotFound)
		return
	}

	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	contact, err := wch.widgetContactService.Identify(c.Request.Context(), session, req.IdentifierHash, services.IdentifyParams{
		Identifier:       req.Identifier,
		Email:            req.Email,
		Name:             req.Name,
		AvatarURL:        req.AvatarURL,
		PhoneNumber:      req.PhoneNumber,
		CustomAttributes: req.CustomAttributes,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, contact.PushEventData())
}
