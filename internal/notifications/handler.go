package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/middleware"
)

// Handler handles HTTP requests for notifications
type Handler struct {
	service *Service
}

// NewHandler creates a new notifications handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListNotifications handles GET /api/v1/notifications
func (h *Handler) ListNotifications(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	inbox, err := h.service.Inbox(c.Request.Context(), actor.ID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, inbox)
}

// AcceptNotification handles POST /api/v1/notifications/:id/accept
func (h *Handler) AcceptNotification(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid notification ID", err))
		return
	}

	result, err := h.service.Accept(c.Request.Context(), notificationID, actor.ID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, result)
}

// RejectNotification handles POST /api/v1/notifications/:id/reject
func (h *Handler) RejectNotification(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid notification ID", err))
		return
	}

	notification, err := h.service.Reject(c.Request.Context(), notificationID, actor.ID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, notification)
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid notification ID", err))
		return
	}

	notification, err := h.service.MarkRead(c.Request.Context(), notificationID, actor.ID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, notification)
}

// MarkSystemNotificationRead handles POST /api/v1/notifications/system/:id/read
func (h *Handler) MarkSystemNotificationRead(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid notification ID", err))
		return
	}

	notification, err := h.service.MarkSystemRead(c.Request.Context(), notificationID, actor.ID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, notification)
}
