package grouping

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/middleware"
	"github.com/gotogether/ride-pooling/pkg/validation"
)

// Handler handles HTTP requests for ride requests and groups
type Handler struct {
	service *Service
}

// NewHandler creates a new grouping handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateRideRequest handles POST /api/v1/ride-requests. Station-bound
// requests are dispatched through auto grouping before the response.
func (h *Handler) CreateRideRequest(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	var payload CreateRideRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&payload); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Dispatch(c.Request.Context(), actor.ID, &payload)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.CreatedResponse(c, result)
}

// GetRideRequest handles GET /api/v1/ride-requests/:id
func (h *Handler) GetRideRequest(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid request ID", err))
		return
	}

	request, err := h.service.GetRideRequest(c.Request.Context(), requestID, actor.ID, actor.IsAdmin())
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, request)
}

// CancelRideRequest handles POST /api/v1/ride-requests/:id/cancel
func (h *Handler) CancelRideRequest(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid request ID", err))
		return
	}

	request, err := h.service.CancelRideRequest(c.Request.Context(), requestID, actor.ID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, request)
}

// GetGroup handles GET /api/v1/groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid group ID", err))
		return
	}

	group, err := h.service.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, group)
}
