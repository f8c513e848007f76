package drivers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gotogether/ride-pooling/pkg/common"
	"github.com/gotogether/ride-pooling/pkg/middleware"
	"github.com/gotogether/ride-pooling/pkg/validation"
)

// Handler handles HTTP requests for drivers
type Handler struct {
	repo *Repository
}

// NewHandler creates a new drivers handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// GetDriver handles GET /api/v1/drivers/:id
func (h *Handler) GetDriver(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid driver ID", err))
		return
	}

	driver, err := h.repo.GetDriverByID(c.Request.Context(), driverID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, driver)
}

// GetQueue handles GET /api/v1/drivers/queue. Returns the eligible pool in
// fairness order plus the driver the next dispatch would claim.
func (h *Handler) GetQueue(c *gin.Context) {
	pool, err := h.repo.FindEligibleDrivers(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponseWithMeta(c, gin.H{
		"queue": pool,
		"next":  NextDriver(pool),
	}, &common.Meta{Total: int64(len(pool))})
}

// UpdateAvailability handles PATCH /api/v1/drivers/:id/availability.
// Drivers may only change their own availability; admins may change anyone's.
func (h *Handler) UpdateAvailability(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		common.ErrorResponse(c, http.StatusUnauthorized, "identity headers required")
		return
	}

	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.HandleServiceError(c, common.NewBadRequestError("invalid driver ID", err))
		return
	}

	if !actor.IsAdmin() && !(actor.IsDriver() && actor.ID == driverID) {
		common.ErrorResponse(c, http.StatusForbidden, "cannot change another driver's availability")
		return
	}

	var req UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	driver, err := h.repo.UpdateAvailability(c.Request.Context(), driverID, AvailabilityStatus(req.AvailabilityStatus))
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	common.SuccessResponse(c, driver)
}
