package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloqit/lockerengine-backend/internal/middleware"
	"github.com/bloqit/lockerengine-backend/rent"
)

type rentResponse struct {
	ID           uuid.UUID   `json:"id"`
	LockerID     uuid.UUID   `json:"lockerId"`
	Weight       float64     `json:"weight"`
	Size         rent.Size   `json:"size"`
	Status       rent.Status `json:"status"`
	DroppedOffAt *time.Time  `json:"droppedOffAt,omitempty"`
	PickedUpAt   *time.Time  `json:"pickedUpAt,omitempty"`
}

func toRentResponse(r rent.Rent) rentResponse {
	resp := rentResponse{
		ID:       r.ID,
		LockerID: r.LockerID,
		Weight:   r.Weight,
		Size:     r.Size,
		Status:   r.Status,
	}
	if r.DroppedOffAt.Valid {
		t := r.DroppedOffAt.Time
		resp.DroppedOffAt = &t
	}
	if r.PickedUpAt.Valid {
		t := r.PickedUpAt.Time
		resp.PickedUpAt = &t
	}
	return resp
}

type createRentRequest struct {
	Weight float64   `json:"weight" binding:"required,gt=0"`
	Size   rent.Size `json:"size" binding:"required"`
}

func (a *API) createRentHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	lockerID, err := uuid.Parse(c.Param("lockerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	var req createRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	r, err := a.rr.Create(c, lockerID, req.Weight, req.Size)
	if err != nil {
		if errors.Is(err, rent.ErrLockerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOCKER_NOT_FOUND", "message": "Locker not found"})
			return
		}
		if errors.Is(err, rent.ErrLockerOccupied) {
			c.JSON(http.StatusConflict, gin.H{"code": "LOCKER_OCCUPIED", "message": "Locker is already occupied"})
			return
		}
		logger.ErrorContext(c, "failed to create rent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toRentResponse(r))
}

func (a *API) getRentHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rent ID"})
		return
	}

	r, err := a.rr.GetByID(c, id)
	if err != nil {
		if errors.Is(err, rent.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENT_NOT_FOUND", "message": "Rent not found"})
			return
		}
		logger.ErrorContext(c, "failed to get rent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRentResponse(r))
}

func (a *API) listRentsForLockerHandler(c *gin.Context) {
	a.listRents(c, c.Param("lockerId"))
}

func (a *API) listRents(c *gin.Context, rawLockerID string) {
	logger := middleware.GetLogger(c)

	lockerID, err := uuid.Parse(rawLockerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	rents, err := a.rr.ListByLocker(c, lockerID)
	if err != nil {
		logger.ErrorContext(c, "failed to list rents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if len(rents) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": "NO_RENTS", "message": "No rents found for this locker"})
		return
	}

	responses := make([]rentResponse, 0, len(rents))
	for _, r := range rents {
		responses = append(responses, toRentResponse(r))
	}
	c.JSON(http.StatusOK, responses)
}

type updateRentStatusRequest struct {
	Status rent.Status `json:"status" binding:"required"`
}

// updateRentStatusHandler overwrites the rent status without lifecycle
// guards. Administrative use only; the lifecycle endpoints below are the
// normal path.
func (a *API) updateRentStatusHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rent ID"})
		return
	}

	var req updateRentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	r, err := a.rr.UpdateStatus(c, id, req.Status)
	if err != nil {
		if errors.Is(err, rent.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENT_NOT_FOUND", "message": "Rent not found"})
			return
		}
		logger.ErrorContext(c, "failed to update rent status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRentResponse(r))
}

func (a *API) markForDropoffHandler(c *gin.Context) {
	a.transitionHandler(c, a.rr.MarkForDropoff)
}

func (a *API) recordDropoffHandler(c *gin.Context) {
	a.transitionHandler(c, a.rr.RecordDropoff)
}

func (a *API) recordPickupHandler(c *gin.Context) {
	a.transitionHandler(c, a.rr.RecordPickup)
}

// transitionHandler runs one of the guarded lifecycle operations and maps
// its failure modes onto HTTP statuses.
func (a *API) transitionHandler(c *gin.Context, op func(context.Context, uuid.UUID) (rent.Rent, error)) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rent ID"})
		return
	}

	r, err := op(c, id)
	if err != nil {
		if errors.Is(err, rent.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RENT_NOT_FOUND", "message": "Rent not found"})
			return
		}
		if errors.Is(err, rent.ErrInvalidTransition) {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_TRANSITION", "message": err.Error()})
			return
		}
		logger.ErrorContext(c, "failed to transition rent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRentResponse(r))
}
