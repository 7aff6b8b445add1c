package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloqit/lockerengine-backend/internal/middleware"
	"github.com/bloqit/lockerengine-backend/locker"
)

type lockerResponse struct {
	ID         uuid.UUID     `json:"id"`
	BloqID     uuid.UUID     `json:"bloqId"`
	Status     locker.Status `json:"status"`
	IsOccupied bool          `json:"isOccupied"`
}

func toLockerResponse(l locker.Locker) lockerResponse {
	return lockerResponse{
		ID:         l.ID,
		BloqID:     l.BloqID,
		Status:     l.Status,
		IsOccupied: l.IsOccupied,
	}
}

func (a *API) createLockerHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	bloqID, err := uuid.Parse(c.Param("bloqId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid bloq ID"})
		return
	}

	l, err := a.lr.Create(c, bloqID)
	if err != nil {
		if errors.Is(err, locker.ErrBloqNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BLOQ_NOT_FOUND", "message": "Bloq not found"})
			return
		}
		logger.ErrorContext(c, "failed to create locker", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toLockerResponse(l))
}

func (a *API) listLockersByBloqHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	bloqID, err := uuid.Parse(c.Param("bloqId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid bloq ID"})
		return
	}

	lockers, err := a.lr.ListByBloq(c, bloqID)
	if err != nil {
		logger.ErrorContext(c, "failed to list lockers", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if len(lockers) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": "NO_LOCKERS", "message": "No lockers found for this bloq"})
		return
	}

	responses := make([]lockerResponse, 0, len(lockers))
	for _, l := range lockers {
		responses = append(responses, toLockerResponse(l))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) getLockerHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	l, err := a.lr.GetByID(c, id)
	if err != nil {
		if errors.Is(err, locker.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOCKER_NOT_FOUND", "message": "Locker not found"})
			return
		}
		logger.ErrorContext(c, "failed to get locker", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toLockerResponse(l))
}

type updateLockerStatusRequest struct {
	Status locker.Status `json:"status" binding:"required"`
}

func (a *API) updateLockerStatusHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	var req updateLockerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	l, err := a.lr.UpdateStatus(c, id, req.Status)
	if err != nil {
		if errors.Is(err, locker.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOCKER_NOT_FOUND", "message": "Locker not found"})
			return
		}
		logger.ErrorContext(c, "failed to update locker status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toLockerResponse(l))
}

type occupyLockerRequest struct {
	IsOccupied *bool `json:"isOccupied" binding:"required"`
}

func (a *API) occupyLockerHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	var req occupyLockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	l, err := a.lr.SetOccupied(c, id, *req.IsOccupied)
	if err != nil {
		if errors.Is(err, locker.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOCKER_NOT_FOUND", "message": "Locker not found"})
			return
		}
		logger.ErrorContext(c, "failed to set locker occupancy", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toLockerResponse(l))
}

func (a *API) isLockerOccupiedHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	occupied, err := a.lr.IsOccupied(c, id)
	if err != nil {
		if errors.Is(err, locker.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOCKER_NOT_FOUND", "message": "Locker not found"})
			return
		}
		logger.ErrorContext(c, "failed to check locker occupancy", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"isOccupied": occupied})
}

// listRentsByLockerHandler serves the locker-centric rent listing. The same
// data is also exposed under /api/rents/locker/:lockerId.
func (a *API) listRentsByLockerHandler(c *gin.Context) {
	a.listRents(c, c.Param("id"))
}

func (a *API) deleteLockerHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	err = a.lr.Delete(c, id)
	if err != nil {
		if errors.Is(err, locker.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOCKER_NOT_FOUND", "message": "Locker not found"})
			return
		}
		if errors.Is(err, locker.ErrActiveRent) {
			c.JSON(http.StatusConflict, gin.H{"code": "LOCKER_HAS_ACTIVE_RENT", "message": "Locker has an active rent"})
			return
		}
		logger.ErrorContext(c, "failed to delete locker", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
