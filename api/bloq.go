package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloqit/lockerengine-backend/bloq"
	"github.com/bloqit/lockerengine-backend/internal/middleware"
)

type bloqResponse struct {
	ID      uuid.UUID        `json:"id"`
	Title   string           `json:"title"`
	Address string           `json:"address"`
	Lockers []lockerResponse `json:"lockers"`
}

func toBloqResponse(b bloq.Bloq) bloqResponse {
	lockers := make([]lockerResponse, 0, len(b.Lockers))
	for _, l := range b.Lockers {
		lockers = append(lockers, toLockerResponse(l))
	}
	return bloqResponse{
		ID:      b.ID,
		Title:   b.Title,
		Address: b.Address,
		Lockers: lockers,
	}
}

type bloqRequest struct {
	Title   string `json:"title" binding:"required"`
	Address string `json:"address" binding:"required"`
}

func (a *API) createBloqHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req bloqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	b, err := a.blr.Create(c, req.Title, req.Address)
	if err != nil {
		logger.ErrorContext(c, "failed to create bloq", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toBloqResponse(b))
}

func (a *API) listBloqsHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	bloqs, err := a.blr.GetAll(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list bloqs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]bloqResponse, 0, len(bloqs))
	for _, b := range bloqs {
		responses = append(responses, toBloqResponse(b))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) getBloqHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid bloq ID"})
		return
	}

	b, err := a.blr.GetByID(c, id)
	if err != nil {
		if errors.Is(err, bloq.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BLOQ_NOT_FOUND", "message": "Bloq not found"})
			return
		}
		logger.ErrorContext(c, "failed to get bloq", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toBloqResponse(b))
}

func (a *API) updateBloqHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid bloq ID"})
		return
	}

	var req bloqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	b, err := a.blr.Update(c, id, req.Title, req.Address)
	if err != nil {
		if errors.Is(err, bloq.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BLOQ_NOT_FOUND", "message": "Bloq not found"})
			return
		}
		logger.ErrorContext(c, "failed to update bloq", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toBloqResponse(b))
}

func (a *API) deleteBloqHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid bloq ID"})
		return
	}

	err = a.blr.Delete(c, id)
	if err != nil {
		if errors.Is(err, bloq.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BLOQ_NOT_FOUND", "message": "Bloq not found"})
			return
		}
		if errors.Is(err, bloq.ErrHasLockers) {
			c.JSON(http.StatusConflict, gin.H{"code": "BLOQ_HAS_LOCKERS", "message": "Bloq still has lockers"})
			return
		}
		logger.ErrorContext(c, "failed to delete bloq", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (a *API) addLockerToBloqHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid bloq ID"})
		return
	}
	lockerID, err := uuid.Parse(c.Param("lockerId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid locker ID"})
		return
	}

	b, err := a.blr.AddLocker(c, id, lockerID)
	if err != nil {
		if errors.Is(err, bloq.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BLOQ_NOT_FOUND", "message": "Bloq not found"})
			return
		}
		if errors.Is(err, bloq.ErrLockerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "LOCKER_NOT_FOUND", "message": "Locker not found"})
			return
		}
		logger.ErrorContext(c, "failed to add locker to bloq", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toBloqResponse(b))
}
