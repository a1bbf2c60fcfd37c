// Package httpapi exposes the attendance service over HTTP.
package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"scanattend/internal/attendance"
	"scanattend/internal/store"
)

// Handler holds the service and optional collaborators the endpoints need.
type Handler struct {
	svc   *attendance.Service
	redis *store.Redis // nil when the queue backend is in-memory
}

// New creates a handler. redis may be nil.
func New(svc *attendance.Service, redis *store.Redis) *Handler {
	return &Handler{svc: svc, redis: redis}
}

// Mount registers all routes on the router.
func (h *Handler) Mount(r gin.IRouter) {
	r.POST("/register", h.Register)
	r.POST("/scan", h.Scan)
	r.GET("/participants", h.Participants)
	r.GET("/healthz", h.Healthz)
}

type registerRequest struct {
	EntryID       string `json:"entryId" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Batch         string `json:"batch"`
	Branch        string `json:"branch"`
	Course        string `json:"course"`
	Phone         string `json:"phone" binding:"required"`
	GuardianPhone string `json:"guardianPhone" binding:"required"`
	PhotoRef      string `json:"photoRef"`
}

// Register creates a new participant.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	rec, err := h.svc.Register(c.Request.Context(), attendance.Registration{
		EntryID:       req.EntryID,
		Name:          req.Name,
		Batch:         req.Batch,
		Branch:        req.Branch,
		Course:        req.Course,
		Phone:         req.Phone,
		GuardianPhone: req.GuardianPhone,
		PhotoRef:      req.PhotoRef,
	})
	switch {
	case errors.Is(err, attendance.ErrDuplicateEntry):
		c.JSON(http.StatusBadRequest, gin.H{"message": "already registered"})
	case errors.Is(err, attendance.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "registration failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Registration successful", "record": rec})
	}
}

type scanRequest struct {
	EntryID string `json:"entryId" binding:"required"`
}

// Scan toggles an entry's presence state.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	rec, err := h.svc.Scan(c.Request.Context(), req.EntryID)
	switch {
	case errors.Is(err, attendance.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not registered"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "scan failed"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("%s is now %s.", rec.Name, rec.LastStatus),
			"record":  rec,
		})
	}
}

// Participants returns all records.
func (h *Handler) Participants(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Participants())
}

// Healthz reports process health.
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	queueHealthy := true
	if h.redis != nil {
		queueHealthy = h.redis.Healthy(c.Request.Context())
		if !queueHealthy {
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, gin.H{"status": "ok", "queue": queueHealthy, "participants": h.svc.Count()})
}
