package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kpierre24/studio-sub001/internal/cache"
	"github.com/kpierre24/studio-sub001/internal/realtime"
	"github.com/kpierre24/studio-sub001/internal/utils"
)

// RealtimeHandler administers realtime data sources.
type RealtimeHandler struct {
	BaseHandler
	manager *realtime.Manager
}

func NewRealtimeHandler(manager *realtime.Manager, logger utils.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
	}
}

// RegisterSourceRequest creates a polled data source.
type RegisterSourceRequest struct {
	Name           string `json:"name" binding:"required"`
	Endpoint       string `json:"endpoint" binding:"required"`
	UpdateInterval string `json:"update_interval" binding:"required"` // Go duration, e.g. "30s"
}

// RegisterSource handles POST /api/v1/realtime/sources
func (h *RealtimeHandler) RegisterSource(c *gin.Context) {
	var req RegisterSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	interval, err := time.ParseDuration(req.UpdateInterval)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid update interval", err)
		return
	}

	source, err := h.manager.Register(req.Name, req.Endpoint, interval)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "source registered", source)
}

// UpdateSourceRequest patches a data source.
type UpdateSourceRequest struct {
	Name           *string `json:"name,omitempty"`
	Endpoint       *string `json:"endpoint,omitempty"`
	UpdateInterval *string `json:"update_interval,omitempty"`
}

// UpdateSource handles PUT /api/v1/realtime/sources/:id
func (h *RealtimeHandler) UpdateSource(c *gin.Context) {
	var req UpdateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	patch := realtime.SourcePatch{Name: req.Name, Endpoint: req.Endpoint}
	if req.UpdateInterval != nil {
		interval, err := time.ParseDuration(*req.UpdateInterval)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "invalid update interval", err)
			return
		}
		patch.UpdateInterval = &interval
	}

	source, err := h.manager.Update(c.Param("id"), patch)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "source updated", source)
}

// RemoveSource handles DELETE /api/v1/realtime/sources/:id
func (h *RealtimeHandler) RemoveSource(c *gin.Context) {
	h.manager.Remove(c.Param("id"))
	h.RespondWithSuccess(c, http.StatusOK, "source removed", nil)
}

// ListSources handles GET /api/v1/realtime/sources
func (h *RealtimeHandler) ListSources(c *gin.Context) {
	h.RespondWithSuccess(c, http.StatusOK, "sources", h.manager.ListSources())
}

// GetSource handles GET /api/v1/realtime/sources/:id
func (h *RealtimeHandler) GetSource(c *gin.Context) {
	source, err := h.manager.GetSource(c.Param("id"))
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "source", source)
}

// GetCachedPayload handles GET /api/v1/realtime/sources/:id/data
func (h *RealtimeHandler) GetCachedPayload(c *gin.Context) {
	var payload any
	if err := h.manager.GetCached(c.Request.Context(), c.Param("id"), &payload); err != nil {
		if err == cache.ErrCacheMiss {
			h.RespondWithError(c, http.StatusNotFound, "no fresh payload cached", nil)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "cache read failed", err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "cached payload", payload)
}
