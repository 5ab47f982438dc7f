package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kpierre24/studio-sub001/internal/integration"
	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/utils"
)

// IntegrationHandler serves the external-system surface.
type IntegrationHandler struct {
	BaseHandler
	manager *integration.Manager
}

func NewIntegrationHandler(manager *integration.Manager, logger utils.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
	}
}

// RegisterAPIRequest registers a named external system.
type RegisterAPIRequest struct {
	Name   string                `json:"name" binding:"required"`
	Config integration.APIConfig `json:"config" binding:"required"`
}

// RegisterAPI handles POST /api/v1/integrations
func (h *IntegrationHandler) RegisterAPI(c *gin.Context) {
	var req RegisterAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.manager.RegisterAPI(req.Name, req.Config); err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "external API registered", gin.H{"name": req.Name})
}

// ListAPIs handles GET /api/v1/integrations
func (h *IntegrationHandler) ListAPIs(c *gin.Context) {
	h.RespondWithSuccess(c, http.StatusOK, "external APIs", h.manager.ListAPIs())
}

// ExternalExportRequest pushes a report to an external system.
type ExternalExportRequest struct {
	Report  *models.ReportData `json:"report" binding:"required"`
	Options map[string]any     `json:"options,omitempty"`
}

// ExportToExternalSystem handles POST /api/v1/integrations/:name/export
func (h *IntegrationHandler) ExportToExternalSystem(c *gin.Context) {
	var req ExternalExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.manager.ExportToExternalSystem(c.Request.Context(), c.Param("name"), req.Report, req.Options)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "external export finished", result)
}

// ImportFromExternalSystem handles POST /api/v1/integrations/:name/import
func (h *IntegrationHandler) ImportFromExternalSystem(c *gin.Context) {
	var params map[string]string
	if err := c.ShouldBindJSON(&params); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.manager.ImportFromExternalSystem(c.Request.Context(), c.Param("name"), params)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "external import finished", result)
}

// CheckAPIHealth handles GET /api/v1/integrations/:name/health
func (h *IntegrationHandler) CheckAPIHealth(c *gin.Context) {
	status, err := h.manager.CheckAPIHealth(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "health checked", status)
}
