package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kpierre24/studio-sub001/internal/dashboard"
	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/processor"
	"github.com/kpierre24/studio-sub001/internal/utils"
)

// DashboardHandler serves layout and widget management plus widget data
// shaping.
type DashboardHandler struct {
	BaseHandler
	manager *dashboard.Manager
}

func NewDashboardHandler(manager *dashboard.Manager, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
	}
}

// SaveLayout handles POST /api/v1/dashboards and PUT /api/v1/dashboards/:id
func (h *DashboardHandler) SaveLayout(c *gin.Context) {
	var layout models.DashboardLayout
	if err := c.ShouldBindJSON(&layout); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if id := c.Param("id"); id != "" {
		layout.ID = id
	}

	saved, err := h.manager.SaveLayout(&layout)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "layout saved", saved)
}

// GetLayout handles GET /api/v1/dashboards/:id
func (h *DashboardHandler) GetLayout(c *gin.Context) {
	layout, err := h.manager.GetLayout(c.Param("id"))
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "layout", layout)
}

// DeleteLayout handles DELETE /api/v1/dashboards/:id
func (h *DashboardHandler) DeleteLayout(c *gin.Context) {
	if err := h.manager.DeleteLayout(c.Param("id")); err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "layout deleted", nil)
}

// ListLayouts handles GET /api/v1/dashboards?role=teacher
func (h *DashboardHandler) ListLayouts(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	h.RespondWithSuccess(c, http.StatusOK, "layouts", h.manager.ListLayouts(role))
}

// GetDefaultLayout handles GET /api/v1/dashboards/default/:role
func (h *DashboardHandler) GetDefaultLayout(c *gin.Context) {
	layout, err := h.manager.GetDefaultForRole(models.UserRole(c.Param("role")))
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "default layout", layout)
}

// SaveWidget handles POST /api/v1/widgets
func (h *DashboardHandler) SaveWidget(c *gin.Context) {
	var widget models.WidgetConfig
	if err := c.ShouldBindJSON(&widget); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	saved, err := h.manager.SaveWidget(&widget)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "widget saved", saved)
}

// GetWidget handles GET /api/v1/widgets/:id
func (h *DashboardHandler) GetWidget(c *gin.Context) {
	widget, err := h.manager.GetWidget(c.Param("id"))
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "widget", widget)
}

// DeleteWidget handles DELETE /api/v1/widgets/:id
func (h *DashboardHandler) DeleteWidget(c *gin.Context) {
	if err := h.manager.DeleteWidget(c.Param("id")); err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "widget deleted", nil)
}

// ShapeWidgetDataRequest carries the raw rows to shape.
type ShapeWidgetDataRequest struct {
	Rows []processor.Row `json:"rows"`
}

// ShapeWidgetData handles POST /api/v1/widgets/:id/data
func (h *DashboardHandler) ShapeWidgetData(c *gin.Context) {
	widget, err := h.manager.GetWidget(c.Param("id"))
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}

	var req ShapeWidgetDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	viewModel, err := dashboard.ShapeWidgetData(widget, req.Rows)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "widget data", viewModel)
}
