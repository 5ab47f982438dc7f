package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kpierre24/studio-sub001/internal/exports"
	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/utils"
)

// ExportHandler serves export creation, retrieval and scheduling.
type ExportHandler struct {
	BaseHandler
	manager *exports.Manager
}

func NewExportHandler(manager *exports.Manager, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
	}
}

// ExportRequest serializes one report.
type ExportRequest struct {
	Report *models.ReportData  `json:"report" binding:"required"`
	Format models.ExportFormat `json:"format" binding:"required"`
}

// CreateExport handles POST /api/v1/exports
func (h *ExportHandler) CreateExport(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	export, err := h.manager.Export(c.Request.Context(), req.Report, req.Format)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "export created", export)
}

// BatchExportRequest serializes several reports as one artifact set.
type BatchExportRequest struct {
	Reports []*models.ReportData `json:"reports" binding:"required"`
	Format  models.ExportFormat  `json:"format" binding:"required"`
}

// CreateBatchExport handles POST /api/v1/exports/batch
func (h *ExportHandler) CreateBatchExport(c *gin.Context) {
	var req BatchExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	batch, err := h.manager.BatchExport(c.Request.Context(), req.Reports, req.Format)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "batch export created", batch)
}

// GetExport handles GET /api/v1/exports/:id
func (h *ExportHandler) GetExport(c *gin.Context) {
	export, err := h.manager.GetExport(c.Param("id"))
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "export", export)
}

// SweepExpired handles POST /api/v1/exports/sweep
func (h *ExportHandler) SweepExpired(c *gin.Context) {
	swept := h.manager.SweepExpired(c.Request.Context())
	h.RespondWithSuccess(c, http.StatusOK, "expired exports swept", gin.H{"swept": swept})
}

// ScheduleExportRequest records a recurring export.
type ScheduleExportRequest struct {
	ReportID string                `json:"report_id" binding:"required"`
	Format   models.ExportFormat   `json:"format" binding:"required"`
	Schedule models.ExportSchedule `json:"schedule" binding:"required"`
}

// ScheduleExport handles POST /api/v1/exports/schedules
func (h *ExportHandler) ScheduleExport(c *gin.Context) {
	var req ScheduleExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	schedule, err := h.manager.ScheduleExport(req.ReportID, req.Format, req.Schedule)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "export scheduled", schedule)
}

// ListSchedules handles GET /api/v1/exports/schedules
func (h *ExportHandler) ListSchedules(c *gin.Context) {
	h.RespondWithSuccess(c, http.StatusOK, "schedules", h.manager.ListSchedules())
}
