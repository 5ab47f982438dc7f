package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/reports"
	"github.com/kpierre24/studio-sub001/internal/repositories"
	"github.com/kpierre24/studio-sub001/internal/utils"
)

// ReportHandler serves report generation.
type ReportHandler struct {
	BaseHandler
	generator *reports.Generator
	datasets  repositories.DatasetRepository
}

func NewReportHandler(generator *reports.Generator, datasets repositories.DatasetRepository, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler: NewBaseHandler(logger),
		generator:   generator,
		datasets:    datasets,
	}
}

// GenerateReportRequest selects a report type, its parameters, and the
// dataset slice to compute over.
type GenerateReportRequest struct {
	Config     models.ReportConfig `json:"config" validate:"required"`
	Parameters map[string]any      `json:"parameters"`

	// Dataset scoping
	CourseIDs  []string   `json:"course_ids,omitempty"`
	StudentIDs []string   `json:"student_ids,omitempty"`
	Cohort     string     `json:"cohort,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

// GenerateReport handles POST /api/v1/reports/generate
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	filter := repositories.DatasetFilter{
		CourseIDs:  req.CourseIDs,
		StudentIDs: req.StudentIDs,
		Cohort:     req.Cohort,
	}
	if req.From != nil {
		filter.From = *req.From
	}
	if req.To != nil {
		filter.To = *req.To
	}

	dataset, err := h.datasets.LoadDataset(c.Request.Context(), filter)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "failed to load dataset", err)
		return
	}

	report, err := h.generator.Generate(c.Request.Context(), req.Config, req.Parameters, dataset)
	if err != nil {
		h.RespondWithDomainError(c, err)
		return
	}

	h.LogInfo(c, "report generated", "report_type", req.Config.Type, "records", report.Metadata.TotalRecords)
	h.RespondWithSuccess(c, http.StatusOK, "report generated", report)
}
