// Package reports turns an operational dataset into finished report
// documents: rows, metadata and a summary, one ReportData per call.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kpierre24/studio-sub001/internal/analytics"
	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/events"
	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/processor"
)

// Generator dispatches report generation by type. Each generation call
// is independent; the produced ReportData is never mutated afterward.
type Generator struct {
	engine    *analytics.Engine
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewGenerator(engine *analytics.Engine, publisher events.EventPublisher, logger *slog.Logger) *Generator {
	return &Generator{
		engine:    engine,
		publisher: publisher,
		logger:    logger,
	}
}

// Generate produces a complete report for config.Type, or an error and no
// report at all. Insights in the summary are derived only from the
// generated rows.
func (g *Generator) Generate(ctx context.Context, config models.ReportConfig, params map[string]any, ds *models.Dataset) (*models.ReportData, error) {
	started := time.Now()

	var (
		rows    []processor.Row
		summary *models.ReportSummary
		err     error
	)
	switch config.Type {
	case models.ReportStudentPerformance:
		rows, summary, err = g.studentPerformance(params, ds)
	case models.ReportCourseAnalytics:
		rows, summary, err = g.courseAnalytics(params, ds)
	case models.ReportAttendanceSummary:
		rows, summary, err = g.attendanceSummary(params, ds)
	case models.ReportGradeDistribution:
		rows, summary, err = g.gradeDistribution(params, ds)
	case models.ReportEngagementMetrics:
		rows, summary, err = g.engagementMetrics(params, ds)
	case models.ReportFinancialSummary:
		rows, summary, err = g.financialSummary(params, ds)
	case models.ReportComparativeAnalysis:
		rows, summary, err = g.comparativeAnalysis(params, ds)
	default:
		return nil, apperrors.NewConfigurationError("report_type", string(config.Type), "unknown report type")
	}
	if err != nil {
		if apperrors.IsConfiguration(err) || apperrors.IsValidation(err) {
			return nil, err
		}
		return nil, apperrors.NewComputationError(string(config.Type), "rows", err)
	}

	data := make([]map[string]any, len(rows))
	for i, row := range rows {
		data[i] = row
	}

	report := &models.ReportData{
		ID:       uuid.NewString(),
		ReportID: config.ID,
		Data:     data,
		Metadata: models.ReportMetadata{
			GeneratedAt:   started,
			Parameters:    params,
			TotalRecords:  len(data),
			ExecutionTime: time.Since(started),
		},
		Summary: summary,
	}

	g.publishGenerated(ctx, config, report)

	if g.logger != nil {
		g.logger.Info("report generated",
			"report_type", config.Type,
			"report_id", config.ID,
			"total_records", report.Metadata.TotalRecords,
			"execution_time", report.Metadata.ExecutionTime)
	}
	return report, nil
}

func (g *Generator) publishGenerated(ctx context.Context, config models.ReportConfig, report *models.ReportData) {
	if g.publisher == nil {
		return
	}
	event := events.NewEngineEvent(events.EventReportGenerated, events.ReportGeneratedEvent{
		ReportDataID:  report.ID,
		ReportID:      report.ReportID,
		ReportType:    string(config.Type),
		TotalRecords:  report.Metadata.TotalRecords,
		ExecutionTime: report.Metadata.ExecutionTime,
	})
	if err := g.publisher.PublishEngineEvent(ctx, event); err != nil && g.logger != nil {
		g.logger.Warn("failed to publish report.generated event",
			"report_id", report.ReportID,
			"error", err)
	}
}

// ===== REPORT ROUTINES =====

func (g *Generator) studentPerformance(params map[string]any, ds *models.Dataset) ([]processor.Row, *models.ReportSummary, error) {
	rows := make([]processor.Row, 0, len(ds.Students))
	for _, student := range ds.Students {
		var scores []float64
		submitted := 0
		for _, sub := range ds.Submissions {
			if sub.StudentID != student.ID {
				continue
			}
			submitted++
			if sub.Score != nil {
				scores = append(scores, *sub.Score)
			}
		}

		total, counted := 0, 0
		for _, rec := range ds.Attendance {
			if rec.StudentID != student.ID {
				continue
			}
			total++
			if rec.Status.Counted() {
				counted++
			}
		}
		attendanceRate := 0.0
		if total > 0 {
			attendanceRate = float64(counted) / float64(total) * 100
		}

		row := processor.Row{
			"student_id":      student.ID,
			"student_name":    student.Name,
			"cohort":          student.Cohort,
			"submissions":     submitted,
			"average_score":   round2(mean(scores)),
			"attendance_rate": round2(attendanceRate),
		}
		if len(scores) > 0 {
			if pred, err := g.engine.PredictPerformance(ds, student.ID); err == nil {
				row["risk_level"] = string(pred.RiskLevel)
				row["predicted_score"] = pred.PredictedScore
			}
		}
		rows = append(rows, row)
	}

	rows = processor.Sort(rows, []processor.SortKey{{Field: "average_score", Descending: true}})
	rows, err := applyRowFilters(rows, params)
	if err != nil {
		return nil, nil, err
	}
	return rows, summarizeStudentPerformance(rows), nil
}

func (g *Generator) courseAnalytics(params map[string]any, ds *models.Dataset) ([]processor.Row, *models.ReportSummary, error) {
	rows := make([]processor.Row, 0, len(ds.Courses))
	for _, course := range ds.Courses {
		assignmentIDs := make(map[string]bool)
		for _, a := range ds.Assignments {
			if a.CourseID == course.ID {
				assignmentIDs[a.ID] = true
			}
		}

		var scores []float64
		submitted := 0
		for _, sub := range ds.Submissions {
			if !assignmentIDs[sub.AssignmentID] {
				continue
			}
			submitted++
			if sub.Score != nil {
				scores = append(scores, *sub.Score)
			}
		}

		enrolled := 0
		for _, enr := range ds.Enrollments {
			if enr.CourseID == course.ID {
				enrolled++
			}
		}
		completion := 0.0
		if expected := len(assignmentIDs) * enrolled; expected > 0 {
			completion = float64(submitted) / float64(expected) * 100
		}

		total, counted := 0, 0
		for _, rec := range ds.Attendance {
			if rec.CourseID != course.ID {
				continue
			}
			total++
			if rec.Status.Counted() {
				counted++
			}
		}
		attendance := 0.0
		if total > 0 {
			attendance = float64(counted) / float64(total) * 100
		}

		rows = append(rows, processor.Row{
			"course_id":       course.ID,
			"course_name":     course.Name,
			"semester":        course.Semester,
			"year":            course.Year,
			"enrolled":        enrolled,
			"assignments":     len(assignmentIDs),
			"average_score":   round2(mean(scores)),
			"completion_rate": round2(completion),
			"attendance_rate": round2(attendance),
		})
	}

	rows, err := applyRowFilters(rows, params)
	if err != nil {
		return nil, nil, err
	}
	return rows, summarizeCourseAnalytics(rows), nil
}

func (g *Generator) attendanceSummary(params map[string]any, ds *models.Dataset) ([]processor.Row, *models.ReportSummary, error) {
	window := windowFromParams(params)

	records := make([]processor.Row, 0, len(ds.Attendance))
	for _, rec := range ds.Attendance {
		if !window.Contains(rec.Date) {
			continue
		}
		records = append(records, processor.Row{
			"student_id": rec.StudentID,
			"course_id":  rec.CourseID,
			"status":     string(rec.Status),
		})
	}

	rows, err := processor.Aggregate(records, "status", []processor.AggregationSpec{
		{Operation: processor.AggCount, Alias: "count"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate attendance records: %w", err)
	}

	total := float64(len(records))
	for _, row := range rows {
		share := 0.0
		if total > 0 {
			share = row["count"].(float64) / total * 100
		}
		row["percentage"] = round2(share)
	}

	rows = processor.Sort(rows, []processor.SortKey{{Field: "count", Descending: true}})
	return rows, summarizeAttendance(rows, len(records)), nil
}

// gradeBands buckets scores into letter grades, highest first.
var gradeBands = []struct {
	grade string
	min   float64
}{
	{"A", 90},
	{"B", 80},
	{"C", 70},
	{"D", 60},
	{"F", 0},
}

func (g *Generator) gradeDistribution(params map[string]any, ds *models.Dataset) ([]processor.Row, *models.ReportSummary, error) {
	window := windowFromParams(params)

	counts := make(map[string]int, len(gradeBands))
	graded := 0
	for _, sub := range ds.Submissions {
		if sub.Score == nil || !window.Contains(sub.SubmittedAt) {
			continue
		}
		graded++
		for _, band := range gradeBands {
			if *sub.Score >= band.min {
				counts[band.grade]++
				break
			}
		}
	}

	rows := make([]processor.Row, 0, len(gradeBands))
	for _, band := range gradeBands {
		share := 0.0
		if graded > 0 {
			share = float64(counts[band.grade]) / float64(graded) * 100
		}
		rows = append(rows, processor.Row{
			"grade":      band.grade,
			"count":      counts[band.grade],
			"percentage": round2(share),
		})
	}
	return rows, summarizeGradeDistribution(rows, graded), nil
}

func (g *Generator) engagementMetrics(params map[string]any, ds *models.Dataset) ([]processor.Row, *models.ReportSummary, error) {
	window := windowFromParams(params)
	set := g.engine.EngagementMetrics(ds, window)
	rows := metricRows(set)
	return rows, summarizeMetricSet("Engagement", set, rows), nil
}

func (g *Generator) financialSummary(params map[string]any, ds *models.Dataset) ([]processor.Row, *models.ReportSummary, error) {
	window := windowFromParams(params)
	set := g.engine.FinancialMetrics(ds, window)
	rows := metricRows(set)
	return rows, summarizeMetricSet("Financial", set, rows), nil
}

func (g *Generator) comparativeAnalysis(params map[string]any, ds *models.Dataset) ([]processor.Row, *models.ReportSummary, error) {
	dimension := models.ComparisonDimension(stringParam(params, "dimension"))
	baselineID := stringParam(params, "baselineId")
	comparisonIDs := stringsParam(params, "comparisonIds")
	if dimension == "" || baselineID == "" {
		return nil, nil, apperrors.NewValidationError(
			"parameters", "comparative analysis needs dimension and baselineId", params)
	}

	report, err := g.engine.Compare(dimension, baselineID, comparisonIDs, ds)
	if err != nil {
		return nil, nil, err
	}

	var rows []processor.Row
	appendEntity := func(entity models.ComparisonEntity, isBaseline bool) {
		for _, m := range entity.Metrics {
			row := processor.Row{
				"entity_id":   entity.ID,
				"entity_name": entity.Name,
				"is_baseline": isBaseline,
				"metric_id":   m.ID,
				"metric_name": m.Name,
				"value":       m.Value,
				"unit":        m.Unit,
			}
			if v, ok := entity.Variance[m.ID]; ok {
				row["variance"] = v
			}
			rows = append(rows, row)
		}
	}
	appendEntity(report.Baseline, true)
	for _, entity := range report.Comparisons {
		appendEntity(entity, false)
	}

	return rows, summarizeComparative(rows), nil
}

// ===== PARAMETER HELPERS =====

// windowFromParams reads startDate/endDate (RFC 3339 or YYYY-MM-DD) from
// the parameters; when absent it defaults to the trailing 30 days.
func windowFromParams(params map[string]any) analytics.TimeWindow {
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if t, ok := timeParam(params, "startDate"); ok {
		start = t
	}
	if t, ok := timeParam(params, "endDate"); ok {
		end = t
	}
	return analytics.TimeWindow{Start: start, End: end}
}

func timeParam(params map[string]any, key string) (time.Time, bool) {
	raw, ok := params[key]
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func stringsParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// applyRowFilters applies caller-supplied filter specs from the
// "filters" parameter to the generated rows.
func applyRowFilters(rows []processor.Row, params map[string]any) ([]processor.Row, error) {
	raw, ok := params["filters"]
	if !ok {
		return rows, nil
	}
	specs, ok := raw.([]processor.FilterSpec)
	if !ok {
		return nil, apperrors.NewValidationError("filters", "filters must be a list of filter specs", raw)
	}
	filtered, err := processor.Filter(rows, specs)
	if err != nil {
		return nil, err
	}
	return filtered, nil
}

func metricRows(set []models.AnalyticsMetric) []processor.Row {
	rows := make([]processor.Row, 0, len(set))
	for _, m := range set {
		row := processor.Row{
			"metric_id": m.ID,
			"name":      m.Name,
			"value":     m.Value,
			"unit":      m.Unit,
		}
		if m.Trend != nil {
			row["trend_direction"] = string(m.Trend.Direction)
			row["trend_percentage"] = m.Trend.Percentage
		}
		rows = append(rows, row)
	}
	return rows
}
