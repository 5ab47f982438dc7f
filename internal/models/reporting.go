package models

import (
	"time"
)

// TrendDirection classifies a metric's movement against its baseline.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// MetricTrend describes how a metric moved relative to its historical
// baseline over a named period.
type MetricTrend struct {
	Direction  TrendDirection `json:"direction"`
	Percentage float64        `json:"percentage"`
	Period     string         `json:"period"`
}

// AnalyticsMetric is one computed metric. Identity is ID within a metric
// set; a metric set is an ordered sequence, not keyed storage.
type AnalyticsMetric struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Value     float64      `json:"value"`
	Unit      string       `json:"unit"`
	Trend     *MetricTrend `json:"trend,omitempty"`
	Benchmark *float64     `json:"benchmark,omitempty"`
	Target    *float64     `json:"target,omitempty"`
}

// ReportType identifies which generation routine and parameter schema apply.
type ReportType string

const (
	ReportStudentPerformance  ReportType = "student-performance"
	ReportCourseAnalytics     ReportType = "course-analytics"
	ReportAttendanceSummary   ReportType = "attendance-summary"
	ReportGradeDistribution   ReportType = "grade-distribution"
	ReportEngagementMetrics   ReportType = "engagement-metrics"
	ReportFinancialSummary    ReportType = "financial-summary"
	ReportComparativeAnalysis ReportType = "comparative-analysis"
)

// ReportConfig is immutable once referenced by a ReportData.
type ReportConfig struct {
	ID   string     `json:"id"`
	Type ReportType `json:"type" validate:"required,report_type"`
}

// ReportMetadata describes one generation call.
type ReportMetadata struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	Parameters    map[string]any `json:"parameters"`
	TotalRecords  int            `json:"total_records"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// ReportSummary carries the headline metrics and the human-readable
// reading of a report. Insights are derived only from the report's rows.
type ReportSummary struct {
	KeyMetrics      []AnalyticsMetric `json:"key_metrics"`
	Insights        []string          `json:"insights"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// ReportData is produced once per generation call and never mutated
// afterward; a new generation produces a new ReportData.
// Invariant: Metadata.TotalRecords == len(Data).
type ReportData struct {
	ID       string           `json:"id"`
	ReportID string           `json:"report_id"`
	Data     []map[string]any `json:"data"`
	Metadata ReportMetadata   `json:"metadata"`
	Summary  *ReportSummary   `json:"summary,omitempty"`
}

// ===== COMPARATIVE ANALYSIS =====

// ComparisonDimension is the unit of comparison.
type ComparisonDimension string

const (
	DimensionCourse   ComparisonDimension = "course"
	DimensionSemester ComparisonDimension = "semester"
	DimensionYear     ComparisonDimension = "year"
	DimensionCohort   ComparisonDimension = "cohort"
)

// ComparisonEntity is one side of a comparison: an entity's metric set,
// and for non-baseline entities the per-metric signed percentage variance
// from the baseline.
type ComparisonEntity struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Metrics  []AnalyticsMetric  `json:"metrics"`
	Variance map[string]float64 `json:"variance,omitempty"`
}

// ComparativeReport is the output of a Compare call.
type ComparativeReport struct {
	ID          string              `json:"id"`
	Type        ComparisonDimension `json:"type"`
	Baseline    ComparisonEntity    `json:"baseline"`
	Comparisons []ComparisonEntity  `json:"comparisons"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// SignificanceResult is the outcome of a two-sample significance test.
// The p-value is a coarse bucket, not a distribution lookup.
type SignificanceResult struct {
	IsSignificant      bool       `json:"is_significant"`
	TStatistic         float64    `json:"t_statistic"`
	PValue             float64    `json:"p_value"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
}

// TrendAnalysis is the result of an ordinary least-squares fit over a
// series of values indexed 0..n-1.
type TrendAnalysis struct {
	Trend       string    `json:"trend"` // increasing | decreasing | stable
	Slope       float64   `json:"slope"`
	Correlation float64   `json:"correlation"`
	Forecast    []float64 `json:"forecast"`
}

// RiskLevel buckets a predicted performance score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// PerformancePrediction is the per-student risk assessment.
type PerformancePrediction struct {
	StudentID       string    `json:"student_id"`
	PredictedScore  float64   `json:"predicted_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	GradeAverage    float64   `json:"grade_average"`
	AttendanceRate  float64   `json:"attendance_rate"`
	Recommendations []string  `json:"recommendations"`
}
