// Package analytics computes domain metric sets, per-student risk
// predictions and trend regressions over an operational dataset.
package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/kpierre24/studio-sub001/internal/models"
)

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Label names the window for trend periods, e.g. "2026-07-01..2026-08-01".
func (w TimeWindow) Label() string {
	return w.Start.Format("2006-01-02") + ".." + w.End.Format("2006-01-02")
}

// stabilityBand is the relative change, in percent, inside which a metric
// counts as stable rather than up or down.
const stabilityBand = 5.0

// Engine computes metric sets. All computation is synchronous and pure
// apart from baseline lookups through the injected HistoryProvider.
type Engine struct {
	history HistoryProvider
	logger  *slog.Logger
}

func NewEngine(history HistoryProvider, logger *slog.Logger) *Engine {
	if history == nil {
		history = NoHistory{}
	}
	return &Engine{history: history, logger: logger}
}

// ===== ENGAGEMENT METRICS =====

// EngagementMetrics computes active users, submission rate and attendance
// rate over the window, each with a trend against its historical baseline.
func (e *Engine) EngagementMetrics(ds *models.Dataset, window TimeWindow) []models.AnalyticsMetric {
	actors := make(map[string]bool)
	for _, event := range ds.Events {
		if window.Contains(event.OccurredAt) {
			actors[event.ActorID] = true
		}
	}

	submissions := 0
	for _, sub := range ds.Submissions {
		if window.Contains(sub.SubmittedAt) {
			submissions++
		}
	}
	assignments := 0
	for _, a := range ds.Assignments {
		if window.Contains(a.DueAt) {
			assignments++
		}
	}
	submissionRate := 0.0
	if expected := assignments * len(ds.Students); expected > 0 {
		submissionRate = float64(submissions) / float64(expected) * 100
	}

	return []models.AnalyticsMetric{
		e.metric("active-users", "Active Users", float64(len(actors)), "users", window),
		e.metric("submission-rate", "Submission Rate", round2(submissionRate), "%", window),
		e.metric("attendance-rate", "Attendance Rate", round2(e.attendanceRate(ds.Attendance, window)), "%", window),
	}
}

func (e *Engine) attendanceRate(records []models.AttendanceRecord, window TimeWindow) float64 {
	total, counted := 0, 0
	for _, rec := range records {
		if !window.Contains(rec.Date) {
			continue
		}
		total++
		if rec.Status.Counted() {
			counted++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(counted) / float64(total) * 100
}

// ===== PERFORMANCE METRICS =====

// PerformanceMetrics computes average score, completion rate and score
// variance (population standard deviation, rounded) over the window.
func (e *Engine) PerformanceMetrics(ds *models.Dataset, window TimeWindow) []models.AnalyticsMetric {
	var scores []float64
	submissions := 0
	for _, sub := range ds.Submissions {
		if !window.Contains(sub.SubmittedAt) {
			continue
		}
		submissions++
		if sub.Score != nil {
			scores = append(scores, *sub.Score)
		}
	}

	assignments := 0
	for _, a := range ds.Assignments {
		if window.Contains(a.DueAt) {
			assignments++
		}
	}
	completionRate := 0.0
	if expected := assignments * len(ds.Students); expected > 0 {
		completionRate = float64(submissions) / float64(expected) * 100
	}

	return []models.AnalyticsMetric{
		e.metric("average-score", "Average Score", round2(mean(scores)), "points", window),
		e.metric("completion-rate", "Completion Rate", round2(completionRate), "%", window),
		e.metric("score-variance", "Score Variance", math.Round(stddev(scores)), "points", window),
	}
}

// ===== FINANCIAL METRICS =====

// FinancialMetrics computes collected revenue, collection rate and average
// revenue per course over the window. Window membership follows the
// payment's due date; revenue counts only paid records.
func (e *Engine) FinancialMetrics(ds *models.Dataset, window TimeWindow) []models.AnalyticsMetric {
	total, paid := 0, 0
	revenue := 0.0
	courses := make(map[string]bool)
	for _, p := range ds.Payments {
		if !window.Contains(p.DueAt) {
			continue
		}
		total++
		if p.Status == models.PaymentPaid {
			paid++
			revenue += p.Amount
			courses[p.CourseID] = true
		}
	}

	collectionRate := 0.0
	if total > 0 {
		collectionRate = float64(paid) / float64(total) * 100
	}
	perCourse := 0.0
	if len(courses) > 0 {
		perCourse = revenue / float64(len(courses))
	}

	return []models.AnalyticsMetric{
		e.metric("total-revenue", "Total Revenue", round2(revenue), "USD", window),
		e.metric("collection-rate", "Collection Rate", round2(collectionRate), "%", window),
		e.metric("revenue-per-course", "Avg Revenue per Course", round2(perCourse), "USD", window),
	}
}

// ===== RISK PREDICTION =====

const (
	gradeWeight      = 0.7
	attendanceWeight = 0.3
)

// PredictPerformance predicts a student's score from their five most
// recent graded submissions and their attendance rate over all available
// records. Holding the grade average fixed, the prediction is strictly
// increasing in attendance rate.
func (e *Engine) PredictPerformance(ds *models.Dataset, studentID string) (*models.PerformancePrediction, error) {
	var graded []models.Submission
	for _, sub := range ds.Submissions {
		if sub.StudentID == studentID && sub.Score != nil {
			graded = append(graded, sub)
		}
	}
	if len(graded) == 0 {
		return nil, fmt.Errorf("no graded submissions for student %s", studentID)
	}

	sort.Slice(graded, func(i, j int) bool {
		return graded[i].SubmittedAt.After(graded[j].SubmittedAt)
	})
	if len(graded) > 5 {
		graded = graded[:5]
	}
	var scores []float64
	for _, sub := range graded {
		scores = append(scores, *sub.Score)
	}
	gradeAvg := mean(scores)

	var studentAttendance []models.AttendanceRecord
	for _, rec := range ds.Attendance {
		if rec.StudentID == studentID {
			studentAttendance = append(studentAttendance, rec)
		}
	}
	attendanceRate := 0.0
	if len(studentAttendance) > 0 {
		counted := 0
		for _, rec := range studentAttendance {
			if rec.Status.Counted() {
				counted++
			}
		}
		attendanceRate = float64(counted) / float64(len(studentAttendance)) * 100
	}

	predicted := gradeWeight*gradeAvg + attendanceWeight*attendanceRate

	var level models.RiskLevel
	switch {
	case predicted < 60:
		level = models.RiskHigh
	case predicted < 75:
		level = models.RiskMedium
	default:
		level = models.RiskLow
	}

	prediction := &models.PerformancePrediction{
		StudentID:       studentID,
		PredictedScore:  round2(predicted),
		RiskLevel:       level,
		GradeAverage:    round2(gradeAvg),
		AttendanceRate:  round2(attendanceRate),
		Recommendations: riskRecommendations(level, attendanceRate),
	}

	if e.logger != nil {
		e.logger.Debug("performance predicted",
			"student_id", studentID,
			"predicted_score", prediction.PredictedScore,
			"risk_level", level)
	}
	return prediction, nil
}

func riskRecommendations(level models.RiskLevel, attendanceRate float64) []string {
	var recs []string
	switch level {
	case models.RiskHigh:
		recs = append(recs,
			"Schedule an immediate intervention meeting with the student",
			"Assign supplementary practice material for recent topics")
	case models.RiskMedium:
		recs = append(recs,
			"Monitor upcoming submissions closely",
			"Offer optional tutoring sessions")
	default:
		recs = append(recs, "Keep up the current study routine")
	}
	// Attendance advice applies regardless of tier.
	if attendanceRate < 80 {
		recs = append(recs, "Improve class attendance; it is dragging the predicted score down")
	}
	return recs
}

// ===== TREND / REGRESSION =====

// slopeStabilityBand: slopes at or below this magnitude classify as stable.
const slopeStabilityBand = 0.1

// AnalyzeTrend fits value against index by ordinary least squares and
// extrapolates the next three values. Series shorter than two points are
// stable with an empty forecast.
func (e *Engine) AnalyzeTrend(series []float64) models.TrendAnalysis {
	n := len(series)
	if n < 2 {
		return models.TrendAnalysis{Trend: "stable", Forecast: []float64{}}
	}

	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}
	fn := float64(n)

	denom := fn*sumXX - sumX*sumX
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	correlation := 0.0
	if spread := math.Sqrt(fn*sumXX-sumX*sumX) * math.Sqrt(fn*sumYY-sumY*sumY); spread > 0 {
		correlation = (fn*sumXY - sumX*sumY) / spread
	}

	forecast := make([]float64, 3)
	for i := range forecast {
		forecast[i] = round2(intercept + slope*float64(n+i))
	}

	trend := "stable"
	switch {
	case slope > slopeStabilityBand:
		trend = "increasing"
	case slope < -slopeStabilityBand:
		trend = "decreasing"
	}

	return models.TrendAnalysis{
		Trend:       trend,
		Slope:       round2(slope),
		Correlation: round2(correlation),
		Forecast:    forecast,
	}
}

// ===== HELPERS =====

func (e *Engine) metric(id, name string, value float64, unit string, window TimeWindow) models.AnalyticsMetric {
	return models.AnalyticsMetric{
		ID:    id,
		Name:  name,
		Value: value,
		Unit:  unit,
		Trend: e.trendFor(id, value, window),
	}
}

func (e *Engine) trendFor(metricID string, current float64, window TimeWindow) *models.MetricTrend {
	baseline, ok := e.history.Baseline(metricID)
	if !ok {
		return &models.MetricTrend{Direction: models.TrendStable, Period: window.Label()}
	}

	var pct float64
	switch {
	case baseline != 0:
		pct = (current - baseline) / baseline * 100
	case current > 0:
		pct = 100
	}

	direction := models.TrendStable
	switch {
	case pct > stabilityBand:
		direction = models.TrendUp
	case pct < -stabilityBand:
		direction = models.TrendDown
	}

	return &models.MetricTrend{
		Direction:  direction,
		Percentage: round2(pct),
		Period:     window.Label(),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
