package reports

import (
	"fmt"
	"math"

	"github.com/kpierre24/studio-sub001/internal/models"
	"github.com/kpierre24/studio-sub001/internal/processor"
)

// Summary routines. Every insight is computed from the generated rows
// alone so a summary can be re-derived from the stored report.

func summarizeStudentPerformance(rows []processor.Row) *models.ReportSummary {
	var scores []float64
	atRisk := 0
	for _, row := range rows {
		if v, ok := rowFloat(row, "average_score"); ok {
			scores = append(scores, v)
		}
		if level, _ := row["risk_level"].(string); level == string(models.RiskHigh) {
			atRisk++
		}
	}

	summary := &models.ReportSummary{
		KeyMetrics: []models.AnalyticsMetric{
			{ID: "students", Name: "Students", Value: float64(len(rows)), Unit: "students"},
			{ID: "class-average", Name: "Class Average", Value: round2(mean(scores)), Unit: "points"},
			{ID: "at-risk", Name: "At-Risk Students", Value: float64(atRisk), Unit: "students"},
		},
		Insights: []string{
			fmt.Sprintf("%d students covered with a class average of %.1f", len(rows), mean(scores)),
			fmt.Sprintf("%d students are currently classified high risk", atRisk),
		},
	}
	if atRisk > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"Review the high-risk students and schedule interventions")
	}
	return summary
}

func summarizeCourseAnalytics(rows []processor.Row) *models.ReportSummary {
	var completions, attendances []float64
	for _, row := range rows {
		if v, ok := rowFloat(row, "completion_rate"); ok {
			completions = append(completions, v)
		}
		if v, ok := rowFloat(row, "attendance_rate"); ok {
			attendances = append(attendances, v)
		}
	}

	return &models.ReportSummary{
		KeyMetrics: []models.AnalyticsMetric{
			{ID: "courses", Name: "Courses", Value: float64(len(rows)), Unit: "courses"},
			{ID: "avg-completion", Name: "Avg Completion Rate", Value: round2(mean(completions)), Unit: "%"},
			{ID: "avg-attendance", Name: "Avg Attendance Rate", Value: round2(mean(attendances)), Unit: "%"},
		},
		Insights: []string{
			fmt.Sprintf("%d courses analyzed", len(rows)),
			fmt.Sprintf("Average completion rate across courses is %.1f%%", mean(completions)),
		},
	}
}

func summarizeAttendance(rows []processor.Row, totalRecords int) *models.ReportSummary {
	countedShare := 0.0
	for _, row := range rows {
		status, _ := row["status"].(string)
		if models.AttendanceStatus(status).Counted() {
			if v, ok := rowFloat(row, "percentage"); ok {
				countedShare += v
			}
		}
	}

	summary := &models.ReportSummary{
		KeyMetrics: []models.AnalyticsMetric{
			{ID: "records", Name: "Attendance Records", Value: float64(totalRecords), Unit: "records"},
			{ID: "attendance-rate", Name: "Attendance Rate", Value: round2(countedShare), Unit: "%"},
		},
		Insights: []string{
			fmt.Sprintf("%d attendance records in the reporting window", totalRecords),
			fmt.Sprintf("Overall attendance rate is %.1f%%", countedShare),
		},
	}
	if countedShare < 80 && totalRecords > 0 {
		summary.Recommendations = append(summary.Recommendations,
			"Attendance is below 80%; investigate the most affected courses")
	}
	return summary
}

func summarizeGradeDistribution(rows []processor.Row, graded int) *models.ReportSummary {
	failing := 0.0
	top := ""
	topCount := -1.0
	for _, row := range rows {
		grade, _ := row["grade"].(string)
		count, _ := rowFloat(row, "count")
		if count > topCount {
			top, topCount = grade, count
		}
		if grade == "F" {
			failing, _ = rowFloat(row, "percentage")
		}
	}

	return &models.ReportSummary{
		KeyMetrics: []models.AnalyticsMetric{
			{ID: "graded", Name: "Graded Submissions", Value: float64(graded), Unit: "submissions"},
			{ID: "failing-share", Name: "Failing Share", Value: round2(failing), Unit: "%"},
		},
		Insights: []string{
			fmt.Sprintf("%d graded submissions distributed across letter grades", graded),
			fmt.Sprintf("The most common grade is %s", top),
			fmt.Sprintf("%.1f%% of graded submissions are failing", failing),
		},
	}
}

// summarizeMetricSet covers the metric-set reports (engagement,
// financial): the key metrics are the set itself.
func summarizeMetricSet(label string, set []models.AnalyticsMetric, rows []processor.Row) *models.ReportSummary {
	insights := []string{
		fmt.Sprintf("%s report covering %d metrics", label, len(rows)),
	}
	for _, m := range set {
		if m.Trend != nil && m.Trend.Direction != models.TrendStable {
			insights = append(insights, fmt.Sprintf("%s moved %s by %.1f%% against its baseline",
				m.Name, m.Trend.Direction, math.Abs(m.Trend.Percentage)))
		}
	}
	return &models.ReportSummary{
		KeyMetrics: set,
		Insights:   insights,
	}
}

func summarizeComparative(rows []processor.Row) *models.ReportSummary {
	entities := make(map[string]bool)
	largest := 0.0
	largestLabel := ""
	for _, row := range rows {
		if id, _ := row["entity_id"].(string); id != "" {
			entities[id] = true
		}
		if v, ok := rowFloat(row, "variance"); ok && math.Abs(v) > math.Abs(largest) {
			largest = v
			name, _ := row["entity_name"].(string)
			metric, _ := row["metric_name"].(string)
			largestLabel = fmt.Sprintf("%s / %s", name, metric)
		}
	}

	insights := []string{
		fmt.Sprintf("%d entities compared", len(entities)),
	}
	if largestLabel != "" {
		insights = append(insights,
			fmt.Sprintf("Largest variance from baseline: %s at %+.1f%%", largestLabel, largest))
	}
	return &models.ReportSummary{
		KeyMetrics: []models.AnalyticsMetric{
			{ID: "entities", Name: "Entities Compared", Value: float64(len(entities)), Unit: "entities"},
			{ID: "largest-variance", Name: "Largest Variance", Value: round2(largest), Unit: "%"},
		},
		Insights: insights,
	}
}

// ===== HELPERS =====

func rowFloat(row processor.Row, field string) (float64, bool) {
	switch v := row[field].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
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

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
