package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpierre24/studio-sub001/internal/analytics"
	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/events"
	"github.com/kpierre24/studio-sub001/internal/models"
)

func score(v float64) *float64 { return &v }

func fixtureDataset() *models.Dataset {
	base := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	return &models.Dataset{
		Students: []models.Student{
			{ID: "s1", Name: "Ada", Cohort: "2026A"},
			{ID: "s2", Name: "Grace", Cohort: "2026A"},
		},
		Courses: []models.Course{
			{ID: "c1", Name: "Algebra", Semester: "2026-fall", Year: 2026},
		},
		Enrollments: []models.Enrollment{
			{ID: "e1", StudentID: "s1", CourseID: "c1"},
			{ID: "e2", StudentID: "s2", CourseID: "c1"},
		},
		Assignments: []models.Assignment{
			{ID: "a1", CourseID: "c1", MaxScore: 100, DueAt: base},
		},
		Submissions: []models.Submission{
			{ID: "sub1", AssignmentID: "a1", StudentID: "s1", Score: score(95), SubmittedAt: base},
			{ID: "sub2", AssignmentID: "a1", StudentID: "s2", Score: score(55), SubmittedAt: base},
		},
		Attendance: []models.AttendanceRecord{
			{ID: "at1", StudentID: "s1", CourseID: "c1", Date: base, Status: models.AttendancePresent},
			{ID: "at2", StudentID: "s2", CourseID: "c1", Date: base, Status: models.AttendanceAbsent},
		},
		Payments: []models.Payment{
			{ID: "p1", StudentID: "s1", CourseID: "c1", Amount: 500, Status: models.PaymentPaid, DueAt: base},
		},
		Events: []models.ActivityEvent{
			{ID: "ev1", ActorID: "s1", Type: "login", OccurredAt: base},
		},
	}
}

func fixtureParams() map[string]any {
	return map[string]any{
		"startDate": "2026-07-01",
		"endDate":   "2026-08-01",
	}
}

func newTestGenerator() (*Generator, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(nil)
	engine := analytics.NewEngine(analytics.NoHistory{}, nil)
	return NewGenerator(engine, publisher, nil), publisher
}

func TestGenerateUnknownType(t *testing.T) {
	gen, _ := newTestGenerator()

	_, err := gen.Generate(context.Background(), models.ReportConfig{ID: "r1", Type: "horoscope"}, nil, fixtureDataset())
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestGenerateAllTypes(t *testing.T) {
	gen, publisher := newTestGenerator()
	ds := fixtureDataset()

	types := []models.ReportType{
		models.ReportStudentPerformance,
		models.ReportCourseAnalytics,
		models.ReportAttendanceSummary,
		models.ReportGradeDistribution,
		models.ReportEngagementMetrics,
		models.ReportFinancialSummary,
	}
	for _, reportType := range types {
		t.Run(string(reportType), func(t *testing.T) {
			report, err := gen.Generate(context.Background(),
				models.ReportConfig{ID: "r-" + string(reportType), Type: reportType},
				fixtureParams(), ds)
			require.NoError(t, err)

			assert.NotEmpty(t, report.ID)
			assert.Equal(t, "r-"+string(reportType), report.ReportID)
			assert.Equal(t, len(report.Data), report.Metadata.TotalRecords)
			require.NotNil(t, report.Summary)
			assert.NotEmpty(t, report.Summary.KeyMetrics)
			assert.NotEmpty(t, report.Summary.Insights)
		})
	}

	published := publisher.GetPublishedEvents()
	assert.Len(t, published, len(types))
	for _, event := range published {
		assert.Equal(t, events.EventReportGenerated, event.Type)
	}
}

func TestStudentPerformanceReport(t *testing.T) {
	gen, _ := newTestGenerator()

	report, err := gen.Generate(context.Background(),
		models.ReportConfig{ID: "r1", Type: models.ReportStudentPerformance},
		nil, fixtureDataset())
	require.NoError(t, err)

	require.Len(t, report.Data, 2)
	// Sorted by average score, best first.
	assert.Equal(t, "Ada", report.Data[0]["student_name"])
	assert.Equal(t, 95.0, report.Data[0]["average_score"])
	assert.Equal(t, "Grace", report.Data[1]["student_name"])

	// Grace: 0.7*55 + 0.3*0 = 38.5, high risk.
	assert.Equal(t, string(models.RiskHigh), report.Data[1]["risk_level"])
}

func TestGradeDistributionReport(t *testing.T) {
	gen, _ := newTestGenerator()

	report, err := gen.Generate(context.Background(),
		models.ReportConfig{ID: "r1", Type: models.ReportGradeDistribution},
		fixtureParams(), fixtureDataset())
	require.NoError(t, err)

	byGrade := make(map[string]map[string]any)
	for _, row := range report.Data {
		byGrade[row["grade"].(string)] = row
	}
	require.Len(t, byGrade, 5)
	assert.Equal(t, 1, byGrade["A"]["count"])
	assert.Equal(t, 1, byGrade["F"]["count"])
	assert.Equal(t, 0, byGrade["C"]["count"])
	assert.Equal(t, 50.0, byGrade["A"]["percentage"])
}

func TestAttendanceSummaryReport(t *testing.T) {
	gen, _ := newTestGenerator()

	report, err := gen.Generate(context.Background(),
		models.ReportConfig{ID: "r1", Type: models.ReportAttendanceSummary},
		fixtureParams(), fixtureDataset())
	require.NoError(t, err)

	require.Len(t, report.Data, 2)
	for _, row := range report.Data {
		assert.Equal(t, 1.0, row["count"])
		assert.Equal(t, 50.0, row["percentage"])
	}
}

func TestComparativeAnalysisReport(t *testing.T) {
	gen, _ := newTestGenerator()
	ds := fixtureDataset()

	t.Run("missing parameters rejected", func(t *testing.T) {
		_, err := gen.Generate(context.Background(),
			models.ReportConfig{ID: "r1", Type: models.ReportComparativeAnalysis},
			map[string]any{}, ds)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("cohort self comparison", func(t *testing.T) {
		report, err := gen.Generate(context.Background(),
			models.ReportConfig{ID: "r1", Type: models.ReportComparativeAnalysis},
			map[string]any{
				"dimension":     "cohort",
				"baselineId":    "2026A",
				"comparisonIds": []string{"2026A"},
			}, ds)
		require.NoError(t, err)

		// 3 metrics for the baseline plus 3 for the comparison entity.
		assert.Len(t, report.Data, 6)
		for _, row := range report.Data {
			if row["is_baseline"] == false {
				assert.Equal(t, 0.0, row["variance"])
			}
		}
	})
}
