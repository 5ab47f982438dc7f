package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpierre24/studio-sub001/internal/models"
)

func score(v float64) *float64 { return &v }

func testWindow() TimeWindow {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return TimeWindow{Start: start, End: start.AddDate(0, 1, 0)}
}

func testDataset() *models.Dataset {
	w := testWindow()
	in := w.Start.Add(24 * time.Hour)

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
			{ID: "a1", CourseID: "c1", MaxScore: 100, DueAt: in},
		},
		Submissions: []models.Submission{
			{ID: "sub1", AssignmentID: "a1", StudentID: "s1", Score: score(90), SubmittedAt: in},
			{ID: "sub2", AssignmentID: "a1", StudentID: "s2", Score: score(70), SubmittedAt: in},
		},
		Attendance: []models.AttendanceRecord{
			{ID: "at1", StudentID: "s1", CourseID: "c1", Date: in, Status: models.AttendancePresent},
			{ID: "at2", StudentID: "s2", CourseID: "c1", Date: in, Status: models.AttendanceAbsent},
		},
		Payments: []models.Payment{
			{ID: "p1", StudentID: "s1", CourseID: "c1", Amount: 500, Status: models.PaymentPaid, DueAt: in},
			{ID: "p2", StudentID: "s2", CourseID: "c1", Amount: 500, Status: models.PaymentPending, DueAt: in},
		},
		Events: []models.ActivityEvent{
			{ID: "ev1", ActorID: "s1", Type: "login", OccurredAt: in},
			{ID: "ev2", ActorID: "s1", Type: "submission", OccurredAt: in},
			{ID: "ev3", ActorID: "s2", Type: "login", OccurredAt: w.End.Add(time.Hour)}, // outside window
		},
	}
}

func metricByID(t *testing.T, set []models.AnalyticsMetric, id string) models.AnalyticsMetric {
	t.Helper()
	for _, m := range set {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("metric %q not in set", id)
	return models.AnalyticsMetric{}
}

func TestEngagementMetrics(t *testing.T) {
	engine := NewEngine(StaticHistory{"active-users": 1}, nil)
	set := engine.EngagementMetrics(testDataset(), testWindow())

	active := metricByID(t, set, "active-users")
	assert.Equal(t, 1.0, active.Value, "only s1 acted inside the window")

	// Baseline 1 -> current 1 is a 0% move, inside the stability band.
	require.NotNil(t, active.Trend)
	assert.Equal(t, models.TrendStable, active.Trend.Direction)

	submission := metricByID(t, set, "submission-rate")
	assert.Equal(t, 100.0, submission.Value, "2 submissions over 1 assignment x 2 students")

	attendance := metricByID(t, set, "attendance-rate")
	assert.Equal(t, 50.0, attendance.Value)
}

func TestTrendClassification(t *testing.T) {
	window := testWindow()
	cases := []struct {
		name      string
		baseline  float64
		current   float64
		direction models.TrendDirection
	}{
		{"inside band is stable", 100, 104, models.TrendStable},
		{"above band is up", 100, 110, models.TrendUp},
		{"below band is down", 100, 90, models.TrendDown},
		{"zero baseline positive current", 0, 5, models.TrendUp},
		{"zero baseline zero current", 0, 0, models.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(StaticHistory{"m": tc.baseline}, nil)
			trend := engine.trendFor("m", tc.current, window)
			assert.Equal(t, tc.direction, trend.Direction)
		})
	}
}

func TestPerformanceMetrics(t *testing.T) {
	engine := NewEngine(NoHistory{}, nil)
	set := engine.PerformanceMetrics(testDataset(), testWindow())

	assert.Equal(t, 80.0, metricByID(t, set, "average-score").Value)
	assert.Equal(t, 100.0, metricByID(t, set, "completion-rate").Value)
	// Population stddev of {90, 70} is 10.
	assert.Equal(t, 10.0, metricByID(t, set, "score-variance").Value)
}

func TestFinancialMetrics(t *testing.T) {
	engine := NewEngine(NoHistory{}, nil)
	set := engine.FinancialMetrics(testDataset(), testWindow())

	assert.Equal(t, 500.0, metricByID(t, set, "total-revenue").Value)
	assert.Equal(t, 50.0, metricByID(t, set, "collection-rate").Value)
	assert.Equal(t, 500.0, metricByID(t, set, "revenue-per-course").Value)
}

func TestPredictPerformance(t *testing.T) {
	engine := NewEngine(NoHistory{}, nil)
	ds := testDataset()

	t.Run("weighted prediction", func(t *testing.T) {
		pred, err := engine.PredictPerformance(ds, "s1")
		require.NoError(t, err)
		// 0.7*90 + 0.3*100 = 93
		assert.Equal(t, 93.0, pred.PredictedScore)
		assert.Equal(t, models.RiskLow, pred.RiskLevel)
	})

	t.Run("attendance below 80 adds the attendance recommendation", func(t *testing.T) {
		pred, err := engine.PredictPerformance(ds, "s2")
		require.NoError(t, err)
		// 0.7*70 + 0.3*0 = 49
		assert.Equal(t, models.RiskHigh, pred.RiskLevel)

		found := false
		for _, rec := range pred.Recommendations {
			if rec == "Improve class attendance; it is dragging the predicted score down" {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("monotone in attendance with grades fixed", func(t *testing.T) {
		base := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
		makeDS := func(present int) *models.Dataset {
			ds := &models.Dataset{
				Submissions: []models.Submission{
					{ID: "x", AssignmentID: "a", StudentID: "s", Score: score(75), SubmittedAt: base},
				},
			}
			for i := 0; i < 10; i++ {
				status := models.AttendanceAbsent
				if i < present {
					status = models.AttendancePresent
				}
				ds.Attendance = append(ds.Attendance, models.AttendanceRecord{
					ID: "r", StudentID: "s", Date: base, Status: status,
				})
			}
			return ds
		}

		prev := -1.0
		for present := 0; present <= 10; present++ {
			pred, err := engine.PredictPerformance(makeDS(present), "s")
			require.NoError(t, err)
			assert.Greater(t, pred.PredictedScore, prev)
			prev = pred.PredictedScore
		}
	})

	t.Run("only the most recent five scores count", func(t *testing.T) {
		ds := &models.Dataset{}
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		// Five recent 100s after an old 0: the 0 must not count.
		ds.Submissions = append(ds.Submissions, models.Submission{
			ID: "old", StudentID: "s", Score: score(0), SubmittedAt: base,
		})
		for i := 0; i < 5; i++ {
			ds.Submissions = append(ds.Submissions, models.Submission{
				ID: "n", StudentID: "s", Score: score(100), SubmittedAt: base.AddDate(0, 1+i, 0),
			})
		}
		pred, err := engine.PredictPerformance(ds, "s")
		require.NoError(t, err)
		assert.Equal(t, 100.0, pred.GradeAverage)
	})

	t.Run("no graded submissions is an error", func(t *testing.T) {
		_, err := engine.PredictPerformance(&models.Dataset{}, "nobody")
		assert.Error(t, err)
	})
}

func TestAnalyzeTrend(t *testing.T) {
	engine := NewEngine(NoHistory{}, nil)

	t.Run("short series", func(t *testing.T) {
		for _, series := range [][]float64{nil, {}, {42}} {
			got := engine.AnalyzeTrend(series)
			assert.Equal(t, "stable", got.Trend)
			assert.Zero(t, got.Slope)
			assert.Zero(t, got.Correlation)
			assert.Empty(t, got.Forecast)
		}
	})

	t.Run("perfect linear series", func(t *testing.T) {
		got := engine.AnalyzeTrend([]float64{10, 20, 30, 40})
		assert.Equal(t, "increasing", got.Trend)
		assert.Equal(t, 10.0, got.Slope)
		assert.Equal(t, 1.0, got.Correlation)
		assert.Equal(t, []float64{50, 60, 70}, got.Forecast)
	})

	t.Run("flat series is stable", func(t *testing.T) {
		got := engine.AnalyzeTrend([]float64{5, 5, 5, 5})
		assert.Equal(t, "stable", got.Trend)
		assert.Zero(t, got.Slope)
	})

	t.Run("decreasing series", func(t *testing.T) {
		got := engine.AnalyzeTrend([]float64{40, 30, 20, 10})
		assert.Equal(t, "decreasing", got.Trend)
		assert.Equal(t, -10.0, got.Slope)
		assert.Equal(t, -1.0, got.Correlation)
	})
}
