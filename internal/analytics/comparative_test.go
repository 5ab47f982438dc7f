package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpierre24/studio-sub001/internal/models"
)

func TestCalculateVariance(t *testing.T) {
	t.Run("identity comparison yields zero for every metric", func(t *testing.T) {
		set := []models.AnalyticsMetric{
			{ID: "a", Value: 42},
			{ID: "b", Value: 0},
			{ID: "c", Value: -7},
		}
		variance := CalculateVariance(set, set)
		require.Len(t, variance, 3)
		for id, v := range variance {
			assert.Zero(t, v, "metric %s", id)
		}
	})

	t.Run("signed percentage difference", func(t *testing.T) {
		baseline := []models.AnalyticsMetric{{ID: "m", Value: 50}}
		comparison := []models.AnalyticsMetric{{ID: "m", Value: 75}}
		assert.Equal(t, 50.0, CalculateVariance(baseline, comparison)["m"])

		comparison[0].Value = 25
		assert.Equal(t, -50.0, CalculateVariance(baseline, comparison)["m"])
	})

	t.Run("zero baseline special case", func(t *testing.T) {
		baseline := []models.AnalyticsMetric{{ID: "m", Value: 0}}
		assert.Equal(t, 100.0, CalculateVariance(baseline, []models.AnalyticsMetric{{ID: "m", Value: 3}})["m"])
		assert.Equal(t, 0.0, CalculateVariance(baseline, []models.AnalyticsMetric{{ID: "m", Value: 0}})["m"])
	})

	t.Run("metric ids missing from one side are skipped", func(t *testing.T) {
		baseline := []models.AnalyticsMetric{{ID: "only-baseline", Value: 1}}
		comparison := []models.AnalyticsMetric{{ID: "only-comparison", Value: 1}}
		assert.Empty(t, CalculateVariance(baseline, comparison))
	})
}

func TestCompare(t *testing.T) {
	engine := NewEngine(NoHistory{}, nil)
	ds := testDataset()

	t.Run("cohort dimension", func(t *testing.T) {
		report, err := engine.Compare(models.DimensionCohort, "2026A", []string{"2026A"}, ds)
		require.NoError(t, err)
		assert.Equal(t, models.DimensionCohort, report.Type)
		require.Len(t, report.Comparisons, 1)
		// Comparing the cohort with itself: all variances zero.
		for id, v := range report.Comparisons[0].Variance {
			assert.Zero(t, v, "metric %s", id)
		}
	})

	t.Run("course dimension resolves the course name", func(t *testing.T) {
		report, err := engine.Compare(models.DimensionCourse, "c1", nil, ds)
		require.NoError(t, err)
		assert.Equal(t, "Algebra", report.Baseline.Name)
		assert.Equal(t, 80.0, report.Baseline.Metrics[0].Value)
	})

	t.Run("unknown entity aborts", func(t *testing.T) {
		_, err := engine.Compare(models.DimensionCourse, "ghost", nil, ds)
		assert.Error(t, err)
	})

	t.Run("unknown dimension aborts", func(t *testing.T) {
		_, err := engine.Compare("planet", "x", nil, ds)
		assert.Error(t, err)
	})
}

func TestSignificance(t *testing.T) {
	t.Run("clearly separated samples are significant", func(t *testing.T) {
		a := []float64{50, 51, 49, 50, 52}
		b := []float64{80, 81, 79, 80, 82}
		result, err := Significance(a, b, 0.95)
		require.NoError(t, err)
		assert.True(t, result.IsSignificant)
		assert.Equal(t, 0.01, result.PValue)
		assert.Positive(t, result.TStatistic)

		// The interval brackets the observed difference of ~30.
		assert.Less(t, result.ConfidenceInterval[0], 30.0)
		assert.Greater(t, result.ConfidenceInterval[1], 30.0)
	})

	t.Run("identical samples are not significant", func(t *testing.T) {
		a := []float64{70, 72, 71, 69}
		result, err := Significance(a, a, 0.95)
		require.NoError(t, err)
		assert.False(t, result.IsSignificant)
		assert.Equal(t, 0.1, result.PValue)
		assert.Zero(t, result.TStatistic)
	})

	t.Run("confidence level moves the threshold", func(t *testing.T) {
		// A borderline difference: significant at 90%, not at 99%.
		a := []float64{50, 52, 48, 51, 49, 50}
		b := []float64{52, 54, 50, 53, 51, 52}

		loose, err := Significance(a, b, 0.90)
		require.NoError(t, err)
		strict, err := Significance(a, b, 0.99)
		require.NoError(t, err)

		assert.True(t, loose.IsSignificant)
		assert.False(t, strict.IsSignificant)
	})

	t.Run("tiny samples rejected", func(t *testing.T) {
		_, err := Significance([]float64{1}, []float64{2, 3}, 0.95)
		assert.Error(t, err)
	})
}

func TestSampleVariance(t *testing.T) {
	// n-1 denominator: variance of {2, 4, 6} is 4.
	assert.InDelta(t, 4.0, sampleVariance([]float64{2, 4, 6}), 1e-9)
	assert.False(t, math.IsNaN(sampleVariance([]float64{1, 1})))
}
