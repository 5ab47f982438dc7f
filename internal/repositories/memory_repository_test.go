package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpierre24/studio-sub001/internal/models"
)

func TestMemoryRepositoryFilters(t *testing.T) {
	july := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	september := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	repo := NewMemoryRepository(&models.Dataset{
		Students: []models.Student{
			{ID: "s1", Cohort: "2026A"},
			{ID: "s2", Cohort: "2026B"},
		},
		Courses: []models.Course{
			{ID: "c1"}, {ID: "c2"},
		},
		Submissions: []models.Submission{
			{ID: "sub1", StudentID: "s1", SubmittedAt: july},
			{ID: "sub2", StudentID: "s1", SubmittedAt: september},
		},
		Attendance: []models.AttendanceRecord{
			{ID: "at1", StudentID: "s1", CourseID: "c1", Date: july},
			{ID: "at2", StudentID: "s2", CourseID: "c2", Date: july},
		},
	})
	ctx := context.Background()

	t.Run("no filter returns everything", func(t *testing.T) {
		ds, err := repo.LoadDataset(ctx, DatasetFilter{})
		require.NoError(t, err)
		assert.Len(t, ds.Students, 2)
		assert.Len(t, ds.Submissions, 2)
	})

	t.Run("cohort filter", func(t *testing.T) {
		ds, err := repo.LoadDataset(ctx, DatasetFilter{Cohort: "2026A"})
		require.NoError(t, err)
		require.Len(t, ds.Students, 1)
		assert.Equal(t, "s1", ds.Students[0].ID)
	})

	t.Run("course filter", func(t *testing.T) {
		ds, err := repo.LoadDataset(ctx, DatasetFilter{CourseIDs: []string{"c1"}})
		require.NoError(t, err)
		require.Len(t, ds.Courses, 1)
		require.Len(t, ds.Attendance, 1)
		assert.Equal(t, "at1", ds.Attendance[0].ID)
	})

	t.Run("time window is half open", func(t *testing.T) {
		ds, err := repo.LoadDataset(ctx, DatasetFilter{
			From: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, ds.Submissions, 1)
		assert.Equal(t, "sub1", ds.Submissions[0].ID)
	})
}
