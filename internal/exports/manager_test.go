package exports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/events"
	"github.com/kpierre24/studio-sub001/internal/models"
)

func sampleReport(reportID string, rows int) *models.ReportData {
	data := make([]map[string]any, rows)
	for i := range data {
		data[i] = map[string]any{"name": "row", "value": float64(i)}
	}
	return &models.ReportData{
		ID:       "rd-" + reportID,
		ReportID: reportID,
		Data:     data,
		Metadata: models.ReportMetadata{
			GeneratedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			TotalRecords: rows,
		},
		Summary: &models.ReportSummary{Insights: []string{"everything is fine"}},
	}
}

func newTestManager() (*Manager, *MemoryStore, *events.MockEventPublisher) {
	store := NewMemoryStore()
	publisher := events.NewMockEventPublisher(nil)
	m := NewManager(store, publisher, nil)
	m.chunkDelay = 0
	return m, store, publisher
}

func TestExportCompleted(t *testing.T) {
	m, store, publisher := newTestManager()

	export, err := m.Export(context.Background(), sampleReport("r1", 3), models.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, models.ExportCompleted, export.Status)
	assert.Equal(t, models.ExportTTL, export.ExpiresAt.Sub(export.CreatedAt), "expiry is exactly 24h after creation")
	assert.NotEmpty(t, export.DownloadURL)
	assert.Positive(t, export.FileSize)

	artifact, err := store.Get(context.Background(), export.DownloadURL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(artifact)), export.FileSize)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExportCompleted, published[0].Type)

	got, err := m.GetExport(export.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportCompleted, got.Status)
}

func TestExportFailureRetainsRecord(t *testing.T) {
	m, _, publisher := newTestManager()

	_, err := m.Export(context.Background(), sampleReport("r1", 1), "parchment")
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))

	// The failed record is retained for inspection.
	var failed *models.ReportExport
	for _, event := range publisher.GetPublishedEvents() {
		assert.Equal(t, events.EventExportFailed, event.Type)
	}
	m.mu.RLock()
	for _, export := range m.exports {
		failed = export
	}
	m.mu.RUnlock()
	require.NotNil(t, failed)
	assert.Equal(t, models.ExportFailed, failed.Status)
	assert.NotEmpty(t, failed.Error)
}

func TestGetExportUnknown(t *testing.T) {
	m, _, _ := newTestManager()

	_, err := m.GetExport("ghost")
	assert.ErrorIs(t, err, apperrors.ErrUnknownExport)
}

func TestSweepExpired(t *testing.T) {
	m, store, _ := newTestManager()

	export, err := m.Export(context.Background(), sampleReport("r1", 1), models.FormatJSON)
	require.NoError(t, err)

	assert.Zero(t, m.SweepExpired(context.Background()), "fresh exports survive the sweep")

	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	assert.Equal(t, 1, m.SweepExpired(context.Background()))

	_, err = m.GetExport(export.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnknownExport)
	_, err = store.Get(context.Background(), export.DownloadURL)
	assert.Error(t, err, "artifact deleted with the record")
}

// failingStore rejects every nth Put.
type failingStore struct {
	*MemoryStore
	puts   int
	failOn int
}

func (s *failingStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	s.puts++
	if s.puts == s.failOn {
		return "", errors.New("storage unavailable")
	}
	return s.MemoryStore.Put(ctx, data, contentType)
}

func TestBatchExportMixedOutcomes(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failOn: 2}
	m := NewManager(store, events.NewMockEventPublisher(nil), nil)
	m.chunkDelay = 0

	reports := []*models.ReportData{
		sampleReport("r1", 1),
		sampleReport("r2", 1),
		sampleReport("r3", 1),
	}
	batch, err := m.BatchExport(context.Background(), reports, models.FormatJSON)
	require.NoError(t, err, "a failed item must not fail the batch")

	assert.Equal(t, models.ExportCompleted, batch.Status)
	require.Len(t, batch.Items, 3)

	assert.True(t, batch.Items[0].Success)
	assert.False(t, batch.Items[1].Success)
	assert.Contains(t, batch.Items[1].Error, "storage unavailable")
	assert.True(t, batch.Items[2].Success)
}

func TestBatchExportChunkDelay(t *testing.T) {
	m, _, _ := newTestManager()
	m.chunkSize = 2
	m.chunkDelay = 30 * time.Millisecond

	reports := []*models.ReportData{
		sampleReport("r1", 1), sampleReport("r2", 1),
		sampleReport("r3", 1), sampleReport("r4", 1),
		sampleReport("r5", 1),
	}

	started := time.Now()
	batch, err := m.BatchExport(context.Background(), reports, models.FormatCSV)
	require.NoError(t, err)

	// 3 chunks, 2 inter-chunk delays.
	assert.GreaterOrEqual(t, time.Since(started), 60*time.Millisecond)
	assert.Len(t, batch.Items, 5)
}

func TestScheduleExport(t *testing.T) {
	m, _, _ := newTestManager()

	schedule, err := m.ScheduleExport("r1", models.FormatXLSX, models.ExportSchedule{
		Frequency:  "weekly",
		TimeOfDay:  "06:30",
		Recipients: []string{"dean@example.edu"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, "r1", schedule.ReportID)
	assert.Equal(t, models.FormatXLSX, schedule.Format)

	assert.Len(t, m.ListSchedules(), 1)

	_, err = m.ScheduleExport("r1", models.FormatCSV, models.ExportSchedule{Frequency: "hourly"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCronSpec(t *testing.T) {
	cases := []struct {
		frequency string
		timeOfDay string
		want      string
	}{
		{"daily", "06:30", "30 6 * * *"},
		{"weekly", "23:05", "5 23 * * 1"},
		{"monthly", "", "0 0 1 * *"},
	}
	for _, tc := range cases {
		spec, err := cronSpec(models.ExportSchedule{Frequency: tc.frequency, TimeOfDay: tc.timeOfDay})
		require.NoError(t, err)
		assert.Equal(t, tc.want, spec)
	}

	_, err := cronSpec(models.ExportSchedule{Frequency: "daily", TimeOfDay: "25:00"})
	assert.Error(t, err)
}
