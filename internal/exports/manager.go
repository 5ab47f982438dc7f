// Package exports serializes finished reports into downloadable
// artifacts and tracks each export through its state machine.
package exports

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/events"
	"github.com/kpierre24/studio-sub001/internal/models"
)

const (
	defaultChunkSize  = 5
	defaultChunkDelay = time.Second
)

// Manager runs exports. Records live in the registry until SweepExpired
// collects them; failed records are kept for inspection.
type Manager struct {
	mu        sync.RWMutex
	exports   map[string]*models.ReportExport
	schedules map[string]*models.ExportSchedule

	store     ArtifactStore
	publisher events.EventPublisher
	logger    *slog.Logger

	// Batch self-throttling against the downstream endpoint.
	chunkSize  int
	chunkDelay time.Duration

	now func() time.Time
}

func NewManager(store ArtifactStore, publisher events.EventPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		exports:    make(map[string]*models.ReportExport),
		schedules:  make(map[string]*models.ExportSchedule),
		store:      store,
		publisher:  publisher,
		logger:     logger,
		chunkSize:  defaultChunkSize,
		chunkDelay: defaultChunkDelay,
		now:        time.Now,
	}
}

// SetChunking overrides the batch chunk size and the pause between
// chunks. Call before serving traffic.
func (m *Manager) SetChunking(size int, delay time.Duration) {
	if size > 0 {
		m.chunkSize = size
	}
	if delay >= 0 {
		m.chunkDelay = delay
	}
}

// ===== SINGLE EXPORT =====

// Export serializes a report and stores the artifact. The record is
// created pending, moves to processing, and ends completed or failed.
// On failure the record is retained and the error returned to the caller.
func (m *Manager) Export(ctx context.Context, report *models.ReportData, format models.ExportFormat) (*models.ReportExport, error) {
	export := m.newRecord(report.ReportID, format)
	m.setStatus(export.ID, models.ExportProcessing)

	data, contentType, err := serialize(report, format)
	if err != nil {
		return m.fail(ctx, export.ID, err)
	}

	url, err := m.store.Put(ctx, data, contentType)
	if err != nil {
		return m.fail(ctx, export.ID, fmt.Errorf("failed to store artifact: %w", err))
	}

	m.mu.Lock()
	record := m.exports[export.ID]
	record.Status = models.ExportCompleted
	record.DownloadURL = url
	record.FileSize = int64(len(data))
	out := *record
	m.mu.Unlock()

	m.publishCompleted(ctx, &out)

	if m.logger != nil {
		m.logger.Info("report exported",
			"export_id", out.ID,
			"report_id", out.ReportID,
			"format", format,
			"file_size", out.FileSize)
	}
	return &out, nil
}

// ===== BATCH EXPORT =====

// BatchExport serializes reports in fixed-size chunks with a delay
// between chunks. Individual failures are recorded per item; the batch
// itself always completes.
func (m *Manager) BatchExport(ctx context.Context, reports []*models.ReportData, format models.ExportFormat) (*models.ReportExport, error) {
	batch := m.newRecord("", format)
	m.setStatus(batch.ID, models.ExportProcessing)

	var items []models.ExportItemResult
	for start := 0; start < len(reports); start += m.chunkSize {
		if start > 0 && m.chunkDelay > 0 {
			time.Sleep(m.chunkDelay)
		}

		end := start + m.chunkSize
		if end > len(reports) {
			end = len(reports)
		}
		for _, report := range reports[start:end] {
			item := models.ExportItemResult{ReportID: report.ReportID}
			data, contentType, err := serialize(report, format)
			if err == nil {
				_, err = m.store.Put(ctx, data, contentType)
			}
			if err != nil {
				item.Error = err.Error()
				if m.logger != nil {
					m.logger.Warn("batch item failed",
						"batch_id", batch.ID,
						"report_id", report.ReportID,
						"error", err)
				}
			} else {
				item.Success = true
				item.FileSize = int64(len(data))
			}
			items = append(items, item)
		}
	}

	m.mu.Lock()
	record := m.exports[batch.ID]
	record.Status = models.ExportCompleted
	record.Items = items
	for _, item := range items {
		record.FileSize += item.FileSize
	}
	out := *record
	m.mu.Unlock()

	m.publishCompleted(ctx, &out)
	return &out, nil
}

// ===== SCHEDULING =====

// ScheduleExport records scheduling intent only. Execution belongs to a
// job runner; see ScheduleRunner for the built-in one.
func (m *Manager) ScheduleExport(reportID string, format models.ExportFormat, schedule models.ExportSchedule) (*models.ExportSchedule, error) {
	switch schedule.Frequency {
	case "daily", "weekly", "monthly":
	default:
		return nil, apperrors.NewValidationError("frequency", "frequency must be daily, weekly or monthly", schedule.Frequency)
	}

	schedule.ID = uuid.NewString()
	schedule.ReportID = reportID
	schedule.Format = format
	schedule.CreatedAt = m.now()

	m.mu.Lock()
	stored := schedule
	m.schedules[schedule.ID] = &stored
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("export scheduled",
			"schedule_id", schedule.ID,
			"report_id", reportID,
			"frequency", schedule.Frequency)
	}
	return &schedule, nil
}

// ListSchedules returns all recorded schedules.
func (m *Manager) ListSchedules() []models.ExportSchedule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ExportSchedule, 0, len(m.schedules))
	for _, schedule := range m.schedules {
		out = append(out, *schedule)
	}
	return out
}

// ===== RETRIEVAL / EXPIRY =====

func (m *Manager) GetExport(id string) (*models.ReportExport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	export, ok := m.exports[id]
	if !ok {
		return nil, apperrors.ErrUnknownExport
	}
	out := *export
	return &out, nil
}

// SweepExpired drops every export past its expiry and deletes its
// artifact. Returns how many were collected.
func (m *Manager) SweepExpired(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	var expired []*models.ReportExport
	for id, export := range m.exports {
		if now.After(export.ExpiresAt) {
			expired = append(expired, export)
			delete(m.exports, id)
		}
	}
	m.mu.Unlock()

	for _, export := range expired {
		if export.DownloadURL == "" {
			continue
		}
		if err := m.store.Delete(ctx, export.DownloadURL); err != nil && m.logger != nil {
			m.logger.Warn("failed to delete expired artifact",
				"export_id", export.ID,
				"error", err)
		}
	}

	if len(expired) > 0 && m.logger != nil {
		m.logger.Info("expired exports swept", "count", len(expired))
	}
	return len(expired)
}

// ===== INTERNAL =====

func (m *Manager) newRecord(reportID string, format models.ExportFormat) *models.ReportExport {
	created := m.now()
	export := &models.ReportExport{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		Format:    format,
		Status:    models.ExportPending,
		CreatedAt: created,
		ExpiresAt: created.Add(models.ExportTTL),
	}

	m.mu.Lock()
	m.exports[export.ID] = export
	m.mu.Unlock()
	return export
}

func (m *Manager) setStatus(id string, status models.ExportStatus) {
	m.mu.Lock()
	if export, ok := m.exports[id]; ok {
		export.Status = status
	}
	m.mu.Unlock()
}

// fail marks the export failed, keeps the record, and returns the error.
func (m *Manager) fail(ctx context.Context, id string, err error) (*models.ReportExport, error) {
	m.mu.Lock()
	export := m.exports[id]
	export.Status = models.ExportFailed
	export.Error = err.Error()
	out := *export
	m.mu.Unlock()

	if m.publisher != nil {
		event := events.NewEngineEvent(events.EventExportFailed, events.ExportFailedEvent{
			ExportID: out.ID,
			ReportID: out.ReportID,
			Format:   string(out.Format),
			Error:    out.Error,
		})
		if pubErr := m.publisher.PublishEngineEvent(ctx, event); pubErr != nil && m.logger != nil {
			m.logger.Warn("failed to publish export.failed event", "export_id", out.ID, "error", pubErr)
		}
	}
	if m.logger != nil {
		m.logger.Error("export failed",
			"export_id", out.ID,
			"report_id", out.ReportID,
			"format", out.Format,
			"error", err)
	}
	return nil, err
}

func (m *Manager) publishCompleted(ctx context.Context, export *models.ReportExport) {
	if m.publisher == nil {
		return
	}
	event := events.NewEngineEvent(events.EventExportCompleted, events.ExportCompletedEvent{
		ExportID:    export.ID,
		ReportID:    export.ReportID,
		Format:      string(export.Format),
		FileSize:    export.FileSize,
		DownloadURL: export.DownloadURL,
		ExpiresAt:   export.ExpiresAt,
	})
	if err := m.publisher.PublishEngineEvent(ctx, event); err != nil && m.logger != nil {
		m.logger.Warn("failed to publish export.completed event", "export_id", export.ID, "error", err)
	}
}
