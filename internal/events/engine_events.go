package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the engine lifecycle events other platform
// services subscribe to.
type EventType string

const (
	// Report events
	EventReportGenerated EventType = "report.generated"

	// Export events
	EventExportCompleted EventType = "export.completed"
	EventExportFailed    EventType = "export.failed"

	// Realtime source events
	EventSourceDegraded EventType = "source.degraded"
)

// EngineEvent is the base event structure for all engine events
type EngineEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEngineEvent stamps identity, source and version on a payload.
func NewEngineEvent(eventType EventType, data interface{}) *EngineEvent {
	return &EngineEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "analytics-engine",
		Version:   "1.0",
		Data:      data,
	}
}

// Event payloads

type ReportGeneratedEvent struct {
	ReportDataID  string        `json:"report_data_id"`
	ReportID      string        `json:"report_id"`
	ReportType    string        `json:"report_type"`
	TotalRecords  int           `json:"total_records"`
	ExecutionTime time.Duration `json:"execution_time"`
}

type ExportCompletedEvent struct {
	ExportID    string    `json:"export_id"`
	ReportID    string    `json:"report_id"`
	Format      string    `json:"format"`
	FileSize    int64     `json:"file_size"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ExportFailedEvent struct {
	ExportID string `json:"export_id"`
	ReportID string `json:"report_id"`
	Format   string `json:"format"`
	Error    string `json:"error"`
}

type SourceDegradedEvent struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}
