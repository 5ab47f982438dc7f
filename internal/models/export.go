package models

import "time"

// ExportFormat selects the serialization an export produces.
type ExportFormat string

const (
	FormatCSV      ExportFormat = "csv"
	FormatJSON     ExportFormat = "json"
	FormatXLSX     ExportFormat = "xlsx"
	FormatDocument ExportFormat = "document"
)

// ExportStatus is the export state machine:
// pending -> processing -> {completed, failed}. Terminal states are final.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportFailed     ExportStatus = "failed"
)

// ExportTTL is how long an artifact stays retrievable, independent of
// format or size.
const ExportTTL = 24 * time.Hour

// ReportExport tracks one export artifact. DownloadURL is an opaque
// reference into external storage; the engine never inspects it.
type ReportExport struct {
	ID          string       `json:"id"`
	ReportID    string       `json:"report_id"`
	Format      ExportFormat `json:"format"`
	Status      ExportStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
	DownloadURL string       `json:"download_url,omitempty"`
	FileSize    int64        `json:"file_size,omitempty"`
	Error       string       `json:"error,omitempty"`

	// Batch exports aggregate per-item outcomes instead of failing whole.
	Items []ExportItemResult `json:"items,omitempty"`
}

// ExportItemResult is one report's outcome inside a batch export.
type ExportItemResult struct {
	ReportID string `json:"report_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// ExportSchedule records scheduling intent only; execution belongs to a
// job runner (the built-in cron runner or an external one).
type ExportSchedule struct {
	ID         string       `json:"id"`
	ReportID   string       `json:"report_id"`
	Format     ExportFormat `json:"format"`
	Frequency  string       `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	TimeOfDay  string       `json:"time_of_day"` // "HH:MM", 24h clock
	Recipients []string     `json:"recipients"`
	CreatedAt  time.Time    `json:"created_at"`
}
