package errors

import (
	"errors"
	"fmt"
)

// ===== COMMON ENGINE ERRORS =====

var (
	ErrNotFound      = errors.New("resource not found")
	ErrInternalError = errors.New("internal error")

	// Configuration errors
	ErrUnknownReportType   = errors.New("unknown report type")
	ErrUnknownExportFormat = errors.New("unknown export format")
	ErrUnknownDataSource   = errors.New("data source not found")
	ErrUnknownExport       = errors.New("export not found")
	ErrUnknownExternalAPI  = errors.New("external API not registered")
	ErrUnknownLayout       = errors.New("dashboard layout not found")
	ErrUnknownWidget       = errors.New("widget not found")
)

// ===== CUSTOM ERROR TYPES =====

// ConfigurationError indicates a caller referenced something the engine does
// not know about (report type, data source, export id, external API name).
// The triggering action aborts immediately.
type ConfigurationError struct {
	Kind    string `json:"kind"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s=%q): %s", ce.Kind, ce.Value, ce.Message)
}

// ComputationError indicates report generation failed partway. No partial
// report is ever returned alongside one of these.
type ComputationError struct {
	ReportType string `json:"report_type"`
	Stage      string `json:"stage"`
	Err        error  `json:"-"`
}

func (ce *ComputationError) Error() string {
	return fmt.Sprintf("report computation failed (type=%s, stage=%s): %v", ce.ReportType, ce.Stage, ce.Err)
}

func (ce *ComputationError) Unwrap() error { return ce.Err }

// TransportError indicates a network-level failure talking to a realtime
// endpoint or an external system. It degrades the affected source only.
type TransportError struct {
	Target string `json:"target"`
	Op     string `json:"op"`
	Err    error  `json:"-"`
}

func (te *TransportError) Error() string {
	return fmt.Sprintf("transport failure (%s %s): %v", te.Op, te.Target, te.Err)
}

func (te *TransportError) Unwrap() error { return te.Err }

// ===== ERROR HELPERS =====

func NewConfigurationError(kind, value, message string) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Value: value, Message: message}
}

func NewComputationError(reportType, stage string, err error) *ComputationError {
	return &ComputationError{ReportType: reportType, Stage: stage, Err: err}
}

func NewTransportError(target, op string, err error) *TransportError {
	return &TransportError{Target: target, Op: op, Err: err}
}

// IsConfiguration checks if err represents a configuration fault.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce) ||
		errors.Is(err, ErrUnknownReportType) ||
		errors.Is(err, ErrUnknownExportFormat) ||
		errors.Is(err, ErrUnknownDataSource) ||
		errors.Is(err, ErrUnknownExport) ||
		errors.Is(err, ErrUnknownExternalAPI)
}

// IsComputation checks if err represents an aborted report generation.
func IsComputation(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}

// IsTransport checks if err represents a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation checks if err carries per-field validation violations.
func IsValidation(err error) bool {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsNotFound checks if err represents a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnknownDataSource) ||
		errors.Is(err, ErrUnknownExport) ||
		errors.Is(err, ErrUnknownLayout) ||
		errors.Is(err, ErrUnknownWidget)
}
