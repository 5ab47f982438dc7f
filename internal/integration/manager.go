// Package integration talks to registered external systems: pushing
// report data out, pulling rows in, and probing endpoint health.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/models"
)

// AuthType selects how credentials attach to outgoing requests.
type AuthType string

const (
	AuthAPIKey AuthType = "api-key"
	AuthBasic  AuthType = "basic"
	AuthToken  AuthType = "token"
)

// APIConfig describes one external system.
type APIConfig struct {
	Endpoint       string            `json:"endpoint" validate:"required,url"`
	Method         string            `json:"method"`
	AuthType       AuthType          `json:"auth_type" validate:"omitempty,oneof=api-key basic token"`
	APIKey         string            `json:"api_key,omitempty"`
	Username       string            `json:"username,omitempty"`
	Password       string            `json:"password,omitempty"`
	Token          string            `json:"token,omitempty"`
	ResponseFormat string            `json:"response_format"` // only "json" is understood
	Headers        map[string]string `json:"headers,omitempty"`
	Timeout        time.Duration     `json:"timeout,omitempty"`
}

// Result is the outcome of an external call. Failures come back as
// {Success: false, Error: ...}; the manager itself never panics.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// HealthStatus reports one probe of an external endpoint.
type HealthStatus struct {
	Name       string        `json:"name"`
	Healthy    bool          `json:"healthy"`
	StatusCode int           `json:"status_code,omitempty"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
	CheckedAt  time.Time     `json:"checked_at"`
}

// Manager holds the external API registry.
type Manager struct {
	mu     sync.RWMutex
	apis   map[string]APIConfig
	client *http.Client
	logger *slog.Logger
}

func NewManager(client *http.Client, logger *slog.Logger) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Manager{
		apis:   make(map[string]APIConfig),
		client: client,
		logger: logger,
	}
}

// RegisterAPI adds or replaces a named external system.
func (m *Manager) RegisterAPI(name string, config APIConfig) error {
	if name == "" {
		return apperrors.NewValidationError("name", "API name is required", name)
	}
	if _, err := url.ParseRequestURI(config.Endpoint); err != nil {
		return apperrors.NewValidationError("endpoint", "endpoint must be a valid URL", config.Endpoint)
	}
	if config.Method == "" {
		config.Method = http.MethodPost
	}

	m.mu.Lock()
	m.apis[name] = config
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("external API registered", "name", name, "endpoint", config.Endpoint)
	}
	return nil
}

// ListAPIs returns the registered API names.
func (m *Manager) ListAPIs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.apis))
	for name := range m.apis {
		names = append(names, name)
	}
	return names
}

func (m *Manager) config(name string) (APIConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config, ok := m.apis[name]
	if !ok {
		return APIConfig{}, apperrors.ErrUnknownExternalAPI
	}
	return config, nil
}

// ExportToExternalSystem pushes a report to the named system. Transport
// faults come back inside the Result, not as a panic or a crash.
func (m *Manager) ExportToExternalSystem(ctx context.Context, name string, report *models.ReportData, options map[string]any) (*Result, error) {
	config, err := m.config(name)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"metadata": report.Metadata,
		"summary":  report.Summary,
		"data":     report.Data,
	}
	for key, value := range options {
		payload[key] = value
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}

	responseBody, err := m.call(ctx, config, config.Method, bytes.NewReader(body))
	if err != nil {
		return failedResult(m.logger, name, "export", err), nil
	}

	return &Result{Success: true, Data: responseBody}, nil
}

// ImportFromExternalSystem pulls rows from the named system. The params
// become query parameters on the request.
func (m *Manager) ImportFromExternalSystem(ctx context.Context, name string, params map[string]string) (*Result, error) {
	config, err := m.config(name)
	if err != nil {
		return nil, err
	}

	endpoint := config.Endpoint
	if len(params) > 0 {
		values := url.Values{}
		for key, value := range params {
			values.Set(key, value)
		}
		separator := "?"
		if strings.Contains(endpoint, "?") {
			separator = "&"
		}
		endpoint = endpoint + separator + values.Encode()
	}

	requestConfig := config
	requestConfig.Endpoint = endpoint
	responseBody, err := m.call(ctx, requestConfig, http.MethodGet, nil)
	if err != nil {
		return failedResult(m.logger, name, "import", err), nil
	}

	return &Result{Success: true, Data: responseBody}, nil
}

// CheckAPIHealth probes the endpoint with a GET and reports status and
// latency. A transport fault means unhealthy, not an error return.
func (m *Manager) CheckAPIHealth(ctx context.Context, name string) (*HealthStatus, error) {
	config, err := m.config(name)
	if err != nil {
		return nil, err
	}

	status := &HealthStatus{Name: name, CheckedAt: time.Now()}
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.Endpoint, nil)
	if err != nil {
		status.Error = err.Error()
		return status, nil
	}
	applyAuth(req, config)

	resp, err := m.client.Do(req)
	status.Latency = time.Since(started)
	if err != nil {
		status.Error = err.Error()
		return status, nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	status.StatusCode = resp.StatusCode
	status.Healthy = resp.StatusCode >= 200 && resp.StatusCode < 300
	return status, nil
}

// ===== INTERNAL =====

func (m *Manager) call(ctx context.Context, config APIConfig, method string, body io.Reader) (any, error) {
	req, err := http.NewRequestWithContext(ctx, method, config.Endpoint, body)
	if err != nil {
		return nil, apperrors.NewTransportError(config.Endpoint, strings.ToLower(method), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range config.Headers {
		req.Header.Set(key, value)
	}
	applyAuth(req, config)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(config.Endpoint, strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewTransportError(config.Endpoint, strings.ToLower(method),
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, apperrors.NewTransportError(config.Endpoint, strings.ToLower(method),
			fmt.Errorf("failed to decode response: %w", err))
	}
	return decoded, nil
}

func applyAuth(req *http.Request, config APIConfig) {
	switch config.AuthType {
	case AuthAPIKey:
		req.Header.Set("X-API-Key", config.APIKey)
	case AuthBasic:
		req.SetBasicAuth(config.Username, config.Password)
	case AuthToken:
		req.Header.Set("Authorization", "Bearer "+config.Token)
	}
}

func failedResult(logger *slog.Logger, name, op string, err error) *Result {
	if logger != nil {
		logger.Error("external call failed", "api", name, "op", op, "error", err)
	}
	return &Result{Success: false, Error: err.Error()}
}
