package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/models"
)

func report() *models.ReportData {
	return &models.ReportData{
		ID:       "rd1",
		ReportID: "r1",
		Data:     []map[string]any{{"value": 1.0}},
		Metadata: models.ReportMetadata{TotalRecords: 1},
	}
}

func TestRegisterAPIValidation(t *testing.T) {
	m := NewManager(nil, nil)

	assert.Error(t, m.RegisterAPI("", APIConfig{Endpoint: "http://example.test"}))
	assert.Error(t, m.RegisterAPI("bad", APIConfig{Endpoint: "not a url"}))
	assert.NoError(t, m.RegisterAPI("ok", APIConfig{Endpoint: "http://example.test"}))
	assert.Contains(t, m.ListAPIs(), "ok")
}

func TestUnknownAPI(t *testing.T) {
	m := NewManager(nil, nil)
	ctx := context.Background()

	_, err := m.ExportToExternalSystem(ctx, "ghost", report(), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnknownExternalAPI)
	_, err = m.ImportFromExternalSystem(ctx, "ghost", nil)
	assert.ErrorIs(t, err, apperrors.ErrUnknownExternalAPI)
	_, err = m.CheckAPIHealth(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrUnknownExternalAPI)
}

func TestExportToExternalSystem(t *testing.T) {
	var received map[string]any
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]any{"accepted": true})
	}))
	defer server.Close()

	m := NewManager(server.Client(), nil)
	require.NoError(t, m.RegisterAPI("sis", APIConfig{
		Endpoint: server.URL,
		AuthType: AuthToken,
		Token:    "secret",
	}))

	result, err := m.ExportToExternalSystem(context.Background(), "sis", report(), map[string]any{"tag": "nightly"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Contains(t, received, "data")
	assert.Equal(t, "nightly", received["tag"])
}

func TestExportTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	m := NewManager(server.Client(), nil)
	require.NoError(t, m.RegisterAPI("flaky", APIConfig{Endpoint: server.URL}))

	result, err := m.ExportToExternalSystem(context.Background(), "flaky", report(), nil)
	require.NoError(t, err, "transport faults come back inside the result")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestImportFromExternalSystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026", r.URL.Query().Get("year"))
		assert.Equal(t, "key123", r.Header.Get("X-API-Key"))
		json.NewEncoder(w).Encode([]map[string]any{{"student": "s1"}})
	}))
	defer server.Close()

	m := NewManager(server.Client(), nil)
	require.NoError(t, m.RegisterAPI("registry", APIConfig{
		Endpoint: server.URL,
		AuthType: AuthAPIKey,
		APIKey:   "key123",
	}))

	result, err := m.ImportFromExternalSystem(context.Background(), "registry", map[string]string{"year": "2026"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	rows := result.Data.([]any)
	require.Len(t, rows, 1)
}

func TestCheckAPIHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	m := NewManager(healthy.Client(), nil)
	require.NoError(t, m.RegisterAPI("up", APIConfig{Endpoint: healthy.URL}))

	status, err := m.CheckAPIHealth(context.Background(), "up")
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, http.StatusOK, status.StatusCode)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	require.NoError(t, m.RegisterAPI("down", APIConfig{Endpoint: down.URL}))
	down.Close() // connection refused from now on

	status, err = m.CheckAPIHealth(context.Background(), "down")
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.NotEmpty(t, status.Error)
}
