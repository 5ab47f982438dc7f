package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/models"
)

// Fetcher retrieves one payload for a source. Implementations must honor
// the context deadline; a tick's fetch is bounded by the poll interval.
type Fetcher interface {
	Fetch(ctx context.Context, source models.RealtimeDataSource) (any, error)
}

// HTTPFetcher fetches a source's endpoint with GET and decodes the JSON
// body.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source models.RealtimeDataSource) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.Endpoint, nil)
	if err != nil {
		return nil, apperrors.NewTransportError(source.Endpoint, "fetch", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError(source.Endpoint, "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewTransportError(source.Endpoint, "fetch",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewTransportError(source.Endpoint, "fetch",
			fmt.Errorf("failed to decode response body: %w", err))
	}
	return payload, nil
}
