// Package realtime polls named data sources on fixed intervals and fans
// fresh payloads out to subscribers, with a short-TTL cache between ticks.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kpierre24/studio-sub001/internal/cache"
	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
	"github.com/kpierre24/studio-sub001/internal/events"
	"github.com/kpierre24/studio-sub001/internal/models"
)

// DefaultCacheTTL is how long a fetched payload stays readable between
// ticks.
const DefaultCacheTTL = 60 * time.Second

// fetchTimeout bounds a single fetch. It is deliberately independent of
// the poll interval: a slow fetch may outlive its interval, and the
// in-flight guard skips the overlapping ticks meanwhile.
const fetchTimeout = 30 * time.Second

// SubscriberFunc receives each successfully fetched payload. All
// subscribers of one tick see the same payload instance.
type SubscriberFunc func(payload any)

// SourcePatch updates selected fields of a registered source. A changed
// UpdateInterval stops and restarts the source's timer.
type SourcePatch struct {
	Name           *string
	Endpoint       *string
	UpdateInterval *time.Duration
}

type sourceState struct {
	source      models.RealtimeDataSource
	subscribers map[int]SubscriberFunc
	nextSubID   int
	inFlight    bool
	stop        chan struct{}
}

// Manager owns the source registry. Polling keeps running whether or not
// a source has subscribers; the cache stays warm either way.
type Manager struct {
	mu        sync.Mutex
	sources   map[string]*sourceState
	fetcher   Fetcher
	cache     cache.Service
	cacheTTL  time.Duration
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewManager(fetcher Fetcher, cacheService cache.Service, publisher events.EventPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		sources:   make(map[string]*sourceState),
		fetcher:   fetcher,
		cache:     cacheService,
		cacheTTL:  DefaultCacheTTL,
		publisher: publisher,
		logger:    logger,
	}
}

// SetCacheTTL overrides how long fetched payloads stay cached. Call
// before registering sources.
func (m *Manager) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		m.cacheTTL = ttl
	}
}

// ===== SOURCE REGISTRY =====

// Register creates a source and starts its poll loop. The first fetch
// happens one full interval after registration.
func (m *Manager) Register(name, endpoint string, updateInterval time.Duration) (*models.RealtimeDataSource, error) {
	if updateInterval <= 0 {
		return nil, apperrors.NewValidationError("update_interval", "update interval must be positive", updateInterval.String())
	}

	source := models.RealtimeDataSource{
		ID:             uuid.NewString(),
		Name:           name,
		Endpoint:       endpoint,
		UpdateInterval: updateInterval,
		Status:         models.SourceActive,
	}
	state := &sourceState{
		source:      source,
		subscribers: make(map[int]SubscriberFunc),
		stop:        make(chan struct{}),
	}

	m.mu.Lock()
	m.sources[source.ID] = state
	m.mu.Unlock()

	go m.pollLoop(source.ID, updateInterval, state.stop)

	if m.logger != nil {
		m.logger.Info("realtime source registered",
			"source_id", source.ID,
			"name", name,
			"interval", updateInterval)
	}
	return &source, nil
}

// Update patches a source. Changing the interval restarts its timer.
func (m *Manager) Update(sourceID string, patch SourcePatch) (*models.RealtimeDataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sources[sourceID]
	if !ok {
		return nil, apperrors.ErrUnknownDataSource
	}

	if patch.Name != nil {
		state.source.Name = *patch.Name
	}
	if patch.Endpoint != nil {
		state.source.Endpoint = *patch.Endpoint
	}
	if patch.UpdateInterval != nil && *patch.UpdateInterval != state.source.UpdateInterval {
		if *patch.UpdateInterval <= 0 {
			return nil, apperrors.NewValidationError("update_interval", "update interval must be positive", patch.UpdateInterval.String())
		}
		state.source.UpdateInterval = *patch.UpdateInterval

		close(state.stop)
		state.stop = make(chan struct{})
		go m.pollLoop(sourceID, state.source.UpdateInterval, state.stop)
	}

	out := state.source
	return &out, nil
}

// Remove stops the source's timer and drops it with its subscriber set.
// Removing an unknown or already-removed id is a no-op.
func (m *Manager) Remove(sourceID string) {
	m.mu.Lock()
	state, ok := m.sources[sourceID]
	if ok {
		close(state.stop)
		delete(m.sources, sourceID)
	}
	m.mu.Unlock()

	if ok && m.cache != nil {
		if err := m.cache.Delete(context.Background(), cacheKey(sourceID)); err != nil && m.logger != nil {
			m.logger.Warn("failed to drop cached payload", "source_id", sourceID, "error", err)
		}
	}
}

// GetSource returns a copy of the registered source.
func (m *Manager) GetSource(sourceID string) (*models.RealtimeDataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sources[sourceID]
	if !ok {
		return nil, apperrors.ErrUnknownDataSource
	}
	out := state.source
	return &out, nil
}

// ListSources returns copies of every registered source.
func (m *Manager) ListSources() []models.RealtimeDataSource {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.RealtimeDataSource, 0, len(m.sources))
	for _, state := range m.sources {
		out = append(out, state.source)
	}
	return out
}

// ===== SUBSCRIPTIONS =====

// Subscribe attaches a callback to a source and returns its unsubscribe
// function. Unsubscribing twice is safe.
func (m *Manager) Subscribe(sourceID string, callback SubscriberFunc) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sources[sourceID]
	if !ok {
		return nil, apperrors.ErrUnknownDataSource
	}

	id := state.nextSubID
	state.nextSubID++
	state.subscribers[id] = callback

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if state, ok := m.sources[sourceID]; ok {
			delete(state.subscribers, id)
		}
	}, nil
}

// ===== POLLING =====

func (m *Manager) pollLoop(sourceID string, interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.tick(sourceID, stop)
		}
	}
}

func (m *Manager) tick(sourceID string, stop chan struct{}) {
	m.mu.Lock()
	state, ok := m.sources[sourceID]
	// The stop channel identifies the timer generation: a restarted or
	// removed source must not be ticked by the old loop.
	if !ok || state.stop != stop || state.inFlight {
		m.mu.Unlock()
		return
	}
	state.inFlight = true
	source := state.source
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	payload, err := m.fetcher.Fetch(ctx, source)
	cancel()

	m.mu.Lock()
	state, ok = m.sources[sourceID]
	if ok {
		// The in-flight flag belongs to the source, not to the timer
		// generation that started the fetch; a restarted loop must not
		// inherit it set.
		state.inFlight = false
	}
	if !ok || state.stop != stop {
		// Source removed or restarted mid-fetch: discard the result.
		m.mu.Unlock()
		return
	}

	if err != nil {
		state.source.Status = models.SourceError
		source = state.source
		m.mu.Unlock()
		m.reportFetchFailure(source, err)
		return
	}

	state.source.Status = models.SourceActive
	state.source.LastUpdated = time.Now()

	snapshot := make([]SubscriberFunc, 0, len(state.subscribers))
	for _, callback := range state.subscribers {
		snapshot = append(snapshot, callback)
	}
	m.mu.Unlock()

	if m.cache != nil {
		if cacheErr := m.cache.Set(context.Background(), cacheKey(sourceID), payload, m.cacheTTL); cacheErr != nil && m.logger != nil {
			m.logger.Warn("failed to cache realtime payload", "source_id", sourceID, "error", cacheErr)
		}
	}

	for _, callback := range snapshot {
		callback(payload)
	}
}

func (m *Manager) reportFetchFailure(source models.RealtimeDataSource, err error) {
	if m.logger != nil {
		m.logger.Error("realtime fetch failed",
			"source_id", source.ID,
			"endpoint", source.Endpoint,
			"error", err)
	}
	if m.publisher == nil {
		return
	}
	event := events.NewEngineEvent(events.EventSourceDegraded, events.SourceDegradedEvent{
		SourceID: source.ID,
		Name:     source.Name,
		Endpoint: source.Endpoint,
		Error:    err.Error(),
	})
	if pubErr := m.publisher.PublishEngineEvent(context.Background(), event); pubErr != nil && m.logger != nil {
		m.logger.Warn("failed to publish source.degraded event", "source_id", source.ID, "error", pubErr)
	}
}

// ===== CACHE ACCESS =====

// GetCached reads the last fetched payload for a source. cache.ErrCacheMiss
// means no fetch has succeeded within the TTL.
func (m *Manager) GetCached(ctx context.Context, sourceID string, dest any) error {
	if m.cache == nil {
		return cache.ErrCacheMiss
	}
	return m.cache.Get(ctx, cacheKey(sourceID), dest)
}

// ClearCache drops the cached payload for one source, or for all sources
// when sourceID is empty.
func (m *Manager) ClearCache(ctx context.Context, sourceID string) error {
	if m.cache == nil {
		return nil
	}
	if sourceID == "" {
		return m.cache.DeletePattern(ctx, "realtime:*")
	}
	return m.cache.Delete(ctx, cacheKey(sourceID))
}

func cacheKey(sourceID string) string {
	return "realtime:" + sourceID
}
