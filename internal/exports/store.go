package exports

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/kpierre24/studio-sub001/internal/errors"
)

// ArtifactStore holds serialized export artifacts. The URL it returns is
// an opaque reference; callers never parse it.
type ArtifactStore interface {
	Put(ctx context.Context, data []byte, contentType string) (url string, err error)
	Get(ctx context.Context, url string) ([]byte, error)
	Delete(ctx context.Context, url string) error
}

// MemoryStore keeps artifacts in process memory. Suitable for tests and
// single-node deployments; production wires object storage instead.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, data []byte, _ string) (string, error) {
	url := "memory://exports/" + uuid.NewString()

	s.mu.Lock()
	s.artifacts[url] = data
	s.mu.Unlock()
	return url, nil
}

func (s *MemoryStore) Get(_ context.Context, url string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.artifacts[url]
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return data, nil
}

func (s *MemoryStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	delete(s.artifacts, url)
	s.mu.Unlock()
	return nil
}
