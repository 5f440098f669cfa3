package store

import (
	"context"
	"sort"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory sample store, used when no
// database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	samples []weather.Sample

	// maxSamples caps retained samples; oldest are dropped first.
	maxSamples int
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore.
// If maxSamples is <= 0, it is treated as unlimited.
func NewMemoryStore(maxSamples int) *MemoryStore {
	return &MemoryStore{maxSamples: maxSamples}
}

// SaveSample appends a sample and enforces retention.
func (s *MemoryStore) SaveSample(_ context.Context, sample weather.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)

	if s.maxSamples > 0 && len(s.samples) > s.maxSamples {
		over := len(s.samples) - s.maxSamples
		s.samples = append([]weather.Sample(nil), s.samples[over:]...)
	}
	return nil
}

// RecentSamples returns up to limit samples ordered by timestamp, newest first.
func (s *MemoryStore) RecentSamples(_ context.Context, limit int) ([]weather.Sample, error) {
	s.mu.RLock()
	sorted := make([]weather.Sample, len(s.samples))
	copy(sorted, s.samples)
	s.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
