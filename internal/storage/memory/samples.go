// Package memory holds process-lifetime repositories.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/repository"
)

// SampleRepository keeps samples in insertion order behind a RWMutex.
// Reads and writes copy records so callers never alias stored slices.
type SampleRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]sample.Sample
}

var _ sample.Repository = (*SampleRepository)(nil)

// NewSampleRepository creates an empty repository.
func NewSampleRepository() *SampleRepository {
	return &SampleRepository{byID: make(map[string]sample.Sample)}
}

// Add appends samples. The batch is rejected whole if any ID already exists.
func (r *SampleRepository) Add(_ context.Context, samples ...sample.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		if s.ID == "" {
			return repository.ErrInvalidInput
		}
		if _, ok := r.byID[s.ID]; ok {
			return fmt.Errorf("sample %s: %w", s.ID, repository.ErrConflict)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("sample %s: %w", s.ID, repository.ErrConflict)
		}
		seen[s.ID] = struct{}{}
	}
	for _, s := range samples {
		r.byID[s.ID] = s.Clone()
		r.order = append(r.order, s.ID)
	}
	return nil
}

// Get returns a copy of the sample with id.
func (r *SampleRepository) Get(_ context.Context, id string) (*sample.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := s.Clone()
	return &out, nil
}

// List returns matching samples in insertion order.
func (r *SampleRepository) List(_ context.Context, filter sample.Filter) ([]sample.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]sample.Sample, 0, len(r.order))
	for _, id := range r.order {
		s := r.byID[id]
		if filter.Line != nil && s.Line != *filter.Line {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(s.Filename), query) {
			continue
		}
		out = append(out, s.Clone())
	}
	return out, nil
}

// Update replaces an existing sample.
func (r *SampleRepository) Update(_ context.Context, s *sample.Sample) error {
	if s == nil {
		return repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; !ok {
		return repository.ErrNotFound
	}
	r.byID[s.ID] = s.Clone()
	return nil
}

// Count returns the number of stored samples.
func (r *SampleRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order), nil
}
