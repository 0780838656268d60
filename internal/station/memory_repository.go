package station

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL
// implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	batches []InsertedBatch
}

// InsertedBatch captures one InsertData call for later inspection.
type InsertedBatch struct {
	Rows        []*MetadataRow
	Description string
	Metadata    bool
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// InsertData records the batch.
func (r *InMemoryRepository) InsertData(_ context.Context, rows []*MetadataRow, description string, metadata bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]*MetadataRow, len(rows))
	for i, row := range rows {
		c := *row
		copied[i] = &c
	}

	r.batches = append(r.batches, InsertedBatch{
		Rows:        copied,
		Description: description,
		Metadata:    metadata,
	})
	return nil
}

// Batches returns all recorded batches.
func (r *InMemoryRepository) Batches() []InsertedBatch {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]InsertedBatch, len(r.batches))
	copy(out, r.batches)
	return out
}

// Ensure InMemoryRepository implements Repository.
var _ Repository = (*InMemoryRepository)(nil)
