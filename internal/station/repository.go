package station

import "context"

// Repository is the persistence collaborator the pipeline hands its
// finished table to. Insertion semantics (upsert vs. append, conflict
// handling) are the implementation's contract, not this package's.
type Repository interface {
	// InsertData stores a batch of canonical rows. description is a
	// human-readable label for the batch; metadata marks it as station
	// metadata rather than time-series data.
	InsertData(ctx context.Context, rows []*MetadataRow, description string, metadata bool) error
}
