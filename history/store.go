package history

import "context"

// Record is a single persisted value addressed by key.
type Record struct {
	Key   string
	Value []byte
}

// Store persists ledger records. Implementations are stateless and perform
// I/O on each call.
type Store interface {
	// List returns the stored keys, oldest first.
	List(ctx context.Context) ([]string, error)
	// Load retrieves records for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Record, error)
	// Save persists records, creating or overwriting as needed.
	Save(ctx context.Context, records ...Record) error
	// Delete removes records. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
