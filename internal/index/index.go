package index

import "context"

// CaseIndex defines the interface for case indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type CaseIndex interface {
	UpsertCase(c CaseRow, body string) error
	DeleteCase(slug string) error
	GetChecksum(slug string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string, opts SearchOptions) ([]SearchResult, error)
	Count(includeDrafts bool) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies CaseIndex at compile time.
var _ CaseIndex = (*DB)(nil)
