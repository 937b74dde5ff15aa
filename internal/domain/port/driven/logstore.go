package driven

import (
	"context"
	"time"

	"github.com/leakguardhq/leakguard/internal/domain/model"
)

// LogStore defines the driven port for audit log persistence. Entries are
// append-only: no update or delete is exposed.
type LogStore interface {
	// Append writes one entry durably and returns the stored representation.
	// The adapter assigns the id and timestamp when unset.
	Append(ctx context.Context, entry model.LogEntry) (model.LogEntry, error)

	// List returns entries ordered by timestamp descending. The limit is
	// clamped to a server-side maximum regardless of the requested value.
	List(ctx context.Context, offset, limit int) ([]model.LogEntry, error)

	// ListSince returns all entries with a timestamp at or after since,
	// ascending. Consumed by the analytics aggregator.
	ListSince(ctx context.Context, since time.Time) ([]model.LogEntry, error)

	// Count returns the total number of stored entries.
	Count(ctx context.Context) (int, error)
}
