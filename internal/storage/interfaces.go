// Package storage defines the destination table contracts the fan-out writer
// persists into, one interface per query pattern. Writes form a closed set of
// operations: insert-log and increment-counter, parameterized by table
// identity and key.
package storage

import (
	"context"
	"time"

	"payment-stream-lab/internal/domain"
)

// UserTransactionLog is the transactions_by_user destination: append-only,
// partitioned by user, clustered by transaction time descending so the recent
// feed for one user is a single bounded scan.
type UserTransactionLog interface {
	// Insert appends one event row. Returns ErrWriteRejected for malformed
	// events and ErrUnavailable when the connection is down.
	Insert(ctx context.Context, e *domain.TransactionEvent) error

	// RecentByUser retrieves up to limit rows for a user, newest first.
	RecentByUser(ctx context.Context, userID string, limit int) ([]*domain.TransactionEvent, error)
}

// CategoryTransactionLog is the transactions_by_category destination:
// append-only, partitioned by (user, category).
type CategoryTransactionLog interface {
	Insert(ctx context.Context, e *domain.TransactionEvent) error

	// RecentByUserCategory retrieves up to limit rows for one (user, category)
	// partition, newest first. Rows do not carry a payment method.
	RecentByUserCategory(ctx context.Context, userID, category string, limit int) ([]*domain.TransactionEvent, error)
}

// HourlyTransactionLog is the hourly_transactions destination: append-only,
// partitioned by hour bucket, with a retention window stamped at write time.
// Expiry itself is the store's concern; the writer only sets the window.
type HourlyTransactionLog interface {
	Insert(ctx context.Context, e *domain.TransactionEvent, retention time.Duration) error

	// RecentByBucket retrieves up to limit unexpired rows for one hour bucket,
	// newest first. Rows do not carry a merchant or payment method.
	RecentByBucket(ctx context.Context, bucket string, limit int) ([]*domain.TransactionEvent, error)
}

// CounterStore is the increment-counter operation over the four counter
// tables. Add must be a single atomic update with no prior read, so
// concurrent writers never race on read-modify-write.
type CounterStore interface {
	// Add atomically adds amountMinor to the row's running total and 1 to its
	// running count, creating the row if needed.
	Add(ctx context.Context, table domain.CounterTable, key domain.CounterKey, amountMinor int64) error

	// Get retrieves one counter row. Returns ErrNotFound if the key has never
	// been written.
	Get(ctx context.Context, table domain.CounterTable, key domain.CounterKey) (*domain.CounterRow, error)

	// List retrieves every row of a counter table.
	List(ctx context.Context, table domain.CounterTable) ([]*domain.CounterRow, error)
}

// Destinations groups the structures one backend provides, covering all seven
// destination tables (the counter store spans four of them).
type Destinations struct {
	UserLog     UserTransactionLog
	CategoryLog CategoryTransactionLog
	HourlyLog   HourlyTransactionLog
	Counters    CounterStore
}
