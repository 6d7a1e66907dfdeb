package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// HourlyLog implements storage.HourlyTransactionLog on hourly_transactions:
// partition key hour_bucket, retention stamped per write with USING TTL.
type HourlyLog struct {
	session *Session
}

// NewHourlyLog creates a new HourlyLog.
func NewHourlyLog(session *Session) *HourlyLog {
	return &HourlyLog{session: session}
}

// Compile-time interface check.
var _ storage.HourlyTransactionLog = (*HourlyLog)(nil)

// Insert appends one event row with the given retention window. The store
// expires the row itself; a zero retention means no expiry.
func (s *HourlyLog) Insert(ctx context.Context, e *domain.TransactionEvent, retention time.Duration) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	const query = `
		INSERT INTO hourly_transactions
		(hour_bucket, transaction_time, transaction_id, user_id, amount_minor, category)
		VALUES (?, ?, ?, ?, ?, ?)
		USING TTL ?
	`
	ttlSeconds := int(retention / time.Second)
	err := s.session.Query(query,
		e.HourBucket, e.Time, gocql.UUID(e.ID), e.UserID, e.AmountMinor, e.Category, ttlSeconds,
	).WithContext(ctx).Exec()
	return translateErr("insert hourly_transactions", err)
}

// RecentByBucket retrieves up to limit unexpired rows for one bucket, newest first.
func (s *HourlyLog) RecentByBucket(ctx context.Context, bucket string, limit int) ([]*domain.TransactionEvent, error) {
	const query = `
		SELECT hour_bucket, transaction_time, transaction_id, user_id, amount_minor, category
		FROM hourly_transactions
		WHERE hour_bucket = ?
		LIMIT ?
	`
	iter := s.session.Query(query, bucket, limit).WithContext(ctx).Iter()

	var rows []*domain.TransactionEvent
	var e domain.TransactionEvent
	var id gocql.UUID
	for iter.Scan(&e.HourBucket, &e.Time, &id, &e.UserID, &e.AmountMinor, &e.Category) {
		row := e
		row.ID = uuid.UUID(id)
		rows = append(rows, &row)
	}
	if err := iter.Close(); err != nil {
		return nil, translateErr("query hourly_transactions", err)
	}
	return rows, nil
}
