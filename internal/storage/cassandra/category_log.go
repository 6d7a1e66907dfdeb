package cassandra

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// CategoryLog implements storage.CategoryTransactionLog on
// transactions_by_category: composite partition key (user_id, category).
type CategoryLog struct {
	session *Session
}

// NewCategoryLog creates a new CategoryLog.
func NewCategoryLog(session *Session) *CategoryLog {
	return &CategoryLog{session: session}
}

// Compile-time interface check.
var _ storage.CategoryTransactionLog = (*CategoryLog)(nil)

// Insert appends one event row.
func (s *CategoryLog) Insert(ctx context.Context, e *domain.TransactionEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	const query = `
		INSERT INTO transactions_by_category
		(user_id, category, transaction_time, transaction_id, amount_minor, merchant)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	err := s.session.Query(query,
		e.UserID, e.Category, e.Time, gocql.UUID(e.ID), e.AmountMinor, e.Merchant,
	).WithContext(ctx).Exec()
	return translateErr("insert transactions_by_category", err)
}

// RecentByUserCategory retrieves up to limit rows for one partition, newest first.
func (s *CategoryLog) RecentByUserCategory(ctx context.Context, userID, category string, limit int) ([]*domain.TransactionEvent, error) {
	const query = `
		SELECT user_id, category, transaction_time, transaction_id, amount_minor, merchant
		FROM transactions_by_category
		WHERE user_id = ? AND category = ?
		LIMIT ?
	`
	iter := s.session.Query(query, userID, category, limit).WithContext(ctx).Iter()

	var rows []*domain.TransactionEvent
	var e domain.TransactionEvent
	var id gocql.UUID
	for iter.Scan(&e.UserID, &e.Category, &e.Time, &id, &e.AmountMinor, &e.Merchant) {
		row := e
		row.ID = uuid.UUID(id)
		row.HourBucket = domain.HourBucket(row.Time)
		rows = append(rows, &row)
	}
	if err := iter.Close(); err != nil {
		return nil, translateErr("query transactions_by_category", err)
	}
	return rows, nil
}
