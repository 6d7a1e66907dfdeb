package cassandra

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// UserLog implements storage.UserTransactionLog on transactions_by_user:
// partition key user_id, clustered by transaction_time DESC so the recent
// feed needs no sort.
type UserLog struct {
	session *Session
}

// NewUserLog creates a new UserLog.
func NewUserLog(session *Session) *UserLog {
	return &UserLog{session: session}
}

// Compile-time interface check.
var _ storage.UserTransactionLog = (*UserLog)(nil)

// Insert appends one event row.
func (s *UserLog) Insert(ctx context.Context, e *domain.TransactionEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	const query = `
		INSERT INTO transactions_by_user
		(user_id, transaction_time, transaction_id, amount_minor, category, merchant, payment_method)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	err := s.session.Query(query,
		e.UserID, e.Time, gocql.UUID(e.ID), e.AmountMinor, e.Category, e.Merchant, e.PaymentMethod,
	).WithContext(ctx).Exec()
	return translateErr("insert transactions_by_user", err)
}

// RecentByUser retrieves up to limit rows for a user, newest first.
func (s *UserLog) RecentByUser(ctx context.Context, userID string, limit int) ([]*domain.TransactionEvent, error) {
	const query = `
		SELECT user_id, transaction_time, transaction_id, amount_minor, category, merchant, payment_method
		FROM transactions_by_user
		WHERE user_id = ?
		LIMIT ?
	`
	iter := s.session.Query(query, userID, limit).WithContext(ctx).Iter()

	var rows []*domain.TransactionEvent
	var e domain.TransactionEvent
	var id gocql.UUID
	for iter.Scan(&e.UserID, &e.Time, &id, &e.AmountMinor, &e.Category, &e.Merchant, &e.PaymentMethod) {
		row := e
		row.ID = uuid.UUID(id)
		row.HourBucket = domain.HourBucket(row.Time)
		rows = append(rows, &row)
	}
	if err := iter.Close(); err != nil {
		return nil, translateErr("query transactions_by_user", err)
	}
	return rows, nil
}
