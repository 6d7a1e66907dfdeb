package postgres

import (
	"context"
	"fmt"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// UserLog implements storage.UserTransactionLog using PostgreSQL.
type UserLog struct {
	pool *Pool
}

// NewUserLog creates a new UserLog.
func NewUserLog(pool *Pool) *UserLog {
	return &UserLog{pool: pool}
}

// Compile-time interface check.
var _ storage.UserTransactionLog = (*UserLog)(nil)

// Insert appends one event row.
func (s *UserLog) Insert(ctx context.Context, e *domain.TransactionEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	query := `
		INSERT INTO transactions_by_user
		(user_id, transaction_time, transaction_id, amount_minor, category, merchant, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		e.UserID, e.Time, e.ID, e.AmountMinor, e.Category, e.Merchant, e.PaymentMethod,
	)
	return translateErr("insert transactions_by_user", err)
}

// RecentByUser retrieves up to limit rows for a user, newest first.
func (s *UserLog) RecentByUser(ctx context.Context, userID string, limit int) ([]*domain.TransactionEvent, error) {
	query := `
		SELECT user_id, transaction_time, transaction_id, amount_minor, category, merchant, payment_method
		FROM transactions_by_user
		WHERE user_id = $1
		ORDER BY transaction_time DESC, transaction_id ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, translateErr("query transactions_by_user", err)
	}
	defer rows.Close()

	var out []*domain.TransactionEvent
	for rows.Next() {
		var e domain.TransactionEvent
		if err := rows.Scan(&e.UserID, &e.Time, &e.ID, &e.AmountMinor, &e.Category, &e.Merchant, &e.PaymentMethod); err != nil {
			return nil, fmt.Errorf("scan transactions_by_user row: %w", err)
		}
		e.HourBucket = domain.HourBucket(e.Time)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("iterate transactions_by_user rows", err)
	}
	return out, nil
}
