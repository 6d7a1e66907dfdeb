package postgres

import (
	"context"
	"fmt"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// CategoryLog implements storage.CategoryTransactionLog using PostgreSQL.
type CategoryLog struct {
	pool *Pool
}

// NewCategoryLog creates a new CategoryLog.
func NewCategoryLog(pool *Pool) *CategoryLog {
	return &CategoryLog{pool: pool}
}

// Compile-time interface check.
var _ storage.CategoryTransactionLog = (*CategoryLog)(nil)

// Insert appends one event row.
func (s *CategoryLog) Insert(ctx context.Context, e *domain.TransactionEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	query := `
		INSERT INTO transactions_by_category
		(user_id, category, transaction_time, transaction_id, amount_minor, merchant)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		e.UserID, e.Category, e.Time, e.ID, e.AmountMinor, e.Merchant,
	)
	return translateErr("insert transactions_by_category", err)
}

// RecentByUserCategory retrieves up to limit rows for one partition, newest first.
func (s *CategoryLog) RecentByUserCategory(ctx context.Context, userID, category string, limit int) ([]*domain.TransactionEvent, error) {
	query := `
		SELECT user_id, category, transaction_time, transaction_id, amount_minor, merchant
		FROM transactions_by_category
		WHERE user_id = $1 AND category = $2
		ORDER BY transaction_time DESC, transaction_id ASC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, userID, category, limit)
	if err != nil {
		return nil, translateErr("query transactions_by_category", err)
	}
	defer rows.Close()

	var out []*domain.TransactionEvent
	for rows.Next() {
		var e domain.TransactionEvent
		if err := rows.Scan(&e.UserID, &e.Category, &e.Time, &e.ID, &e.AmountMinor, &e.Merchant); err != nil {
			return nil, fmt.Errorf("scan transactions_by_category row: %w", err)
		}
		e.HourBucket = domain.HourBucket(e.Time)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("iterate transactions_by_category rows", err)
	}
	return out, nil
}
