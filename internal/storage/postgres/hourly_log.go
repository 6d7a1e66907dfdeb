package postgres

import (
	"context"
	"fmt"
	"time"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// HourlyLog implements storage.HourlyTransactionLog using PostgreSQL. The
// retention window becomes an expires_at timestamp; reads filter expired rows
// so expiry needs no background job for correctness (a cron DELETE can
// reclaim space independently).
type HourlyLog struct {
	pool *Pool
}

// NewHourlyLog creates a new HourlyLog.
func NewHourlyLog(pool *Pool) *HourlyLog {
	return &HourlyLog{pool: pool}
}

// Compile-time interface check.
var _ storage.HourlyTransactionLog = (*HourlyLog)(nil)

// Insert appends one event row with the given retention window. A zero
// retention stores a NULL expires_at, meaning no expiry.
func (s *HourlyLog) Insert(ctx context.Context, e *domain.TransactionEvent, retention time.Duration) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	var expiresAt *time.Time
	if retention > 0 {
		t := e.Time.Add(retention)
		expiresAt = &t
	}

	query := `
		INSERT INTO hourly_transactions
		(hour_bucket, transaction_time, transaction_id, user_id, amount_minor, category, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		e.HourBucket, e.Time, e.ID, e.UserID, e.AmountMinor, e.Category, expiresAt,
	)
	return translateErr("insert hourly_transactions", err)
}

// RecentByBucket retrieves up to limit unexpired rows for one bucket, newest first.
func (s *HourlyLog) RecentByBucket(ctx context.Context, bucket string, limit int) ([]*domain.TransactionEvent, error) {
	query := `
		SELECT hour_bucket, transaction_time, transaction_id, user_id, amount_minor, category
		FROM hourly_transactions
		WHERE hour_bucket = $1 AND (expires_at IS NULL OR expires_at > now())
		ORDER BY transaction_time DESC, transaction_id ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, bucket, limit)
	if err != nil {
		return nil, translateErr("query hourly_transactions", err)
	}
	defer rows.Close()

	var out []*domain.TransactionEvent
	for rows.Next() {
		var e domain.TransactionEvent
		if err := rows.Scan(&e.HourBucket, &e.Time, &e.ID, &e.UserID, &e.AmountMinor, &e.Category); err != nil {
			return nil, fmt.Errorf("scan hourly_transactions row: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("iterate hourly_transactions rows", err)
	}
	return out, nil
}
