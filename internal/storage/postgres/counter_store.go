package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// counterKeyColumns maps each counter table to its key columns, in key order.
var counterKeyColumns = map[domain.CounterTable][]string{
	domain.CounterSpendingByCategory:     {"category"},
	domain.CounterSpendingByUserCategory: {"user_id", "category"},
	domain.CounterMerchantStatistics:     {"merchant"},
	domain.CounterPaymentMethodStats:     {"payment_method"},
}

// CounterStore implements storage.CounterStore using PostgreSQL. The add is a
// single atomic upsert: INSERT .. ON CONFLICT DO UPDATE adds to the running
// totals server-side, so concurrent writers never read before writing.
type CounterStore struct {
	pool *Pool
}

// NewCounterStore creates a new CounterStore.
func NewCounterStore(pool *Pool) *CounterStore {
	return &CounterStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CounterStore = (*CounterStore)(nil)

// Add atomically adds amountMinor and a count of 1 to the keyed row.
func (s *CounterStore) Add(ctx context.Context, table domain.CounterTable, key domain.CounterKey, amountMinor int64) error {
	cols, args, err := counterKeyArgs(table, key)
	if err != nil {
		return err
	}
	if amountMinor < 0 {
		return fmt.Errorf("%w: negative amount", storage.ErrWriteRejected)
	}

	// $1..$n are key parts, $n+1 is the amount.
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	amountArg := fmt.Sprintf("$%d", len(cols)+1)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, total_amount, transaction_count)
		VALUES (%s, %s, 1)
		ON CONFLICT (%s) DO UPDATE SET
			total_amount = %s.total_amount + EXCLUDED.total_amount,
			transaction_count = %s.transaction_count + 1
	`, table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), amountArg,
		strings.Join(cols, ", "), table, table)

	args = append(args, amountMinor)
	_, err = s.pool.Exec(ctx, query, args...)
	return translateErr("upsert "+string(table), err)
}

// Get retrieves one counter row. Returns ErrNotFound for unwritten keys.
func (s *CounterStore) Get(ctx context.Context, table domain.CounterTable, key domain.CounterKey) (*domain.CounterRow, error) {
	cols, args, err := counterKeyArgs(table, key)
	if err != nil {
		return nil, err
	}

	where := make([]string, len(cols))
	for i, c := range cols {
		where[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	query := fmt.Sprintf(
		"SELECT total_amount, transaction_count FROM %s WHERE %s",
		table, strings.Join(where, " AND "),
	)

	row := domain.CounterRow{Key: key}
	err = s.pool.QueryRow(ctx, query, args...).Scan(&row.TotalAmountMinor, &row.TransactionCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, translateErr("select "+string(table), err)
	}
	return &row, nil
}

// List retrieves every row of a counter table, ordered by key.
func (s *CounterStore) List(ctx context.Context, table domain.CounterTable) ([]*domain.CounterRow, error) {
	cols, ok := counterKeyColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown counter table %q", storage.ErrWriteRejected, table)
	}

	query := fmt.Sprintf(
		"SELECT %s, total_amount, transaction_count FROM %s ORDER BY %s",
		strings.Join(cols, ", "), table, strings.Join(cols, ", "),
	)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, translateErr("query "+string(table), err)
	}
	defer rows.Close()

	var out []*domain.CounterRow
	for rows.Next() {
		row := domain.CounterRow{}
		dest := make([]interface{}, 0, len(cols)+2)
		dest = append(dest, &row.Key.Primary)
		if len(cols) == 2 {
			dest = append(dest, &row.Key.Secondary)
		}
		dest = append(dest, &row.TotalAmountMinor, &row.TransactionCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("iterate "+string(table)+" rows", err)
	}
	return out, nil
}

// counterKeyArgs validates the key shape against the table and returns the
// key columns and bind arguments.
func counterKeyArgs(table domain.CounterTable, key domain.CounterKey) ([]string, []interface{}, error) {
	cols, ok := counterKeyColumns[table]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown counter table %q", storage.ErrWriteRejected, table)
	}
	if key.Primary == "" {
		return nil, nil, fmt.Errorf("%w: empty counter key", storage.ErrWriteRejected)
	}
	switch len(cols) {
	case 1:
		if key.Secondary != "" {
			return nil, nil, fmt.Errorf("%w: table %q takes a single-part key", storage.ErrWriteRejected, table)
		}
		return cols, []interface{}{key.Primary}, nil
	default:
		if key.Secondary == "" {
			return nil, nil, fmt.Errorf("%w: table %q requires a two-part key", storage.ErrWriteRejected, table)
		}
		return cols, []interface{}{key.Primary, key.Secondary}, nil
	}
}
