package cassandra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gocql/gocql"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// counterKeyColumns maps each counter table to its key columns, in key order.
// This is the closed set of counter destinations; nothing here is built from
// caller-supplied statement text.
var counterKeyColumns = map[domain.CounterTable][]string{
	domain.CounterSpendingByCategory:     {"category"},
	domain.CounterSpendingByUserCategory: {"user_id", "category"},
	domain.CounterMerchantStatistics:     {"merchant"},
	domain.CounterPaymentMethodStats:     {"payment_method"},
}

// CounterStore implements storage.CounterStore on the four Cassandra counter
// tables. Counter columns make the add a single atomic server-side update
// with no read before write.
type CounterStore struct {
	session *Session
}

// NewCounterStore creates a new CounterStore.
func NewCounterStore(session *Session) *CounterStore {
	return &CounterStore{session: session}
}

// Compile-time interface check.
var _ storage.CounterStore = (*CounterStore)(nil)

// Add atomically adds amountMinor and a count of 1 to the keyed row.
func (s *CounterStore) Add(ctx context.Context, table domain.CounterTable, key domain.CounterKey, amountMinor int64) error {
	cols, keyParts, err := counterKeyArgs(table, key)
	if err != nil {
		return err
	}
	if amountMinor < 0 {
		return fmt.Errorf("%w: negative amount", storage.ErrWriteRejected)
	}

	query := fmt.Sprintf(
		"UPDATE %s SET total_amount = total_amount + ?, transaction_count = transaction_count + 1 WHERE %s",
		table, whereClause(cols),
	)
	args := append([]interface{}{amountMinor}, keyParts...)

	return translateErr("update "+string(table), s.session.Query(query, args...).WithContext(ctx).Exec())
}

// Get retrieves one counter row. Returns ErrNotFound for unwritten keys.
func (s *CounterStore) Get(ctx context.Context, table domain.CounterTable, key domain.CounterKey) (*domain.CounterRow, error) {
	cols, keyParts, err := counterKeyArgs(table, key)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT total_amount, transaction_count FROM %s WHERE %s",
		table, whereClause(cols),
	)

	row := domain.CounterRow{Key: key}
	err = s.session.Query(query, keyParts...).WithContext(ctx).Scan(&row.TotalAmountMinor, &row.TransactionCount)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, translateErr("select "+string(table), err)
	}
	return &row, nil
}

// List retrieves every row of a counter table.
func (s *CounterStore) List(ctx context.Context, table domain.CounterTable) ([]*domain.CounterRow, error) {
	cols, ok := counterKeyColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown counter table %q", storage.ErrWriteRejected, table)
	}

	query := fmt.Sprintf(
		"SELECT %s, total_amount, transaction_count FROM %s",
		strings.Join(cols, ", "), table,
	)
	iter := s.session.Query(query).WithContext(ctx).Iter()

	var rows []*domain.CounterRow
	for {
		row := domain.CounterRow{}
		dest := make([]interface{}, 0, len(cols)+2)
		dest = append(dest, &row.Key.Primary)
		if len(cols) == 2 {
			dest = append(dest, &row.Key.Secondary)
		}
		dest = append(dest, &row.TotalAmountMinor, &row.TransactionCount)
		if !iter.Scan(dest...) {
			break
		}
		rows = append(rows, &row)
	}
	if err := iter.Close(); err != nil {
		return nil, translateErr("scan "+string(table), err)
	}
	return rows, nil
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

// whereClause builds "col1 = ? AND col2 = ?" for the key columns.
func whereClause(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " = ?"
	}
	return strings.Join(parts, " AND ")
}
