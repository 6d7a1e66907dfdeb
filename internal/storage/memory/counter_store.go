package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// CounterStore is an in-memory implementation of storage.CounterStore
// spanning all four counter tables.
type CounterStore struct {
	mu     sync.Mutex
	tables map[domain.CounterTable]map[domain.CounterKey]*domain.CounterRow
}

// NewCounterStore creates a new in-memory counter store.
func NewCounterStore() *CounterStore {
	tables := make(map[domain.CounterTable]map[domain.CounterKey]*domain.CounterRow, len(domain.CounterTables))
	for _, t := range domain.CounterTables {
		tables[t] = make(map[domain.CounterKey]*domain.CounterRow)
	}
	return &CounterStore{tables: tables}
}

// Compile-time interface check.
var _ storage.CounterStore = (*CounterStore)(nil)

// Add atomically adds amountMinor and a count of 1 to the keyed row.
func (s *CounterStore) Add(_ context.Context, table domain.CounterTable, key domain.CounterKey, amountMinor int64) error {
	if err := validateCounterWrite(table, key, amountMinor); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	row, ok := rows[key]
	if !ok {
		row = &domain.CounterRow{Key: key}
		rows[key] = row
	}
	row.TotalAmountMinor += amountMinor
	row.TransactionCount++
	return nil
}

// Get retrieves one counter row. Returns ErrNotFound for unwritten keys.
func (s *CounterStore) Get(_ context.Context, table domain.CounterTable, key domain.CounterKey) (*domain.CounterRow, error) {
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown counter table %q", storage.ErrWriteRejected, table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := rows[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	rowCopy := *row
	return &rowCopy, nil
}

// List retrieves every row of a counter table, ordered by key.
func (s *CounterStore) List(_ context.Context, table domain.CounterTable) ([]*domain.CounterRow, error) {
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown counter table %q", storage.ErrWriteRejected, table)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.CounterRow, 0, len(rows))
	for _, row := range rows {
		rowCopy := *row
		out = append(out, &rowCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Primary != out[j].Key.Primary {
			return out[i].Key.Primary < out[j].Key.Primary
		}
		return out[i].Key.Secondary < out[j].Key.Secondary
	})
	return out, nil
}

// validateCounterWrite rejects writes that no counter table can accept.
func validateCounterWrite(table domain.CounterTable, key domain.CounterKey, amountMinor int64) error {
	twoPart, err := counterKeyShape(table)
	if err != nil {
		return err
	}
	switch {
	case key.Primary == "":
		return fmt.Errorf("%w: empty counter key", storage.ErrWriteRejected)
	case twoPart && key.Secondary == "":
		return fmt.Errorf("%w: table %q requires a two-part key", storage.ErrWriteRejected, table)
	case !twoPart && key.Secondary != "":
		return fmt.Errorf("%w: table %q takes a single-part key", storage.ErrWriteRejected, table)
	case amountMinor < 0:
		return fmt.Errorf("%w: negative amount", storage.ErrWriteRejected)
	}
	return nil
}

// counterKeyShape reports whether the table's key has a secondary part.
func counterKeyShape(table domain.CounterTable) (twoPart bool, err error) {
	switch table {
	case domain.CounterSpendingByUserCategory:
		return true, nil
	case domain.CounterSpendingByCategory, domain.CounterMerchantStatistics, domain.CounterPaymentMethodStats:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown counter table %q", storage.ErrWriteRejected, table)
	}
}
