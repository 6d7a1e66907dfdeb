package memory

import (
	"context"
	"fmt"
	"sync"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// CategoryLog is an in-memory implementation of storage.CategoryTransactionLog.
type CategoryLog struct {
	mu   sync.RWMutex
	rows map[categoryKey][]*domain.TransactionEvent
}

type categoryKey struct {
	userID   string
	category string
}

// NewCategoryLog creates a new in-memory category transaction log.
func NewCategoryLog() *CategoryLog {
	return &CategoryLog{rows: make(map[categoryKey][]*domain.TransactionEvent)}
}

// Compile-time interface check.
var _ storage.CategoryTransactionLog = (*CategoryLog)(nil)

// Insert appends one event row to the (user, category) partition.
func (s *CategoryLog) Insert(_ context.Context, e *domain.TransactionEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := categoryKey{userID: e.UserID, category: e.Category}
	row := *e
	row.PaymentMethod = "" // this table does not carry a payment method
	s.rows[key] = append(s.rows[key], &row)
	return nil
}

// RecentByUserCategory retrieves up to limit rows for one partition, newest first.
func (s *CategoryLog) RecentByUserCategory(_ context.Context, userID, category string, limit int) ([]*domain.TransactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return recentFirst(s.rows[categoryKey{userID: userID, category: category}], limit), nil
}
