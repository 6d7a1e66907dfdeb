// Package memory provides in-memory destination implementations, used by
// tests and by the generator's memory backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// UserLog is an in-memory implementation of storage.UserTransactionLog.
type UserLog struct {
	mu   sync.RWMutex
	rows map[string][]*domain.TransactionEvent // keyed by user_id
}

// NewUserLog creates a new in-memory user transaction log.
func NewUserLog() *UserLog {
	return &UserLog{rows: make(map[string][]*domain.TransactionEvent)}
}

// Compile-time interface check.
var _ storage.UserTransactionLog = (*UserLog)(nil)

// Insert appends one event row to the user's partition.
func (s *UserLog) Insert(_ context.Context, e *domain.TransactionEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := *e
	s.rows[e.UserID] = append(s.rows[e.UserID], &row)
	return nil
}

// RecentByUser retrieves up to limit rows for a user, newest first.
func (s *UserLog) RecentByUser(_ context.Context, userID string, limit int) ([]*domain.TransactionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return recentFirst(s.rows[userID], limit), nil
}

// recentFirst returns up to limit copies of rows sorted by time descending.
func recentFirst(rows []*domain.TransactionEvent, limit int) []*domain.TransactionEvent {
	out := make([]*domain.TransactionEvent, 0, len(rows))
	for _, r := range rows {
		row := *r
		out = append(out, &row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.After(out[j].Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
