package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

// HourlyLog is an in-memory implementation of storage.HourlyTransactionLog.
// Rows expire after the retention window stamped at write time; expired rows
// are filtered on read and pruned lazily.
type HourlyLog struct {
	mu   sync.RWMutex
	rows map[string][]hourlyRow // keyed by hour bucket
	now  func() time.Time       // overridable in tests
}

type hourlyRow struct {
	event     domain.TransactionEvent
	expiresAt time.Time // zero means no expiry
}

// NewHourlyLog creates a new in-memory hourly transaction log.
func NewHourlyLog() *HourlyLog {
	return &HourlyLog{
		rows: make(map[string][]hourlyRow),
		now:  time.Now,
	}
}

// Compile-time interface check.
var _ storage.HourlyTransactionLog = (*HourlyLog)(nil)

// Insert appends one event row to its hour-bucket partition with the given
// retention window. A zero retention means the row never expires.
func (s *HourlyLog) Insert(_ context.Context, e *domain.TransactionEvent, retention time.Duration) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteRejected, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := hourlyRow{event: *e}
	row.event.Merchant = ""      // this table does not carry a merchant
	row.event.PaymentMethod = "" // nor a payment method
	if retention > 0 {
		row.expiresAt = s.now().Add(retention)
	}
	s.rows[e.HourBucket] = append(s.rows[e.HourBucket], row)
	return nil
}

// RecentByBucket retrieves up to limit unexpired rows for one bucket, newest first.
func (s *HourlyLog) RecentByBucket(_ context.Context, bucket string, limit int) ([]*domain.TransactionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.rows[bucket][:0]
	live := make([]*domain.TransactionEvent, 0, len(s.rows[bucket]))
	for _, r := range s.rows[bucket] {
		if !r.expiresAt.IsZero() && !r.expiresAt.After(now) {
			continue
		}
		kept = append(kept, r)
		event := r.event
		live = append(live, &event)
	}
	s.rows[bucket] = kept

	return recentFirst(live, limit), nil
}
