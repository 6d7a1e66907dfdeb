// Package synth turns working-set template records into fresh transaction
// events.
package synth

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"payment-stream-lab/internal/domain"
)

// Synthesizer draws random template rows from a working set (with
// replacement; the set is a population, not a queue) and stamps them with
// fresh identity and the current time. Safe for concurrent use.
type Synthesizer struct {
	ws     *domain.WorkingSet
	userID string
	now    func() time.Time
	newID  func() uuid.UUID

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Options configures a Synthesizer.
type Options struct {
	WorkingSet *domain.WorkingSet // required, non-empty
	UserID     string             // fixed demo identity stamped on every event
	Rand       *rand.Rand         // optional, for deterministic tests
	Now        func() time.Time   // optional clock override
	NewID      func() uuid.UUID   // optional id override
}

// DefaultUserID is the fixed identity used for single-user simulation.
const DefaultUserID = "User_1"

// New creates a Synthesizer. The working set must be non-empty.
func New(opts Options) (*Synthesizer, error) {
	if opts.WorkingSet == nil || opts.WorkingSet.Len() == 0 {
		return nil, errors.New("synthesizer requires a non-empty working set")
	}

	userID := opts.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.New
	}

	return &Synthesizer{
		ws:     opts.WorkingSet,
		userID: userID,
		rng:    rng,
		now:    now,
		newID:  newID,
	}, nil
}

// Next produces one transaction event. Amount, category and payment method
// come from the sampled template; the merchant has its synthetic prefix
// stripped; identity, timestamp and hour bucket are fresh. Timestamps are
// normalized to UTC so the hour bucket written here names the same bucket
// readers derive from their own UTC clock, whatever the process timezone.
func (s *Synthesizer) Next() *domain.TransactionEvent {
	s.mu.Lock()
	rec := s.ws.At(s.rng.Intn(s.ws.Len()))
	s.mu.Unlock()

	now := s.now().UTC()
	return &domain.TransactionEvent{
		ID:            s.newID(),
		UserID:        s.userID,
		Time:          now,
		AmountMinor:   rec.AmountMinor,
		Category:      rec.Category,
		Merchant:      domain.CleanMerchant(rec.Merchant),
		PaymentMethod: rec.PaymentMethod,
		HourBucket:    domain.HourBucket(now),
	}
}
