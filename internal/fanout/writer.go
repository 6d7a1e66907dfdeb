// Package fanout multiplies one transaction event into writes against every
// destination table. Writes are best effort and independent: a failing
// destination is recorded in the result, never retried here, and never stops
// the other six.
package fanout

import (
	"context"
	"log"
	"sync"
	"time"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/observability"
	"payment-stream-lab/internal/storage"
)

// Destination names, one per table written on each event.
const (
	DestUserLog         = "transactions_by_user"
	DestCategoryLog     = "transactions_by_category"
	DestHourlyLog       = "hourly_transactions"
	DestCategoryCounter = string(domain.CounterSpendingByCategory)
	DestUserCategory    = string(domain.CounterSpendingByUserCategory)
	DestMerchantStats   = string(domain.CounterMerchantStatistics)
	DestPaymentMethod   = string(domain.CounterPaymentMethodStats)
)

// NumDestinations is the number of writes attempted per event.
const NumDestinations = 7

// DefaultHourlyRetention bounds how long hourly log rows stay readable.
const DefaultHourlyRetention = 7 * 24 * time.Hour

// Outcome is the result of one destination write.
type Outcome struct {
	Destination string
	Err         error
}

// Result reports the per-destination outcomes of one fan-out.
type Result struct {
	EventID  string
	Outcomes [NumDestinations]Outcome
}

// Succeeded returns the number of destinations written without error.
func (r *Result) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that carry an error.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Writer fans one event out to all destinations concurrently.
type Writer struct {
	dest            *storage.Destinations
	hourlyRetention time.Duration
	metrics         *observability.Metrics
	logger          *log.Logger
}

// Options configures a Writer.
type Options struct {
	// Destinations is the store bundle written on each event. Required.
	Destinations *storage.Destinations
	// HourlyRetention overrides DefaultHourlyRetention when positive.
	HourlyRetention time.Duration
	// Metrics receives per-destination write counts. Optional.
	Metrics *observability.Metrics
	// Logger receives per-destination failure lines. Defaults to log.Default().
	Logger *log.Logger
}

// NewWriter creates a Writer over the given destinations.
func NewWriter(opts Options) *Writer {
	retention := opts.HourlyRetention
	if retention <= 0 {
		retention = DefaultHourlyRetention
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{
		dest:            opts.Destinations,
		hourlyRetention: retention,
		metrics:         opts.Metrics,
		logger:          logger,
	}
}

// Write attempts all destination writes for one event and waits for every
// one to finish. The returned error is nil even when destinations fail; the
// Result carries the per-destination outcomes.
func (w *Writer) Write(ctx context.Context, e *domain.TransactionEvent) *Result {
	start := time.Now()
	result := &Result{EventID: e.ID.String()}

	writes := [NumDestinations]struct {
		name string
		fn   func() error
	}{
		{DestUserLog, func() error {
			return w.dest.UserLog.Insert(ctx, e)
		}},
		{DestCategoryLog, func() error {
			return w.dest.CategoryLog.Insert(ctx, e)
		}},
		{DestHourlyLog, func() error {
			return w.dest.HourlyLog.Insert(ctx, e, w.hourlyRetention)
		}},
		{DestCategoryCounter, func() error {
			key := domain.CounterKey{Primary: e.Category}
			return w.dest.Counters.Add(ctx, domain.CounterSpendingByCategory, key, e.AmountMinor)
		}},
		{DestUserCategory, func() error {
			key := domain.CounterKey{Primary: e.UserID, Secondary: e.Category}
			return w.dest.Counters.Add(ctx, domain.CounterSpendingByUserCategory, key, e.AmountMinor)
		}},
		{DestMerchantStats, func() error {
			key := domain.CounterKey{Primary: e.Merchant}
			return w.dest.Counters.Add(ctx, domain.CounterMerchantStatistics, key, e.AmountMinor)
		}},
		{DestPaymentMethod, func() error {
			key := domain.CounterKey{Primary: e.PaymentMethod}
			return w.dest.Counters.Add(ctx, domain.CounterPaymentMethodStats, key, e.AmountMinor)
		}},
	}

	var wg sync.WaitGroup
	for i := range writes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := writes[i].name
			err := writes[i].fn()
			result.Outcomes[i] = Outcome{Destination: name, Err: err}
			if err != nil {
				w.logger.Printf("write to %s failed: %v", name, err)
			}
			w.metrics.ObserveDestinationWrite(name, err)
		}(i)
	}
	wg.Wait()

	w.metrics.ObserveFanout(time.Since(start))
	return result
}
