// Package dashboard serves read-side views over the destination tables: a
// polling aggregator plus an HTTP/WebSocket API for live summaries.
package dashboard

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/observability"
	"payment-stream-lab/internal/storage"
)

// Snapshot is one polled view over every destination table. Sections that
// fail to load keep their previous values, so a transient backend error
// degrades the view instead of blanking it.
type Snapshot struct {
	TakenAt          time.Time
	Transactions     []*domain.TransactionEvent
	Categories       []*domain.CounterRow
	UserCategories   []*domain.CounterRow
	Merchants        []*domain.CounterRow
	PaymentMethods   []*domain.CounterRow
	Hourly           []*domain.TransactionEvent
	TotalCount       int64
	TotalAmountMinor int64
}

// Defaults for unset PollerOptions fields.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultFeedLimit    = 25
)

// PollerOptions configures a Poller.
type PollerOptions struct {
	// Destinations is the store bundle read on each cycle. Required.
	Destinations *storage.Destinations
	// UserID scopes the transaction feed. Defaults to the stream identity.
	UserID string
	// Interval is the wait between poll cycles.
	Interval time.Duration
	// FeedLimit bounds the recent-transaction sections.
	FeedLimit int

	Metrics *observability.Metrics
	Logger  *log.Logger
}

// Poller refreshes a Snapshot on a fixed interval and pushes each refresh
// to subscribers.
type Poller struct {
	dest      *storage.Destinations
	userID    string
	interval  time.Duration
	feedLimit int
	metrics   *observability.Metrics
	logger    *log.Logger

	mu      sync.RWMutex
	current Snapshot
	subs    map[chan Snapshot]struct{}
}

// NewPoller creates a poller over the given destinations.
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Destinations == nil {
		return nil, errors.New("dashboard: destinations are required")
	}
	if opts.UserID == "" {
		opts.UserID = "User_1"
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = DefaultFeedLimit
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Poller{
		dest:      opts.Destinations,
		userID:    opts.UserID,
		interval:  opts.Interval,
		feedLimit: opts.FeedLimit,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		subs:      make(map[chan Snapshot]struct{}),
	}, nil
}

// Current returns the latest snapshot.
func (p *Poller) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Subscribe registers for snapshot pushes. The returned cancel function
// removes the subscription and closes the channel. Slow subscribers miss
// snapshots instead of blocking the poll loop.
func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()
	p.metrics.AddDashboardSubscribers(1)

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
			p.metrics.AddDashboardSubscribers(-1)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

// Run polls until the context is cancelled. The first cycle runs
// immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh runs one poll cycle and pushes the result to subscribers.
func (p *Poller) Refresh(ctx context.Context) Snapshot {
	p.mu.RLock()
	next := p.current
	p.mu.RUnlock()
	next.TakenAt = time.Now()

	var pollErr error
	keep := func(section string, err error) {
		if err != nil {
			pollErr = err
			p.logger.Printf("poll %s failed, keeping previous: %v", section, err)
		}
	}

	if rows, err := p.dest.UserLog.RecentByUser(ctx, p.userID, p.feedLimit); err == nil {
		next.Transactions = rows
	} else {
		keep("transactions", err)
	}
	if rows, err := p.dest.Counters.List(ctx, domain.CounterSpendingByCategory); err == nil {
		next.Categories = rows
		var count, total int64
		for _, r := range rows {
			count += r.TransactionCount
			total += r.TotalAmountMinor
		}
		next.TotalCount = count
		next.TotalAmountMinor = total
	} else {
		keep("categories", err)
	}
	if rows, err := p.dest.Counters.List(ctx, domain.CounterSpendingByUserCategory); err == nil {
		next.UserCategories = rows
	} else {
		keep("user categories", err)
	}
	if rows, err := p.dest.Counters.List(ctx, domain.CounterMerchantStatistics); err == nil {
		next.Merchants = rows
	} else {
		keep("merchants", err)
	}
	if rows, err := p.dest.Counters.List(ctx, domain.CounterPaymentMethodStats); err == nil {
		next.PaymentMethods = rows
	} else {
		keep("payment methods", err)
	}
	bucket := domain.HourBucket(next.TakenAt.UTC())
	if rows, err := p.dest.HourlyLog.RecentByBucket(ctx, bucket, p.feedLimit); err == nil {
		next.Hourly = rows
	} else {
		keep("hourly", err)
	}

	p.metrics.ObserveDashboardPoll(pollErr)

	p.mu.Lock()
	p.current = next
	for ch := range p.subs {
		select {
		case ch <- next:
		default:
		}
	}
	p.mu.Unlock()
	return next
}
