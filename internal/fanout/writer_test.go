package fanout

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
	"payment-stream-lab/internal/storage/memory"
)

func testEvent(category, merchant, method string, amount int64) *domain.TransactionEvent {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	return &domain.TransactionEvent{
		ID:            uuid.New(),
		UserID:        "User_1",
		Time:          ts,
		AmountMinor:   amount,
		Category:      category,
		Merchant:      merchant,
		PaymentMethod: method,
		HourBucket:    domain.HourBucket(ts),
	}
}

func quietWriter(dest *storage.Destinations) *Writer {
	return NewWriter(Options{
		Destinations: dest,
		Logger:       log.New(io.Discard, "", 0),
	})
}

func TestWrite_AllDestinations(t *testing.T) {
	dest := memory.NewDestinations()
	w := quietWriter(dest)

	res := w.Write(context.Background(), testEvent("grocery_pos", "Acme", "credit_card", 1050))

	if got := res.Succeeded(); got != NumDestinations {
		t.Fatalf("Succeeded() = %d, want %d", got, NumDestinations)
	}
	seen := make(map[string]bool)
	for _, o := range res.Outcomes {
		if o.Destination == "" {
			t.Fatal("outcome missing destination name")
		}
		if seen[o.Destination] {
			t.Fatalf("destination %q written twice", o.Destination)
		}
		seen[o.Destination] = true
	}

	ctx := context.Background()
	rows, err := dest.UserLog.RecentByUser(ctx, "User_1", 10)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("user log rows = %d, want 1", len(rows))
	}

	row, err := dest.Counters.Get(ctx, domain.CounterMerchantStatistics, domain.CounterKey{Primary: "Acme"})
	if err != nil {
		t.Fatalf("counter Get: %v", err)
	}
	if row.TotalAmountMinor != 1050 || row.TransactionCount != 1 {
		t.Fatalf("merchant counter = %+v", row)
	}
}

func TestWrite_CountersAccumulateAcrossEvents(t *testing.T) {
	dest := memory.NewDestinations()
	w := quietWriter(dest)
	ctx := context.Background()

	w.Write(ctx, testEvent("grocery_pos", "Acme", "credit_card", 500))
	w.Write(ctx, testEvent("gas_transport", "Shell", "debit_card", 2000))
	w.Write(ctx, testEvent("grocery_pos", "Acme", "credit_card", 1000))

	row, err := dest.Counters.Get(ctx, domain.CounterSpendingByCategory, domain.CounterKey{Primary: "grocery_pos"})
	if err != nil {
		t.Fatalf("Get grocery_pos: %v", err)
	}
	if row.TotalAmountMinor != 1500 || row.TransactionCount != 2 {
		t.Fatalf("grocery counter = %+v, want total 1500 count 2", row)
	}

	row, err = dest.Counters.Get(ctx, domain.CounterSpendingByCategory, domain.CounterKey{Primary: "gas_transport"})
	if err != nil {
		t.Fatalf("Get gas_transport: %v", err)
	}
	if row.TotalAmountMinor != 2000 || row.TransactionCount != 1 {
		t.Fatalf("gas counter = %+v, want total 2000 count 1", row)
	}
}

// failingUserLog rejects every write.
type failingUserLog struct{}

func (failingUserLog) Insert(ctx context.Context, e *domain.TransactionEvent) error {
	return errors.New("broken")
}

func (failingUserLog) RecentByUser(ctx context.Context, userID string, limit int) ([]*domain.TransactionEvent, error) {
	return nil, errors.New("broken")
}

func TestWrite_FailingDestinationDoesNotBlockOthers(t *testing.T) {
	dest := memory.NewDestinations()
	dest.UserLog = failingUserLog{}
	w := quietWriter(dest)
	ctx := context.Background()

	res := w.Write(ctx, testEvent("grocery_pos", "Acme", "credit_card", 1050))

	if got := res.Succeeded(); got != NumDestinations-1 {
		t.Fatalf("Succeeded() = %d, want %d", got, NumDestinations-1)
	}
	failed := res.Failed()
	if len(failed) != 1 || failed[0].Destination != DestUserLog {
		t.Fatalf("Failed() = %+v, want one %s failure", failed, DestUserLog)
	}

	// The other log still received the row.
	rows, err := dest.CategoryLog.RecentByUserCategory(ctx, "User_1", "grocery_pos", 10)
	if err != nil {
		t.Fatalf("RecentByUserCategory: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("category log rows = %d, want 1", len(rows))
	}
}

func TestWrite_ManyEventsNoDuplicates(t *testing.T) {
	dest := memory.NewDestinations()
	w := quietWriter(dest)
	ctx := context.Background()

	const n = 25
	for i := 0; i < n; i++ {
		e := testEvent("grocery_pos", "Acme", "credit_card", 100)
		e.Time = e.Time.Add(time.Duration(i) * time.Second)
		w.Write(ctx, e)
	}

	rows, err := dest.UserLog.RecentByUser(ctx, "User_1", n*2)
	if err != nil {
		t.Fatalf("RecentByUser: %v", err)
	}
	if len(rows) != n {
		t.Fatalf("user log rows = %d, want %d", len(rows), n)
	}
	ids := make(map[uuid.UUID]bool)
	for _, r := range rows {
		if ids[r.ID] {
			t.Fatalf("duplicate transaction id %s", r.ID)
		}
		ids[r.ID] = true
	}

	row, err := dest.Counters.Get(ctx, domain.CounterPaymentMethodStats, domain.CounterKey{Primary: "credit_card"})
	if err != nil {
		t.Fatalf("counter Get: %v", err)
	}
	if row.TransactionCount != n || row.TotalAmountMinor != n*100 {
		t.Fatalf("payment method counter = %+v", row)
	}
}
