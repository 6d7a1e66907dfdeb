package synth

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"payment-stream-lab/internal/domain"
)

func testWorkingSet() *domain.WorkingSet {
	return domain.NewWorkingSet([]domain.SourceRecord{
		{AmountMinor: 1000, Category: "grocery_pos", Merchant: "fraud_Acme", PaymentMethod: "credit_card"},
		{AmountMinor: 2000, Category: "gas_transport", Merchant: "Shell", PaymentMethod: "debit_card"},
		{AmountMinor: 500, Category: "grocery_pos", Merchant: "fraud_Corner Store", PaymentMethod: "cash"},
	})
}

func TestNew_RequiresNonEmptyWorkingSet(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for nil working set")
	}
	if _, err := New(Options{WorkingSet: domain.NewWorkingSet(nil)}); err == nil {
		t.Fatal("expected error for empty working set")
	}
}

func TestNext_FieldsComeFromWorkingSet(t *testing.T) {
	ws := testWorkingSet()
	s, err := New(Options{WorkingSet: ws, Rand: rand.New(rand.NewSource(7))})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	templates := map[int64]domain.SourceRecord{}
	for _, rec := range ws.Records() {
		templates[rec.AmountMinor] = rec
	}

	for i := 0; i < 100; i++ {
		e := s.Next()
		rec, ok := templates[e.AmountMinor]
		if !ok {
			t.Fatalf("event amount %d not in working set", e.AmountMinor)
		}
		if e.Category != rec.Category || e.PaymentMethod != rec.PaymentMethod {
			t.Fatalf("event fields diverge from template: %+v vs %+v", e, rec)
		}
		if e.Merchant != domain.CleanMerchant(rec.Merchant) {
			t.Fatalf("merchant %q not cleaned from template %q", e.Merchant, rec.Merchant)
		}
	}
}

func TestNext_FreshIdentityAndBucket(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	s, err := New(Options{
		WorkingSet: testWorkingSet(),
		UserID:     "User_1",
		Rand:       rand.New(rand.NewSource(1)),
		Now:        func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	seen := map[uuid.UUID]bool{}
	for i := 0; i < 50; i++ {
		e := s.Next()
		if seen[e.ID] {
			t.Fatalf("duplicate event id %s", e.ID)
		}
		seen[e.ID] = true
		if !e.Time.Equal(fixed) {
			t.Errorf("event time %v, want %v", e.Time, fixed)
		}
		if e.HourBucket != "2026-08-30-14" {
			t.Errorf("hour bucket %q, want 2026-08-30-14", e.HourBucket)
		}
		if e.UserID != "User_1" {
			t.Errorf("user id %q, want User_1", e.UserID)
		}
		if err := e.Validate(); err != nil {
			t.Errorf("synthesized event invalid: %v", err)
		}
	}
}

func TestNext_NormalizesTimestampToUTC(t *testing.T) {
	eastern := time.FixedZone("UTC-4", -4*60*60)
	local := time.Date(2026, 8, 30, 1, 15, 0, 0, eastern)
	s, err := New(Options{
		WorkingSet: testWorkingSet(),
		Rand:       rand.New(rand.NewSource(1)),
		Now:        func() time.Time { return local },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	e := s.Next()
	if e.Time.Location() != time.UTC {
		t.Fatalf("event time zone = %v, want UTC", e.Time.Location())
	}
	if !e.Time.Equal(local) {
		t.Fatalf("event time %v does not equal wall clock %v", e.Time, local)
	}
	// 01:15 UTC-4 is 05:15 UTC; the bucket must name the UTC hour so readers
	// deriving the current bucket from their own UTC clock find the row.
	if e.HourBucket != "2026-08-30-05" {
		t.Fatalf("hour bucket %q, want 2026-08-30-05", e.HourBucket)
	}
	if got := domain.HourBucket(local.UTC()); e.HourBucket != got {
		t.Fatalf("bucket %q diverges from UTC derivation %q", e.HourBucket, got)
	}
}

func TestNext_ConcurrentUse(t *testing.T) {
	s, err := New(Options{WorkingSet: testWorkingSet()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				if e := s.Next(); e.Validate() != nil {
					t.Error("invalid event from concurrent Next")
					return
				}
			}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
