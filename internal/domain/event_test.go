package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func validEvent() *TransactionEvent {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return &TransactionEvent{
		ID:            uuid.New(),
		UserID:        "User_1",
		Time:          now,
		AmountMinor:   1050,
		Category:      "grocery_pos",
		Merchant:      "Acme",
		PaymentMethod: "credit_card",
		HourBucket:    HourBucket(now),
	}
}

func TestTransactionEvent_Validate(t *testing.T) {
	if err := validEvent().Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	mutations := map[string]func(*TransactionEvent){
		"nil id":          func(e *TransactionEvent) { e.ID = uuid.Nil },
		"empty user":      func(e *TransactionEvent) { e.UserID = "" },
		"zero time":       func(e *TransactionEvent) { e.Time = time.Time{} },
		"negative amount": func(e *TransactionEvent) { e.AmountMinor = -1 },
		"empty category":  func(e *TransactionEvent) { e.Category = "" },
		"empty merchant":  func(e *TransactionEvent) { e.Merchant = "" },
		"empty method":    func(e *TransactionEvent) { e.PaymentMethod = "" },
		"empty bucket":    func(e *TransactionEvent) { e.HourBucket = "" },
	}
	for name, mutate := range mutations {
		e := validEvent()
		mutate(e)
		if err := e.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
