package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	errNilEvent       = errors.New("nil event")
	errNegativeAmount = errors.New("negative amount")
)

func errMissingField(name string) error {
	return fmt.Errorf("missing %s", name)
}

// TransactionEvent is one synthesized payment transaction. Events are created
// fresh per emission and never retained in process memory; durability lives
// entirely in the destination tables.
type TransactionEvent struct {
	ID            uuid.UUID
	UserID        string
	Time          time.Time
	AmountMinor   int64  // integer minor units (cents)
	Category      string
	Merchant      string // anonymization prefix already stripped
	PaymentMethod string
	HourBucket    string // hourly time bucket, see HourBucket
}

// hourBucketLayout sorts lexicographically in calendar order.
const hourBucketLayout = "2006-01-02-15"

// HourBucket derives the hourly partition label for a timestamp.
func HourBucket(t time.Time) string {
	return t.Format(hourBucketLayout)
}

// Validate reports whether the event is well-formed enough to persist.
func (e *TransactionEvent) Validate() error {
	switch {
	case e == nil:
		return errNilEvent
	case e.ID == uuid.Nil:
		return errMissingField("transaction_id")
	case e.UserID == "":
		return errMissingField("user_id")
	case e.Time.IsZero():
		return errMissingField("transaction_time")
	case e.AmountMinor < 0:
		return errNegativeAmount
	case e.Category == "":
		return errMissingField("category")
	case e.Merchant == "":
		return errMissingField("merchant")
	case e.PaymentMethod == "":
		return errMissingField("payment_method")
	case e.HourBucket == "":
		return errMissingField("hour_bucket")
	}
	return nil
}
