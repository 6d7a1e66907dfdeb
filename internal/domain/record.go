package domain

// SourceRecord is an immutable template row loaded from the source dataset.
// Records are loaded once at startup and never mutated afterwards.
type SourceRecord struct {
	AmountMinor   int64  // integer minor units (cents), parsed exactly from the source decimal string
	Category      string // e.g. "grocery_pos"
	Merchant      string // raw merchant name, may carry the synthetic anonymization prefix
	PaymentMethod string
}

// WorkingSet is a fixed-capacity collection of source records produced by the
// sampler. Once built it is read-only and safe to share across goroutines.
type WorkingSet struct {
	records []SourceRecord
}

// NewWorkingSet wraps the given records. The slice is owned by the working set
// after the call; callers must not mutate it.
func NewWorkingSet(records []SourceRecord) *WorkingSet {
	return &WorkingSet{records: records}
}

// Len returns the number of records in the working set.
func (w *WorkingSet) Len() int {
	return len(w.records)
}

// At returns the record at index i.
func (w *WorkingSet) At(i int) SourceRecord {
	return w.records[i]
}

// Records returns a copy of the underlying records.
func (w *WorkingSet) Records() []SourceRecord {
	out := make([]SourceRecord, len(w.records))
	copy(out, w.records)
	return out
}
