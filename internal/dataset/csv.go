// Package dataset reads source transaction templates from row-oriented
// tabular files. Sources stream records one at a time so memory stays
// independent of file size; bounding the in-memory set is the sampler's job.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"payment-stream-lab/internal/domain"
)

// ErrSourceNotFound is returned when the source file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// Required header fields.
const (
	fieldAmount        = "amount"
	fieldCategory      = "category"
	fieldMerchant      = "merchant"
	fieldPaymentMethod = "payment_method"
)

// CSVSource streams SourceRecords from a header-mapped CSV file. Extra
// columns are ignored; required columns may appear in any position.
type CSVSource struct {
	f      *os.File
	reader *csv.Reader
	cols   map[string]int
	line   int // 1-based data row counter, for error messages
}

// OpenCSV opens a CSV source file. Returns ErrSourceNotFound (wrapped) if the
// path does not exist.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("open source file: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows validated against the header map instead

	src := &CSVSource{f: f, reader: r}

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		// Completely empty file: no header, no records. The sampler turns
		// the immediate EOF from Next into its empty-source error.
		return src, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{fieldAmount, fieldCategory, fieldMerchant, fieldPaymentMethod} {
		if _, ok := cols[required]; !ok {
			f.Close()
			return nil, fmt.Errorf("source file missing required column %q", required)
		}
	}
	src.cols = cols
	return src, nil
}

// Next returns the next record, or io.EOF when the source is drained.
func (s *CSVSource) Next() (*domain.SourceRecord, error) {
	if s.cols == nil {
		return nil, io.EOF
	}

	row, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read row %d: %w", s.line+1, err)
	}
	s.line++

	get := func(field string) (string, error) {
		idx := s.cols[field]
		if idx >= len(row) {
			return "", fmt.Errorf("row %d: missing field %q", s.line, field)
		}
		return row[idx], nil
	}

	amountStr, err := get(fieldAmount)
	if err != nil {
		return nil, err
	}
	amountMinor, err := domain.ParseAmountMinor(amountStr)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", s.line, err)
	}
	category, err := get(fieldCategory)
	if err != nil {
		return nil, err
	}
	merchant, err := get(fieldMerchant)
	if err != nil {
		return nil, err
	}
	paymentMethod, err := get(fieldPaymentMethod)
	if err != nil {
		return nil, err
	}

	return &domain.SourceRecord{
		AmountMinor:   amountMinor,
		Category:      category,
		Merchant:      merchant,
		PaymentMethod: paymentMethod,
	}, nil
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	return s.f.Close()
}
