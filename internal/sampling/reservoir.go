// Package sampling builds a bounded-memory working set from a sequential
// record source of unknown size using reservoir sampling.
package sampling

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"payment-stream-lab/internal/domain"
)

// ErrEmptySource is returned when the source yields zero records. Downstream
// synthesis cannot proceed from an empty working set.
var ErrEmptySource = errors.New("source yielded no records")

// RecordSource yields source records sequentially. Next returns io.EOF when
// the source is drained.
type RecordSource interface {
	Next() (*domain.SourceRecord, error)
}

// Sample reads the entire source and returns a working set of at most
// capacity records using reservoir sampling: the first capacity records fill
// the reservoir directly; each subsequent record at 0-based position i draws
// j uniform in [0, i] and replaces slot j iff j < capacity. Every record seen
// has equal probability capacity/(i+1) of being present, without knowing the
// total count in advance, in O(capacity) memory.
//
// If the source has at most capacity records the result is the full source in
// original order.
func Sample(src RecordSource, capacity int, rng *rand.Rand) (*domain.WorkingSet, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("sampling capacity must be positive, got %d", capacity)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	reservoir := make([]domain.SourceRecord, 0, capacity)
	seen := 0
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source record %d: %w", seen, err)
		}

		if seen < capacity {
			reservoir = append(reservoir, *rec)
		} else {
			j := rng.Intn(seen + 1)
			if j < capacity {
				reservoir[j] = *rec
			}
		}
		seen++
	}

	if seen == 0 {
		return nil, ErrEmptySource
	}
	return domain.NewWorkingSet(reservoir), nil
}
