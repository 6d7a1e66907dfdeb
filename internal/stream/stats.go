package stream

import (
	"sync/atomic"
	"time"
)

// Stats tracks run totals for one streaming session. All methods are safe
// for concurrent use.
type Stats struct {
	started     time.Time
	events      atomic.Int64
	writes      atomic.Int64
	writeErrors atomic.Int64
}

// NewStats returns stats anchored at the given start time.
func NewStats(started time.Time) *Stats {
	return &Stats{started: started}
}

// RecordEvent adds one emitted event with its write outcomes.
func (s *Stats) RecordEvent(writes, writeErrors int) {
	s.events.Add(1)
	s.writes.Add(int64(writes))
	s.writeErrors.Add(int64(writeErrors))
}

// Summary is a point-in-time snapshot of the run totals.
type Summary struct {
	Events      int64
	Writes      int64
	WriteErrors int64
	Elapsed     time.Duration
}

// Rate returns events per second over the elapsed run.
func (s Summary) Rate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Events) / s.Elapsed.Seconds()
}

// Snapshot captures the current totals.
func (s *Stats) Snapshot(now time.Time) Summary {
	return Summary{
		Events:      s.events.Load(),
		Writes:      s.writes.Load(),
		WriteErrors: s.writeErrors.Load(),
		Elapsed:     now.Sub(s.started),
	}
}
