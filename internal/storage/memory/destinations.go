package memory

import "payment-stream-lab/internal/storage"

// NewDestinations bundles a fresh set of in-memory destinations.
func NewDestinations() *storage.Destinations {
	return &storage.Destinations{
		UserLog:     NewUserLog(),
		CategoryLog: NewCategoryLog(),
		HourlyLog:   NewHourlyLog(),
		Counters:    NewCounterStore(),
	}
}
