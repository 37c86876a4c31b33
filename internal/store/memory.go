package store

import (
	"sync"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// SeriesSnapshot is a point-in-time copy of a session series.
type SeriesSnapshot struct {
	City         string    `json:"city"`
	Labels       []string  `json:"labels"`
	Temperatures []float64 `json:"temperatures"`
	Average      float64   `json:"average"`
	Count        int       `json:"count"`
}

// Series is the in-memory, session-scoped history of readings: display
// labels and temperatures, grown by one element per recorded reading.
// It keeps a running sum so the average is O(1).
//
// Series is safe for one writer and any number of concurrent readers.
type Series struct {
	mu sync.RWMutex

	city   string
	labels []string
	temps  []float64
	sum    float64
}

// NewSeries creates an empty series for city.
func NewSeries(city string) *Series {
	return &Series{city: city}
}

// Record appends the reading's label and temperature and returns the running
// average including it.
func (s *Series) Record(r weather.Reading) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labels = append(s.labels, r.Label())
	s.temps = append(s.temps, r.Temperature)
	s.sum += r.Temperature

	return s.sum / float64(len(s.temps))
}

// Len returns the number of recorded readings.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.temps)
}

// Average returns the running average, or 0 for an empty series.
func (s *Series) Average() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.average()
}

func (s *Series) average() float64 {
	if len(s.temps) == 0 {
		return 0
	}
	return s.sum / float64(len(s.temps))
}

// Snapshot returns a copy of the series safe to hand to renderers.
func (s *Series) Snapshot() SeriesSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, len(s.labels))
	copy(labels, s.labels)
	temps := make([]float64, len(s.temps))
	copy(temps, s.temps)

	return SeriesSnapshot{
		City:         s.city,
		Labels:       labels,
		Temperatures: temps,
		Average:      s.average(),
		Count:        len(temps),
	}
}
