package store

import (
	"errors"
	"fmt"

	"github.com/i474232898/weather-tracker/internal/weather"
)

var (
	// ErrNotFound is returned when a log file does not exist yet.
	ErrNotFound = errors.New("log not found")

	// ErrEmptyLog is returned when a log exists but holds no readings.
	ErrEmptyLog = errors.New("log is empty")
)

// Column names shared by both log representations.
const (
	fieldTimestamp   = "timestamp"
	fieldCity        = "city"
	fieldTemperature = "temperature"
	fieldHumidity    = "humidity"
	fieldWindSpeed   = "windspeed"
)

var columns = []string{fieldTimestamp, fieldCity, fieldTemperature, fieldHumidity, fieldWindSpeed}

// Appender durably records readings, append-only.
type Appender interface {
	Append(r weather.Reading) error
}

// Reader loads every reading ever appended, in append order.
type Reader interface {
	ReadAll() ([]weather.Reading, error)
}

// Log is one backing representation of the reading log.
type Log interface {
	Appender
	Reader
	Path() string
}

// Tee appends every reading to each backing log in order. There is no
// transaction: a failure in one log does not undo the others.
type Tee []Log

// Append writes r to all logs and joins any errors.
func (t Tee) Append(r weather.Reading) error {
	var errs []error
	for _, l := range t {
		if err := l.Append(r); err != nil {
			errs = append(errs, fmt.Errorf("append to %s: %w", l.Path(), err))
		}
	}
	return errors.Join(errs...)
}

// CountByCity returns the number of readings in l recorded for city.
func CountByCity(l Reader, city string) (int, error) {
	all, err := l.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(weather.FilterByCity(all, city)), nil
}
