package weather

import (
	"fmt"
	"time"
)

// TimestampLayout is the wall-clock layout used for persisted readings.
const TimestampLayout = "2006-01-02 15:04:05"

// LabelLayout is the short time-of-day layout used on chart axes.
const LabelLayout = "15:04:05"

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Place is the result of resolving a free-text city name.
// Name is the canonical name returned by the geocoding service and is
// the key used to filter the logs.
type Place struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Coordinates
}

// Conditions holds the instantaneous values returned by a forecast service.
type Conditions struct {
	Temperature float64 // °C
	Humidity    float64 // %
	WindSpeed   float64 // km/h
}

// Reading is one timestamped observation for a city. Readings are never
// mutated after creation.
type Reading struct {
	Timestamp   time.Time
	City        string
	Temperature float64
	Humidity    float64
	WindSpeed   float64
}

// NewReading builds a reading from fetched conditions at the given wall-clock time,
// truncated to second resolution.
func NewReading(now time.Time, city string, c Conditions) Reading {
	return Reading{
		Timestamp:   now.Truncate(time.Second),
		City:        city,
		Temperature: c.Temperature,
		Humidity:    c.Humidity,
		WindSpeed:   c.WindSpeed,
	}
}

// Stamp returns the persisted timestamp text.
func (r Reading) Stamp() string {
	return r.Timestamp.Format(TimestampLayout)
}

// Label returns the chart label for the reading.
func (r Reading) Label() string {
	return r.Timestamp.Format(LabelLayout)
}

// ParseStamp parses a persisted timestamp in the local time zone.
func ParseStamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
