package weather

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned when the geocoding service has no result for a name.
	ErrNoMatch = errors.New("city not found")

	// ErrMalformedResponse is returned when a forecast response lacks the current block.
	ErrMalformedResponse = errors.New("malformed forecast response")
)

// ResolutionError reports that a city name could not be turned into coordinates.
// It is the only fatal failure of a session.
type ResolutionError struct {
	City string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve city %q: %v", e.City, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Geocoder resolves a free-text city name to a canonical place.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (Place, error)
}

// Fetcher retrieves current conditions for a coordinate pair.
type Fetcher interface {
	Current(ctx context.Context, c Coordinates) (Conditions, error)
}
