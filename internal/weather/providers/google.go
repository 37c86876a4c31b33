package providers

import (
	"context"
	"errors"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-tracker/internal/common"
	"github.com/i474232898/weather-tracker/internal/weather"
)

var errNoAPIKey = errors.New("google geocoding api key is not configured")

// Package-level hooks so tests can stand in for the Google API.
var (
	googleGeocode = geocoder.Geocoding
	googleReverse = geocoder.GeocodingReverse
)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
// The kelvins/geocoder client keeps its key in a package variable, so only
// one key can be in use per process.
type GoogleGeocoder struct {
	apiKey string
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

// Resolve geocodes name as a city and reverse-geocodes the coordinates to
// obtain the canonical city name. If the reverse lookup has no city, the
// input name is used.
func (g *GoogleGeocoder) Resolve(ctx context.Context, name string) (weather.Place, error) {
	if g.apiKey == "" {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: errNoAPIKey}
	}
	if name == "" {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: weather.ErrNoMatch}
	}
	if err := ctx.Err(); err != nil {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: err}
	}

	geocoder.ApiKey = g.apiKey

	loc, err := googleGeocode(geocoder.Address{City: name})
	if err != nil {
		if common.ContainsAnyFold(err.Error(), "zero_results", "no result") {
			err = weather.ErrNoMatch
		}
		return weather.Place{}, &weather.ResolutionError{City: name, Err: err}
	}

	place := weather.Place{
		Name: name,
		Coordinates: weather.Coordinates{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		},
	}

	addrs, err := googleReverse(loc)
	if err == nil && len(addrs) > 0 {
		if addrs[0].City != "" {
			place.Name = addrs[0].City
		}
		place.Country = addrs[0].Country
	}

	return place, nil
}
