package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-tracker/internal/weather"
)

const currentFields = "temperature_2m,relative_humidity_2m,wind_speed_10m"

// OpenMeteoProvider implements weather.Fetcher against the Open-Meteo forecast API.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: cfg,
		circuit: newBreaker("openmeteo-forecast"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// Current fetches instantaneous temperature (°C), relative humidity (%) and
// wind speed (km/h).
func (p *OpenMeteoProvider) Current(ctx context.Context, c weather.Coordinates) (weather.Conditions, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	values.Set("current", currentFields)

	body, err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode())
	if err != nil {
		return weather.Conditions{}, fmt.Errorf("%s: %w", p.Name(), err)
	}

	var payload struct {
		Current *struct {
			Temperature *float64 `json:"temperature_2m"`
			Humidity    *float64 `json:"relative_humidity_2m"`
			WindSpeed   *float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Conditions{}, fmt.Errorf("%s: %w: %v", p.Name(), weather.ErrMalformedResponse, err)
	}

	cur := payload.Current
	if cur == nil || cur.Temperature == nil || cur.Humidity == nil || cur.WindSpeed == nil {
		return weather.Conditions{}, fmt.Errorf("%s: %w: missing current block", p.Name(), weather.ErrMalformedResponse)
	}

	return weather.Conditions{
		Temperature: *cur.Temperature,
		Humidity:    *cur.Humidity,
		WindSpeed:   *cur.WindSpeed,
	}, nil
}

// OpenMeteoGeocoder implements weather.Geocoder against the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoGeocoder(cfg HTTPClientConfig) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		baseURL: "https://geocoding-api.open-meteo.com/v1/search",
		httpCfg: cfg,
		circuit: newBreaker("openmeteo-geocoding"),
	}
}

// Resolve asks for the single best match for name.
func (g *OpenMeteoGeocoder) Resolve(ctx context.Context, name string) (weather.Place, error) {
	if name == "" {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: weather.ErrNoMatch}
	}

	values := url.Values{}
	values.Set("name", name)
	values.Set("count", "1")
	values.Set("language", "en")
	values.Set("format", "json")

	body, err := getJSON(ctx, g.httpCfg, g.circuit, g.baseURL+"?"+values.Encode())
	if err != nil {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: err}
	}

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: err}
	}
	if len(payload.Results) == 0 {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: weather.ErrNoMatch}
	}

	best := payload.Results[0]
	return weather.Place{
		Name:    best.Name,
		Country: best.Country,
		Coordinates: weather.Coordinates{
			Latitude:  best.Latitude,
			Longitude: best.Longitude,
		},
	}, nil
}
