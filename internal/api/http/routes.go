package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/weather-tracker/internal/present"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/summary"
	"github.com/i474232898/weather-tracker/internal/weather"
)

const serviceName = "weather-tracker"

// refreshSeconds is how often the browser reloads the chart page.
const refreshSeconds = "5"

var validate = validator.New()

// SeriesSource returns the live session series, or nil before a city is resolved.
type SeriesSource func() *store.Series

// NewApp builds the dashboard Fiber app with the shared error handler.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	return app
}

// RegisterRoutes wires the dashboard handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, series SeriesSource, history store.Reader) {
	chart := present.DefaultChart()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		s := series()
		if s == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "session not started")
		}
		snap := s.Snapshot()

		c.Set("Refresh", refreshSeconds)
		c.Type("txt", "utf-8")
		title := snap.City + " | Live Temperature"
		return c.SendString(chart.Plot(title, snap.Labels, snap.Temperatures))
	})

	v1 := app.Group("/api/v1")

	v1.Get("/series", func(c *fiber.Ctx) error {
		s := series()
		if s == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "session not started")
		}
		return c.JSON(s.Snapshot())
	})

	v1.Get("/summary", func(c *fiber.Ctx) error {
		q := summaryQuery{City: c.Query("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		s, _, err := summary.Load(history, q.City)
		if err != nil {
			if errors.Is(err, summary.ErrNoReadings) ||
				errors.Is(err, store.ErrNotFound) ||
				errors.Is(err, store.ErrEmptyLog) {
				return fiber.NewError(fiber.StatusNotFound, "no readings for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather log")
		}

		return c.JSON(newSummaryResponse(s))
	})
}

// summaryQuery holds query parameters for the summary endpoint.
type summaryQuery struct {
	City string `validate:"required,max=100"`
}

// summaryResponse mirrors weather.Summary with an optional variance, since
// NaN has no JSON encoding.
type summaryResponse struct {
	City          string   `json:"city"`
	Count         int      `json:"count"`
	MeanTemp      float64  `json:"meanTemperature"`
	MaxTemp       float64  `json:"maxTemperature"`
	MinTemp       float64  `json:"minTemperature"`
	TempVariance  *float64 `json:"temperatureVariance"`
	MeanHumidity  float64  `json:"meanHumidity"`
	MeanWindSpeed float64  `json:"meanWindSpeed"`
}

func newSummaryResponse(s weather.Summary) summaryResponse {
	resp := summaryResponse{
		City:          s.City,
		Count:         s.Count,
		MeanTemp:      s.MeanTemp,
		MaxTemp:       s.MaxTemp,
		MinTemp:       s.MinTemp,
		MeanHumidity:  s.MeanHumidity,
		MeanWindSpeed: s.MeanWindSpeed,
	}
	if s.HasVariance() {
		v := s.TempVariance
		resp.TempVariance = &v
	}
	return resp
}
