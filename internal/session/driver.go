// Package session drives one tracking session: resolve the city, poll the
// forecast service on every tick, and report when the user stops.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather"
)

// State is the driver lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

var errNotResolved = errors.New("session: city not resolved")

// Presenter is the live view of the session.
type Presenter interface {
	Banner(place weather.Place, interval time.Duration)
	Render(snap store.SeriesSnapshot, latest weather.Reading, iteration int) error
	Warn(iteration int, msg string)
	// Break makes the next frame draw below any output printed since the
	// last one instead of over it.
	Break()
	Stopped()
	Finalize()
}

// Reporter prints historical statistics for a canonical city name.
type Reporter interface {
	Report(city string)
}

// Ticker calls job once per tick until ctx is cancelled, and returns only
// after the last job call has finished.
type Ticker interface {
	Run(ctx context.Context, job func(context.Context)) error
	Interval() time.Duration
}

// Driver owns the per-session state and wires the components together.
type Driver struct {
	geocoder  weather.Geocoder
	fetcher   weather.Fetcher
	logs      store.Appender
	presenter Presenter
	reporter  Reporter
	logger    *slog.Logger
	now       func() time.Time

	id        string
	mu        sync.Mutex
	state     State
	place     weather.Place
	series    *store.Series
	iteration int
	stopOnce  sync.Once
	onResolve func(*store.Series)
}

// Option customises a Driver.
type Option func(*Driver)

// WithClock overrides the wall clock used to stamp readings.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// WithLogger sets the driver logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// OnResolve registers a callback receiving the session series once the city
// is resolved, e.g. to expose it on the dashboard.
func OnResolve(fn func(*store.Series)) Option {
	return func(d *Driver) { d.onResolve = fn }
}

func NewDriver(
	geocoder weather.Geocoder,
	fetcher weather.Fetcher,
	logs store.Appender,
	presenter Presenter,
	reporter Reporter,
	opts ...Option,
) *Driver {
	d := &Driver{
		geocoder:  geocoder,
		fetcher:   fetcher,
		logs:      logs,
		presenter: presenter,
		reporter:  reporter,
		logger:    slog.Default(),
		now:       time.Now,
		id:        uuid.NewString(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("session_id", d.id)
	return d
}

// ID returns the session identifier used in log records.
func (d *Driver) ID() string {
	return d.id
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Place returns the resolved place.
func (d *Driver) Place() weather.Place {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.place
}

// Series returns the session series, or nil before resolution.
func (d *Driver) Series() *store.Series {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.series
}

// Iteration returns the number of fetch attempts so far. Failed attempts are
// counted too.
func (d *Driver) Iteration() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.iteration
}

// Run resolves city and then polls on every tick until ctx is cancelled,
// after which the shutdown sequence runs once. A resolution failure is
// returned without polling or touching the logs.
func (d *Driver) Run(ctx context.Context, city string, ticks Ticker) error {
	if err := d.Resolve(ctx, city); err != nil {
		return err
	}

	d.presenter.Banner(d.Place(), ticks.Interval())

	d.mu.Lock()
	d.state = StateRunning
	d.mu.Unlock()

	err := ticks.Run(ctx, func(tickCtx context.Context) {
		_ = d.Tick(tickCtx)
	})

	d.Shutdown()
	return err
}

// Resolve turns city into a place and prepares the session series.
func (d *Driver) Resolve(ctx context.Context, city string) error {
	place, err := d.geocoder.Resolve(ctx, city)
	if err != nil {
		d.logger.Error("invalid city name", "city", city, "error", err)
		var rerr *weather.ResolutionError
		if !errors.As(err, &rerr) {
			err = &weather.ResolutionError{City: city, Err: err}
		}
		return err
	}

	series := store.NewSeries(place.Name)

	d.mu.Lock()
	d.place = place
	d.series = series
	d.mu.Unlock()

	d.logger = d.logger.With("city", place.Name)
	d.logger.Info("city resolved",
		"coordinates", place.Coordinates.String(),
		"country", place.Country,
	)

	if d.onResolve != nil {
		d.onResolve(series)
	}
	return nil
}

// Tick performs one iteration: fetch, then append, record and render. A
// fetch failure leaves the logs and series untouched and is returned so the
// caller can observe it; the next tick is the retry.
func (d *Driver) Tick(ctx context.Context) error {
	d.mu.Lock()
	if d.series == nil {
		d.mu.Unlock()
		return errNotResolved
	}
	d.iteration++
	iteration := d.iteration
	place := d.place
	d.mu.Unlock()

	cond, err := d.fetcher.Current(ctx, place.Coordinates)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			d.logger.Debug("fetch interrupted by shutdown", "iteration", iteration)
			return err
		}
		d.logger.Warn("weather fetch failed, retrying next tick", "iteration", iteration, "error", err)
		d.presenter.Warn(iteration, "API error, retrying...")
		return err
	}

	reading := weather.NewReading(d.now(), place.Name, cond)

	if err := d.logs.Append(reading); err != nil {
		d.logger.Error("append reading to logs", "iteration", iteration, "error", err)
		d.presenter.Break()
	}

	avg := d.series.Record(reading)
	d.logger.Debug("reading recorded",
		"iteration", iteration,
		"temperature", reading.Temperature,
		"humidity", reading.Humidity,
		"windspeed", reading.WindSpeed,
		"average", avg,
	)
	if d.logger.Enabled(ctx, slog.LevelDebug) {
		d.presenter.Break()
	}

	if err := d.presenter.Render(d.series.Snapshot(), reading, iteration); err != nil {
		d.logger.Warn("render failed", "error", err)
	}
	return nil
}

// Shutdown finalises the live view and reports the historical statistics.
// Only the first call has any effect.
func (d *Driver) Shutdown() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.state = StateStopped
		place := d.place
		d.mu.Unlock()

		d.logger.Info("session stopped", "iterations", d.Iteration())
		d.presenter.Stopped()
		d.presenter.Finalize()
		if place.Name != "" {
			d.reporter.Report(place.Name)
		}
	})
}
