package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-tracker/internal/scheduler"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/summary"
	"github.com/i474232898/weather-tracker/internal/weather"
)

type fakeGeocoder struct {
	place weather.Place
	err   error
	calls int
}

func (g *fakeGeocoder) Resolve(_ context.Context, name string) (weather.Place, error) {
	g.calls++
	if g.err != nil {
		return weather.Place{}, &weather.ResolutionError{City: name, Err: g.err}
	}
	return g.place, nil
}

// fakeFetcher returns temps in order; calls listed in fail return an error.
type fakeFetcher struct {
	mu    sync.Mutex
	temps []float64
	fail  map[int]bool
	calls int
}

func (f *fakeFetcher) Current(_ context.Context, _ weather.Coordinates) (weather.Conditions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[f.calls] {
		return weather.Conditions{}, errors.New("connection reset")
	}
	t := f.temps[(f.calls-1)%len(f.temps)]
	return weather.Conditions{Temperature: t, Humidity: 60, WindSpeed: 8}, nil
}

type fakePresenter struct {
	mu       sync.Mutex
	renders  int
	warns    int
	breaks   int
	stopped  int
	final    int
	banner   weather.Place
	onRender func(store.SeriesSnapshot)
}

func (p *fakePresenter) Banner(place weather.Place, _ time.Duration) {
	p.banner = place
}

func (p *fakePresenter) Render(snap store.SeriesSnapshot, _ weather.Reading, _ int) error {
	p.mu.Lock()
	p.renders++
	fn := p.onRender
	p.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
	return nil
}

func (p *fakePresenter) Warn(int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warns++
}

func (p *fakePresenter) Break() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.breaks++
}

func (p *fakePresenter) Stopped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
}

func (p *fakePresenter) Finalize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.final++
}

type fakeReporter struct {
	cities []string
	inner  Reporter
}

func (r *fakeReporter) Report(city string) {
	r.cities = append(r.cities, city)
	if r.inner != nil {
		r.inner.Report(city)
	}
}

// countTicker runs the job n times and then returns, as if interrupted.
type countTicker struct {
	n     int
	calls int
}

func (c *countTicker) Run(ctx context.Context, job func(context.Context)) error {
	for i := 0; i < c.n; i++ {
		c.calls++
		job(ctx)
	}
	return nil
}

func (c *countTicker) Interval() time.Duration {
	return 30 * time.Second
}

type fixture struct {
	csv      *store.CSVLog
	json     *store.JSONLog
	fetcher  *fakeFetcher
	present  *fakePresenter
	reporter *fakeReporter
	out      *bytes.Buffer
}

func newFixture(t *testing.T, temps []float64) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		csv:     store.NewCSVLog(filepath.Join(dir, "weather_log.csv")),
		json:    store.NewJSONLog(filepath.Join(dir, "weather_log.json")),
		fetcher: &fakeFetcher{temps: temps, fail: map[int]bool{}},
		present: &fakePresenter{},
		out:     &bytes.Buffer{},
	}
	f.reporter = &fakeReporter{inner: summary.NewReporter(f.csv, f.out, nil)}
	return f
}

func (f *fixture) driver(g weather.Geocoder) *Driver {
	clock := time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)
	return NewDriver(g, f.fetcher, store.Tee{f.csv, f.json}, f.present, f.reporter,
		WithClock(func() time.Time {
			clock = clock.Add(30 * time.Second)
			return clock
		}),
	)
}

var pune = weather.Place{Name: "Pune", Country: "India", Coordinates: weather.Coordinates{Latitude: 18.52, Longitude: 73.86}}

func TestDriver_ThreeSuccessfulFetches(t *testing.T) {
	f := newFixture(t, []float64{28.0, 29.5, 27.0})
	d := f.driver(&fakeGeocoder{place: pune})

	require.NoError(t, d.Run(context.Background(), "pune", &countTicker{n: 3}))

	s := d.Series()
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Len())
	assert.InDelta(t, 28.1666666, s.Average(), 1e-6)

	nCSV, err := store.CountByCity(f.csv, "Pune")
	require.NoError(t, err)
	nJSON, err := store.CountByCity(f.json, "Pune")
	require.NoError(t, err)
	assert.Equal(t, 3, nCSV)
	assert.Equal(t, 3, nJSON)

	assert.Equal(t, 3, f.present.renders)
	assert.Equal(t, "Pune", f.present.banner.Name)
	assert.Equal(t, StateStopped, d.State())
	assert.Equal(t, []string{"Pune"}, f.reporter.cities)
	assert.Contains(t, f.out.String(), "28.17°C")
}

func TestDriver_ResolutionFailureNeverPolls(t *testing.T) {
	f := newFixture(t, []float64{20})
	d := f.driver(&fakeGeocoder{err: weather.ErrNoMatch})
	ticks := &countTicker{n: 3}

	err := d.Run(context.Background(), "Nonexistent-City-123", ticks)

	var rerr *weather.ResolutionError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "Nonexistent-City-123", rerr.City)
	assert.Zero(t, ticks.calls)
	assert.Zero(t, f.fetcher.calls)
	assert.Equal(t, StateIdle, d.State())
	assert.Empty(t, f.reporter.cities)
	assert.Zero(t, f.present.stopped)

	for _, p := range []string{f.csv.Path(), f.json.Path()} {
		_, statErr := os.Stat(p)
		assert.True(t, os.IsNotExist(statErr), p)
	}
}

func TestDriver_WrapsUntypedGeocoderErrors(t *testing.T) {
	f := newFixture(t, []float64{20})
	d := f.driver(geocoderFunc(func(context.Context, string) (weather.Place, error) {
		return weather.Place{}, errors.New("dial tcp: timeout")
	}))

	err := d.Resolve(context.Background(), "Pune")
	var rerr *weather.ResolutionError
	assert.True(t, errors.As(err, &rerr))
}

type geocoderFunc func(context.Context, string) (weather.Place, error)

func (g geocoderFunc) Resolve(ctx context.Context, name string) (weather.Place, error) {
	return g(ctx, name)
}

func TestDriver_FetchFailureSkipsIteration(t *testing.T) {
	f := newFixture(t, []float64{28.0, 99.0, 29.0})
	f.fetcher.fail[2] = true
	d := f.driver(&fakeGeocoder{place: pune})
	ctx := context.Background()

	require.NoError(t, d.Resolve(ctx, "Pune"))
	require.NoError(t, d.Tick(ctx))
	assert.Error(t, d.Tick(ctx))

	assert.Equal(t, 1, d.Series().Len())
	n, err := store.CountByCity(f.csv, "Pune")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, d.Tick(ctx))
	assert.Equal(t, 2, d.Series().Len())
	assert.InDelta(t, 28.5, d.Series().Average(), 1e-9)

	// attempts are counted, not readings
	assert.Equal(t, 3, d.Iteration())
	assert.Equal(t, 1, f.present.warns)
	assert.Equal(t, 2, f.present.renders)
}

func TestDriver_TickBeforeResolve(t *testing.T) {
	f := newFixture(t, []float64{20})
	d := f.driver(&fakeGeocoder{place: pune})

	assert.ErrorIs(t, d.Tick(context.Background()), errNotResolved)
	assert.Zero(t, f.fetcher.calls)
}

func TestDriver_AppendFailureDoesNotStopSession(t *testing.T) {
	f := newFixture(t, []float64{20})
	d := NewDriver(&fakeGeocoder{place: pune}, f.fetcher, appenderFunc(func(weather.Reading) error {
		return errors.New("read-only file system")
	}), f.present, f.reporter)

	require.NoError(t, d.Resolve(context.Background(), "Pune"))
	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, 1, d.Series().Len())
	assert.Equal(t, 1, f.present.renders)
	// the error log line sits between frames
	assert.Equal(t, 1, f.present.breaks)
}

// blockingFetcher waits for its context like an in-flight HTTP request.
type blockingFetcher struct {
	started chan struct{}
}

func (b *blockingFetcher) Current(ctx context.Context, _ weather.Coordinates) (weather.Conditions, error) {
	close(b.started)
	<-ctx.Done()
	return weather.Conditions{}, fmt.Errorf("openmeteo: %w", ctx.Err())
}

func TestDriver_InterruptDuringFetchIsNotAWarning(t *testing.T) {
	f := newFixture(t, []float64{20})
	fetcher := &blockingFetcher{started: make(chan struct{})}
	d := NewDriver(&fakeGeocoder{place: pune}, fetcher, store.Tee{f.csv, f.json}, f.present, f.reporter)
	require.NoError(t, d.Resolve(context.Background(), "Pune"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Tick(ctx) }()

	<-fetcher.started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("tick did not return after cancel")
	}
	d.Shutdown()

	assert.Zero(t, f.present.warns)
	assert.Equal(t, 1, f.present.stopped)
	assert.Equal(t, 0, d.Series().Len())
}

func TestDriver_CancelledFetchWithLiveContextStillWarns(t *testing.T) {
	f := newFixture(t, []float64{20})
	d := NewDriver(&fakeGeocoder{place: pune}, fetcherFunc(func(context.Context, weather.Coordinates) (weather.Conditions, error) {
		return weather.Conditions{}, context.Canceled
	}), store.Tee{f.csv, f.json}, f.present, f.reporter)

	require.NoError(t, d.Resolve(context.Background(), "Pune"))
	assert.Error(t, d.Tick(context.Background()))
	assert.Equal(t, 1, f.present.warns)
}

type fetcherFunc func(context.Context, weather.Coordinates) (weather.Conditions, error)

func (fn fetcherFunc) Current(ctx context.Context, c weather.Coordinates) (weather.Conditions, error) {
	return fn(ctx, c)
}

func TestDriver_DebugLoggingBreaksRedraw(t *testing.T) {
	f := newFixture(t, []float64{20, 21})
	debug := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := NewDriver(&fakeGeocoder{place: pune}, f.fetcher, store.Tee{f.csv, f.json}, f.present, f.reporter,
		WithLogger(debug))

	require.NoError(t, d.Resolve(context.Background(), "Pune"))
	require.NoError(t, d.Tick(context.Background()))
	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, 2, f.present.breaks)
}

func TestDriver_InfoLoggingKeepsRedraw(t *testing.T) {
	f := newFixture(t, []float64{20})
	info := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
	d := NewDriver(&fakeGeocoder{place: pune}, f.fetcher, store.Tee{f.csv, f.json}, f.present, f.reporter,
		WithLogger(info))

	require.NoError(t, d.Resolve(context.Background(), "Pune"))
	require.NoError(t, d.Tick(context.Background()))
	assert.Zero(t, f.present.breaks)
}

type appenderFunc func(weather.Reading) error

func (a appenderFunc) Append(r weather.Reading) error {
	return a(r)
}

func TestDriver_InterruptAfterFiveIterations(t *testing.T) {
	f := newFixture(t, []float64{25, 26, 27, 28, 29})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.present.onRender = func(snap store.SeriesSnapshot) {
		if snap.Count == 5 {
			cancel()
		}
	}
	d := f.driver(&fakeGeocoder{place: pune})

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, "Pune", scheduler.New(5*time.Millisecond, nil))
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("session did not shut down")
	}

	d.Shutdown()

	assert.Equal(t, 5, d.Series().Len())
	assert.Equal(t, 1, f.present.stopped)
	assert.Equal(t, 1, f.present.final)
	assert.Equal(t, []string{"Pune"}, f.reporter.cities)

	s, _, err := summary.Load(f.csv, "Pune")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 27.0, s.MeanTemp)
	assert.Contains(t, f.out.String(), "27.00°C")
}

func TestDriver_IDAndStateNames(t *testing.T) {
	f := newFixture(t, []float64{20})
	d := f.driver(&fakeGeocoder{place: pune})

	assert.Len(t, d.ID(), 36)
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
}
