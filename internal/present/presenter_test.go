package present

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather"
)

func puneReading(sec int, temp float64) weather.Reading {
	return weather.Reading{
		Timestamp:   time.Date(2026, 10, 15, 10, 0, sec, 0, time.Local),
		City:        "Pune",
		Temperature: temp,
		Humidity:    61,
		WindSpeed:   9.7,
	}
}

func TestPresenter_RenderConsoleBlock(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	series := store.NewSeries("Pune")
	var last weather.Reading
	for i, temp := range []float64{28.0, 29.5, 27.0} {
		last = puneReading(i*30, temp)
		series.Record(last)
		require.NoError(t, p.Render(series.Snapshot(), last, i+1))
	}

	out := buf.String()
	assert.Contains(t, out, "| Iteration: 3")
	assert.Contains(t, out, "2026-10-15 10:01:00")
	assert.Contains(t, out, "27.0°C")
	assert.Contains(t, out, "61%")
	assert.Contains(t, out, "9.7 km/h")
	assert.Contains(t, out, "28.17°C")
	assert.Contains(t, out, "Pune | Now: 27.0°C | Avg: 28.2°C")
	assert.NotContains(t, out, "\x1b[J")

	// one frame per render when not live
	assert.Equal(t, 3, strings.Count(out, "| Iteration:"))
}

func TestPresenter_LiveRedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)
	series := store.NewSeries("Pune")

	r1 := puneReading(0, 20)
	series.Record(r1)
	require.NoError(t, p.Render(series.Snapshot(), r1, 1))
	firstLines := strings.Count(p.LastFrame(), "\n")
	assert.NotContains(t, buf.String(), "\x1b[J")

	r2 := puneReading(30, 21)
	series.Record(r2)
	require.NoError(t, p.Render(series.Snapshot(), r2, 2))
	assert.Contains(t, buf.String(), fmt.Sprintf("\x1b[%dF\x1b[J", firstLines))
}

func TestPresenter_WarnBreaksInPlaceRedraw(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)
	series := store.NewSeries("Pune")

	r1 := puneReading(0, 20)
	series.Record(r1)
	require.NoError(t, p.Render(series.Snapshot(), r1, 1))
	p.Warn(2, "API error, retrying...")

	before := buf.Len()
	r3 := puneReading(60, 22)
	series.Record(r3)
	require.NoError(t, p.Render(series.Snapshot(), r3, 3))
	assert.NotContains(t, buf.String()[before:], "\x1b[J")
	assert.Contains(t, buf.String(), "API error, retrying... (iteration 2)")
}

func TestPresenter_BreakKeepsInterleavedOutput(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)
	series := store.NewSeries("Pune")

	r1 := puneReading(0, 20)
	series.Record(r1)
	require.NoError(t, p.Render(series.Snapshot(), r1, 1))
	p.Break()

	before := buf.Len()
	r2 := puneReading(30, 21)
	series.Record(r2)
	require.NoError(t, p.Render(series.Snapshot(), r2, 2))
	assert.NotContains(t, buf.String()[before:], "\x1b[J")

	// redraw resumes from the new frame
	r3 := puneReading(60, 22)
	series.Record(r3)
	require.NoError(t, p.Render(series.Snapshot(), r3, 3))
	assert.Equal(t, 1, strings.Count(buf.String(), "\x1b[J"))
}

func TestPresenter_FinalizeStopsUpdates(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)
	series := store.NewSeries("Pune")
	r := puneReading(0, 20)
	series.Record(r)
	require.NoError(t, p.Render(series.Snapshot(), r, 1))

	p.Finalize()
	p.Finalize()
	n := buf.Len()
	require.NoError(t, p.Render(series.Snapshot(), r, 2))
	assert.Equal(t, n, buf.Len())
}

func TestPresenter_Banner(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Banner(weather.Place{Name: "Pune"}, 30*time.Second)

	assert.Contains(t, buf.String(), "Pune")
	assert.Contains(t, buf.String(), "| Fetch interval: 30s")
	assert.Contains(t, buf.String(), "Press Ctrl + C to stop logging anytime.")
}

func TestChart_Plot(t *testing.T) {
	c := DefaultChart()

	out := c.Plot("Pune", []string{"10:00:00", "10:00:30"}, []float64{20, 21})
	assert.Contains(t, out, "Pune")
	assert.Contains(t, out, "x: 10:00:00 .. 10:00:30")

	empty := c.Plot("Pune", nil, nil)
	assert.Contains(t, empty, "(no data)")

	single := c.Plot("Pune", []string{"10:00:00"}, []float64{20})
	assert.Contains(t, single, "x: 10:00:00")
}

func TestAxisLabels_Decimates(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, "x: a .. c .. e", axisLabels(labels, 3))
	assert.Equal(t, "x: a .. b .. c .. d .. e", axisLabels(labels, 10))
	assert.Equal(t, "x: e", axisLabels(labels, 1))
	assert.Equal(t, "", axisLabels(nil, 3))
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
