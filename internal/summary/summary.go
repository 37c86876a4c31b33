// Package summary reports historical statistics for a city from the
// persisted reading log.
package summary

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/i474232898/weather-tracker/internal/present"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather"
)

// ErrNoReadings is returned when the log has no rows for the requested city.
var ErrNoReadings = errors.New("no readings for city")

// Load reads the whole log and returns the city's readings in chronological
// order together with their statistics.
func Load(src store.Reader, city string) (weather.Summary, []weather.Reading, error) {
	all, err := src.ReadAll()
	if err != nil {
		return weather.Summary{}, nil, err
	}

	rows := weather.Chronological(weather.FilterByCity(all, city))
	if len(rows) == 0 {
		return weather.Summary{}, nil, fmt.Errorf("%w %q", ErrNoReadings, city)
	}
	return weather.Summarize(city, rows), rows, nil
}

// Reporter prints the end-of-session statistics and the historical chart.
type Reporter struct {
	src    store.Reader
	out    io.Writer
	chart  present.Chart
	styles present.Styles
	logger *slog.Logger
}

func NewReporter(src store.Reader, out io.Writer, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		src:    src,
		out:    out,
		chart:  present.Chart{Height: 12, MaxWidth: 72, MaxLabels: 4},
		styles: present.NewStyles(out),
		logger: logger,
	}
}

// Report prints statistics for city over the entire log. Failures are
// reported on the console and never returned.
func (r *Reporter) Report(city string) {
	s, rows, err := Load(r.src, city)
	if err != nil {
		r.logger.Warn("summary unavailable", "city", city, "error", err)
		fmt.Fprintf(r.out, "%s %v\n", r.styles.Warn.Render("Could not load summary:"), err)
		return
	}

	io.WriteString(r.out, r.Format(s))

	labels := make([]string, len(rows))
	temps := make([]float64, len(rows))
	for i, row := range rows {
		labels[i] = row.Stamp()
		temps[i] = row.Temperature
	}
	fmt.Fprintln(r.out)
	io.WriteString(r.out, r.chart.Plot("Historical Temperature Trend - "+city, labels, temps))
}

// Format renders the statistics block.
func (r *Reporter) Format(s weather.Summary) string {
	st := r.styles
	line := func(b *strings.Builder, label, value string) {
		fmt.Fprintf(b, "%s %s\n", st.Label.Render(label), st.Value.Render(value))
	}

	variance := "n/a"
	if s.HasVariance() {
		variance = fmt.Sprintf("%.2f", s.TempVariance)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", st.Header.Render("Final Weather Analytics Summary"))
	fmt.Fprintln(&b, st.Rule.Render("-----------------------------------------------------"))
	line(&b, "City:", s.City)
	line(&b, "Entries Logged:", fmt.Sprintf("%d", s.Count))
	line(&b, "Avg Temp:", fmt.Sprintf("%.2f°C", s.MeanTemp))
	line(&b, "Max Temp:", fmt.Sprintf("%.2f°C", s.MaxTemp))
	line(&b, "Min Temp:", fmt.Sprintf("%.2f°C", s.MinTemp))
	line(&b, "Temp Variance:", variance)
	line(&b, "Avg Humidity:", fmt.Sprintf("%.2f%%", s.MeanHumidity))
	line(&b, "Avg Wind Speed:", fmt.Sprintf("%.2f km/h", s.MeanWindSpeed))
	fmt.Fprintln(&b, st.Rule.Render("-----------------------------------------------------"))
	return b.String()
}
