package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// CSVLog is the tabular reading log. The first write creates the file with a
// header row; later writes append one row each.
type CSVLog struct {
	path string
}

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (l *CSVLog) Path() string {
	return l.path
}

// Append writes r as one row. The file is opened and closed on every call.
func (l *CSVLog) Append(r weather.Reading) (err error) {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(columns); err != nil {
			return err
		}
	}
	if err := w.Write(toRow(r)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// ReadAll loads every row. Columns are located by header name.
func (l *CSVLog) ReadAll() ([]weather.Reading, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", l.path, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: %w", l.path, ErrEmptyLog)
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[name] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", l.path, c)
		}
	}

	out := make([]weather.Reading, 0, len(rows)-1)
	for n, row := range rows[1:] {
		r, err := fromRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", l.path, n+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func toRow(r weather.Reading) []string {
	return []string{
		r.Stamp(),
		r.City,
		formatFloat(r.Temperature),
		formatFloat(r.Humidity),
		formatFloat(r.WindSpeed),
	}
}

func fromRow(row []string, idx map[string]int) (weather.Reading, error) {
	ts, err := weather.ParseStamp(row[idx[fieldTimestamp]])
	if err != nil {
		return weather.Reading{}, err
	}

	var vals [3]float64
	for i, c := range []string{fieldTemperature, fieldHumidity, fieldWindSpeed} {
		v, err := strconv.ParseFloat(row[idx[c]], 64)
		if err != nil {
			return weather.Reading{}, fmt.Errorf("%s: %w", c, err)
		}
		vals[i] = v
	}

	return weather.Reading{
		Timestamp:   ts,
		City:        row[idx[fieldCity]],
		Temperature: vals[0],
		Humidity:    vals[1],
		WindSpeed:   vals[2],
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
