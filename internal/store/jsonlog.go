package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// jsonEntry is the on-disk shape of a reading in the JSON log.
type jsonEntry struct {
	Timestamp   string  `json:"timestamp"`
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windspeed"`
}

// JSONLog is the structured-document reading log: a single JSON array that
// is read, extended and rewritten in full on every append.
type JSONLog struct {
	path string
}

func NewJSONLog(path string) *JSONLog {
	return &JSONLog{path: path}
}

func (l *JSONLog) Path() string {
	return l.path
}

// Append adds r to the array. The rewrite goes through a temporary file in
// the same directory and is renamed over the log, so a failed write leaves
// the previous contents intact.
func (l *JSONLog) Append(r weather.Reading) error {
	entries, err := l.load()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	entries = append(entries, jsonEntry{
		Timestamp:   r.Stamp(),
		City:        r.City,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		WindSpeed:   r.WindSpeed,
	})

	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return err
	}

	return writeFileAtomic(l.path, data)
}

// ReadAll decodes every element of the array.
func (l *JSONLog) ReadAll() ([]weather.Reading, error) {
	entries, err := l.load()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", l.path, ErrEmptyLog)
	}

	out := make([]weather.Reading, 0, len(entries))
	for i, e := range entries {
		ts, err := weather.ParseStamp(e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%s: element %d: %w", l.path, i, err)
		}
		out = append(out, weather.Reading{
			Timestamp:   ts,
			City:        e.City,
			Temperature: e.Temperature,
			Humidity:    e.Humidity,
			WindSpeed:   e.WindSpeed,
		})
	}
	return out, nil
}

// load returns the current entries. An absent file is ErrNotFound; a file
// holding only whitespace is treated as an empty array.
func (l *JSONLog) load() ([]jsonEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", l.path, ErrNotFound)
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []jsonEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return entries, nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
