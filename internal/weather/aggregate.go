package weather

import (
	"math"
	"sort"
)

// Summary holds aggregate statistics over a set of readings for one city.
// TempVariance is the sample variance and is NaN when Count < 2.
type Summary struct {
	City          string  `json:"city"`
	Count         int     `json:"count"`
	MeanTemp      float64 `json:"meanTemperature"`
	MaxTemp       float64 `json:"maxTemperature"`
	MinTemp       float64 `json:"minTemperature"`
	TempVariance  float64 `json:"temperatureVariance"`
	MeanHumidity  float64 `json:"meanHumidity"`
	MeanWindSpeed float64 `json:"meanWindSpeed"`
}

// HasVariance reports whether TempVariance is defined.
func (s Summary) HasVariance() bool {
	return s.Count > 1 && !math.IsNaN(s.TempVariance)
}

// FilterByCity returns the readings whose city equals city exactly, in input order.
func FilterByCity(readings []Reading, city string) []Reading {
	var out []Reading
	for _, r := range readings {
		if r.City == city {
			out = append(out, r)
		}
	}
	return out
}

// Chronological returns a copy of readings sorted by timestamp. Equal timestamps
// keep their append order.
func Chronological(readings []Reading) []Reading {
	out := make([]Reading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Summarize computes aggregate statistics for readings. All readings are
// assumed to belong to the same city.
func Summarize(city string, readings []Reading) Summary {
	s := Summary{City: city, Count: len(readings), TempVariance: math.NaN()}
	if len(readings) == 0 {
		return s
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
	)

	s.MaxTemp = math.Inf(-1)
	s.MinTemp = math.Inf(1)
	for _, r := range readings {
		sumTemp += r.Temperature
		sumHumidity += r.Humidity
		sumWind += r.WindSpeed
		s.MaxTemp = math.Max(s.MaxTemp, r.Temperature)
		s.MinTemp = math.Min(s.MinTemp, r.Temperature)
	}

	n := float64(len(readings))
	s.MeanTemp = sumTemp / n
	s.MeanHumidity = sumHumidity / n
	s.MeanWindSpeed = sumWind / n

	if len(readings) > 1 {
		var sq float64
		for _, r := range readings {
			d := r.Temperature - s.MeanTemp
			sq += d * d
		}
		s.TempVariance = sq / (n - 1)
	}

	return s
}
