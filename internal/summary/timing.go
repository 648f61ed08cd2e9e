package summary

import (
	"math"

	"github.com/montanaflynn/stats"
)

// DurationStats describes a set of durations, in seconds.
type DurationStats struct {
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// NewDurationStats returns nil when there is no sample.
func NewDurationStats(durations []float64) *DurationStats {
	if len(durations) == 0 {
		return nil
	}
	data := stats.Float64Data(durations)
	ds := &DurationStats{Count: len(durations)}
	ds.Total, _ = data.Sum()
	ds.Mean, _ = data.Mean()
	ds.Median, _ = data.Median()
	ds.P90, _ = data.Percentile(90)
	ds.Max, _ = data.Max()

	ds.Total = round(ds.Total)
	ds.Mean = round(ds.Mean)
	ds.Median = round(ds.Median)
	ds.P90 = round(ds.P90)
	ds.Max = round(ds.Max)
	return ds
}

// round keeps millisecond precision so the summary files stay stable.
func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
