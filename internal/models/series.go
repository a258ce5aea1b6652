// Package models defines the domain types shared across the service.
package models

import "time"

// timeDisplayLayout is the wire format for display timestamps. Timezone
// information is dropped, matching the persisted CSV columns.
const timeDisplayLayout = "2006-01-02 15:04:05"

// SeriesPoint is one bucket of a post-count time series. Points are ordered
// by Start and the bucket width equals the configured interval.
type SeriesPoint struct {
	Start time.Time `json:"bucket_start"`
	End   time.Time `json:"bucket_end"`
	Count int       `json:"count"`
}

// ChartPoint is a plot-ready (timestamp, count) pair.
type ChartPoint struct {
	X string `json:"x"`
	Y int    `json:"y"`
}

// FormatTime renders a timestamp for display and CSV output.
func FormatTime(t time.Time) string {
	return t.Format(timeDisplayLayout)
}
