// Package analysis implements the engagement-burst computation: a pre-anchor
// baseline, a burst-aggregation window, the per-query analyzer, the
// trend-aware task planner and the background run coordinator.
package analysis

import (
	"time"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

// baselineOffsets are the fixed lookback offsets sampled before the
// reference instant.
var baselineOffsets = [...]time.Duration{
	60 * time.Minute,
	45 * time.Minute,
	30 * time.Minute,
	15 * time.Minute,
}

// Baseline computes the reference count for burst detection: the arithmetic
// mean of the counts observed at exactly 60, 45, 30 and 15 minutes before
// ref. Offsets with no matching bucket are skipped; when none match the
// baseline is 0. Lookups require exact bucket-start equality, and the first
// matching point wins when the series carries duplicate bucket starts.
func Baseline(points []models.SeriesPoint, ref time.Time) float64 {
	var sum float64
	var matched int

	for _, offset := range baselineOffsets {
		target := ref.Add(-offset)
		for i := range points {
			if points[i].Start.Equal(target) {
				sum += float64(points[i].Count)
				matched++
				break
			}
		}
	}

	if matched == 0 {
		return 0
	}
	return sum / float64(matched)
}
