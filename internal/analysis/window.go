package analysis

import (
	"time"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

// minWindowDuration is the minimum burst duration. A dip back to baseline
// inside the first hour is treated as noise and the window is re-extended
// past the one-hour mark.
const minWindowDuration = time.Hour

// Tail returns the points whose bucket start is at or after ref.
func Tail(points []models.SeriesPoint, ref time.Time) []models.SeriesPoint {
	tail := make([]models.SeriesPoint, 0, len(points))
	for _, p := range points {
		if !p.Start.Before(ref) {
			tail = append(tail, p)
		}
	}
	return tail
}

// ResolveWindowEnd determines the end of the burst-aggregation window for
// the given tail. Returns nil when the tail is empty.
//
// The natural end is the earliest bucket whose count drops to or below the
// baseline. When the series never drops, the window extends one interval
// past the last observed bucket. When the drop lands inside the minimum
// one-hour duration it is ignored and the sub-tail past the one-hour mark
// is re-scanned for a later drop, falling back to the last bucket again.
func ResolveWindowEnd(tail []models.SeriesPoint, ref time.Time, baseline float64, interval time.Duration) *time.Time {
	if len(tail) == 0 {
		return nil
	}

	minEnd := ref.Add(minWindowDuration)
	natural := earliestDrop(tail, baseline, time.Time{})
	fallback := latestStart(tail).Add(interval)

	var end time.Time
	switch {
	case natural == nil:
		end = fallback
	case natural.Before(minEnd):
		if redrop := earliestDrop(tail, baseline, minEnd); redrop != nil {
			end = *redrop
		} else {
			end = fallback
		}
	default:
		end = *natural
	}
	return &end
}

// earliestDrop finds the minimum bucket start among points with a count at
// or below the baseline, considering only buckets starting at or after
// notBefore. Returns nil when no point qualifies.
func earliestDrop(points []models.SeriesPoint, baseline float64, notBefore time.Time) *time.Time {
	var earliest *time.Time
	for i := range points {
		p := points[i]
		if float64(p.Count) > baseline || p.Start.Before(notBefore) {
			continue
		}
		if earliest == nil || p.Start.Before(*earliest) {
			start := p.Start
			earliest = &start
		}
	}
	return earliest
}

func latestStart(points []models.SeriesPoint) time.Time {
	latest := points[0].Start
	for _, p := range points[1:] {
		if p.Start.After(latest) {
			latest = p.Start
		}
	}
	return latest
}
