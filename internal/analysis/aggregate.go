package analysis

import (
	"time"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

// ExcessSum sums each point's count in excess of the baseline, floored at
// zero so buckets below the baseline never subtract from the burst.
func ExcessSum(points []models.SeriesPoint, baseline float64) float64 {
	var sum float64
	for _, p := range points {
		if excess := float64(p.Count) - baseline; excess > 0 {
			sum += excess
		}
	}
	return sum
}

func pointsBefore(points []models.SeriesPoint, cutoff time.Time) []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, len(points))
	for _, p := range points {
		if p.Start.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

func pointsBetween(points []models.SeriesPoint, from, before time.Time) []models.SeriesPoint {
	out := make([]models.SeriesPoint, 0, len(points))
	for _, p := range points {
		if !p.Start.Before(from) && p.Start.Before(before) {
			out = append(out, p)
		}
	}
	return out
}

func chartPoints(points []models.SeriesPoint) []models.ChartPoint {
	out := make([]models.ChartPoint, 0, len(points))
	for _, p := range points {
		out = append(out, models.ChartPoint{X: models.FormatTime(p.Start), Y: p.Count})
	}
	return out
}

// elevatedChartPoints keeps only buckets strictly above the baseline.
// Display ranges show the burst itself, not the noise floor around it.
func elevatedChartPoints(points []models.SeriesPoint, baseline float64) []models.ChartPoint {
	out := make([]models.ChartPoint, 0, len(points))
	for _, p := range points {
		if float64(p.Count) > baseline {
			out = append(out, models.ChartPoint{X: models.FormatTime(p.Start), Y: p.Count})
		}
	}
	return out
}
