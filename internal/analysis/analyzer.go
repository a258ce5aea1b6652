package analysis

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

// Fetcher retrieves the post-count series for a search query.
type Fetcher interface {
	FetchCounts(ctx context.Context, query string) ([]models.SeriesPoint, error)
}

// Analyzer runs the baseline/window/aggregation pipeline for one
// (work, query) pair.
type Analyzer struct {
	fetcher  Fetcher
	interval time.Duration
	logger   logger.Logger
}

func NewAnalyzer(fetcher Fetcher, interval time.Duration, log logger.Logger) *Analyzer {
	return &Analyzer{
		fetcher:  fetcher,
		interval: interval,
		logger:   log,
	}
}

// Analyze fetches the series for query and shapes the analysis result.
// A fetch failure is downgraded to an empty series, which yields a result
// with nil metrics rather than an error; no retries happen at this layer.
func (a *Analyzer) Analyze(ctx context.Context, workName, query string, ref time.Time) models.AnalysisResult {
	result := models.AnalysisResult{
		WorkName:   workName,
		Query:      query,
		TrendWords: []string{},
	}

	points, err := a.fetcher.FetchCounts(ctx, query)
	if err != nil {
		a.logger.Warn("Series fetch failed, treating as empty",
			logger.String("work_name", workName),
			logger.String("query", query),
			logger.Error(err),
		)
		points = nil
	}
	if len(points) == 0 {
		return result
	}

	baseline := Baseline(points, ref)
	tail := Tail(points, ref)
	end := ResolveWindowEnd(tail, ref, baseline, a.interval)

	minEnd := ref.Add(minWindowDuration)
	oneHourRange := pointsBefore(tail, minEnd)
	oneHourSum := ExcessSum(oneHourRange, baseline)

	var fullRange []models.SeriesPoint
	if end != nil {
		fullRange = pointsBefore(tail, *end)
	}
	totalSum := ExcessSum(fullRange, baseline)

	var afterOneHour []models.SeriesPoint
	if end != nil && end.After(minEnd) {
		afterOneHour = pointsBetween(tail, minEnd, *end)
	}

	a.logger.Info("Analysis complete",
		logger.String("work_name", workName),
		logger.Time("reference", ref),
		logger.Float64("baseline", baseline),
	)

	result.ReferenceCount = &baseline
	result.OneHourSum = &oneHourSum
	result.TotalSum = &totalSum
	result.WindowEnd = end
	result.ReferenceTime = models.FormatTime(ref.Add(-15 * time.Minute))
	result.ReferenceBaseTime = models.FormatTime(ref)
	result.ChartData = chartPoints(points)
	result.OneHourRangeData = elevatedChartPoints(oneHourRange, baseline)
	result.AfterOneHourData = elevatedChartPoints(afterOneHour, baseline)
	return result
}
