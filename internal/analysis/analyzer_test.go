package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/testhelpers"
)

// fakeFetcher serves a canned series, optionally failing or blocking until
// released.
type fakeFetcher struct {
	points  []models.SeriesPoint
	err     error
	release chan struct{}
}

func (f *fakeFetcher) FetchCounts(_ context.Context, _ string) ([]models.SeriesPoint, error) {
	if f.release != nil {
		<-f.release
	}
	return f.points, f.err
}

func burstSeries() []models.SeriesPoint {
	return []models.SeriesPoint{
		pt(-60*time.Minute, 2),
		pt(-45*time.Minute, 4),
		pt(-30*time.Minute, 6),
		pt(-15*time.Minute, 8),
		pt(0, 20),
		pt(15*time.Minute, 15),
		pt(30*time.Minute, 10),
		pt(45*time.Minute, 8),
		pt(60*time.Minute, 6),
		pt(75*time.Minute, 4),
		pt(90*time.Minute, 7),
	}
}

func TestAnalyzeBurst(t *testing.T) {
	fetcher := &fakeFetcher{points: burstSeries()}
	analyzer := NewAnalyzer(fetcher, testInterval, testhelpers.NewTestLogger())

	result := analyzer.Analyze(context.Background(), "alpha", "alpha query", testRef)

	assert.Equal(t, "alpha", result.WorkName)
	assert.Equal(t, "alpha query", result.Query)

	require.NotNil(t, result.ReferenceCount)
	assert.InDelta(t, 5, *result.ReferenceCount, 1e-9)

	// Excess above the baseline of 5: the first hour sums 15+10+5+3, the
	// +60m bucket adds 1 before the window closes at +75m.
	require.NotNil(t, result.OneHourSum)
	assert.InDelta(t, 33, *result.OneHourSum, 1e-9)
	require.NotNil(t, result.TotalSum)
	assert.InDelta(t, 34, *result.TotalSum, 1e-9)

	require.NotNil(t, result.WindowEnd)
	assert.True(t, result.WindowEnd.Equal(testRef.Add(75*time.Minute)))

	assert.Equal(t, models.FormatTime(testRef.Add(-15*time.Minute)), result.ReferenceTime)
	assert.Equal(t, models.FormatTime(testRef), result.ReferenceBaseTime)

	assert.Len(t, result.ChartData, 11)
	assert.Len(t, result.OneHourRangeData, 4)
	assert.Len(t, result.AfterOneHourData, 1)
	assert.Equal(t, models.FormatTime(testRef.Add(60*time.Minute)), result.AfterOneHourData[0].X)
}

func TestAnalyzeNoDataAfterReference(t *testing.T) {
	fetcher := &fakeFetcher{points: []models.SeriesPoint{
		pt(-60*time.Minute, 2),
		pt(-45*time.Minute, 4),
		pt(-30*time.Minute, 6),
		pt(-15*time.Minute, 8),
	}}
	analyzer := NewAnalyzer(fetcher, testInterval, testhelpers.NewTestLogger())

	result := analyzer.Analyze(context.Background(), "alpha", "alpha", testRef)

	require.NotNil(t, result.ReferenceCount)
	assert.InDelta(t, 5, *result.ReferenceCount, 1e-9)
	assert.Nil(t, result.WindowEnd)
	assert.Equal(t, "no data", result.WindowEndDisplay())
	require.NotNil(t, result.OneHourSum)
	assert.Zero(t, *result.OneHourSum)
	require.NotNil(t, result.TotalSum)
	assert.Zero(t, *result.TotalSum)
	assert.Empty(t, result.OneHourRangeData)
	assert.Empty(t, result.AfterOneHourData)
}

func TestAnalyzeEmptySeries(t *testing.T) {
	fetcher := &fakeFetcher{}
	analyzer := NewAnalyzer(fetcher, testInterval, testhelpers.NewTestLogger())

	result := analyzer.Analyze(context.Background(), "alpha", "alpha", testRef)

	assert.Nil(t, result.ReferenceCount)
	assert.Nil(t, result.OneHourSum)
	assert.Nil(t, result.TotalSum)
	assert.Nil(t, result.WindowEnd)
	assert.Equal(t, "no data", result.WindowEndDisplay())
	require.NotNil(t, result.TrendWords)
	assert.Empty(t, result.TrendWords)
}

func TestAnalyzeFetchErrorTreatedAsEmpty(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("gateway unavailable")}
	analyzer := NewAnalyzer(fetcher, testInterval, testhelpers.NewTestLogger())

	result := analyzer.Analyze(context.Background(), "alpha", "alpha", testRef)

	assert.Nil(t, result.ReferenceCount)
	assert.Nil(t, result.WindowEnd)
	assert.Equal(t, "alpha", result.WorkName)
}
