package store

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/testhelpers"
)

func fptr(v float64) *float64 { return &v }

func resultFixture(workName string) models.AnalysisResult {
	end := time.Date(2026, 2, 14, 22, 15, 0, 0, time.UTC)
	return models.AnalysisResult{
		WorkName:       workName,
		Query:          workName,
		ReferenceCount: fptr(5),
		OneHourSum:     fptr(33),
		TotalSum:       fptr(34),
		WindowEnd:      &end,
		TrendWords:     []string{},
	}
}

func fullResultSet() []models.AnalysisResult {
	plain := resultFixture("alpha")

	combined := resultFixture("alpha")
	combined.Query = "(alpha rocket)"
	combined.WithTrendWord = true
	combined.TrendWords = []string{"rocket"}

	individual := resultFixture("alpha")
	individual.Query = "rocket"
	individual.WithTrendWord = true
	individual.IsTrendIndividual = true
	individual.TrendWords = []string{"rocket"}

	trendOnly := resultFixture("hot topic")
	trendOnly.IsTrend = true

	return []models.AnalysisResult{plain, combined, individual, trendOnly}
}

func TestSaveResultsSplitsTables(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())
	trendWords := []models.TrendWord{{WorkName: "alpha", Word: "rocket", Rank: "3"}}

	report, err := store.SaveResults(fullResultSet(), 12, trendWords)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SavedCount)
	assert.Equal(t, 1, report.TrendSavedCount)

	header, rows, err := store.LoadWorkSummary()
	require.NoError(t, err)
	assert.Equal(t, WorkSummaryColumns, header)
	require.Len(t, rows, 2)
	// Same issue and work: the plain row sorts before the combined one.
	assert.Equal(t, []string{"12", "alpha", "false", "alpha", "5", "33", "34", "2026-02-14 22:15:00"}, rows[0])
	assert.Equal(t, "true", rows[1][2])
	assert.Equal(t, "(alpha rocket)", rows[1][3])

	trendHeader, trendRows, err := store.LoadTrendSummary()
	require.NoError(t, err)
	assert.Equal(t, TrendSummaryColumns, trendHeader)
	require.Len(t, trendRows, 1)
	assert.Equal(t, []string{"12", "alpha", "rocket", "3", "5", "33", "34", "2026-02-14 22:15:00"}, trendRows[0])
}

func TestSaveResultsIdempotent(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())
	trendWords := []models.TrendWord{{WorkName: "alpha", Word: "rocket", Rank: "3"}}

	_, err := store.SaveResults(fullResultSet(), 12, trendWords)
	require.NoError(t, err)
	_, firstRows, err := store.LoadWorkSummary()
	require.NoError(t, err)
	_, firstTrend, err := store.LoadTrendSummary()
	require.NoError(t, err)

	_, err = store.SaveResults(fullResultSet(), 12, trendWords)
	require.NoError(t, err)

	_, rows, err := store.LoadWorkSummary()
	require.NoError(t, err)
	assert.Equal(t, firstRows, rows)
	_, trendRows, err := store.LoadTrendSummary()
	require.NoError(t, err)
	assert.Equal(t, firstTrend, trendRows)
}

func TestSaveResultsReplacesCollidingKeys(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())

	first := resultFixture("alpha")
	_, err := store.SaveResults([]models.AnalysisResult{first}, 12, nil)
	require.NoError(t, err)

	updated := resultFixture("alpha")
	updated.TotalSum = fptr(99)
	_, err = store.SaveResults([]models.AnalysisResult{updated}, 12, nil)
	require.NoError(t, err)

	_, rows, err := store.LoadWorkSummary()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "99", rows[0][6])
}

func TestSaveResultsKeepsOtherIssues(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())

	_, err := store.SaveResults([]models.AnalysisResult{resultFixture("alpha")}, 2, nil)
	require.NoError(t, err)
	_, err = store.SaveResults([]models.AnalysisResult{resultFixture("alpha")}, 10, nil)
	require.NoError(t, err)

	_, rows, err := store.LoadWorkSummary()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Numeric issue ordering, not lexicographic: 2 before 10.
	assert.Equal(t, "2", rows[0][0])
	assert.Equal(t, "10", rows[1][0])
}

func TestSaveResultsWithoutTrendRowsLeavesTrendTableAlone(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())

	individual := resultFixture("alpha")
	individual.IsTrendIndividual = true
	individual.TrendWords = []string{"rocket"}
	_, err := store.SaveResults([]models.AnalysisResult{resultFixture("alpha"), individual}, 12, nil)
	require.NoError(t, err)

	// A later save with no isolated trend results must not rewrite the
	// trend table.
	report, err := store.SaveResults([]models.AnalysisResult{resultFixture("beta")}, 13, nil)
	require.NoError(t, err)
	assert.Zero(t, report.TrendSavedCount)

	_, trendRows, err := store.LoadTrendSummary()
	require.NoError(t, err)
	require.Len(t, trendRows, 1)
	assert.Equal(t, "12", trendRows[0][0])
}

func TestSaveResultsSkipsMultiWordIndividuals(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())

	odd := resultFixture("alpha")
	odd.IsTrendIndividual = true
	odd.TrendWords = []string{"a", "b"}
	report, err := store.SaveResults([]models.AnalysisResult{odd}, 12, nil)
	require.NoError(t, err)
	assert.Zero(t, report.TrendSavedCount)
}

func TestSaveResultsNilMetricsPersistAsZero(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())

	empty := models.AnalysisResult{WorkName: "alpha", Query: "alpha", TrendWords: []string{}}
	_, err := store.SaveResults([]models.AnalysisResult{empty}, 12, nil)
	require.NoError(t, err)

	_, rows, err := store.LoadWorkSummary()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0", rows[0][4])
	assert.Equal(t, "0", rows[0][5])
	assert.Equal(t, "0", rows[0][6])
	assert.Equal(t, "no data", rows[0][7])
}

func TestLoadWorkSummaryMissingFile(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())

	_, _, err := store.LoadWorkSummary()
	assert.True(t, os.IsNotExist(err))
}

func TestLoadTrendSummaryMissingFileIsEmpty(t *testing.T) {
	store := NewSummaryStore(t.TempDir(), testhelpers.NewTestLogger())

	header, rows, err := store.LoadTrendSummary()
	require.NoError(t, err)
	assert.Equal(t, TrendSummaryColumns, header)
	assert.Empty(t, rows)
}
