package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

const (
	workSummaryFile  = "word_analysis_summary.csv"
	trendSummaryFile = "trend_analysis_summary.csv"
)

// WorkSummaryColumns is the fixed column order of the work-summary table.
// Rows are keyed by (issue_number, work_name, with_trend_word).
var WorkSummaryColumns = []string{
	"issue_number", "work_name", "with_trend_word", "query",
	"reference_count", "one_hour_sum", "total_sum", "window_end",
}

// TrendSummaryColumns is the fixed column order of the trend-summary table.
// Rows are keyed by (issue_number, work_name).
var TrendSummaryColumns = []string{
	"issue_number", "work_name", "trend_word", "rank",
	"reference_count", "one_hour_sum", "total_sum", "window_end",
}

// SaveReport carries the per-table row counts written by a save.
type SaveReport struct {
	SavedCount      int `json:"saved_count"`
	TrendSavedCount int `json:"trend_saved_count"`
}

// SummaryStore merges completed analysis results into the two persisted
// CSV tables with composite-key replace semantics: a colliding key drops
// the old row, everything else is preserved, and the whole table is
// rewritten sorted by its key columns.
type SummaryStore struct {
	dir    string
	logger logger.Logger
}

func NewSummaryStore(dir string, log logger.Logger) *SummaryStore {
	return &SummaryStore{
		dir:    dir,
		logger: log,
	}
}

// WorkSummaryPath returns the work-summary table location.
func (s *SummaryStore) WorkSummaryPath() string {
	return filepath.Join(s.dir, workSummaryFile)
}

// TrendSummaryPath returns the trend-summary table location.
func (s *SummaryStore) TrendSummaryPath() string {
	return filepath.Join(s.dir, trendSummaryFile)
}

// LoadWorkSummary reads the persisted work-summary table. A missing file
// surfaces as the underlying not-exist error so callers can report it.
func (s *SummaryStore) LoadWorkSummary() ([]string, [][]string, error) {
	header, rows, err := readTable(s.WorkSummaryPath())
	if err != nil {
		return nil, nil, err
	}
	if header == nil {
		header = WorkSummaryColumns
	}
	return header, rows, nil
}

// LoadTrendSummary reads the persisted trend-summary table. A missing file
// yields an empty table.
func (s *SummaryStore) LoadTrendSummary() ([]string, [][]string, error) {
	header, rows, err := readTable(s.TrendSummaryPath())
	if err != nil {
		if os.IsNotExist(err) {
			return TrendSummaryColumns, nil, nil
		}
		return nil, nil, err
	}
	if header == nil {
		header = TrendSummaryColumns
	}
	return header, rows, nil
}

// SaveResults merges a completed result set into both tables and returns
// how many rows were written to each. Saving the same result set twice for
// the same issue leaves the tables unchanged after the second save.
func (s *SummaryStore) SaveResults(results []models.AnalysisResult, issue int, trendWords []models.TrendWord) (SaveReport, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return SaveReport{}, err
	}

	report := SaveReport{}

	workRows := s.buildWorkRows(results, issue)
	if err := s.merge(s.WorkSummaryPath(), WorkSummaryColumns, workRows, workRowKey, workRowLess); err != nil {
		return report, err
	}
	report.SavedCount = len(workRows)

	trendRows := s.buildTrendRows(results, issue, trendWords)
	if len(trendRows) > 0 {
		if err := s.merge(s.TrendSummaryPath(), TrendSummaryColumns, trendRows, trendRowKey, trendRowLess); err != nil {
			return report, err
		}
		report.TrendSavedCount = len(trendRows)
	}

	return report, nil
}

// buildWorkRows shapes the work-summary rows: trend-only and individual
// trend results belong to the other table.
func (s *SummaryStore) buildWorkRows(results []models.AnalysisResult, issue int) [][]string {
	var rows [][]string
	for i := range results {
		r := &results[i]
		if r.IsTrend || r.IsTrendIndividual {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(issue),
			r.WorkName,
			strconv.FormatBool(r.WithTrendWord),
			r.Query,
			formatMetric(r.ReferenceCount),
			formatMetric(r.OneHourSum),
			formatMetric(r.TotalSum),
			r.WindowEndDisplay(),
		})
	}
	return rows
}

// buildTrendRows shapes the trend-summary rows from the isolated trend
// word results, joining the rank from the supplied trend-word metadata.
func (s *SummaryStore) buildTrendRows(results []models.AnalysisResult, issue int, trendWords []models.TrendWord) [][]string {
	var rows [][]string
	for i := range results {
		r := &results[i]
		if !r.IsTrendIndividual || len(r.TrendWords) != 1 {
			continue
		}
		word := r.TrendWords[0]
		rows = append(rows, []string{
			strconv.Itoa(issue),
			r.WorkName,
			word,
			rankOf(trendWords, r.WorkName, word),
			formatMetric(r.ReferenceCount),
			formatMetric(r.OneHourSum),
			formatMetric(r.TotalSum),
			r.WindowEndDisplay(),
		})
	}
	return rows
}

// merge applies the composite-key replace: existing rows colliding with a
// new row's key are dropped, survivors and new rows are sorted together
// and the file is rewritten in full.
func (s *SummaryStore) merge(path string, columns []string, newRows [][]string, key func([]string) string, less func(a, b []string) bool) error {
	_, existing, err := readTable(path)
	if err != nil && !os.IsNotExist(err) {
		// Unreadable history is downgraded to an empty table rather than
		// blocking the save.
		s.logger.Warn("Could not read existing table, starting fresh",
			logger.String("path", path),
			logger.Error(err),
		)
		existing = nil
	}

	replaced := make(map[string]struct{}, len(newRows))
	for _, row := range newRows {
		replaced[key(row)] = struct{}{}
	}

	merged := make([][]string, 0, len(existing)+len(newRows))
	for _, row := range existing {
		if len(row) != len(columns) {
			s.logger.Warn("Dropping malformed table row",
				logger.String("path", path),
				logger.Int("columns", len(row)),
			)
			continue
		}
		if _, collides := replaced[key(row)]; collides {
			continue
		}
		merged = append(merged, row)
	}
	merged = append(merged, newRows...)

	sort.SliceStable(merged, func(i, j int) bool {
		return less(merged[i], merged[j])
	})

	return writeTable(path, columns, merged)
}

func workRowKey(row []string) string {
	return row[0] + "\x00" + row[1] + "\x00" + row[2]
}

func trendRowKey(row []string) string {
	return row[0] + "\x00" + row[1]
}

func workRowLess(a, b []string) bool {
	if ai, bi := issueOf(a), issueOf(b); ai != bi {
		return ai < bi
	}
	if a[1] != b[1] {
		return a[1] < b[1]
	}
	return a[2] < b[2] // "false" sorts before "true"
}

func trendRowLess(a, b []string) bool {
	if ai, bi := issueOf(a), issueOf(b); ai != bi {
		return ai < bi
	}
	return a[1] < b[1]
}

func issueOf(row []string) int {
	n, err := strconv.Atoi(row[0])
	if err != nil {
		return 0
	}
	return n
}

// formatMetric renders a metric column; absent metrics persist as zero.
func formatMetric(v *float64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func rankOf(trendWords []models.TrendWord, workName, word string) string {
	for _, tw := range trendWords {
		if tw.WorkName == workName && tw.Word == word {
			return tw.Rank
		}
	}
	return ""
}
