package models

import "time"

// AnalysisResult is the outcome of analyzing one (work, query-variant) pair.
// Numeric fields and WindowEnd are nil when the upstream series came back
// empty. TrendWords is always non-nil so callers never see an absent list.
type AnalysisResult struct {
	WorkName       string   `json:"work_name"`
	Query          string   `json:"query"`
	ReferenceCount *float64 `json:"reference_count"`
	OneHourSum     *float64 `json:"one_hour_sum"`
	TotalSum       *float64 `json:"total_sum"`

	// WindowEnd is the resolved end of the burst-aggregation window, nil
	// when no data exists at or after the reference instant.
	WindowEnd *time.Time `json:"window_end,omitempty"`

	// Display anchors, formatted with the timezone dropped.
	ReferenceTime     string `json:"reference_time,omitempty"`
	ReferenceBaseTime string `json:"reference_base_time,omitempty"`

	ChartData          []ChartPoint `json:"chart_data,omitempty"`
	OneHourRangeData   []ChartPoint `json:"one_hour_range_data,omitempty"`
	AfterOneHourData   []ChartPoint `json:"after_one_hour_range_data,omitempty"`

	IsTrend           bool     `json:"is_trend"`
	WithTrendWord     bool     `json:"with_trend_word"`
	TrendWords        []string `json:"trend_words"`
	IsTrendIndividual bool     `json:"is_trend_individual"`
}

// WindowEndDisplay renders the window end for display and CSV output,
// with a fixed marker when the series carried no data.
func (r *AnalysisResult) WindowEndDisplay() string {
	if r.WindowEnd == nil {
		return "no data"
	}
	return FormatTime(*r.WindowEnd)
}
