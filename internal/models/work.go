package models

import "strings"

// Work is one analysis subject: a display name plus its search query.
// QueryElements holds the individual query terms when the query was built
// from a list; IsTrend marks standalone trend queries that are analyzed
// once and never expanded with trend words.
type Work struct {
	Name          string   `json:"name"`
	Query         string   `json:"query"`
	QueryElements []string `json:"query_list,omitempty"`
	IsTrend       bool     `json:"is_trend,omitempty"`
}

// TrendWord associates an externally supplied trending keyword with a work.
type TrendWord struct {
	Word     string `json:"word"`
	WorkName string `json:"work_name"`
	Rank     string `json:"rank"`
}

// BuildQuery joins query elements into a single search query string.
// Multiple elements are grouped in parentheses for the upstream search
// syntax; a single element passes through unchanged.
func BuildQuery(elements []string) string {
	switch len(elements) {
	case 0:
		return ""
	case 1:
		return elements[0]
	default:
		return "(" + strings.Join(elements, " ") + ")"
	}
}
