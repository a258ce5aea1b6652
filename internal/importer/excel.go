// Package importer parses the Excel work list into analysis subjects.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

// SheetName is the worksheet holding the work list.
const SheetName = "Works"

// Column indices for the work-list spreadsheet (0-based).
const (
	colName      = 0 // Column A
	colQuery     = 1 // Column B
	colElements  = 2 // Column C
	colTrendOnly = 3 // Column D
)

// WorkRow represents a parsed row from the Excel spreadsheet.
type WorkRow struct {
	Row       int // Excel row number (for error reporting)
	Name      string
	Query     string
	Elements  string // Raw JSON array string
	TrendOnly bool
}

// ImportError represents a validation error for a specific row.
type ImportError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ParseFile reads the work list from an xlsx file on disk.
func ParseFile(path string) ([]models.Work, []ImportError, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return parseWorkbook(f)
}

// ParseReader reads the work list from an uploaded xlsx stream.
func ParseReader(r io.Reader) ([]models.Work, []ImportError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f)
}

func parseWorkbook(f *excelize.File) ([]models.Work, []ImportError, error) {
	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", SheetName, err)
	}

	var works []models.Work
	var importErrors []ImportError

	for i, cells := range rows {
		if i == 0 { // header row
			continue
		}
		row := parseRow(i+1, cells)
		if isEmptyRow(row) {
			continue
		}

		if msg := ValidateRow(row); msg != "" {
			importErrors = append(importErrors, ImportError{Row: row.Row, Error: msg})
			continue
		}

		work, buildErr := buildWork(row)
		if buildErr != "" {
			importErrors = append(importErrors, ImportError{Row: row.Row, Error: buildErr})
			continue
		}
		works = append(works, work)
	}

	return works, importErrors, nil
}

func parseRow(rowNum int, cells []string) WorkRow {
	return WorkRow{
		Row:       rowNum,
		Name:      strings.TrimSpace(cell(cells, colName)),
		Query:     strings.TrimSpace(cell(cells, colQuery)),
		Elements:  strings.TrimSpace(cell(cells, colElements)),
		TrendOnly: parseBool(cell(cells, colTrendOnly)),
	}
}

func cell(cells []string, index int) string {
	if index >= len(cells) {
		return ""
	}
	return cells[index]
}

func isEmptyRow(row WorkRow) bool {
	return row.Name == "" && row.Query == "" && row.Elements == ""
}

// ValidateRow validates a single row and returns an error message or empty string.
func ValidateRow(row WorkRow) string {
	if row.Name == "" {
		return "name is required"
	}
	if row.Query == "" && row.Elements == "" {
		return "query or elements is required"
	}
	if row.Elements != "" {
		var elements []string
		if err := json.Unmarshal([]byte(row.Elements), &elements); err != nil {
			return "elements must be a valid JSON array of strings"
		}
	}
	return ""
}

func buildWork(row WorkRow) (models.Work, string) {
	work := models.Work{
		Name:    row.Name,
		Query:   row.Query,
		IsTrend: row.TrendOnly,
	}

	if row.Elements != "" {
		var elements []string
		if err := json.Unmarshal([]byte(row.Elements), &elements); err != nil {
			return models.Work{}, "elements must be a valid JSON array of strings"
		}
		work.QueryElements = elements
		if work.Query == "" {
			work.Query = models.BuildQuery(elements)
		}
	}

	return work, ""
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
