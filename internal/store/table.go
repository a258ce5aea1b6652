// Package store persists analysis output as CSV tables and serves the
// issue-number to reference-date mapping.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
)

// readTable reads a CSV file into its header and data rows. A missing file
// is not an error here; callers decide whether absence means "empty table"
// or "not found".
func readTable(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// writeTable rewrites the whole CSV file with the given header and rows.
func writeTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
