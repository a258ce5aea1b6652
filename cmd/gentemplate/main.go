// Command gentemplate generates the Excel import template for the work list.
// Usage: go run cmd/gentemplate/main.go
package main

import (
	"log"
	"os"

	"github.com/xuri/excelize/v2"
)

func main() {
	f := excelize.NewFile()

	// Rename Sheet1 to Works
	if err := f.SetSheetName("Sheet1", "Works"); err != nil {
		log.Fatal(err)
	}

	// Add headers
	headers := []string{"name", "query", "elements", "trend_only"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Works", cell, h); err != nil {
			log.Fatal(err)
		}
	}

	// Add example row 1: query built from elements
	row1 := []string{
		"Example Title",
		`(Example Title Author Name)`,
		`["Example Title", "Author Name"]`,
		"false",
	}
	for i, v := range row1 {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Works", cell, v); err != nil {
			log.Fatal(err)
		}
	}

	// Add example row 2: standalone trend query
	row2 := []string{"Standalone Trend", "trending phrase", "", "true"}
	for i, v := range row2 {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Works", cell, v); err != nil {
			log.Fatal(err)
		}
	}

	// Create Instructions sheet
	if _, err := f.NewSheet("Instructions"); err != nil {
		log.Fatal(err)
	}
	instructions := []string{
		"Column Descriptions:",
		"",
		"name - Required. Display name of the work",
		"query - Search query. Optional when elements is given (built from elements)",
		`elements - Optional. JSON array of query terms (e.g. '["Title", "Author"]')`,
		"trend_only - Optional. true/1/yes marks a standalone trend query (default: false)",
	}
	for i, line := range instructions {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue("Instructions", cell, line); err != nil {
			log.Fatal(err)
		}
	}

	filename := "works_template.xlsx"
	if len(os.Args) > 1 {
		filename = os.Args[1]
	}
	if err := f.SaveAs(filename); err != nil {
		log.Fatal(err)
	}
	log.Printf("Template written to %s", filename)
}
