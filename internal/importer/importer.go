// Package importer reads cut lists from CSV and Excel files and machining
// geometry from DXF drawings. Cut-list import detects the delimiter and maps
// columns by case-insensitive header names.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/slabcam/internal/nest"
)

// ImportResult holds the parts read from a cut list. A list with a height
// column yields rectangular parts; one without yields linear parts.
type ImportResult struct {
	Parts       []nest.RectPart
	LinearParts []nest.LinearPart
	Errors      []string
	Warnings    []string
}

// OK reports whether the import produced parts without row errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && (len(r.Parts) > 0 || len(r.LinearParts) > 0)
}

// ColumnMapping maps semantic column roles to their indices in the data.
// A role that is not present is -1.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Length   int
	Quantity int
	Grain    int
}

// linear reports whether the mapping describes one-dimensional parts.
func (m ColumnMapping) linear() bool {
	return m.Height == -1 && (m.Length != -1 || m.Width != -1)
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":    {"label", "name", "id", "part", "part name", "description", "desc", "piece", "item"},
	"width":    {"width", "w", "x"},
	"height":   {"height", "h", "depth", "d", "y"},
	"length":   {"length", "len", "l"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
	"grain":    {"grain", "grain direction", "direction", "grain dir", "orientation"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping. It
// returns a positional Label, Width, Height, Quantity, Grain mapping and
// false when the row is not a header.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Width: -1, Height: -1, Length: -1, Quantity: -1, Grain: -1}
	slots := map[string]*int{
		"label":    &mapping.Label,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"length":   &mapping.Length,
		"quantity": &mapping.Quantity,
		"grain":    &mapping.Grain,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Label: 0, Width: 1, Height: 2, Length: -1, Quantity: 3, Grain: 4}, false
	}
	// A sheet cut list may name its long side "length"
	if mapping.Width == -1 && mapping.Height != -1 && mapping.Length != -1 {
		mapping.Width, mapping.Length = mapping.Length, -1
	}
	return mapping, true
}

// parseGrain accepts the short forms used in spreadsheets plus everything
// nest.ParseGrain knows. The boolean is false for unrecognised values.
func parseGrain(s string) (nest.GrainDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h":
		return nest.GrainAlongX, true
	case "v":
		return nest.GrainAlongY, true
	case "n", "-":
		return nest.GrainEither, true
	}
	g, err := nest.ParseGrain(s)
	return g, err == nil
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parsePositive(row []string, idx int, name, rowLabel string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

func parseQuantity(row []string, idx int, rowLabel string) (int, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing quantity value", rowLabel)
	}
	qty, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, s)
	}
	return qty, ""
}

// parseRow extracts a rectangular part. It returns the part, an error
// message and a warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, partCount int) (nest.RectPart, string, string) {
	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Part %d", partCount+1)
	}

	width, msg := parsePositive(row, mapping.Width, "width", rowLabel)
	if msg != "" {
		return nest.RectPart{}, msg, ""
	}
	height, msg := parsePositive(row, mapping.Height, "height", rowLabel)
	if msg != "" {
		return nest.RectPart{}, msg, ""
	}
	qty, msg := parseQuantity(row, mapping.Quantity, rowLabel)
	if msg != "" {
		return nest.RectPart{}, msg, ""
	}
	if width <= 0 || height <= 0 || qty <= 0 {
		return nest.RectPart{}, fmt.Sprintf("%s: Width, height, and quantity must be positive", rowLabel), ""
	}

	part := nest.RectPart{ID: label, Width: width, Height: height, Quantity: qty, Grain: nest.GrainEither}

	var warning string
	if grainStr := getCell(row, mapping.Grain); grainStr != "" {
		if grain, ok := parseGrain(grainStr); ok {
			part.Grain = grain
		} else {
			warning = fmt.Sprintf("%s: Unknown grain direction '%s', defaulting to either", rowLabel, grainStr)
		}
	}
	return part, "", warning
}

// parseLinearRow extracts a linear part from the length column, or the
// width column when there is no length column.
func parseLinearRow(row []string, mapping ColumnMapping, rowLabel string, partCount int) (nest.LinearPart, string) {
	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Part %d", partCount+1)
	}
	col := mapping.Length
	if col == -1 {
		col = mapping.Width
	}
	length, msg := parsePositive(row, col, "length", rowLabel)
	if msg != "" {
		return nest.LinearPart{}, msg
	}
	qty, msg := parseQuantity(row, mapping.Quantity, rowLabel)
	if msg != "" {
		return nest.LinearPart{}, msg
	}
	if length <= 0 || qty <= 0 {
		return nest.LinearPart{}, fmt.Sprintf("%s: Length and quantity must be positive", rowLabel)
	}
	return nest.LinearPart{ID: label, Length: length, Quantity: qty}, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCutList imports a cut list, choosing the reader by file extension.
func ImportCutList(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	case ".csv", ".tsv", ".txt":
		return ImportCSV(path)
	}
	return ImportResult{Errors: []string{fmt.Sprintf("Unsupported cut list format '%s'", filepath.Ext(path))}}
}

// ImportCSV imports parts from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports parts from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}
	return importFromRows(records, "Line", nil)
}

// ImportExcel imports parts from the first sheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		if mapping.Width == -1 && mapping.Length == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// A non-numeric second cell is an unrecognised header
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	linear := mapping.linear()
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		if linear {
			part, errMsg := parseLinearRow(row, mapping, rowLabel, len(result.LinearParts))
			if errMsg != "" {
				result.Errors = append(result.Errors, errMsg)
				continue
			}
			result.LinearParts = append(result.LinearParts, part)
			continue
		}

		part, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Parts))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Parts = append(result.Parts, part)
	}

	return result
}
