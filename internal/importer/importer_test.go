package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/slabcam/internal/nest"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Label,Width,Height,Qty\nShelf,600,300,2\nDoor,400,800,1\n", ','},
		{"semicolon", "Label;Width;Height;Qty\nShelf;600;300;2\nDoor;400;800;1\n", ';'},
		{"tab", "Label\tWidth\tHeight\tQty\nShelf\t600\t300\t2\nDoor\t400\t800\t1\n", '\t'},
		{"pipe", "Label|Width|Height|Qty\nShelf|600|300|2\nDoor|400|800|1\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Label", "Width", "Height", "Quantity", "Grain"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Label: 0, Width: 1, Height: 2, Length: -1, Quantity: 3, Grain: 4}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
	if mapping.linear() {
		t.Error("a height column means rectangular parts")
	}
}

func TestDetectColumns_AlternativeNames(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Qty", "Depth", "W", "Part Name", "Grain Direction"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	want := ColumnMapping{Label: 3, Width: 2, Height: 1, Length: -1, Quantity: 0, Grain: 4}
	if mapping != want {
		t.Errorf("expected %+v, got %+v", want, mapping)
	}
}

func TestDetectColumns_LengthAndHeightIsSheetPart(t *testing.T) {
	mapping, _ := DetectColumns([]string{"Name", "LENGTH", "Height", "Pcs"})

	if mapping.Width != 1 || mapping.Length != -1 {
		t.Errorf("expected length to stand in for width, got %+v", mapping)
	}
	if mapping.linear() {
		t.Error("expected rectangular mapping")
	}
}

func TestDetectColumns_LengthOnlyIsLinear(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Item", "Length", "Count"})

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if !mapping.linear() {
		t.Errorf("expected linear mapping, got %+v", mapping)
	}
	if mapping.Length != 1 || mapping.Quantity != 2 {
		t.Errorf("unexpected mapping %+v", mapping)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Shelf", "600", "300", "2"})

	if isHeader {
		t.Error("data row should not be detected as header")
	}
	if mapping.Label != 0 || mapping.Width != 1 || mapping.Height != 2 || mapping.Quantity != 3 {
		t.Errorf("expected positional mapping, got %+v", mapping)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_WithHeaders(t *testing.T) {
	data := "Label,Width,Height,Quantity,Grain\nShelf,600,300,2,Horizontal\nDoor,400,800,1,Vertical\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(result.Parts))
	}

	want := nest.RectPart{ID: "Shelf", Width: 600, Height: 300, Quantity: 2, Grain: nest.GrainAlongX}
	if result.Parts[0] != want {
		t.Errorf("expected %+v, got %+v", want, result.Parts[0])
	}
	if result.Parts[1].Grain != nest.GrainAlongY {
		t.Errorf("expected along-y grain, got %v", result.Parts[1].Grain)
	}
	if !result.OK() {
		t.Error("expected OK result")
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Shelf,600,300,2\nDoor,400,800,1\n"), ',')

	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d (errors: %v)", len(result.Parts), result.Errors)
	}
	if result.Parts[0].ID != "Shelf" || result.Parts[0].Width != 600 {
		t.Errorf("unexpected first part %+v", result.Parts[0])
	}
	if result.Parts[0].Grain != nest.GrainEither {
		t.Errorf("expected default grain, got %v", result.Parts[0].Grain)
	}
}

func TestImportCSVFromReader_UnknownHeaderSkipped(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Teil,Breite,Hoehe,Menge\nShelf,600,300,2\n"), ',')

	if len(result.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d (errors: %v)", len(result.Parts), result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the skipped header")
	}
}

func TestImportCSVFromReader_LinearParts(t *testing.T) {
	data := "Name,Length,Qty\nRail,1200,2\n,450.5,3\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Parts) != 0 {
		t.Errorf("expected no sheet parts, got %d", len(result.Parts))
	}
	want := []nest.LinearPart{
		{ID: "Rail", Length: 1200, Quantity: 2},
		{ID: "Part 2", Length: 450.5, Quantity: 3},
	}
	if len(result.LinearParts) != len(want) {
		t.Fatalf("expected %d linear parts, got %d", len(want), len(result.LinearParts))
	}
	for i := range want {
		if result.LinearParts[i] != want[i] {
			t.Errorf("part %d: expected %+v, got %+v", i, want[i], result.LinearParts[i])
		}
	}
}

func TestImportCSVFromReader_LinearWidthColumn(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label,Width,Quantity\nStile,720,4\n"), ',')

	if len(result.LinearParts) != 1 || result.LinearParts[0].Length != 720 {
		t.Fatalf("expected one 720 linear part, got %+v (errors: %v)", result.LinearParts, result.Errors)
	}
}

func TestImportCSVFromReader_LinearInvalidLength(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label,Length,Qty\nRail,-5,1\nPost,abc,1\n"), ',')

	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	if result.Errors[0] != "Line 2: Length and quantity must be positive" {
		t.Errorf("unexpected error %q", result.Errors[0])
	}
	if result.Errors[1] != "Line 3: Invalid length 'abc'" {
		t.Errorf("unexpected error %q", result.Errors[1])
	}
}

func TestImportCSVFromReader_ReorderedColumns(t *testing.T) {
	data := "Qty,Height,Width,Name\n3,200,500,Panel\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d (errors: %v)", len(result.Parts), result.Errors)
	}
	want := nest.RectPart{ID: "Panel", Width: 500, Height: 200, Quantity: 3, Grain: nest.GrainEither}
	if result.Parts[0] != want {
		t.Errorf("expected %+v, got %+v", want, result.Parts[0])
	}
}

func TestImportCSVFromReader_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"invalid width", "Label,Width,Height,Qty\nShelf,abc,300,2\n", "Line 2: Invalid width 'abc'"},
		{"invalid quantity", "Label,Width,Height,Qty\nShelf,600,300,x\n", "Line 2: Invalid quantity 'x'"},
		{"missing height", "Label,Width,Height,Qty\nShelf,600,,2\n", "Line 2: Missing height value"},
		{"negative", "Label,Width,Height,Qty\nShelf,-600,300,2\n", "Line 2: Width, height, and quantity must be positive"},
		{"zero quantity", "Label,Width,Height,Qty\nShelf,600,300,0\n", "Line 2: Width, height, and quantity must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ImportCSVFromReader(strings.NewReader(tt.data), ',')
			if len(result.Errors) != 1 || result.Errors[0] != tt.want {
				t.Errorf("expected error %q, got %v", tt.want, result.Errors)
			}
			if result.OK() {
				t.Error("result with errors must not be OK")
			}
		})
	}
}

func TestImportCSVFromReader_MixedValidAndInvalid(t *testing.T) {
	data := "Label,Width,Height,Qty\nShelf,600,300,2\nBad,abc,300,1\nDoor,400,800,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Parts) != 2 {
		t.Errorf("expected 2 valid parts, got %d", len(result.Parts))
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(result.Errors))
	}
}

func TestImportCSVFromReader_EmptyRowsAndLabels(t *testing.T) {
	data := "Label,Width,Height,Qty\n,600,300,2\n,,,\n\nDoor,400,800,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d (errors: %v)", len(result.Parts), result.Errors)
	}
	if result.Parts[0].ID != "Part 1" {
		t.Errorf("expected generated label 'Part 1', got %q", result.Parts[0].ID)
	}
}

func TestImportCSVFromReader_UnknownGrainWarns(t *testing.T) {
	data := "Label,Width,Height,Qty,Grain\nShelf,600,300,2,diagonal\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Parts) != 1 || result.Parts[0].Grain != nest.GrainEither {
		t.Fatalf("expected one part with either grain, got %+v", result.Parts)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "Unknown grain direction 'diagonal'") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected grain warning, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_MissingRequiredColumnInHeader(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Label,Height,Grain\nShelf,300,h\n"), ',')

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if result.Errors[0] != "Required columns not found in header: Width, Quantity" {
		t.Errorf("unexpected error %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_EdgeCases(t *testing.T) {
	if r := ImportCSVFromReader(strings.NewReader(""), ','); len(r.Errors) == 0 {
		t.Error("expected error for empty input")
	}

	r := ImportCSVFromReader(strings.NewReader("Label,Width,Height,Quantity\n"), ',')
	if len(r.Parts) != 0 || len(r.Errors) != 0 {
		t.Errorf("header-only input: parts %v errors %v", r.Parts, r.Errors)
	}
	if r.OK() {
		t.Error("header-only input is not OK")
	}

	r = ImportCSVFromReader(strings.NewReader("Label , Width , Height , Quantity\n Shelf , 600.5 , 300.25 , 2 \n"), ',')
	if len(r.Parts) != 1 || r.Parts[0].Width != 600.5 || r.Parts[0].Height != 300.25 {
		t.Errorf("expected trimmed decimal values, got %+v (errors: %v)", r.Parts, r.Errors)
	}
}

// ─── File Import Tests ─────────────────────────────────────

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestImportCSV_SemicolonFile(t *testing.T) {
	path := writeFile(t, "parts.csv", "Label;Width;Height;Qty\nShelf;600;300;2\nDoor;400;800;1\n")

	result := ImportCSV(path)
	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d (errors: %v)", len(result.Parts), result.Errors)
	}
	if result.Warnings[0] != "Detected semicolon delimiter" {
		t.Errorf("expected delimiter warning first, got %v", result.Warnings)
	}
}

func TestImportCSV_Errors(t *testing.T) {
	if r := ImportCSV("/nonexistent/parts.csv"); len(r.Errors) == 0 {
		t.Error("expected error for missing file")
	}
	if r := ImportCSV(writeFile(t, "empty.csv", "  \n")); len(r.Errors) != 1 || r.Errors[0] != "File is empty" {
		t.Errorf("expected empty file error, got %v", r.Errors)
	}
}

func TestImportCutList_DispatchesByExtension(t *testing.T) {
	csvPath := writeFile(t, "rails.CSV", "Name,Length,Qty\nRail,1200,2\n")
	if r := ImportCutList(csvPath); len(r.LinearParts) != 1 {
		t.Errorf("expected 1 linear part from CSV, got %+v (errors: %v)", r.LinearParts, r.Errors)
	}

	xlsxPath := createTestExcel(t, [][]interface{}{
		{"Label", "Width", "Height", "Quantity"},
		{"Side", 720, 560, 2},
	})
	if r := ImportCutList(xlsxPath); len(r.Parts) != 1 {
		t.Errorf("expected 1 part from XLSX, got %+v (errors: %v)", r.Parts, r.Errors)
	}

	r := ImportCutList(writeFile(t, "parts.ods", "x"))
	if len(r.Errors) != 1 || r.Errors[0] != "Unsupported cut list format '.ods'" {
		t.Errorf("unexpected errors %v", r.Errors)
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parts.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Label", "Width", "Height", "Quantity", "Grain"},
		{"Shelf", 600, 300, 2, "Horizontal"},
		{"Door", 400, 800, 1, "V"},
	})

	result := ImportExcel(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(result.Parts))
	}
	if result.Parts[0].ID != "Shelf" || result.Parts[0].Grain != nest.GrainAlongX {
		t.Errorf("unexpected first part %+v", result.Parts[0])
	}
	if result.Parts[1].Grain != nest.GrainAlongY {
		t.Errorf("expected along-y grain, got %v", result.Parts[1].Grain)
	}
}

func TestImportExcel_WithoutHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Shelf", 600, 300, 2},
		{"Door", 400, 800, 1},
	})

	result := ImportExcel(path)
	if len(result.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d (errors: %v)", len(result.Parts), result.Errors)
	}
}

func TestImportExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Label", "Width", "Height", "Quantity"},
		{"Shelf", "wide", 300, 2},
	})

	result := ImportExcel(path)
	if len(result.Errors) != 1 || result.Errors[0] != "Row 2: Invalid width 'wide'" {
		t.Errorf("unexpected errors %v", result.Errors)
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	if r := ImportExcel("/nonexistent/parts.xlsx"); len(r.Errors) == 0 {
		t.Error("expected error for missing file")
	}
}

// ─── parseGrain Tests ──────────────────────────────────────

func TestParseGrain(t *testing.T) {
	tests := []struct {
		input    string
		expected nest.GrainDirection
		ok       bool
	}{
		{"Horizontal", nest.GrainAlongX, true},
		{"H", nest.GrainAlongX, true},
		{"  h  ", nest.GrainAlongX, true},
		{"along-x", nest.GrainAlongX, true},
		{"Vertical", nest.GrainAlongY, true},
		{"v", nest.GrainAlongY, true},
		{"Y", nest.GrainAlongY, true},
		{"None", nest.GrainEither, true},
		{"N", nest.GrainEither, true},
		{"-", nest.GrainEither, true},
		{"", nest.GrainEither, true},
		{"diagonal", nest.GrainEither, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			grain, ok := parseGrain(tt.input)
			if grain != tt.expected {
				t.Errorf("parseGrain(%q): expected %v, got %v", tt.input, tt.expected, grain)
			}
			if ok != tt.ok {
				t.Errorf("parseGrain(%q): expected ok=%v, got %v", tt.input, tt.ok, ok)
			}
		})
	}
}
