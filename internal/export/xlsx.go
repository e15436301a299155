package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/slabcam/internal/nest"
)

// Sheet names of the cut report workbook.
const (
	SummarySheet    = "Summary"
	PlacementsSheet = "Placements"
	CutsSheet       = "Cuts"
)

// ExportCutReport writes a workbook with a summary sheet plus one row per
// placement and one row per linear cut. Sheets without data are omitted.
func ExportCutReport(path string, report Report) error {
	if report.empty() {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	summary := [][]interface{}{
		{"Metric", "Kind", "Utilized", "Kerf", "Trim", "Offcut", "Stock Total", "Efficiency %"},
	}
	if len(report.Layouts) > 0 {
		summary = append(summary, metricsRow("Sheets", nest.SummarizeSheetLayouts(report.Layouts)))
	}
	if len(report.Boards) > 0 {
		summary = append(summary, metricsRow("Boards", nest.SummarizeBoards(report.Boards)))
	}
	if err := writeTable(f, SummarySheet, summary, header); err != nil {
		return err
	}

	if len(report.Layouts) > 0 {
		rows := [][]interface{}{
			{"Sheet", "Stock", "Index", "Part", "X", "Y", "Width", "Height", "Rotated"},
		}
		for i, l := range report.Layouts {
			for _, p := range l.Placements {
				rows = append(rows, []interface{}{i + 1, l.StockID, l.Index, p.PartID, p.X, p.Y, p.Width, p.Height, p.Rotated})
			}
		}
		if err := addSheet(f, PlacementsSheet, rows, header); err != nil {
			return err
		}
	}

	if len(report.Boards) > 0 {
		rows := [][]interface{}{
			{"Board", "Stock", "Index", "Part", "Start", "Length", "End"},
		}
		for i, b := range report.Boards {
			for _, c := range b.Cuts {
				rows = append(rows, []interface{}{i + 1, b.StockID, b.Index, c.PartID, c.Start, c.Length, c.End()})
			}
		}
		if err := addSheet(f, CutsSheet, rows, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func metricsRow(name string, m nest.UtilizationBreakdown) []interface{} {
	kind := "area"
	if m.Kind == nest.MetricLinear {
		kind = "linear"
	}
	return []interface{}{name, kind, m.Utilized, m.KerfLoss, m.TrimLoss, m.OffcutLoss, m.StockTotal, m.Efficiency() * 100}
}

func addSheet(f *excelize.File, name string, rows [][]interface{}, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return writeTable(f, name, rows, headerStyle)
}

// writeTable writes rows from A1 down and styles the first row.
func writeTable(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 14)
}
