// Package export writes nesting and machining results to files: a PDF layout
// report, QR-coded part labels, an XLSX cut report and NC programs.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/nest"
)

// ErrNothingToExport is returned when a report holds no sheets and no boards.
var ErrNothingToExport = errors.New("nothing to export")

// Report is the input of the layout exports. Stock entries are looked up by
// the StockID of each layout or board.
type Report struct {
	Title       string
	Stock       []nest.SheetStock
	Layouts     []nest.SheetLayout
	LinearStock []nest.LinearStock
	Boards      []nest.LinearBoard
	Kerf        float64
	Clamps      []cam.ClampZone
}

func (r Report) empty() bool {
	return len(r.Layouts) == 0 && len(r.Boards) == 0
}

func (r Report) sheetStock(id string) (nest.SheetStock, error) {
	for _, s := range r.Stock {
		if s.ID == id {
			return s, nil
		}
	}
	return nest.SheetStock{}, fmt.Errorf("layout references unknown stock %q", id)
}

func (r Report) boardStock(id string) (nest.LinearStock, error) {
	for _, s := range r.LinearStock {
		if s.ID == id {
			return s, nil
		}
	}
	return nest.LinearStock{}, fmt.Errorf("board references unknown stock %q", id)
}

// partColor represents an RGB color for a placed part.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0

	boardsPerPage = 8
	boardBarGap   = 6.0
)

// ExportLayoutPDF renders every sheet layout on its own page, the linear
// boards on as many pages as needed and a summary page.
func ExportLayoutPDF(path string, report Report) error {
	if report.empty() {
		return ErrNothingToExport
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, layout := range report.Layouts {
		stock, err := report.sheetStock(layout.StockID)
		if err != nil {
			return err
		}
		pdf.AddPage()
		renderSheetPage(pdf, layout, stock, report.Clamps, i+1)
	}

	for start := 0; start < len(report.Boards); start += boardsPerPage {
		end := min(start+boardsPerPage, len(report.Boards))
		pdf.AddPage()
		if err := renderBoardPage(pdf, report, start, end); err != nil {
			return err
		}
	}

	pdf.AddPage()
	renderSummaryPage(pdf, report)

	return pdf.OutputFileAndClose(path)
}

// renderSheetPage draws a single sheet layout on the current PDF page.
func renderSheetPage(pdf *fpdf.Fpdf, layout nest.SheetLayout, stock nest.SheetStock, clamps []cam.ClampZone, sheetNum int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d: %s #%d (%.0f x %.0f mm)", sheetNum, stock.ID, layout.Index+1, stock.Width, stock.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	m := layout.Metrics
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Parts: %d | Used area: %.0f mm² | Kerf: %.0f mm² | Offcuts: %d | Efficiency: %.1f%%",
		len(layout.Placements), m.Utilized, m.KerfLoss, len(layout.Offcuts), m.Efficiency()*100)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	scale := math.Min(drawWidth/stock.Width, drawHeight/stock.Height)

	canvasW := stock.Width * scale
	canvasH := stock.Height * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	// Sheet origin is bottom-left; the page origin is top-left
	toPage := func(x, y, h float64) (float64, float64) {
		return offsetX + x*scale, offsetY + canvasH - (y+h)*scale
	}

	pdf.SetFillColor(210, 180, 140)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for _, o := range layout.Offcuts {
		ox, oy := toPage(o.X, o.Y, o.Height)
		pdf.SetFillColor(235, 225, 200)
		pdf.SetDrawColor(160, 140, 100)
		pdf.SetLineWidth(0.2)
		pdf.Rect(ox, oy, o.Width*scale, o.Height*scale, "FD")
	}

	drawClampZones(pdf, clamps, stock, scale, toPage)

	for i, p := range layout.Placements {
		col := partColors[i%len(partColors)]
		pw := p.Width * scale
		ph := p.Height * scale
		px, py := toPage(p.X, p.Y, p.Height)

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Rect(px, py, pw, ph, "FD")

		if pw > 15 && ph > 8 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)

			dims := fmt.Sprintf("%.0fx%.0f", p.Width, p.Height)
			labelW := pdf.GetStringWidth(p.PartID)
			dimsW := pdf.GetStringWidth(dims)

			if labelW < pw-2 {
				pdf.SetXY(px+(pw-labelW)/2, py+ph/2-4)
				pdf.CellFormat(labelW, 4, p.PartID, "", 0, "C", false, 0, "")
			}
			if ph > 14 && dimsW < pw-2 {
				pdf.SetXY(px+(pw-dimsW)/2, py+ph/2)
				pdf.CellFormat(dimsW, 4, dims, "", 0, "C", false, 0, "")
			}
		}
	}

	drawDimensionAnnotations(pdf, stock, offsetX, offsetY, canvasW, canvasH)
	drawPartsLegend(pdf, layout, offsetY+canvasH+5)
}

// drawClampZones renders the parts of fixtures that overlap the sheet.
func drawClampZones(pdf *fpdf.Fpdf, clamps []cam.ClampZone, stock nest.SheetStock, scale float64, toPage func(x, y, h float64) (float64, float64)) {
	for _, c := range clamps {
		x0, y0 := math.Max(c.X, 0), math.Max(c.Y, 0)
		x1, y1 := math.Min(c.X+c.Width, stock.Width), math.Min(c.Y+c.Height, stock.Height)
		if x1 <= x0 || y1 <= y0 {
			continue
		}

		zx, zy := toPage(x0, y0, y1-y0)
		zw := (x1 - x0) * scale
		zh := (y1 - y0) * scale

		pdf.SetFillColor(255, 200, 200)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Rect(zx, zy, zw, zh, "FD")
		drawHatchPattern(pdf, zx, zy, zw, zh)

		if zw > 20 && zh > 8 {
			text := "NO CUT"
			if c.Label != "" {
				text = c.Label
			}
			pdf.SetFont("Helvetica", "B", 6)
			pdf.SetTextColor(180, 0, 0)
			labelW := pdf.GetStringWidth(text)
			pdf.SetXY(zx+(zw-labelW)/2, zy+zh/2-2)
			pdf.CellFormat(labelW, 4, text, "", 0, "C", false, 0, "")
		}
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to indicate exclusion zones.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	for d := spacing; d < w+h; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)
		pdf.Line(x1, y1, x2, y2)
	}
}

// drawDimensionAnnotations adds width and height labels outside the sheet rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, stock nest.SheetStock, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", stock.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.0f mm", stock.Height)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawPartsLegend renders a compact legend of placed parts below the sheet.
func drawPartsLegend(pdf *fpdf.Fpdf, layout nest.SheetLayout, startY float64) {
	if len(layout.Placements) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Parts placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, p := range layout.Placements {
		col := partColors[i%len(partColors)]
		label := fmt.Sprintf("%s (%.0fx%.0f)", p.PartID, p.Width, p.Height)
		if p.Rotated {
			label += " R"
		}
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderBoardPage draws boards [start, end) as horizontal bars, all at the
// scale of the longest board on the page.
func renderBoardPage(pdf *fpdf.Fpdf, report Report, start, end int) error {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Linear Boards %d-%d of %d", start+1, end, len(report.Boards))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	stocks := make([]nest.LinearStock, 0, end-start)
	longest := 0.0
	for _, b := range report.Boards[start:end] {
		s, err := report.boardStock(b.StockID)
		if err != nil {
			return err
		}
		stocks = append(stocks, s)
		longest = math.Max(longest, s.Length)
	}

	drawWidth := pageWidth - marginLeft - marginRight
	scale := drawWidth / longest
	barH := (pageHeight - drawAreaTop - marginBottom - float64(boardsPerPage)*boardBarGap) / boardsPerPage
	y := drawAreaTop

	for i, b := range report.Boards[start:end] {
		stock := stocks[i]

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(marginLeft, y)
		caption := fmt.Sprintf("%s #%d (%.0f mm) | Cuts: %d | Efficiency: %.1f%%",
			stock.ID, b.Index+1, stock.Length, len(b.Cuts), b.Metrics.Efficiency()*100)
		pdf.CellFormat(drawWidth, 4, caption, "", 0, "L", false, 0, "")
		y += 4

		pdf.SetFillColor(210, 180, 140)
		pdf.SetDrawColor(100, 100, 100)
		pdf.SetLineWidth(0.3)
		pdf.Rect(marginLeft, y, stock.Length*scale, barH, "FD")

		for _, o := range b.Offcuts {
			ox, ow := marginLeft+o.Start*scale, o.Length*scale
			pdf.SetFillColor(235, 225, 200)
			pdf.Rect(ox, y, ow, barH, "FD")
			drawHatchPattern(pdf, ox, y, ow, barH)
		}

		pdf.SetFont("Helvetica", "", 6)
		for j, c := range b.Cuts {
			col := partColors[j%len(partColors)]
			cx, cw := marginLeft+c.Start*scale, c.Length*scale
			pdf.SetFillColor(col.R, col.G, col.B)
			pdf.SetDrawColor(30, 30, 30)
			pdf.Rect(cx, y, cw, barH, "FD")

			label := fmt.Sprintf("%s %.0f", c.PartID, c.Length)
			if lw := pdf.GetStringWidth(label); lw < cw-1 {
				pdf.SetXY(cx+(cw-lw)/2, y+barH/2-2)
				pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
			}
		}

		y += barH + boardBarGap - 4
	}
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, report Report) {
	title := report.Title
	if title == "" {
		title = "Nesting Summary"
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, title, "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Sheets Used", fmt.Sprintf("%d", len(report.Layouts))},
		{"Parts Placed", fmt.Sprintf("%d", countPlacements(report.Layouts))},
		{"Boards Used", fmt.Sprintf("%d", len(report.Boards))},
		{"Cuts", fmt.Sprintf("%d", countCuts(report.Boards))},
		{"Kerf", fmt.Sprintf("%.1f mm", report.Kerf)},
	}
	if len(report.Layouts) > 0 {
		sheets := nest.SummarizeSheetLayouts(report.Layouts)
		summaryItems = append(summaryItems, struct{ label, value string }{
			"Sheet Efficiency", fmt.Sprintf("%.1f%%", sheets.Efficiency()*100),
		})
	}
	if len(report.Boards) > 0 {
		boards := nest.SummarizeBoards(report.Boards)
		summaryItems = append(summaryItems, struct{ label, value string }{
			"Board Efficiency", fmt.Sprintf("%.1f%%", boards.Efficiency()*100),
		})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	if len(report.Layouts) > 0 {
		rows := make([][]string, 0, len(report.Layouts))
		for i, l := range report.Layouts {
			rows = append(rows, breakdownRow(fmt.Sprintf("%d", i+1), l.StockID, len(l.Placements), l.Metrics))
		}
		y = drawBreakdownTable(pdf, "Sheet Breakdown (mm²)", "Parts", rows, y)
	}
	if len(report.Boards) > 0 {
		rows := make([][]string, 0, len(report.Boards))
		for i, b := range report.Boards {
			rows = append(rows, breakdownRow(fmt.Sprintf("%d", i+1), b.StockID, len(b.Cuts), b.Metrics))
		}
		drawBreakdownTable(pdf, "Board Breakdown (mm)", "Cuts", rows, y)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by slabcam", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func breakdownRow(num, stockID string, count int, m nest.UtilizationBreakdown) []string {
	return []string{
		num,
		stockID,
		fmt.Sprintf("%d", count),
		fmt.Sprintf("%.0f", m.Utilized),
		fmt.Sprintf("%.0f", m.KerfLoss),
		fmt.Sprintf("%.0f", m.TrimLoss),
		fmt.Sprintf("%.0f", m.OffcutLoss),
		fmt.Sprintf("%.1f%%", m.Efficiency()*100),
	}
}

// drawBreakdownTable draws a titled table of breakdownRow rows and returns
// the Y position below it. Rows past the bottom margin are dropped.
func drawBreakdownTable(pdf *fpdf.Fpdf, title, countHeader string, rows [][]string, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{15, 55, 25, 35, 30, 30, 35, 30}
	headers := []string{"#", "Stock", countHeader, "Utilized", "Kerf", "Trim", "Offcut", "Efficiency"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, row := range rows {
		if y > pageHeight-marginBottom-12 {
			break
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}
	return y + 8
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

func countPlacements(layouts []nest.SheetLayout) int {
	total := 0
	for _, l := range layouts {
		total += len(l.Placements)
	}
	return total
}

func countCuts(boards []nest.LinearBoard) int {
	total := 0
	for _, b := range boards {
		total += len(b.Cuts)
	}
	return total
}
