package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/export"
	"github.com/piwi3910/slabcam/internal/importer"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/piwi3910/slabcam/internal/nest"
	"github.com/piwi3910/slabcam/internal/project"
)

// outputs are the optional report files shared by both nest commands.
type outputs struct {
	pdf    string
	labels string
	xlsx   string
	run    string
}

func (o *outputs) register(fs *flag.FlagSet) {
	fs.StringVar(&o.pdf, "pdf", "", "write a layout report PDF")
	fs.StringVar(&o.labels, "labels", "", "write a PDF of QR part labels")
	fs.StringVar(&o.xlsx, "xlsx-out", "", "write an XLSX cut report")
	fs.StringVar(&o.run, "run", "", "save the run as a JSON bundle")
}

func (o outputs) write(report export.Report, run project.Run) error {
	if o.pdf != "" {
		if err := export.ExportLayoutPDF(o.pdf, report); err != nil {
			return fmt.Errorf("pdf: %w", err)
		}
		progress("wrote %s", o.pdf)
	}
	if o.labels != "" {
		if err := export.ExportLabels(o.labels, report); err != nil {
			return fmt.Errorf("labels: %w", err)
		}
		progress("wrote %s", o.labels)
	}
	if o.xlsx != "" {
		if err := export.ExportCutReport(o.xlsx, report); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		progress("wrote %s", o.xlsx)
	}
	if o.run != "" {
		if err := project.ExportRun(o.run, run); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		progress("wrote %s", o.run)
	}
	return nil
}

// loadCutList imports a cut list and fails on any row error.
func loadCutList(path string) (importer.ImportResult, error) {
	result := importer.ImportCutList(path)
	for _, w := range result.Warnings {
		progress("%s", w)
	}
	if len(result.Errors) > 0 {
		return result, errors.New(strings.Join(result.Errors, "; "))
	}
	return result, nil
}

func loadValidSettings(path string) (model.JobSettings, error) {
	settings, err := project.LoadSettings(path)
	if err != nil {
		return settings, err
	}
	return settings, settings.Validate()
}

func runNestLinear(args []string) error {
	fs := flag.NewFlagSet("nest-linear", flag.ContinueOnError)
	csvPath := fs.String("csv", "", "cut list with a length column (csv or xlsx)")
	stockSpecs := fs.StringArray("stock", nil, "board stock as id:length:qty, repeatable")
	configPath := fs.String("config", project.DefaultConfigPath(), "settings file")
	var out outputs
	out.register(fs)
	var invFlags inventoryFlags
	invFlags.register(fs)
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *csvPath == "" || len(*stockSpecs) == 0 {
		return errors.New("--csv and at least one --stock are required")
	}

	settings, err := loadValidSettings(*configPath)
	if err != nil {
		return err
	}
	stock, err := parseAll(*stockSpecs, invFlags.linearStockParser())
	if err != nil {
		return err
	}
	cutList, err := loadCutList(*csvPath)
	if err != nil {
		return err
	}
	if len(cutList.LinearParts) == 0 {
		return errors.New("cut list has no linear parts (it needs a length column and no height column)")
	}

	trim := settings.Nesting.TrimLeading + settings.Nesting.TrimTrailing
	est := model.CalculateBoardEstimate(cutList.LinearParts, stock[0].Length, settings.Nesting.Kerf, trim, purchaseWastePercent)
	progress("estimate: %.0f mm of cuts, %d boards of %.0f mm (%d with %.0f%% waste)",
		est.TotalPartLength, est.BoardsNeededMin, est.BoardLength, est.BoardsWithWaste, est.WastePercent)

	result, err := nest.FirstFitBoards(cutList.LinearParts, stock, settings.LinearConfig())
	if err != nil {
		return err
	}

	for i, b := range result.Boards {
		fmt.Printf("board %d: %s #%d, %d cuts, %.1f%% used\n", i+1, b.StockID, b.Index+1, len(b.Cuts), b.Metrics.Efficiency()*100)
	}
	fmt.Printf("%d boards, efficiency %.1f%%, kerf %.0f mm, offcut %.0f mm\n",
		len(result.Boards), result.Metrics.Efficiency()*100, result.Metrics.KerfLoss, result.Metrics.OffcutLoss)

	offcuts := model.CollectBoardOffcuts(result.Boards, settings.Nesting.MinOffcutWidth)
	progress("%d reusable board offcuts", len(offcuts))

	run := project.NewRun(settings)
	run.Boards = result.Boards
	run.Summary = result.Metrics
	report := export.Report{
		Title:       "Linear Nesting Summary",
		LinearStock: stock,
		Boards:      result.Boards,
		Kerf:        settings.Nesting.Kerf,
	}
	return out.write(report, run)
}

func runNestSheet(args []string) error {
	fs := flag.NewFlagSet("nest-sheet", flag.ContinueOnError)
	csvPath := fs.String("csv", "", "cut list as CSV")
	xlsxPath := fs.String("xlsx", "", "cut list as an Excel workbook")
	stockSpecs := fs.StringArray("stock", nil, "sheet stock as id:WxH:qty, repeatable")
	strategyName := fs.String("strategy", "", "best-fit, skyline or compare (default from settings)")
	configPath := fs.String("config", project.DefaultConfigPath(), "settings file")
	gcodeDir := fs.String("gcode-dir", "", "plan and post one program per sheet into this directory")
	fromRun := fs.String("from-run", "", "offer the offcuts saved in a previous run bundle as extra stock")
	useOffcuts := fs.Bool("use-offcuts", false, "offer the inventory offcuts as extra stock and drop the ones consumed")
	saveOffcuts := fs.Bool("save-offcuts", false, "add the reusable offcuts of this run to the inventory")
	var out outputs
	out.register(fs)
	var invFlags inventoryFlags
	invFlags.register(fs)
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *csvPath
	if path == "" {
		path = *xlsxPath
	}
	if path == "" || len(*stockSpecs) == 0 {
		return errors.New("--csv or --xlsx and at least one --stock are required")
	}

	settings, err := loadValidSettings(*configPath)
	if err != nil {
		return err
	}
	if err := invFlags.applyTool(&settings); err != nil {
		return err
	}
	if *strategyName == "" {
		*strategyName = settings.Nesting.Strategy
	}
	stock, err := parseAll(*stockSpecs, invFlags.sheetStockParser())
	if err != nil {
		return err
	}
	cutList, err := loadCutList(path)
	if err != nil {
		return err
	}
	if len(cutList.Parts) == 0 {
		return errors.New("cut list has no sheet parts")
	}

	logPurchaseEstimate(cutList.Parts, stock[0], settings.Nesting.Kerf, invFlags.inv)

	if *useOffcuts {
		inv, err := invFlags.load()
		if err != nil {
			return err
		}
		stock = append(model.OffcutStock(inv.Offcuts), stock...)
		progress("offering %d inventory offcuts (%.0f mm²)", len(inv.Offcuts), model.TotalOffcutArea(inv.Offcuts))
	}
	if *fromRun != "" {
		prev, err := project.ImportRun(*fromRun)
		if err != nil {
			return err
		}
		stock = append(model.OffcutStock(prev.Offcuts), stock...)
		progress("offering %d offcuts (%.0f mm²) from run %s", len(prev.Offcuts), model.TotalOffcutArea(prev.Offcuts), prev.ID)
	}

	layouts, err := nestSheets(*strategyName, cutList.Parts, stock, settings.PlanarConfig())
	if err != nil {
		return err
	}
	offcuts := model.CollectOffcuts(layouts, settings.Nesting.MinOffcutWidth, settings.Nesting.MinOffcutHeight)

	summary := nest.SummarizeSheetLayouts(layouts)
	for i, l := range layouts {
		fmt.Printf("sheet %d: %s #%d, %d parts, %.1f%% used\n", i+1, l.StockID, l.Index+1, len(l.Placements), l.Metrics.Efficiency()*100)
	}
	fmt.Printf("%d sheets, efficiency %.1f%%, %d reusable offcuts\n", len(layouts), summary.Efficiency()*100, len(offcuts))
	if invFlags.inv != nil {
		if cost, ok := invFlags.inv.LayoutCost(layouts); ok {
			fmt.Printf("stock cost %.2f\n", cost)
		}
	}

	if *useOffcuts || *saveOffcuts {
		inv, err := invFlags.load()
		if err != nil {
			return err
		}
		if *useOffcuts {
			progress("%d inventory offcuts consumed", inv.RemoveOffcuts(layouts))
		}
		if *saveOffcuts {
			progress("%d offcuts added to inventory", inv.AddOffcuts(offcuts))
		}
		if err := invFlags.save(); err != nil {
			return err
		}
	}

	if *gcodeDir != "" {
		if err := postSheets(layouts, settings, *gcodeDir); err != nil {
			return err
		}
	}

	run := project.NewRun(settings)
	run.Layouts = layouts
	run.Offcuts = offcuts
	run.Summary = summary
	report := export.Report{
		Title:   "Sheet Nesting Summary",
		Stock:   stock,
		Layouts: layouts,
		Kerf:    settings.Nesting.Kerf,
		Clamps:  settings.Clamps,
	}
	return out.write(report, run)
}

const purchaseWastePercent = 10.0

// logPurchaseEstimate logs how many sheets of the first stock size the cut
// list needs by area alone. inv supplies the price when loaded.
func logPurchaseEstimate(parts []nest.RectPart, sheet nest.SheetStock, kerf float64, inv *model.Inventory) {
	if !verbose {
		return
	}
	var price float64
	if inv != nil {
		if preset, err := inv.FindSheet(sheet.ID); err == nil {
			price = preset.PricePerSheet
		}
	}
	est := model.CalculatePurchaseEstimate(parts, sheet.Width, sheet.Height, kerf, purchaseWastePercent, price)
	progress("estimate: %.2f m², %.1f board feet, %d sheets of %s (%d with %.0f%% waste)",
		est.TotalPartArea/1e6, est.TotalBoardFeet, est.SheetsNeededMin, sheet.ID, est.SheetsWithWaste, est.WastePercent)
	if est.EstimatedCost > 0 {
		progress("estimated cost %.2f", est.EstimatedCost)
	}
}

// nestSheets runs one strategy, or every strategy when name is "compare"
// and keeps the best.
func nestSheets(name string, parts []nest.RectPart, stock []nest.SheetStock, config nest.PlanarNestConfig) ([]nest.SheetLayout, error) {
	if name != "compare" {
		strategy, err := nest.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		return nest.NestSheets(strategy, parts, stock, config)
	}

	results := nest.CompareStrategies(parts, stock, config)
	for _, r := range results {
		if r.Err != nil {
			progress("%-9s failed: %s", r.Strategy, r.Err)
			continue
		}
		progress("%-9s %d sheets, %d placements, %.1f%% waste", r.Strategy, r.SheetsUsed, r.Placements, r.WastePercent)
	}
	best := results[0]
	if best.Err != nil {
		return nil, best.Err
	}
	progress("using %s", best.Strategy)
	return best.Layouts, nil
}

// postSheets plans a contour toolpath per sheet and posts each through
// postJob, so every sheet program is validated and simulated before it is
// written.
func postSheets(layouts []nest.SheetLayout, settings model.JobSettings, dir string) error {
	job, err := settings.SheetJob()
	if err != nil {
		return err
	}
	tool := job.Settings.Tool
	for i, l := range layouts {
		if len(l.Placements) == 0 {
			continue
		}
		tp, err := cam.PlanSheet(l, job)
		if err != nil {
			return fmt.Errorf("sheet %d: %w", i+1, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("sheet_%02d_%s.nc", i+1, l.StockID))
		sheet := camJob{name: fmt.Sprintf("sheet %d", i+1), tp: tp}
		if err := postJob(sheet, tool, settings, path); err != nil {
			return fmt.Errorf("sheet %d: %w", i+1, err)
		}
	}
	return nil
}
