package nest

import "fmt"

// Strategy names a planar packer.
type Strategy string

const (
	StrategyBestFit Strategy = "best-fit"
	StrategySkyline Strategy = "skyline"
)

// ParseStrategy maps a CLI or config name to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyBestFit, StrategySkyline:
		return Strategy(s), nil
	case "bestfit", "best_fit":
		return StrategyBestFit, nil
	}
	return "", fmt.Errorf("unknown nesting strategy %q", s)
}

// NestSheets dispatches to the packer for strategy.
func NestSheets(strategy Strategy, parts []RectPart, stock []SheetStock, config PlanarNestConfig) ([]SheetLayout, error) {
	switch strategy {
	case StrategyBestFit:
		return BestFitSheets(parts, stock, config)
	case StrategySkyline:
		return SkylineSheets(parts, stock, config)
	}
	return nil, fmt.Errorf("unknown nesting strategy %q", strategy)
}

// ComparisonResult holds the layouts and statistics of one strategy. Err is
// set when the strategy could not place every part.
type ComparisonResult struct {
	Strategy     Strategy
	Layouts      []SheetLayout
	Summary      UtilizationBreakdown
	SheetsUsed   int
	Placements   int
	WastePercent float64
	Err          error
}

// CompareStrategies runs every planar strategy on the same input and returns
// one result per strategy, best first: successful runs before failures, then
// higher efficiency, then fewer sheets.
func CompareStrategies(parts []RectPart, stock []SheetStock, config PlanarNestConfig) []ComparisonResult {
	strategies := []Strategy{StrategyBestFit, StrategySkyline}
	results := make([]ComparisonResult, 0, len(strategies))

	for _, s := range strategies {
		layouts, err := NestSheets(s, parts, stock, config)
		r := ComparisonResult{Strategy: s, Err: err}
		if err == nil {
			r.Layouts = layouts
			r.Summary = SummarizeSheetLayouts(layouts)
			r.SheetsUsed = len(layouts)
			for _, l := range layouts {
				r.Placements += len(l.Placements)
			}
			r.WastePercent = 100 * (1 - r.Summary.Efficiency())
		}
		results = append(results, r)
	}

	// Stable insertion keeps best-fit first on a full tie
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && betterResult(results[j], results[j-1]); j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}

func betterResult(a, b ComparisonResult) bool {
	if (a.Err == nil) != (b.Err == nil) {
		return a.Err == nil
	}
	ea, eb := a.Summary.Efficiency(), b.Summary.Efficiency()
	if ea-eb > 1e-9 || eb-ea > 1e-9 {
		return ea > eb
	}
	return a.SheetsUsed < b.SheetsUsed
}
