package nest

import "math"

// MetricKind tells whether a breakdown is measured in length or area.
type MetricKind int

const (
	MetricLinear MetricKind = iota
	MetricArea
)

func (k MetricKind) String() string {
	if k == MetricArea {
		return "area"
	}
	return "linear"
}

// UtilizationBreakdown splits a stock total into used material and the
// different kinds of loss.
type UtilizationBreakdown struct {
	Kind       MetricKind `json:"kind" yaml:"kind"`
	Utilized   float64    `json:"utilized" yaml:"utilized"`
	KerfLoss   float64    `json:"kerf_loss" yaml:"kerf_loss"`
	TrimLoss   float64    `json:"trim_loss" yaml:"trim_loss"`
	OffcutLoss float64    `json:"offcut_loss" yaml:"offcut_loss"`
	StockTotal float64    `json:"stock_total" yaml:"stock_total"`
}

// Efficiency returns Utilized / StockTotal clamped to [0, 1]. An empty
// breakdown counts as fully efficient.
func (u UtilizationBreakdown) Efficiency() float64 {
	if u.StockTotal <= 2.220446049250313e-16 {
		return 1
	}
	return math.Min(math.Max(u.Utilized/u.StockTotal, 0), 1)
}

// Waste is everything that is not utilized.
func (u UtilizationBreakdown) Waste() float64 {
	return u.KerfLoss + u.TrimLoss + u.OffcutLoss
}

func (u *UtilizationBreakdown) add(o UtilizationBreakdown) {
	u.Utilized += o.Utilized
	u.KerfLoss += o.KerfLoss
	u.TrimLoss += o.TrimLoss
	u.OffcutLoss += o.OffcutLoss
	u.StockTotal += o.StockTotal
}

// SummarizeBoards aggregates the metrics of linear boards.
func SummarizeBoards(boards []LinearBoard) UtilizationBreakdown {
	agg := UtilizationBreakdown{Kind: MetricLinear}
	for _, b := range boards {
		agg.add(b.Metrics)
	}
	return agg
}

// SummarizeSheetLayouts aggregates the metrics of planar layouts.
func SummarizeSheetLayouts(layouts []SheetLayout) UtilizationBreakdown {
	agg := UtilizationBreakdown{Kind: MetricArea}
	for _, l := range layouts {
		agg.add(l.Metrics)
	}
	return agg
}
