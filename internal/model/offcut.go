package model

import (
	"fmt"
	"sort"

	"github.com/piwi3910/slabcam/internal/nest"
)

// Offcut is a usable remnant left on a sheet after nesting.
type Offcut struct {
	ID         string  `json:"id" yaml:"id"`
	StockID    string  `json:"stock_id" yaml:"stock_id"`       // Which stock entry it came from
	SheetIndex int     `json:"sheet_index" yaml:"sheet_index"` // Index of the sheet within that stock
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
}

func (o Offcut) Area() float64 {
	return o.Width * o.Height
}

// ToSheetStock converts an offcut into a single sheet for a later nesting run.
func (o Offcut) ToSheetStock() nest.SheetStock {
	return nest.SheetStock{
		ID:       fmt.Sprintf("offcut-%s-%s", o.StockID, o.ID),
		Width:    o.Width,
		Height:   o.Height,
		Quantity: 1,
	}
}

// MinOffcutDimension is the minimum width or height (in mm) for a remnant
// to be worth keeping.
const MinOffcutDimension = 50.0

// CollectOffcuts keeps the layout offcuts that are at least minWidth by
// minHeight in either orientation, largest first.
func CollectOffcuts(layouts []nest.SheetLayout, minWidth, minHeight float64) []Offcut {
	var offcuts []Offcut
	for _, l := range layouts {
		for _, r := range l.Offcuts {
			if !keepable(r.Width, r.Height, minWidth, minHeight) {
				continue
			}
			offcuts = append(offcuts, Offcut{
				ID:         newID(),
				StockID:    l.StockID,
				SheetIndex: l.Index,
				X:          r.X,
				Y:          r.Y,
				Width:      r.Width,
				Height:     r.Height,
			})
		}
	}

	sort.SliceStable(offcuts, func(i, j int) bool {
		return offcuts[i].Area() > offcuts[j].Area()
	})
	return offcuts
}

func keepable(w, h, minW, minH float64) bool {
	return (w >= minW && h >= minH) || (h >= minW && w >= minH)
}

// OffcutStock turns offcuts into stock entries.
func OffcutStock(offcuts []Offcut) []nest.SheetStock {
	stock := make([]nest.SheetStock, 0, len(offcuts))
	for _, o := range offcuts {
		stock = append(stock, o.ToSheetStock())
	}
	return stock
}

// TotalOffcutArea returns the total area of all offcuts in square mm.
func TotalOffcutArea(offcuts []Offcut) float64 {
	var total float64
	for _, o := range offcuts {
		total += o.Area()
	}
	return total
}

// BoardOffcut is a reusable length left on a linear board.
type BoardOffcut struct {
	ID         string  `json:"id" yaml:"id"`
	StockID    string  `json:"stock_id" yaml:"stock_id"`
	BoardIndex int     `json:"board_index" yaml:"board_index"`
	Start      float64 `json:"start" yaml:"start"`
	Length     float64 `json:"length" yaml:"length"`
}

// CollectBoardOffcuts keeps board remnants of at least minLength. Leading
// trims are skipped since they are cut off the stock end.
func CollectBoardOffcuts(boards []nest.LinearBoard, minLength float64) []BoardOffcut {
	var out []BoardOffcut
	for _, b := range boards {
		for _, o := range b.Offcuts {
			if o.Start == 0 || o.Length < minLength {
				continue
			}
			out = append(out, BoardOffcut{
				ID:         newID(),
				StockID:    b.StockID,
				BoardIndex: b.Index,
				Start:      o.Start,
				Length:     o.Length,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Length > out[j].Length
	})
	return out
}
