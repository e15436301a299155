package model

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/piwi3910/slabcam/internal/nest"
)

// ToolProfile is a saved cutter configuration.
type ToolProfile struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Diameter   float64 `json:"diameter"`
	FeedRate   float64 `json:"feed_rate"`
	PlungeRate float64 `json:"plunge_rate"`
	SpindleRPM float64 `json:"spindle_rpm"`
	Stepdown   float64 `json:"stepdown"`
}

// NewToolProfile creates a new ToolProfile with a generated ID.
func NewToolProfile(name string, diameter, feedRate, plungeRate, spindleRPM, stepdown float64) ToolProfile {
	return ToolProfile{
		ID:         newID(),
		Name:       name,
		Diameter:   diameter,
		FeedRate:   feedRate,
		PlungeRate: plungeRate,
		SpindleRPM: spindleRPM,
		Stepdown:   stepdown,
	}
}

// ApplyTo copies the cutter into s. A zero stepdown keeps the configured one.
func (tp ToolProfile) ApplyTo(s *JobSettings) {
	s.Tool = ToolSettings{
		Diameter:   tp.Diameter,
		FeedRate:   tp.FeedRate,
		PlungeRate: tp.PlungeRate,
		SpindleRPM: tp.SpindleRPM,
	}
	if tp.Stepdown > 0 {
		s.Machining.Stepdown = tp.Stepdown
	}
}

// StockPreset is a saved sheet size.
type StockPreset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Material      string  `json:"material"`
	PricePerSheet float64 `json:"price_per_sheet,omitempty"`
}

// NewStockPreset creates a new StockPreset with a generated ID.
func NewStockPreset(name string, width, height float64, material string) StockPreset {
	return NewStockPresetWithPrice(name, width, height, material, 0)
}

// NewStockPresetWithPrice creates a new StockPreset with a price per sheet.
func NewStockPresetWithPrice(name string, width, height float64, material string, price float64) StockPreset {
	return StockPreset{
		ID:            newID(),
		Name:          name,
		Width:         width,
		Height:        height,
		Material:      material,
		PricePerSheet: price,
	}
}

// ToSheetStock converts the preset into nesting stock keyed by the preset ID.
func (sp StockPreset) ToSheetStock(qty int) nest.SheetStock {
	return nest.SheetStock{ID: sp.ID, Width: sp.Width, Height: sp.Height, Quantity: qty}
}

// BoardPreset is a saved board length.
type BoardPreset struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Length   float64 `json:"length"`
	Material string  `json:"material"`
}

// NewBoardPreset creates a new BoardPreset with a generated ID.
func NewBoardPreset(name string, length float64, material string) BoardPreset {
	return BoardPreset{ID: newID(), Name: name, Length: length, Material: material}
}

// ToLinearStock converts the preset into nesting stock keyed by the preset ID.
func (bp BoardPreset) ToLinearStock(qty int) nest.LinearStock {
	return nest.LinearStock{ID: bp.ID, Length: bp.Length, Quantity: qty}
}

// Inventory holds the saved tools, stock sizes and the offcuts kept from
// earlier runs.
type Inventory struct {
	Tools   []ToolProfile `json:"tools"`
	Sheets  []StockPreset `json:"sheets"`
	Boards  []BoardPreset `json:"boards"`
	Offcuts []Offcut      `json:"offcuts,omitempty"`
}

// DefaultInventory returns an inventory populated with common defaults.
func DefaultInventory() Inventory {
	return Inventory{
		Tools: []ToolProfile{
			NewToolProfile("6mm End Mill", 6.0, 1500, 500, 18000, 6.0),
			NewToolProfile("3mm End Mill", 3.0, 1000, 300, 20000, 3.0),
			NewToolProfile("1/4\" End Mill (6.35mm)", 6.35, 1500, 500, 18000, 6.0),
			NewToolProfile("1/8\" End Mill (3.175mm)", 3.175, 800, 250, 22000, 3.0),
		},
		Sheets: []StockPreset{
			NewStockPreset("Plywood 2440x1220 (8'x4')", 2440, 1220, "Plywood"),
			NewStockPreset("MDF 2440x1220 (8'x4')", 2440, 1220, "MDF"),
			NewStockPreset("MDF 1220x610 (4'x2')", 1220, 610, "MDF"),
			NewStockPreset("Plywood 1220x610 (4'x2')", 1220, 610, "Plywood"),
		},
		Boards: []BoardPreset{
			NewBoardPreset("Pine 2400", 2400, "Pine"),
			NewBoardPreset("Oak 1800", 1800, "Oak"),
			NewBoardPreset("Aluminium extrusion 3000", 3000, "Aluminium"),
		},
	}
}

// FindTool looks a tool up by ID, then by name.
func (inv *Inventory) FindTool(key string) (ToolProfile, error) {
	for _, t := range inv.Tools {
		if t.ID == key || t.Name == key {
			return t, nil
		}
	}
	return ToolProfile{}, fmt.Errorf("no tool %q in inventory", key)
}

// FindSheet looks a sheet preset up by ID, then by name.
func (inv *Inventory) FindSheet(key string) (StockPreset, error) {
	for _, s := range inv.Sheets {
		if s.ID == key || s.Name == key {
			return s, nil
		}
	}
	return StockPreset{}, fmt.Errorf("no sheet %q in inventory", key)
}

// FindBoard looks a board preset up by ID, then by name.
func (inv *Inventory) FindBoard(key string) (BoardPreset, error) {
	for _, b := range inv.Boards {
		if b.ID == key || b.Name == key {
			return b, nil
		}
	}
	return BoardPreset{}, fmt.Errorf("no board %q in inventory", key)
}

// AddOffcuts stores offcuts, skipping IDs already present.
func (inv *Inventory) AddOffcuts(offcuts []Offcut) int {
	seen := make(map[string]bool, len(inv.Offcuts))
	for _, o := range inv.Offcuts {
		seen[o.ID] = true
	}
	added := 0
	for _, o := range offcuts {
		if seen[o.ID] {
			continue
		}
		inv.Offcuts = append(inv.Offcuts, o)
		seen[o.ID] = true
		added++
	}
	return added
}

// RemoveOffcuts drops the offcuts whose stock IDs were consumed by a layout.
// It returns how many were removed.
func (inv *Inventory) RemoveOffcuts(layouts []nest.SheetLayout) int {
	used := make(map[string]bool)
	for _, l := range layouts {
		used[l.StockID] = true
	}
	kept := inv.Offcuts[:0]
	for _, o := range inv.Offcuts {
		if !used[o.ToSheetStock().ID] {
			kept = append(kept, o)
		}
	}
	removed := len(inv.Offcuts) - len(kept)
	inv.Offcuts = kept
	return removed
}

// LayoutCost sums the preset price of every sheet a layout uses. The boolean
// is false when none of the used stock carries a price.
func (inv *Inventory) LayoutCost(layouts []nest.SheetLayout) (float64, bool) {
	prices := make(map[string]float64, len(inv.Sheets))
	for _, s := range inv.Sheets {
		prices[s.ID] = s.PricePerSheet
	}
	var total float64
	priced := false
	for _, l := range layouts {
		if p := prices[l.StockID]; p > 0 {
			total += p
			priced = true
		}
	}
	return total, priced
}

func newID() string {
	return uuid.New().String()[:8]
}
