package nest

import (
	"fmt"
	"sort"
	"strings"
)

// GrainDirection restricts how a part may be turned on the sheet. Only
// GrainEither allows a 90 degree rotation.
type GrainDirection int

const (
	GrainAlongX GrainDirection = iota
	GrainAlongY
	GrainEither
)

func (g GrainDirection) String() string {
	switch g {
	case GrainAlongX:
		return "along-x"
	case GrainAlongY:
		return "along-y"
	default:
		return "either"
	}
}

// ParseGrain accepts the names printed by String plus a few common aliases.
func ParseGrain(s string) (GrainDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "either", "none", "any":
		return GrainEither, nil
	case "along-x", "x", "horizontal", "alongx":
		return GrainAlongX, nil
	case "along-y", "y", "vertical", "alongy":
		return GrainAlongY, nil
	}
	return GrainEither, fmt.Errorf("unknown grain direction %q", s)
}

func (g GrainDirection) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *GrainDirection) UnmarshalText(b []byte) error {
	v, err := ParseGrain(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// RectPart is a rectangular cut-list entry.
type RectPart struct {
	ID       string         `json:"id" yaml:"id"`
	Width    float64        `json:"width" yaml:"width"`
	Height   float64        `json:"height" yaml:"height"`
	Quantity int            `json:"quantity" yaml:"quantity"`
	Grain    GrainDirection `json:"grain" yaml:"grain"`
}

// SheetStock is a supply of identical sheets.
type SheetStock struct {
	ID       string  `json:"id" yaml:"id"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Quantity int     `json:"quantity" yaml:"quantity"`
}

// PlanarNestConfig applies Trim to every sheet edge.
type PlanarNestConfig struct {
	Kerf float64 `json:"kerf" yaml:"kerf"`
	Trim float64 `json:"trim" yaml:"trim"`
	Seed uint64  `json:"seed" yaml:"seed"`
}

// RectPlacement is a placed part. Width and Height are as placed, so they are
// swapped relative to the part when Rotated is set.
type RectPlacement struct {
	PartID  string  `json:"part_id" yaml:"part_id"`
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Width   float64 `json:"width" yaml:"width"`
	Height  float64 `json:"height" yaml:"height"`
	Rotated bool    `json:"rotated" yaml:"rotated"`
}

// OffcutRect is an unused rectangle left on a sheet.
type OffcutRect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (o OffcutRect) Area() float64 {
	return o.Width * o.Height
}

// SheetLayout is one consumed sheet.
type SheetLayout struct {
	StockID    string               `json:"stock_id" yaml:"stock_id"`
	Index      int                  `json:"index" yaml:"index"`
	Placements []RectPlacement      `json:"placements" yaml:"placements"`
	Offcuts    []OffcutRect         `json:"offcuts" yaml:"offcuts"`
	Metrics    UtilizationBreakdown `json:"metrics" yaml:"metrics"`
}

type orientation struct {
	w, h    float64
	rotated bool
}

func orientationsFor(part instance) []orientation {
	opts := []orientation{{w: part.width, h: part.height}}
	if part.grain == GrainEither {
		opts = append(opts, orientation{w: part.height, h: part.width, rotated: true})
	}
	return opts
}

// sheetPacker is the per-sheet state shared by the planar strategies.
type sheetPacker interface {
	place(part instance) bool
	finalize() SheetLayout
}

type newPackerFunc func(stock SheetStock, index int, config PlanarNestConfig) (sheetPacker, error)

// packSheets runs the common sheet loop: try every open sheet in order, then
// open the next sheet from stock.
func packSheets(parts []RectPart, stock []SheetStock, config PlanarNestConfig, key func(instance) float64, newPacker newPackerFunc) ([]SheetLayout, error) {
	if err := validatePlanar(parts, stock); err != nil {
		return nil, err
	}

	var instances []instance
	for _, p := range parts {
		for seq := 0; seq < p.Quantity; seq++ {
			instances = append(instances, instance{id: p.ID, seq: seq, width: p.Width, height: p.Height, grain: p.Grain})
		}
	}
	sortInstances(instances, config.Seed, key)

	quantities := make([]int, len(stock))
	for i, s := range stock {
		quantities[i] = s.Quantity
	}
	sup := newSupply(quantities)

	var sheets []sheetPacker
	for _, inst := range instances {
		placed := false
		for _, s := range sheets {
			if s.place(inst) {
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		si, index, err := sup.next()
		if err != nil {
			return nil, err
		}
		s, err := newPacker(stock[si], index, config)
		if err != nil {
			return nil, err
		}
		if !s.place(inst) {
			return nil, ErrInsufficientStock
		}
		sheets = append(sheets, s)
	}

	layouts := make([]SheetLayout, 0, len(sheets))
	for _, s := range sheets {
		layouts = append(layouts, s.finalize())
	}
	sort.SliceStable(layouts, func(i, j int) bool {
		a, b := layouts[i], layouts[j]
		if a.StockID != b.StockID {
			return a.StockID < b.StockID
		}
		return a.Index < b.Index
	})
	return layouts, nil
}

func validatePlanar(parts []RectPart, stock []SheetStock) error {
	for _, p := range parts {
		if p.Width <= 0 || p.Height <= 0 || p.Quantity == 0 {
			return invalidDimension("part dimensions must be positive")
		}
	}
	for _, s := range stock {
		if s.Width <= 0 || s.Height <= 0 || s.Quantity == 0 {
			return invalidDimension("stock dimensions must be positive")
		}
	}
	return nil
}

func checkTrim(stock SheetStock, config PlanarNestConfig) error {
	if stock.Width <= 2*config.Trim || stock.Height <= 2*config.Trim {
		return invalidDimension("sheet dimensions smaller than trim allowance")
	}
	return nil
}

func trimArea(stock SheetStock, trim float64) float64 {
	a := 2*stock.Width*trim + 2*stock.Height*trim - 4*trim*trim
	if a < 0 {
		return 0
	}
	return a
}
