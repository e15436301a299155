package nest

import "math"

type rect struct {
	x, y, w, h float64
}

func (r rect) area() float64 {
	return r.w * r.h
}

func (r rect) canFit(w, h float64) bool {
	return w <= r.w+1e-9 && h <= r.h+1e-9
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner rect) bool {
	return inner.x >= outer.x-1e-9 && inner.y >= outer.y-1e-9 &&
		inner.x+inner.w <= outer.x+outer.w+1e-9 &&
		inner.y+inner.h <= outer.y+outer.h+1e-9
}

// pruneFreeRects drops slivers and any rect contained in another. The
// removal order is fixed so layouts stay reproducible.
func pruneFreeRects(rects []rect) []rect {
	kept := rects[:0]
	for _, r := range rects {
		if r.w > 1e-6 && r.h > 1e-6 {
			kept = append(kept, r)
		}
	}
	rects = kept

	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); {
			switch {
			case containsRect(rects[i], rects[j]):
				rects = swapRemove(rects, j)
			case containsRect(rects[j], rects[i]):
				rects[i], rects[j] = rects[j], rects[i]
				rects = swapRemove(rects, j)
			default:
				j++
			}
		}
	}
	return rects
}

func swapRemove(rects []rect, i int) []rect {
	last := len(rects) - 1
	rects[i] = rects[last]
	return rects[:last]
}

// bestFitPacker keeps a list of free rectangles and places each part in the
// one it fills best.
type bestFitPacker struct {
	stock      SheetStock
	index      int
	config     PlanarNestConfig
	freeRects  []rect
	placements []RectPlacement
}

func newBestFitPacker(stock SheetStock, index int, config PlanarNestConfig) (sheetPacker, error) {
	if err := checkTrim(stock, config); err != nil {
		return nil, err
	}
	usable := rect{
		x: config.Trim,
		y: config.Trim,
		w: stock.Width - 2*config.Trim,
		h: stock.Height - 2*config.Trim,
	}
	return &bestFitPacker{stock: stock, index: index, config: config, freeRects: []rect{usable}}, nil
}

// place scores every fitting (free rect, orientation) pair by wasted area,
// then by the summed edge differences, and commits the lowest.
func (p *bestFitPacker) place(part instance) bool {
	bestIdx := -1
	var (
		best      orientation
		bestWaste float64
		bestEdge  float64
	)
	for i, r := range p.freeRects {
		for _, o := range orientationsFor(part) {
			if !r.canFit(o.w, o.h) {
				continue
			}
			waste := r.area() - o.w*o.h
			edge := math.Abs(r.w-o.w) + math.Abs(r.h-o.h)
			if bestIdx < 0 || waste < bestWaste || (math.Abs(waste-bestWaste) < 1e-9 && edge < bestEdge) {
				bestIdx, best, bestWaste, bestEdge = i, o, waste, edge
			}
		}
	}
	if bestIdx < 0 {
		return false
	}
	p.commit(bestIdx, part, best)
	return true
}

// commit splits the chosen rect into a full-height strip to the right of the
// part and a strip above it no wider than the part plus kerf.
func (p *bestFitPacker) commit(idx int, part instance, o orientation) {
	r := p.freeRects[idx]
	p.freeRects = swapRemove(p.freeRects, idx)

	p.placements = append(p.placements, RectPlacement{
		PartID:  part.id,
		X:       r.x,
		Y:       r.y,
		Width:   o.w,
		Height:  o.h,
		Rotated: o.rotated,
	})

	kerf := p.config.Kerf
	if rw := r.w - o.w - kerf; rw > 1e-9 {
		p.freeRects = append(p.freeRects, rect{x: r.x + o.w + kerf, y: r.y, w: rw, h: r.h})
	}
	if th := r.h - o.h - kerf; th > 1e-9 {
		p.freeRects = append(p.freeRects, rect{x: r.x, y: r.y + o.h + kerf, w: math.Min(o.w+kerf, r.w), h: th})
	}
	p.freeRects = pruneFreeRects(p.freeRects)
}

func (p *bestFitPacker) finalize() SheetLayout {
	p.freeRects = pruneFreeRects(p.freeRects)

	m := UtilizationBreakdown{Kind: MetricArea, StockTotal: p.stock.Width * p.stock.Height}
	m.TrimLoss = trimArea(p.stock, p.config.Trim)
	for _, pl := range p.placements {
		m.Utilized += pl.Width * pl.Height
		m.KerfLoss += (pl.Width + pl.Height) * p.config.Kerf
	}
	m.OffcutLoss = math.Max(m.StockTotal-(m.Utilized+m.KerfLoss+m.TrimLoss), 0)

	offcuts := make([]OffcutRect, 0, len(p.freeRects))
	for _, r := range p.freeRects {
		offcuts = append(offcuts, OffcutRect{X: r.x, Y: r.y, Width: r.w, Height: r.h})
	}
	return SheetLayout{
		StockID:    p.stock.ID,
		Index:      p.index,
		Placements: p.placements,
		Offcuts:    offcuts,
		Metrics:    m,
	}
}

// BestFitSheets packs parts largest area first into free rectangles. Sheets
// are taken from stock in list order and returned sorted by stock ID then
// index.
func BestFitSheets(parts []RectPart, stock []SheetStock, config PlanarNestConfig) ([]SheetLayout, error) {
	return packSheets(parts, stock, config, func(i instance) float64 { return i.width * i.height }, newBestFitPacker)
}
