package nest

import "math"

type shelf struct {
	y         float64
	height    float64
	cursor    float64
	remaining float64
}

// skylinePacker stacks horizontal shelves from the bottom trim upward.
type skylinePacker struct {
	stock      SheetStock
	index      int
	config     PlanarNestConfig
	shelves    []shelf
	placements []RectPlacement
}

func newSkylinePacker(stock SheetStock, index int, config PlanarNestConfig) (sheetPacker, error) {
	if err := checkTrim(stock, config); err != nil {
		return nil, err
	}
	return &skylinePacker{stock: stock, index: index, config: config}, nil
}

func (p *skylinePacker) usable() (w, h float64) {
	return p.stock.Width - 2*p.config.Trim, p.stock.Height - 2*p.config.Trim
}

// needed is the width a part takes on a shelf, including the kerf to its
// left when the shelf already holds a part.
func (p *skylinePacker) needed(s shelf, w float64) float64 {
	if s.cursor > p.config.Trim {
		return w + p.config.Kerf
	}
	return w
}

func (p *skylinePacker) fits(s shelf, o orientation) bool {
	return p.needed(s, o.w) <= s.remaining+1e-9 && o.h <= s.height+1e-9
}

// place uses the shelf leaving the least width behind, or opens a new one.
func (p *skylinePacker) place(part instance) bool {
	bestIdx := -1
	var best orientation
	bestScore := math.MaxFloat64
	for i, s := range p.shelves {
		for _, o := range orientationsFor(part) {
			if !p.fits(s, o) {
				continue
			}
			if score := s.remaining - p.needed(s, o.w); score < bestScore {
				bestIdx, best, bestScore = i, o, score
			}
		}
	}
	if bestIdx >= 0 {
		return p.placeOnShelf(bestIdx, part, best)
	}
	return p.openShelf(part)
}

// placeOnShelf picks the orientation for the part. The preferred one wins
// whenever it fits, otherwise the one leaving less width.
func (p *skylinePacker) placeOnShelf(idx int, part instance, preferred orientation) bool {
	s := &p.shelves[idx]
	isPreferred := func(o orientation) bool {
		return o.w == preferred.w && o.h == preferred.h
	}

	var (
		chosen orientation
		found  bool
	)
	for _, o := range orientationsFor(part) {
		if !p.fits(*s, o) {
			continue
		}
		if !found {
			chosen, found = o, true
			continue
		}
		var take bool
		switch {
		case isPreferred(o) && !isPreferred(chosen):
			take = true
		case isPreferred(chosen) && !isPreferred(o):
		default:
			take = s.remaining-p.needed(*s, o.w)+1e-9 < s.remaining-p.needed(*s, chosen.w)
		}
		if take {
			chosen = o
		}
	}
	if !found {
		return false
	}

	if s.cursor > p.config.Trim {
		s.cursor += p.config.Kerf
		s.remaining -= p.config.Kerf
	}
	p.placements = append(p.placements, RectPlacement{
		PartID:  part.id,
		X:       s.cursor,
		Y:       s.y,
		Width:   chosen.w,
		Height:  chosen.h,
		Rotated: chosen.rotated,
	})
	s.cursor += chosen.w
	s.remaining -= chosen.w
	return true
}

// openShelf starts a shelf above the last one, as tall as the part.
func (p *skylinePacker) openShelf(part instance) bool {
	uw, uh := p.usable()
	nextY := p.config.Trim
	if n := len(p.shelves); n > 0 {
		last := p.shelves[n-1]
		nextY = last.y + last.height + p.config.Kerf
	}
	for _, o := range orientationsFor(part) {
		if o.w <= uw+1e-9 && nextY+o.h <= p.config.Trim+uh+1e-9 {
			p.shelves = append(p.shelves, shelf{y: nextY, height: o.h, cursor: p.config.Trim, remaining: uw})
			return p.placeOnShelf(len(p.shelves)-1, part, o)
		}
	}
	return false
}

func (p *skylinePacker) finalize() SheetLayout {
	m := UtilizationBreakdown{Kind: MetricArea, StockTotal: p.stock.Width * p.stock.Height}
	for _, pl := range p.placements {
		m.Utilized += pl.Width * pl.Height
	}
	for _, s := range p.shelves {
		if s.cursor > p.config.Trim {
			m.KerfLoss += math.Max(s.height*p.config.Kerf, 0)
		}
	}
	t := p.config.Trim
	m.TrimLoss = trimArea(p.stock, t)

	var offcuts []OffcutRect
	for _, s := range p.shelves {
		if s.remaining > 1e-9 {
			offcuts = append(offcuts, OffcutRect{X: s.cursor, Y: s.y, Width: s.remaining, Height: s.height})
		}
	}
	_, uh := p.usable()
	var used float64
	if n := len(p.shelves); n > 0 {
		used = p.shelves[n-1].y + p.shelves[n-1].height - t
	}
	if uh-used > 1e-9 {
		offcuts = append(offcuts, OffcutRect{X: t, Y: t + used, Width: p.stock.Width - 2*t, Height: uh - used})
	}

	for _, o := range offcuts {
		m.OffcutLoss += o.Area()
	}
	if m.Utilized+m.KerfLoss+m.TrimLoss+m.OffcutLoss > m.StockTotal+1e-6 {
		m.OffcutLoss = math.Max(m.StockTotal-(m.Utilized+m.KerfLoss+m.TrimLoss), 0)
	}

	return SheetLayout{
		StockID:    p.stock.ID,
		Index:      p.index,
		Placements: p.placements,
		Offcuts:    offcuts,
		Metrics:    m,
	}
}

// SkylineSheets packs parts tallest first onto shelves. Sheets are taken
// from stock in list order and returned sorted by stock ID then index.
func SkylineSheets(parts []RectPart, stock []SheetStock, config PlanarNestConfig) ([]SheetLayout, error) {
	return packSheets(parts, stock, config, func(i instance) float64 { return i.height }, newSkylinePacker)
}
