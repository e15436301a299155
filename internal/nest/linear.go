package nest

import "sort"

// LinearPart is a cut-list entry for one-dimensional stock.
type LinearPart struct {
	ID       string  `json:"id" yaml:"id"`
	Length   float64 `json:"length" yaml:"length"`
	Quantity int     `json:"quantity" yaml:"quantity"`
}

// LinearStock is a supply of boards of the same length.
type LinearStock struct {
	ID       string  `json:"id" yaml:"id"`
	Length   float64 `json:"length" yaml:"length"`
	Quantity int     `json:"quantity" yaml:"quantity"`
}

// LinearNestConfig controls kerf, end trims and the ordering seed.
type LinearNestConfig struct {
	Kerf         float64 `json:"kerf" yaml:"kerf"`
	TrimLeading  float64 `json:"trim_leading" yaml:"trim_leading"`
	TrimTrailing float64 `json:"trim_trailing" yaml:"trim_trailing"`
	Seed         uint64  `json:"seed" yaml:"seed"`
}

// LinearCut is a part placed at Start along a board.
type LinearCut struct {
	PartID string  `json:"part_id" yaml:"part_id"`
	Start  float64 `json:"start" yaml:"start"`
	Length float64 `json:"length" yaml:"length"`
}

// End is the position right after the cut.
func (c LinearCut) End() float64 {
	return c.Start + c.Length
}

// LinearOffcut is an unused span of a board.
type LinearOffcut struct {
	Start  float64 `json:"start" yaml:"start"`
	Length float64 `json:"length" yaml:"length"`
}

// LinearBoard is one consumed board with its cuts. Index counts boards of the
// same stock entry from zero.
type LinearBoard struct {
	StockID string               `json:"stock_id" yaml:"stock_id"`
	Index   int                  `json:"index" yaml:"index"`
	Cuts    []LinearCut          `json:"cuts" yaml:"cuts"`
	Offcuts []LinearOffcut       `json:"offcuts" yaml:"offcuts"`
	Metrics UtilizationBreakdown `json:"metrics" yaml:"metrics"`
}

// LinearNestResult holds the boards and their aggregated metrics.
type LinearNestResult struct {
	Boards  []LinearBoard        `json:"boards" yaml:"boards"`
	Metrics UtilizationBreakdown `json:"metrics" yaml:"metrics"`
}

type boardState struct {
	stock  LinearStock
	index  int
	cursor float64
	cuts   []LinearCut
	config LinearNestConfig
}

func newBoardState(stock LinearStock, index int, config LinearNestConfig) (*boardState, error) {
	if stock.Length <= config.TrimLeading+config.TrimTrailing {
		return nil, invalidDimension("stock length smaller than trim allowance")
	}
	return &boardState{stock: stock, index: index, cursor: config.TrimLeading, config: config}, nil
}

func (b *boardState) available() float64 {
	return b.stock.Length - b.cursor - b.config.TrimTrailing
}

func (b *boardState) canPlace(length float64) bool {
	if length <= 0 {
		return false
	}
	if len(b.cuts) == 0 {
		return length <= b.available()+1e-9
	}
	return length+b.config.Kerf <= b.available()+1e-9
}

func (b *boardState) place(part instance) error {
	if !b.canPlace(part.length) {
		return ErrInsufficientStock
	}
	if len(b.cuts) > 0 {
		b.cursor += b.config.Kerf
	}
	b.cuts = append(b.cuts, LinearCut{PartID: part.id, Start: b.cursor, Length: part.length})
	b.cursor += part.length
	return nil
}

func (b *boardState) finalize() LinearBoard {
	m := UtilizationBreakdown{Kind: MetricLinear, StockTotal: b.stock.Length}
	m.TrimLoss = b.config.TrimLeading + b.config.TrimTrailing
	if n := len(b.cuts); n > 1 {
		m.KerfLoss = float64(n-1) * b.config.Kerf
	}
	for _, c := range b.cuts {
		m.Utilized += c.Length
	}
	if rest := m.StockTotal - (m.Utilized + m.KerfLoss + m.TrimLoss); rest > 0 {
		m.OffcutLoss = rest
	}

	return LinearBoard{
		StockID: b.stock.ID,
		Index:   b.index,
		Cuts:    b.cuts,
		Offcuts: b.offcuts(m.OffcutLoss),
		Metrics: m,
	}
}

// offcuts lists the leading trim, then the tail after the last cut or the
// whole usable length of an empty board.
func (b *boardState) offcuts(tail float64) []LinearOffcut {
	var out []LinearOffcut
	if b.config.TrimLeading > 0 {
		out = append(out, LinearOffcut{Start: 0, Length: b.config.TrimLeading})
	}
	if n := len(b.cuts); n > 0 {
		if tail > 1e-9 {
			out = append(out, LinearOffcut{Start: b.cuts[n-1].End(), Length: tail})
		}
	} else if usable := b.stock.Length - b.config.TrimLeading - b.config.TrimTrailing; usable > 1e-9 {
		out = append(out, LinearOffcut{Start: b.config.TrimLeading, Length: usable})
	}
	return out
}

// FirstFitBoards packs parts onto boards first-fit decreasing by length.
// Boards are taken from stock in list order and returned sorted by stock ID
// then index.
func FirstFitBoards(parts []LinearPart, stock []LinearStock, config LinearNestConfig) (*LinearNestResult, error) {
	if err := validateLinear(parts, stock); err != nil {
		return nil, err
	}

	var instances []instance
	for _, p := range parts {
		for seq := 0; seq < p.Quantity; seq++ {
			instances = append(instances, instance{id: p.ID, seq: seq, length: p.Length})
		}
	}
	sortInstances(instances, config.Seed, func(i instance) float64 { return i.length })

	quantities := make([]int, len(stock))
	for i, s := range stock {
		quantities[i] = s.Quantity
	}
	sup := newSupply(quantities)

	var boards []*boardState
	for _, inst := range instances {
		placed := false
		for _, b := range boards {
			if b.canPlace(inst.length) {
				if err := b.place(inst); err != nil {
					return nil, err
				}
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
		b, err := newBoardState(stock[si], index, config)
		if err != nil {
			return nil, err
		}
		if err := b.place(inst); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}

	result := &LinearNestResult{Boards: make([]LinearBoard, 0, len(boards))}
	for _, b := range boards {
		result.Boards = append(result.Boards, b.finalize())
	}
	sort.SliceStable(result.Boards, func(i, j int) bool {
		a, b := result.Boards[i], result.Boards[j]
		if a.StockID != b.StockID {
			return a.StockID < b.StockID
		}
		return a.Index < b.Index
	})
	result.Metrics = SummarizeBoards(result.Boards)
	return result, nil
}

func validateLinear(parts []LinearPart, stock []LinearStock) error {
	for _, p := range parts {
		if p.Length <= 0 {
			return invalidDimension("part length must be positive")
		}
	}
	for _, s := range stock {
		if s.Length <= 0 {
			return invalidDimension("stock length must be positive")
		}
	}
	return nil
}
