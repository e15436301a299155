package nest

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheetFixture() []SheetStock {
	return []SheetStock{{ID: "sheet-96x48", Width: 2438.4, Height: 1219.2, Quantity: 2}}
}

func overlaps(a, b RectPlacement) bool {
	return a.X < b.X+b.Width-1e-9 && b.X < a.X+a.Width-1e-9 &&
		a.Y < b.Y+b.Height-1e-9 && b.Y < a.Y+a.Height-1e-9
}

// assertLayoutSane checks that placements stay inside the trimmed sheet and
// never overlap.
func assertLayoutSane(t *testing.T, layouts []SheetLayout, stock SheetStock, trim float64) {
	t.Helper()
	for _, l := range layouts {
		for i, p := range l.Placements {
			assert.GreaterOrEqual(t, p.X, trim-1e-9)
			assert.GreaterOrEqual(t, p.Y, trim-1e-9)
			assert.LessOrEqual(t, p.X+p.Width, stock.Width-trim+1e-9)
			assert.LessOrEqual(t, p.Y+p.Height, stock.Height-trim+1e-9)
			for _, q := range l.Placements[i+1:] {
				assert.False(t, overlaps(p, q), "%+v overlaps %+v", p, q)
			}
		}
	}
}

func TestBestFitSheets_RespectsGrain(t *testing.T) {
	parts := []RectPart{{ID: "panel", Width: 4, Height: 1, Quantity: 2, Grain: GrainAlongX}}
	stock := []SheetStock{{ID: "sheet", Width: 5, Height: 3, Quantity: 1}}

	layouts, err := BestFitSheets(parts, stock, PlanarNestConfig{Kerf: 0.1, Seed: 7})
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	for _, p := range layouts[0].Placements {
		assert.False(t, p.Rotated)
	}
}

func TestBestFitSheets_GrainPreventsRotation(t *testing.T) {
	parts := []RectPart{{ID: "panel", Width: 1000, Height: 300, Quantity: 2, Grain: GrainAlongX}}

	layouts, err := BestFitSheets(parts, sheetFixture(), PlanarNestConfig{Kerf: 3, Trim: 6, Seed: 123})
	require.NoError(t, err)
	assert.False(t, layouts[0].Placements[0].Rotated)
	assert.Equal(t, 6.0, layouts[0].Placements[0].X)
	assert.Equal(t, 6.0, layouts[0].Placements[0].Y)
	assertLayoutSane(t, layouts, sheetFixture()[0], 6)
}

func TestBestFitSheets_RotatesWhenOnlyRotationFits(t *testing.T) {
	parts := []RectPart{{ID: "tall", Width: 2, Height: 8, Quantity: 1, Grain: GrainEither}}
	stock := []SheetStock{{ID: "wide", Width: 10, Height: 4, Quantity: 1}}

	layouts, err := BestFitSheets(parts, stock, PlanarNestConfig{})
	require.NoError(t, err)
	p := layouts[0].Placements[0]
	assert.True(t, p.Rotated)
	assert.Equal(t, 8.0, p.Width)
	assert.Equal(t, 2.0, p.Height)

	parts[0].Grain = GrainAlongY
	_, err = BestFitSheets(parts, stock, PlanarNestConfig{})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestBestFitSheets_DeterministicWithSeed(t *testing.T) {
	var parts []RectPart
	for i := 0; i < 6; i++ {
		parts = append(parts, RectPart{ID: fmt.Sprintf("tile-%d", i), Width: 400, Height: 400, Quantity: 1, Grain: GrainEither})
	}
	cfg := PlanarNestConfig{Kerf: 1.5, Trim: 5, Seed: 4}

	a, err := BestFitSheets(parts, sheetFixture(), cfg)
	require.NoError(t, err)
	again, err := BestFitSheets(parts, sheetFixture(), cfg)
	require.NoError(t, err)
	if diff := cmp.Diff(a, again); diff != "" {
		t.Errorf("same seed produced different layouts (-first +second):\n%s", diff)
	}

	// Another seed may only reorder the equal-area tiles
	cfg.Seed = 10
	b, err := BestFitSheets(parts, sheetFixture(), cfg)
	require.NoError(t, err)
	require.Len(t, b, len(a))
	positions := func(ls []SheetLayout) []RectPlacement {
		var out []RectPlacement
		for _, l := range ls {
			for _, p := range l.Placements {
				p.PartID = ""
				out = append(out, p)
			}
		}
		return out
	}
	assert.Equal(t, positions(a), positions(b))
	assertLayoutSane(t, a, sheetFixture()[0], 5)
}

func TestBestFitSheets_UtilizationAccounting(t *testing.T) {
	parts := []RectPart{{ID: "panel", Width: 800, Height: 400, Quantity: 5, Grain: GrainEither}}
	cfg := PlanarNestConfig{Kerf: 1, Trim: 8, Seed: 7}

	layouts, err := BestFitSheets(parts, sheetFixture(), cfg)
	require.NoError(t, err)
	summary := SummarizeSheetLayouts(layouts)

	assert.Equal(t, MetricArea, summary.Kind)
	assert.Greater(t, summary.StockTotal, 0.0)
	assert.InDelta(t, 5*800*400.0, summary.Utilized, 1e-6)
	assert.Greater(t, summary.Efficiency(), 0.25)

	for _, l := range layouts {
		m := l.Metrics
		assert.InDelta(t, m.StockTotal, m.Utilized+m.KerfLoss+m.TrimLoss+m.OffcutLoss, 1e-6)
		assert.InDelta(t, 2*2438.4*8+2*1219.2*8-4*64, m.TrimLoss, 1e-6)
		assert.NotEmpty(t, l.Offcuts)
	}
	assertLayoutSane(t, layouts, sheetFixture()[0], 8)
}

func TestBestFitSheets_OpensSecondSheet(t *testing.T) {
	parts := []RectPart{{ID: "half", Width: 2000, Height: 1000, Quantity: 2, Grain: GrainAlongX}}

	layouts, err := BestFitSheets(parts, sheetFixture(), PlanarNestConfig{Kerf: 3, Trim: 6})
	require.NoError(t, err)
	require.Len(t, layouts, 2)
	assert.Equal(t, 0, layouts[0].Index)
	assert.Equal(t, 1, layouts[1].Index)

	parts[0].Quantity = 3
	_, err = BestFitSheets(parts, sheetFixture(), PlanarNestConfig{Kerf: 3, Trim: 6})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestSkylineSheets_AllowsRotationWhenEither(t *testing.T) {
	parts := []RectPart{{ID: "brace", Width: 300, Height: 600, Quantity: 4, Grain: GrainEither}}

	layouts, err := SkylineSheets(parts, sheetFixture(), PlanarNestConfig{Kerf: 2, Trim: 10, Seed: 99})
	require.NoError(t, err)

	rotated := false
	for _, l := range layouts {
		for _, p := range l.Placements {
			rotated = rotated || p.Rotated
		}
	}
	assert.True(t, rotated)
	assertLayoutSane(t, layouts, sheetFixture()[0], 10)
}

func TestSkylineSheets_ShelvesAndOffcuts(t *testing.T) {
	parts := []RectPart{
		{ID: "tall", Width: 40, Height: 30, Quantity: 1, Grain: GrainAlongX},
		{ID: "short", Width: 30, Height: 20, Quantity: 2, Grain: GrainAlongX},
	}
	stock := []SheetStock{{ID: "s", Width: 100, Height: 100, Quantity: 1}}

	layouts, err := SkylineSheets(parts, stock, PlanarNestConfig{Kerf: 2})
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	l := layouts[0]

	// The second short part does not fit next to the others and opens a shelf
	want := []RectPlacement{
		{PartID: "tall", X: 0, Y: 0, Width: 40, Height: 30},
		{PartID: "short", X: 42, Y: 0, Width: 30, Height: 20},
		{PartID: "short", X: 0, Y: 32, Width: 30, Height: 20},
	}
	assert.Equal(t, want, l.Placements)

	assert.Equal(t, []OffcutRect{
		{X: 72, Y: 0, Width: 28, Height: 30},
		{X: 30, Y: 32, Width: 70, Height: 20},
		{X: 0, Y: 52, Width: 100, Height: 48},
	}, l.Offcuts)
	assert.InDelta(t, 30*2+20*2.0, l.Metrics.KerfLoss, 1e-9)
	assert.InDelta(t, 40*30+2*30*20.0, l.Metrics.Utilized, 1e-9)
}

func TestPlanar_Validation(t *testing.T) {
	ok := []SheetStock{{ID: "s", Width: 10, Height: 10, Quantity: 1}}
	tests := []struct {
		name  string
		parts []RectPart
		stock []SheetStock
		cfg   PlanarNestConfig
		want  string
	}{
		{"zero width", []RectPart{{ID: "p", Width: 0, Height: 1, Quantity: 1}}, ok, PlanarNestConfig{}, "invalid dimensions: part dimensions must be positive"},
		{"zero quantity", []RectPart{{ID: "p", Width: 1, Height: 1}}, ok, PlanarNestConfig{}, "invalid dimensions: part dimensions must be positive"},
		{"bad stock", []RectPart{{ID: "p", Width: 1, Height: 1, Quantity: 1}}, []SheetStock{{ID: "s", Width: 10, Height: 0, Quantity: 1}}, PlanarNestConfig{}, "invalid dimensions: stock dimensions must be positive"},
		{"trim", []RectPart{{ID: "p", Width: 1, Height: 1, Quantity: 1}}, ok, PlanarNestConfig{Trim: 5}, "invalid dimensions: sheet dimensions smaller than trim allowance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BestFitSheets(tt.parts, tt.stock, tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidDimension)
			assert.EqualError(t, err, tt.want)
			_, err = SkylineSheets(tt.parts, tt.stock, tt.cfg)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestPruneFreeRects(t *testing.T) {
	rects := []rect{
		{x: 0, y: 0, w: 10, h: 10},
		{x: 1, y: 1, w: 2, h: 2},
		{x: 5, y: 5, w: 1e-7, h: 3},
		{x: 8, y: 0, w: 5, h: 5},
	}
	got := pruneFreeRects(rects)
	assert.Equal(t, []rect{{x: 0, y: 0, w: 10, h: 10}, {x: 8, y: 0, w: 5, h: 5}}, got)
}

func TestGrainDirection_Text(t *testing.T) {
	g, err := ParseGrain("Horizontal")
	require.NoError(t, err)
	assert.Equal(t, GrainAlongX, g)

	_, err = ParseGrain("diagonal")
	assert.Error(t, err)

	b, err := json.Marshal(RectPart{ID: "p", Width: 1, Height: 2, Quantity: 1, Grain: GrainAlongY})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"grain":"along-y"`)

	var back RectPart
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, GrainAlongY, back.Grain)
}
