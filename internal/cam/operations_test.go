package cam

import (
	"math"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/slabcam/internal/geom"
)

func rectangle(width, height float64) []geom.Point2 {
	return []geom.Point2{geom.Pt(0, 0), geom.Pt(width, 0), geom.Pt(width, height), geom.Pt(0, height)}
}

func mustTool(t *testing.T, d, feed, plunge, rpm float64) Tool {
	t.Helper()
	tool, err := NewTool(d, feed, plunge, rpm)
	require.NoError(t, err)
	return tool
}

// feedXYLength sums planar distances between consecutive feed endpoints.
func feedXYLength(motions []Motion) float64 {
	var (
		total float64
		last  geom.Point3
		have  bool
	)
	for _, m := range motions {
		if m.Kind != MotionFeed {
			continue
		}
		if have {
			total += math.Hypot(m.To.X-last.X, m.To.Y-last.Y)
		}
		last = m.To
		have = true
	}
	return total
}

func feedZs(motions []Motion) []float64 {
	var zs []float64
	for _, m := range motions {
		if m.Kind == MotionFeed {
			zs = append(zs, m.To.Z)
		}
	}
	return zs
}

func TestContour_OutsidePerimeterMatchesOffset(t *testing.T) {
	tool := mustTool(t, 10, 800, 200, 12000)
	linking := NewLinkingSettings(5, 10, tool.PlungeRate)
	for name, boundary := range map[string][]geom.Point2{
		"counter-clockwise": rectangle(40, 40),
		"clockwise":         geom.Reversed(rectangle(40, 40)),
	} {
		op, err := NewContourOperation("square", boundary, geom.Outside, 0, -5, 5,
			OperationSettings{Tool: tool, Linking: linking}, nil)
		require.NoError(t, err, name)

		tp, err := op.Plan()
		require.NoError(t, err, name)
		assert.InDelta(t, 200.0, feedXYLength(tp.Motions), 1e-4, name)
	}
}

func TestContour_TabsLeaveMaterial(t *testing.T) {
	tool := mustTool(t, 6, 600, 180, 10000)
	linking := NewLinkingSettings(6, 12, tool.PlungeRate)
	linking.LeadIn = LinearLead(4)
	linking.LeadOut = LinearLead(4)
	linking.Ramp = LinearRamp(6)
	tabs := []Tab{{Position: 0.25, Width: 6, Height: 1.2}, {Position: 0.75, Width: 6, Height: 1.2}}

	op, err := NewContourOperation("panel", rectangle(80, 80), geom.Inside, 0, -8, 2.5,
		OperationSettings{Tool: tool, Linking: linking}, tabs)
	require.NoError(t, err)

	a, err := op.Plan()
	require.NoError(t, err)
	b, err := op.Plan()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b), "planning is deterministic")

	minZ, maxZ := 0.0, math.Inf(-1)
	for _, z := range feedZs(a.Motions) {
		if z <= 0 {
			minZ = math.Min(minZ, z)
			maxZ = math.Max(maxZ, z)
		}
	}
	assert.InDelta(t, -8.0, minZ, 1e-6)
	assert.Greater(t, maxZ, -7.0)
	assert.Less(t, maxZ, 0.1)
}

func TestContour_FinalPassTabsOnly(t *testing.T) {
	tool := mustTool(t, 10, 800, 200, 12000)
	linking := NewLinkingSettings(5, 10, tool.PlungeRate)
	tabs := []Tab{{Position: 0.5, Width: 20, Height: 2}}
	op, err := NewContourOperation("tabs", rectangle(40, 40), geom.Outside, 0, -6, 3,
		OperationSettings{Tool: tool, Linking: linking}, tabs)
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)

	var finalPass []float64
	for _, z := range feedZs(tp.Motions) {
		if z < 0 {
			finalPass = append(finalPass, z)
		}
	}
	assert.Contains(t, finalPass, -6.0)
	assert.Contains(t, finalPass, -4.0, "tab lifts the final pass")
	assert.Contains(t, finalPass, -3.0)
	assert.NotContains(t, finalPass, -1.0, "first pass is untouched")
}

func TestContour_RapidsStayAtSafeZ(t *testing.T) {
	tool := mustTool(t, 6, 800, 200, 12000)
	linking := NewLinkingSettings(8, 15, tool.PlungeRate)
	linking.Ramp = HelicalRamp(2, 2)
	op, err := NewContourOperation("safe", rectangle(50, 30), geom.Outside, 0, -4, 2,
		OperationSettings{Tool: tool, Linking: linking}, nil)
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)
	for _, m := range tp.Motions {
		if m.Kind == MotionRapid {
			assert.Equal(t, 8.0, m.To.Z)
		}
	}
}

func TestContour_Validation(t *testing.T) {
	settings := OperationSettings{Tool: mustTool(t, 6, 800, 200, 12000), Linking: NewLinkingSettings(5, 10, 200)}

	_, err := NewContourOperation("x", rectangle(10, 10)[:2], geom.Outside, 0, -1, 1, settings, nil)
	assert.EqualError(t, err, "invalid argument: contour boundary requires at least 3 points")

	_, err = NewContourOperation("x", rectangle(10, 10), geom.Outside, 0, -1, 0, settings, nil)
	assert.EqualError(t, err, "invalid argument: stepdown must be positive")

	_, err = NewContourOperation("x", rectangle(10, 10), geom.Outside, 0, 0, 1, settings, nil)
	assert.EqualError(t, err, "invalid argument: target Z must be below top Z")
}

func TestOperations_RejectInvalidTool(t *testing.T) {
	tests := []struct {
		name string
		tool Tool
		want string
	}{
		{"zero diameter", Tool{Diameter: 0, FeedRate: 800, PlungeRate: 200, SpindleRPM: 12000}, "invalid argument: tool diameter must be positive"},
		{"zero feed", Tool{Diameter: 6, PlungeRate: 200, SpindleRPM: 12000}, "invalid argument: feed rate must be positive"},
		{"zero spindle", Tool{Diameter: 6, FeedRate: 800, PlungeRate: 200}, "invalid argument: spindle RPM must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := OperationSettings{Tool: tt.tool, Linking: NewLinkingSettings(5, 10, 200)}

			_, err := NewContourOperation("c", rectangle(20, 20), geom.Outside, 0, -3, 1, settings, nil)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.EqualError(t, err, tt.want)

			_, err = NewPocketOperation("p", rectangle(20, 20), 0, -3, 1, 2, settings)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.EqualError(t, err, tt.want)

			_, err = NewDrillOperation("d", []geom.Point2{geom.Pt(5, 5)}, 0, -3, 5, 0, SimpleCycle(), settings)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestContour_OffsetFailureBubblesUp(t *testing.T) {
	settings := OperationSettings{Tool: mustTool(t, 6, 800, 200, 12000), Linking: NewLinkingSettings(5, 10, 200)}
	boundary := []geom.Point2{geom.Pt(0, 0), geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(10, 10)}

	op, err := NewContourOperation("bad", boundary, geom.Inside, 0, -1, 1, settings, nil)
	require.NoError(t, err)
	_, err = op.Plan()
	assert.ErrorIs(t, err, ErrOffset)
	assert.ErrorIs(t, err, geom.ErrDegenerateEdge)
	assert.EqualError(t, err, "offset error: degenerate edge encountered")
}

func TestPocket_ClearsInsideBoundary(t *testing.T) {
	tool := mustTool(t, 8, 900, 250, 14000)
	linking := NewLinkingSettings(8, 16, tool.PlungeRate)
	op, err := NewPocketOperation("rect", rectangle(60, 40), 0, -6, 3, 4, OperationSettings{Tool: tool, Linking: linking})
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)
	require.False(t, tp.IsEmpty())

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, m := range tp.Motions {
		if m.Kind == MotionFeed && m.To.Z < 0 {
			minX, maxX = math.Min(minX, m.To.X), math.Max(maxX, m.To.X)
			minY, maxY = math.Min(minY, m.To.Y), math.Max(maxY, m.To.Y)
		}
	}
	r := tool.Radius()
	assert.GreaterOrEqual(t, minX, r-1e-6)
	assert.GreaterOrEqual(t, minY, r-1e-6)
	assert.LessOrEqual(t, maxX, 60-r+1e-6)
	assert.LessOrEqual(t, maxY, 40-r+1e-6)
}

func TestPocket_RespectsSafeHeight(t *testing.T) {
	tool := mustTool(t, 10, 700, 220, 12000)
	linking := NewLinkingSettings(12, 20, tool.PlungeRate)
	linking.Ramp = LinearRamp(5)
	op, err := NewPocketOperation("safety", rectangle(50, 30), 0, -5, 2, 4, OperationSettings{Tool: tool, Linking: linking})
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)
	for _, m := range tp.Motions {
		if m.Kind == MotionRapid {
			assert.GreaterOrEqual(t, m.To.Z, tp.SafeZ-1e-6)
		}
	}
}

func TestPocketLoops_Concentric(t *testing.T) {
	loops, err := PocketLoops(rectangle(40, 30), 3, 3)
	require.NoError(t, err)
	require.NotEmpty(t, loops)

	prev := math.Inf(1)
	for _, l := range loops {
		area := math.Abs(geom.PolygonArea(l))
		assert.Less(t, area, prev)
		prev = area
	}
	assert.InDelta(t, 34.0*24.0, math.Abs(geom.PolygonArea(loops[0])), 1e-6)
}

func TestPocketLoops_SquareAndRectangleConverge(t *testing.T) {
	cases := []struct {
		name      string
		boundary  []geom.Point2
		radius    float64
		stepover  float64
		wantLoops int
	}{
		// 34, 29, 24, 19, 14, 9, 4 then the inset collapses
		{"square", rectangle(40, 40), 3, 2.5, 7},
		// 34x14, 29x9, 24x4 then the short side collapses
		{"rectangle", rectangle(40, 20), 3, 2.5, 3},
		// 34x24, 28x18, 22x12, 16x6 then the area vanishes
		{"exact", rectangle(40, 30), 3, 3, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loops, err := PocketLoops(tc.boundary, tc.radius, tc.stepover)
			require.NoError(t, err)
			require.Len(t, loops, tc.wantLoops)

			prev := math.Inf(1)
			for _, l := range loops {
				area := math.Abs(geom.PolygonArea(l))
				assert.Less(t, area, prev)
				assert.Equal(t, geom.CounterClockwise, geom.PolygonOrientation(l))
				prev = area
			}
		})
	}
}

func TestPocket_SquarePlans(t *testing.T) {
	tool := mustTool(t, 6, 900, 250, 14000)
	op, err := NewPocketOperation("square", rectangle(40, 40), 0, -4, 2, 2.5,
		OperationSettings{Tool: tool, Linking: NewLinkingSettings(5, 10, tool.PlungeRate)})
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)
	assert.False(t, tp.IsEmpty())
}

func TestPocket_Errors(t *testing.T) {
	settings := OperationSettings{Tool: mustTool(t, 6, 700, 180, 11000), Linking: NewLinkingSettings(5, 10, 180)}

	_, err := NewPocketOperation("x", rectangle(10, 10), 0, -1, 1, 7, settings)
	assert.EqualError(t, err, "invalid argument: stepover must be <= tool diameter")

	_, err = NewPocketOperation("x", rectangle(10, 10), 0, -1, 1, 0, settings)
	assert.EqualError(t, err, "invalid argument: stepover must be positive")

	_, err = NewPocketOperation("x", rectangle(10, 10)[:2], 0, -1, 1, 1, settings)
	assert.EqualError(t, err, "invalid argument: pocket boundary requires at least three points")

	_, err = PocketLoops(rectangle(6, 6), 2.9996, 1)
	assert.EqualError(t, err, "invalid input: pocket too small for tool")

	// The first inset passes through the middle and comes out turned around
	_, err = PocketLoops(rectangle(6, 6), 4, 1)
	assert.EqualError(t, err, "invalid input: pocket too small for tool")
}

func TestDrill_PeckSequence(t *testing.T) {
	tool := mustTool(t, 5, 400, 180, 9000)
	linking := NewLinkingSettings(6, 10, tool.PlungeRate)
	op, err := NewDrillOperation("holes", []geom.Point2{geom.Pt(0, 0)}, 0, -10, 2, 0.25, PeckCycle(3),
		OperationSettings{Tool: tool, Linking: linking})
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)

	var seq []string
	for _, m := range tp.Motions {
		switch m.Kind {
		case MotionFeed:
			assert.Equal(t, 180.0, m.Feed)
			seq = append(seq, strconv.FormatFloat(m.To.Z, 'f', -1, 64))
		case MotionDwell:
			seq = append(seq, "dwell")
		}
	}
	assert.Equal(t, []string{
		"-3", "dwell", "2",
		"-6", "dwell", "2",
		"-9", "dwell", "2",
		"-10", "dwell", "2",
	}, seq)
}

func TestDrill_SimpleCycle(t *testing.T) {
	tool := mustTool(t, 6, 500, 150, 8000)
	linking := NewLinkingSettings(5, 8, tool.PlungeRate)
	op, err := NewDrillOperation("single", []geom.Point2{geom.Pt(5, 5)}, 1, -4, 2, 0, SimpleCycle(),
		OperationSettings{Tool: tool, Linking: linking})
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)
	assert.Equal(t, []Motion{
		Rapid(geom.Point3{X: 5, Y: 5, Z: 5}),
		Feed(geom.Point3{X: 5, Y: 5, Z: -4}, 150),
		Feed(geom.Point3{X: 5, Y: 5, Z: 2}, 150),
	}, tp.Motions)
}

func TestDrill_MultipleHolesLiftBetween(t *testing.T) {
	tool := mustTool(t, 6, 500, 150, 8000)
	linking := NewLinkingSettings(5, 8, tool.PlungeRate)
	op, err := NewDrillOperation("pair", []geom.Point2{geom.Pt(0, 0), geom.Pt(10, 0)}, 0, -3, 2, 0, SimpleCycle(),
		OperationSettings{Tool: tool, Linking: linking})
	require.NoError(t, err)

	tp, err := op.Plan()
	require.NoError(t, err)
	require.Len(t, tp.Motions, 7)
	assert.Equal(t, Rapid(geom.Point3{X: 0, Y: 0, Z: 5}), tp.Motions[3], "lift from retract height to safe Z")
	assert.Equal(t, Rapid(geom.Point3{X: 10, Y: 0, Z: 5}), tp.Motions[4])
}

func TestDrill_Validation(t *testing.T) {
	settings := OperationSettings{Tool: mustTool(t, 6, 500, 150, 8000), Linking: NewLinkingSettings(5, 8, 150)}
	pts := []geom.Point2{geom.Pt(0, 0)}

	_, err := NewDrillOperation("x", nil, 0, -1, 1, 0, SimpleCycle(), settings)
	assert.EqualError(t, err, "invalid argument: drill operation needs at least one point")
	_, err = NewDrillOperation("x", pts, 0, 0, 1, 0, SimpleCycle(), settings)
	assert.EqualError(t, err, "invalid argument: target Z must be below the surface")
	_, err = NewDrillOperation("x", pts, 0, -1, -0.5, 0, SimpleCycle(), settings)
	assert.EqualError(t, err, "invalid argument: retract height must be above surface")
	_, err = NewDrillOperation("x", pts, 0, -1, 1, 0, PeckCycle(0), settings)
	assert.EqualError(t, err, "invalid argument: peck depth must be positive")
}
