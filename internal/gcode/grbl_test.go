package gcode

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/geom"
)

func testTool(t *testing.T) cam.Tool {
	t.Helper()
	tool, err := cam.NewTool(6, 800, 200, 12000)
	require.NoError(t, err)
	return tool
}

func square(size float64) []geom.Point2 {
	return []geom.Point2{geom.Pt(0, 0), geom.Pt(size, 0), geom.Pt(size, size), geom.Pt(0, size)}
}

func TestWriteProgram_HeaderAndFooter(t *testing.T) {
	tp := cam.NewToolpath("outline", 5)
	tp.Push(cam.Rapid(geom.Point3{X: 10, Y: 10, Z: 5}))
	tp.Push(cam.Feed(geom.Point3{X: 10, Y: 10, Z: -1}, 200))
	tp.Push(cam.Dwell(0.25))

	code, err := WriteProgram(tp, testTool(t))
	require.NoError(t, err)

	lines := strings.Split(code, "\n")
	assert.Equal(t, []string{
		"G21 G90 G94",
		"(outline)",
		"M3 S12000",
		"G0 X10 Y10 Z5",
		"G1 Z-1 F200",
		"G4 P0.25",
		"G0 Z5",
		"X0 Y0",
		"M5",
		"M2",
	}, lines)
	assert.NoError(t, Validate(code))
}

func TestWriteProgram_NameWithCommentDelimiters(t *testing.T) {
	tests := []struct {
		name    string
		comment string
	}{
		{"shelf (left)", "(shelf left)"},
		{"side)", "(side)"},
		{"a\nb", "(a b)"},
		{"top\r\n(M2)", "(top  M2)"},
	}
	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			tp := cam.NewToolpath(tt.name, 5)
			tp.Push(cam.Rapid(geom.Point3{X: 10, Y: 10, Z: 5}))

			code, err := WriteProgram(tp, testTool(t))
			require.NoError(t, err)
			lines := strings.Split(code, "\n")
			assert.Equal(t, tt.comment, lines[1])
			assert.NoError(t, Validate(code))
		})
	}
}

func TestWriteProgram_CustomHome(t *testing.T) {
	tp := cam.NewToolpath("home", 5)
	tp.Push(cam.Rapid(geom.Point3{X: 100, Y: 50, Z: 5}))

	code, err := WriteProgramWithConfig(tp, testTool(t), GrblConfig{HomeX: 100, HomeY: 50})
	require.NoError(t, err)
	assert.NotContains(t, code, "X0 Y0", "already at home")
	assert.True(t, strings.HasSuffix(code, "M5\nM2"))
}

func TestWriteProgram_Errors(t *testing.T) {
	_, err := WriteProgram(cam.NewToolpath("empty", 5), testTool(t))
	assert.EqualError(t, err, "invalid input: toolpath must contain at least one motion")

	tp := cam.NewToolpath("bad", 5)
	tp.Push(cam.Rapid(geom.Point3{Z: 5}))
	_, err = WriteProgram(tp, cam.Tool{Diameter: 6, FeedRate: 1, PlungeRate: 1})
	assert.ErrorIs(t, err, cam.ErrInvalidArgument)
}

func TestContourPipeline(t *testing.T) {
	tool := testTool(t)
	linking := cam.NewLinkingSettings(5, 10, tool.PlungeRate)
	op, err := cam.NewContourOperation("outline", square(50), geom.Outside, 0, -6, 3,
		cam.OperationSettings{Tool: tool, Linking: linking}, nil)
	require.NoError(t, err)
	tp, err := op.Plan()
	require.NoError(t, err)

	report, err := cam.Simulate(tp, cam.SimulationSettings{SafeZ: 5, MinZ: -6})
	require.NoError(t, err)
	assert.True(t, report.IsOK())

	code, err := WriteProgram(tp, tool)
	require.NoError(t, err)
	require.NoError(t, Validate(code))
	assert.Contains(t, code, "Z-6")

	summary := Summarize(ReadProgram(code))
	assert.InDelta(t, -6.0, summary.MinZ, 1e-9)
	assert.Greater(t, summary.CutLength, 2*4*50.0)
}

func TestPocketPipeline(t *testing.T) {
	tool := testTool(t)
	linking := cam.NewLinkingSettings(5, 10, tool.PlungeRate)
	linking.Ramp = cam.HelicalRamp(2, 1)
	op, err := cam.NewPocketOperation("pocket", square(40), 0, -4, 2, 2.5,
		cam.OperationSettings{Tool: tool, Linking: linking})
	require.NoError(t, err)
	tp, err := op.Plan()
	require.NoError(t, err)

	code, err := WriteProgram(tp, tool)
	require.NoError(t, err)
	assert.NoError(t, Validate(code))
}

// The reader sees the same positions the toolpath visits, minus moves the
// writer dropped because they did not change anything.
func TestReadProgram_RoundTrip(t *testing.T) {
	tool := testTool(t)
	linking := cam.NewLinkingSettings(5, 10, tool.PlungeRate)
	op, err := cam.NewDrillOperation("holes", []geom.Point2{geom.Pt(10, 10), geom.Pt(30, 12.5)}, 0, -8, 2, 0.2,
		cam.PeckCycle(3), cam.OperationSettings{Tool: tool, Linking: linking})
	require.NoError(t, err)
	tp, err := op.Plan()
	require.NoError(t, err)

	code, err := WriteProgram(tp, tool)
	require.NoError(t, err)

	back := ToToolpath("holes", tp.SafeZ, ReadProgram(code))
	want := dedupe(positions(tp))
	got := dedupe(positions(back))
	require.GreaterOrEqual(t, len(got), len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-3)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-3)
		assert.InDelta(t, want[i].Z, got[i].Z, 1e-3)
	}
}

func positions(tp *cam.Toolpath) []geom.Point3 {
	var out []geom.Point3
	for _, m := range tp.Motions {
		if m.Kind != cam.MotionDwell {
			out = append(out, m.To)
		}
	}
	return out
}

func dedupe(points []geom.Point3) []geom.Point3 {
	var out []geom.Point3
	for _, p := range points {
		if n := len(out); n > 0 {
			q := out[n-1]
			if math.Abs(p.X-q.X) < 1e-6 && math.Abs(p.Y-q.Y) < 1e-6 && math.Abs(p.Z-q.Z) < 1e-6 {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
