package cam

import (
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
)

const (
	maxPocketLoops   = 256
	minPocketArea    = 1e-4
	minPocketDelta   = 1e-6
	minFirstLoopArea = 1e-6
)

// PocketOperation clears the inside of a boundary with concentric offset
// loops, outermost first, at every depth pass.
type PocketOperation struct {
	Name     string
	Boundary []geom.Point2
	TopZ     float64
	TargetZ  float64
	Stepdown float64
	Stepover float64
	Settings OperationSettings
}

// NewPocketOperation validates its arguments and returns the operation.
func NewPocketOperation(name string, boundary []geom.Point2, topZ, targetZ, stepdown, stepover float64, settings OperationSettings) (*PocketOperation, error) {
	op := &PocketOperation{
		Name:     name,
		Boundary: boundary,
		TopZ:     topZ,
		TargetZ:  targetZ,
		Stepdown: stepdown,
		Stepover: stepover,
		Settings: settings,
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

func (op *PocketOperation) Validate() error {
	if err := op.Settings.Tool.Validate(); err != nil {
		return err
	}
	switch {
	case len(op.Boundary) < 3:
		return InvalidArgument("pocket boundary requires at least three points")
	case op.TargetZ >= op.TopZ:
		return InvalidArgument("target Z must be below top Z")
	case op.Stepdown <= 0:
		return InvalidArgument("stepdown must be positive")
	case op.Stepover <= 0:
		return InvalidArgument("stepover must be positive")
	case op.Stepover > op.Settings.Tool.Diameter:
		return InvalidArgument("stepover must be <= tool diameter")
	}
	return nil
}

// Plan builds the toolpath.
func (op *PocketOperation) Plan() (*Toolpath, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	tool := op.Settings.Tool
	linking := op.Settings.Linking

	loops, err := PocketLoops(op.Boundary, tool.Radius(), op.Stepover)
	if err != nil {
		return nil, err
	}
	if len(loops) == 0 {
		return nil, InvalidInput("failed to produce pocket offsets")
	}

	tp := NewToolpath(op.Name, linking.SafeZ)
	for _, depth := range depthPasses(op.TopZ, op.TargetZ, op.Stepdown) {
		for _, l := range loops {
			loop := closeLoop(ApplyLinearLeads(l, linking.LeadIn, linking.LeadOut))

			next := loop[1]
			startIdx := EntryMoves(tp, loop[0], &next, depth, tool.FeedRate, linking)
			for _, p := range loop[startIdx+1:] {
				tp.Push(Feed(p.WithZ(depth), tool.FeedRate))
			}
			ExitMoves(tp, loop[len(loop)-1], linking)
		}
	}
	return tp, nil
}

// PocketLoops returns the concentric clearing loops, starting one tool
// radius inside the boundary and stepping inward by stepover until the loops
// vanish or stop shrinking. An inset whose winding flips, or whose area is
// not below the previous loop's, or whose edges point backwards, has
// collapsed and ends the sequence.
func PocketLoops(boundary []geom.Point2, radius, stepover float64) ([][]geom.Point2, error) {
	current, flipped, err := geom.OffsetFlipped(boundary, radius, geom.Inside)
	if err != nil {
		return nil, OffsetFailed(err)
	}
	lastArea := math.Abs(geom.PolygonArea(current))
	if flipped || len(current) < 3 || lastArea < minFirstLoopArea || edgesReversed(boundary, current) {
		return nil, InvalidInput("pocket too small for tool")
	}

	loops := [][]geom.Point2{current}
	for i := 0; ; i++ {
		if i >= maxPocketLoops {
			return nil, InvalidInput("pocket offsets failed to converge")
		}
		next, flipped, err := geom.OffsetFlipped(current, stepover, geom.Inside)
		if err != nil || flipped || len(next) < 3 || edgesReversed(current, next) {
			break
		}
		area := math.Abs(geom.PolygonArea(next))
		if area < minPocketArea || lastArea-area < minPocketDelta {
			break
		}
		loops = append(loops, next)
		current = next
		lastArea = area
	}
	return loops, nil
}

// edgesReversed reports whether any edge of an inset runs against the
// matching edge of the loop it was offset from. A square inset past its
// centre comes out rotated half a turn with the winding unchanged.
func edgesReversed(from, inset []geom.Point2) bool {
	n := len(from)
	if len(inset) != n {
		return false
	}
	for i := 0; i < n; i++ {
		a := from[(i+1)%n].Sub(from[i])
		b := inset[(i+1)%n].Sub(inset[i])
		if a.Dot(b) < 0 {
			return true
		}
	}
	return false
}
