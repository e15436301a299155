package cam

import (
	"github.com/piwi3910/slabcam/internal/geom"
)

// ContourOperation cuts along a boundary, offset by the tool radius to the
// inside or outside, in stepped depth passes.
type ContourOperation struct {
	Name     string
	Boundary []geom.Point2
	Side     geom.Side
	TopZ     float64
	TargetZ  float64
	Stepdown float64
	Settings OperationSettings
	Tabs     []Tab
}

// NewContourOperation validates its arguments and returns the operation.
func NewContourOperation(name string, boundary []geom.Point2, side geom.Side, topZ, targetZ, stepdown float64, settings OperationSettings, tabs []Tab) (*ContourOperation, error) {
	op := &ContourOperation{
		Name:     name,
		Boundary: boundary,
		Side:     side,
		TopZ:     topZ,
		TargetZ:  targetZ,
		Stepdown: stepdown,
		Settings: settings,
		Tabs:     tabs,
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

func (op *ContourOperation) Validate() error {
	if err := op.Settings.Tool.Validate(); err != nil {
		return err
	}
	if len(op.Boundary) < 3 {
		return InvalidArgument("contour boundary requires at least 3 points")
	}
	if op.Stepdown <= 0 {
		return InvalidArgument("stepdown must be positive")
	}
	if op.TargetZ >= op.TopZ {
		return InvalidArgument("target Z must be below top Z")
	}
	return nil
}

// Plan builds the toolpath. Tabs are applied on the final pass only.
func (op *ContourOperation) Plan() (*Toolpath, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	tool := op.Settings.Tool
	linking := op.Settings.Linking

	offset, err := geom.Offset(op.Boundary, tool.Radius(), op.Side)
	if err != nil {
		return nil, OffsetFailed(err)
	}

	loop := ApplyLinearLeads(offset, linking.LeadIn, linking.LeadOut)
	if len(loop) < 2 {
		return nil, InvalidInput("contour toolpath requires at least two vertices")
	}
	loop = closeLoop(loop)
	loopLength := geom.PolylineLength(loop, false)

	tp := NewToolpath(op.Name, linking.SafeZ)
	depths := depthPasses(op.TopZ, op.TargetZ, op.Stepdown)

	for pass, depth := range depths {
		next := loop[1]
		startIdx := EntryMoves(tp, loop[0], &next, depth, tool.FeedRate, linking)

		withTabs := pass == len(depths)-1 && len(op.Tabs) > 0
		var distance float64
		prev := loop[startIdx]
		for _, p := range loop[startIdx+1:] {
			distance += prev.DistanceTo(p)
			z := depth
			if withTabs {
				z = DepthWithTabs(distance, loopLength, depth, op.Tabs)
			}
			tp.Push(Feed(p.WithZ(z), tool.FeedRate))
			prev = p
		}

		ExitMoves(tp, loop[len(loop)-1], linking)
	}
	return tp, nil
}

// closeLoop appends the first point when the path does not already end on it.
func closeLoop(points []geom.Point2) []geom.Point2 {
	if len(points) == 0 || points[0] == points[len(points)-1] {
		return points
	}
	return append(points, points[0])
}
