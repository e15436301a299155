package cam

import (
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
)

// DrillCycleKind selects between a single plunge and a peck cycle.
type DrillCycleKind int

const (
	DrillSimple DrillCycleKind = iota
	DrillPeck
)

// DrillCycle describes how each hole is drilled. PeckDepth applies to
// DrillPeck only.
type DrillCycle struct {
	Kind      DrillCycleKind
	PeckDepth float64
}

// SimpleCycle drills each hole in one feed.
func SimpleCycle() DrillCycle {
	return DrillCycle{Kind: DrillSimple}
}

// PeckCycle drills in increments of depth, retracting between pecks.
func PeckCycle(depth float64) DrillCycle {
	return DrillCycle{Kind: DrillPeck, PeckDepth: depth}
}

// DrillOperation drills a list of holes. Dwell, when positive, pauses at
// the bottom of every downward feed.
type DrillOperation struct {
	Name     string
	Points   []geom.Point2
	TopZ     float64
	TargetZ  float64
	RetractZ float64
	Dwell    float64
	Cycle    DrillCycle
	Settings OperationSettings
}

// NewDrillOperation validates its arguments and returns the operation.
func NewDrillOperation(name string, points []geom.Point2, topZ, targetZ, retractZ, dwell float64, cycle DrillCycle, settings OperationSettings) (*DrillOperation, error) {
	op := &DrillOperation{
		Name:     name,
		Points:   points,
		TopZ:     topZ,
		TargetZ:  targetZ,
		RetractZ: retractZ,
		Dwell:    dwell,
		Cycle:    cycle,
		Settings: settings,
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

func (op *DrillOperation) Validate() error {
	if err := op.Settings.Tool.Validate(); err != nil {
		return err
	}
	switch {
	case len(op.Points) == 0:
		return InvalidArgument("drill operation needs at least one point")
	case op.TargetZ >= op.TopZ:
		return InvalidArgument("target Z must be below the surface")
	case op.RetractZ < op.TopZ:
		return InvalidArgument("retract height must be above surface")
	case op.Cycle.Kind == DrillPeck && op.Cycle.PeckDepth <= 0:
		return InvalidArgument("peck depth must be positive")
	}
	return nil
}

// Plan builds the toolpath. All vertical moves run at the plunge rate.
func (op *DrillOperation) Plan() (*Toolpath, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	plunge := op.Settings.Tool.PlungeRate
	linking := op.Settings.Linking

	tp := NewToolpath(op.Name, linking.SafeZ)
	for _, p := range op.Points {
		RapidToSafe(tp, p, linking)

		if op.Cycle.Kind != DrillPeck {
			tp.Push(Feed(p.WithZ(op.TargetZ), plunge))
			op.dwell(tp)
			tp.Push(Feed(p.WithZ(op.RetractZ), plunge))
			continue
		}

		current := op.TopZ
		for current > op.TargetZ+geom.Epsilon {
			current = math.Max(current-op.Cycle.PeckDepth, op.TargetZ)
			tp.Push(Feed(p.WithZ(current), plunge))
			op.dwell(tp)
			// No mid-retract once the hole is at depth
			if current > op.TargetZ+geom.Epsilon {
				tp.Push(Feed(p.WithZ(op.RetractZ), plunge))
			}
		}
		tp.Push(Feed(p.WithZ(op.RetractZ), plunge))
	}
	return tp, nil
}

func (op *DrillOperation) dwell(tp *Toolpath) {
	if op.Dwell > 0 {
		tp.Push(Dwell(op.Dwell))
	}
}
