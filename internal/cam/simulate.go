package cam

import (
	"fmt"

	"github.com/piwi3910/slabcam/internal/geom"
)

// SimulationSettings bounds the Z envelope a toolpath may use.
type SimulationSettings struct {
	SafeZ float64
	MinZ  float64
}

// CollisionReason classifies a simulator finding.
type CollisionReason int

const (
	RapidBelowSafe CollisionReason = iota
	BelowMinimumZ
)

func (r CollisionReason) String() string {
	if r == BelowMinimumZ {
		return "below minimum Z"
	}
	return "rapid below safe Z"
}

// Collision records the motion at which an envelope violation happened.
type Collision struct {
	MotionIndex int             `json:"motion_index"`
	Position    geom.Point3     `json:"position"`
	Reason      CollisionReason `json:"reason"`
}

func (c Collision) String() string {
	return fmt.Sprintf("motion %d at %s: %s", c.MotionIndex, c.Position, c.Reason)
}

// SimulationReport lists every violation found.
type SimulationReport struct {
	Collisions []Collision `json:"collisions"`
}

// IsOK reports whether the toolpath stayed within its envelope.
func (r SimulationReport) IsOK() bool {
	return len(r.Collisions) == 0
}

// Simulate walks the toolpath from (0, 0, SafeZ) and checks every rapid
// against safe Z and every feed against the minimum Z. Dwells are ignored.
// Only an empty toolpath is an error; violations go into the report.
func Simulate(tp *Toolpath, settings SimulationSettings) (SimulationReport, error) {
	if tp == nil || tp.IsEmpty() {
		return SimulationReport{}, InvalidInput("toolpath must contain at least one motion")
	}

	var report SimulationReport
	position := geom.Point3{Z: settings.SafeZ}
	for i, m := range tp.Motions {
		switch m.Kind {
		case MotionRapid:
			if m.To.Z+positionTolerance < settings.SafeZ {
				report.Collisions = append(report.Collisions, Collision{MotionIndex: i, Position: m.To, Reason: RapidBelowSafe})
			}
			position = m.To
		case MotionFeed:
			if m.To.Z+positionTolerance < settings.MinZ {
				report.Collisions = append(report.Collisions, Collision{MotionIndex: i, Position: m.To, Reason: BelowMinimumZ})
			}
			// Entering the feed already too deep blames the previous motion
			if position.Z+positionTolerance < settings.MinZ {
				prev := i - 1
				if prev < 0 {
					prev = 0
				}
				report.Collisions = append(report.Collisions, Collision{MotionIndex: prev, Position: position, Reason: BelowMinimumZ})
			}
			position = m.To
		}
	}
	return report, nil
}
