package cam

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/piwi3910/slabcam/internal/geom"
)

// MotionKind distinguishes the alternatives of a Motion.
type MotionKind int

const (
	MotionRapid MotionKind = iota
	MotionFeed
	MotionDwell
)

func (k MotionKind) String() string {
	switch k {
	case MotionRapid:
		return "rapid"
	case MotionFeed:
		return "feed"
	case MotionDwell:
		return "dwell"
	default:
		return "unknown"
	}
}

// Motion is a single machine move. To is meaningful for rapids and feeds,
// Feed only for feeds, Seconds only for dwells.
type Motion struct {
	Kind    MotionKind  `json:"kind"`
	To      geom.Point3 `json:"to"`
	Feed    float64     `json:"feed,omitempty"`
	Seconds float64     `json:"seconds,omitempty"`
}

// Rapid builds a rapid traverse to the given point.
func Rapid(to geom.Point3) Motion {
	return Motion{Kind: MotionRapid, To: to}
}

// Feed builds a cutting move at the given feed rate in mm/min.
func Feed(to geom.Point3, feed float64) Motion {
	return Motion{Kind: MotionFeed, To: to, Feed: feed}
}

// Dwell builds a pause of the given length in seconds.
func Dwell(seconds float64) Motion {
	return Motion{Kind: MotionDwell, Seconds: seconds}
}

// Toolpath is an ordered list of motions for one operation. Planners build
// it; the post and the simulator only read it.
type Toolpath struct {
	Name    string   `json:"name"`
	SafeZ   float64  `json:"safe_z"`
	Motions []Motion `json:"motions"`
}

// NewToolpath returns an empty toolpath.
func NewToolpath(name string, safeZ float64) *Toolpath {
	return &Toolpath{Name: name, SafeZ: safeZ}
}

// Push appends a motion.
func (tp *Toolpath) Push(m Motion) {
	tp.Motions = append(tp.Motions, m)
}

// Append copies all motions of other onto tp.
func (tp *Toolpath) Append(other *Toolpath) {
	tp.Motions = append(tp.Motions, other.Motions...)
}

func (tp *Toolpath) Len() int {
	return len(tp.Motions)
}

func (tp *Toolpath) IsEmpty() bool {
	return len(tp.Motions) == 0
}

// LastPosition returns the end point of the last rapid or feed. Dwells do
// not move the tool. The boolean is false when no such motion exists.
func (tp *Toolpath) LastPosition() (geom.Point3, bool) {
	for i := len(tp.Motions) - 1; i >= 0; i-- {
		if tp.Motions[i].Kind != MotionDwell {
			return tp.Motions[i].To, true
		}
	}
	return geom.Point3{}, false
}

// TotalLength sums the 3D distance between successive motion endpoints,
// starting from the first rapid or feed.
func (tp *Toolpath) TotalLength() float64 {
	var (
		total float64
		last  r3.Vec
		have  bool
	)
	for _, m := range tp.Motions {
		if m.Kind == MotionDwell {
			continue
		}
		p := toR3(m.To)
		if have {
			total += r3.Norm(r3.Sub(p, last))
		}
		last = p
		have = true
	}
	return total
}

// FeedLengthXY sums the planar length of all feed moves, measured from the
// previous motion endpoint.
func (tp *Toolpath) FeedLengthXY() float64 {
	var (
		total float64
		last  geom.Point3
		have  bool
	)
	for _, m := range tp.Motions {
		if m.Kind == MotionDwell {
			continue
		}
		if have && m.Kind == MotionFeed {
			total += m.To.XY().DistanceTo(last.XY())
		}
		last = m.To
		have = true
	}
	return total
}

func (tp *Toolpath) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Toolpath: %s (safe Z = %.3f)\n", tp.Name, tp.SafeZ)
	for _, m := range tp.Motions {
		switch m.Kind {
		case MotionRapid:
			fmt.Fprintf(&b, "  RAPID -> X%.3f Y%.3f Z%.3f\n", m.To.X, m.To.Y, m.To.Z)
		case MotionFeed:
			fmt.Fprintf(&b, "  FEED  -> X%.3f Y%.3f Z%.3f F%.1f\n", m.To.X, m.To.Y, m.To.Z, m.Feed)
		case MotionDwell:
			fmt.Fprintf(&b, "  DWELL %.3fs\n", m.Seconds)
		}
	}
	return b.String()
}

// ToolState is a snapshot of the active feed and spindle speed.
type ToolState struct {
	Feed       float64
	SpindleRPM float64
}

func toR3(p geom.Point3) r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}
