package geom

import (
	"errors"
	"math"
)

// Offset failures.
var (
	ErrTooFewPoints     = errors.New("polygon has fewer than three points")
	ErrDegenerateEdge   = errors.New("degenerate edge encountered")
	ErrSelfIntersection = errors.New("offset introduced self-intersection")
)

// Side selects the direction of an offset relative to the polygon interior.
type Side int

const (
	Outside Side = iota
	Inside
)

func (s Side) String() string {
	if s == Inside {
		return "inside"
	}
	return "outside"
}

// ParseSide converts "inside"/"outside" into a Side, defaulting to Outside.
func ParseSide(s string) Side {
	if s == "inside" || s == "in" {
		return Inside
	}
	return Outside
}

// signedDistance is the distance the edges move along their outward
// normals. The normal already follows the winding, so only the side sets the
// sign and Outside grows the shape for either orientation.
func signedDistance(side Side, d float64) float64 {
	if side == Inside {
		return -d
	}
	return d
}

// Offset moves every edge of the closed polygon by distance along its normal,
// outward for Outside and inward for Inside. Each offset vertex is the
// intersection of its two neighbouring displaced edges. The result keeps the
// orientation of the input.
func Offset(points []Point2, distance float64, side Side) ([]Point2, error) {
	out, _, err := OffsetFlipped(points, distance, side)
	return out, err
}

// OffsetFlipped is Offset that also reports whether the raw result had the
// opposite winding before it was reversed. An inset that flips has collapsed
// through itself.
func OffsetFlipped(points []Point2, distance float64, side Side) ([]Point2, bool, error) {
	n := len(points)
	if n < 3 {
		return nil, false, ErrTooFewPoints
	}

	orient := PolygonOrientation(points)
	s := signedDistance(side, distance)
	if math.Abs(s) < Epsilon {
		out := make([]Point2, n)
		copy(out, points)
		return out, false, nil
	}

	normal := func(dir Vec2) Vec2 {
		if orient == CounterClockwise {
			return dir.PerpCW().Normalize()
		}
		return dir.PerpCCW().Normalize()
	}

	out := make([]Point2, 0, n)
	for i := 0; i < n; i++ {
		prev := points[(i+n-1)%n]
		curr := points[i]
		next := points[(i+1)%n]

		e1 := curr.Sub(prev)
		e2 := next.Sub(curr)
		l1 := e1.Length()
		l2 := e2.Length()
		if l1 < Epsilon || l2 < Epsilon {
			return nil, false, ErrDegenerateEdge
		}

		n1 := normal(e1.Scale(1 / l1))
		n2 := normal(e2.Scale(1 / l2))

		a1 := prev.Add(n1.Scale(s))
		a2 := curr.Add(n1.Scale(s))
		b1 := curr.Add(n2.Scale(s))
		b2 := next.Add(n2.Scale(s))

		if p, ok := LinesIntersection(a1, a2, b1, b2); ok {
			out = append(out, p)
			continue
		}

		// Collinear edges: push the vertex along the averaged normal
		combined := n1.Add(n2)
		if combined.Length() < Epsilon {
			combined = n1
		}
		out = append(out, curr.Add(combined.Normalize().Scale(s)))
	}

	if HasSelfIntersections(out) {
		return nil, false, ErrSelfIntersection
	}
	if PolygonOrientation(out) != orient {
		return Reversed(out), true, nil
	}
	return out, false, nil
}
