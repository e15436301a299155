package geom

import "math"

// Orientation is the winding direction of a closed polygon.
type Orientation int

const (
	CounterClockwise Orientation = iota
	Clockwise
)

func (o Orientation) String() string {
	if o == Clockwise {
		return "CW"
	}
	return "CCW"
}

// PolygonArea returns the signed shoelace area. Polygons with fewer than
// three points have zero area.
func PolygonArea(points []Point2) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum * 0.5
}

// PolygonOrientation classifies a polygon by the sign of its area. Zero area
// counts as counter-clockwise.
func PolygonOrientation(points []Point2) Orientation {
	if PolygonArea(points) >= 0 {
		return CounterClockwise
	}
	return Clockwise
}

// PolylineLength sums the segment lengths. When closed is true the segment
// from the last point back to the first is included.
func PolylineLength(points []Point2, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].DistanceTo(points[i-1])
	}
	if closed {
		total += points[0].DistanceTo(points[len(points)-1])
	}
	return total
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min Point2
	Max Point2
}

func (b Bounds) Width() float64  { return b.Max.X - b.Min.X }
func (b Bounds) Height() float64 { return b.Max.Y - b.Min.Y }

// BoundingBox returns the bounds of the points and false when there are none.
func BoundingBox(points []Point2) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		Min: Point2{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point2{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, p := range points {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b, true
}

// Reversed returns a copy of the points in reverse order.
func Reversed(points []Point2) []Point2 {
	out := make([]Point2, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// LinesIntersection intersects the infinite lines through (a1,a2) and
// (b1,b2). Parallel lines report false.
func LinesIntersection(a1, a2, b1, b2 Point2) (Point2, bool) {
	r := a2.Sub(a1)
	s := b2.Sub(b1)
	rxs := r.Cross(s)
	if math.Abs(rxs) < Epsilon {
		return Point2{}, false
	}
	t := b1.Sub(a1).Cross(s) / rxs
	return a1.Add(r.Scale(t)), true
}

// orientation of the ordered triple: positive for clockwise, negative for
// counter-clockwise, zero when collinear.
func orientation(p, q, r Point2) float64 {
	return (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
}

// onSegment reports whether q lies inside the box spanned by p and r.
func onSegment(p, q, r Point2) bool {
	return q.X <= math.Max(p.X, r.X)+Epsilon && q.X+Epsilon >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y)+Epsilon && q.Y+Epsilon >= math.Min(p.Y, r.Y)
}

// SegmentsIntersect reports whether segments p1-q1 and p2-q2 touch or cross.
func SegmentsIntersect(p1, q1, p2, q2 Point2) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}

	// Collinear touching cases
	if math.Abs(o1) < Epsilon && onSegment(p1, p2, q1) {
		return true
	}
	if math.Abs(o2) < Epsilon && onSegment(p1, q2, q1) {
		return true
	}
	if math.Abs(o3) < Epsilon && onSegment(p2, p1, q2) {
		return true
	}
	if math.Abs(o4) < Epsilon && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

// HasSelfIntersections reports whether any two non-adjacent edges of the
// closed polygon intersect.
func HasSelfIntersections(points []Point2) bool {
	n := len(points)
	if n < 4 {
		return false
	}
	for i := 0; i < n; i++ {
		a1 := points[i]
		a2 := points[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Edges sharing a vertex always touch
			if j == (i+1)%n || j == (i+n-1)%n {
				continue
			}
			b1 := points[j]
			b2 := points[(j+1)%n]
			if SegmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}
