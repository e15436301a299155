package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/slabcam/internal/geom"
)

// DrillHole is a circle small enough to be drilled rather than cut.
type DrillHole struct {
	Center   geom.Point2
	Diameter float64
}

// DXFResult holds the machining geometry read from a drawing. Coordinates
// are kept in drawing space.
type DXFResult struct {
	Boundaries [][]geom.Point2
	Holes      []DrillHole
	Errors     []string
	Warnings   []string
}

// HolePoints returns the hole centers in drawing order.
func (r DXFResult) HolePoints() []geom.Point2 {
	pts := make([]geom.Point2, len(r.Holes))
	for i, h := range r.Holes {
		pts[i] = h.Center
	}
	return pts
}

const (
	chainTolerance  = 0.01
	arcSegments     = 32
	circleSegments  = 64
	minBoundarySide = 0.01
)

// segment represents a line segment between two 2D points, used for
// chaining disconnected LINE entities into closed outlines.
type segment struct {
	start geom.Point2
	end   geom.Point2
}

// ImportDXF reads closed boundaries and drill holes from a DXF file.
// LWPOLYLINEs, chains of LINEs and ARCs and circles larger than
// holeDiameter become boundaries. Circles with a diameter at or below
// holeDiameter become drill holes.
func ImportDXF(path string, holeDiameter float64) DXFResult {
	result := DXFResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines [][]geom.Point2
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := lwPolylineToOutline(e)
			if len(outline) >= 3 {
				outlines = append(outlines, outline)
			} else {
				result.Warnings = append(result.Warnings,
					"Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			if 2*e.Radius <= holeDiameter {
				result.Holes = append(result.Holes, DrillHole{
					Center:   geom.Pt(e.Center[0], e.Center[1]),
					Diameter: 2 * e.Radius,
				})
				continue
			}
			outlines = append(outlines, circleToOutline(e, circleSegments))

		case *entity.Arc:
			pts := arcToPoints(e, arcSegments)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: geom.Pt(e.Start[0], e.Start[1]),
				end:   geom.Pt(e.End[0], e.End[1]),
			})
		}
	}

	chained, open := chainSegments(segments, chainTolerance)
	outlines = append(outlines, chained...)
	if open > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Skipped %d open chain(s) of LINE/ARC entities", open))
	}

	for _, outline := range outlines {
		b, _ := geom.BoundingBox(outline)
		if b.Width() < minBoundarySide || b.Height() < minBoundarySide {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", b.Width(), b.Height()))
			continue
		}
		result.Boundaries = append(result.Boundaries, outline)
	}

	if len(result.Boundaries) == 0 && len(result.Holes) == 0 {
		result.Errors = append(result.Errors, "No closed shapes or holes found in DXF file")
	}
	return result
}

// lwPolylineToOutline converts a DXF LWPOLYLINE entity to an outline.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylineToOutline(lw *entity.LwPolyline) []geom.Point2 {
	var outline []geom.Point2

	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := geom.Pt(v[0], v[1])

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := geom.Pt(lw.Vertices[nextIdx][0], lw.Vertices[nextIdx][1])
			arcPts := bulgeArcPoints(current, next, bulge, arcSegments)
			// The next vertex is added by its own iteration
			outline = append(outline, arcPts[:len(arcPts)-1]...)
		} else {
			outline = append(outline, current)
		}
	}

	return outline
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
// Positive bulges sweep counter-clockwise.
func bulgeArcPoints(p1, p2 geom.Point2, bulge float64, numSegments int) []geom.Point2 {
	chord := p2.Sub(p1)
	chordLen := chord.Length()
	if chordLen < 1e-9 {
		return []geom.Point2{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	// The center lies on the chord bisector, on the side away from the bulge
	mid := geom.Pt((p1.X+p2.X)/2, (p1.Y+p2.Y)/2)
	perp := chord.Normalize().PerpCCW()
	if bulge < 0 {
		perp = perp.Scale(-1)
	}
	center := mid.Add(perp.Scale(radius - sagitta))

	startAngle := math.Atan2(p1.Y-center.Y, p1.X-center.X)
	endAngle := math.Atan2(p2.Y-center.Y, p2.X-center.X)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make([]geom.Point2, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, geom.Pt(center.X+radius*math.Cos(angle), center.Y+radius*math.Sin(angle)))
	}
	// Land exactly on the endpoints
	pts[0], pts[numSegments] = p1, p2
	return pts
}

// circleToOutline approximates a circle as a regular counter-clockwise polygon.
func circleToOutline(c *entity.Circle, numSegments int) []geom.Point2 {
	outline := make([]geom.Point2, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		outline[i] = geom.Pt(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
	}
	return outline
}

// arcToPoints converts a DXF ARC entity to a series of line points.
// Angles are in degrees and sweep counter-clockwise.
func arcToPoints(a *entity.Arc, numSegments int) []geom.Point2 {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius

	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]geom.Point2, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = geom.Pt(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
	}
	return pts
}

// pointsToSegments converts a point sequence to a slice of connected segments.
func pointsToSegments(pts []geom.Point2) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects segments into closed outlines, largest first.
// Endpoints closer than tolerance are joined. It also returns the number of
// chains that did not close.
func chainSegments(segs []segment, tolerance float64) ([][]geom.Point2, int) {
	if len(segs) == 0 {
		return nil, 0
	}

	used := make([]bool, len(segs))
	var outlines [][]geom.Point2
	open := 0

	for startIdx := range segs {
		if used[startIdx] {
			continue
		}

		chain := []geom.Point2{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		for changed := true; changed; {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if tail.DistanceTo(seg.start) <= tolerance {
					chain = append(chain, seg.end)
				} else if tail.DistanceTo(seg.end) <= tolerance {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		if len(chain) < 4 || chain[0].DistanceTo(chain[len(chain)-1]) > tolerance {
			open++
			continue
		}
		outlines = append(outlines, chain[:len(chain)-1])
	}

	sort.SliceStable(outlines, func(i, j int) bool {
		return math.Abs(geom.PolygonArea(outlines[i])) > math.Abs(geom.PolygonArea(outlines[j]))
	})

	return outlines, open
}
