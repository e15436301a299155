package cam

import (
	"math"

	"github.com/asim/quadtree"

	"github.com/piwi3910/slabcam/internal/geom"
)

// OrderNearest returns the indices of points in greedy nearest-neighbour
// order starting from start. Equal distances resolve to the lower index.
func OrderNearest(points []geom.Point2, start geom.Point2) []int {
	if len(points) == 0 {
		return nil
	}

	bounds, _ := geom.BoundingBox(append([]geom.Point2{start}, points...))
	center := geom.Pt((bounds.Min.X+bounds.Max.X)/2, (bounds.Min.Y+bounds.Max.Y)/2)
	// Margin keeps points on the bounding edges inside the tree
	half := math.Max(bounds.Width(), bounds.Height()) + 10

	qt := quadtree.New(quadtree.NewAABB(
		quadtree.NewPoint(center.X, center.Y, nil),
		quadtree.NewPoint(half, half, nil),
	), 0, nil)

	// Coincident points share one tree entry holding their indices in
	// ascending order. The tree cannot split a cell of identical points.
	buckets := make(map[geom.Point2]*quadtree.Point)
	for i, p := range points {
		if b, ok := buckets[p]; ok {
			idx := b.Data().(*[]int)
			*idx = append(*idx, i)
			continue
		}
		b := quadtree.NewPoint(p.X, p.Y, &[]int{i})
		buckets[p] = b
		qt.Insert(b)
	}

	order := make([]int, 0, len(points))
	current := start
	for len(order) < len(points) {
		best := nearestEntry(qt, points, current, half/16, 2*half)
		if best == nil {
			// Not reachable while the tree holds unvisited points
			break
		}

		idx := best.Data().(*[]int)
		next := (*idx)[0]
		*idx = (*idx)[1:]
		if len(*idx) == 0 {
			qt.Remove(best)
		}

		order = append(order, next)
		current = points[next]
	}
	return order
}

// nearestEntry widens a square search window around p until it holds an
// entry no farther than the window's half size, which is then the true
// nearest. Once the window spans the whole tree any hit is accepted.
func nearestEntry(qt *quadtree.QuadTree, points []geom.Point2, p geom.Point2, radius, limit float64) *quadtree.Point {
	for {
		found := qt.Search(quadtree.NewAABB(
			quadtree.NewPoint(p.X, p.Y, nil),
			quadtree.NewPoint(radius, radius, nil),
		))

		var best *quadtree.Point
		bestDist, bestIdx := math.Inf(1), 0
		for _, c := range found {
			idx := (*c.Data().(*[]int))[0]
			d := points[idx].DistanceTo(p)
			if d < bestDist || (d == bestDist && idx < bestIdx) {
				best, bestDist, bestIdx = c, d, idx
			}
		}
		if best != nil && (bestDist <= radius || radius >= limit) {
			return best
		}
		if radius >= limit {
			return nil
		}
		radius = math.Min(radius*2, limit)
	}
}

// OrderToolpaths reorders toolpaths by nearest-neighbour order of their
// entry points, beginning from start. Toolpaths without motions keep
// their relative order at the end.
func OrderToolpaths(paths []*Toolpath, start geom.Point2) []*Toolpath {
	var (
		entries []geom.Point2
		movable []*Toolpath
		empty   []*Toolpath
	)
	for _, tp := range paths {
		p, ok := firstPosition(tp)
		if !ok {
			empty = append(empty, tp)
			continue
		}
		entries = append(entries, p.XY())
		movable = append(movable, tp)
	}

	out := make([]*Toolpath, 0, len(paths))
	for _, idx := range OrderNearest(entries, start) {
		out = append(out, movable[idx])
	}
	return append(out, empty...)
}

func firstPosition(tp *Toolpath) (geom.Point3, bool) {
	for _, m := range tp.Motions {
		if m.Kind != MotionDwell {
			return m.To, true
		}
	}
	return geom.Point3{}, false
}
