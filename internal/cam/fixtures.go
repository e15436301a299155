package cam

import (
	"fmt"
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
)

// ClampZone is a rectangular fixture footprint on the machine bed. Top is
// the height of the clamp above the bed origin.
type ClampZone struct {
	Label  string  `json:"label" yaml:"label"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Top    float64 `json:"top" yaml:"top"`
}

// ClampHit is a move that brings the cutter too close to a clamp.
type ClampHit struct {
	Clamp       string      `json:"clamp"`
	MotionIndex int         `json:"motion_index"`
	Position    geom.Point3 `json:"position"`
	Distance    float64     `json:"distance"`
	IsDuringCut bool        `json:"is_during_cut"`
}

// CheckClampZones screens the XY footprint of a toolpath against fixtures.
// A move is a hit when the tool centre passes within radius of a clamp while
// below the clamp's top. Each move is sampled at its midpoint and end.
// At most one hit per clamp and move type is reported.
func CheckClampZones(tp *Toolpath, zones []ClampZone, radius float64) []ClampHit {
	if tp == nil || len(zones) == 0 {
		return nil
	}

	var hits []ClampHit
	position := geom.Point3{Z: tp.SafeZ}
	for i, m := range tp.Motions {
		if m.Kind == MotionDwell {
			continue
		}
		mid := geom.Point3{
			X: (position.X + m.To.X) / 2,
			Y: (position.Y + m.To.Y) / 2,
			Z: math.Min(position.Z, m.To.Z),
		}
		for _, p := range []geom.Point3{mid, m.To} {
			for _, cz := range zones {
				if p.Z >= cz.Top {
					continue
				}
				dist := distanceToClampZone(p.X, p.Y, cz)
				if dist < radius {
					hits = append(hits, ClampHit{
						Clamp:       cz.Label,
						MotionIndex: i,
						Position:    p,
						Distance:    dist,
						IsDuringCut: m.Kind == MotionFeed,
					})
				}
			}
		}
		position = m.To
	}
	return deduplicateHits(hits)
}

// distanceToClampZone is the distance from (px, py) to the nearest point of
// the clamp rectangle, zero inside it.
func distanceToClampZone(px, py float64, cz ClampZone) float64 {
	nearestX := math.Max(cz.X, math.Min(px, cz.X+cz.Width))
	nearestY := math.Max(cz.Y, math.Min(py, cz.Y+cz.Height))
	return math.Hypot(px-nearestX, py-nearestY)
}

func deduplicateHits(hits []ClampHit) []ClampHit {
	type key struct {
		clamp string
		cut   bool
	}
	seen := make(map[key]bool)
	var out []ClampHit
	for _, h := range hits {
		k := key{h.Clamp, h.IsDuringCut}
		if !seen[k] {
			seen[k] = true
			out = append(out, h)
		}
	}
	return out
}

// FormatClampWarnings renders hits as one line each.
func FormatClampWarnings(name string, hits []ClampHit) []string {
	var warnings []string
	for _, h := range hits {
		moveType := "cutting"
		if !h.IsDuringCut {
			moveType = "rapid"
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s: tool may hit clamp %q while %s at (%.0f, %.0f, %.1f), motion %d, clearance %.1f mm",
			name, h.Clamp, moveType, h.Position.X, h.Position.Y, h.Position.Z, h.MotionIndex, h.Distance,
		))
	}
	return warnings
}
