package cam

import "math"

const tabTolerance = 1e-6

// Tab is a bridge of material left standing on the final contour pass.
// Position is a fraction of the loop length; Width is measured along the
// loop and Height above the final cut depth.
type Tab struct {
	Position float64 `json:"position" yaml:"position"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
}

// DepthWithTabs returns the cut depth at the given arc-length distance along
// a closed loop. Inside a tab the depth is raised by the tab height but never
// above zero.
func DepthWithTabs(distance, loopLength, targetDepth float64, tabs []Tab) float64 {
	if loopLength <= tabTolerance || len(tabs) == 0 {
		return targetDepth
	}

	wrapped := remEuclid(distance, loopLength)
	for _, tab := range tabs {
		center := remEuclid(tab.Position, 1) * loopLength
		half := tab.Width * 0.5
		start := remEuclid(center-half, loopLength)
		end := remEuclid(center+half, loopLength)
		if intervalContains(wrapped, start, end) {
			return math.Min(targetDepth+tab.Height, 0)
		}
	}
	return targetDepth
}

// intervalContains tests membership in [start, end] on a circle; when start
// is past end the interval wraps through zero.
func intervalContains(value, start, end float64) bool {
	if start <= end {
		return value >= start-tabTolerance && value <= end+tabTolerance
	}
	return value >= start-tabTolerance || value <= end+tabTolerance
}

// remEuclid is the non-negative remainder of a divided by b.
func remEuclid(a, b float64) float64 {
	r := math.Mod(a, b)
	if r < 0 {
		r += b
	}
	return r
}
