package cam

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultRapidRate is the traverse speed assumed when none is configured, in
// mm/min.
const DefaultRapidRate = 5000.0

// RuntimeEstimate breaks down the machining time of a toolpath.
type RuntimeEstimate struct {
	FeedLength   float64 `json:"feed_length_mm"`
	RapidLength  float64 `json:"rapid_length_mm"`
	FeedSeconds  float64 `json:"feed_sec"`
	RapidSeconds float64 `json:"rapid_sec"`
	DwellSeconds float64 `json:"dwell_sec"`
}

// Total returns the estimated runtime in seconds.
func (e RuntimeEstimate) Total() float64 {
	return e.FeedSeconds + e.RapidSeconds + e.DwellSeconds
}

// EstimateRuntime estimates machining time from move lengths and feed
// rates, ignoring acceleration. The tool starts at (0, 0, SafeZ).
func EstimateRuntime(tp *Toolpath, rapidRate float64) RuntimeEstimate {
	if rapidRate <= 0 {
		rapidRate = DefaultRapidRate
	}

	var est RuntimeEstimate
	last := r3.Vec{Z: tp.SafeZ}
	for _, m := range tp.Motions {
		switch m.Kind {
		case MotionDwell:
			est.DwellSeconds += m.Seconds
			continue
		case MotionRapid:
			d := r3.Norm(r3.Sub(toR3(m.To), last))
			est.RapidLength += d
			est.RapidSeconds += d / rapidRate * 60
		case MotionFeed:
			d := r3.Norm(r3.Sub(toR3(m.To), last))
			est.FeedLength += d
			if m.Feed > 0 {
				est.FeedSeconds += d / m.Feed * 60
			}
		}
		last = toR3(m.To)
	}
	return est
}
