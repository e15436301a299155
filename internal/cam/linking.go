package cam

import (
	"math"

	"github.com/piwi3910/slabcam/internal/geom"
)

// positionTolerance is the distance below which two coordinates are equal.
const positionTolerance = 1e-6

// LeadKind selects how a cut is approached and left.
type LeadKind int

const (
	LeadNone LeadKind = iota
	LeadLinear
)

// LeadStrategy is a lead-in or lead-out. Length applies to LeadLinear only.
type LeadStrategy struct {
	Kind   LeadKind
	Length float64
}

// NoLead disables the lead.
func NoLead() LeadStrategy {
	return LeadStrategy{Kind: LeadNone}
}

// LinearLead extends the cut tangentially by length.
func LinearLead(length float64) LeadStrategy {
	return LeadStrategy{Kind: LeadLinear, Length: length}
}

// RampKind selects how the tool enters the material.
type RampKind int

const (
	RampPlunge RampKind = iota
	RampLinear
	RampHelical
)

func (k RampKind) String() string {
	switch k {
	case RampLinear:
		return "linear"
	case RampHelical:
		return "helical"
	default:
		return "plunge"
	}
}

// RampStrategy describes an entry move. Length is used by RampLinear,
// Radius and Revolutions by RampHelical.
type RampStrategy struct {
	Kind        RampKind
	Length      float64
	Radius      float64
	Revolutions int
}

// PlungeRamp feeds straight down.
func PlungeRamp() RampStrategy {
	return RampStrategy{Kind: RampPlunge}
}

// LinearRamp descends along the first cut segment.
func LinearRamp(length float64) RampStrategy {
	return RampStrategy{Kind: RampLinear, Length: length}
}

// HelicalRamp spirals down around the entry point.
func HelicalRamp(radius float64, revolutions int) RampStrategy {
	return RampStrategy{Kind: RampHelical, Radius: radius, Revolutions: revolutions}
}

// LinkingSettings controls the moves between cuts.
type LinkingSettings struct {
	SafeZ      float64
	ClearanceZ float64
	LeadIn     LeadStrategy
	LeadOut    LeadStrategy
	Ramp       RampStrategy
	PlungeFeed float64
}

// NewLinkingSettings returns settings with no leads and a plunge entry.
func NewLinkingSettings(safeZ, clearanceZ, plungeFeed float64) LinkingSettings {
	return LinkingSettings{
		SafeZ:      safeZ,
		ClearanceZ: clearanceZ,
		LeadIn:     NoLead(),
		LeadOut:    NoLead(),
		Ramp:       PlungeRamp(),
		PlungeFeed: plungeFeed,
	}
}

// ApplyLinearLeads returns a copy of points with a linear lead-in point
// prepended and a lead-out point appended, as configured. Paths with fewer
// than two points are returned unchanged.
func ApplyLinearLeads(points []geom.Point2, leadIn, leadOut LeadStrategy) []geom.Point2 {
	if len(points) < 2 {
		out := make([]geom.Point2, len(points))
		copy(out, points)
		return out
	}

	out := make([]geom.Point2, 0, len(points)+2)
	if leadIn.Kind == LeadLinear && leadIn.Length > positionTolerance {
		dir := points[1].Sub(points[0]).Normalize()
		out = append(out, points[0].Add(dir.Scale(-leadIn.Length)))
	}
	out = append(out, points...)
	if leadOut.Kind == LeadLinear && leadOut.Length > positionTolerance {
		last := points[len(points)-1]
		dir := last.Sub(points[len(points)-2]).Normalize()
		out = append(out, last.Add(dir.Scale(leadOut.Length)))
	}
	return out
}

// RapidToSafe lifts to safe Z when the tool is below or above it, then
// traverses to target at safe Z.
func RapidToSafe(tp *Toolpath, target geom.Point2, settings LinkingSettings) {
	if last, ok := tp.LastPosition(); ok && math.Abs(last.Z-settings.SafeZ) > positionTolerance {
		tp.Push(Rapid(geom.Point3{X: last.X, Y: last.Y, Z: settings.SafeZ}))
	}
	tp.Push(Rapid(target.WithZ(settings.SafeZ)))
}

// EntryMoves brings the tool from safe Z down to targetZ at start using the
// configured ramp. It returns the index in the loop from which cutting
// continues: 1 when a linear ramp consumed next, otherwise 0.
func EntryMoves(tp *Toolpath, start geom.Point2, next *geom.Point2, targetZ, feed float64, settings LinkingSettings) int {
	switch settings.Ramp.Kind {
	case RampHelical:
		helicalEntry(tp, start, targetZ, feed, settings)
		return 0
	case RampLinear:
		RapidToSafe(tp, start, settings)
		if next != nil {
			tp.Push(Feed(next.WithZ(targetZ), settings.PlungeFeed))
			return 1
		}
		tp.Push(Feed(start.WithZ(targetZ), settings.PlungeFeed))
		return 0
	default:
		RapidToSafe(tp, start, settings)
		tp.Push(Feed(start.WithZ(targetZ), settings.PlungeFeed))
		return 0
	}
}

// ExitMoves retracts to safe Z above end at the plunge feed.
func ExitMoves(tp *Toolpath, end geom.Point2, settings LinkingSettings) {
	tp.Push(Feed(end.WithZ(settings.SafeZ), settings.PlungeFeed))
}

const helixSegmentsPerRev = 36

func helicalEntry(tp *Toolpath, center geom.Point2, targetZ, feed float64, settings LinkingSettings) {
	revolutions := settings.Ramp.Revolutions
	if revolutions < 1 {
		revolutions = 1
	}
	radius := settings.Ramp.Radius
	total := revolutions * helixSegmentsPerRev

	RapidToSafe(tp, geom.Point2{X: center.X + radius, Y: center.Y}, settings)

	for i := 0; i <= total; i++ {
		t := float64(i) / float64(total)
		angle := t * 2 * math.Pi * float64(revolutions)
		p := geom.Point3{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
			Z: settings.SafeZ + (targetZ-settings.SafeZ)*t,
		}
		tp.Push(Feed(p, settings.PlungeFeed))
	}

	tp.Push(Feed(center.WithZ(targetZ), feed))
}
