package cam

import "math"

// Tool is an end mill or drill with its cutting parameters.
type Tool struct {
	Diameter   float64 `json:"diameter"`
	FeedRate   float64 `json:"feed_rate"`
	PlungeRate float64 `json:"plunge_rate"`
	SpindleRPM float64 `json:"spindle_rpm"`
}

// NewTool validates and returns a tool. Every parameter must be positive.
func NewTool(diameter, feedRate, plungeRate, spindleRPM float64) (Tool, error) {
	t := Tool{Diameter: diameter, FeedRate: feedRate, PlungeRate: plungeRate, SpindleRPM: spindleRPM}
	if err := t.Validate(); err != nil {
		return Tool{}, err
	}
	return t, nil
}

// Validate checks that all parameters are strictly positive.
func (t Tool) Validate() error {
	switch {
	case t.Diameter <= 0:
		return InvalidArgument("tool diameter must be positive")
	case t.FeedRate <= 0:
		return InvalidArgument("feed rate must be positive")
	case t.PlungeRate <= 0:
		return InvalidArgument("plunge rate must be positive")
	case t.SpindleRPM <= 0:
		return InvalidArgument("spindle RPM must be positive")
	}
	return nil
}

func (t Tool) Radius() float64 {
	return t.Diameter * 0.5
}

// State returns the feed and spindle speed the tool runs at.
func (t Tool) State() ToolState {
	return ToolState{Feed: t.FeedRate, SpindleRPM: t.SpindleRPM}
}

// OperationSettings bundles the tool with its linking behaviour.
type OperationSettings struct {
	Tool    Tool
	Linking LinkingSettings
}

// depthPasses returns the Z level of every pass from top down to target.
// The last entry is exactly target.
func depthPasses(topZ, targetZ, stepdown float64) []float64 {
	passes := int(math.Ceil(math.Abs(topZ-targetZ) / stepdown))
	depths := make([]float64, 0, passes)
	for i := 1; i <= passes; i++ {
		depths = append(depths, math.Max(targetZ, topZ-stepdown*float64(i)))
	}
	return depths
}
