package model

import (
	"fmt"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/piwi3910/slabcam/internal/nest"
)

// ToolSettings describes the cutter.
type ToolSettings struct {
	Diameter   float64 `json:"diameter" yaml:"diameter" mapstructure:"diameter"`
	FeedRate   float64 `json:"feed_rate" yaml:"feed_rate" mapstructure:"feed_rate"`
	PlungeRate float64 `json:"plunge_rate" yaml:"plunge_rate" mapstructure:"plunge_rate"`
	SpindleRPM float64 `json:"spindle_rpm" yaml:"spindle_rpm" mapstructure:"spindle_rpm"`
}

// LinkingConfig holds retract heights, leads and the entry ramp.
type LinkingConfig struct {
	SafeZ            float64 `json:"safe_z" yaml:"safe_z" mapstructure:"safe_z"`
	ClearanceZ       float64 `json:"clearance_z" yaml:"clearance_z" mapstructure:"clearance_z"`
	LeadIn           float64 `json:"lead_in" yaml:"lead_in" mapstructure:"lead_in"`    // 0 disables
	LeadOut          float64 `json:"lead_out" yaml:"lead_out" mapstructure:"lead_out"` // 0 disables
	Ramp             string  `json:"ramp" yaml:"ramp" mapstructure:"ramp"`             // plunge, linear or helical
	RampLength       float64 `json:"ramp_length" yaml:"ramp_length" mapstructure:"ramp_length"`
	HelixRadius      float64 `json:"helix_radius" yaml:"helix_radius" mapstructure:"helix_radius"`
	HelixRevolutions int     `json:"helix_revolutions" yaml:"helix_revolutions" mapstructure:"helix_revolutions"`
}

// MachiningSettings are the depths and step sizes shared by all operations.
type MachiningSettings struct {
	TopZ          float64   `json:"top_z" yaml:"top_z" mapstructure:"top_z"`
	TargetZ       float64   `json:"target_z" yaml:"target_z" mapstructure:"target_z"`
	MinZ          float64   `json:"min_z" yaml:"min_z" mapstructure:"min_z"`
	Stepdown      float64   `json:"stepdown" yaml:"stepdown" mapstructure:"stepdown"`
	Stepover      float64   `json:"stepover" yaml:"stepover" mapstructure:"stepover"`
	TabPositions  []float64 `json:"tab_positions" yaml:"tab_positions" mapstructure:"tab_positions"`
	TabWidth      float64   `json:"tab_width" yaml:"tab_width" mapstructure:"tab_width"`
	TabHeight     float64   `json:"tab_height" yaml:"tab_height" mapstructure:"tab_height"`
	RetractZ      float64   `json:"retract_z" yaml:"retract_z" mapstructure:"retract_z"`
	PeckDepth     float64   `json:"peck_depth" yaml:"peck_depth" mapstructure:"peck_depth"` // 0 drills in one feed
	Dwell         float64   `json:"dwell" yaml:"dwell" mapstructure:"dwell"`
	HoleThreshold float64   `json:"hole_threshold" yaml:"hole_threshold" mapstructure:"hole_threshold"`
	RapidRate     float64   `json:"rapid_rate" yaml:"rapid_rate" mapstructure:"rapid_rate"`
}

// NestingSettings configures both nesting packers.
type NestingSettings struct {
	Kerf            float64 `json:"kerf" yaml:"kerf" mapstructure:"kerf"`
	Trim            float64 `json:"trim" yaml:"trim" mapstructure:"trim"`
	TrimLeading     float64 `json:"trim_leading" yaml:"trim_leading" mapstructure:"trim_leading"`
	TrimTrailing    float64 `json:"trim_trailing" yaml:"trim_trailing" mapstructure:"trim_trailing"`
	Seed            uint64  `json:"seed" yaml:"seed" mapstructure:"seed"`
	Strategy        string  `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	MinOffcutWidth  float64 `json:"min_offcut_width" yaml:"min_offcut_width" mapstructure:"min_offcut_width"`
	MinOffcutHeight float64 `json:"min_offcut_height" yaml:"min_offcut_height" mapstructure:"min_offcut_height"`
}

// PostSettings configures the GRBL post.
type PostSettings struct {
	HomeX float64 `json:"home_x" yaml:"home_x" mapstructure:"home_x"`
	HomeY float64 `json:"home_y" yaml:"home_y" mapstructure:"home_y"`
}

// JobSettings is everything a run needs besides the geometry and cut list.
type JobSettings struct {
	Tool      ToolSettings      `json:"tool" yaml:"tool" mapstructure:"tool"`
	Linking   LinkingConfig     `json:"linking" yaml:"linking" mapstructure:"linking"`
	Machining MachiningSettings `json:"machining" yaml:"machining" mapstructure:"machining"`
	Nesting   NestingSettings   `json:"nesting" yaml:"nesting" mapstructure:"nesting"`
	Post      PostSettings      `json:"post" yaml:"post" mapstructure:"post"`
	Clamps    []cam.ClampZone   `json:"clamps" yaml:"clamps" mapstructure:"clamps"`
}

// DefaultSettings returns settings for 18 mm sheet goods on a small router
// with a 6 mm upcut bit.
func DefaultSettings() JobSettings {
	return JobSettings{
		Tool: ToolSettings{
			Diameter:   6.0,
			FeedRate:   1500.0,
			PlungeRate: 500.0,
			SpindleRPM: 18000,
		},
		Linking: LinkingConfig{
			SafeZ:            5.0,
			ClearanceZ:       15.0,
			Ramp:             cam.RampPlunge.String(),
			HelixRevolutions: 1,
		},
		Machining: MachiningSettings{
			TopZ:          0,
			TargetZ:       -18.5,
			MinZ:          -19.0,
			Stepdown:      6.0,
			Stepover:      2.4,
			TabPositions:  []float64{0.25, 0.75},
			TabWidth:      8.0,
			TabHeight:     2.0,
			RetractZ:      2.0,
			HoleThreshold: 10.0,
			RapidRate:     cam.DefaultRapidRate,
		},
		Nesting: NestingSettings{
			Kerf:            6.0,
			Trim:            10.0,
			Strategy:        string(nest.StrategyBestFit),
			MinOffcutWidth:  MinOffcutDimension,
			MinOffcutHeight: MinOffcutDimension,
		},
		Clamps: []cam.ClampZone{},
	}
}

// Validate reports the first setting that cannot produce a toolpath.
func (s JobSettings) Validate() error {
	if _, err := s.CamTool(); err != nil {
		return fmt.Errorf("tool: %w", err)
	}
	if _, err := s.Ramp(); err != nil {
		return fmt.Errorf("linking: %w", err)
	}
	if _, err := nest.ParseStrategy(s.Nesting.Strategy); err != nil {
		return fmt.Errorf("nesting: %w", err)
	}
	switch {
	case s.Machining.TargetZ >= s.Machining.TopZ:
		return fmt.Errorf("machining: %w", cam.InvalidArgument("target Z must be below the surface"))
	case s.Machining.Stepdown <= 0:
		return fmt.Errorf("machining: %w", cam.InvalidArgument("stepdown must be positive"))
	case s.Linking.SafeZ <= s.Machining.TopZ:
		return fmt.Errorf("linking: %w", cam.InvalidArgument("safe Z must be above the surface"))
	}
	return nil
}

// CamTool validates and returns the cutter.
func (s JobSettings) CamTool() (cam.Tool, error) {
	return cam.NewTool(s.Tool.Diameter, s.Tool.FeedRate, s.Tool.PlungeRate, s.Tool.SpindleRPM)
}

// Ramp maps the configured ramp name to a strategy.
func (s JobSettings) Ramp() (cam.RampStrategy, error) {
	switch s.Linking.Ramp {
	case "", cam.RampPlunge.String():
		return cam.PlungeRamp(), nil
	case cam.RampLinear.String():
		return cam.LinearRamp(s.Linking.RampLength), nil
	case cam.RampHelical.String():
		return cam.HelicalRamp(s.Linking.HelixRadius, s.Linking.HelixRevolutions), nil
	}
	return cam.RampStrategy{}, cam.InvalidArgument(fmt.Sprintf("unknown ramp %q", s.Linking.Ramp))
}

// LinkingSettings builds the linking settings. An unknown ramp falls back to
// a plunge; Validate reports it.
func (s JobSettings) LinkingSettings() cam.LinkingSettings {
	l := cam.NewLinkingSettings(s.Linking.SafeZ, s.Linking.ClearanceZ, s.Tool.PlungeRate)
	if s.Linking.LeadIn > 0 {
		l.LeadIn = cam.LinearLead(s.Linking.LeadIn)
	}
	if s.Linking.LeadOut > 0 {
		l.LeadOut = cam.LinearLead(s.Linking.LeadOut)
	}
	if ramp, err := s.Ramp(); err == nil {
		l.Ramp = ramp
	}
	return l
}

// OperationSettings pairs the tool with the linking settings.
func (s JobSettings) OperationSettings() (cam.OperationSettings, error) {
	tool, err := s.CamTool()
	if err != nil {
		return cam.OperationSettings{}, err
	}
	return cam.OperationSettings{Tool: tool, Linking: s.LinkingSettings()}, nil
}

// Tabs places one tab at each configured loop fraction.
func (s JobSettings) Tabs() []cam.Tab {
	tabs := make([]cam.Tab, 0, len(s.Machining.TabPositions))
	for _, pos := range s.Machining.TabPositions {
		tabs = append(tabs, cam.Tab{Position: pos, Width: s.Machining.TabWidth, Height: s.Machining.TabHeight})
	}
	return tabs
}

// DrillCycle is a peck cycle when a peck depth is set.
func (s JobSettings) DrillCycle() cam.DrillCycle {
	if s.Machining.PeckDepth > 0 {
		return cam.PeckCycle(s.Machining.PeckDepth)
	}
	return cam.SimpleCycle()
}

// SheetJob builds the per-sheet cutting job.
func (s JobSettings) SheetJob() (cam.SheetJob, error) {
	ops, err := s.OperationSettings()
	if err != nil {
		return cam.SheetJob{}, err
	}
	return cam.SheetJob{
		Settings: ops,
		TopZ:     s.Machining.TopZ,
		TargetZ:  s.Machining.TargetZ,
		Stepdown: s.Machining.Stepdown,
		Tabs:     s.Tabs(),
	}, nil
}

func (s JobSettings) SimulationSettings() cam.SimulationSettings {
	return cam.SimulationSettings{SafeZ: s.Linking.SafeZ, MinZ: s.Machining.MinZ}
}

func (s JobSettings) LinearConfig() nest.LinearNestConfig {
	return nest.LinearNestConfig{
		Kerf:         s.Nesting.Kerf,
		TrimLeading:  s.Nesting.TrimLeading,
		TrimTrailing: s.Nesting.TrimTrailing,
		Seed:         s.Nesting.Seed,
	}
}

func (s JobSettings) PlanarConfig() nest.PlanarNestConfig {
	return nest.PlanarNestConfig{Kerf: s.Nesting.Kerf, Trim: s.Nesting.Trim, Seed: s.Nesting.Seed}
}

func (s JobSettings) GrblConfig() gcode.GrblConfig {
	return gcode.GrblConfig{HomeX: s.Post.HomeX, HomeY: s.Post.HomeY}
}
