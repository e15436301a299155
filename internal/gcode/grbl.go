package gcode

import (
	"math"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/geom"
)

// GrblConfig holds the XY position the machine returns to after a program.
type GrblConfig struct {
	HomeX float64 `json:"home_x" yaml:"home_x"`
	HomeY float64 `json:"home_y" yaml:"home_y"`
}

// WriteProgram posts a toolpath for a GRBL controller homing at the origin.
func WriteProgram(tp *cam.Toolpath, tool cam.Tool) (string, error) {
	return WriteProgramWithConfig(tp, tool, GrblConfig{})
}

// WriteProgramWithConfig posts a toolpath: preamble, name comment, spindle on,
// every motion, lift to safe Z, return home, spindle off and M2.
func WriteProgramWithConfig(tp *cam.Toolpath, tool cam.Tool, config GrblConfig) (string, error) {
	p, err := Post(tp, tool, config)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// Post is WriteProgramWithConfig returning the block structure instead of
// text.
func Post(tp *cam.Toolpath, tool cam.Tool, config GrblConfig) (*Program, error) {
	if tp == nil || tp.IsEmpty() {
		return nil, cam.InvalidInput("toolpath must contain at least one motion")
	}

	w := NewWriter().WithPrecision(DefaultPrecision)
	if err := w.StartProgram(); err != nil {
		return nil, err
	}
	w.Comment(tp.Name)
	if err := w.SetSpindle(tool.SpindleRPM); err != nil {
		return nil, err
	}

	current := geom.Point3{X: config.HomeX, Y: config.HomeY, Z: tp.SafeZ}
	for _, m := range tp.Motions {
		switch m.Kind {
		case cam.MotionRapid:
			if err := w.Motion(MotionRapid, m.To, nil); err != nil {
				return nil, err
			}
			current = m.To
		case cam.MotionFeed:
			feed := m.Feed
			if err := w.Motion(MotionLinear, m.To, &feed); err != nil {
				return nil, err
			}
			current = m.To
		case cam.MotionDwell:
			if err := w.Dwell(m.Seconds); err != nil {
				return nil, err
			}
		}
	}

	if current.Z+Epsilon < tp.SafeZ {
		current = geom.Point3{X: current.X, Y: current.Y, Z: tp.SafeZ}
		if err := w.Motion(MotionRapid, current, nil); err != nil {
			return nil, err
		}
	}
	home := geom.Point3{X: config.HomeX, Y: config.HomeY, Z: tp.SafeZ}
	if math.Abs(current.X-home.X) > Epsilon || math.Abs(current.Y-home.Y) > Epsilon {
		if err := w.Motion(MotionRapid, home, nil); err != nil {
			return nil, err
		}
	}

	if err := w.StopSpindle(); err != nil {
		return nil, err
	}
	if err := w.EndProgram(); err != nil {
		return nil, err
	}
	return w.Finish(), nil
}
