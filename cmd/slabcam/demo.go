package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/export"
	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/piwi3910/slabcam/internal/geom"
)

const defaultDemoPath = "artifacts/demo/demo_post.nc"

// demoProgram plans and posts a 120 x 80 mm outside contour cut from Z 5
// down to Z -5 with two tabs.
func demoProgram() (string, *cam.Toolpath, error) {
	tool, err := cam.NewTool(6.35, 900, 180, 12000)
	if err != nil {
		return "", nil, err
	}
	linking := cam.NewLinkingSettings(8, 15, tool.PlungeRate)
	linking.LeadIn = cam.LinearLead(5)
	linking.LeadOut = cam.LinearLead(5)

	boundary := []geom.Point2{geom.Pt(0, 0), geom.Pt(120, 0), geom.Pt(120, 80), geom.Pt(0, 80)}
	tabs := []cam.Tab{
		{Position: 0.25, Width: 6, Height: 1.5},
		{Position: 0.75, Width: 6, Height: 1.5},
	}
	op, err := cam.NewContourOperation("demo contour", boundary, geom.Outside, 5, -5, 2,
		cam.OperationSettings{Tool: tool, Linking: linking}, tabs)
	if err != nil {
		return "", nil, err
	}
	tp, err := op.Plan()
	if err != nil {
		return "", nil, err
	}

	program, err := gcode.WriteProgram(tp, tool)
	if err != nil {
		return "", nil, err
	}
	if err := gcode.Validate(program); err != nil {
		return "", nil, fmt.Errorf("posted program is invalid: %w", err)
	}

	report, err := cam.Simulate(tp, cam.SimulationSettings{SafeZ: linking.SafeZ, MinZ: -6})
	if err != nil {
		return "", nil, err
	}
	if !report.IsOK() {
		return "", nil, fmt.Errorf("simulation found %d collision(s), first: %s", len(report.Collisions), report.Collisions[0])
	}
	return program, tp, nil
}

func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	out := fs.StringP("output", "o", defaultDemoPath, "where to write the program")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	program, tp, err := demoProgram()
	if err != nil {
		return err
	}
	progress("planned %d motions, %.1f mm of travel", tp.Len(), tp.TotalLength())

	if err := export.WriteProgram(*out, program); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d motions, est. %.0f s)\n", *out, tp.Len(), cam.EstimateRuntime(tp, cam.DefaultRapidRate).Total())
	return nil
}
