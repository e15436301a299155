package main

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/piwi3910/slabcam/internal/cam"
	"github.com/piwi3910/slabcam/internal/export"
	"github.com/piwi3910/slabcam/internal/gcode"
	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/importer"
	"github.com/piwi3910/slabcam/internal/model"
	"github.com/piwi3910/slabcam/internal/project"
)

// camJob is one posted program.
type camJob struct {
	name string
	tp   *cam.Toolpath
}

func runCam(args []string) error {
	fs := flag.NewFlagSet("cam", flag.ContinueOnError)
	dxfPath := fs.String("dxf", "", "DXF drawing with part boundaries and holes")
	configPath := fs.String("config", project.DefaultConfigPath(), "settings file (yaml, json or toml)")
	outDir := fs.StringP("output", "o", "artifacts/cam", "directory for the posted programs")
	var invFlags inventoryFlags
	invFlags.register(fs)
	fs.BoolVarP(&verbose, "verbose", "v", false, "log progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dxfPath == "" {
		return errors.New("--dxf is required")
	}

	settings, err := project.LoadSettings(*configPath)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := invFlags.applyTool(&settings); err != nil {
		return err
	}

	drawing := importer.ImportDXF(*dxfPath, settings.Machining.HoleThreshold)
	for _, w := range drawing.Warnings {
		progress("%s", w)
	}
	if len(drawing.Errors) > 0 {
		return errors.New(strings.Join(drawing.Errors, "; "))
	}
	progress("imported %d boundaries and %d holes", len(drawing.Boundaries), len(drawing.Holes))

	jobs, err := planDrawing(drawing, settings)
	if err != nil {
		return err
	}

	tool, err := settings.CamTool()
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(*dxfPath), filepath.Ext(*dxfPath))
	for _, job := range jobs {
		if err := postJob(job, tool, settings, filepath.Join(*outDir, base+"_"+job.name+".nc")); err != nil {
			return fmt.Errorf("%s: %w", job.name, err)
		}
	}
	return nil
}

// planDrawing builds the contour job (drill holes are not cut out) and the
// drill job, each visiting its features in nearest-neighbour order from home.
func planDrawing(drawing importer.DXFResult, settings model.JobSettings) ([]camJob, error) {
	ops, err := settings.OperationSettings()
	if err != nil {
		return nil, err
	}
	m := settings.Machining
	home := geom.Pt(settings.Post.HomeX, settings.Post.HomeY)

	var jobs []camJob
	if len(drawing.Boundaries) > 0 {
		paths := make([]*cam.Toolpath, 0, len(drawing.Boundaries))
		for i, boundary := range drawing.Boundaries {
			op, err := cam.NewContourOperation(fmt.Sprintf("contour %d", i+1), boundary, geom.Outside,
				m.TopZ, m.TargetZ, m.Stepdown, ops, settings.Tabs())
			if err != nil {
				return nil, fmt.Errorf("boundary %d: %w", i+1, err)
			}
			tp, err := op.Plan()
			if err != nil {
				return nil, fmt.Errorf("boundary %d: %w", i+1, err)
			}
			paths = append(paths, tp)
		}

		contours := cam.NewToolpath("contours", settings.Linking.SafeZ)
		for _, tp := range cam.OrderToolpaths(paths, home) {
			contours.Append(tp)
		}
		jobs = append(jobs, camJob{name: "contours", tp: contours})
	}

	if len(drawing.Holes) > 0 {
		points := drawing.HolePoints()
		ordered := make([]geom.Point2, 0, len(points))
		for _, idx := range cam.OrderNearest(points, home) {
			ordered = append(ordered, points[idx])
		}
		op, err := cam.NewDrillOperation("drills", ordered, m.TopZ, m.TargetZ, m.RetractZ, m.Dwell, settings.DrillCycle(), ops)
		if err != nil {
			return nil, err
		}
		tp, err := op.Plan()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, camJob{name: "drills", tp: tp})
	}
	return jobs, nil
}

// postJob posts, validates, simulates and writes one job.
func postJob(job camJob, tool cam.Tool, settings model.JobSettings, path string) error {
	program, err := gcode.WriteProgramWithConfig(job.tp, tool, settings.GrblConfig())
	if err != nil {
		return err
	}
	if err := gcode.Validate(program); err != nil {
		return fmt.Errorf("posted program is invalid: %w", err)
	}

	report, err := cam.Simulate(job.tp, settings.SimulationSettings())
	if err != nil {
		return err
	}
	for _, c := range report.Collisions {
		log.Printf("%s: %s", job.name, c)
	}
	if !report.IsOK() {
		return fmt.Errorf("simulation found %d collision(s)", len(report.Collisions))
	}

	hits := cam.CheckClampZones(job.tp, settings.Clamps, tool.Radius())
	for _, w := range cam.FormatClampWarnings(job.name, hits) {
		log.Print(w)
	}

	if err := export.WriteProgram(path, program); err != nil {
		return err
	}
	est := cam.EstimateRuntime(job.tp, settings.Machining.RapidRate)
	fmt.Printf("%s: wrote %s (%d motions, cut %.0f mm, est. %.1f min)\n",
		job.name, path, job.tp.Len(), est.FeedLength, est.Total()/60)
	return nil
}
