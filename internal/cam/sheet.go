package cam

import (
	"fmt"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/nest"
)

// SheetJob holds the cutting parameters used to cut parts out of a nested
// sheet.
type SheetJob struct {
	Settings OperationSettings
	TopZ     float64
	TargetZ  float64
	Stepdown float64
	Tabs     []Tab
}

// PlanSheet cuts every placement of a sheet layout with an outside contour
// and joins the contours into one toolpath, visiting parts in nearest
// order from the machine origin.
func PlanSheet(layout nest.SheetLayout, job SheetJob) (*Toolpath, error) {
	if len(layout.Placements) == 0 {
		return nil, InvalidInput(fmt.Sprintf("sheet %s#%d has no placements", layout.StockID, layout.Index))
	}

	centers := make([]geom.Point2, len(layout.Placements))
	for i, p := range layout.Placements {
		centers[i] = geom.Pt(p.X+p.Width/2, p.Y+p.Height/2)
	}

	sheet := NewToolpath(fmt.Sprintf("%s#%d", layout.StockID, layout.Index), job.Settings.Linking.SafeZ)
	for _, idx := range OrderNearest(centers, geom.Point2{}) {
		p := layout.Placements[idx]
		op, err := NewContourOperation(p.PartID, PlacementOutline(p), geom.Outside,
			job.TopZ, job.TargetZ, job.Stepdown, job.Settings, job.Tabs)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", p.PartID, err)
		}
		tp, err := op.Plan()
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", p.PartID, err)
		}
		sheet.Append(tp)
	}
	return sheet, nil
}

// PlacementOutline returns the counter-clockwise rectangle occupied by a
// placement.
func PlacementOutline(p nest.RectPlacement) []geom.Point2 {
	return []geom.Point2{
		geom.Pt(p.X, p.Y),
		geom.Pt(p.X+p.Width, p.Y),
		geom.Pt(p.X+p.Width, p.Y+p.Height),
		geom.Pt(p.X, p.Y+p.Height),
	}
}
