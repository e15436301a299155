package cam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/slabcam/internal/geom"
)

func TestDistanceToClampZone(t *testing.T) {
	cz := ClampZone{X: 10, Y: 10, Width: 20, Height: 10}
	assert.Equal(t, 0.0, distanceToClampZone(15, 15, cz), "inside")
	assert.InDelta(t, 5.0, distanceToClampZone(5, 15, cz), 1e-9)
	assert.InDelta(t, 5.0, distanceToClampZone(33, 24, cz), 1e-9)
}

func TestCheckClampZones(t *testing.T) {
	tp := NewToolpath("cut", 10)
	tp.Push(Rapid(geom.Point3{X: 0, Y: 0, Z: 10}))
	tp.Push(Feed(geom.Point3{X: 0, Y: 0, Z: -2}, 200))
	tp.Push(Feed(geom.Point3{X: 100, Y: 0, Z: -2}, 800))
	tp.Push(Feed(geom.Point3{X: 100, Y: 0, Z: 10}, 200))

	zones := []ClampZone{
		{Label: "front", X: 40, Y: 4, Width: 20, Height: 20, Top: 5},
		{Label: "far", X: 40, Y: 200, Width: 20, Height: 20, Top: 5},
	}

	hits := CheckClampZones(tp, zones, 6)
	require.Len(t, hits, 1)
	assert.Equal(t, "front", hits[0].Clamp)
	assert.True(t, hits[0].IsDuringCut)
	assert.Equal(t, 2, hits[0].MotionIndex)
	assert.InDelta(t, 4.0, hits[0].Distance, 1e-9)

	warnings := FormatClampWarnings("cut", hits)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `clamp "front" while cutting`)
}

func TestCheckClampZones_AboveClampIsClear(t *testing.T) {
	tp := NewToolpath("travel", 10)
	tp.Push(Rapid(geom.Point3{X: 50, Y: 10, Z: 10}))

	zones := []ClampZone{{Label: "c", X: 40, Y: 4, Width: 20, Height: 20, Top: 5}}
	assert.Empty(t, CheckClampZones(tp, zones, 6))
	assert.Nil(t, CheckClampZones(tp, nil, 6))
}
