package cam

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/slabcam/internal/geom"
)

func TestEstimateRuntime(t *testing.T) {
	tp := NewToolpath("rt", 5)
	tp.Push(Rapid(geom.Point3{X: 100, Z: 5}))
	tp.Push(Feed(geom.Point3{X: 100, Z: -5}, 100))
	tp.Push(Dwell(2))
	tp.Push(Feed(geom.Point3{X: 200, Z: -5}, 600))

	est := EstimateRuntime(tp, 6000)
	assert.InDelta(t, 100.0, est.RapidLength, 1e-9)
	assert.InDelta(t, 1.0, est.RapidSeconds, 1e-9)
	assert.InDelta(t, 110.0, est.FeedLength, 1e-9)
	assert.InDelta(t, 6.0+10.0, est.FeedSeconds, 1e-9)
	assert.InDelta(t, 2.0, est.DwellSeconds, 1e-9)
	assert.InDelta(t, 19.0, est.Total(), 1e-9)

	def := EstimateRuntime(tp, 0)
	assert.InDelta(t, 100.0/DefaultRapidRate*60, def.RapidSeconds, 1e-9)
}
