package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/warchief/internal/game/geom"
)

func TestDistanceXZ_IgnoresHeight(t *testing.T) {
	a := geom.Vec3{X: 0, Y: 10, Z: 0}
	b := geom.Vec3{X: 3, Y: -4, Z: 4}
	assert.InDelta(t, 5.0, geom.DistanceXZ(a, b), 1e-9)
}

func TestNormalizedXZ_Zero(t *testing.T) {
	assert.Equal(t, geom.Vec3{}, geom.Vec3{Y: 3}.NormalizedXZ())
}

func TestDistanceToSegmentXZ(t *testing.T) {
	a := geom.Vec3{X: 0, Z: 0}
	b := geom.Vec3{X: 10, Z: 0}
	assert.InDelta(t, 2.0, geom.DistanceToSegmentXZ(geom.Vec3{X: 5, Z: 2}, a, b), 1e-9)
	assert.InDelta(t, 5.0, geom.DistanceToSegmentXZ(geom.Vec3{X: 13, Z: 4}, a, b), 1e-9)
	assert.InDelta(t, 1.0, geom.DistanceToSegmentXZ(geom.Vec3{X: 1, Z: 0}, a, a), 1e-9)
}

func TestTerrainFunc(t *testing.T) {
	tr := geom.TerrainFunc(func(x, z float64) float64 { return x + z })
	assert.Equal(t, 3.0, tr.Height(1, 2))
	assert.Equal(t, 7.0, geom.FlatTerrain{Y: 7}.Height(100, -100))
}

func TestPropertyNormalizedXZ_UnitLength(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := geom.Vec3{
			X: rapid.Float64Range(-1000, 1000).Draw(rt, "x"),
			Z: rapid.Float64Range(-1000, 1000).Draw(rt, "z"),
		}
		if v.LengthXZ() < 1e-6 {
			return
		}
		assert.InDelta(rt, 1.0, v.NormalizedXZ().LengthXZ(), 1e-9)
	})
}
