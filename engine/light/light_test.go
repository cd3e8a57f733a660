package light

import (
	"testing"

	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewLight_Defaults(t *testing.T) {
	l := NewLight(LightTypeSpot, WithName("lamp"), WithDirection(0, 0, -2), WithSpotCone(20, 30))
	assert.Equal(t, "lamp", l.Name())
	assert.Equal(t, LightTypeSpot, l.Type())
	assert.InDelta(t, 1, l.Direction().Len(), 1e-6)
	assert.InDelta(t, 0.866, l.OuterCone(), 1e-3)
	assert.True(t, l.Enabled())
	assert.True(t, l.CastsShadows())
	assert.Equal(t, "spot", LightTypeSpot.String())
}

func TestSetDirection_ZeroStaysZero(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetDirection(mgl.Vec3{})
	assert.Equal(t, mgl.Vec3{}, l.Direction())
}

func TestDirectionalViewProjection_CenterProjectsToMiddle(t *testing.T) {
	center := mgl.Vec3{5, 0, 5}
	vp := DirectionalViewProjection(mgl.Vec3{0, -1, 0}, center, 10, 0.1, 100)

	p := vp.Mul4x1(center.Vec4(1))
	assert.InDelta(t, 0, p.X(), 1e-4)
	assert.InDelta(t, 0, p.Y(), 1e-4)
	assert.InDelta(t, (50-0.1)/(100-0.1), p.Z(), 1e-4)

	edge := vp.Mul4x1(mgl.Vec4{15, 0, 5, 1})
	assert.InDelta(t, 1, mgl.Abs(edge.X())+mgl.Abs(edge.Y()), 1e-4)
}

func TestSpotViewProjection_AxisProjectsToMiddle(t *testing.T) {
	pos := mgl.Vec3{0, 10, 0}
	vp := SpotViewProjection(pos, mgl.Vec3{0, -1, 0}, 0.7071, 0.5, 20)

	p := vp.Mul4x1(mgl.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p.X()/p.W(), 1e-4)
	assert.InDelta(t, 0, p.Y()/p.W(), 1e-4)
	z := p.Z() / p.W()
	assert.Greater(t, z, float32(0))
	assert.Less(t, z, float32(1))
}

func TestNormalBias(t *testing.T) {
	assert.InDelta(t, 2*40.0/2048*3, NormalBias(DefaultShadowHalfExtent, DefaultShadowNormalBiasScale, ShadowMapResolution), 1e-6)
	assert.Zero(t, NormalBias(10, 3, 0))
}
