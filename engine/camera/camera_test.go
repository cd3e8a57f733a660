package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCamera_ProjectionEncodesDepthRange(t *testing.T) {
	c := NewCamera(WithNear(0.5), WithFar(250))
	near, far := common.DepthRange(c.ProjectionMatrix())
	assert.InDelta(t, 0.5, near, 1e-4)
	assert.InDelta(t, 250, far, 1e-1)
}

func TestCamera_ProjectionWithDepthRangeLeavesCameraUntouched(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(1000))
	before := c.ProjectionMatrix()

	p := c.ProjectionWithDepthRange(10, 100)
	near, far := common.DepthRange(p)
	assert.InDelta(t, 10, near, 1e-3)
	assert.InDelta(t, 100, far, 1e-2)
	assert.Equal(t, before[0], p[0])
	assert.Equal(t, before[5], p[5])
	assert.Equal(t, before, c.ProjectionMatrix())
}

func TestCamera_LookAtMapsTargetOntoAxis(t *testing.T) {
	c := NewCamera(WithLookAt(mgl.Vec3{0, 0, 10}, mgl.Vec3{0, 0, 0}))
	p := c.ViewMatrix().Mul4x1(mgl.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 0, p.Y(), 1e-5)
	assert.InDelta(t, -10, p.Z(), 1e-5)
}

func TestCamera_SettersRecompute(t *testing.T) {
	c := NewCamera()
	c.SetFar(500)
	_, far := common.DepthRange(c.ProjectionMatrix())
	assert.InDelta(t, 500, far, 2)

	c.SetRenderOrder(3)
	assert.Equal(t, 3, c.RenderOrder())
}
