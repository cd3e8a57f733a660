package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	mgl "github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	eye    mgl.Vec3
	target mgl.Vec3
	up     mgl.Vec3

	fov         float32
	aspect      float32
	near        float32
	far         float32
	renderOrder int

	viewMatrix              mgl.Mat4
	projectionMatrix        mgl.Mat4
	viewProjectionMatrix    mgl.Mat4
	inverseProjectionMatrix mgl.Mat4
}

// Camera holds the perspective settings and view placement of a viewer and
// derives its view and projection matrices. Projections use the WebGPU [0, 1] depth range.
type Camera interface {
	// Eye returns the camera position.
	Eye() mgl.Vec3

	// Target returns the point the camera looks at.
	Target() mgl.Vec3

	// Up returns the camera's up vector.
	Up() mgl.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// RenderOrder returns the key used to order this camera's stages among
	// their siblings. Lower values draw first.
	RenderOrder() int

	// ViewMatrix returns the current view matrix.
	ViewMatrix() mgl.Mat4

	// ProjectionMatrix returns the current projection matrix.
	ProjectionMatrix() mgl.Mat4

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() mgl.Mat4

	// InverseProjectionMatrix returns the inverse of the projection matrix.
	InverseProjectionMatrix() mgl.Mat4

	// ProjectionWithDepthRange returns the camera projection with its depth
	// mapping replaced by [near, far]. The camera itself is not modified.
	//
	// Parameters:
	//   - near: replacement near distance
	//   - far: replacement far distance
	//
	// Returns:
	//   - mgl.Mat4: the overridden projection
	ProjectionWithDepthRange(near, far float32) mgl.Mat4

	// SetLookAt places the camera at eye looking at target and recomputes matrices.
	//
	// Parameters:
	//   - eye: camera position
	//   - target: look-at point
	SetLookAt(eye, target mgl.Vec3)

	// SetUp sets the camera's up vector and recomputes matrices.
	SetUp(up mgl.Vec3)

	// SetFov sets the field of view in radians and recomputes matrices.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio and recomputes matrices.
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	SetFar(far float32)

	// SetRenderOrder sets the render order key.
	SetRenderOrder(order int)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at (0, 0, 1) looking at the origin with a 45
// degree field of view and a [0.1, 100] depth range.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		eye:    mgl.Vec3{0, 0, 1},
		up:     mgl.Vec3{0, 1, 0},
		fov:    45.0 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Eye() mgl.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Target() mgl.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() mgl.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) RenderOrder() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderOrder
}

func (c *cameraImpl) ViewMatrix() mgl.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() mgl.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) ProjectionWithDepthRange(near, far float32) mgl.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.WithDepthRange(c.projectionMatrix, near, far)
}

func (c *cameraImpl) SetLookAt(eye, target mgl.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eye = eye
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(up mgl.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetRenderOrder(order int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderOrder = order
}

// updateMatrices recalculates the view, projection, view-projection and inverse projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = common.LookAt(c.eye, c.target, c.up)
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.inverseProjectionMatrix = c.projectionMatrix.Inv()
}
