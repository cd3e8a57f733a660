package camera

import mgl "github.com/go-gl/mathgl/mgl32"

type CameraBuilderOption func(*cameraImpl)

// WithLookAt places the camera at eye looking at target.
//
// Parameters:
//   - eye: camera position
//   - target: look-at point
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera placement
func WithLookAt(eye, target mgl.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.eye = eye
		c.target = target
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - up: the up vector
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(up mgl.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithFov sets the camera's field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithNear sets the near clipping plane distance.
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithRenderOrder sets the order key of the camera's stages.
//
// Parameters:
//   - order: lower values draw first
//
// Returns:
//   - CameraBuilderOption: functional option to set the render order
func WithRenderOrder(order int) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.renderOrder = order
	}
}
