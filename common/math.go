package common

import (
	"github.com/chewxy/math32"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// Perspective builds a right-handed perspective projection mapping view depth
// onto the WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)
	var m mgl.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1.0
	m[14] = (near * far) / (near - far)
	return m
}

// Ortho builds a right-handed orthographic projection with WebGPU [0, 1] depth.
//
// Parameters:
//   - left, right, bottom, top: view volume extents
//   - near, far: clipping plane distances
//
// Returns:
//   - mgl.Mat4: the column-major projection matrix
func Ortho(left, right, bottom, top, near, far float32) mgl.Mat4 {
	m := mgl.Ident4()
	m[0] = 2.0 / (right - left)
	m[5] = 2.0 / (top - bottom)
	m[10] = -1.0 / (far - near)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	m[14] = -near / (far - near)
	return m
}

// IsPerspective reports whether proj has the projective w row produced by Perspective.
func IsPerspective(proj mgl.Mat4) bool {
	return proj[11] == -1 && proj[15] == 0
}

// DepthRange recovers the near and far distances encoded in a projection built
// by Perspective or Ortho.
//
// Parameters:
//   - proj: the projection matrix
//
// Returns:
//   - near, far: the clip plane distances
func DepthRange(proj mgl.Mat4) (near, far float32) {
	if IsPerspective(proj) {
		// m10 = f/(n-f), m14 = n*f/(n-f)
		return proj[14] / proj[10], proj[14] / (proj[10] + 1)
	}
	// m10 = -1/(f-n), m14 = -n/(f-n)
	near = proj[14] / proj[10]
	far = near - 1/proj[10]
	return near, far
}

// WithDepthRange returns proj with its depth mapping replaced so that [near, far]
// maps onto [0, 1]. The horizontal and vertical terms are left untouched, so the
// resulting frustum has the same footprint on screen.
//
// Parameters:
//   - proj: a projection built by Perspective or Ortho
//   - near, far: the replacement clip distances
//
// Returns:
//   - mgl.Mat4: the overridden projection
func WithDepthRange(proj mgl.Mat4, near, far float32) mgl.Mat4 {
	if IsPerspective(proj) {
		proj[10] = far / (near - far)
		proj[14] = (near * far) / (near - far)
		return proj
	}
	proj[10] = -1.0 / (far - near)
	proj[14] = -near / (far - near)
	return proj
}

// LookAt builds a right-handed view matrix.
//
// Parameters:
//   - eye: camera position
//   - center: point the camera looks at
//   - up: approximate up direction
//
// Returns:
//   - mgl.Mat4: the view matrix
func LookAt(eye, center, up mgl.Vec3) mgl.Mat4 {
	dir := center.Sub(eye)
	if dir.Len() < 1e-6 {
		return mgl.Translate3D(-eye.X(), -eye.Y(), -eye.Z())
	}
	// Pick a fallback up when the view direction is (anti)parallel to up.
	if math32.Abs(dir.Normalize().Dot(up.Normalize())) > 0.999 {
		up = mgl.Vec3{0, 0, 1}
		if math32.Abs(dir.Normalize().Z()) > 0.999 {
			up = mgl.Vec3{1, 0, 0}
		}
	}
	return mgl.LookAtV(eye, center, up)
}
