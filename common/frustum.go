package common

import (
	mgl "github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl.Vec3
	Distance float32
}

// Frustum holds six planes oriented so the positive half-space is inside.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts normalized frustum planes from a combined
// projection * view matrix (Gribb/Hartmann). The near plane follows the
// WebGPU [0, 1] depth convention.
//
// Parameters:
//   - viewProj: the combined view-projection matrix
//
// Returns:
//   - Frustum: the extracted frustum
func ExtractFrustum(viewProj mgl.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	var f Frustum
	f.Planes[FrustumLeft] = planeOf(r3.Add(r0))
	f.Planes[FrustumRight] = planeOf(r3.Sub(r0))
	f.Planes[FrustumBottom] = planeOf(r3.Add(r1))
	f.Planes[FrustumTop] = planeOf(r3.Sub(r1))
	f.Planes[FrustumNear] = planeOf(r2)
	f.Planes[FrustumFar] = planeOf(r3.Sub(r2))
	return f
}

// ContainsSphere reports whether a sphere intersects or lies inside the frustum.
//
// Parameters:
//   - center: sphere center in world space
//   - radius: sphere radius
//
// Returns:
//   - bool: false only when the sphere is fully outside one plane
func (f Frustum) ContainsSphere(center mgl.Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.Normal.Dot(center)+p.Distance < -radius {
			return false
		}
	}
	return true
}

func planeOf(v mgl.Vec4) Plane {
	p := Plane{Normal: v.Vec3(), Distance: v.W()}
	if l := p.Normal.Len(); l > 0 {
		p.Normal = p.Normal.Mul(1 / l)
		p.Distance /= l
	}
	return p
}
