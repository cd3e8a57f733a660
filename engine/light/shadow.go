package light

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/chewxy/math32"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// ShadowMapResolution is the default width and height in texels of a light's
// shadow depth texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// of a directional light's shadow frustum around its focus point.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane of shadow projections.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane of a directional light's
// orthographic shadow projection.
const DefaultShadowFar float32 = 200.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.001

// DefaultShadowNormalBiasScale is the multiplier applied to the shadow map
// texel world-size to compute the normal-offset bias. Higher values push
// the shadow sample point further along the surface normal, reducing
// self-shadowing on concave geometry at the cost of slight shadow
// detachment from contact points. Typical values are 2.0–4.0.
const DefaultShadowNormalBiasScale float32 = 3.0

// ShadowData is everything a receiving pass needs to sample one light's shadow map.
type ShadowData struct {
	ViewProjection mgl.Mat4   // light view-projection
	TexelSize      [2]float32 // 1.0 / shadow map resolution for PCF offsets
	Bias           float32    // depth comparison bias
	NormalBias     float32    // world-space normal-offset distance for the lookup
}

// DirectionalMatrices builds the view and orthographic projection of a
// directional light's shadow pass. The eye sits behind center, opposite the
// light direction, at half the far distance.
//
// Parameters:
//   - dir: normalized direction the light points (from light toward scene)
//   - center: world-space center of the shadow frustum, typically the camera focus
//   - halfExtent: half-size of the orthographic frustum in world units
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - view: the light view matrix
//   - proj: the light projection matrix
func DirectionalMatrices(dir, center mgl.Vec3, halfExtent, near, far float32) (view, proj mgl.Mat4) {
	eye := center.Sub(dir.Mul(far * 0.5))
	view = common.LookAt(eye, center, mgl.Vec3{0, 1, 0})
	proj = common.Ortho(-halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	return view, proj
}

// DirectionalViewProjection returns proj * view of DirectionalMatrices.
func DirectionalViewProjection(dir, center mgl.Vec3, halfExtent, near, far float32) mgl.Mat4 {
	view, proj := DirectionalMatrices(dir, center, halfExtent, near, far)
	return proj.Mul4(view)
}

// SpotMatrices builds the view and perspective projection covering a spot
// light's outer cone, looking from its position along its axis.
//
// Parameters:
//   - pos: light position
//   - dir: normalized cone axis
//   - outerCone: cosine of the outer half-angle
//   - near: near plane distance
//   - far: far plane distance, usually the light range
//
// Returns:
//   - view: the light view matrix
//   - proj: the light projection matrix
func SpotMatrices(pos, dir mgl.Vec3, outerCone, near, far float32) (view, proj mgl.Mat4) {
	fov := 2 * math32.Acos(common.Clamp(outerCone, -1, 1))
	fov = common.Clamp(fov, mgl.DegToRad(1), mgl.DegToRad(179))
	view = common.LookAt(pos, pos.Add(dir), mgl.Vec3{0, 1, 0})
	proj = common.Perspective(fov, 1, near, far)
	return view, proj
}

// SpotViewProjection returns proj * view of SpotMatrices.
func SpotViewProjection(pos, dir mgl.Vec3, outerCone, near, far float32) mgl.Mat4 {
	view, proj := SpotMatrices(pos, dir, outerCone, near, far)
	return proj.Mul4(view)
}

// NormalBias derives the world-space normal-offset bias from the shadow map
// parameters: the world size of one texel times scale.
//
// Parameters:
//   - halfExtent: orthographic frustum half-size in world units
//   - scale: multiplier on the per-texel world size (typically 2.0–4.0)
//   - resolution: shadow map resolution in texels
//
// Returns:
//   - float32: the normal offset distance
func NormalBias(halfExtent, scale float32, resolution int) float32 {
	if resolution <= 0 {
		return 0
	}
	texelWorldSize := 2.0 * halfExtent / float32(resolution)
	return texelWorldSize * scale
}

// Uniforms returns the shadow data as uniforms named prefix + field.
func (s ShadowData) Uniforms(prefix string) map[string]any {
	return map[string]any{
		prefix + "ViewProjection": s.ViewProjection,
		prefix + "TexelSize":      s.TexelSize,
		prefix + "Bias":           s.Bias,
		prefix + "NormalBias":     s.NormalBias,
	}
}
