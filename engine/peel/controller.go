// Package peel renders transparent geometry order-independently by depth
// peeling: each layer keeps the nearest fragments farther than the previous
// layer, and the layers are composited back to front.
package peel

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
)

const (
	// DefaultDepthOffset biases the previous-layer comparison against self-occlusion
	// of coplanar surfaces. Scenes with large depth ranges may need a larger value.
	DefaultDepthOffset float32 = 0.0001

	// OpaqueDepthUnit and PreviousDepthUnit are the texture units the peel
	// shader module samples the two depth textures from.
	OpaqueDepthUnit   = 6
	PreviousDepthUnit = 7

	// RenderBinNumber and RenderBinName place peeled drawables after opaque ones.
	RenderBinNumber = 10
	RenderBinName   = "DepthPeel"
)

// Uniform names seeded on peel targets.
const (
	UniformEnabled       = "peelEnabled"
	UniformOpaqueUnit    = "peelOpaqueDepthUnit"
	UniformPreviousUnit  = "peelPreviousDepthUnit"
	UniformDepthOffset   = "peelDepthOffset"
	UniformLayer         = "peelLayer"
	UniformUseAlpha      = "useAlpha"
	UniformAlpha         = "alpha"
	TextureOpaqueDepth   = "opaqueDepth"
	TexturePreviousDepth = "previousDepth"
)

// ShaderModules are the modules a peel target needs attached.
var ShaderModules = []string{"depth-peel.vert", "depth-peel.frag"}

// Controller configures state sets for depth peeling.
type Controller interface {
	// ConfigureAsPeelTarget attaches the peel shader modules, forces blending
	// off, discards fragments with alpha <= 0, seeds the peel uniforms and enables peeling.
	ConfigureAsPeelTarget(ss state_set.StateSet)

	// Enable moves ss into the peel render bin and sets the enable uniform.
	Enable(ss state_set.StateSet)

	// Disable removes ss from the peel render bin and clears the enable uniform.
	// The rest of the peel configuration is kept.
	Disable(ss state_set.StateSet)

	// Enabled reports whether ss is currently peeled.
	Enabled(ss state_set.StateSet) bool

	// SetTransparency makes the object under ss blend with a fixed alpha.
	SetTransparency(ss state_set.StateSet, alpha float32)

	// ClearTransparency returns the object under ss to its own alpha.
	ClearTransparency(ss state_set.StateSet)

	// DepthOffset returns the bias seeded on peel targets.
	DepthOffset() float32
}

type controllerImpl struct {
	depthOffset float32
}

var _ Controller = &controllerImpl{}

// NewController creates a Controller.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Controller: the controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controllerImpl{depthOffset: DefaultDepthOffset}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *controllerImpl) ConfigureAsPeelTarget(ss state_set.StateSet) {
	for _, m := range ShaderModules {
		ss.AddShaderModule(m)
	}
	ss.SetMode(state_set.ModeBlend, false, true)
	ss.SetAlphaTest(state_set.AlphaTest{Func: state_set.CompareGreater, Ref: 0})
	ss.SetUniform(UniformOpaqueUnit, OpaqueDepthUnit)
	ss.SetUniform(UniformPreviousUnit, PreviousDepthUnit)
	ss.SetUniform(UniformDepthOffset, c.depthOffset)
	c.Enable(ss)
}

func (c *controllerImpl) Enable(ss state_set.StateSet) {
	ss.SetRenderBin(RenderBinNumber, RenderBinName)
	ss.SetUniform(UniformEnabled, true)
}

func (c *controllerImpl) Disable(ss state_set.StateSet) {
	ss.ClearRenderBin()
	ss.SetUniform(UniformEnabled, false)
}

func (c *controllerImpl) Enabled(ss state_set.StateSet) bool {
	v, ok := ss.Uniform(UniformEnabled)
	if !ok {
		return false
	}
	on, _ := v.(bool)
	return on
}

func (c *controllerImpl) SetTransparency(ss state_set.StateSet, alpha float32) {
	ss.SetUniform(UniformUseAlpha, true)
	ss.SetUniform(UniformAlpha, common.Clamp(alpha, 0, 1))
}

func (c *controllerImpl) ClearTransparency(ss state_set.StateSet) {
	ss.SetUniform(UniformUseAlpha, false)
	ss.SetUniform(UniformAlpha, float32(1))
}

func (c *controllerImpl) DepthOffset() float32 {
	return c.depthOffset
}
