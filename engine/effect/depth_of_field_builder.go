package effect

import "github.com/Carmen-Shannon/oxy-fx/engine/gpu"

// DepthOfFieldBuilderOption configures an effect created by NewDepthOfField.
type DepthOfFieldBuilderOption func(*depthOfFieldImpl)

// WithFocus sets the focal plane distance and the range over which blur ramps up.
func WithFocus(distance, rng float32) DepthOfFieldBuilderOption {
	return func(d *depthOfFieldImpl) {
		d.combine.uniforms["focalDistance"] = distance
		d.combine.uniforms["focalRange"] = rng
	}
}

// WithDepthRange sets the camera near and far used to linearize the depth input.
func WithDepthRange(near, far float32) DepthOfFieldBuilderOption {
	return func(d *depthOfFieldImpl) {
		d.combine.uniforms["near"] = near
		d.combine.uniforms["far"] = far
	}
}

// WithSceneInputs sets the color and depth inputs.
func WithSceneInputs(color, depth gpu.Texture) DepthOfFieldBuilderOption {
	return func(d *depthOfFieldImpl) {
		d.color, d.depth = color, depth
		d.blur.inputs[0] = color
		d.combine.inputs[dofCombineColor] = color
		d.combine.inputs[dofCombineDepth] = depth
	}
}
