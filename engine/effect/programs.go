package effect

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

const blurFragmentWGSL = `
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var samp0: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	var weights = array<f32, 5>(0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216);
	let texel = %s / vec2<f32>(textureDimensions(tex0));
	var sum = textureSample(tex0, samp0, uv) * weights[0];
	for (var i = 1; i < 5; i++) {
		let offset = texel * f32(i);
		sum += textureSample(tex0, samp0, uv + offset) * weights[i];
		sum += textureSample(tex0, samp0, uv - offset) * weights[i];
	}
	return sum;
}
`

const glowCombineFragmentWGSL = `
struct Params {
	intensity: vec4<f32>,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var samp0: sampler;
@group(0) @binding(3) var tex1: texture_2d<f32>;
@group(0) @binding(4) var samp1: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	let glow = textureSample(tex0, samp0, uv);
	let base = textureSample(tex1, samp1, uv);
	return vec4<f32>(base.rgb + glow.rgb * params.intensity.x, base.a);
}
`

const dofBlurFragmentWGSL = `
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var samp0: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	let texel = 1.0 / vec2<f32>(textureDimensions(tex0));
	var sum = vec4<f32>(0.0);
	for (var y = -1; y <= 1; y++) {
		for (var x = -1; x <= 1; x++) {
			sum += textureSample(tex0, samp0, uv + vec2<f32>(f32(x), f32(y)) * texel);
		}
	}
	return sum / 9.0;
}
`

const dofCombineFragmentWGSL = `
struct Params {
	focalDistance: vec4<f32>,
	focalRange: vec4<f32>,
	near: vec4<f32>,
	far: vec4<f32>,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var samp0: sampler;
@group(0) @binding(3) var tex1: texture_2d<f32>;
@group(0) @binding(4) var samp1: sampler;
@group(0) @binding(5) var depth2: texture_depth_2d;
@group(0) @binding(6) var samp2: sampler_comparison;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	let size = vec2<f32>(textureDimensions(depth2));
	let coord = clamp(vec2<i32>(uv * size), vec2<i32>(0), vec2<i32>(size) - 1);
	let d = textureLoad(depth2, coord, 0);
	let n = params.near.x;
	let f = params.far.x;
	let dist = n * f / (f - d * (f - n));
	let blur = clamp(abs(dist - params.focalDistance.x) / max(params.focalRange.x, 0.0001), 0.0, 1.0);
	let sharp = textureSample(tex0, samp0, uv);
	let soft = textureSample(tex1, samp1, uv);
	return mix(sharp, soft, blur);
}
`

const toneMapFragmentWGSL = `
struct Params {
	exposure: vec4<f32>,
	gamma: vec4<f32>,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var samp0: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	let c = textureSample(tex0, samp0, uv);
	let mapped = vec3<f32>(1.0) - exp(-c.rgb * params.exposure.x);
	return vec4<f32>(pow(mapped, vec3<f32>(1.0 / params.gamma.x)), c.a);
}
`

// Programs returns the sources of every program the built-in effects use,
// for registration with a shader provider.
func Programs() []gpu.ProgramSource {
	return []gpu.ProgramSource{
		{
			Name:         ProgramGlowBlurH,
			Fragment:     fmt.Sprintf(blurFragmentWGSL, "vec2<f32>(1.0, 0.0)"),
			TextureUnits: 1,
		},
		{
			Name:         ProgramGlowBlurV,
			Fragment:     fmt.Sprintf(blurFragmentWGSL, "vec2<f32>(0.0, 1.0)"),
			TextureUnits: 1,
		},
		{
			Name:         ProgramGlowCombine,
			Fragment:     glowCombineFragmentWGSL,
			Uniforms:     []gpu.Uniform{{Name: "intensity"}},
			TextureUnits: 2,
		},
		{
			Name:         ProgramDOFBlur,
			Fragment:     dofBlurFragmentWGSL,
			TextureUnits: 1,
		},
		{
			Name:     ProgramDOFCombine,
			Fragment: dofCombineFragmentWGSL,
			Uniforms: []gpu.Uniform{
				{Name: "focalDistance"},
				{Name: "focalRange"},
				{Name: "near"},
				{Name: "far"},
			},
			TextureUnits: 3,
			DepthUnits:   []int{dofCombineDepth},
		},
		{
			Name:         ProgramToneMap,
			Fragment:     toneMapFragmentWGSL,
			Uniforms:     []gpu.Uniform{{Name: "exposure"}, {Name: "gamma"}},
			TextureUnits: 1,
		},
	}
}
