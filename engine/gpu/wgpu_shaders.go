package gpu

// fullscreenVertexWGSL emits a single oversized triangle covering the viewport.
// Programs whose source has no vertex stage use it.
const fullscreenVertexWGSL = `
struct VertexOut {
	@builtin(position) position: vec4<f32>,
	@location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOut {
	let p = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
	var out: VertexOut;
	out.position = vec4<f32>(p * 2.0 - 1.0, 0.0, 1.0);
	out.uv = vec2<f32>(p.x, 1.0 - p.y);
	return out;
}
`

// passthroughFragmentWGSL copies texture unit 0.
const passthroughFragmentWGSL = `
@group(0) @binding(1) var tex0: texture_2d<f32>;
@group(0) @binding(2) var samp0: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	return textureSample(tex0, samp0, uv);
}
`

// PassthroughSource is the program bound when BindProgram(nil) is called.
var PassthroughSource = ProgramSource{
	Name:         "passthrough",
	Vertex:       fullscreenVertexWGSL,
	Fragment:     passthroughFragmentWGSL,
	TextureUnits: 1,
}
