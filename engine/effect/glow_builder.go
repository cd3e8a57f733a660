package effect

import "github.com/Carmen-Shannon/oxy-fx/engine/gpu"

// GlowBuilderOption configures a Glow created by NewGlow.
type GlowBuilderOption func(*glowImpl)

// WithGlowPrograms replaces the three pass programs.
func WithGlowPrograms(blurH, blurV, combine string) GlowBuilderOption {
	return func(g *glowImpl) {
		g.blurH.program = blurH
		g.blurV.program = blurV
		g.combine.program = combine
	}
}

// WithGlowMap sets the glow source texture.
func WithGlowMap(tex gpu.Texture) GlowBuilderOption {
	return func(g *glowImpl) {
		g.glowMap = tex
		g.blurH.inputs[0] = tex
	}
}

// WithGlowBase sets the base color texture.
func WithGlowBase(tex gpu.Texture) GlowBuilderOption {
	return func(g *glowImpl) {
		g.combine.inputs[GlowBaseUnit] = tex
	}
}

// WithGlowIntensity scales the blurred glow before it is added to the base color.
func WithGlowIntensity(intensity float32) GlowBuilderOption {
	return func(g *glowImpl) {
		g.combine.uniforms["intensity"] = intensity
	}
}

// WithGlowSize sets the intermediate size. Without it the target's size is used.
func WithGlowSize(width, height int) GlowBuilderOption {
	return func(g *glowImpl) {
		g.width, g.height = width, height
	}
}
