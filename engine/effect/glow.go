package effect

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

const (
	// GlowMapUnit is the input holding the glow source.
	GlowMapUnit = 0
	// GlowBaseUnit is the input holding the base color the blurred glow is added to.
	GlowBaseUnit = 1

	ProgramGlowBlurH   = "glow-blur-h"
	ProgramGlowBlurV   = "glow-blur-v"
	ProgramGlowCombine = "glow-combine"
)

// Glow is a three-pass effect: horizontal blur of the glow map, vertical blur
// of that, then a combine of the blurred glow with the base color.
type Glow interface {
	Effect

	// Intermediates returns the two blur targets, nil until the first draw.
	Intermediates() (horizontal, vertical gpu.Texture)
}

type glowImpl struct {
	mu      *sync.Mutex
	name    string
	blurH   *unitImpl
	blurV   *unitImpl
	combine *unitImpl
	targetH *intermediate
	targetV *intermediate
	width   int
	height  int
	glowMap gpu.Texture
	warned  *common.OnceLogger
}

var _ Glow = &glowImpl{}

// NewGlow creates a glow effect. Intermediate targets are built on the first draw.
//
// Parameters:
//   - name: the effect name
//   - options: builder options
//
// Returns:
//   - Glow: the effect
func NewGlow(name string, options ...GlowBuilderOption) Glow {
	g := &glowImpl{
		mu:      &sync.Mutex{},
		name:    name,
		blurH:   newUnit(name+"-blur-h", WithProgram(ProgramGlowBlurH)),
		blurV:   newUnit(name+"-blur-v", WithProgram(ProgramGlowBlurV)),
		combine: newUnit(name+"-combine", WithProgram(ProgramGlowCombine), WithUniform("intensity", float32(1))),
		targetH: newIntermediate(name+"-blur-h", gpu.TextureFormatRGBA16Float),
		targetV: newIntermediate(name+"-blur-v", gpu.TextureFormatRGBA16Float),
		warned:  common.NewOnceLogger(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *glowImpl) Name() string {
	return g.name
}

// SetProgram replaces the combine program.
func (g *glowImpl) SetProgram(name string) {
	g.combine.SetProgram(name)
}

func (g *glowImpl) Program() string {
	return g.combine.Program()
}

func (g *glowImpl) SetInput(unit int, tex gpu.Texture) {
	switch unit {
	case GlowMapUnit:
		g.mu.Lock()
		g.glowMap = tex
		g.mu.Unlock()
		g.blurH.SetInput(0, tex)
	default:
		g.combine.SetInput(unit, tex)
	}
	g.warned.Reset()
}

func (g *glowImpl) RemoveInput(unit int) bool {
	if unit == GlowMapUnit {
		g.mu.Lock()
		g.glowMap = nil
		g.mu.Unlock()
		return g.blurH.RemoveInput(0)
	}
	return g.combine.RemoveInput(unit)
}

func (g *glowImpl) Inputs() []Input {
	var out []Input
	g.mu.Lock()
	if g.glowMap != nil {
		out = append(out, Input{Unit: GlowMapUnit, Texture: g.glowMap})
	}
	g.mu.Unlock()
	for _, in := range g.combine.Inputs() {
		if in.Unit != GlowMapUnit {
			out = append(out, in)
		}
	}
	return out
}

func (g *glowImpl) SetOutput(fb gpu.Framebuffer) {
	g.combine.SetOutput(fb)
}

func (g *glowImpl) Output() gpu.Framebuffer {
	return g.combine.Output()
}

func (g *glowImpl) SetUniform(name string, value any) {
	g.blurH.SetUniform(name, value)
	g.blurV.SetUniform(name, value)
	g.combine.SetUniform(name, value)
}

// SetTextureSize invalidates both blur targets when the size changes.
func (g *glowImpl) SetTextureSize(width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if width == g.width && height == g.height {
		return
	}
	g.width, g.height = width, height
	g.targetH.invalidate()
	g.targetV.invalidate()
	g.warned.Reset()
}

func (g *glowImpl) Intermediates() (gpu.Texture, gpu.Texture) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.targetH.tex, g.targetV.tex
}

func (g *glowImpl) Draw(env *DrawEnv) bool {
	dev := env.Render.Device
	g.mu.Lock()
	w, h := g.width, g.height
	if w <= 0 || h <= 0 {
		w, h = gpu.FramebufferSize(dev, common.Coalesce(g.combine.Output(), env.Framebuffer))
	}
	fbH, errH := g.targetH.ensure(dev, w, h)
	fbV, errV := g.targetV.ensure(dev, w, h)
	texH, texV := g.targetH.tex, g.targetV.tex
	g.mu.Unlock()

	if err := common.Coalesce(errH, errV); err != nil {
		g.warned.Warn("intermediate", "glow skipped, passing base color through", "effect", g.name, "err", err)
		return g.passBase(env)
	}

	full := common.Viewport{Width: w, Height: h}
	g.blurH.SetOutput(fbH)
	g.blurV.SetOutput(fbV)
	g.blurV.SetInput(0, texH)
	g.combine.SetInput(GlowMapUnit, texV)

	pass := *env
	pass.Framebuffer = nil
	pass.Viewport = full
	ok := g.blurH.Draw(&pass)
	ok = g.blurV.Draw(&pass) && ok
	return g.combine.Draw(env) && ok
}

// passBase copies the base color to the target when the blur targets are unavailable.
func (g *glowImpl) passBase(env *DrawEnv) bool {
	base := newUnit(g.name + "-passthrough")
	base.SetOutput(g.combine.Output())
	for _, in := range g.combine.Inputs() {
		if in.Unit == GlowBaseUnit {
			base.SetInput(0, in.Texture)
		}
	}
	// A program-less unit keeps whatever the previous unit bound.
	env.Render.Device.BindProgram(nil)
	base.Draw(env)
	base.Release(env.Render.Device)
	return false
}

func (g *glowImpl) Release(dev gpu.Device) {
	g.mu.Lock()
	g.targetH.release(dev)
	g.targetV.release(dev)
	g.mu.Unlock()
	g.blurH.Release(dev)
	g.blurV.Release(dev)
	g.combine.Release(dev)
}
