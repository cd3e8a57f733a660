package effect

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlow_IntermediatesBuiltLazily(t *testing.T) {
	dev, programs := newTestDevice(4, 4)
	g := NewGlow("glow", WithGlowSize(4, 4))
	h, v := g.Intermediates()
	assert.Nil(t, h)
	assert.Nil(t, v)
	assert.Equal(t, 0, dev.Allocations())

	require.True(t, g.Draw(env(dev, programs)))
	h, v = g.Intermediates()
	require.NotNil(t, h)
	require.NotNil(t, v)
	assert.Equal(t, 2, dev.Allocations())
}

func TestGlow_ResizeRebuildsIntermediates(t *testing.T) {
	dev, programs := newTestDevice(8, 8)
	g := NewGlow("glow", WithGlowSize(4, 4))
	require.True(t, g.Draw(env(dev, programs)))
	oldH, _ := g.Intermediates()

	g.SetTextureSize(8, 6)
	h, v := g.Intermediates()
	assert.Nil(t, h)
	assert.Nil(t, v)

	require.True(t, g.Draw(env(dev, programs)))
	h, v = g.Intermediates()
	require.NotNil(t, h)
	require.NotNil(t, v)
	assert.NotSame(t, oldH, h)
	for _, tex := range []gpu.Texture{h, v} {
		assert.Equal(t, 8, tex.Width())
		assert.Equal(t, 6, tex.Height())
	}
	assert.Contains(t, dev.Calls(), "release:glow-blur-h")
	assert.Contains(t, dev.Calls(), "release:glow-blur-v")
}

func TestGlow_SameSizeKeepsIntermediates(t *testing.T) {
	dev, programs := newTestDevice(4, 4)
	g := NewGlow("glow")
	g.SetTextureSize(4, 4)
	g.Draw(env(dev, programs))
	h, _ := g.Intermediates()
	g.SetTextureSize(4, 4)
	g.Draw(env(dev, programs))
	again, _ := g.Intermediates()
	assert.Same(t, h, again)
}

func TestGlow_ThreePassesCombineOverBase(t *testing.T) {
	dev, programs := newTestDevice(4, 4)
	base := solidTexture(t, dev, "base", 4, 4, common.Color{0, 0, 1, 1})
	glowMap := solidTexture(t, dev, "glow-map", 4, 4, common.Color{1, 0, 0, 1})
	out := colorTarget(t, dev, "out", 4, 4)

	g := NewGlow("glow", WithGlowMap(glowMap), WithGlowBase(base), WithGlowIntensity(0.5))
	g.SetOutput(out)
	dev.ResetCalls()
	require.True(t, g.Draw(env(dev, programs)))

	assert.Equal(t, 1, dev.CountCalls("bind-program:"+ProgramGlowBlurH))
	assert.Equal(t, 1, dev.CountCalls("bind-program:"+ProgramGlowBlurV))
	assert.Equal(t, 1, dev.CountCalls("bind-program:"+ProgramGlowCombine))
	assert.Equal(t, 3, dev.CountCalls("draw:"))

	// A uniform glow map blurs to itself up to the kernel's rounding.
	px := dev.Pixel(out, 2, 2)
	assert.InDelta(t, 0.5, px[0], 1e-3)
	assert.InDelta(t, 0, px[1], 1e-6)
	assert.InDelta(t, 1, px[2], 1e-6)
	assert.Equal(t, []Input{{Unit: GlowMapUnit, Texture: glowMap}, {Unit: GlowBaseUnit, Texture: base}}, g.Inputs())
}

func TestGlow_AllocationFailurePassesBaseThrough(t *testing.T) {
	dev, programs := newTestDevice(2, 2)
	base := solidTexture(t, dev, "base", 2, 2, red)
	g := NewGlow("glow", WithGlowBase(base))
	_, err := gpu.Shared().AcquireQuad(dev)
	require.NoError(t, err)
	defer gpu.Shared().ReleaseQuad(dev)
	invert := NewUnit("invert", WithProgram("invert"), WithInput(0, base))
	require.True(t, invert.Draw(env(dev, programs)))
	require.NotEqual(t, red, dev.Pixel(nil, 0, 0))
	dev.FailAllocations(true)

	assert.False(t, g.Draw(env(dev, programs)))
	assert.Equal(t, red, dev.Pixel(nil, 0, 0))
	allocs := dev.Allocations()

	assert.False(t, g.Draw(env(dev, programs)))
	assert.Equal(t, allocs, dev.Allocations())

	dev.FailAllocations(false)
	g.SetTextureSize(2, 2)
	assert.True(t, g.Draw(env(dev, programs)))
}

func TestDepthOfField_FocusedPixelsStaySharp(t *testing.T) {
	dev, programs := newTestDevice(3, 3)
	color := solidTexture(t, dev, "color", 3, 3, common.Color{0, 0, 0, 1})
	depthTex, err := dev.CreateTexture(gpu.TextureDescriptor{Label: "depth", Width: 3, Height: 3, Format: gpu.TextureFormatDepth32Float})
	require.NoError(t, err)
	depthFB, err := dev.CreateFramebuffer("depth", nil, depthTex)
	require.NoError(t, err)
	dev.BindFramebuffer(depthFB)
	// Linear distance 2 with near 1, far 3 maps to depth 0.75.
	dev.Clear(gpu.ClearDepth, common.Black, 0.75)
	dev.BindFramebuffer(nil)

	dof := NewDepthOfField("dof", WithSceneInputs(color, depthTex), WithDepthRange(1, 3), WithFocus(2, 1))
	require.True(t, dof.Draw(env(dev, programs)))
	px := dev.Pixel(nil, 1, 1)
	assert.InDeltaSlice(t, []float32{0, 0, 0, 1}, px[:], 1e-5)
	assert.Equal(t, 2, dev.CountCalls("draw:"))

	dof.SetFocus(100, 1)
	assert.Len(t, dof.Inputs(), 2)
	dof.Release(dev)
}

func TestToneMap_AppliesExposureAndGamma(t *testing.T) {
	dev, programs := newTestDevice(1, 1)
	in := solidTexture(t, dev, "hdr", 1, 1, common.Color{1, 0, 0, 1})
	tm := NewToneMap("tonemap", 1, 1, WithInput(0, in))
	require.True(t, tm.Draw(env(dev, programs)))
	assert.InDelta(t, 0.6321, dev.Pixel(nil, 0, 0)[0], 1e-3)
	assert.Equal(t, ProgramToneMap, tm.Program())
}

func TestPrograms_DeclareEveryBuiltInProgram(t *testing.T) {
	names := map[string]bool{}
	for _, src := range Programs() {
		assert.NotEmpty(t, src.Fragment, src.Name)
		names[src.Name] = true
	}
	for name := range SoftPrograms() {
		assert.True(t, names[name], name)
	}
}
