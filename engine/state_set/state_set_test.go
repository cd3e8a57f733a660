package state_set

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateSet_ShaderModulesAreUnique(t *testing.T) {
	ss := NewStateSet()
	assert.True(t, ss.AddShaderModule("peel"))
	assert.False(t, ss.AddShaderModule("peel"))
	assert.True(t, ss.AddShaderModule("fog"))
	assert.Equal(t, []string{"peel", "fog"}, ss.ShaderModules())

	assert.True(t, ss.RemoveShaderModule("peel"))
	assert.False(t, ss.RemoveShaderModule("peel"))
	assert.Equal(t, []string{"fog"}, ss.ShaderModules())
}

func TestStateSet_SnapshotIsDeepCopy(t *testing.T) {
	ss := NewStateSet()
	ss.SetUniform("a", float32(1))
	ss.SetRenderBin(10, "DepthPeel")
	snap := ss.Snapshot()

	ss.SetUniform("a", float32(2))
	ss.ClearRenderBin()

	assert.Equal(t, float32(1), snap.Uniforms["a"])
	require.NotNil(t, snap.RenderBin)
	assert.Equal(t, RenderBin{Number: 10, Name: "DepthPeel"}, *snap.RenderBin)
}

func TestStateSet_ApplyPushesState(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	tex, err := dev.CreateTexture(gpu.TextureDescriptor{Label: "shadow", Width: 1, Height: 1})
	require.NoError(t, err)

	ss := NewStateSet()
	ss.SetUniform("exposure", float32(1.5))
	ss.SetTexture(3, tex)
	ss.SetMode(ModeBlend, false, true)
	ss.Apply(dev)

	assert.Equal(t, float32(1.5), dev.Uniform("exposure"))
	assert.Equal(t, 1, dev.CountCalls("bind-texture:3:shadow"))
	assert.Equal(t, 1, dev.CountCalls("blend:0"))
}

func TestAlphaTest_Passes(t *testing.T) {
	discardClear := AlphaTest{Func: CompareGreater, Ref: 0}
	assert.False(t, discardClear.Passes(0))
	assert.True(t, discardClear.Passes(0.01))
	assert.True(t, AlphaTest{}.Passes(0))
}

func TestResolve_OuterOverrideWins(t *testing.T) {
	outer := NewStateSet()
	outer.SetMode(ModeBlend, false, true)
	outer.SetMode(ModeDepthTest, true, false)
	outer.SetUniform("alpha", float32(1))
	outer.AddShaderModule("peel")
	outer.SetAlphaTest(AlphaTest{Func: CompareGreater})

	inner := NewStateSet()
	inner.SetMode(ModeBlend, true, false)
	inner.SetMode(ModeDepthTest, false, false)
	inner.SetUniform("alpha", float32(0.5))
	inner.AddShaderModule("fog")
	inner.AddShaderModule("peel")

	got := Resolve([]StateSet{outer, inner})
	assert.Equal(t, ModeSetting{On: false, Override: true}, got.Modes[ModeBlend])
	assert.Equal(t, ModeSetting{On: false}, got.Modes[ModeDepthTest])
	assert.Equal(t, float32(0.5), got.Uniforms["alpha"])
	assert.Equal(t, []string{"peel", "fog"}, got.ShaderModules)
	require.NotNil(t, got.AlphaTest)
	assert.Equal(t, CompareGreater, got.AlphaTest.Func)
}

func TestStateSet_ApplyPublishesAlphaTest(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	ss := NewStateSet()
	ss.SetAlphaTest(AlphaTest{Func: CompareGreater, Ref: 0.25})
	ss.Apply(dev)

	assert.Equal(t, gpu.CompareGreater, dev.Uniform(gpu.UniformAlphaTestFunc))
	assert.Equal(t, float32(0.25), dev.Uniform(gpu.UniformAlphaTestRef))
}
