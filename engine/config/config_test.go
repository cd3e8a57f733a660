package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/effect"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/light"
	"github.com/Carmen-Shannon/oxy-fx/engine/partition"
	"github.com/Carmen-Shannon/oxy-fx/engine/peel"
	"github.com/Carmen-Shannon/oxy-fx/engine/shadow"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log:
  level: debug
  format: json
render:
  clear_mode: none
  clear_mask: [depth]
  clear_color: [0.1, 0.2, 0.3]
  clear_depth: 0.5
  debug: [console, visual]
  render_order: 4
effects:
  - name: glow
    enabled: false
  - name: tone
    enabled: true
partition:
  ratio: 0.01
  count: 3
peel:
  enabled: false
  max_layers: 4
  depth_offset: 0.002
shadows:
  - light: sun
    enabled: false
    resolution: 512
shaders:
  dir: shaders
  validate: false
frame:
  workers: 2
`

func TestParse_RenderState(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	st, err := s.RenderState()
	require.NoError(t, err)
	assert.Equal(t, stage.ClearModeNone, st.ClearMode)
	assert.Equal(t, gpu.ClearDepth, st.ClearMask)
	assert.Equal(t, common.Color{0.1, 0.2, 0.3, 1}, st.ClearColor)
	assert.Equal(t, float32(0.5), st.ClearDepth)
	assert.True(t, st.Debug.Has(stage.DebugConsole))
	assert.True(t, st.Debug.Has(stage.DebugVisual))
	assert.False(t, st.Debug.Has(stage.DebugImages))
	assert.Equal(t, 4, st.RenderOrder)
	assert.Equal(t, 2, s.Frame.Workers)
	assert.Len(t, s.ShaderOptions(), 2)
}

func TestParse_EmptyDocumentUsesDefaults(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)
	st, err := s.RenderState()
	require.NoError(t, err)
	assert.Equal(t, stage.DefaultRenderState(), st)
	assert.Empty(t, s.PeelStageOptions())
}

func TestParse_RejectsInvalidSettings(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":     "render:\n  clear_colour: [1, 1, 1]\n",
		"clear mode":      "render:\n  clear_mode: gradient\n",
		"clear mask":      "render:\n  clear_mask: [stencil]\n",
		"debug flag":      "render:\n  debug: [verbose]\n",
		"color length":    "render:\n  clear_color: [1, 1]\n",
		"ratio":           "partition:\n  ratio: 1.5\n",
		"count":           "partition:\n  count: -1\n",
		"count too large": "partition:\n  count: 100000\n",
		"peel layers":     "peel:\n  min_layers: 5\n  max_layers: 2\n",
		"repeated effect": "effects:\n  - name: glow\n  - name: glow\n",
		"log level":       "log:\n  level: loud\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Effects, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyChain(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	c := effect.NewChain(effect.WithEffects(effect.NewUnit("glow"), effect.NewUnit("tone")))
	require.NoError(t, s.ApplyChain(c))
	assert.False(t, c.Enabled("glow"))
	assert.True(t, c.Enabled("tone"))

	short := effect.NewChain(effect.WithEffects(effect.NewUnit("tone")))
	err = s.ApplyChain(short)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.True(t, short.Enabled("tone"))
}

func TestApplyPartitionAndPeel(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)

	pn := partition.NewNode("terrain")
	s.ApplyPartition(pn)
	assert.Equal(t, float32(0.01), pn.Ratio())
	assert.Equal(t, 3, pn.Count())

	peelNode := peel.NewNode("glass", peel.WithStageOptions(s.PeelStageOptions()...))
	require.True(t, peelNode.Enabled())
	s.ApplyPeel(peelNode)
	assert.False(t, peelNode.Enabled())
	assert.Len(t, s.PeelStageOptions(), 2)
}

func TestApplyShadows(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	c := shadow.NewController()
	sun := light.NewLight(light.LightTypeDirectional, light.WithName("sun"))
	e := c.AddLight(sun)

	require.NoError(t, s.ApplyShadows(c))
	assert.False(t, e.Enabled())
	assert.Equal(t, 512, e.Resolution())

	// already disabled: applying again is not an error
	require.NoError(t, s.ApplyShadows(c))

	err = s.ApplyShadows(shadow.NewController())
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestApplyLogging(t *testing.T) {
	defer common.SetLogger(nil)
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, s.ApplyLogging(&buf))
	common.Logger().Debug("hello", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewShaderProvider(t *testing.T) {
	s, err := Parse([]byte(sample))
	require.NoError(t, err)
	p, w, err := s.NewShaderProvider(context.Background())
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.Equal(t, "shaders", p.Dir())

	watched := &Settings{Shaders: ShaderSettings{Dir: t.TempDir(), Watch: true}}
	p, w, err = watched.NewShaderProvider(context.Background())
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, watched.Shaders.Dir, p.Dir())
	assert.NoError(t, w.Close())

	broken := &Settings{Shaders: ShaderSettings{Watch: true}}
	_, _, err = broken.NewShaderProvider(context.Background())
	assert.Error(t, err)
}
