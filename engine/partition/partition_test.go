package partition

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePartitions_CoversRangeBackToFront(t *testing.T) {
	cases := []struct {
		near, far, ratio float32
		requested        int
	}{
		{1, 1e6, DefaultRatio, 0},
		{0.1, 100, 0.01, 0},
		{1, 1000, DefaultRatio, 3},
		{2, 2e7, 0.001, 0},
	}
	for _, tc := range cases {
		parts, err := ComputePartitions(tc.near, tc.far, tc.ratio, tc.requested)
		require.NoError(t, err)
		require.NotEmpty(t, parts)

		assert.Equal(t, tc.far, parts[0].Far)
		assert.Equal(t, tc.near, parts[len(parts)-1].Near)
		for i, p := range parts {
			assert.Equal(t, i, p.Order)
			assert.Less(t, p.Near, p.Far)
			if i > 0 {
				assert.Equal(t, parts[i-1].Near, p.Far, "partitions %d and %d must share a boundary", i-1, i)
			}
		}
	}
}

func TestComputePartitions_AutomaticCount(t *testing.T) {
	parts, err := ComputePartitions(1, 1e6, 0.001, 0)
	require.NoError(t, err)
	assert.Len(t, parts, 2)
	assert.InDelta(t, 1000, parts[0].Near, 0.5)

	parts, err = ComputePartitions(1, 1e6, 0.01, 0)
	require.NoError(t, err)
	assert.Len(t, parts, 3)

	n, err := Count(1, 1e30, 0.9, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxPartitions, n)
}

func TestComputePartitions_RangeWithinRatioIsSinglePartition(t *testing.T) {
	parts, err := ComputePartitions(10, 12, DefaultRatio, 0)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, Partition{Near: 10, Far: 12, Order: 0}, parts[0])
}

func TestComputePartitions_EachSpanRespectsRatio(t *testing.T) {
	parts, err := ComputePartitions(0.5, 5e5, 0.01, 0)
	require.NoError(t, err)
	for _, p := range parts {
		assert.GreaterOrEqual(t, float64(p.Near/p.Far), 0.01*(1-1e-4))
	}
}

func TestComputePartitions_RequestedCountIsExact(t *testing.T) {
	parts, err := ComputePartitions(1, 10, 0.5, 5)
	require.NoError(t, err)
	assert.Len(t, parts, 5)
}

func TestComputePartitions_InvalidInput(t *testing.T) {
	_, err := ComputePartitions(0, 10, DefaultRatio, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = ComputePartitions(10, 10, DefaultRatio, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = ComputePartitions(1, float32(math.Inf(1)), DefaultRatio, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = ComputePartitions(1, 10, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidRatio)
	_, err = ComputePartitions(1, 10, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidRatio)
	_, err = ComputePartitions(1, 10, DefaultRatio, -1)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = ComputePartitions(1, 10, DefaultRatio, MaxPartitions+1)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestComputePartitions_ThinRangeMergesDegeneratePartitions(t *testing.T) {
	parts, err := ComputePartitions(1, 1.000001, 0, MaxPartitions)
	require.NoError(t, err)
	require.NotEmpty(t, parts)
	assert.Less(t, len(parts), MaxPartitions)
	assert.Equal(t, float32(1.000001), parts[0].Far)
	assert.Equal(t, float32(1), parts[len(parts)-1].Near)
	for i, p := range parts {
		assert.Less(t, p.Near, p.Far)
		assert.Equal(t, i, p.Order)
		if i > 0 {
			assert.Equal(t, parts[i-1].Near, p.Far)
		}
	}
}

func recordingDrawable(passes *[]stage.DrawContext) stage.Drawable {
	return stage.DrawableFunc(func(dc *stage.DrawContext) {
		*passes = append(*passes, *dc)
	})
}

func TestStage_DrawsOncePerPartition(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	cam := camera.NewCamera(camera.WithNear(1), camera.WithFar(1e6))
	s := NewStage("p", 0.001, 0, stage.DefaultRenderState())
	s.SetCamera(cam)

	var passes []stage.DrawContext
	s.AddDrawable(recordingDrawable(&passes))
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})

	parts := s.LastPartitions()
	require.Len(t, passes, 2)
	require.Len(t, parts, 2)
	for i, dc := range passes {
		assert.Equal(t, stage.PassPartition, dc.Pass)
		assert.Equal(t, i, dc.Index)
		near, far := common.DepthRange(dc.Projection)
		assert.InDelta(t, parts[i].Near, near, float64(parts[i].Near)*1e-2)
		assert.InDelta(t, parts[i].Far, far, float64(parts[i].Far)*5e-2)
		assert.Equal(t, parts[i].Near, dc.Uniforms["partitionNear"])
	}
	// one stage clear plus one depth clear per partition
	assert.Equal(t, 3, dev.CountCalls("clear:"))
}

func TestStage_InvalidConfigurationFallsBackToSinglePass(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	cam := camera.NewCamera(camera.WithNear(1), camera.WithFar(100))
	s := NewStage("p", 2, 0, stage.DefaultRenderState())
	s.SetCamera(cam)

	var passes []stage.DrawContext
	s.AddDrawable(recordingDrawable(&passes))
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})

	require.Len(t, passes, 1)
	assert.Equal(t, cam.ProjectionMatrix(), passes[0].Projection)

	s.SetRatio(0.5)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
	assert.Len(t, s.LastPartitions(), 7)
}

func TestStage_WithoutCameraDrawsOnce(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	s := NewStage("p", DefaultRatio, 4, stage.DefaultRenderState())
	var passes []stage.DrawContext
	s.AddDrawable(recordingDrawable(&passes))
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Len(t, passes, 1)
}

func TestStage_DebugVisualTintsPartitions(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	st := stage.DefaultRenderState()
	st.Debug = stage.DebugVisual
	s := NewStage("p", DefaultRatio, 2, st)
	s.SetCamera(camera.NewCamera(camera.WithNear(1), camera.WithFar(10)))
	var passes []stage.DrawContext
	s.AddDrawable(recordingDrawable(&passes))
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})

	require.Len(t, passes, 2)
	assert.NotEqual(t, passes[0].Uniforms["partitionTint"], passes[1].Uniforms["partitionTint"])
}

func TestNode_InjectsPartitionStage(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	var passes []stage.DrawContext
	leaf := traversal.NewGroup("leaf", traversal.WithDrawables(recordingDrawable(&passes)))
	n := NewNode("terrain", WithCount(3), WithChildren(leaf))
	cam := camera.NewCamera(camera.WithNear(1), camera.WithFar(1000))

	root := stage.NewRenderStage("root")
	v := traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{Width: 2, Height: 2}, cam)
	n.Accept(v)
	require.Equal(t, 1, n.Stages().Len())
	require.Len(t, root.Graph().Stages(stage.PostRender), 1)

	root.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Len(t, passes, 3)

	n.SetCount(0)
	assert.Equal(t, 0, n.Count())
	n.SetRatio(0.1)
	assert.Equal(t, float32(0.1), n.Ratio())
	n.Stages().Range(func(_ traversal.ContextKey, s Stage) bool {
		s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
		assert.Len(t, s.LastPartitions(), 3)
		return true
	})

	n.Release(dev)
	assert.Equal(t, 0, n.Stages().Len())
}
