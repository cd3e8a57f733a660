package frame

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/partition"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicNode struct{}

func (panicNode) Name() string             { return "broken" }
func (panicNode) Accept(traversal.Visitor) { panic("corrupt scene") }

type countingResetter struct{ n atomic.Int32 }

func (r *countingResetter) ResetAll() { r.n.Add(1) }

func viewer(scene traversal.Node) Viewer {
	return Viewer{
		Context:  traversal.NewContextKey(),
		Root:     stage.NewRenderStage("root"),
		Scene:    scene,
		Viewport: common.Viewport{Width: 2, Height: 2},
		Camera:   camera.NewCamera(camera.WithNear(1), camera.WithFar(1000)),
	}
}

func TestDriver_PreparesEveryViewerAndDrawsOnce(t *testing.T) {
	var draws atomic.Int32
	leaf := traversal.NewGroup("leaf", traversal.WithDrawables(stage.DrawableFunc(func(*stage.DrawContext) {
		draws.Add(1)
	})))
	terrain := partition.NewNode("terrain", partition.WithCount(2), partition.WithChildren(leaf))

	d := NewDriver(WithWorkers(2))
	d.AddResetter(terrain)
	for range 3 {
		d.AddViewer(viewer(terrain))
	}
	dev := gpu.NewSoftDevice(2, 2)

	epoch, err := d.Frame(context.Background(), dev)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
	assert.Equal(t, 3, terrain.Stages().Len())
	assert.Equal(t, int32(6), draws.Load())

	epoch, err = d.Frame(context.Background(), dev)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), epoch)
	assert.Equal(t, 3, terrain.Stages().Len())
	assert.Equal(t, int32(12), draws.Load())
	for _, v := range d.Viewers() {
		assert.True(t, v.Root.Drawn(2))
	}
}

func TestDriver_ResettersRunEveryFrame(t *testing.T) {
	r := &countingResetter{}
	d := NewDriver(WithWorkers(1))
	d.AddResetter(r)
	d.AddViewer(viewer(traversal.NewGroup("empty")))
	dev := gpu.NewSoftDevice(1, 1)
	for range 3 {
		_, err := d.Frame(context.Background(), dev)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), r.n.Load())
}

func TestDriver_FailedPreparationSkipsViewer(t *testing.T) {
	good := viewer(traversal.NewGroup("scene"))
	bad := viewer(panicNode{})
	d := NewDriver(WithWorkers(2))
	d.AddViewer(bad)
	d.AddViewer(good)

	_, err := d.Frame(context.Background(), gpu.NewSoftDevice(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt scene")
	assert.True(t, good.Root.Drawn(1))
	assert.False(t, bad.Root.Drawn(1))
}

func TestDriver_ViewerRegistry(t *testing.T) {
	d := NewDriver(WithWorkers(1))
	v := viewer(traversal.NewGroup("scene"))
	d.AddViewer(v)
	replacement := v
	replacement.Viewport = common.Viewport{Width: 8, Height: 8}
	d.AddViewer(replacement)
	require.Len(t, d.Viewers(), 1)
	assert.Equal(t, 8, d.Viewers()[0].Viewport.Width)

	assert.True(t, d.RemoveViewer(v.Context))
	assert.False(t, d.RemoveViewer(v.Context))
	assert.Panics(t, func() { d.AddViewer(Viewer{Context: traversal.NewContextKey()}) })
}

func TestDriver_CancelledFrameDoesNotDraw(t *testing.T) {
	clock := stage.NewFrameClock()
	d := NewDriver(WithWorkers(1), WithClock(clock))
	v := viewer(traversal.NewGroup("scene"))
	d.AddViewer(v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	epoch, err := d.Frame(ctx, gpu.NewSoftDevice(1, 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), epoch)
	assert.Equal(t, uint64(1), clock.Epoch())
	assert.False(t, v.Root.Drawn(1))

	assert.NoError(t, d.Run(ctx, gpu.NewSoftDevice(1, 1)))
	assert.Same(t, clock, d.Clock())
}
