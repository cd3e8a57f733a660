package stage

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plotAll(c common.Color) Drawable {
	return DrawableFunc(func(dc *DrawContext) {
		dev := dc.Render.Device.(gpu.SoftDevice)
		for y := 0; y < dc.Viewport.Height; y++ {
			for x := 0; x < dc.Viewport.Width; x++ {
				dev.Plot(dc.Viewport.X+x, dc.Viewport.Y+y, 0.5, c)
			}
		}
	})
}

func TestRenderStage_DrawsOncePerEpoch(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	s := NewRenderStage("root")
	draws := 0
	s.AddDrawable(DrawableFunc(func(*DrawContext) { draws++ }))

	rc := &RenderContext{Device: dev, Epoch: 1}
	s.Draw(rc)
	s.Draw(rc)
	assert.Equal(t, 1, draws)
	assert.Equal(t, 1, dev.CountCalls("clear:"))
	assert.True(t, s.Drawn(1))

	s.Reset()
	assert.False(t, s.Drawn(1))
	s.AddDrawable(DrawableFunc(func(*DrawContext) { draws++ }))
	s.Draw(rc)
	assert.Equal(t, 2, draws)
	assert.Equal(t, 2, dev.CountCalls("clear:"))
}

func TestRenderStage_NewEpochDrawsAgain(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	s := NewRenderStage("root")
	draws := 0
	s.AddDrawable(DrawableFunc(func(*DrawContext) { draws++ }))

	s.Draw(&RenderContext{Device: dev, Epoch: 1})
	s.Draw(&RenderContext{Device: dev, Epoch: 2})
	assert.Equal(t, 2, draws)
}

func TestBase_DependenciesDrawInOrder(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	var order []string
	record := func(name string) Stage {
		s := NewRenderStage(name)
		s.AddDrawable(DrawableFunc(func(*DrawContext) { order = append(order, name) }))
		return s
	}

	root := record("root")
	late := record("late")
	early := record("early")
	after := record("after")
	root.RegisterPreRender(late, 5)
	root.RegisterPreRender(early, 1)
	root.RegisterPostRender(after, 0)

	root.Draw(&RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, []string{"early", "late", "root", "after"}, order)
}

func TestBase_SharedDependencyDrawsOnce(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	draws := 0
	shared := NewRenderStage("shared")
	shared.AddDrawable(DrawableFunc(func(*DrawContext) { draws++ }))

	a := NewRenderStage("a")
	b := NewRenderStage("b")
	a.RegisterPreRender(shared, 0)
	b.RegisterPreRender(shared, 0)

	rc := &RenderContext{Device: dev, Epoch: 7}
	a.Draw(rc)
	b.Draw(rc)
	assert.Equal(t, 1, draws)
}

func TestBase_TargetFallback(t *testing.T) {
	dev := gpu.NewSoftDevice(4, 4)
	own := newFramebuffer(t, dev, "own", 2, 2)
	owner := newFramebuffer(t, dev, "owner", 3, 3)

	s := NewRenderStage("s")
	assert.Nil(t, s.Target())

	s.SetOwnerFramebuffer(owner)
	assert.Equal(t, owner, s.Target())

	st := s.RenderState()
	st.Framebuffer = own
	s.SetRenderState(st)
	assert.Equal(t, own, s.Target())
}

func TestBase_ViewportDefaultsToTargetSize(t *testing.T) {
	dev := gpu.NewSoftDevice(4, 3)
	s := NewRenderStage("s")
	s.Draw(&RenderContext{Device: dev, Epoch: 1})
	assert.Contains(t, dev.Calls(), "viewport:"+common.Viewport{Width: 4, Height: 3}.String())

	vp := common.Viewport{X: 1, Y: 1, Width: 2, Height: 2}
	s.Reset()
	s.SetViewport(vp)
	s.Draw(&RenderContext{Device: dev, Epoch: 1})
	assert.Contains(t, dev.Calls(), "viewport:"+vp.String())
}

func TestBase_ClearModes(t *testing.T) {
	red := common.Color{1, 0, 0, 1}

	t.Run("color", func(t *testing.T) {
		dev := gpu.NewSoftDevice(2, 2)
		st := DefaultRenderState()
		st.ClearColor = red
		s := NewRenderStage("s", WithRenderState(st))
		s.Draw(&RenderContext{Device: dev, Epoch: 1})
		assert.Equal(t, red, dev.Pixel(nil, 1, 1))
	})

	t.Run("none", func(t *testing.T) {
		dev := gpu.NewSoftDevice(2, 2)
		st := DefaultRenderState()
		st.ClearMode = ClearModeNone
		s := NewRenderStage("s", WithRenderState(st))
		s.Draw(&RenderContext{Device: dev, Epoch: 1})
		assert.Equal(t, 0, dev.CountCalls("clear:"))
	})

	t.Run("image", func(t *testing.T) {
		dev := gpu.NewSoftDevice(2, 2)
		img, err := dev.CreateTexture(gpu.TextureDescriptor{Label: "backdrop", Width: 1, Height: 1})
		require.NoError(t, err)
		require.NoError(t, dev.WriteTexture(img, []byte{0, 255, 0, 255}))

		st := DefaultRenderState()
		st.ClearMode = ClearModeImage
		st.ClearImage = img
		s := NewRenderStage("s", WithRenderState(st))
		s.Draw(&RenderContext{Device: dev, Epoch: 1})

		assert.Equal(t, common.Color{0, 1, 0, 1}, dev.Pixel(nil, 0, 0))
		assert.Equal(t, float32(1), dev.DepthAt(nil, 0, 0))
		assert.Equal(t, 1, dev.CountCalls("clear:"))

		s.Release(dev)
		assert.Equal(t, 0, gpu.Shared().QuadRefs(dev))
	})

	t.Run("image without texture falls back to color", func(t *testing.T) {
		dev := gpu.NewSoftDevice(2, 2)
		st := DefaultRenderState()
		st.ClearMode = ClearModeImage
		st.ClearColor = red
		s := NewRenderStage("s", WithRenderState(st))
		s.Draw(&RenderContext{Device: dev, Epoch: 1})
		assert.Equal(t, red, dev.Pixel(nil, 0, 0))
	})
}

func TestBase_DrawContextCarriesCamera(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	cam := camera.NewCamera(camera.WithNear(1), camera.WithFar(10))
	s := NewRenderStage("s", WithCamera(cam))

	var got *DrawContext
	s.AddDrawable(DrawableFunc(func(dc *DrawContext) { got = dc }))
	s.Draw(&RenderContext{Device: dev, Epoch: 1})

	require.NotNil(t, got)
	assert.Equal(t, PassMain, got.Pass)
	assert.Equal(t, cam.ProjectionMatrix(), got.Projection)
	assert.Equal(t, cam.ViewMatrix(), got.View)
}

func TestBase_RenderOrderPrefersCamera(t *testing.T) {
	st := DefaultRenderState()
	st.RenderOrder = 3
	s := NewRenderStage("s", WithRenderState(st))
	assert.Equal(t, 3, s.RenderOrder())

	s.SetCamera(camera.NewCamera(camera.WithRenderOrder(-2)))
	assert.Equal(t, -2, s.RenderOrder())
}

func TestBase_ProfileFlagReportsTiming(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	st := DefaultRenderState()
	st.Debug = DebugProfile
	s := NewRenderStage("timed", WithRenderState(st))
	timer := profiler.NewStageTimer(0)

	s.Draw(&RenderContext{Device: dev, Epoch: 1, Timer: timer})
	snap := timer.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "timed", snap[0].Name)
	assert.Equal(t, 1, snap[0].Count)
}

func TestBase_PlotsIntoTarget(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	blue := common.Color{0, 0, 1, 1}
	s := NewRenderStage("s")
	s.AddDrawable(plotAll(blue))
	s.Draw(&RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, blue, dev.Pixel(nil, 1, 0))
}

func newFramebuffer(t *testing.T, dev gpu.Device, label string, w, h int) gpu.Framebuffer {
	t.Helper()
	color, err := dev.CreateTexture(gpu.TextureDescriptor{Label: label + "-color", Width: w, Height: h})
	require.NoError(t, err)
	depth, err := dev.CreateTexture(gpu.TextureDescriptor{Label: label + "-depth", Width: w, Height: h, Format: gpu.TextureFormatDepth32Float})
	require.NoError(t, err)
	fb, err := dev.CreateFramebuffer(label, color, depth)
	require.NoError(t, err)
	return fb
}

type sphere struct {
	DrawableFunc
	center mgl.Vec3
	radius float32
}

func (s sphere) Bounds() (mgl.Vec3, float32) {
	return s.center, s.radius
}

type wrapper struct {
	Drawable
}

func (w wrapper) Unwrap() Drawable {
	return w.Drawable
}

func TestBoundsOf_LooksThroughWrappers(t *testing.T) {
	inner := sphere{DrawableFunc: func(*DrawContext) {}, center: mgl.Vec3{1, 2, 3}, radius: 4}
	c, r, ok := BoundsOf(wrapper{wrapper{inner}})
	require.True(t, ok)
	assert.Equal(t, mgl.Vec3{1, 2, 3}, c)
	assert.Equal(t, float32(4), r)

	_, _, ok = BoundsOf(DrawableFunc(func(*DrawContext) {}))
	assert.False(t, ok)
}
