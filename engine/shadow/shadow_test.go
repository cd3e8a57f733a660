package shadow

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/light"
	"github.com/Carmen-Shannon/oxy-fx/engine/location"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
	mgl "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// caster plots one fragment at (0,0) during shadow passes.
type caster struct {
	depth  float32
	center mgl.Vec3
	radius float32
	draws  int
}

func (c *caster) Draw(dc *stage.DrawContext) {
	if dc.Pass != stage.PassShadow {
		return
	}
	c.draws++
	dc.Render.Device.(gpu.SoftDevice).Plot(0, 0, c.depth, common.Color{1, 1, 1, 1})
}

func (c *caster) Bounds() (mgl.Vec3, float32) {
	return c.center, c.radius
}

func sun(name string) light.Light {
	return light.NewLight(light.LightTypeDirectional, light.WithName(name))
}

func cameraAt(target mgl.Vec3) camera.Camera {
	return camera.NewCamera(camera.WithLookAt(target.Add(mgl.Vec3{0, 5, 10}), target))
}

func newShadowStage(c Controller, drawables ...stage.Drawable) Stage {
	s := NewStage("shadow", c, stage.DefaultRenderState())
	for _, d := range drawables {
		s.AddDrawable(d)
	}
	return s
}

func TestController_AddLightAssignsUnits(t *testing.T) {
	c := NewController()
	a, b := sun("a"), sun("b")
	ea := c.AddLight(a)
	eb := c.AddLight(b)
	assert.Equal(t, DefaultBaseUnit, ea.Unit())
	assert.Equal(t, DefaultBaseUnit+1, eb.Unit())
	assert.Same(t, ea, c.AddLight(a))
	assert.Len(t, c.Entries(), 2)

	require.True(t, c.RemoveLight(a))
	assert.False(t, c.RemoveLight(a))
	_, ok := c.Entry(a)
	assert.False(t, ok)
	assert.Equal(t, DefaultBaseUnit, c.AddLight(sun("c")).Unit())
}

func TestController_RendersAndPublishes(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	l := sun("sun")
	e := c.AddLight(l, WithResolution(4))
	cast := &caster{depth: 0.3, radius: 1}

	s := newShadowStage(c, cast)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, 1, s.Rendered())
	assert.Equal(t, 1, cast.draws)

	tex := e.Texture()
	require.NotNil(t, tex)
	assert.Equal(t, 4, tex.Width())
	assert.InDelta(t, 0.3, dev.TexelAt(tex, 0, 0)[0], 1e-6)
	assert.Equal(t, common.Viewport{Width: 4, Height: 4}, e.Viewport())

	recv := c.Receiver()
	published, ok := recv.Texture(e.Unit())
	require.True(t, ok)
	assert.Same(t, tex, published)
	vp, ok := recv.Uniform(e.UniformPrefix() + "ViewProjection")
	require.True(t, ok)
	assert.Equal(t, e.Data().ViewProjection, vp)
	enabled, _ := recv.Uniform(e.UniformPrefix() + "Enabled")
	assert.Equal(t, true, enabled)
	assert.Equal(t, [2]float32{0.25, 0.25}, e.Data().TexelSize)
}

func TestController_RendersOncePerEpoch(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	c.AddLight(sun("sun"), WithResolution(2))
	cast := &caster{depth: 0.5, radius: 1}

	first, second := newShadowStage(c, cast), newShadowStage(c, cast)
	first.Draw(&stage.RenderContext{Device: dev, Epoch: 1, ContextID: 1})
	second.Draw(&stage.RenderContext{Device: dev, Epoch: 1, ContextID: 2})
	assert.Equal(t, 1, first.Rendered())
	assert.Equal(t, 0, second.Rendered())
	assert.Equal(t, 1, cast.draws)
}

func TestController_DisabledLightDoesNoWork(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	on, off := sun("on"), sun("off")
	c.AddLight(on, WithResolution(2))
	eOff := c.AddLight(off, WithResolution(2))
	require.True(t, c.SetEnabled(off, false))
	assert.False(t, c.SetEnabled(off, false))
	assert.False(t, c.SetEnabled(sun("stranger"), true))

	s := newShadowStage(c, &caster{depth: 0.5, radius: 1})
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, 1, s.Rendered())
	assert.Nil(t, eOff.Texture())
	assert.Equal(t, 0, dev.CountCalls("create-texture:shadow-off"))

	require.True(t, c.SetEnabled(off, true))
	s.Reset()
	s.AddDrawable(&caster{depth: 0.5, radius: 1})
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
	require.NotNil(t, eOff.Texture())
	kept := eOff.Texture()

	require.True(t, c.SetEnabled(off, false))
	dev.ResetCalls()
	s.Reset()
	s.AddDrawable(&caster{depth: 0.5, radius: 1})
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 3})
	assert.Equal(t, 0, dev.CountCalls("bind-framebuffer:shadow-off"))
	assert.Same(t, kept, eOff.Texture())
	enabled, _ := c.Receiver().Uniform(eOff.UniformPrefix() + "Enabled")
	assert.Equal(t, false, enabled)
}

func TestController_LightStateGatesRendering(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	dark := light.NewLight(light.LightTypeDirectional, light.WithName("dark"), light.WithEnabled(false))
	noCast := light.NewLight(light.LightTypeDirectional, light.WithName("nocast"), light.WithCastsShadows(false))
	bulb := light.NewLight(light.LightTypePoint, light.WithName("bulb"))
	for _, l := range []light.Light{dark, noCast, bulb} {
		c.AddLight(l, WithResolution(2))
	}

	s := newShadowStage(c)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, 0, s.Rendered())
	assert.Equal(t, 0, dev.CountCalls("create-texture:"))
}

func TestController_LightTurnedOffIsUnpublished(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	l := sun("sun")
	e := c.AddLight(l, WithResolution(2))
	s := newShadowStage(c)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	require.Equal(t, 1, s.Rendered())
	tex := e.Texture()

	l.SetEnabled(false)
	s.Reset()
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
	assert.Equal(t, 0, s.Rendered())
	enabled, _ := c.Receiver().Uniform(e.UniformPrefix() + "Enabled")
	assert.Equal(t, false, enabled)
	assert.Same(t, tex, e.Texture())

	l.SetEnabled(true)
	s.Reset()
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 3})
	assert.Equal(t, 1, s.Rendered())
	enabled, _ = c.Receiver().Uniform(e.UniformPrefix() + "Enabled")
	assert.Equal(t, true, enabled)
}

func TestController_ResizeIsPerLight(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	ea := c.AddLight(sun("a"), WithResolution(2))
	eb := c.AddLight(sun("b"), WithResolution(2))
	s := newShadowStage(c)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	texB := eb.Texture()

	ea.SetResolution(8)
	s.Reset()
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
	assert.Equal(t, 8, ea.Texture().Width())
	assert.Same(t, texB, eb.Texture())
	assert.Equal(t, 2, dev.CountCalls("release:shadow-a"))
}

func TestController_CullsCastersOutsideLightFrustum(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	c.AddLight(sun("sun"), WithResolution(2))
	c.SetFocus(mgl.Vec3{})
	near := &caster{depth: 0.5, radius: 1}
	far := &caster{depth: 0.5, center: mgl.Vec3{500, 0, 0}, radius: 1}
	unbounded := stage.DrawableFunc(func(*stage.DrawContext) {})

	s := newShadowStage(c, near, far, unbounded)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, 1, near.draws)
	assert.Equal(t, 0, far.draws)
}

func TestController_FocusFollowsCamera(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	e := c.AddLight(sun("sun"), WithResolution(2))
	moved := &caster{depth: 0.5, center: mgl.Vec3{500, 0, 0}, radius: 1}

	s := newShadowStage(c, moved)
	cam := cameraAt(mgl.Vec3{500, 0, 0})
	s.SetCamera(cam)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, 1, moved.draws)
	assert.NotEqual(t, mgl.Ident4(), e.Data().ViewProjection)

	c.SetFocus(mgl.Vec3{})
	s.Reset()
	s.AddDrawable(moved)
	s.SetCamera(cam)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
	assert.Equal(t, 1, moved.draws)
}

func TestController_AllocationFailureIsSticky(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	dev.FailAllocations(true)
	c := NewController()
	e := c.AddLight(sun("sun"), WithResolution(2))
	s := newShadowStage(c)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Nil(t, e.Texture())

	dev.FailAllocations(false)
	s.Reset()
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
	assert.Nil(t, e.Texture())

	e.SetResolution(4)
	s.Reset()
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 3})
	require.NotNil(t, e.Texture())
	assert.Equal(t, 4, e.Texture().Width())
}

func TestController_ReleaseFreesShadowMaps(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	c := NewController()
	keep, drop := sun("keep"), sun("drop")
	c.AddLight(keep, WithResolution(2))
	dropped := c.AddLight(drop, WithResolution(2))
	s := newShadowStage(c)
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	require.Equal(t, 4, dev.LiveResources())

	require.True(t, c.RemoveLight(drop))
	_, ok := c.Receiver().Texture(dropped.Unit())
	assert.False(t, ok)
	s.Reset()
	s.Draw(&stage.RenderContext{Device: dev, Epoch: 2})
	assert.Equal(t, 2, dev.LiveResources())

	c.Release(dev)
	assert.Equal(t, 0, dev.LiveResources())
}

func TestFollowSun(t *testing.T) {
	noon := time.Date(2026, 6, 21, 9, 0, 0, 0, time.UTC)
	loc := location.NewContext(
		location.WithTime(noon),
		location.WithEphemeris(func(_, _ float64, t time.Time) mgl.Vec3 {
			if t.Hour() < 12 {
				return mgl.Vec3{0, 0, 1}
			}
			return mgl.Vec3{0, 0, -1}
		}),
	)

	l, cancel := NewSunLight(loc)
	assert.Equal(t, "sun", l.Name())
	assert.True(t, l.Enabled())
	dir := l.Direction()
	assert.InDeltaSlice(t, []float32{0, -1, 0}, dir[:], 1e-5)

	loc.SetTime(noon.Add(10 * time.Hour))
	assert.False(t, l.Enabled())

	cancel()
	loc.SetTime(noon)
	assert.False(t, l.Enabled())
}

func TestNode_InjectsShadowStageBeforeReceivers(t *testing.T) {
	dev := gpu.NewSoftDevice(1, 1)
	var passes []stage.PassKind
	var sawMap bool
	leaf := traversal.NewGroup("terrain", traversal.WithDrawables(stage.DrawableFunc(func(dc *stage.DrawContext) {
		passes = append(passes, dc.Pass)
		if dc.Pass == stage.PassMain {
			sawMap = dc.Render.Device.(gpu.SoftDevice).Uniform("shadow8Enabled") == true
		}
	})))
	n := NewNode("shadowed", WithChildren(leaf))
	n.Controller().AddLight(sun("sun"), WithResolution(2))

	root := stage.NewRenderStage("root")
	n.Accept(traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{Width: 1, Height: 1}, nil))
	require.Equal(t, 1, n.Stages().Len())
	require.Len(t, root.Graph().Stages(stage.PreRender), 1)
	assert.Len(t, root.Drawables(), 1)

	root.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, []stage.PassKind{stage.PassShadow, stage.PassMain}, passes)
	assert.True(t, sawMap)

	n.ResetAll()
	root.Release(dev)
	n.Release(dev)
	assert.Equal(t, 0, n.Stages().Len())
	assert.Equal(t, 0, dev.LiveResources())
}
