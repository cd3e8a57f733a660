package stage

import (
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// Base implements everything in Stage except Draw. Concrete stages embed a
// *Base, implement Draw by calling Execute with their own body, and override
// Reset and Release when they hold more state.
type Base struct {
	mu        *sync.Mutex
	name      string
	state     CommonRenderState
	owner     gpu.Framebuffer
	viewport  common.Viewport
	camera    camera.Camera
	drawables []Drawable
	graph     *Graph
	drawn     bool
	drawnAt   uint64

	quad    gpu.Geometry
	quadDev gpu.Device
	warned  *common.OnceLogger
}

// NewBase creates a Base with the given name and render state.
func NewBase(name string, state CommonRenderState) *Base {
	return &Base{
		mu:     &sync.Mutex{},
		name:   name,
		state:  state,
		graph:  NewGraph(),
		warned: common.NewOnceLogger(),
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) RegisterPreRender(s Stage, order int) {
	b.graph.Add(PreRender, s, order)
}

func (b *Base) RegisterPostRender(s Stage, order int) {
	b.graph.Add(PostRender, s, order)
}

func (b *Base) Graph() *Graph {
	return b.graph
}

func (b *Base) AddDrawable(d Drawable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drawables = append(b.drawables, d)
}

func (b *Base) Drawables() []Drawable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.drawables)
}

func (b *Base) SetViewport(vp common.Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = vp
}

func (b *Base) Viewport() common.Viewport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport
}

func (b *Base) SetCamera(c camera.Camera) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.camera = c
}

func (b *Base) Camera() camera.Camera {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.camera
}

func (b *Base) RenderState() CommonRenderState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Base) SetRenderState(s CommonRenderState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
	b.warned.Reset()
}

func (b *Base) SetOwnerFramebuffer(fb gpu.Framebuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.owner = fb
}

func (b *Base) Target() gpu.Framebuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.Framebuffer != nil {
		return b.state.Framebuffer
	}
	return b.owner
}

func (b *Base) RenderOrder() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.camera != nil {
		return b.camera.RenderOrder()
	}
	return b.state.RenderOrder
}

func (b *Base) Drawn(epoch uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drawn && b.drawnAt == epoch
}

// Reset clears drawables, dependencies and the drawn marker.
func (b *Base) Reset() {
	b.mu.Lock()
	b.drawables = b.drawables[:0]
	b.drawn = false
	b.mu.Unlock()
	b.graph.Clear()
}

// Release returns the shared quad acquired for image clears.
func (b *Base) Release(dev gpu.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.quad != nil && b.quadDev == dev {
		gpu.Shared().ReleaseQuad(dev)
		b.quad, b.quadDev = nil, nil
	}
}

// Execute runs one draw of the stage: pre-render dependencies, body, then
// post-render dependencies. It does nothing if the stage already drew in rc.Epoch.
//
// Parameters:
//   - rc: the frame's render context
//   - body: the stage-specific drawing
//
// Returns:
//   - bool: false if the draw was skipped because it already ran this epoch
func (b *Base) Execute(rc *RenderContext, body func(rc *RenderContext)) bool {
	b.mu.Lock()
	if b.drawn && b.drawnAt == rc.Epoch {
		b.mu.Unlock()
		return false
	}
	b.drawn, b.drawnAt = true, rc.Epoch
	debug := b.state.Debug
	drawables := len(b.drawables)
	b.mu.Unlock()

	for _, s := range b.graph.Stages(PreRender) {
		s.Draw(rc)
	}

	start := time.Now()
	body(rc)
	if debug.Has(DebugProfile) && rc.Timer != nil {
		rc.Timer.Observe(b.name, time.Since(start))
	}
	if debug.Has(DebugConsole) {
		common.Logger().Debug("stage drawn",
			"stage", b.name,
			"epoch", rc.Epoch,
			"context", rc.ContextID,
			"drawables", drawables,
		)
	}

	for _, s := range b.graph.Stages(PostRender) {
		s.Draw(rc)
	}
	return true
}

// BindTarget binds the stage's target and viewport on rc.Device.
//
// Returns:
//   - gpu.Framebuffer: the bound framebuffer, nil for the default
//   - common.Viewport: the applied viewport
func (b *Base) BindTarget(rc *RenderContext) (gpu.Framebuffer, common.Viewport) {
	fb := b.Target()
	vp := b.ResolveViewport(rc.Device, fb)
	rc.Device.BindFramebuffer(fb)
	gpu.Check(rc.Device, "bind framebuffer", "stage", b.name)
	rc.Device.SetViewport(vp)
	return fb, vp
}

// ResolveViewport returns the stored viewport, or the full size of fb when none is stored.
func (b *Base) ResolveViewport(dev gpu.Device, fb gpu.Framebuffer) common.Viewport {
	vp := b.Viewport()
	if !vp.Empty() {
		return vp
	}
	w, h := gpu.FramebufferSize(dev, fb)
	return common.Viewport{Width: w, Height: h}
}

// Clear applies the stage's clear policy to the bound target.
func (b *Base) Clear(rc *RenderContext) {
	st := b.RenderState()
	dev := rc.Device
	switch st.ClearMode {
	case ClearModeNone:
		return
	case ClearModeImage:
		if st.ClearImage == nil {
			b.warned.Warn("clear-image", "image clear without an image, clearing to color", "stage", b.name)
			break
		}
		quad, err := b.sharedQuad(dev)
		if err != nil {
			b.warned.Warn("clear-quad", "image clear skipped", "stage", b.name, "err", err)
			break
		}
		dev.SetDepthTest(false)
		dev.SetBlend(gpu.BlendNone)
		dev.BindProgram(nil)
		dev.BindTexture(0, st.ClearImage)
		dev.Draw(quad)
		gpu.Check(dev, "clear image", "stage", b.name)
		if st.ClearMask&gpu.ClearDepth != 0 {
			dev.Clear(gpu.ClearDepth, st.ClearColor, st.ClearDepth)
		}
		return
	}
	if st.ClearMask != 0 {
		dev.Clear(st.ClearMask, st.ClearColor, st.ClearDepth)
	}
}

func (b *Base) sharedQuad(dev gpu.Device) (gpu.Geometry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.quad != nil && b.quadDev == dev {
		return b.quad, nil
	}
	q, err := gpu.Shared().AcquireQuad(dev)
	if err != nil {
		return nil, err
	}
	b.quad, b.quadDev = q, dev
	return q, nil
}

// NewDrawContext builds the DrawContext for one pass over the stage's drawables.
// View and projection come from the stage camera, or identity without one.
// The fixed-function state defaults to depth-tested opaque drawing.
func (b *Base) NewDrawContext(rc *RenderContext, pass PassKind, index int, vp common.Viewport) *DrawContext {
	dc := &DrawContext{
		Render:     rc,
		Pass:       pass,
		Index:      index,
		Viewport:   vp,
		View:       mgl.Ident4(),
		Projection: mgl.Ident4(),
		DepthTest:  true,
		Blend:      gpu.BlendNone,
	}
	if c := b.Camera(); c != nil {
		dc.View = c.ViewMatrix()
		dc.Projection = c.ProjectionMatrix()
	}
	return dc
}

// DrawDrawables draws every attached drawable with dc.
func (b *Base) DrawDrawables(dc *DrawContext) {
	for _, d := range b.Drawables() {
		d.Draw(dc)
	}
}
