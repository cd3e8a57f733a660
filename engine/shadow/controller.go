// Package shadow renders a depth pass per registered light and publishes the
// resulting depth textures and light matrices for the main pass to sample.
package shadow

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/light"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// DefaultBaseUnit is the first texture unit shadow maps are published on.
const DefaultBaseUnit = 8

// UniformViewProjection is set on the device during a shadow pass.
const UniformViewProjection = "shadowViewProjection"

// Controller owns the shadow entries of a set of lights.
type Controller interface {
	// AddLight registers a light. Registering a light twice returns the existing entry.
	//
	// Parameters:
	//   - l: the light
	//   - options: entry options
	//
	// Returns:
	//   - *Entry: the light's entry
	AddLight(l light.Light, options ...EntryOption) *Entry

	// RemoveLight unregisters a light and unpublishes its shadow map. Its GPU
	// resources are released on the next render.
	//
	// Returns:
	//   - bool: false if the light was not registered
	RemoveLight(l light.Light) bool

	// SetEnabled turns a light's shadow pass on or off. A disabled light does
	// no GPU work and its published map is marked unused.
	//
	// Returns:
	//   - bool: false if the light is not registered or already in that state
	SetEnabled(l light.Light, enabled bool) bool

	// Entry returns a light's entry.
	Entry(l light.Light) (*Entry, bool)

	// Entries returns the entries in registration order.
	Entries() []*Entry

	// Receiver returns the state set the shadow maps are published on.
	Receiver() state_set.StateSet

	// SetFocus fixes the center of directional shadow frusta.
	SetFocus(center mgl.Vec3)

	// ClearFocus makes directional frusta follow the stage camera's target.
	ClearFocus()

	// Render draws the shadow pass of every enabled entry from the drawables of
	// s. Each entry renders at most once per epoch across all stages.
	//
	// Returns:
	//   - int: how many entries rendered
	Render(rc *stage.RenderContext, s stage.Stage) int

	// Release frees every entry's GPU resources on dev.
	Release(dev gpu.Device)
}

type controllerImpl struct {
	mu       *sync.Mutex
	entries  []*Entry
	removed  []*Entry
	baseUnit int
	receiver state_set.StateSet
	focus    *mgl.Vec3
	warned   *common.OnceLogger
}

var _ Controller = &controllerImpl{}

// NewController creates a Controller.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Controller: the controller
func NewController(options ...ControllerBuilderOption) Controller {
	c := &controllerImpl{
		mu:       &sync.Mutex{},
		baseUnit: DefaultBaseUnit,
		warned:   common.NewOnceLogger(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.receiver == nil {
		c.receiver = state_set.NewStateSet()
	}
	return c
}

func (c *controllerImpl) AddLight(l light.Light, options ...EntryOption) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.findLocked(l); e != nil {
		return e
	}
	e := newEntry(l, c.freeUnitLocked(), options...)
	c.entries = append(c.entries, e)
	return e
}

func (c *controllerImpl) freeUnitLocked() int {
	unit := c.baseUnit
	for slices.ContainsFunc(c.entries, func(e *Entry) bool { return e.unit == unit }) {
		unit++
	}
	return unit
}

func (c *controllerImpl) findLocked(l light.Light) *Entry {
	i := slices.IndexFunc(c.entries, func(e *Entry) bool { return e.light == l })
	if i < 0 {
		return nil
	}
	return c.entries[i]
}

func (c *controllerImpl) RemoveLight(l light.Light) bool {
	c.mu.Lock()
	e := c.findLocked(l)
	if e == nil {
		c.mu.Unlock()
		common.Logger().Warn("shadow light not registered", "light", l.Name())
		return false
	}
	c.entries = slices.DeleteFunc(c.entries, func(x *Entry) bool { return x == e })
	c.removed = append(c.removed, e)
	c.mu.Unlock()

	prefix := e.UniformPrefix()
	c.receiver.SetTexture(e.unit, nil)
	for name := range (light.ShadowData{}).Uniforms(prefix) {
		c.receiver.RemoveUniform(name)
	}
	c.receiver.RemoveUniform(prefix + "Enabled")
	return true
}

func (c *controllerImpl) SetEnabled(l light.Light, enabled bool) bool {
	c.mu.Lock()
	e := c.findLocked(l)
	c.mu.Unlock()
	if e == nil {
		common.Logger().Warn("shadow light not registered", "light", l.Name())
		return false
	}

	e.mu.Lock()
	if e.enabled == enabled {
		e.mu.Unlock()
		common.Logger().Warn("shadow light already in requested state", "light", l.Name(), "enabled", enabled)
		return false
	}
	e.enabled = enabled
	e.failed = false
	e.mu.Unlock()

	c.warned.Reset()
	if !enabled {
		c.receiver.SetUniform(e.UniformPrefix()+"Enabled", false)
	}
	return true
}

func (c *controllerImpl) Entry(l light.Light) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.findLocked(l)
	return e, e != nil
}

func (c *controllerImpl) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.entries)
}

func (c *controllerImpl) Receiver() state_set.StateSet {
	return c.receiver
}

func (c *controllerImpl) SetFocus(center mgl.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = &center
}

func (c *controllerImpl) ClearFocus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = nil
}

func (c *controllerImpl) focusFor(cam camera.Camera) mgl.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.focus != nil {
		return *c.focus
	}
	if cam != nil {
		return cam.Target()
	}
	return mgl.Vec3{}
}

func (c *controllerImpl) Render(rc *stage.RenderContext, s stage.Stage) int {
	dev := rc.Device
	c.mu.Lock()
	removed := c.removed
	c.removed = nil
	c.mu.Unlock()
	for _, e := range removed {
		e.release(dev)
	}

	focus := c.focusFor(s.Camera())
	rendered := 0
	for i, e := range c.Entries() {
		if c.renderEntry(rc, s, i, e, focus) {
			rendered++
		}
	}
	return rendered
}

func (c *controllerImpl) renderEntry(rc *stage.RenderContext, s stage.Stage, index int, e *Entry, focus mgl.Vec3) bool {
	dev := rc.Device
	l := e.light
	e.mu.Lock()
	skip := !e.enabled || (e.rendered && e.drawnAt == rc.Epoch)
	e.mu.Unlock()
	if skip {
		return false
	}
	if !l.Enabled() || !l.CastsShadows() {
		// The map keeps its last contents; receivers stop sampling it until the light is back.
		c.receiver.SetUniform(e.UniformPrefix()+"Enabled", false)
		return false
	}

	view, proj, ok := e.matrices(focus)
	if !ok {
		c.warned.Warn("type/"+l.Name(), "light type has no shadow projection", "light", l.Name(), "type", l.Type())
		return false
	}
	fb, err := e.target(dev)
	if err != nil {
		c.warned.Warn("alloc/"+l.Name(), "shadow pass skipped", "light", l.Name(), "err", err)
		return false
	}

	e.mu.Lock()
	size, bias, halfExtent, biasScale := e.size, e.bias, e.halfExtent, e.biasScale
	e.mu.Unlock()

	vp := common.Viewport{Width: size, Height: size}
	dev.BindFramebuffer(fb)
	gpu.Check(dev, "bind shadow framebuffer", "light", l.Name())
	dev.SetViewport(vp)
	dev.Clear(gpu.ClearDepth, common.Black, 1)
	dev.SetDepthTest(true)
	dev.SetBlend(gpu.BlendNone)

	viewProj := proj.Mul4(view)
	dc := &stage.DrawContext{
		Render:     rc,
		Pass:       stage.PassShadow,
		Index:      index,
		Viewport:   vp,
		View:       view,
		Projection: proj,
		Uniforms:   map[string]any{UniformViewProjection: viewProj},
		DepthTest:  true,
		Blend:      gpu.BlendNone,
	}
	dev.SetUniform(UniformViewProjection, viewProj)

	frustum := common.ExtractFrustum(viewProj)
	culled := 0
	for _, d := range s.Drawables() {
		if center, radius, ok := stage.BoundsOf(d); ok && !frustum.ContainsSphere(center, radius) {
			culled++
			continue
		}
		d.Draw(dc)
	}
	gpu.Check(dev, "draw shadow pass", "light", l.Name())

	data := light.ShadowData{
		ViewProjection: viewProj,
		TexelSize:      [2]float32{1 / float32(size), 1 / float32(size)},
		Bias:           bias,
		NormalBias:     light.NormalBias(halfExtent, biasScale, size),
	}
	e.mu.Lock()
	e.view, e.proj, e.data = view, proj, data
	e.drawnAt, e.rendered = rc.Epoch, true
	tex := e.depth
	e.mu.Unlock()

	c.publish(e, data, tex)
	if s.RenderState().Debug.Has(stage.DebugConsole) {
		common.Logger().Debug("shadow pass drawn", "light", l.Name(), "size", size, "culled", culled, "context", rc.ContextID)
	}
	return true
}

func (c *controllerImpl) publish(e *Entry, data light.ShadowData, tex gpu.Texture) {
	prefix := e.UniformPrefix()
	c.receiver.SetTexture(e.unit, tex)
	for name, v := range data.Uniforms(prefix) {
		c.receiver.SetUniform(name, v)
	}
	c.receiver.SetUniform(prefix+"Enabled", true)
}

func (c *controllerImpl) Release(dev gpu.Device) {
	c.mu.Lock()
	entries := append(slices.Clone(c.entries), c.removed...)
	c.removed = nil
	c.mu.Unlock()
	for _, e := range entries {
		e.release(dev)
	}
}
