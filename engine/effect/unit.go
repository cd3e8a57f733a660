package effect

import (
	"maps"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
)

// unitImpl is a single full-screen pass.
type unitImpl struct {
	mu       *sync.Mutex
	name     string
	program  string
	inputs   map[int]gpu.Texture
	output   gpu.Framebuffer
	uniforms map[string]any
	width    int
	height   int

	quad    gpu.Geometry
	quadDev gpu.Device
	warned  *common.OnceLogger
}

var _ Effect = &unitImpl{}

// NewUnit creates a single-pass effect.
//
// Parameters:
//   - name: the effect name
//   - options: builder options
//
// Returns:
//   - Effect: the effect
func NewUnit(name string, options ...UnitBuilderOption) Effect {
	return newUnit(name, options...)
}

func newUnit(name string, options ...UnitBuilderOption) *unitImpl {
	u := &unitImpl{
		mu:       &sync.Mutex{},
		name:     name,
		inputs:   make(map[int]gpu.Texture),
		uniforms: make(map[string]any),
		warned:   common.NewOnceLogger(),
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

func (u *unitImpl) Name() string {
	return u.name
}

func (u *unitImpl) SetProgram(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.program = name
	u.warned.Reset()
}

func (u *unitImpl) Program() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.program
}

func (u *unitImpl) SetInput(unit int, tex gpu.Texture) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if tex == nil {
		delete(u.inputs, unit)
		return
	}
	u.inputs[unit] = tex
	u.warned.Reset()
}

func (u *unitImpl) RemoveInput(unit int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.inputs[unit]; !ok {
		return false
	}
	delete(u.inputs, unit)
	return true
}

func (u *unitImpl) Inputs() []Input {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Input, 0, len(u.inputs))
	for _, unit := range slices.Sorted(maps.Keys(u.inputs)) {
		out = append(out, Input{Unit: unit, Texture: u.inputs[unit]})
	}
	return out
}

func (u *unitImpl) SetOutput(fb gpu.Framebuffer) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.output = fb
	u.warned.Reset()
}

func (u *unitImpl) Output() gpu.Framebuffer {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.output
}

func (u *unitImpl) SetUniform(name string, value any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uniforms[name] = value
}

func (u *unitImpl) SetTextureSize(width, height int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.width, u.height = width, height
}

// Draw binds the unit's target, viewport, program, uniforms and inputs, forces
// depth testing and blending off and draws the full-screen quad.
func (u *unitImpl) Draw(env *DrawEnv) bool {
	dev := env.Render.Device
	quad, err := u.sharedQuad(dev)
	if err != nil {
		u.warned.Warn("quad", "effect skipped", "effect", u.name, "err", err)
		return false
	}

	u.mu.Lock()
	fb := common.Coalesce(u.output, env.Framebuffer)
	program := u.program
	uniforms := maps.Clone(u.uniforms)
	u.mu.Unlock()

	dev.BindFramebuffer(fb)
	gpu.Check(dev, "bind framebuffer", "effect", u.name)
	dev.SetViewport(viewportFor(dev, fb, env.Viewport))

	ok := true
	if program != "" {
		p, err := env.Render.Program(program)
		if err != nil {
			attrs := []any{"effect", u.name, "program", program, "err", err}
			if env.Debug.Has(stage.DebugShaders) {
				attrs = append(attrs, "context", env.Render.ContextID, "epoch", env.Render.Epoch)
			}
			u.warned.Warn("program/"+program, "program unavailable, drawing pass-through", attrs...)
			p, ok = nil, false
		}
		dev.BindProgram(p)
	}
	for _, name := range slices.Sorted(maps.Keys(uniforms)) {
		dev.SetUniform(name, uniforms[name])
	}
	for _, in := range u.Inputs() {
		dev.BindTexture(in.Unit, in.Texture)
	}
	dev.SetDepthTest(false)
	dev.SetBlend(gpu.BlendNone)
	dev.Draw(quad)
	gpu.Check(dev, "draw effect", "effect", u.name, "context", env.Render.ContextID)

	if env.Debug.Has(stage.DebugImages) {
		if _, err := stage.WriteDebugImage(env.Render, env.DebugDir, fb, u.name); err != nil {
			u.warned.Warn("debug-image", "debug image not written", "effect", u.name, "err", err)
		}
	}
	return ok
}

func (u *unitImpl) sharedQuad(dev gpu.Device) (gpu.Geometry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.quad != nil && u.quadDev == dev {
		return u.quad, nil
	}
	if u.quad != nil {
		gpu.Shared().ReleaseQuad(u.quadDev)
		u.quad, u.quadDev = nil, nil
	}
	q, err := gpu.Shared().AcquireQuad(dev)
	if err != nil {
		return nil, err
	}
	u.quad, u.quadDev = q, dev
	return q, nil
}

func (u *unitImpl) Release(dev gpu.Device) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.quad != nil && u.quadDev == dev {
		gpu.Shared().ReleaseQuad(dev)
		u.quad, u.quadDev = nil, nil
	}
}

// viewportFor returns vp, or the full size of fb when vp is empty.
func viewportFor(dev gpu.Device, fb gpu.Framebuffer, vp common.Viewport) common.Viewport {
	if !vp.Empty() {
		return vp
	}
	w, h := gpu.FramebufferSize(dev, fb)
	return common.Viewport{Width: w, Height: h}
}
