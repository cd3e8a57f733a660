package effect

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

const (
	// DOFColorUnit is the input holding the sharp scene color.
	DOFColorUnit = 0
	// DOFDepthUnit is the input holding the scene depth.
	DOFDepthUnit = 1

	ProgramDOFBlur    = "dof-blur"
	ProgramDOFCombine = "dof-combine"
)

// Combine pass units: sharp color, blurred color, depth.
const (
	dofCombineColor = 0
	dofCombineBlur  = 1
	dofCombineDepth = 2
)

// DepthOfField blurs what lies outside a focal range around a focal distance.
type DepthOfField interface {
	Effect

	// SetFocus sets the focal plane distance and the range over which blur ramps up.
	SetFocus(distance, rng float32)
}

type depthOfFieldImpl struct {
	mu      *sync.Mutex
	name    string
	blur    *unitImpl
	combine *unitImpl
	target  *intermediate
	width   int
	height  int
	color   gpu.Texture
	depth   gpu.Texture
	warned  *common.OnceLogger
}

var _ DepthOfField = &depthOfFieldImpl{}

// NewDepthOfField creates a two-pass depth of field effect: the color input is
// blurred into an intermediate, then mixed with the sharp color by each pixel's
// distance from the focal plane.
//
// Parameters:
//   - name: the effect name
//   - options: builder options
//
// Returns:
//   - DepthOfField: the effect
func NewDepthOfField(name string, options ...DepthOfFieldBuilderOption) DepthOfField {
	d := &depthOfFieldImpl{
		mu:   &sync.Mutex{},
		name: name,
		blur: newUnit(name+"-blur", WithProgram(ProgramDOFBlur)),
		combine: newUnit(name+"-combine", WithProgram(ProgramDOFCombine),
			WithUniform("focalDistance", float32(10)),
			WithUniform("focalRange", float32(5)),
			WithUniform("near", float32(0.1)),
			WithUniform("far", float32(100)),
		),
		target: newIntermediate(name+"-blur", gpu.TextureFormatRGBA16Float),
		warned: common.NewOnceLogger(),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *depthOfFieldImpl) Name() string {
	return d.name
}

func (d *depthOfFieldImpl) SetProgram(name string) {
	d.combine.SetProgram(name)
}

func (d *depthOfFieldImpl) Program() string {
	return d.combine.Program()
}

func (d *depthOfFieldImpl) SetInput(unit int, tex gpu.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch unit {
	case DOFColorUnit:
		d.color = tex
		d.blur.SetInput(0, tex)
		d.combine.SetInput(dofCombineColor, tex)
	case DOFDepthUnit:
		d.depth = tex
		d.combine.SetInput(dofCombineDepth, tex)
	default:
		common.Logger().Warn("depth of field has no such input", "effect", d.name, "unit", unit)
		return
	}
	d.warned.Reset()
}

func (d *depthOfFieldImpl) RemoveInput(unit int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch unit {
	case DOFColorUnit:
		d.color = nil
		d.blur.RemoveInput(0)
		return d.combine.RemoveInput(dofCombineColor)
	case DOFDepthUnit:
		d.depth = nil
		return d.combine.RemoveInput(dofCombineDepth)
	}
	return false
}

func (d *depthOfFieldImpl) Inputs() []Input {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Input
	if d.color != nil {
		out = append(out, Input{Unit: DOFColorUnit, Texture: d.color})
	}
	if d.depth != nil {
		out = append(out, Input{Unit: DOFDepthUnit, Texture: d.depth})
	}
	return out
}

func (d *depthOfFieldImpl) SetOutput(fb gpu.Framebuffer) {
	d.combine.SetOutput(fb)
}

func (d *depthOfFieldImpl) Output() gpu.Framebuffer {
	return d.combine.Output()
}

func (d *depthOfFieldImpl) SetUniform(name string, value any) {
	d.blur.SetUniform(name, value)
	d.combine.SetUniform(name, value)
}

func (d *depthOfFieldImpl) SetFocus(distance, rng float32) {
	d.combine.SetUniform("focalDistance", distance)
	d.combine.SetUniform("focalRange", rng)
}

func (d *depthOfFieldImpl) SetTextureSize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if width == d.width && height == d.height {
		return
	}
	d.width, d.height = width, height
	d.target.invalidate()
	d.warned.Reset()
}

func (d *depthOfFieldImpl) Draw(env *DrawEnv) bool {
	dev := env.Render.Device
	d.mu.Lock()
	w, h := d.width, d.height
	if w <= 0 || h <= 0 {
		w, h = gpu.FramebufferSize(dev, common.Coalesce(d.combine.Output(), env.Framebuffer))
	}
	fb, err := d.target.ensure(dev, w, h)
	tex := d.target.tex
	d.mu.Unlock()

	if err != nil {
		d.warned.Warn("intermediate", "depth of field skipped, passing color through", "effect", d.name, "err", err)
		sharp := newUnit(d.name + "-passthrough")
		sharp.SetOutput(d.combine.Output())
		if in := d.Inputs(); len(in) > 0 && in[0].Unit == DOFColorUnit {
			sharp.SetInput(0, in[0].Texture)
		}
		sharp.Draw(env)
		sharp.Release(dev)
		return false
	}

	d.blur.SetOutput(fb)
	d.combine.SetInput(dofCombineBlur, tex)

	pass := *env
	pass.Framebuffer = nil
	pass.Viewport = common.Viewport{Width: w, Height: h}
	ok := d.blur.Draw(&pass)
	return d.combine.Draw(env) && ok
}

func (d *depthOfFieldImpl) Release(dev gpu.Device) {
	d.mu.Lock()
	d.target.release(dev)
	d.mu.Unlock()
	d.blur.Release(dev)
	d.combine.Release(dev)
}
