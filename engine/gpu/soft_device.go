package gpu

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/chewxy/math32"
)

// FragmentFunc is a fragment program for the software device. It returns the
// output color and false to discard the fragment.
type FragmentFunc func(f *Fragment) (common.Color, bool)

// Fragment is the per-pixel input to a FragmentFunc.
type Fragment struct {
	// X, Y are pixel coordinates in the bound framebuffer.
	X, Y int
	// U, V are normalized coordinates across the viewport, sampled at pixel centers.
	U, V float32

	dev *softDeviceImpl
}

// Sample reads the texture bound to unit with nearest filtering and clamp-to-edge
// addressing. Depth textures return the depth in every channel. An unbound unit samples transparent black.
func (f *Fragment) Sample(unit int, u, v float32) common.Color {
	t := f.dev.textures[unit]
	if t == nil || t.released {
		return common.Transparent
	}
	x := common.Clamp(int(math32.Floor(u*float32(t.width))), 0, t.width-1)
	y := common.Clamp(int(math32.Floor(v*float32(t.height))), 0, t.height-1)
	return t.at(x, y)
}

// Texel reads the texel of unit offset by (dx, dy) texels from the fragment's own coordinate.
func (f *Fragment) Texel(unit, dx, dy int) common.Color {
	t := f.dev.textures[unit]
	if t == nil || t.released {
		return common.Transparent
	}
	x := common.Clamp(int(f.U*float32(t.width))+dx, 0, t.width-1)
	y := common.Clamp(int(f.V*float32(t.height))+dy, 0, t.height-1)
	return t.at(x, y)
}

// Uniform returns the current value of a uniform, or nil.
func (f *Fragment) Uniform(name string) any {
	return f.dev.uniforms[name]
}

// Float returns a float uniform, or 0 if unset or of another type.
func (f *Fragment) Float(name string) float32 {
	return floatOf(f.dev.uniforms[name])
}

func floatOf(u any) float32 {
	switch v := u.(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int:
		return float32(v)
	case CompareFunc:
		return float32(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// SoftDevice is a CPU reference implementation of Device. Full-screen draws run
// the bound FragmentFunc for every pixel in the viewport. Host geometry is
// emulated with Plot. Every call is recorded for inspection.
type SoftDevice interface {
	Device

	// RegisterProgram associates a fragment function with a program name.
	// CreateProgram succeeds only for registered names.
	RegisterProgram(name string, fn FragmentFunc)

	// Plot writes one fragment into the bound framebuffer, honoring the depth
	// test and blend state, and counts it towards an active samples query.
	//
	// Returns:
	//   - bool: true if the fragment passed the depth test
	Plot(x, y int, depth float32, c common.Color) bool

	// Pixel returns the color at (x, y) of a framebuffer (nil for default).
	Pixel(fb Framebuffer, x, y int) common.Color

	// DepthAt returns the depth at (x, y) of a framebuffer's depth attachment.
	DepthAt(fb Framebuffer, x, y int) float32

	// TexelAt returns the texel at (x, y) of a texture. Depth textures return
	// the depth in every channel.
	TexelAt(tex Texture, x, y int) common.Color

	// Uniform returns the current value of a uniform.
	Uniform(name string) any

	// Calls returns the recorded call log.
	Calls() []string

	// CountCalls returns how many recorded calls start with prefix.
	CountCalls(prefix string) int

	// ResetCalls clears the call log.
	ResetCalls()

	// LiveResources returns the number of created and not yet released resources.
	LiveResources() int

	// FailAllocations makes subsequent texture, framebuffer and quad creation fail.
	FailAllocations(fail bool)

	// Allocations returns how many textures have been created so far.
	Allocations() int
}

type softTexture struct {
	label    string
	width    int
	height   int
	format   TextureFormat
	released bool
	color    []common.Color
	depth    []float32
}

func (t *softTexture) Label() string         { return t.label }
func (t *softTexture) Width() int            { return t.width }
func (t *softTexture) Height() int           { return t.height }
func (t *softTexture) Format() TextureFormat { return t.format }

func (t *softTexture) at(x, y int) common.Color {
	i := y*t.width + x
	if t.format.IsDepth() {
		d := t.depth[i]
		return common.Color{d, d, d, 1}
	}
	return t.color[i]
}

type softFramebuffer struct {
	label    string
	color    *softTexture
	depth    *softTexture
	released bool
}

func (f *softFramebuffer) Label() string { return f.label }

func (f *softFramebuffer) Color() Texture {
	if f.color == nil {
		return nil
	}
	return f.color
}

func (f *softFramebuffer) Depth() Texture {
	if f.depth == nil {
		return nil
	}
	return f.depth
}

func (f *softFramebuffer) Width() int {
	if f.color != nil {
		return f.color.width
	}
	return f.depth.width
}

func (f *softFramebuffer) Height() int {
	if f.color != nil {
		return f.color.height
	}
	return f.depth.height
}

type softProgram struct {
	name     string
	fn       FragmentFunc
	released bool
}

func (p *softProgram) Label() string { return p.name }

type softGeometry struct {
	label    string
	released bool
}

func (g *softGeometry) Label() string { return g.label }

type softDeviceImpl struct {
	mu *sync.Mutex

	programs map[string]FragmentFunc
	defaultF *softFramebuffer

	framebuffer *softFramebuffer
	viewport    common.Viewport
	program     *softProgram
	textures    map[int]*softTexture
	uniforms    map[string]any
	depthTest   bool
	blend       BlendMode

	querying bool
	samples  uint64

	calls       []string
	live        map[Resource]struct{}
	failAlloc   bool
	allocations int
	pendingErr  error
}

var _ SoftDevice = &softDeviceImpl{}

// NewSoftDevice creates a software device whose default framebuffer is width x height
// with color and depth attachments.
//
// Parameters:
//   - width: default framebuffer width in pixels
//   - height: default framebuffer height in pixels
//
// Returns:
//   - SoftDevice: the new device
func NewSoftDevice(width, height int) SoftDevice {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("gpu: invalid soft device size %dx%d", width, height))
	}
	d := &softDeviceImpl{
		mu:       &sync.Mutex{},
		programs: make(map[string]FragmentFunc),
		textures: make(map[int]*softTexture),
		uniforms: make(map[string]any),
		live:     make(map[Resource]struct{}),
	}
	d.defaultF = &softFramebuffer{
		label: "default",
		color: newSoftTexture("default color", width, height, TextureFormatRGBA8),
		depth: newSoftTexture("default depth", width, height, TextureFormatDepth32Float),
	}
	d.viewport = common.Viewport{Width: width, Height: height}
	return d
}

func newSoftTexture(label string, w, h int, format TextureFormat) *softTexture {
	t := &softTexture{label: label, width: w, height: h, format: format}
	if format.IsDepth() {
		t.depth = make([]float32, w*h)
		for i := range t.depth {
			t.depth[i] = 1
		}
	} else {
		t.color = make([]common.Color, w*h)
	}
	return t
}

func (d *softDeviceImpl) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *softDeviceImpl) fail(err error) {
	if d.pendingErr == nil {
		d.pendingErr = err
	}
}

func (d *softDeviceImpl) RegisterProgram(name string, fn FragmentFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.programs[name] = fn
}

func (d *softDeviceImpl) CreateTexture(desc TextureDescriptor) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAlloc || desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("failed to create texture %q (%dx%d): %w", desc.Label, desc.Width, desc.Height, ErrAllocation)
	}
	t := newSoftTexture(desc.Label, desc.Width, desc.Height, desc.Format)
	d.live[t] = struct{}{}
	d.allocations++
	d.record("create-texture:%s", desc.Label)
	return t, nil
}

func (d *softDeviceImpl) WriteTexture(tex Texture, rgba []byte) error {
	t, ok := tex.(*softTexture)
	if !ok || t.released {
		return ErrReleased
	}
	if t.format.IsDepth() {
		return fmt.Errorf("cannot upload pixels to depth texture %q: %w", t.label, ErrUnsupported)
	}
	if len(rgba) != t.width*t.height*4 {
		return fmt.Errorf("texture %q expects %d bytes, got %d", t.label, t.width*t.height*4, len(rgba))
	}
	for i := range t.color {
		p := rgba[i*4 : i*4+4]
		t.color[i] = common.Color{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
	}
	return nil
}

func (d *softDeviceImpl) CreateFramebuffer(label string, color, depth Texture) (Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAlloc {
		return nil, fmt.Errorf("failed to create framebuffer %q: %w", label, ErrAllocation)
	}
	fb := &softFramebuffer{label: label}
	if color != nil {
		fb.color = color.(*softTexture)
	}
	if depth != nil {
		fb.depth = depth.(*softTexture)
	}
	if fb.color == nil && fb.depth == nil {
		return nil, fmt.Errorf("framebuffer %q has no attachments", label)
	}
	if fb.color != nil && fb.depth != nil && (fb.color.width != fb.depth.width || fb.color.height != fb.depth.height) {
		return nil, fmt.Errorf("framebuffer %q attachments differ in size", label)
	}
	d.live[fb] = struct{}{}
	d.record("create-framebuffer:%s", label)
	return fb, nil
}

func (d *softDeviceImpl) CreateProgram(src ProgramSource) (Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn, ok := d.programs[src.Name]
	if !ok {
		return nil, fmt.Errorf("program %q: %w", src.Name, ErrProgramUnknown)
	}
	p := &softProgram{name: src.Name, fn: fn}
	d.live[p] = struct{}{}
	d.record("create-program:%s", src.Name)
	return p, nil
}

func (d *softDeviceImpl) CreateFullscreenQuad() (Geometry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failAlloc {
		return nil, fmt.Errorf("failed to create quad: %w", ErrAllocation)
	}
	g := &softGeometry{label: "fullscreen quad"}
	d.live[g] = struct{}{}
	d.record("create-quad")
	return g, nil
}

func (d *softDeviceImpl) Release(r Resource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r == nil {
		return
	}
	if _, ok := d.live[r]; !ok {
		return
	}
	delete(d.live, r)
	switch v := r.(type) {
	case *softTexture:
		v.released = true
	case *softFramebuffer:
		v.released = true
	case *softProgram:
		v.released = true
	case *softGeometry:
		v.released = true
	}
	d.record("release:%s", r.Label())
}

func (d *softDeviceImpl) BindFramebuffer(fb Framebuffer) {
	if fb == nil {
		d.framebuffer = nil
		d.record("bind-framebuffer:default")
		return
	}
	f := fb.(*softFramebuffer)
	if f.released {
		d.fail(fmt.Errorf("bind framebuffer %q: %w", f.label, ErrReleased))
	}
	d.framebuffer = f
	d.record("bind-framebuffer:%s", f.label)
}

func (d *softDeviceImpl) target() *softFramebuffer {
	if d.framebuffer == nil {
		return d.defaultF
	}
	return d.framebuffer
}

func (d *softDeviceImpl) SetViewport(vp common.Viewport) {
	d.viewport = vp
	d.record("viewport:%s", vp)
}

func (d *softDeviceImpl) BindProgram(p Program) {
	if p == nil {
		d.program = nil
		d.record("bind-program:passthrough")
		return
	}
	sp := p.(*softProgram)
	if sp.released {
		d.fail(fmt.Errorf("bind program %q: %w", sp.name, ErrReleased))
	}
	d.program = sp
	d.record("bind-program:%s", sp.name)
}

func (d *softDeviceImpl) BindTexture(unit int, tex Texture) {
	if tex == nil {
		delete(d.textures, unit)
		d.record("bind-texture:%d:none", unit)
		return
	}
	t := tex.(*softTexture)
	if t.released {
		d.fail(fmt.Errorf("bind texture %q: %w", t.label, ErrReleased))
	}
	d.textures[unit] = t
	d.record("bind-texture:%d:%s", unit, t.label)
}

func (d *softDeviceImpl) SetUniform(name string, value any) {
	if value == nil {
		delete(d.uniforms, name)
		d.record("uniform:%s:none", name)
		return
	}
	d.uniforms[name] = value
	d.record("uniform:%s", name)
}

func (d *softDeviceImpl) Uniform(name string) any {
	return d.uniforms[name]
}

func (d *softDeviceImpl) SetDepthTest(enabled bool) {
	d.depthTest = enabled
	d.record("depth-test:%t", enabled)
}

func (d *softDeviceImpl) SetBlend(mode BlendMode) {
	d.blend = mode
	d.record("blend:%d", mode)
}

func (d *softDeviceImpl) Clear(mask ClearMask, c common.Color, depth float32) {
	fb := d.target()
	if fb.released {
		d.fail(fmt.Errorf("clear framebuffer %q: %w", fb.label, ErrReleased))
		return
	}
	if mask&ClearColor != 0 && fb.color != nil {
		for i := range fb.color.color {
			fb.color.color[i] = c
		}
	}
	if mask&ClearDepth != 0 && fb.depth != nil {
		for i := range fb.depth.depth {
			fb.depth.depth[i] = depth
		}
	}
	d.record("clear:%d", mask)
}

func (d *softDeviceImpl) Draw(g Geometry) {
	sg := g.(*softGeometry)
	if sg.released {
		d.fail(fmt.Errorf("draw %q: %w", sg.label, ErrReleased))
		return
	}
	fb := d.target()
	d.record("draw:%s", fb.label)
	if fb.color == nil || fb.released {
		return
	}

	fn := passthrough
	if d.program != nil {
		fn = d.program.fn
	}

	vp := d.viewport
	w, h := fb.color.width, fb.color.height
	frag := &Fragment{dev: d}
	for y := max(vp.Y, 0); y < min(vp.Y+vp.Height, h); y++ {
		for x := max(vp.X, 0); x < min(vp.X+vp.Width, w); x++ {
			frag.X, frag.Y = x, y
			frag.U = (float32(x-vp.X) + 0.5) / float32(vp.Width)
			frag.V = (float32(y-vp.Y) + 0.5) / float32(vp.Height)
			c, keep := fn(frag)
			if !keep {
				continue
			}
			d.write(fb, x, y, 0, c)
		}
	}
}

func passthrough(f *Fragment) (common.Color, bool) {
	return f.Sample(0, f.U, f.V), true
}

// write stores one fragment, applying alpha test, depth test and blending.
func (d *softDeviceImpl) write(fb *softFramebuffer, x, y int, depth float32, c common.Color) bool {
	if fn, ok := d.uniforms[UniformAlphaTestFunc].(CompareFunc); ok && !fn.Compare(c[3], floatOf(d.uniforms[UniformAlphaTestRef])) {
		return false
	}
	if d.depthTest && fb.depth != nil {
		i := y*fb.depth.width + x
		if depth >= fb.depth.depth[i] {
			return false
		}
		fb.depth.depth[i] = depth
	}
	if fb.color != nil {
		i := y*fb.color.width + x
		switch d.blend {
		case BlendOver:
			fb.color.color[i] = c.Over(fb.color.color[i])
		case BlendAdditive:
			fb.color.color[i] = c.Add(fb.color.color[i])
		default:
			fb.color.color[i] = c
		}
	}
	if d.querying {
		d.samples++
	}
	return true
}

func (d *softDeviceImpl) Plot(x, y int, depth float32, c common.Color) bool {
	fb := d.target()
	if x < 0 || y < 0 || x >= fb.Width() || y >= fb.Height() {
		return false
	}
	return d.write(fb, x, y, depth, c)
}

func (d *softDeviceImpl) BeginSamplesQuery() {
	d.querying = true
	d.samples = 0
}

func (d *softDeviceImpl) EndSamplesQuery() (uint64, bool) {
	d.querying = false
	return d.samples, true
}

func (d *softDeviceImpl) ReadPixels(fb Framebuffer) (*image.RGBA, error) {
	f := d.defaultF
	if fb != nil {
		f = fb.(*softFramebuffer)
	}
	if f.released || f.color == nil {
		return nil, fmt.Errorf("read pixels from %q: %w", f.label, ErrUnsupported)
	}
	t := f.color
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			c := t.color[y*t.width+x]
			img.SetRGBA(x, y, color.RGBA{to8(c[0]), to8(c[1]), to8(c[2]), to8(c[3])})
		}
	}
	return img, nil
}

func to8(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1)*255 + 0.5)
}

func (d *softDeviceImpl) CheckError(op string) error {
	err := d.pendingErr
	d.pendingErr = nil
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (d *softDeviceImpl) DefaultSize() (int, int) {
	return d.defaultF.Width(), d.defaultF.Height()
}

func (d *softDeviceImpl) Pixel(fb Framebuffer, x, y int) common.Color {
	f := d.defaultF
	if fb != nil {
		f = fb.(*softFramebuffer)
	}
	return f.color.at(x, y)
}

func (d *softDeviceImpl) DepthAt(fb Framebuffer, x, y int) float32 {
	f := d.defaultF
	if fb != nil {
		f = fb.(*softFramebuffer)
	}
	return f.depth.depth[y*f.depth.width+x]
}

func (d *softDeviceImpl) TexelAt(tex Texture, x, y int) common.Color {
	t := tex.(*softTexture)
	return t.at(common.Clamp(x, 0, t.width-1), common.Clamp(y, 0, t.height-1))
}

func (d *softDeviceImpl) Calls() []string {
	return append([]string(nil), d.calls...)
}

func (d *softDeviceImpl) CountCalls(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (d *softDeviceImpl) ResetCalls() {
	d.calls = d.calls[:0]
}

func (d *softDeviceImpl) LiveResources() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

func (d *softDeviceImpl) FailAllocations(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAlloc = fail
}

func (d *softDeviceImpl) Allocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocations
}
