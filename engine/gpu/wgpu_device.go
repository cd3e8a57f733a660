package gpu

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/cogentcore/webgpu/wgpu"
)

var errNoAdapter = errors.New("gpu: no adapter available")

type wgpuTexture struct {
	label    string
	width    int
	height   int
	format   TextureFormat
	texture  *wgpu.Texture
	view     *wgpu.TextureView
	released bool
}

func (t *wgpuTexture) Label() string         { return t.label }
func (t *wgpuTexture) Width() int            { return t.width }
func (t *wgpuTexture) Height() int           { return t.height }
func (t *wgpuTexture) Format() TextureFormat { return t.format }

type wgpuFramebuffer struct {
	label string
	color *wgpuTexture
	depth *wgpuTexture
}

func (f *wgpuFramebuffer) Label() string { return f.label }

func (f *wgpuFramebuffer) Color() Texture {
	if f.color == nil {
		return nil
	}
	return f.color
}

func (f *wgpuFramebuffer) Depth() Texture {
	if f.depth == nil {
		return nil
	}
	return f.depth
}

func (f *wgpuFramebuffer) Width() int {
	if f.color != nil {
		return f.color.width
	}
	return f.depth.width
}

func (f *wgpuFramebuffer) Height() int {
	if f.color != nil {
		return f.color.height
	}
	return f.depth.height
}

type wgpuProgram struct {
	src            ProgramSource
	vs             *wgpu.ShaderModule
	fs             *wgpu.ShaderModule
	layout         *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	uniforms       *wgpu.Buffer
}

func (p *wgpuProgram) Label() string { return p.src.Name }

type wgpuGeometry struct {
	label string
}

func (g *wgpuGeometry) Label() string { return g.label }

type pipelineKey struct {
	program   *wgpuProgram
	color     TextureFormat
	hasColor  bool
	hasDepth  bool
	depthTest bool
	blend     BlendMode
}

// WGPUDevice is a Device backed by WebGPU. The default framebuffer is an
// offscreen RGBA8 + Depth32Float target; presenting it is up to the host.
type WGPUDevice interface {
	Device

	// Device returns the underlying WebGPU device.
	Device() *wgpu.Device

	// Queue returns the underlying WebGPU queue.
	Queue() *wgpu.Queue

	// Destroy releases every resource owned by the device, including the device itself.
	Destroy()
}

type wgpuDeviceImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	width                int
	height               int
	forceFallbackAdapter bool
	label                string

	defaultFB   *wgpuFramebuffer
	passthrough *wgpuProgram
	linear      *wgpu.Sampler
	comparison  *wgpu.Sampler
	blankColor  *wgpuTexture
	blankDepth  *wgpuTexture
	pipelines   map[pipelineKey]*wgpu.RenderPipeline

	framebuffer *wgpuFramebuffer
	viewport    common.Viewport
	program     *wgpuProgram
	textures    map[int]*wgpuTexture
	uniforms    map[string]any
	depthTest   bool
	blend       BlendMode

	pendingErr error
}

var _ WGPUDevice = &wgpuDeviceImpl{}

// NewWGPUDevice requests an adapter and device and allocates the default framebuffer.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - WGPUDevice: the new device
//   - error: an error if no adapter or device is available
func NewWGPUDevice(options ...WGPUDeviceBuilderOption) (WGPUDevice, error) {
	runtime.LockOSThread()
	d := &wgpuDeviceImpl{
		mu:        &sync.Mutex{},
		width:     1280,
		height:    720,
		label:     "Effects Device",
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
		textures:  make(map[int]*wgpuTexture),
		uniforms:  make(map[string]any),
	}
	for _, option := range options {
		option(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	if a == nil {
		return nil, errNoAdapter
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	if err := d.init(); err != nil {
		d.Destroy()
		return nil, err
	}
	d.viewport = common.Viewport{Width: d.width, Height: d.height}
	return d, nil
}

func (d *wgpuDeviceImpl) init() error {
	color, err := d.createTexture(TextureDescriptor{Label: "Default Color", Width: d.width, Height: d.height, Format: TextureFormatRGBA8})
	if err != nil {
		return err
	}
	depth, err := d.createTexture(TextureDescriptor{Label: "Default Depth", Width: d.width, Height: d.height, Format: TextureFormatDepth32Float})
	if err != nil {
		return err
	}
	d.defaultFB = &wgpuFramebuffer{label: "default", color: color, depth: depth}

	if d.blankColor, err = d.createTexture(TextureDescriptor{Label: "Blank Color", Width: 1, Height: 1, Format: TextureFormatRGBA8}); err != nil {
		return err
	}
	if d.blankDepth, err = d.createTexture(TextureDescriptor{Label: "Blank Depth", Width: 1, Height: 1, Format: TextureFormatDepth32Float}); err != nil {
		return err
	}

	d.linear, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Effect Linear Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create linear sampler: %w", err)
	}
	d.comparison, err = d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Depth Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create comparison sampler: %w", err)
	}

	p, err := d.CreateProgram(PassthroughSource)
	if err != nil {
		return fmt.Errorf("failed to create passthrough program: %w", err)
	}
	d.passthrough = p.(*wgpuProgram)
	return nil
}

func (d *wgpuDeviceImpl) Device() *wgpu.Device { return d.device }
func (d *wgpuDeviceImpl) Queue() *wgpu.Queue   { return d.queue }

func textureFormat(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	}
	return wgpu.TextureFormatRGBA8Unorm
}

func (d *wgpuDeviceImpl) createTexture(desc TextureDescriptor) (*wgpuTexture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("failed to create texture %q (%dx%d): %w", desc.Label, desc.Width, desc.Height, ErrAllocation)
	}
	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	if !desc.Format.IsDepth() {
		usage |= wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        textureFormat(desc.Format),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w: %w", desc.Label, ErrAllocation, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create texture view %q: %w: %w", desc.Label, ErrAllocation, err)
	}
	return &wgpuTexture{
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
		texture: tex,
		view:    view,
	}, nil
}

func (d *wgpuDeviceImpl) CreateTexture(desc TextureDescriptor) (Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createTexture(desc)
}

func (d *wgpuDeviceImpl) WriteTexture(tex Texture, rgba []byte) error {
	t, ok := tex.(*wgpuTexture)
	if !ok || t.released {
		return ErrReleased
	}
	if t.format != TextureFormatRGBA8 {
		return fmt.Errorf("cannot upload RGBA8 pixels to %s texture %q: %w", t.format, t.label, ErrUnsupported)
	}
	if len(rgba) != t.width*t.height*4 {
		return fmt.Errorf("texture %q expects %d bytes, got %d", t.label, t.width*t.height*4, len(rgba))
	}
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		rgba,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.width * 4),
			RowsPerImage: uint32(t.height),
		},
		&wgpu.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (d *wgpuDeviceImpl) CreateFramebuffer(label string, color, depth Texture) (Framebuffer, error) {
	fb := &wgpuFramebuffer{label: label}
	if color != nil {
		fb.color = color.(*wgpuTexture)
	}
	if depth != nil {
		fb.depth = depth.(*wgpuTexture)
	}
	if fb.color == nil && fb.depth == nil {
		return nil, fmt.Errorf("framebuffer %q has no attachments", label)
	}
	if fb.color != nil && fb.depth != nil && (fb.color.width != fb.depth.width || fb.color.height != fb.depth.height) {
		return nil, fmt.Errorf("framebuffer %q attachments differ in size", label)
	}
	return fb, nil
}

func (d *wgpuDeviceImpl) CreateProgram(src ProgramSource) (Program, error) {
	if src.Fragment == "" {
		return nil, fmt.Errorf("program %q has no fragment stage: %w", src.Name, ErrProgramUnknown)
	}
	vertex := src.Vertex
	if vertex == "" {
		vertex = fullscreenVertexWGSL
	}
	p := &wgpuProgram{src: src}
	if p.src.VertexEntry == "" {
		p.src.VertexEntry = "vs_main"
	}
	if p.src.FragmentEntry == "" {
		p.src.FragmentEntry = "fs_main"
	}

	var err error
	p.vs, err = d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Name + " Vertex",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertex},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex module for %q: %w", src.Name, err)
	}
	p.fs, err = d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          src.Name + " Fragment",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src.Fragment},
	})
	if err != nil {
		d.releaseProgram(p)
		return nil, fmt.Errorf("failed to create fragment module for %q: %w", src.Name, err)
	}

	depthUnits := make(map[int]bool, len(src.DepthUnits))
	for _, u := range src.DepthUnits {
		depthUnits[u] = true
	}
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 1+2*src.TextureUnits)
	if len(src.Uniforms) > 0 {
		e := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment}
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
		entries = append(entries, e)
	}
	for unit := 0; unit < src.TextureUnits; unit++ {
		t := wgpu.BindGroupLayoutEntry{Binding: textureBinding(unit), Visibility: wgpu.ShaderStageFragment}
		t.Texture.ViewDimension = wgpu.TextureViewDimension2D
		s := wgpu.BindGroupLayoutEntry{Binding: samplerBinding(unit), Visibility: wgpu.ShaderStageFragment}
		if depthUnits[unit] {
			t.Texture.SampleType = wgpu.TextureSampleTypeDepth
			s.Sampler.Type = wgpu.SamplerBindingTypeComparison
		} else {
			t.Texture.SampleType = wgpu.TextureSampleTypeFloat
			s.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		entries = append(entries, t, s)
	}
	p.layout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   src.Name + " Layout",
		Entries: entries,
	})
	if err != nil {
		d.releaseProgram(p)
		return nil, fmt.Errorf("failed to create bind group layout for %q: %w", src.Name, err)
	}
	p.pipelineLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            src.Name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
	})
	if err != nil {
		d.releaseProgram(p)
		return nil, fmt.Errorf("failed to create pipeline layout for %q: %w", src.Name, err)
	}
	if size := UniformBlockSize(src.Uniforms); size > 0 {
		p.uniforms, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: src.Name + " Uniforms",
			Size:  uint64(size),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			d.releaseProgram(p)
			return nil, fmt.Errorf("failed to create uniform buffer for %q: %w", src.Name, err)
		}
	}
	return p, nil
}

func textureBinding(unit int) uint32 { return uint32(1 + 2*unit) }
func samplerBinding(unit int) uint32 { return uint32(2 + 2*unit) }

func (d *wgpuDeviceImpl) CreateFullscreenQuad() (Geometry, error) {
	// The vertex stage synthesizes the triangle from vertex_index; no buffers needed.
	return &wgpuGeometry{label: "fullscreen quad"}, nil
}

func (d *wgpuDeviceImpl) Release(r Resource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch v := r.(type) {
	case *wgpuTexture:
		d.releaseTexture(v)
	case *wgpuProgram:
		for k, pl := range d.pipelines {
			if k.program == v {
				pl.Release()
				delete(d.pipelines, k)
			}
		}
		d.releaseProgram(v)
	}
	// Framebuffers and geometry own no device memory.
}

func (d *wgpuDeviceImpl) releaseTexture(t *wgpuTexture) {
	if t == nil || t.released {
		return
	}
	t.released = true
	t.view.Release()
	t.texture.Release()
}

func (d *wgpuDeviceImpl) releaseProgram(p *wgpuProgram) {
	if p.uniforms != nil {
		p.uniforms.Release()
		p.uniforms = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.fs != nil {
		p.fs.Release()
		p.fs = nil
	}
	if p.vs != nil {
		p.vs.Release()
		p.vs = nil
	}
}

func (d *wgpuDeviceImpl) BindFramebuffer(fb Framebuffer) {
	if fb == nil {
		d.framebuffer = nil
		return
	}
	d.framebuffer = fb.(*wgpuFramebuffer)
}

func (d *wgpuDeviceImpl) target() *wgpuFramebuffer {
	if d.framebuffer == nil {
		return d.defaultFB
	}
	return d.framebuffer
}

func (d *wgpuDeviceImpl) SetViewport(vp common.Viewport) { d.viewport = vp }

func (d *wgpuDeviceImpl) BindProgram(p Program) {
	if p == nil {
		d.program = nil
		return
	}
	d.program = p.(*wgpuProgram)
}

func (d *wgpuDeviceImpl) BindTexture(unit int, tex Texture) {
	if tex == nil {
		delete(d.textures, unit)
		return
	}
	t := tex.(*wgpuTexture)
	if t.released {
		d.fail(fmt.Errorf("bind texture %q: %w", t.label, ErrReleased))
	}
	d.textures[unit] = t
}

func (d *wgpuDeviceImpl) SetUniform(name string, value any) {
	if value == nil {
		delete(d.uniforms, name)
		return
	}
	d.uniforms[name] = value
}

func (d *wgpuDeviceImpl) SetDepthTest(enabled bool) { d.depthTest = enabled }
func (d *wgpuDeviceImpl) SetBlend(mode BlendMode)   { d.blend = mode }

func (d *wgpuDeviceImpl) fail(err error) {
	if d.pendingErr == nil {
		d.pendingErr = err
	}
}

func (d *wgpuDeviceImpl) Clear(mask ClearMask, c common.Color, depth float32) {
	fb := d.target()
	desc := &wgpu.RenderPassDescriptor{}
	if fb.color != nil {
		op := wgpu.LoadOpLoad
		if mask&ClearColor != 0 {
			op = wgpu.LoadOpClear
		}
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:       fb.color.view,
			LoadOp:     op,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
		}}
	}
	if fb.depth != nil {
		op := wgpu.LoadOpLoad
		if mask&ClearDepth != 0 {
			op = wgpu.LoadOpClear
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            fb.depth.view,
			DepthLoadOp:     op,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: depth,
		}
	}
	d.submit(desc, nil)
}

func (d *wgpuDeviceImpl) Draw(g Geometry) {
	fb := d.target()
	if fb.color == nil {
		d.fail(fmt.Errorf("draw into depth-only framebuffer %q: %w", fb.label, ErrUnsupported))
		return
	}
	p := d.program
	if p == nil {
		p = d.passthrough
	}
	pipeline, err := d.pipelineFor(p, fb)
	if err != nil {
		d.fail(err)
		return
	}
	bg, err := d.bindGroupFor(p)
	if err != nil {
		d.fail(err)
		return
	}
	defer bg.Release()

	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    fb.color.view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
	}
	if fb.depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            fb.depth.view,
			DepthLoadOp:     wgpu.LoadOpLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}
	vp := d.viewport
	d.submit(desc, func(pass *wgpu.RenderPassEncoder) {
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1)
		pass.Draw(3, 1, 0, 0)
	})
}

// submit records one render pass and submits it immediately.
func (d *wgpuDeviceImpl) submit(desc *wgpu.RenderPassDescriptor, body func(pass *wgpu.RenderPassEncoder)) {
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		d.fail(fmt.Errorf("failed to create command encoder: %w", err))
		return
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(desc)
	if body != nil {
		body(pass)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		d.fail(fmt.Errorf("failed to finish command encoder: %w", err))
		return
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (d *wgpuDeviceImpl) pipelineFor(p *wgpuProgram, fb *wgpuFramebuffer) (*wgpu.RenderPipeline, error) {
	key := pipelineKey{
		program:   p,
		hasColor:  fb.color != nil,
		hasDepth:  fb.depth != nil,
		depthTest: d.depthTest,
		blend:     d.blend,
	}
	if fb.color != nil {
		key.color = fb.color.format
	}
	if pl, ok := d.pipelines[key]; ok {
		return pl, nil
	}

	target := wgpu.ColorTargetState{
		Format:    textureFormat(key.color),
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	switch d.blend {
	case BlendOver:
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case BlendAdditive:
		additive := wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		}
		target.Blend = &wgpu.BlendState{Color: additive, Alpha: additive}
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.src.Name + " Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     p.vs,
			EntryPoint: p.src.VertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.fs,
			EntryPoint: p.src.FragmentEntry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if key.hasDepth {
		compare := wgpu.CompareFunctionAlways
		if key.depthTest {
			compare = wgpu.CompareFunctionLess
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: key.depthTest,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}
	pl, err := d.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline for %q: %w", p.src.Name, err)
	}
	d.pipelines[key] = pl
	return pl, nil
}

func (d *wgpuDeviceImpl) bindGroupFor(p *wgpuProgram) (*wgpu.BindGroup, error) {
	depthUnits := make(map[int]bool, len(p.src.DepthUnits))
	for _, u := range p.src.DepthUnits {
		depthUnits[u] = true
	}
	entries := make([]wgpu.BindGroupEntry, 0, 1+2*p.src.TextureUnits)
	if p.uniforms != nil {
		d.queue.WriteBuffer(p.uniforms, 0, PackUniforms(p.src.Uniforms, d.uniforms))
		entries = append(entries, wgpu.BindGroupEntry{Binding: 0, Buffer: p.uniforms, Offset: 0, Size: wgpu.WholeSize})
	}
	for unit := 0; unit < p.src.TextureUnits; unit++ {
		tex, sampler := d.textures[unit], d.linear
		if depthUnits[unit] {
			sampler = d.comparison
			if tex == nil || !tex.format.IsDepth() {
				tex = d.blankDepth
			}
		} else if tex == nil || tex.format.IsDepth() {
			tex = d.blankColor
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: textureBinding(unit), TextureView: tex.view},
			wgpu.BindGroupEntry{Binding: samplerBinding(unit), Sampler: sampler},
		)
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.src.Name + " Bind Group",
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group for %q: %w", p.src.Name, err)
	}
	return bg, nil
}

// BeginSamplesQuery is a no-op; occlusion queries are not wired on this device.
func (d *wgpuDeviceImpl) BeginSamplesQuery() {}

func (d *wgpuDeviceImpl) EndSamplesQuery() (uint64, bool) { return 0, false }

func (d *wgpuDeviceImpl) ReadPixels(Framebuffer) (*image.RGBA, error) {
	return nil, fmt.Errorf("read pixels: %w", ErrUnsupported)
}

func (d *wgpuDeviceImpl) CheckError(op string) error {
	err := d.pendingErr
	d.pendingErr = nil
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (d *wgpuDeviceImpl) DefaultSize() (int, int) { return d.width, d.height }

func (d *wgpuDeviceImpl) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, pl := range d.pipelines {
		pl.Release()
		delete(d.pipelines, k)
	}
	if d.passthrough != nil {
		d.releaseProgram(d.passthrough)
	}
	for _, s := range []*wgpu.Sampler{d.linear, d.comparison} {
		if s != nil {
			s.Release()
		}
	}
	if d.defaultFB != nil {
		d.releaseTexture(d.defaultFB.color)
		d.releaseTexture(d.defaultFB.depth)
	}
	d.releaseTexture(d.blankColor)
	d.releaseTexture(d.blankDepth)
	if d.queue != nil {
		d.queue.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}
