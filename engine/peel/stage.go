package peel

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
)

const (
	DefaultMinLayers = 1
	DefaultMaxLayers = 8
)

// Stage peels its drawables into layers and composites them over its target.
//
// The layer count adapts across frames: when every drawn layer produced
// fragments the next frame draws one more, and when a layer comes back empty
// the count shrinks to that layer.
type Stage interface {
	stage.Stage

	// LayerCount returns how many layers the next frame draws at most.
	LayerCount() int

	// LayersDrawn returns how many non-empty layers the last frame composited.
	LayersDrawn() int

	// Layers returns the allocated layers.
	Layers() []*Layer

	// InvalidateLayerCount frees every layer and restarts the count from its initial value.
	// The layers are released on the next draw.
	InvalidateLayerCount()

	// SetOpaqueDepth sets the depth of the opaque scene the layers are clipped against. nil disables clipping.
	SetOpaqueDepth(tex gpu.Texture)

	// SetDepthOffset sets the previous-layer bias.
	SetDepthOffset(offset float32)

	// DepthOffset returns the previous-layer bias.
	DepthOffset() float32
}

type stageImpl struct {
	*stage.Base
	mu *sync.Mutex

	minLayers   int
	maxLayers   int
	initial     int
	count       int
	drawnLayers int
	depthOffset float32
	opaque      gpu.Texture

	layers  []*Layer
	stale   []*Layer
	width   int
	height  int
	failed  bool
	quad    gpu.Geometry
	quadDev gpu.Device
	warned  *common.OnceLogger
}

var _ Stage = &stageImpl{}

// NewStage creates a peel stage.
//
// Parameters:
//   - name: the stage name, also the prefix of its layer labels
//   - options: builder options
//
// Returns:
//   - Stage: the stage
func NewStage(name string, options ...StageBuilderOption) Stage {
	state := stage.DefaultRenderState()
	state.ClearMode = stage.ClearModeNone
	s := &stageImpl{
		Base:        stage.NewBase(name, state),
		mu:          &sync.Mutex{},
		minLayers:   DefaultMinLayers,
		maxLayers:   DefaultMaxLayers,
		depthOffset: DefaultDepthOffset,
		warned:      common.NewOnceLogger(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.minLayers = max(1, s.minLayers)
	s.maxLayers = max(s.minLayers, s.maxLayers)
	if s.initial == 0 {
		s.initial = s.minLayers
	}
	s.initial = common.Clamp(s.initial, s.minLayers, s.maxLayers)
	s.count = s.initial
	return s
}

func (s *stageImpl) LayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *stageImpl) LayersDrawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawnLayers
}

func (s *stageImpl) Layers() []*Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Layer(nil), s.layers...)
}

func (s *stageImpl) InvalidateLayerCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.count = s.initial
}

func (s *stageImpl) invalidateLocked() {
	s.stale = append(s.stale, s.layers...)
	s.layers = nil
	s.failed = false
	s.warned.Reset()
}

func (s *stageImpl) SetOpaqueDepth(tex gpu.Texture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opaque = tex
}

func (s *stageImpl) SetDepthOffset(offset float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depthOffset = offset
}

func (s *stageImpl) DepthOffset() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depthOffset
}

func (s *stageImpl) Release(dev gpu.Device) {
	s.mu.Lock()
	s.invalidateLocked()
	s.releaseStaleLocked(dev)
	if s.quad != nil {
		gpu.Shared().ReleaseQuad(s.quadDev)
		s.quad, s.quadDev = nil, nil
	}
	s.mu.Unlock()
	s.Base.Release(dev)
}

func (s *stageImpl) releaseStaleLocked(dev gpu.Device) {
	for _, l := range s.stale {
		l.release(dev)
	}
	s.stale = nil
}

// layer returns layer i, allocating it on first use. Returns nil after an
// allocation failure until the next resize or invalidation.
func (s *stageImpl) layer(dev gpu.Device, i int) *Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < len(s.layers) {
		return s.layers[i]
	}
	if s.failed {
		return nil
	}
	l, err := newLayer(dev, s.Name(), i, s.width, s.height)
	if err != nil {
		s.failed = true
		s.warned.Warn("layer", "peel layer unavailable", "stage", s.Name(), "layer", i, "err", err)
		return nil
	}
	s.layers = append(s.layers, l)
	return l
}

func (s *stageImpl) sharedQuad(dev gpu.Device) (gpu.Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quad != nil && s.quadDev == dev {
		return s.quad, nil
	}
	q, err := gpu.Shared().AcquireQuad(dev)
	if err != nil {
		return nil, err
	}
	s.quad, s.quadDev = q, dev
	return q, nil
}

func (s *stageImpl) Draw(rc *stage.RenderContext) {
	s.Execute(rc, s.draw)
}

func (s *stageImpl) draw(rc *stage.RenderContext) {
	dev := rc.Device
	target, vp := s.BindTarget(rc)
	s.Clear(rc)

	s.mu.Lock()
	if vp.Width != s.width || vp.Height != s.height {
		s.invalidateLocked()
		s.width, s.height = vp.Width, vp.Height
	}
	s.releaseStaleLocked(dev)
	count, offset, opaque := s.count, s.depthOffset, s.opaque
	s.mu.Unlock()

	st := s.RenderState()
	layerVP := common.Viewport{Width: vp.Width, Height: vp.Height}
	drawn, empty, counted := 0, -1, true
	for i := range count {
		l := s.layer(dev, i)
		if l == nil {
			break
		}
		dev.BindFramebuffer(l.Framebuffer)
		gpu.Check(dev, "bind peel layer", "stage", s.Name(), "layer", i)
		dev.SetViewport(layerVP)
		dev.Clear(gpu.ClearAll, common.Transparent, 1)
		dev.SetDepthTest(true)
		dev.SetBlend(gpu.BlendNone)

		dc := s.NewDrawContext(rc, stage.PassPeel, i, layerVP)
		dc.Textures = make(map[string]gpu.Texture, 2)
		dc.Uniforms = map[string]any{
			UniformLayer:       i,
			UniformDepthOffset: offset,
			UniformEnabled:     true,
		}
		if st.Debug.Has(stage.DebugVisual) {
			dc.Uniforms["peelTint"] = float32(i+1) / float32(count)
		}
		dc.Units = make(map[int]gpu.Texture, 2)
		dev.BindTexture(OpaqueDepthUnit, opaque)
		if opaque != nil {
			dc.Textures[TextureOpaqueDepth] = opaque
			dc.Units[OpaqueDepthUnit] = opaque
		}
		var previous gpu.Texture
		if i > 0 {
			previous = s.Layers()[i-1].Depth
			dc.Textures[TexturePreviousDepth] = previous
			dc.Units[PreviousDepthUnit] = previous
		}
		dev.BindTexture(PreviousDepthUnit, previous)
		for name, v := range dc.Uniforms {
			dev.SetUniform(name, v)
		}

		dev.BeginSamplesQuery()
		s.DrawDrawables(dc)
		samples, ok := dev.EndSamplesQuery()
		gpu.Check(dev, "draw peel layer", "stage", s.Name(), "layer", i)
		if !ok {
			counted = false
		} else if samples == 0 {
			empty = i
			break
		}
		drawn = i + 1
	}
	dev.BindTexture(OpaqueDepthUnit, nil)
	dev.BindTexture(PreviousDepthUnit, nil)

	s.mu.Lock()
	s.drawnLayers = drawn
	switch {
	case !counted:
	case empty >= 0:
		s.count = max(s.minLayers, empty+1)
	case drawn == count:
		s.count = min(count+1, s.maxLayers)
	}
	s.mu.Unlock()

	dev.BindFramebuffer(target)
	dev.SetViewport(vp)
	if drawn == 0 && empty < 0 {
		// No layer could be allocated: draw unsorted rather than not at all.
		dev.SetDepthTest(true)
		dev.SetBlend(gpu.BlendOver)
		dc := s.NewDrawContext(rc, stage.PassPeel, 0, vp)
		dc.Blend = gpu.BlendOver
		s.DrawDrawables(dc)
		return
	}
	s.composite(rc, drawn)
}

// composite blends the layers over the bound target, farthest first.
func (s *stageImpl) composite(rc *stage.RenderContext, drawn int) {
	if drawn == 0 {
		return
	}
	dev := rc.Device
	quad, err := s.sharedQuad(dev)
	if err != nil {
		s.warned.Warn("quad", "peel composite skipped", "stage", s.Name(), "err", err)
		return
	}
	layers := s.Layers()
	dev.SetDepthTest(false)
	dev.SetBlend(gpu.BlendOver)
	dev.BindProgram(nil)
	for i := drawn - 1; i >= 0; i-- {
		dev.BindTexture(0, layers[i].Color)
		dev.Draw(quad)
	}
	dev.BindTexture(0, nil)
	dev.SetBlend(gpu.BlendNone)
	gpu.Check(dev, "composite peel layers", "stage", s.Name())
}
