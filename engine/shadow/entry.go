package shadow

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/light"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// Entry is one registered light's shadow pass: its settings, the depth
// target it renders into and the matrix of its last render.
type Entry struct {
	mu *sync.Mutex

	light      light.Light
	enabled    bool
	unit       int
	resolution int
	halfExtent float32
	near       float32
	far        float32
	biasScale  float32
	bias       float32

	view     mgl.Mat4
	proj     mgl.Mat4
	data     light.ShadowData
	depth    gpu.Texture
	fb       gpu.Framebuffer
	size     int
	failed   bool
	drawnAt  uint64
	rendered bool
}

// EntryOption configures an Entry created by Controller.AddLight.
type EntryOption func(*Entry)

// WithResolution sets the width and height of the entry's depth texture.
func WithResolution(n int) EntryOption {
	return func(e *Entry) {
		e.resolution = n
	}
}

// WithHalfExtent sets the half-size of a directional light's orthographic frustum.
func WithHalfExtent(halfExtent float32) EntryOption {
	return func(e *Entry) {
		e.halfExtent = halfExtent
	}
}

// WithDepthRange sets the near and far planes of the light projection. Spot
// lights use their range as far plane when far is 0.
func WithDepthRange(near, far float32) EntryOption {
	return func(e *Entry) {
		e.near, e.far = near, far
	}
}

// WithBias sets the depth comparison bias and the normal-offset scale.
func WithBias(bias, normalScale float32) EntryOption {
	return func(e *Entry) {
		e.bias, e.biasScale = bias, normalScale
	}
}

func newEntry(l light.Light, unit int, options ...EntryOption) *Entry {
	e := &Entry{
		mu:         &sync.Mutex{},
		light:      l,
		enabled:    true,
		unit:       unit,
		resolution: light.ShadowMapResolution,
		halfExtent: light.DefaultShadowHalfExtent,
		near:       light.DefaultShadowNear,
		far:        light.DefaultShadowFar,
		biasScale:  light.DefaultShadowNormalBiasScale,
		bias:       light.DefaultShadowBias,
		view:       mgl.Ident4(),
		proj:       mgl.Ident4(),
	}
	if l.Type() == light.LightTypeSpot {
		e.far = 0
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Light returns the entry's light.
func (e *Entry) Light() light.Light {
	return e.light
}

// Enabled reports whether the entry renders.
func (e *Entry) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// Unit returns the texture unit the depth texture is published on.
func (e *Entry) Unit() int {
	return e.unit
}

// Resolution returns the requested depth texture size.
func (e *Entry) Resolution() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolution
}

// SetResolution changes the depth texture size. The texture is rebuilt on the next render.
func (e *Entry) SetResolution(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n == e.resolution {
		return
	}
	e.resolution = n
	e.failed = false
}

// Texture returns the depth texture of the last render, or nil.
func (e *Entry) Texture() gpu.Texture {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.depth
}

// Viewport returns the pixel rectangle the light renders into.
func (e *Entry) Viewport() common.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return common.Viewport{Width: e.size, Height: e.size}
}

// Data returns the shadow data of the last render.
func (e *Entry) Data() light.ShadowData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data
}

// UniformPrefix returns the prefix of the entry's published uniforms.
func (e *Entry) UniformPrefix() string {
	return fmt.Sprintf("shadow%d", e.unit)
}

// matrices computes the light view and projection for this frame.
//
// Returns:
//   - bool: false for light types without a shadow projection
func (e *Entry) matrices(focus mgl.Vec3) (mgl.Mat4, mgl.Mat4, bool) {
	e.mu.Lock()
	near, far, halfExtent := e.near, e.far, e.halfExtent
	e.mu.Unlock()

	l := e.light
	switch l.Type() {
	case light.LightTypeDirectional:
		view, proj := light.DirectionalMatrices(l.Direction(), focus, halfExtent, near, far)
		return view, proj, true
	case light.LightTypeSpot:
		if far == 0 {
			far = l.Range()
		}
		view, proj := light.SpotMatrices(l.Position(), l.Direction(), l.OuterCone(), near, far)
		return view, proj, true
	}
	return mgl.Ident4(), mgl.Ident4(), false
}

// target returns the depth framebuffer at the requested size, rebuilding it after a resize.
func (e *Entry) target(dev gpu.Device) (gpu.Framebuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fb != nil && e.size == e.resolution {
		return e.fb, nil
	}
	if e.failed {
		return nil, fmt.Errorf("shadow map for %q: %w", e.light.Name(), gpu.ErrAllocation)
	}
	if e.fb != nil {
		dev.Release(e.fb)
		dev.Release(e.depth)
		e.fb, e.depth, e.size = nil, nil, 0
	}

	label := "shadow-" + e.light.Name()
	depth, err := dev.CreateTexture(gpu.TextureDescriptor{Label: label, Width: e.resolution, Height: e.resolution, Format: gpu.TextureFormatDepth32Float})
	if err != nil {
		e.failed = true
		return nil, fmt.Errorf("failed to create shadow map for %q: %w", e.light.Name(), err)
	}
	fb, err := dev.CreateFramebuffer(label, nil, depth)
	if err != nil {
		dev.Release(depth)
		e.failed = true
		return nil, fmt.Errorf("failed to create shadow framebuffer for %q: %w", e.light.Name(), err)
	}
	e.depth, e.fb, e.size = depth, fb, e.resolution
	return fb, nil
}

func (e *Entry) release(dev gpu.Device) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fb != nil {
		dev.Release(e.fb)
		dev.Release(e.depth)
	}
	e.fb, e.depth, e.size = nil, nil, 0
	e.failed = false
}
