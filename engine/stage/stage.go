// Package stage holds the render stages the effect, partition, peel and shadow
// subsystems insert into a host's stage graph, the per-traversal stage cache
// and the per-frame epoch that keeps every stage from drawing twice in a frame.
package stage

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fx/engine/shader"
	mgl "github.com/go-gl/mathgl/mgl32"
)

// RenderContext carries the per-draw inputs shared by every stage drawn in one frame for one traversal context.
type RenderContext struct {
	// Device receives every GPU call. The draw phase owns it exclusively.
	Device gpu.Device
	// Epoch is the frame number from FrameClock. A stage draws at most once per epoch.
	Epoch uint64
	// ContextID identifies the traversal context in logs and debug image names.
	ContextID uint64
	// Programs resolves program names. May be nil when no stage needs named programs.
	Programs shader.Provider
	// Timer collects stage timings for stages with DebugProfile set. May be nil.
	Timer *profiler.StageTimer
}

// Program resolves a named program through rc.Programs.
//
// Parameters:
//   - name: the program name
//
// Returns:
//   - gpu.Program: the program
//   - error: shader.ErrNotFound when rc has no provider, or the provider's error
func (rc *RenderContext) Program(name string) (gpu.Program, error) {
	if rc.Programs == nil {
		return nil, shader.ErrNotFound
	}
	return rc.Programs.Program(rc.Device, name)
}

// PassKind identifies which kind of pass a drawable is being drawn for.
type PassKind int

const (
	PassMain PassKind = iota
	PassEffect
	PassPartition
	PassPeel
	PassShadow
)

func (k PassKind) String() string {
	switch k {
	case PassMain:
		return "main"
	case PassEffect:
		return "effect"
	case PassPartition:
		return "partition"
	case PassPeel:
		return "peel"
	case PassShadow:
		return "shadow"
	}
	return "unknown"
}

// DrawContext is handed to each Drawable. Stages that draw their drawables
// several times per frame change Pass, Index and Projection between calls.
type DrawContext struct {
	Render     *RenderContext
	Pass       PassKind
	Index      int
	Viewport   common.Viewport
	View       mgl.Mat4
	Projection mgl.Mat4
	// Textures are extra inputs a pass exposes to its drawables by name, such as peel depth layers.
	Textures map[string]gpu.Texture
	// Uniforms are per-pass values, also set on the device before the drawables run.
	Uniforms map[string]any
	// Units are the textures the pass bound by unit before the drawables run.
	Units map[int]gpu.Texture
	// DepthTest and Blend are the pass's fixed-function state. State a drawable's
	// state sets change is put back to these values after it draws.
	DepthTest bool
	Blend     gpu.BlendMode
}

// Drawable is geometry the host attached to a stage during render preparation.
type Drawable interface {
	Draw(dc *DrawContext)
}

// DrawableFunc adapts a function to Drawable.
type DrawableFunc func(dc *DrawContext)

func (f DrawableFunc) Draw(dc *DrawContext) {
	f(dc)
}

// Bounded is implemented by drawables that know their world-space bounding sphere.
type Bounded interface {
	Bounds() (center mgl.Vec3, radius float32)
}

// BoundsOf returns the bounding sphere of d, looking through wrappers that
// implement Unwrap() Drawable.
//
// Returns:
//   - mgl.Vec3: sphere center
//   - float32: sphere radius
//   - bool: false if d has no bounds
func BoundsOf(d Drawable) (mgl.Vec3, float32, bool) {
	for d != nil {
		if b, ok := d.(Bounded); ok {
			c, r := b.Bounds()
			return c, r, true
		}
		w, ok := d.(interface{ Unwrap() Drawable })
		if !ok {
			break
		}
		d = w.Unwrap()
	}
	return mgl.Vec3{}, 0, false
}

// Dependent is the extension point through which a stage accepts other stages
// that must draw strictly before or strictly after it.
type Dependent interface {
	// RegisterPreRender adds s to the stages drawn before this one.
	//
	// Parameters:
	//   - s: the dependency
	//   - order: sibling ordering key, lower draws first
	RegisterPreRender(s Stage, order int)

	// RegisterPostRender adds s to the stages drawn after this one.
	//
	// Parameters:
	//   - s: the dependency
	//   - order: sibling ordering key, lower draws first
	RegisterPostRender(s Stage, order int)
}

// Stage is one render pass with its own target, viewport and dependencies.
type Stage interface {
	Dependent

	// Name returns the stage name used in logs.
	Name() string

	// Draw executes the stage for rc.Epoch. Pre-render dependencies draw
	// first, then the stage body, then post-render dependencies. A second call
	// in the same epoch does nothing.
	Draw(rc *RenderContext)

	// Reset clears per-frame content: drawables, dependencies and the drawn marker.
	// GPU resources are kept for the next frame.
	Reset()

	// Release frees the GPU resources the stage allocated on dev.
	Release(dev gpu.Device)

	// AddDrawable attaches a drawable for this frame.
	AddDrawable(d Drawable)

	// Drawables returns the drawables attached this frame.
	Drawables() []Drawable

	// SetViewport stores the viewport applied when the stage draws. An empty
	// viewport covers the whole target.
	SetViewport(vp common.Viewport)

	// Viewport returns the stored viewport.
	Viewport() common.Viewport

	// SetCamera stores the camera whose matrices drawables receive.
	SetCamera(c camera.Camera)

	// Camera returns the stored camera, or nil.
	Camera() camera.Camera

	// RenderState returns a copy of the clear, target and debug configuration.
	RenderState() CommonRenderState

	// SetRenderState replaces the clear, target and debug configuration.
	SetRenderState(s CommonRenderState)

	// SetOwnerFramebuffer sets the framebuffer used when the stage has none of its own.
	SetOwnerFramebuffer(fb gpu.Framebuffer)

	// Target resolves the framebuffer the stage draws into: its own, else the
	// owner's, else nil for the default framebuffer.
	Target() gpu.Framebuffer

	// RenderOrder returns the sibling ordering key: the camera's when one is
	// set, otherwise the render state's.
	RenderOrder() int

	// Drawn reports whether the stage has drawn in epoch since its last reset.
	Drawn(epoch uint64) bool

	// Graph returns the stage's dependency graph.
	Graph() *Graph
}
