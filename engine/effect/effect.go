// Package effect implements screen-space post-processing: single full-screen
// passes (units), multi-pass effects such as glow and depth of field, and the
// ordered chain that runs them inside a render stage.
package effect

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
)

// Input is a texture bound to a texture unit during an effect pass.
type Input struct {
	Unit    int
	Texture gpu.Texture
}

// DrawEnv is what a chain hands each effect when it draws.
type DrawEnv struct {
	Render *stage.RenderContext
	// Framebuffer is the chain-level target used by effects without their own output. nil is the default framebuffer.
	Framebuffer gpu.Framebuffer
	// Viewport is the last viewport the stage was prepared with. Empty covers the target.
	Viewport common.Viewport
	Debug    stage.DebugFlags
	DebugDir string
}

// Effect is one post-processing step of a chain.
type Effect interface {
	// Name returns the effect name, unique within a chain.
	Name() string

	// SetProgram sets the program drawn with. An empty name leaves the
	// device's bound program untouched.
	SetProgram(name string)

	// Program returns the program name.
	Program() string

	// SetInput binds tex to unit for the effect's passes, replacing any previous texture on unit.
	SetInput(unit int, tex gpu.Texture)

	// RemoveInput unbinds unit.
	//
	// Returns:
	//   - bool: false if unit had no input
	RemoveInput(unit int) bool

	// Inputs returns the bound inputs in unit order.
	Inputs() []Input

	// SetOutput sets the framebuffer the effect draws into. nil uses the chain's target.
	SetOutput(fb gpu.Framebuffer)

	// Output returns the effect's own framebuffer, or nil.
	Output() gpu.Framebuffer

	// SetUniform sets a uniform applied on every pass of the effect.
	SetUniform(name string, value any)

	// SetTextureSize tells the effect the size of the chain's textures.
	// Effects with intermediate targets rebuild them at the new size on the next draw.
	SetTextureSize(width, height int)

	// Draw runs the effect's passes.
	//
	// Returns:
	//   - bool: false if the effect was skipped or degraded for this frame
	Draw(env *DrawEnv) bool

	// Release frees the GPU resources the effect allocated on dev.
	Release(dev gpu.Device)
}
