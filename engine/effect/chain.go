package effect

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

// Chain is an ordered sequence of effects. Order is execution order; each
// effect usually reads the previous one's output.
type Chain interface {
	// Add appends e.
	//
	// Returns:
	//   - bool: false if an effect with the same name is already in the chain
	Add(e Effect) bool

	// Insert places e at index, clamped to the chain length.
	//
	// Returns:
	//   - bool: false if an effect with the same name is already in the chain
	Insert(index int, e Effect) bool

	// Remove takes the named effect out of the chain. Its GPU resources are
	// released on the next draw.
	//
	// Returns:
	//   - bool: false if no such effect is in the chain
	Remove(name string) bool

	// Enable turns the named effect back on.
	//
	// Returns:
	//   - bool: false if there is no such effect or it is already enabled
	Enable(name string) bool

	// Disable skips the named effect when drawing without removing it.
	//
	// Returns:
	//   - bool: false if there is no such effect or it is already disabled
	Disable(name string) bool

	// Enabled reports whether the named effect is in the chain and enabled.
	Enabled(name string) bool

	// Effect returns the named effect.
	Effect(name string) (Effect, bool)

	// Effects returns the effects in execution order.
	Effects() []Effect

	// Len returns the number of effects, enabled or not.
	Len() int

	// SetDefault sets the effect drawn when the chain is empty. nil clears it.
	SetDefault(e Effect)

	// Default returns the default effect, or nil.
	Default() Effect

	// SetTextureSize forwards the size of the chain's textures to every effect.
	SetTextureSize(width, height int)

	// TextureSize returns the last size set.
	TextureSize() (width, height int)

	// SetSceneFramebuffer sets where the stage draws its drawables before the effects run.
	SetSceneFramebuffer(fb gpu.Framebuffer)

	// SceneFramebuffer returns the scene framebuffer, or nil.
	SceneFramebuffer() gpu.Framebuffer

	// Draw runs the enabled effects in order. An empty chain draws the default
	// effect if set, and calls fallback otherwise.
	//
	// Parameters:
	//   - env: the draw environment
	//   - fallback: the conventional clear-and-draw of the owning stage
	Draw(env *DrawEnv, fallback func())

	// Release frees every effect's GPU resources on dev, including removed ones.
	Release(dev gpu.Device)
}

type chainEntry struct {
	effect  Effect
	enabled bool
}

type chainImpl struct {
	mu      *sync.Mutex
	entries []chainEntry
	removed []Effect
	def     Effect
	width   int
	height  int
	scene   gpu.Framebuffer
}

var _ Chain = &chainImpl{}

// NewChain creates an empty Chain.
func NewChain(options ...ChainBuilderOption) Chain {
	c := &chainImpl{mu: &sync.Mutex{}}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *chainImpl) index(name string) int {
	return slices.IndexFunc(c.entries, func(e chainEntry) bool { return e.effect.Name() == name })
}

func (c *chainImpl) Add(e Effect) bool {
	return c.Insert(c.Len(), e)
}

func (c *chainImpl) Insert(index int, e Effect) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index(e.Name()) >= 0 {
		common.Logger().Warn("effect already in chain", "effect", e.Name())
		return false
	}
	if c.width > 0 && c.height > 0 {
		e.SetTextureSize(c.width, c.height)
	}
	index = common.Clamp(index, 0, len(c.entries))
	c.entries = slices.Insert(c.entries, index, chainEntry{effect: e, enabled: true})
	return true
}

func (c *chainImpl) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(name)
	if i < 0 {
		common.Logger().Warn("effect not in chain", "effect", name)
		return false
	}
	c.removed = append(c.removed, c.entries[i].effect)
	c.entries = slices.Delete(c.entries, i, i+1)
	return true
}

func (c *chainImpl) setEnabled(name string, enabled bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(name)
	if i < 0 {
		common.Logger().Warn("effect not in chain", "effect", name)
		return false
	}
	if c.entries[i].enabled == enabled {
		common.Logger().Warn("effect already in requested state", "effect", name, "enabled", enabled)
		return false
	}
	c.entries[i].enabled = enabled
	return true
}

func (c *chainImpl) Enable(name string) bool {
	return c.setEnabled(name, true)
}

func (c *chainImpl) Disable(name string) bool {
	return c.setEnabled(name, false)
}

func (c *chainImpl) Enabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(name)
	return i >= 0 && c.entries[i].enabled
}

func (c *chainImpl) Effect(name string) (Effect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(name); i >= 0 {
		return c.entries[i].effect, true
	}
	return nil, false
}

func (c *chainImpl) Effects() []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Effect, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.effect
	}
	return out
}

func (c *chainImpl) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *chainImpl) SetDefault(e Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.def != nil && c.def != e {
		c.removed = append(c.removed, c.def)
	}
	c.def = e
}

func (c *chainImpl) Default() Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.def
}

func (c *chainImpl) SetTextureSize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	effects := make([]Effect, 0, len(c.entries)+1)
	for _, e := range c.entries {
		effects = append(effects, e.effect)
	}
	if c.def != nil {
		effects = append(effects, c.def)
	}
	c.mu.Unlock()

	for _, e := range effects {
		e.SetTextureSize(width, height)
	}
}

func (c *chainImpl) TextureSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *chainImpl) SetSceneFramebuffer(fb gpu.Framebuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene = fb
}

func (c *chainImpl) SceneFramebuffer() gpu.Framebuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene
}

func (c *chainImpl) Draw(env *DrawEnv, fallback func()) {
	c.mu.Lock()
	removed := c.removed
	c.removed = nil
	entries := slices.Clone(c.entries)
	def := c.def
	c.mu.Unlock()

	for _, e := range removed {
		e.Release(env.Render.Device)
	}

	if len(entries) == 0 {
		if def != nil {
			def.Draw(env)
			return
		}
		if fallback != nil {
			fallback()
		}
		return
	}
	for _, e := range entries {
		if e.enabled {
			e.effect.Draw(env)
		}
	}
}

func (c *chainImpl) Release(dev gpu.Device) {
	c.mu.Lock()
	effects := c.removed
	c.removed = nil
	for _, e := range c.entries {
		effects = append(effects, e.effect)
	}
	if c.def != nil {
		effects = append(effects, c.def)
	}
	c.mu.Unlock()

	for _, e := range effects {
		e.Release(dev)
	}
}
