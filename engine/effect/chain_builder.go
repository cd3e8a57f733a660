package effect

import "github.com/Carmen-Shannon/oxy-fx/engine/gpu"

// ChainBuilderOption configures a Chain created by NewChain.
type ChainBuilderOption func(*chainImpl)

// WithEffects appends effects in order. Duplicate names are dropped.
func WithEffects(effects ...Effect) ChainBuilderOption {
	return func(c *chainImpl) {
		for _, e := range effects {
			if c.index(e.Name()) < 0 {
				c.entries = append(c.entries, chainEntry{effect: e, enabled: true})
			}
		}
	}
}

// WithDefaultEffect sets the effect drawn when the chain is empty.
func WithDefaultEffect(e Effect) ChainBuilderOption {
	return func(c *chainImpl) {
		c.def = e
	}
}

// WithSceneFramebuffer sets where drawables are rendered before the effects run.
func WithSceneFramebuffer(fb gpu.Framebuffer) ChainBuilderOption {
	return func(c *chainImpl) {
		c.scene = fb
	}
}
