package injector

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

type config struct {
	name      string
	placement stage.Placement
	order     *int
	stateSet  state_set.StateSet
	onEnter   func(s stage.Stage, rp traversal.RenderPrepVisitor)
}

// InjectorBuilderOption configures an Injector created by New.
type InjectorBuilderOption func(*config)

// WithName sets the component name used in logs.
func WithName(name string) InjectorBuilderOption {
	return func(c *config) {
		c.name = name
	}
}

// WithPlacement selects whether the stage draws before or after the enclosing stage.
// The default is stage.PreRender.
func WithPlacement(p stage.Placement) InjectorBuilderOption {
	return func(c *config) {
		c.placement = p
	}
}

// WithOrder fixes the sibling order key instead of taking the stage's render order.
func WithOrder(order int) InjectorBuilderOption {
	return func(c *config) {
		c.order = &order
	}
}

// WithStateSet pushes ss while the component's children are prepared.
func WithStateSet(ss state_set.StateSet) InjectorBuilderOption {
	return func(c *config) {
		c.stateSet = ss
	}
}

// WithOnEnter is called with the stage after viewport and camera were stored,
// before it becomes the current stage.
func WithOnEnter(fn func(s stage.Stage, rp traversal.RenderPrepVisitor)) InjectorBuilderOption {
	return func(c *config) {
		c.onEnter = fn
	}
}
