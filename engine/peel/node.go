package peel

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// Node is a scene node whose subtree is depth peeled. While disabled its
// subtree is prepared like a plain group into the enclosing stage.
type Node interface {
	traversal.Group

	// Controller returns the controller that configured the node's state set.
	Controller() Controller

	// Enable turns peeling on for the subtree.
	Enable()

	// Disable turns peeling off for the subtree.
	Disable()

	// Enabled reports whether the subtree is peeled.
	Enabled() bool

	// InvalidateLayerCount frees the layers of every stage.
	InvalidateLayerCount()

	// ResetAll clears the per-frame content of every stage.
	ResetAll()

	// Release frees every stage on dev.
	Release(dev gpu.Device)

	// Stages returns the per-context stage cache.
	Stages() *stage.Cache[traversal.ContextKey, Stage]
}

type nodeImpl struct {
	traversal.Group
	controller Controller
	injector   *injector.Injector[Stage]
	stageOpts  []StageBuilderOption
	options    []injector.InjectorBuilderOption
}

var _ Node = &nodeImpl{}

// NewNode creates a peel node with its state set configured as a peel target.
// Its stages composite over the enclosing stage's target after it draws.
//
// Parameters:
//   - name: the node name, also the prefix of its stage names
//   - options: builder options
//
// Returns:
//   - Node: the node
func NewNode(name string, options ...NodeBuilderOption) Node {
	ss := state_set.NewStateSet()
	n := &nodeImpl{
		Group:      traversal.NewGroup(name, traversal.WithStateSet(ss)),
		controller: NewController(),
	}
	for _, opt := range options {
		opt(n)
	}
	n.controller.ConfigureAsPeelTarget(ss)
	stageOpts := append([]StageBuilderOption{WithDepthOffset(n.controller.DepthOffset())}, n.stageOpts...)

	opts := append([]injector.InjectorBuilderOption{
		injector.WithName(name),
		injector.WithPlacement(stage.PostRender),
		injector.WithStateSet(ss),
	}, n.options...)
	n.injector = injector.New(func(ctx traversal.ContextKey) (Stage, error) {
		return NewStage(name+"/"+ctx.String(), stageOpts...), nil
	}, opts...)
	return n
}

func (n *nodeImpl) Accept(v traversal.Visitor) {
	if !n.Enabled() {
		n.Group.Accept(v)
		return
	}
	n.injector.Visit(n, v)
}

func (n *nodeImpl) Controller() Controller {
	return n.controller
}

func (n *nodeImpl) Enable() {
	n.controller.Enable(n.StateSet())
}

func (n *nodeImpl) Disable() {
	n.controller.Disable(n.StateSet())
}

func (n *nodeImpl) Enabled() bool {
	return n.controller.Enabled(n.StateSet())
}

func (n *nodeImpl) InvalidateLayerCount() {
	n.injector.Cache().Range(func(_ traversal.ContextKey, s Stage) bool {
		s.InvalidateLayerCount()
		return true
	})
}

func (n *nodeImpl) ResetAll() {
	n.injector.ResetAll()
}

func (n *nodeImpl) Release(dev gpu.Device) {
	n.injector.Release(dev)
}

func (n *nodeImpl) Stages() *stage.Cache[traversal.ContextKey, Stage] {
	return n.injector.Cache()
}
