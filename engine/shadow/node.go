package shadow

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// Node is a scene node whose subtree both casts and receives shadows. Its
// children are drawn into the enclosing stage under the controller's receiver
// state and into a shadow stage drawn before it.
type Node interface {
	traversal.Group

	// Controller returns the node's shadow controller.
	Controller() Controller

	// ResetAll clears the per-frame content of every stage.
	ResetAll()

	// Release frees every stage and shadow map on dev.
	Release(dev gpu.Device)

	// Stages returns the per-context stage cache.
	Stages() *stage.Cache[traversal.ContextKey, Stage]
}

type nodeImpl struct {
	traversal.Group
	controller Controller
	state      stage.CommonRenderState
	injector   *injector.Injector[Stage]
	options    []injector.InjectorBuilderOption
}

var _ Node = &nodeImpl{}

// NewNode creates a shadow node.
//
// Parameters:
//   - name: the node name, also the prefix of its stage names
//   - options: builder options
//
// Returns:
//   - Node: the node
func NewNode(name string, options ...NodeBuilderOption) Node {
	n := &nodeImpl{
		Group: traversal.NewGroup(name),
		state: stage.DefaultRenderState(),
	}
	for _, opt := range options {
		opt(n)
	}
	if n.controller == nil {
		n.controller = NewController()
	}
	opts := append([]injector.InjectorBuilderOption{
		injector.WithName(name),
		injector.WithPlacement(stage.PreRender),
	}, n.options...)
	n.injector = injector.New(func(ctx traversal.ContextKey) (Stage, error) {
		return NewStage(name+"/"+ctx.String(), n.controller, n.state), nil
	}, opts...)
	return n
}

func (n *nodeImpl) Accept(v traversal.Visitor) {
	rp, ok := v.(traversal.RenderPrepVisitor)
	if !ok {
		v.TraverseChildren(n)
		return
	}
	rp.PushState(n.controller.Receiver())
	rp.TraverseChildren(n)
	rp.PopState()
	n.injector.Visit(n, v)
}

func (n *nodeImpl) Controller() Controller {
	return n.controller
}

func (n *nodeImpl) ResetAll() {
	n.injector.ResetAll()
}

func (n *nodeImpl) Release(dev gpu.Device) {
	n.injector.Release(dev)
	n.controller.Release(dev)
}

func (n *nodeImpl) Stages() *stage.Cache[traversal.ContextKey, Stage] {
	return n.injector.Cache()
}
