package effect

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// Node is a scene node whose subtree is rendered through an effect chain.
// Every traversal context gets its own chain stage; the chain is shared.
type Node interface {
	traversal.Group

	// Chain returns the node's effect chain.
	Chain() Chain

	// RenderState returns the configuration new stages start with.
	RenderState() stage.CommonRenderState

	// SetRenderState replaces the configuration of new and existing stages.
	SetRenderState(st stage.CommonRenderState)

	// ResetAll clears the per-frame content of every stage.
	ResetAll()

	// Release frees every stage and effect resource on dev.
	Release(dev gpu.Device)

	// Stages returns the per-context stage cache.
	Stages() *stage.Cache[traversal.ContextKey, stage.Stage]
}

type nodeImpl struct {
	traversal.Group
	mu       *sync.Mutex
	chain    Chain
	state    stage.CommonRenderState
	injector *injector.Injector[stage.Stage]
	options  []injector.InjectorBuilderOption
}

var _ Node = &nodeImpl{}

// NewNode creates an effect node.
//
// Parameters:
//   - name: the node name, also the prefix of its stage names
//   - chain: the effects
//   - options: builder options
//
// Returns:
//   - Node: the node
func NewNode(name string, chain Chain, options ...NodeBuilderOption) Node {
	if chain == nil {
		panic("effect: NewNode requires a chain")
	}
	n := &nodeImpl{
		Group: traversal.NewGroup(name),
		mu:    &sync.Mutex{},
		chain: chain,
		state: stage.DefaultRenderState(),
	}
	for _, opt := range options {
		opt(n)
	}
	opts := append([]injector.InjectorBuilderOption{
		injector.WithName(name),
		injector.WithPlacement(stage.PostRender),
	}, n.options...)
	n.injector = injector.New(func(ctx traversal.ContextKey) (stage.Stage, error) {
		return NewChainStage(name+"/"+ctx.String(), n.chain, n.RenderState()), nil
	}, opts...)
	return n
}

func (n *nodeImpl) Accept(v traversal.Visitor) {
	n.injector.Visit(n, v)
}

func (n *nodeImpl) Chain() Chain {
	return n.chain
}

func (n *nodeImpl) RenderState() stage.CommonRenderState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *nodeImpl) SetRenderState(st stage.CommonRenderState) {
	n.mu.Lock()
	n.state = st
	n.mu.Unlock()
	n.injector.Cache().Range(func(_ traversal.ContextKey, s stage.Stage) bool {
		s.SetRenderState(st)
		return true
	})
}

func (n *nodeImpl) ResetAll() {
	n.injector.ResetAll()
}

func (n *nodeImpl) Release(dev gpu.Device) {
	n.injector.Release(dev)
	n.chain.Release(dev)
}

func (n *nodeImpl) Stages() *stage.Cache[traversal.ContextKey, stage.Stage] {
	return n.injector.Cache()
}
