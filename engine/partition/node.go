package partition

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// Node is a scene node whose subtree is drawn once per depth partition of the
// camera in effect where the node is visited.
type Node interface {
	traversal.Group

	// SetRatio sets the per-partition near:far ratio on new and existing stages.
	SetRatio(ratio float32)

	// Ratio returns the per-partition near:far ratio.
	Ratio() float32

	// SetCount forces a partition count on new and existing stages. 0 restores the automatic count.
	SetCount(count int)

	// Count returns the forced partition count, 0 when automatic.
	Count() int

	// ResetAll clears the per-frame content of every stage.
	ResetAll()

	// Release frees every stage on dev.
	Release(dev gpu.Device)

	// Stages returns the per-context stage cache.
	Stages() *stage.Cache[traversal.ContextKey, Stage]
}

type nodeImpl struct {
	traversal.Group
	mu       *sync.Mutex
	ratio    float32
	count    int
	state    stage.CommonRenderState
	injector *injector.Injector[Stage]
	options  []injector.InjectorBuilderOption
}

var _ Node = &nodeImpl{}

// NewNode creates a partition node. Its stages draw after the enclosing stage
// into the same target and leave the color already there.
//
// Parameters:
//   - name: the node name, also the prefix of its stage names
//   - options: builder options
//
// Returns:
//   - Node: the node
func NewNode(name string, options ...NodeBuilderOption) Node {
	state := stage.DefaultRenderState()
	state.ClearMode = stage.ClearModeNone
	n := &nodeImpl{
		Group: traversal.NewGroup(name),
		mu:    &sync.Mutex{},
		ratio: DefaultRatio,
		state: state,
	}
	for _, opt := range options {
		opt(n)
	}
	opts := append([]injector.InjectorBuilderOption{
		injector.WithName(name),
		injector.WithPlacement(stage.PostRender),
	}, n.options...)
	n.injector = injector.New(func(ctx traversal.ContextKey) (Stage, error) {
		n.mu.Lock()
		defer n.mu.Unlock()
		return NewStage(name+"/"+ctx.String(), n.ratio, n.count, n.state), nil
	}, opts...)
	return n
}

func (n *nodeImpl) Accept(v traversal.Visitor) {
	n.injector.Visit(n, v)
}

func (n *nodeImpl) SetRatio(ratio float32) {
	n.mu.Lock()
	n.ratio = ratio
	n.mu.Unlock()
	n.injector.Cache().Range(func(_ traversal.ContextKey, s Stage) bool {
		s.SetRatio(ratio)
		return true
	})
}

func (n *nodeImpl) Ratio() float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ratio
}

func (n *nodeImpl) SetCount(count int) {
	n.mu.Lock()
	n.count = count
	n.mu.Unlock()
	n.injector.Cache().Range(func(_ traversal.ContextKey, s Stage) bool {
		s.SetCount(count)
		return true
	})
}

func (n *nodeImpl) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
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
