package traversal

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
)

// Group is a plain scene node holding children, drawables and an optional state set.
type Group interface {
	Parent

	// AddChild appends a child.
	AddChild(n Node)

	// RemoveChild removes a child.
	//
	// Returns:
	//   - bool: false if n was not a child
	RemoveChild(n Node) bool

	// AddDrawable attaches a drawable collected during render preparation.
	AddDrawable(d stage.Drawable)

	// StateSet returns the node's state set, or nil.
	StateSet() state_set.StateSet
}

type groupImpl struct {
	mu        *sync.Mutex
	name      string
	children  []Node
	drawables []stage.Drawable
	stateSet  state_set.StateSet
}

var _ Group = &groupImpl{}

// NewGroup creates a Group.
func NewGroup(name string, options ...GroupBuilderOption) Group {
	g := &groupImpl{mu: &sync.Mutex{}, name: name}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *groupImpl) Name() string {
	return g.name
}

func (g *groupImpl) Children() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.children)
}

func (g *groupImpl) AddChild(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.children = append(g.children, n)
}

func (g *groupImpl) RemoveChild(n Node) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := slices.Index(g.children, n)
	if i < 0 {
		return false
	}
	g.children = slices.Delete(g.children, i, i+1)
	return true
}

func (g *groupImpl) AddDrawable(d stage.Drawable) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drawables = append(g.drawables, d)
}

func (g *groupImpl) StateSet() state_set.StateSet {
	return g.stateSet
}

func (g *groupImpl) Accept(v Visitor) {
	rp, ok := v.(RenderPrepVisitor)
	if !ok {
		v.TraverseChildren(g)
		return
	}
	if g.stateSet != nil {
		rp.PushState(g.stateSet)
		defer rp.PopState()
	}
	g.mu.Lock()
	drawables := slices.Clone(g.drawables)
	g.mu.Unlock()
	for _, d := range drawables {
		rp.AddDrawable(d)
	}
	rp.TraverseChildren(g)
}
