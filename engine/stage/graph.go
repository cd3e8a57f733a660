package stage

import (
	"slices"
	"sync"
)

// Placement selects whether a dependency draws before or after its parent stage.
type Placement int

const (
	PreRender Placement = iota
	PostRender
)

func (p Placement) String() string {
	if p == PostRender {
		return "post-render"
	}
	return "pre-render"
}

type edge struct {
	stage Stage
	order int
	seq   int
}

// Graph is the ordered set of pre-render and post-render dependencies of one stage.
// Dependencies with equal order keys keep their registration order. Registering
// a stage that is already present under the same placement only updates its order.
type Graph struct {
	mu   *sync.Mutex
	pre  []edge
	post []edge
	seq  int
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{mu: &sync.Mutex{}}
}

// Add registers s under placement with the given order key.
//
// Parameters:
//   - placement: PreRender or PostRender
//   - s: the dependency
//   - order: sibling ordering key, lower draws first
func (g *Graph) Add(placement Placement, s Stage, order int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edges := &g.pre
	if placement == PostRender {
		edges = &g.post
	}
	for i := range *edges {
		if (*edges)[i].stage == s {
			(*edges)[i].order = order
			return
		}
	}
	g.seq++
	*edges = append(*edges, edge{stage: s, order: order, seq: g.seq})
}

// Remove drops s from both placements.
//
// Returns:
//   - bool: true if s was registered
func (g *Graph) Remove(s Stage) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.pre) + len(g.post)
	match := func(e edge) bool { return e.stage == s }
	g.pre = slices.DeleteFunc(g.pre, match)
	g.post = slices.DeleteFunc(g.post, match)
	return len(g.pre)+len(g.post) != n
}

// Stages returns the dependencies under placement in draw order.
func (g *Graph) Stages(placement Placement) []Stage {
	g.mu.Lock()
	edges := slices.Clone(g.pre)
	if placement == PostRender {
		edges = slices.Clone(g.post)
	}
	g.mu.Unlock()

	slices.SortStableFunc(edges, func(a, b edge) int {
		if a.order != b.order {
			return a.order - b.order
		}
		return a.seq - b.seq
	})
	out := make([]Stage, len(edges))
	for i, e := range edges {
		out[i] = e.stage
	}
	return out
}

// Len returns the number of registered dependencies.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pre) + len(g.post)
}

// Clear removes every dependency.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pre = g.pre[:0]
	g.post = g.post[:0]
	g.seq = 0
}
