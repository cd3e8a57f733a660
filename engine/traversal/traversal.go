// Package traversal defines the extension points of a host scene-graph
// traversal: nodes, visitors and the render-preparation visitor through
// which stages are swapped in and drawables are collected.
package traversal

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
)

var nextContextID atomic.Uint64

// ContextKey identifies one concurrent render-preparation pass, such as one
// viewer or one eye. It is comparable and only used as a map key.
type ContextKey struct {
	id uint64
}

// NewContextKey mints a key distinct from every key minted before.
func NewContextKey() ContextKey {
	return ContextKey{id: nextContextID.Add(1)}
}

// ID returns the numeric id used in logs and debug image names.
func (k ContextKey) ID() uint64 {
	return k.id
}

func (k ContextKey) String() string {
	return fmt.Sprintf("ctx#%d", k.id)
}

// VisitorKind is the traversal phase a visitor belongs to.
type VisitorKind int

const (
	VisitUpdate VisitorKind = iota
	VisitBounds
	VisitRenderPrep
	VisitOther
)

func (k VisitorKind) String() string {
	switch k {
	case VisitUpdate:
		return "update"
	case VisitBounds:
		return "bounds"
	case VisitRenderPrep:
		return "render-prep"
	}
	return "other"
}

// Node is a scene node a visitor can enter.
type Node interface {
	Name() string
	Accept(v Visitor)
}

// Parent is a node with children.
type Parent interface {
	Node
	Children() []Node
}

// Visitor walks the scene.
type Visitor interface {
	Kind() VisitorKind

	// TraverseChildren visits the children of n, if it has any.
	TraverseChildren(n Node)
}

// RenderPrepVisitor is the visitor of the render-preparation traversal.
// It tracks the stage drawables go into and a stack of state sets applied to them.
type RenderPrepVisitor interface {
	Visitor

	// Context returns the traversal context this visitor runs for.
	Context() ContextKey

	// CurrentStage returns the stage drawables are collected into.
	CurrentStage() stage.Stage

	// SetCurrentStage replaces the stage drawables are collected into.
	SetCurrentStage(s stage.Stage)

	// Viewport returns the viewport of the viewer.
	Viewport() common.Viewport

	// Camera returns the camera of the viewer.
	Camera() camera.Camera

	// PushState pushes a state set applied to drawables added until the matching PopState.
	PushState(ss state_set.StateSet)

	// PopState pops the last pushed state set.
	PopState()

	// StateDepth returns the number of pushed state sets.
	StateDepth() int

	// AddDrawable attaches d to the current stage under the pushed state sets.
	AddDrawable(d stage.Drawable)
}

// DefaultTraverse visits every child of n with v. Nodes without children are ignored.
func DefaultTraverse(n Node, v Visitor) {
	p, ok := n.(Parent)
	if !ok {
		return
	}
	for _, c := range p.Children() {
		c.Accept(v)
	}
}
