package traversal

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
)

// GroupBuilderOption configures a Group created by NewGroup.
type GroupBuilderOption func(*groupImpl)

// WithChildren sets the initial children.
func WithChildren(children ...Node) GroupBuilderOption {
	return func(g *groupImpl) {
		g.children = append(g.children, children...)
	}
}

// WithDrawables sets the initial drawables.
func WithDrawables(drawables ...stage.Drawable) GroupBuilderOption {
	return func(g *groupImpl) {
		g.drawables = append(g.drawables, drawables...)
	}
}

// WithStateSet sets the state set pushed while the group's subtree is prepared.
func WithStateSet(ss state_set.StateSet) GroupBuilderOption {
	return func(g *groupImpl) {
		g.stateSet = ss
	}
}
