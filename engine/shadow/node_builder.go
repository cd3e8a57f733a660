package shadow

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// NodeBuilderOption configures a Node created by NewNode.
type NodeBuilderOption func(*nodeImpl)

// WithController shares a controller between nodes.
func WithController(c Controller) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.controller = c
	}
}

// WithRenderState sets the debug configuration new stages start with.
func WithRenderState(st stage.CommonRenderState) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.state = st
	}
}

// WithChildren sets the node's initial children.
func WithChildren(children ...traversal.Node) NodeBuilderOption {
	return func(n *nodeImpl) {
		for _, c := range children {
			n.AddChild(c)
		}
	}
}

// WithInjectorOptions passes options to the node's stage injector.
func WithInjectorOptions(options ...injector.InjectorBuilderOption) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.options = append(n.options, options...)
	}
}
