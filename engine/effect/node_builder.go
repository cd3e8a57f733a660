package effect

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// NodeBuilderOption configures a Node created by NewNode.
type NodeBuilderOption func(*nodeImpl)

// WithRenderState sets the configuration new stages start with.
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

// WithInjectorOptions passes options to the node's stage injector, such as
// the placement relative to the enclosing stage. Effect stages draw after it by default.
func WithInjectorOptions(options ...injector.InjectorBuilderOption) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.options = append(n.options, options...)
	}
}
