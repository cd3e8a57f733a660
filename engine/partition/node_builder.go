package partition

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// NodeBuilderOption configures a Node created by NewNode.
type NodeBuilderOption func(*nodeImpl)

// WithRatio sets the per-partition near:far ratio.
func WithRatio(ratio float32) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.ratio = ratio
	}
}

// WithCount forces the partition count.
func WithCount(count int) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.count = count
	}
}

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

// WithInjectorOptions passes options to the node's stage injector.
func WithInjectorOptions(options ...injector.InjectorBuilderOption) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.options = append(n.options, options...)
	}
}
