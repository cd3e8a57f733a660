package peel

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/injector"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// NodeBuilderOption configures a Node created by NewNode.
type NodeBuilderOption func(*nodeImpl)

// WithController replaces the node's controller.
func WithController(c Controller) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.controller = c
	}
}

// WithStageOptions passes options to every stage the node creates.
func WithStageOptions(options ...StageBuilderOption) NodeBuilderOption {
	return func(n *nodeImpl) {
		n.stageOpts = append(n.stageOpts, options...)
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
