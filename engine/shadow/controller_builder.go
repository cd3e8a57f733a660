package shadow

import "github.com/Carmen-Shannon/oxy-fx/engine/state_set"

// ControllerBuilderOption configures a Controller created by NewController.
type ControllerBuilderOption func(*controllerImpl)

// WithReceiver publishes shadow maps on ss instead of a new state set.
func WithReceiver(ss state_set.StateSet) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.receiver = ss
	}
}

// WithBaseUnit sets the first texture unit shadow maps are published on.
func WithBaseUnit(unit int) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.baseUnit = unit
	}
}
