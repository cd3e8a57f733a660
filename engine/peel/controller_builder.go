package peel

// ControllerBuilderOption configures a Controller created by NewController.
type ControllerBuilderOption func(*controllerImpl)

// WithControllerDepthOffset sets the depth offset seeded on peel targets.
func WithControllerDepthOffset(offset float32) ControllerBuilderOption {
	return func(c *controllerImpl) {
		c.depthOffset = offset
	}
}
