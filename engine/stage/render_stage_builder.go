package stage

import (
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
)

// RenderStageBuilderOption configures a stage created by NewRenderStage.
type RenderStageBuilderOption func(*renderStage)

// WithRenderState replaces the default clear, target and debug configuration.
func WithRenderState(state CommonRenderState) RenderStageBuilderOption {
	return func(s *renderStage) {
		s.state = state
	}
}

// WithFramebuffer sets the stage's own target.
func WithFramebuffer(fb gpu.Framebuffer) RenderStageBuilderOption {
	return func(s *renderStage) {
		s.state.Framebuffer = fb
	}
}

// WithViewport sets the initial viewport.
func WithViewport(vp common.Viewport) RenderStageBuilderOption {
	return func(s *renderStage) {
		s.viewport = vp
	}
}

// WithCamera sets the camera whose matrices the drawables receive.
func WithCamera(c camera.Camera) RenderStageBuilderOption {
	return func(s *renderStage) {
		s.camera = c
	}
}
