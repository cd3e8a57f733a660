package peel

import "github.com/Carmen-Shannon/oxy-fx/engine/gpu"

// StageBuilderOption configures a Stage created by NewStage.
type StageBuilderOption func(*stageImpl)

// WithLayerRange bounds the adaptive layer count.
func WithLayerRange(minLayers, maxLayers int) StageBuilderOption {
	return func(s *stageImpl) {
		s.minLayers, s.maxLayers = minLayers, maxLayers
	}
}

// WithInitialLayers sets the layer count of the first frame and after InvalidateLayerCount.
func WithInitialLayers(n int) StageBuilderOption {
	return func(s *stageImpl) {
		s.initial = n
	}
}

// WithDepthOffset sets the previous-layer bias. Defaults to DefaultDepthOffset.
func WithDepthOffset(offset float32) StageBuilderOption {
	return func(s *stageImpl) {
		s.depthOffset = offset
	}
}

// WithOpaqueDepth sets the opaque depth the layers are clipped against.
func WithOpaqueDepth(tex gpu.Texture) StageBuilderOption {
	return func(s *stageImpl) {
		s.opaque = tex
	}
}
