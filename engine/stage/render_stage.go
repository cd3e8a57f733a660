package stage

// renderStage is a conventional render target: clear, then draw the attached drawables.
type renderStage struct {
	*Base
}

var _ Stage = &renderStage{}

// NewRenderStage creates a stage that clears its target and draws its drawables.
// It serves as a host's root stage and as the fallback of the effect stages.
//
// Parameters:
//   - name: the stage name
//   - options: builder options
//
// Returns:
//   - Stage: the new stage
func NewRenderStage(name string, options ...RenderStageBuilderOption) Stage {
	s := &renderStage{Base: NewBase(name, DefaultRenderState())}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *renderStage) Draw(rc *RenderContext) {
	s.Execute(rc, func(rc *RenderContext) {
		_, vp := s.BindTarget(rc)
		s.Clear(rc)
		s.DrawDrawables(s.NewDrawContext(rc, PassMain, 0, vp))
	})
}
