package shadow

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
)

// Stage renders the shadow passes of a controller from the casters collected
// for one traversal context.
type Stage interface {
	stage.Stage

	// Rendered returns how many entries rendered in the stage's last draw.
	Rendered() int
}

type stageImpl struct {
	*stage.Base
	controller Controller
	rendered   int
}

var _ Stage = &stageImpl{}

// NewStage creates a shadow stage.
//
// Parameters:
//   - name: the stage name
//   - c: the controller whose entries the stage renders
//   - state: debug configuration; the clear and target settings are unused
//
// Returns:
//   - Stage: the stage
func NewStage(name string, c Controller, state stage.CommonRenderState) Stage {
	if c == nil {
		panic("shadow: stage requires a controller")
	}
	return &stageImpl{Base: stage.NewBase(name, state), controller: c}
}

func (s *stageImpl) Draw(rc *stage.RenderContext) {
	s.Execute(rc, func(rc *stage.RenderContext) {
		s.rendered = s.controller.Render(rc, s)
	})
}

func (s *stageImpl) Rendered() int {
	return s.rendered
}
