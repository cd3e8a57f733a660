package effect

import (
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
)

// chainStage is the render stage of an effect node for one traversal context.
type chainStage struct {
	*stage.Base
	chain Chain
}

var _ stage.Stage = &chainStage{}

// NewChainStage creates a stage that renders its drawables and then runs chain.
// With an empty chain and no default effect it behaves like a plain render stage.
//
// Parameters:
//   - name: the stage name
//   - chain: the effects to run
//   - state: clear, target and debug configuration
//
// Returns:
//   - stage.Stage: the stage
func NewChainStage(name string, chain Chain, state stage.CommonRenderState) stage.Stage {
	if chain == nil {
		panic("effect: chain stage requires a chain")
	}
	return &chainStage{Base: stage.NewBase(name, state), chain: chain}
}

func (s *chainStage) Draw(rc *stage.RenderContext) {
	s.Execute(rc, s.draw)
}

func (s *chainStage) draw(rc *stage.RenderContext) {
	st := s.RenderState()
	target := s.Target()
	env := &DrawEnv{
		Render:      rc,
		Framebuffer: target,
		Viewport:    s.Viewport(),
		Debug:       st.Debug,
		DebugDir:    st.DebugDir,
	}

	active := s.chain.Len() > 0 || s.chain.Default() != nil
	if scene := s.chain.SceneFramebuffer(); active && (scene != nil || len(s.Drawables()) > 0) {
		s.drawScene(rc, scene)
	}
	s.chain.Draw(env, func() {
		_, vp := s.BindTarget(rc)
		s.Clear(rc)
		s.DrawDrawables(s.NewDrawContext(rc, stage.PassMain, 0, vp))
	})
}

// drawScene renders the drawables into fb, or into the stage target when fb is nil.
func (s *chainStage) drawScene(rc *stage.RenderContext, fb gpu.Framebuffer) {
	if fb == nil {
		fb = s.Target()
	}
	vp := s.ResolveViewport(rc.Device, fb)
	rc.Device.BindFramebuffer(fb)
	gpu.Check(rc.Device, "bind scene framebuffer", "stage", s.Name())
	rc.Device.SetViewport(vp)
	s.Clear(rc)
	s.DrawDrawables(s.NewDrawContext(rc, stage.PassMain, 0, vp))
}
