// Package injector swaps a component's own render stage into a
// render-preparation traversal and hands the finished stage back to the
// caller as an explicit handle to register into the enclosing stage's graph.
package injector

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// State is the position of one traversal in the injection state machine.
type State int

const (
	NotRenderPrep State = iota
	EnteringStage
	InStage
	Exited
)

func (s State) String() string {
	switch s {
	case NotRenderPrep:
		return "not-render-prep"
	case EnteringStage:
		return "entering-stage"
	case InStage:
		return "in-stage"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// Injector owns the per-traversal-context stages of one component.
// It is safe for concurrent traversals; each traversal drives its own Pass.
type Injector[S stage.Stage] struct {
	cache  *stage.Cache[traversal.ContextKey, S]
	cfg    config
	warned *common.OnceLogger
}

// New creates an Injector.
//
// Parameters:
//   - construct: builds the component's stage for a traversal context; must not touch the GPU
//   - options: builder options
//
// Returns:
//   - *Injector[S]: the injector
func New[S stage.Stage](construct func(ctx traversal.ContextKey) (S, error), options ...InjectorBuilderOption) *Injector[S] {
	in := &Injector[S]{
		cache:  stage.NewCache(construct),
		cfg:    config{name: "stage", placement: stage.PreRender},
		warned: common.NewOnceLogger(),
	}
	for _, opt := range options {
		opt(&in.cfg)
	}
	return in
}

// Cache returns the per-context stage cache.
func (in *Injector[S]) Cache() *stage.Cache[traversal.ContextKey, S] {
	return in.cache
}

// ResetAll clears the per-frame content of every cached stage.
func (in *Injector[S]) ResetAll() {
	in.cache.ResetAll()
}

// Release deletes every cached stage and frees its GPU resources on dev.
func (in *Injector[S]) Release(dev gpu.Device) {
	in.cache.Range(func(key traversal.ContextKey, s S) bool {
		in.cache.Delete(key)
		s.Release(dev)
		return true
	})
}

// Enter starts the injection for v.
//
// Parameters:
//   - v: the visitor entering the component
//
// Returns:
//   - *Pass[S]: the pass to Exit after the children were traversed
//   - bool: false when v is not a render-preparation visitor or the stage
//     could not be constructed; the caller traverses children normally
func (in *Injector[S]) Enter(v traversal.Visitor) (*Pass[S], bool) {
	rp, ok := v.(traversal.RenderPrepVisitor)
	if !ok {
		return nil, false
	}
	p := &Pass[S]{visitor: rp, state: EnteringStage, cfg: in.cfg}
	p.previous = rp.CurrentStage()

	s, err := in.cache.GetOrCreate(rp.Context())
	if err != nil {
		in.warned.Warn(fmt.Sprintf("construct/%d", rp.Context().ID()), "stage unavailable, skipping component",
			"component", in.cfg.name, "context", rp.Context(), "err", err)
		return nil, false
	}
	p.stage = s

	if vp := rp.Viewport(); !vp.Empty() {
		s.SetViewport(vp)
	}
	if cam := rp.Camera(); cam != nil {
		s.SetCamera(cam)
	}
	if in.cfg.onEnter != nil {
		in.cfg.onEnter(s, rp)
	}

	rp.SetCurrentStage(s)
	if in.cfg.stateSet != nil {
		rp.PushState(in.cfg.stateSet)
		p.pushed = true
	}
	p.state = InStage
	return p, true
}

// Visit runs the whole injection for n: Enter, child traversal, Exit and Register.
// Non-render-preparation visitors get the default child traversal.
//
// Parameters:
//   - n: the component node
//   - v: the visitor
//
// Returns:
//   - Handle[S]: the registered handle
//   - bool: false when no stage was injected
func (in *Injector[S]) Visit(n traversal.Node, v traversal.Visitor) (Handle[S], bool) {
	p, ok := in.Enter(v)
	if !ok {
		v.TraverseChildren(n)
		return Handle[S]{}, false
	}
	v.TraverseChildren(n)
	h := p.Exit()
	h.Register()
	return h, true
}

// Pass is one traversal's trip through the component.
type Pass[S stage.Stage] struct {
	visitor  traversal.RenderPrepVisitor
	stage    S
	previous stage.Stage
	pushed   bool
	state    State
	cfg      config
	handle   Handle[S]
}

// Stage returns the injected stage.
func (p *Pass[S]) Stage() S {
	return p.stage
}

// State returns the pass's current state.
func (p *Pass[S]) State() State {
	return p.state
}

// Exit pops the pushed state, restores the previous current stage and
// returns the handle to register. Calling Exit again returns the same handle.
func (p *Pass[S]) Exit() Handle[S] {
	if p.state == Exited {
		return p.handle
	}
	if p.pushed {
		p.visitor.PopState()
	}
	p.visitor.SetCurrentStage(p.previous)

	order := p.stage.RenderOrder()
	if p.cfg.order != nil {
		order = *p.cfg.order
	}
	p.handle = Handle[S]{
		Stage:     p.stage,
		Previous:  p.previous,
		Placement: p.cfg.placement,
		Order:     order,
	}
	p.state = Exited
	return p.handle
}

// Handle is a finished stage and where it belongs in the enclosing stage's graph.
type Handle[S stage.Stage] struct {
	Stage     S
	Previous  stage.Stage
	Placement stage.Placement
	Order     int
}

// Register adds the stage to Previous's graph under Placement.
//
// Returns:
//   - bool: false if there is no previous stage
func (h Handle[S]) Register() bool {
	if h.Previous == nil {
		return false
	}
	if h.Placement == stage.PostRender {
		h.Previous.RegisterPostRender(h.Stage, h.Order)
	} else {
		h.Previous.RegisterPreRender(h.Stage, h.Order)
	}
	return true
}
