package traversal

import (
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
)

// visitorImpl is a visitor for phases other than render preparation.
type visitorImpl struct {
	kind  VisitorKind
	visit func(n Node)
}

var _ Visitor = &visitorImpl{}

// NewVisitor creates a visitor of the given kind that calls visit for every node
// whose children it traverses.
//
// Parameters:
//   - kind: the traversal phase
//   - visit: called with each parent before its children are visited; may be nil
//
// Returns:
//   - Visitor: the visitor
func NewVisitor(kind VisitorKind, visit func(n Node)) Visitor {
	return &visitorImpl{kind: kind, visit: visit}
}

func (v *visitorImpl) Kind() VisitorKind {
	return v.kind
}

func (v *visitorImpl) TraverseChildren(n Node) {
	if v.visit != nil {
		v.visit(n)
	}
	DefaultTraverse(n, v)
}

// prepVisitor collects drawables into stages for one traversal context.
// A visitor is used by one goroutine at a time.
type prepVisitor struct {
	ctx      ContextKey
	current  stage.Stage
	viewport common.Viewport
	camera   camera.Camera
	states   []state_set.StateSet
}

var _ RenderPrepVisitor = &prepVisitor{}

// NewRenderPrepVisitor creates the render-preparation visitor of one viewer.
//
// Parameters:
//   - ctx: the traversal context key
//   - root: the stage drawables go into until a node swaps it
//   - vp: the viewer's viewport
//   - cam: the viewer's camera
//
// Returns:
//   - RenderPrepVisitor: the visitor
func NewRenderPrepVisitor(ctx ContextKey, root stage.Stage, vp common.Viewport, cam camera.Camera) RenderPrepVisitor {
	if root == nil {
		panic("traversal: render-prep visitor requires a root stage")
	}
	return &prepVisitor{ctx: ctx, current: root, viewport: vp, camera: cam}
}

func (v *prepVisitor) Kind() VisitorKind {
	return VisitRenderPrep
}

func (v *prepVisitor) TraverseChildren(n Node) {
	DefaultTraverse(n, v)
}

func (v *prepVisitor) Context() ContextKey {
	return v.ctx
}

func (v *prepVisitor) CurrentStage() stage.Stage {
	return v.current
}

func (v *prepVisitor) SetCurrentStage(s stage.Stage) {
	v.current = s
}

func (v *prepVisitor) Viewport() common.Viewport {
	return v.viewport
}

func (v *prepVisitor) Camera() camera.Camera {
	return v.camera
}

func (v *prepVisitor) PushState(ss state_set.StateSet) {
	v.states = append(v.states, ss)
}

func (v *prepVisitor) PopState() {
	if len(v.states) == 0 {
		common.Logger().Warn("state stack underflow", "context", v.ctx)
		return
	}
	v.states = v.states[:len(v.states)-1]
}

func (v *prepVisitor) StateDepth() int {
	return len(v.states)
}

func (v *prepVisitor) AddDrawable(d stage.Drawable) {
	if len(v.states) == 0 {
		v.current.AddDrawable(d)
		return
	}
	v.current.AddDrawable(&stateDrawable{states: slices.Clone(v.states), drawable: d})
}

// stateDrawable applies the state sets that were on the stack when the drawable
// was collected, then puts the pass state back for the next drawable.
type stateDrawable struct {
	states   []state_set.StateSet
	drawable stage.Drawable
}

func (s *stateDrawable) Unwrap() stage.Drawable {
	return s.drawable
}

func (s *stateDrawable) Draw(dc *stage.DrawContext) {
	dev := dc.Render.Device
	applied := state_set.Resolve(s.states)
	applied.Apply(dev)
	s.drawable.Draw(dc)
	restore(dev, applied, dc)
}

// restore undoes applied on dev. Uniforms and units the pass set itself get
// the pass values back; the rest are unset.
func restore(dev gpu.Device, applied state_set.Snapshot, dc *stage.DrawContext) {
	for _, name := range slices.Sorted(maps.Keys(applied.Uniforms)) {
		dev.SetUniform(name, dc.Uniforms[name])
	}
	if applied.AlphaTest != nil {
		dev.SetUniform(gpu.UniformAlphaTestFunc, dc.Uniforms[gpu.UniformAlphaTestFunc])
		dev.SetUniform(gpu.UniformAlphaTestRef, dc.Uniforms[gpu.UniformAlphaTestRef])
	}
	for _, unit := range slices.Sorted(maps.Keys(applied.Textures)) {
		dev.BindTexture(unit, dc.Units[unit])
	}
	if _, ok := applied.Modes[state_set.ModeDepthTest]; ok {
		dev.SetDepthTest(dc.DepthTest)
	}
	if _, ok := applied.Modes[state_set.ModeBlend]; ok {
		dev.SetBlend(dc.Blend)
	}
}
