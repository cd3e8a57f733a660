package injector

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/state_set"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type componentNode struct {
	traversal.Group
	in *Injector[stage.Stage]
}

func (n *componentNode) Accept(v traversal.Visitor) {
	n.in.Visit(n, v)
}

func newComponent(in *Injector[stage.Stage], children ...traversal.Node) *componentNode {
	return &componentNode{Group: traversal.NewGroup("component", traversal.WithChildren(children...)), in: in}
}

func newInjector(options ...InjectorBuilderOption) *Injector[stage.Stage] {
	return New(func(ctx traversal.ContextKey) (stage.Stage, error) {
		return stage.NewRenderStage(ctx.String()), nil
	}, options...)
}

func TestInjector_PassthroughForOtherVisitors(t *testing.T) {
	in := newInjector()
	var visited []string
	leaf := traversal.NewGroup("leaf")
	n := newComponent(in, leaf)

	n.Accept(traversal.NewVisitor(traversal.VisitBounds, func(n traversal.Node) { visited = append(visited, n.Name()) }))
	assert.Equal(t, []string{"component", "leaf"}, visited)
	assert.Equal(t, 0, in.Cache().Len())

	p, ok := in.Enter(traversal.NewVisitor(traversal.VisitUpdate, nil))
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestInjector_SwapsStageAndRegistersPreRender(t *testing.T) {
	in := newInjector()
	root := stage.NewRenderStage("root")
	d := stage.DrawableFunc(func(*stage.DrawContext) {})
	n := newComponent(in, traversal.NewGroup("leaf", traversal.WithDrawables(d)))

	vp := common.Viewport{Width: 4, Height: 4}
	cam := camera.NewCamera(camera.WithRenderOrder(3))
	v := traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, vp, cam)
	n.Accept(v)

	s, ok := in.Cache().Get(v.Context())
	require.True(t, ok)
	assert.Len(t, s.Drawables(), 1)
	assert.Empty(t, root.Drawables())
	assert.Same(t, root, v.CurrentStage())
	assert.Equal(t, vp, s.Viewport())
	assert.Equal(t, cam, s.Camera())

	pre := root.Graph().Stages(stage.PreRender)
	require.Len(t, pre, 1)
	assert.Same(t, s, pre[0])
}

func TestInjector_StateMachine(t *testing.T) {
	ss := state_set.NewStateSet()
	in := newInjector(WithStateSet(ss), WithPlacement(stage.PostRender), WithOrder(9))
	root := stage.NewRenderStage("root")
	v := traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{}, nil)

	p, ok := in.Enter(v)
	require.True(t, ok)
	assert.Equal(t, InStage, p.State())
	assert.Same(t, p.Stage(), v.CurrentStage())
	assert.Equal(t, 1, v.StateDepth())

	h := p.Exit()
	assert.Equal(t, Exited, p.State())
	assert.Equal(t, 0, v.StateDepth())
	assert.Same(t, root, v.CurrentStage())
	assert.Equal(t, stage.PostRender, h.Placement)
	assert.Equal(t, 9, h.Order)
	assert.Same(t, root, h.Previous)
	assert.Equal(t, 0, root.Graph().Len())

	assert.Equal(t, h, p.Exit())
	assert.Equal(t, 0, v.StateDepth())

	assert.True(t, h.Register())
	assert.Len(t, root.Graph().Stages(stage.PostRender), 1)
	assert.False(t, Handle[stage.Stage]{}.Register())
}

func TestInjector_OrderDefaultsToCameraRenderOrder(t *testing.T) {
	in := newInjector()
	root := stage.NewRenderStage("root")
	v := traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{}, camera.NewCamera(camera.WithRenderOrder(-4)))
	h, ok := in.Visit(newComponent(in), v)
	require.True(t, ok)
	assert.Equal(t, -4, h.Order)
}

func TestInjector_OneStagePerContext(t *testing.T) {
	in := newInjector()
	n := newComponent(in)
	root := stage.NewRenderStage("root")

	a := traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{}, nil)
	b := traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{}, nil)
	n.Accept(a)
	n.Accept(b)
	n.Accept(a)

	assert.Equal(t, 2, in.Cache().Len())
	sa, _ := in.Cache().Get(a.Context())
	sb, _ := in.Cache().Get(b.Context())
	assert.NotSame(t, sa, sb)
	assert.Equal(t, 2, root.Graph().Len())
}

func TestInjector_ConstructorFailureSkipsComponent(t *testing.T) {
	in := New(func(traversal.ContextKey) (stage.Stage, error) {
		return nil, errors.New("no target")
	})
	root := stage.NewRenderStage("root")
	d := stage.DrawableFunc(func(*stage.DrawContext) {})
	n := newComponent(in, traversal.NewGroup("leaf", traversal.WithDrawables(d)))

	v := traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{}, nil)
	n.Accept(v)
	assert.Len(t, root.Drawables(), 1)
	assert.Equal(t, 0, root.Graph().Len())
}

func TestInjector_InjectedStageDrawsBeforeRoot(t *testing.T) {
	dev := gpu.NewSoftDevice(2, 2)
	in := newInjector(WithOnEnter(func(s stage.Stage, _ traversal.RenderPrepVisitor) {
		st := s.RenderState()
		st.ClearMode = stage.ClearModeNone
		s.SetRenderState(st)
	}))
	root := stage.NewRenderStage("root")

	var order []string
	inner := stage.DrawableFunc(func(*stage.DrawContext) { order = append(order, "inner") })
	outer := stage.DrawableFunc(func(*stage.DrawContext) { order = append(order, "outer") })
	scene := traversal.NewGroup("scene",
		traversal.WithDrawables(outer),
		traversal.WithChildren(newComponent(in, traversal.NewGroup("leaf", traversal.WithDrawables(inner)))),
	)

	scene.Accept(traversal.NewRenderPrepVisitor(traversal.NewContextKey(), root, common.Viewport{}, nil))
	root.Draw(&stage.RenderContext{Device: dev, Epoch: 1})
	assert.Equal(t, []string{"inner", "outer"}, order)

	in.ResetAll()
	in.Release(dev)
	assert.Equal(t, 0, in.Cache().Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "in-stage", InStage.String())
	assert.Equal(t, "not-render-prep", NotRenderPrep.String())
}
