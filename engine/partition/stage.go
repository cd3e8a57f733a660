package partition

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
)

// debugTints colors partitions under the visual debug flag.
var debugTints = []common.Color{
	{1, 0.4, 0.4, 1},
	{0.4, 1, 0.4, 1},
	{0.4, 0.4, 1, 1},
	{1, 1, 0.4, 1},
}

// Stage draws its drawables once per depth partition.
type Stage interface {
	stage.Stage

	// SetRatio sets the per-partition near:far ratio for automatic counts.
	SetRatio(ratio float32)

	// SetCount sets the partition count, 0 for automatic.
	SetCount(count int)

	// LastPartitions returns the partitions of the most recent draw.
	LastPartitions() []Partition
}

type stageImpl struct {
	*stage.Base
	mu     *sync.Mutex
	ratio  float32
	count  int
	last   []Partition
	warned *common.OnceLogger
}

var _ Stage = &stageImpl{}

// NewStage creates a partition stage.
//
// Parameters:
//   - name: the stage name
//   - ratio: the per-partition near:far ratio
//   - count: the partition count, 0 for automatic
//   - state: clear, target and debug configuration
//
// Returns:
//   - Stage: the stage
func NewStage(name string, ratio float32, count int, state stage.CommonRenderState) Stage {
	return &stageImpl{
		Base:   stage.NewBase(name, state),
		mu:     &sync.Mutex{},
		ratio:  ratio,
		count:  count,
		warned: common.NewOnceLogger(),
	}
}

func (s *stageImpl) SetRatio(ratio float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratio = ratio
	s.warned.Reset()
}

func (s *stageImpl) SetCount(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = count
	s.warned.Reset()
}

func (s *stageImpl) LastPartitions() []Partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Partition(nil), s.last...)
}

func (s *stageImpl) Draw(rc *stage.RenderContext) {
	s.Execute(rc, s.draw)
}

func (s *stageImpl) draw(rc *stage.RenderContext) {
	dev := rc.Device
	_, vp := s.BindTarget(rc)
	s.Clear(rc)

	st := s.RenderState()
	cam := s.Camera()
	if cam == nil {
		s.warned.Warn("camera", "partition stage has no camera, drawing a single pass", "stage", s.Name())
		s.DrawDrawables(s.NewDrawContext(rc, stage.PassPartition, 0, vp))
		return
	}

	s.mu.Lock()
	ratio, count := s.ratio, s.count
	s.mu.Unlock()

	parts, err := ComputePartitions(cam.Near(), cam.Far(), ratio, count)
	single := err != nil
	if single {
		s.warned.Warn("config", "invalid partition configuration, drawing a single pass", "stage", s.Name(), "err", err)
		parts = []Partition{{Near: cam.Near(), Far: cam.Far()}}
	}
	s.mu.Lock()
	s.last = parts
	s.mu.Unlock()

	for _, p := range parts {
		dev.Clear(gpu.ClearDepth, st.ClearColor, st.ClearDepth)
		dc := s.NewDrawContext(rc, stage.PassPartition, p.Order, vp)
		if !single {
			dc.Projection = cam.ProjectionWithDepthRange(p.Near, p.Far)
		}
		dc.Uniforms = map[string]any{
			"partitionNear": p.Near,
			"partitionFar":  p.Far,
		}
		if st.Debug.Has(stage.DebugVisual) {
			dc.Uniforms["partitionTint"] = debugTints[p.Order%len(debugTints)]
		}
		for name, v := range dc.Uniforms {
			dev.SetUniform(name, v)
		}
		s.DrawDrawables(dc)
		gpu.Check(dev, fmt.Sprintf("draw partition %d", p.Order), "stage", s.Name())
	}
}
