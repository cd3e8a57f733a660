// Package frame drives one frame of the render stages: reset, concurrent
// render preparation per viewer, then serial drawing on one device.
package frame

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-fx/common"
	"github.com/Carmen-Shannon/oxy-fx/engine/camera"
	"github.com/Carmen-Shannon/oxy-fx/engine/gpu"
	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fx/engine/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
	"github.com/Carmen-Shannon/oxy-fx/engine/traversal"
)

// Viewer is one view of a scene rendered every frame.
type Viewer struct {
	// Context keys the stages the viewer's traversal creates.
	Context traversal.ContextKey
	// Root receives the drawables the scene does not redirect into its own stages.
	Root     stage.Stage
	Scene    traversal.Node
	Viewport common.Viewport
	Camera   camera.Camera
}

// Resetter is a component whose per-context stages are cleared at the start of every frame.
type Resetter interface {
	ResetAll()
}

// Driver runs frames.
type Driver interface {
	// AddViewer registers a viewer. A viewer with the same context replaces the old one.
	AddViewer(v Viewer)

	// RemoveViewer unregisters the viewer of ctx.
	//
	// Returns:
	//   - bool: false if no viewer has that context
	RemoveViewer(ctx traversal.ContextKey) bool

	// Viewers returns the viewers in registration order.
	Viewers() []Viewer

	// AddResetter registers a component to reset at the start of every frame.
	AddResetter(r Resetter)

	// Clock returns the frame clock the driver advances.
	Clock() *stage.FrameClock

	// Frame advances the clock, prepares every viewer concurrently and draws
	// them in registration order on dev. A viewer whose preparation failed is
	// not drawn.
	//
	// Parameters:
	//   - ctx: cancels the frame between preparation and drawing
	//   - dev: the device every stage draws on
	//
	// Returns:
	//   - uint64: the frame's epoch
	//   - error: the joined preparation errors, or ctx's error
	Frame(ctx context.Context, dev gpu.Device) (uint64, error)

	// Run calls Frame until ctx is done, honoring the frame limit.
	//
	// Returns:
	//   - error: nil when ctx ended the loop, otherwise the panic that stopped it
	Run(ctx context.Context, dev gpu.Device) error
}

type driverImpl struct {
	mu         *sync.Mutex
	viewers    []Viewer
	resetters  []Resetter
	clock      *stage.FrameClock
	programs   shader.Provider
	timer      *profiler.StageTimer
	profiler   *profiler.Profiler
	workers    int
	pool       worker.DynamicWorkerPool
	frameLimit time.Duration
	taskID     int
}

var _ Driver = &driverImpl{}

// NewDriver creates a Driver.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Driver: the driver
func NewDriver(options ...DriverBuilderOption) Driver {
	d := &driverImpl{
		mu:      &sync.Mutex{},
		clock:   stage.NewFrameClock(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range options {
		opt(d)
	}
	d.pool = worker.NewDynamicWorkerPool(d.workers, 256, 1*time.Second)
	return d
}

func (d *driverImpl) AddViewer(v Viewer) {
	if v.Root == nil || v.Scene == nil {
		panic("frame: viewer requires a root stage and a scene")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(v.Context); i >= 0 {
		d.viewers[i] = v
		return
	}
	d.viewers = append(d.viewers, v)
}

func (d *driverImpl) indexLocked(ctx traversal.ContextKey) int {
	return slices.IndexFunc(d.viewers, func(v Viewer) bool { return v.Context == ctx })
}

func (d *driverImpl) RemoveViewer(ctx traversal.ContextKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(ctx)
	if i < 0 {
		return false
	}
	d.viewers = slices.Delete(d.viewers, i, i+1)
	return true
}

func (d *driverImpl) Viewers() []Viewer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.viewers)
}

func (d *driverImpl) AddResetter(r Resetter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetters = append(d.resetters, r)
}

func (d *driverImpl) Clock() *stage.FrameClock {
	return d.clock
}

func (d *driverImpl) Frame(ctx context.Context, dev gpu.Device) (uint64, error) {
	d.mu.Lock()
	viewers := slices.Clone(d.viewers)
	resetters := slices.Clone(d.resetters)
	d.mu.Unlock()

	epoch := d.clock.Advance()
	for _, r := range resetters {
		r.ResetAll()
	}
	for _, v := range viewers {
		v.Root.Reset()
	}

	prepErrs := d.prepare(viewers)
	if err := ctx.Err(); err != nil {
		return epoch, err
	}

	for i, v := range viewers {
		if prepErrs[i] != nil {
			common.Logger().Warn("viewer skipped", "context", v.Context, "err", prepErrs[i])
			continue
		}
		v.Root.Draw(&stage.RenderContext{
			Device:    dev,
			Epoch:     epoch,
			ContextID: v.Context.ID(),
			Programs:  d.programs,
			Timer:     d.timer,
		})
	}

	if d.timer != nil {
		d.timer.Flush()
	}
	if d.profiler != nil {
		d.profiler.Tick()
	}
	return epoch, errors.Join(prepErrs...)
}

// prepare runs one render-preparation traversal per viewer on the worker pool
// and waits for all of them.
func (d *driverImpl) prepare(viewers []Viewer) []error {
	errs := make([]error, len(viewers))
	var wg sync.WaitGroup
	wg.Add(len(viewers))
	for i, v := range viewers {
		d.mu.Lock()
		id := d.taskID
		d.taskID++
		d.mu.Unlock()

		d.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				errs[i] = prepareViewer(v)
				return nil, errs[i]
			},
		})
	}
	wg.Wait()
	return errs
}

func prepareViewer(v Viewer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render preparation of context %s panicked: %v", v.Context, r)
		}
	}()
	v.Scene.Accept(traversal.NewRenderPrepVisitor(v.Context, v.Root, v.Viewport, v.Camera))
	return nil
}

func (d *driverImpl) Run(ctx context.Context, dev gpu.Device) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame loop recovered from panic: %v", r)
			common.Logger().Error("frame loop stopped", "err", err)
		}
	}()

	for {
		start := time.Now()
		if _, err := d.Frame(ctx, dev); err != nil && ctx.Err() == nil {
			common.Logger().Warn("frame incomplete", "err", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		if d.frameLimit > 0 {
			if remaining := d.frameLimit - time.Since(start); remaining > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(remaining):
				}
			}
		}
	}
}
