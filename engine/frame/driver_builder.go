package frame

import (
	"time"

	"github.com/Carmen-Shannon/oxy-fx/engine/profiler"
	"github.com/Carmen-Shannon/oxy-fx/engine/shader"
	"github.com/Carmen-Shannon/oxy-fx/engine/stage"
)

// DriverBuilderOption configures a Driver created by NewDriver.
type DriverBuilderOption func(*driverImpl)

// WithWorkers sets the number of render-preparation workers. Values <= 0 keep one per CPU.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithWorkers(n int) DriverBuilderOption {
	return func(d *driverImpl) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithClock shares a frame clock with other drivers.
func WithClock(c *stage.FrameClock) DriverBuilderOption {
	return func(d *driverImpl) {
		d.clock = c
	}
}

// WithPrograms sets the shader provider handed to every stage.
func WithPrograms(p shader.Provider) DriverBuilderOption {
	return func(d *driverImpl) {
		d.programs = p
	}
}

// WithStageTimer collects the draw times of stages with the profile debug flag.
func WithStageTimer(t *profiler.StageTimer) DriverBuilderOption {
	return func(d *driverImpl) {
		d.timer = t
	}
}

// WithProfiler ticks p once per frame.
func WithProfiler(p *profiler.Profiler) DriverBuilderOption {
	return func(d *driverImpl) {
		d.profiler = p
	}
}

// WithFrameLimit caps Run at fps frames per second. Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithFrameLimit(fps float64) DriverBuilderOption {
	return func(d *driverImpl) {
		if fps <= 0 {
			d.frameLimit = 0
			return
		}
		d.frameLimit = time.Duration(float64(time.Second) / fps)
	}
}
