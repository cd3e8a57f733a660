package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-fx/common"
)

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often stats are logged; zero means one second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick should be called once per frame to track frame timing.
// Logs FPS, heap usage, allocation rate and GC pauses when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("frame stats",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// StageTiming is the accumulated draw time of one stage.
type StageTiming struct {
	Name    string
	Count   int
	Total   time.Duration
	Longest time.Duration
}

// Average returns the mean draw time.
func (s StageTiming) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// StageTimer accumulates per-stage draw durations and logs them at an interval.
// Stages report to it when their profile debug flag is set.
type StageTimer struct {
	mu       *sync.Mutex
	interval time.Duration
	last     time.Time
	timings  map[string]*StageTiming
	now      func() time.Time
}

// NewStageTimer creates a StageTimer.
//
// Parameters:
//   - interval: how often accumulated timings are logged and reset; zero means one second
//
// Returns:
//   - *StageTimer: the new timer
func NewStageTimer(interval time.Duration) *StageTimer {
	if interval <= 0 {
		interval = time.Second
	}
	return &StageTimer{
		mu:       &sync.Mutex{},
		interval: interval,
		last:     time.Now(),
		timings:  make(map[string]*StageTiming),
		now:      time.Now,
	}
}

// Observe records one draw of a stage.
//
// Parameters:
//   - name: the stage name
//   - d: how long the draw took
func (t *StageTimer) Observe(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.timings[name]
	if !ok {
		st = &StageTiming{Name: name}
		t.timings[name] = st
	}
	st.Count++
	st.Total += d
	st.Longest = max(st.Longest, d)
}

// Snapshot returns the accumulated timings sorted by name.
func (t *StageTimer) Snapshot() []StageTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StageTiming, 0, len(t.timings))
	for _, st := range t.timings {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Flush logs and resets the timings if the interval has elapsed.
//
// Returns:
//   - bool: true if timings were logged
func (t *StageTimer) Flush() bool {
	now := t.now()
	t.mu.Lock()
	if now.Sub(t.last) < t.interval {
		t.mu.Unlock()
		return false
	}
	t.last = now
	t.mu.Unlock()

	for _, st := range t.Snapshot() {
		common.Logger().Info("stage timing",
			"stage", st.Name,
			"draws", st.Count,
			"avg", st.Average(),
			"max", st.Longest,
		)
	}
	t.mu.Lock()
	clear(t.timings)
	t.mu.Unlock()
	return true
}
