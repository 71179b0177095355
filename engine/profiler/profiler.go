// Package profiler reports frame rate, memory and per-stage frame timings.
package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Stage is one timed section of a frame.
type Stage int

const (
	StageClassify Stage = iota
	StageUpload
	StageCompact
	StageDraw
	StageComposite
	stageCount
)

var stageNames = [stageCount]string{"classify", "upload", "compact", "draw", "composite"}

// String returns the lower-case stage name.
func (s Stage) String() string {
	if s < 0 || s >= stageCount {
		return "unknown"
	}
	return stageNames[s]
}

// Profiler tracks frame rate, memory and stage durations, and logs them at a fixed interval.
type Profiler struct {
	logger         *slog.Logger
	now            func() time.Time
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	stageTotals [stageCount]time.Duration
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithLogger sets the logger stats are written to.
//
// Parameters:
//   - logger: the logger, slog.Default() when nil
//
// Returns:
//   - ProfilerOption: option function to apply
func WithLogger(logger *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithInterval sets how often stats are logged.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerOption: option function to apply
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:         slog.Default(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Begin starts timing a stage. Call the returned function when the stage ends.
//
// Parameters:
//   - stage: the stage being timed
//
// Returns:
//   - func(): stops the timer and adds the elapsed time to the stage
func (p *Profiler) Begin(stage Stage) func() {
	start := p.now()
	return func() {
		p.stageTotals[stage] += p.now().Sub(start)
	}
}

// StageTotal returns the time spent in a stage since the last report.
func (p *Profiler) StageTotal(stage Stage) time.Duration {
	return p.stageTotals[stage]
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include FPS, heap usage, allocation rate, GC count and pause times, total memory
// and the average time per frame of each stage.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	attrs := []any{
		slog.Float64("fps", fps),
		slog.Float64("heap_mb", allocMB),
		slog.Float64("alloc_mb_per_s", allocRateMB),
		slog.Uint64("gc", uint64(gcCount)),
		slog.Uint64("gc_last_us", lastPauseUs),
		slog.Uint64("gc_max_us", maxPauseUs),
		slog.Float64("sys_mb", sysMB),
	}
	for s := range stageCount {
		attrs = append(attrs, slog.Duration(s.String(), p.stageTotals[s]/time.Duration(p.frameCount)))
	}
	p.logger.Info("[Profiler]", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.stageTotals = [stageCount]time.Duration{}
	return true
}
