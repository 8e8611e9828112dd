// ABOUTME: Performance monitor for the optimistic-update contract
// ABOUTME: Response-time EMA, memory growth since start, and loop tick-rate sampling

package perf

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

const (
	// ResponseTimeThreshold is the budget for the optimistic path.
	ResponseTimeThreshold = time.Millisecond

	// MemoryGrowthThreshold caps heap growth since monitoring started.
	MemoryGrowthThreshold = 50 * 1024 * 1024

	// TickRateThreshold is the minimum acceptable ticks per second,
	// sampled once per second. A starved scheduler drops the rate.
	TickRateThreshold = 60.0

	// emaSmoothing is the weight of a new response-time sample.
	emaSmoothing = 0.2

	tickInterval   = 16 * time.Millisecond
	sampleInterval = time.Second
)

// Monitor tracks response time, memory growth, and tick rate against
// fixed thresholds. It only reads the runtime's timing and memory APIs,
// never returns errors, and reports zero values before any samples.
type Monitor struct {
	mu sync.Mutex

	running       bool
	stop          chan struct{}
	baselineAlloc uint64

	avgResponse  time.Duration
	lastResponse time.Duration
	samples      int

	tickRate float64
}

// New creates a stopped Monitor.
func New() *Monitor {
	return &Monitor{}
}

// Start begins tick-rate sampling and snapshots the memory baseline.
// Starting a running monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.baselineAlloc = heapAlloc()
	m.stop = make(chan struct{})
	go m.sampleTicks(m.stop)
}

// Stop halts sampling. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stop)
}

// Reset rebases the memory baseline and clears accumulated averages.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baselineAlloc = heapAlloc()
	m.avgResponse = 0
	m.lastResponse = 0
	m.samples = 0
	m.tickRate = 0
}

// Operation is an in-flight measurement started by StartOperation.
type Operation struct {
	monitor *Monitor
	name    string
	start   time.Time
}

// StartOperation begins measuring a named operation.
func (m *Monitor) StartOperation(name string) *Operation {
	return &Operation{monitor: m, name: name, start: time.Now()}
}

// End records the elapsed time into the monitor's running average and
// returns it.
func (o *Operation) End() time.Duration {
	elapsed := time.Since(o.start)
	o.monitor.record(elapsed)
	return elapsed
}

// Record folds an externally measured duration into the running average.
func (m *Monitor) Record(elapsed time.Duration) {
	m.record(elapsed)
}

func (m *Monitor) record(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastResponse = elapsed
	if m.samples == 0 {
		m.avgResponse = elapsed
	} else {
		m.avgResponse = time.Duration(
			float64(m.avgResponse)*(1-emaSmoothing) + float64(elapsed)*emaSmoothing,
		)
	}
	m.samples++
}

// Summary is a point-in-time report of all tracked signals.
type Summary struct {
	AvgResponseTime  time.Duration `json:"avgResponseTime"`
	LastResponseTime time.Duration `json:"lastResponseTime"`
	Samples          int           `json:"samples"`
	MemoryGrowth     int64         `json:"memoryGrowth"`
	TickRate         float64       `json:"tickRate"`
	Healthy          bool          `json:"healthy"`
	Violations       []string      `json:"violations,omitempty"`
}

// MeetsThresholds reports whether all sampled signals are within budget.
func (m *Monitor) MeetsThresholds() bool {
	return m.Summary().Healthy
}

// Summary reports current readings and any violated thresholds.
func (m *Monitor) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		AvgResponseTime:  m.avgResponse,
		LastResponseTime: m.lastResponse,
		Samples:          m.samples,
		TickRate:         m.tickRate,
	}
	if m.running {
		s.MemoryGrowth = int64(heapAlloc()) - int64(m.baselineAlloc)
	}

	if m.samples > 0 && m.avgResponse > ResponseTimeThreshold {
		s.Violations = append(s.Violations, fmt.Sprintf(
			"average response time %v exceeds %v", m.avgResponse, ResponseTimeThreshold))
	}
	if s.MemoryGrowth > MemoryGrowthThreshold {
		s.Violations = append(s.Violations, fmt.Sprintf(
			"memory growth %dMB exceeds %dMB", s.MemoryGrowth/(1024*1024), MemoryGrowthThreshold/(1024*1024)))
	}
	if m.tickRate > 0 && m.tickRate < TickRateThreshold {
		s.Violations = append(s.Violations, fmt.Sprintf(
			"tick rate %.1f/s below %.0f/s", m.tickRate, TickRateThreshold))
	}

	s.Healthy = len(s.Violations) == 0
	return s
}

func (m *Monitor) sampleTicks(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	ticks := 0
	windowStart := time.Now()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ticks++
			if elapsed := time.Since(windowStart); elapsed >= sampleInterval {
				rate := float64(ticks) / elapsed.Seconds()
				m.mu.Lock()
				m.tickRate = rate
				m.mu.Unlock()
				ticks = 0
				windowStart = time.Now()
			}
		}
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}
