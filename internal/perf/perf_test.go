// ABOUTME: Tests for the performance monitor
// ABOUTME: Covers EMA recording, threshold violations, reset, and start/stop idempotence

package perf

import (
	"strings"
	"testing"
	"time"
)

func TestRecordFirstSampleIsRaw(t *testing.T) {
	m := New()
	m.Record(500 * time.Microsecond)

	s := m.Summary()
	if s.AvgResponseTime != 500*time.Microsecond {
		t.Errorf("first sample must seed the average, got %v", s.AvgResponseTime)
	}
	if s.LastResponseTime != 500*time.Microsecond {
		t.Errorf("unexpected last response %v", s.LastResponseTime)
	}
	if s.Samples != 1 {
		t.Errorf("expected 1 sample, got %d", s.Samples)
	}
}

func TestRecordSmoothsExponentially(t *testing.T) {
	m := New()
	m.Record(time.Millisecond)
	m.Record(2 * time.Millisecond)

	// 1ms*0.8 + 2ms*0.2 = 1.2ms
	want := 1200 * time.Microsecond
	got := m.Summary().AvgResponseTime
	if got < want-10*time.Microsecond || got > want+10*time.Microsecond {
		t.Errorf("expected average near %v, got %v", want, got)
	}
}

func TestSummaryHealthyWithinBudget(t *testing.T) {
	m := New()
	m.Record(200 * time.Microsecond)

	s := m.Summary()
	if !s.Healthy {
		t.Errorf("expected healthy summary, violations: %v", s.Violations)
	}
	if !m.MeetsThresholds() {
		t.Error("MeetsThresholds must agree with Summary")
	}
}

func TestSummaryFlagsSlowResponses(t *testing.T) {
	m := New()
	m.Record(5 * time.Millisecond)

	s := m.Summary()
	if s.Healthy {
		t.Fatal("expected unhealthy summary for 5ms average")
	}
	if len(s.Violations) != 1 || !strings.Contains(s.Violations[0], "response time") {
		t.Errorf("expected a response time violation, got %v", s.Violations)
	}
}

func TestSummaryNoSamplesIsHealthy(t *testing.T) {
	m := New()
	if s := m.Summary(); !s.Healthy || s.Samples != 0 {
		t.Errorf("zero-sample monitor must be healthy: %+v", s)
	}
}

func TestOperationEndRecords(t *testing.T) {
	m := New()

	op := m.StartOperation("markRead")
	elapsed := op.End()
	if elapsed < 0 {
		t.Errorf("nonsensical elapsed %v", elapsed)
	}
	if m.Summary().Samples != 1 {
		t.Errorf("End must record a sample, got %d", m.Summary().Samples)
	}
}

func TestResetClearsAverages(t *testing.T) {
	m := New()
	m.Record(5 * time.Millisecond)

	m.Reset()
	s := m.Summary()
	if s.Samples != 0 || s.AvgResponseTime != 0 || s.LastResponseTime != 0 {
		t.Errorf("expected cleared summary, got %+v", s)
	}
	if !s.Healthy {
		t.Errorf("reset monitor must be healthy, violations: %v", s.Violations)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	m := New()

	m.Start()
	m.Start() // no-op
	m.Stop()
	m.Stop() // no-op

	// Restartable after a stop.
	m.Start()
	m.Stop()
}

func TestMemoryGrowthOnlyWhileRunning(t *testing.T) {
	m := New()
	if growth := m.Summary().MemoryGrowth; growth != 0 {
		t.Errorf("stopped monitor must report zero growth, got %d", growth)
	}

	m.Start()
	defer m.Stop()

	// Growth is measured against the Start baseline; a fresh monitor
	// should be nowhere near the 50MB budget.
	if s := m.Summary(); s.MemoryGrowth > MemoryGrowthThreshold {
		t.Errorf("implausible growth right after start: %d", s.MemoryGrowth)
	}
}
