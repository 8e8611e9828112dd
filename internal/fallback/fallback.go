// ABOUTME: Fallback handler wrapping fallible storage operations
// ABOUTME: Capped operation log, cached availability probe, linear-backoff retry

package fallback

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harper/readstate/internal/storage"
)

const (
	// maxLogEntries caps the in-memory operation log.
	maxLogEntries = 100

	// DefaultProbeTTL is how long an availability probe result is reused.
	DefaultProbeTTL = 30 * time.Second

	// DefaultRetryAttempts for ExecuteWithRetry.
	DefaultRetryAttempts = 3

	// DefaultRetryBackoff is the base delay; attempt n waits n times this.
	DefaultRetryBackoff = 100 * time.Millisecond

	// recentFailureThreshold triggers the fallback-mode recommendation
	// when hit within the last recentWindow log records.
	recentFailureThreshold = 3
	recentWindow           = 10

	probeKey = "fallback:probe"
)

// Outcome classifies a logged operation.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailure  Outcome = "failure"
)

// OpRecord is one entry in the capped operation log.
type OpRecord struct {
	Name    string    `json:"name"`
	Time    time.Time `json:"time"`
	Outcome Outcome   `json:"outcome"`
	Error   string    `json:"error,omitempty"`
}

// Options configures a Handler.
type Options struct {
	// ProbeTTL overrides DefaultProbeTTL when positive.
	ProbeTTL time.Duration

	// RetryAttempts overrides DefaultRetryAttempts when positive.
	RetryAttempts int

	// RetryBackoff overrides DefaultRetryBackoff when positive.
	RetryBackoff time.Duration
}

// Handler supplies degraded paths for operations against the durable
// store. Failure here is never fatal to the caller; it is advisory
// logging plus a guaranteed fallback value.
type Handler struct {
	mu       sync.Mutex
	kv       storage.KV
	probeTTL time.Duration
	attempts int
	backoff  time.Duration

	log []OpRecord

	lastProbe     time.Time
	lastAvailable bool
	probed        bool
}

// New builds a Handler probing availability through kv.
func New(kv storage.KV, opts Options) *Handler {
	h := &Handler{
		kv:       kv,
		probeTTL: opts.ProbeTTL,
		attempts: opts.RetryAttempts,
		backoff:  opts.RetryBackoff,
	}
	if h.probeTTL <= 0 {
		h.probeTTL = DefaultProbeTTL
	}
	if h.attempts <= 0 {
		h.attempts = DefaultRetryAttempts
	}
	if h.backoff <= 0 {
		h.backoff = DefaultRetryBackoff
	}
	return h
}

// Execute runs op; on error it runs fallback and returns its result
// instead, logging the outcome either way. The bool reports whether the
// fallback path was taken.
func Execute[T any](h *Handler, name string, op func() (T, error), fallback func() T) (T, bool) {
	value, err := op()
	if err == nil {
		h.record(name, OutcomeSuccess, nil)
		return value, false
	}

	h.record(name, OutcomeFallback, err)
	return fallback(), true
}

// ExecuteWithRetry runs op up to the configured attempt count with
// linearly increasing backoff, logging each attempt. The last error is
// returned if every attempt fails.
func (h *Handler) ExecuteWithRetry(ctx context.Context, name string, op func() error) error {
	var err error
	for attempt := 1; attempt <= h.attempts; attempt++ {
		if err = op(); err == nil {
			h.record(name, OutcomeSuccess, nil)
			return nil
		}
		h.record(fmt.Sprintf("%s (attempt %d)", name, attempt), OutcomeFailure, err)

		if attempt == h.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * h.backoff):
		}
	}
	return err
}

// StorageAvailable probes the durable store with a trivial write and
// delete, caching the result to avoid redundant probing on every call.
func (h *Handler) StorageAvailable() bool {
	h.mu.Lock()
	if h.probed && time.Since(h.lastProbe) < h.probeTTL {
		available := h.lastAvailable
		h.mu.Unlock()
		return available
	}
	h.mu.Unlock()
	return h.ForceRecheck()
}

// ForceRecheck probes immediately, bypassing the cache. The probe
// round-trips a unique token so a stale value left by another process
// never reads as a healthy store.
func (h *Handler) ForceRecheck() bool {
	token := []byte(uuid.NewString())
	available := false
	if err := h.kv.Set(probeKey, token); err == nil {
		got, err := h.kv.Get(probeKey)
		_ = h.kv.Delete(probeKey)
		available = err == nil && bytes.Equal(got, token)
	}

	h.mu.Lock()
	h.probed = true
	h.lastProbe = time.Now()
	h.lastAvailable = available
	h.mu.Unlock()
	return available
}

// ShouldUseFallbackMode recommends degrading to memory-only operation
// when recent failures pile up or storage is currently unavailable.
func (h *Handler) ShouldUseFallbackMode() bool {
	h.mu.Lock()
	recent := h.log
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	failures := 0
	for _, rec := range recent {
		if rec.Outcome != OutcomeSuccess {
			failures++
		}
	}
	h.mu.Unlock()
	return failures >= recentFailureThreshold || !h.StorageAvailable()
}

// Log returns a copy of the operation log, oldest first.
func (h *Handler) Log() []OpRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]OpRecord, len(h.log))
	copy(out, h.log)
	return out
}

// RecordOutcome lets collaborators log outcomes they observed themselves.
func (h *Handler) RecordOutcome(name string, outcome Outcome, err error) {
	h.record(name, outcome, err)
}

func (h *Handler) record(name string, outcome Outcome, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec := OpRecord{Name: name, Time: time.Now(), Outcome: outcome}
	if err != nil {
		rec.Error = err.Error()
	}
	h.log = append(h.log, rec)
	if len(h.log) > maxLogEntries {
		h.log = h.log[len(h.log)-maxLogEntries:]
	}
}
