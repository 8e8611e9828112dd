// ABOUTME: State manager façade coordinating queue, counters, monitor, and fallback
// ABOUTME: Single entry point for mark operations, projections, periodic flush, and resets

package state

import (
	"context"
	"sync"
	"time"

	"github.com/harper/readstate/internal/baseline"
	"github.com/harper/readstate/internal/counters"
	"github.com/harper/readstate/internal/fallback"
	"github.com/harper/readstate/internal/models"
	"github.com/harper/readstate/internal/perf"
	"github.com/harper/readstate/internal/queue"
	"github.com/harper/readstate/internal/storage"
)

const (
	// DefaultFlushInterval is how often pending entries are flushed to
	// the authoritative backend.
	DefaultFlushInterval = 500 * time.Millisecond

	flushTimeout = 10 * time.Second
)

// FlushFunc persists accumulated queue entries to the authoritative
// backend. It is the external batch-flush collaborator; the manager
// drops the flushed entries from the queue after it succeeds.
type FlushFunc func(ctx context.Context, entries []models.QueueEntry) error

// Options configures a Manager.
type Options struct {
	// MaxQueueEntries bounds the pending queue (default 1000).
	MaxQueueEntries int

	// LedgerCapacity bounds the processed-entry ledger (default 1000).
	LedgerCapacity int

	// BaselineTTL shields fresh optimistic counters from stale
	// authoritative refreshes (default 5 minutes).
	BaselineTTL time.Duration

	// FlushInterval for the periodic flush ticker (default 500ms).
	FlushInterval time.Duration

	// DisableGracefulDegradation makes persistence failures surface as
	// errors instead of degraded results. Intended for tests.
	DisableGracefulDegradation bool

	// Flush is invoked by the periodic ticker with the pending entries.
	// Nil disables flushing (the queue accumulates until an explicit
	// sync).
	Flush FlushFunc

	// RetryAttempts for the flush call (default 3).
	RetryAttempts int
}

// Manager is the single entry point the rest of the application calls.
// One Manager owns one local view of read state; construct it at the
// composition root and pass it by reference. It serializes access
// internally, but offers no cross-process consistency: two processes
// sharing a durable store will not observe each other's queues until
// they independently reload.
type Manager struct {
	kv       storage.KV
	queue    *queue.Queue
	counters *counters.Reconciler
	monitor  *perf.Monitor
	handler  *fallback.Handler

	flush         FlushFunc
	flushInterval time.Duration

	// guards queue, counters, and lifecycle state
	mu          sync.Mutex
	initialized bool
	done        chan struct{}
	syncStatus  models.SyncStatus
}

// NewManager builds an uninitialized Manager over kv.
func NewManager(kv storage.KV, opts Options) *Manager {
	q := queue.New(kv, queue.Options{
		MaxEntries:          opts.MaxQueueEntries,
		GracefulDegradation: !opts.DisableGracefulDegradation,
	})

	m := &Manager{
		kv:    kv,
		queue: q,
		counters: counters.New(q, counters.Options{
			LedgerCapacity: opts.LedgerCapacity,
			BaselineTTL:    opts.BaselineTTL,
		}),
		monitor:       perf.New(),
		handler:       fallback.New(kv, fallback.Options{RetryAttempts: opts.RetryAttempts}),
		flush:         opts.Flush,
		flushInterval: opts.FlushInterval,
	}
	if m.flushInterval <= 0 {
		m.flushInterval = DefaultFlushInterval
	}
	return m
}

// Initialize starts performance monitoring and the periodic flush
// ticker. Calling it again is a no-op.
func (m *Manager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return
	}
	m.initialized = true
	m.monitor.Start()
	m.done = make(chan struct{})
	go m.flushLoop(m.done)
}

// Cleanup stops the ticker and monitoring. Idempotent and safe to call
// before Initialize.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return
	}
	m.initialized = false
	close(m.done)
	m.monitor.Stop()
}

// MarkArticleRead optimistically marks one article read.
func (m *Manager) MarkArticleRead(articleID, feedID string) models.Result {
	return m.mark("mark_read", func() (time.Duration, bool, error) {
		return m.counters.MarkRead(articleID, feedID)
	})
}

// MarkArticleUnread optimistically marks one article unread.
func (m *Manager) MarkArticleUnread(articleID, feedID string) models.Result {
	return m.mark("mark_unread", func() (time.Duration, bool, error) {
		return m.counters.MarkUnread(articleID, feedID)
	})
}

// ToggleStar queues a star toggle for one article.
func (m *Manager) ToggleStar(articleID, feedID string) models.Result {
	return m.mark("toggle_star", func() (time.Duration, bool, error) {
		return m.counters.ToggleStar(articleID, feedID)
	})
}

// BatchMarkRead marks several articles read with a single aggregated
// counter application per feed.
func (m *Manager) BatchMarkRead(refs []models.ArticleRef) models.Result {
	return m.mark("batch_mark_read", func() (time.Duration, bool, error) {
		return m.counters.BatchMarkRead(refs)
	})
}

func (m *Manager) mark(name string, fn func() (time.Duration, bool, error)) models.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsed, persisted, err := fn()
	m.monitor.Record(elapsed)

	if err != nil {
		m.handler.RecordOutcome(name, fallback.OutcomeFailure, err)
		return models.Result{ResponseTime: elapsed}
	}

	outcome := fallback.OutcomeSuccess
	if !persisted {
		outcome = fallback.OutcomeFallback
	}
	m.handler.RecordOutcome(name, outcome, nil)

	return models.Result{
		Success:      true,
		ResponseTime: elapsed,
		FallbackUsed: !persisted,
		Pending:      !persisted,
	}
}

// Reconcile folds any queue entries not yet counted into the counter
// cache. Safe to call repeatedly; a second call with no new enqueues is
// a no-op.
func (m *Manager) Reconcile() []models.CounterUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	updates := m.counters.Reconcile()
	m.counters.ApplyUpdates(updates)
	return updates
}

// ApplyBaseline rebases cached counters onto authoritative counts,
// respecting the freshness TTL.
func (m *Manager) ApplyBaseline(counts []models.FeedCounts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters.ApplyBaseline(counts)
}

// RefreshBaseline fetches authoritative counts from source and rebases
// the counter cache. Fetch failures degrade: the cached counters are
// kept, the outcome lands in the operation log, and the returned bool
// reports that the keep-cache fallback ran. Returns the number of
// refreshed feeds.
func (m *Manager) RefreshBaseline(ctx context.Context, source baseline.Source) (int, bool) {
	counts, usedFallback := fallback.Execute(m.handler, "refresh_baseline",
		func() ([]models.FeedCounts, error) { return source.Counts(ctx) },
		func() []models.FeedCounts { return nil },
	)
	if usedFallback {
		return 0, true
	}
	m.ApplyBaseline(counts)
	return len(counts), false
}

// FeedCounterState returns the cached state for one feed.
func (m *Manager) FeedCounterState(feedID string) (models.CounterState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters.FeedState(feedID)
}

// AllCounterStates returns all cached states sorted by feed id.
func (m *Manager) AllCounterStates() []models.CounterState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters.AllStates()
}

// TotalUnread sums unread counts across all cached feeds.
func (m *Manager) TotalUnread() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters.TotalUnread()
}

// QueueStats summarizes the pending queue.
func (m *Manager) QueueStats() models.QueueStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Stats()
}

// QueueEntries returns an ordered snapshot of pending entries.
func (m *Manager) QueueEntries() []models.QueueEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Entries()
}

// ClearQueue drops all pending entries without touching counters.
func (m *Manager) ClearQueue() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Clear()
}

// PerformanceMetrics reports current monitor readings.
func (m *Manager) PerformanceMetrics() perf.Summary {
	return m.monitor.Summary()
}

// SyncWithDatabase clears the queue, the processed ledger, and all cached
// counters, and resets the performance monitor. Invoke after a successful
// full sync with the authoritative backend.
func (m *Manager) SyncWithDatabase() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncLocked()
}

func (m *Manager) syncLocked() error {
	err := m.counters.Reset()
	m.monitor.Reset()
	if err != nil {
		m.syncStatus = models.SyncError
		return err
	}
	m.syncStatus = models.SyncDone
	return nil
}

// EmergencyReset is the circuit breaker of last resort: it clears queue,
// counters, and monitor state best-effort, swallowing every internal
// error. Use when the durable store misbehaves beyond recovery, e.g.
// repeated quota errors.
func (m *Manager) EmergencyReset() {
	defer func() {
		_ = recover()
	}()
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.counters.Reset()
	m.monitor.Reset()
	m.syncStatus = models.SyncIdle
	m.handler.RecordOutcome("emergency_reset", fallback.OutcomeSuccess, nil)
}

// SystemStatus aggregates every projection into one diagnostic snapshot.
type SystemStatus struct {
	Initialized      bool                  `json:"initialized"`
	SyncStatus       string                `json:"syncStatus"`
	StorageAvailable bool                  `json:"storageAvailable"`
	FallbackMode     bool                  `json:"fallbackMode"`
	TotalUnread      int                   `json:"totalUnread"`
	Queue            models.QueueStats     `json:"queue"`
	Counters         []models.CounterState `json:"counters"`
	Performance      perf.Summary          `json:"performance"`
	RecentOperations []fallback.OpRecord   `json:"recentOperations,omitempty"`
}

// GetSystemStatus returns a full diagnostic snapshot.
func (m *Manager) GetSystemStatus() SystemStatus {
	m.mu.Lock()
	initialized := m.initialized
	syncStatus := m.syncStatus
	stats := m.queue.Stats()
	states := m.counters.AllStates()
	total := m.counters.TotalUnread()
	m.mu.Unlock()

	log := m.handler.Log()
	if len(log) > 10 {
		log = log[len(log)-10:]
	}

	return SystemStatus{
		Initialized:      initialized,
		SyncStatus:       syncStatus.String(),
		StorageAvailable: stats.StorageAvailable,
		FallbackMode:     m.handler.ShouldUseFallbackMode(),
		TotalUnread:      total,
		Queue:            stats,
		Counters:         states,
		Performance:      m.monitor.Summary(),
		RecentOperations: log,
	}
}

func (m *Manager) flushLoop(done chan struct{}) {
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.flushPending()
		}
	}
}

func (m *Manager) flushPending() {
	m.mu.Lock()
	if m.flush == nil || m.queue.Len() == 0 {
		m.mu.Unlock()
		return
	}
	entries := m.queue.Entries()
	m.syncStatus = models.SyncInProgress
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	err := m.handler.ExecuteWithRetry(ctx, "flush", func() error {
		return m.flush(ctx, entries)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.syncStatus = models.SyncError
		return
	}

	// Drop only the flushed snapshot. A mark enqueued while the flush
	// was in flight stays queued for the next cycle; counters and the
	// ledger are reset only by an explicit SyncWithDatabase.
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ArticleID)
	}
	if _, err := m.queue.BatchDequeue(ids); err != nil {
		m.handler.RecordOutcome("flush_trim", fallback.OutcomeFailure, err)
	}
	m.syncStatus = models.SyncDone
}
