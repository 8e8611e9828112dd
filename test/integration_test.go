// ABOUTME: Integration tests for the full read-state workflow
// ABOUTME: Tests end-to-end scenarios including marks, restart recovery, flush, and degraded mode

package test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/harper/readstate/internal/baseline"
	"github.com/harper/readstate/internal/models"
	"github.com/harper/readstate/internal/state"
	"github.com/harper/readstate/internal/storage"
)

// TestFullWorkflow walks the complete lifecycle: baseline, optimistic
// marks, queue inspection, flush, and the post-sync clean slate.
func TestFullWorkflow(t *testing.T) {
	kv := storage.NewMemoryKV()

	var mu sync.Mutex
	var flushed []models.QueueEntry

	manager := state.NewManager(kv, state.Options{
		FlushInterval: 100 * time.Millisecond,
		Flush: func(ctx context.Context, entries []models.QueueEntry) error {
			mu.Lock()
			defer mu.Unlock()
			flushed = append(flushed, entries...)
			return nil
		},
	})
	manager.Initialize()
	defer manager.Cleanup()

	// Authoritative baseline from a count source.
	source := baseline.StaticSource{
		{FeedID: "news", UnreadCount: 10, TotalCount: 20},
		{FeedID: "blogs", UnreadCount: 5, TotalCount: 8},
	}
	counts, err := source.Counts(context.Background())
	if err != nil {
		t.Fatalf("baseline counts: %v", err)
	}
	manager.ApplyBaseline(counts)

	if total := manager.TotalUnread(); total != 15 {
		t.Fatalf("expected baseline total 15, got %d", total)
	}

	// Optimistic marks adjust counters immediately.
	if result := manager.MarkArticleRead("n1", "news"); !result.Success {
		t.Fatal("mark read failed")
	}
	manager.MarkArticleRead("n2", "news")
	manager.MarkArticleUnread("b1", "blogs")
	manager.ToggleStar("b2", "blogs")

	newsState, _ := manager.FeedCounterState("news")
	if newsState.UnreadCount != 8 {
		t.Errorf("expected news unread 8, got %d", newsState.UnreadCount)
	}
	blogsState, _ := manager.FeedCounterState("blogs")
	if blogsState.UnreadCount != 6 {
		t.Errorf("expected blogs unread 6, got %d", blogsState.UnreadCount)
	}

	// The flush loop drains the queue without touching counters.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && manager.QueueStats().Count > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if count := manager.QueueStats().Count; count != 0 {
		t.Fatalf("expected queue drained, still %d entries", count)
	}

	mu.Lock()
	flushCount := len(flushed)
	mu.Unlock()
	if flushCount != 4 {
		t.Errorf("expected 4 flushed entries, got %d", flushCount)
	}

	// Flushing drops only the flushed entries; the optimistic counters
	// stay live until an explicit database sync.
	newsState, _ = manager.FeedCounterState("news")
	if newsState.UnreadCount != 8 {
		t.Errorf("expected news counters retained after flush, got %d", newsState.UnreadCount)
	}

	// Post-sync the counter cache is a clean slate for re-baselining.
	if err := manager.SyncWithDatabase(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if len(manager.AllCounterStates()) != 0 {
		t.Errorf("expected cleared counters after sync, got %+v", manager.AllCounterStates())
	}
}

// TestRestartRecovery verifies queued mutations survive a process restart
// through the sqlite backend and are re-counted by reconciliation.
func TestRestartRecovery(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "readstate.db")

	kv, err := storage.NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	manager := state.NewManager(kv, state.Options{})
	manager.Initialize()
	manager.MarkArticleRead("a1", "f1")
	manager.MarkArticleRead("a2", "f1")
	manager.MarkArticleUnread("a3", "f2")
	manager.Cleanup()
	kv.Close()

	// Simulated restart: fresh KV handle, fresh manager.
	kv2, err := storage.NewSQLiteKV(dbPath)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer kv2.Close()

	restarted := state.NewManager(kv2, state.Options{})
	restarted.Initialize()
	defer restarted.Cleanup()

	if count := restarted.QueueStats().Count; count != 3 {
		t.Fatalf("expected 3 recovered entries, got %d", count)
	}

	// A fresh process has an empty ledger, so reconciliation counts the
	// recovered entries into the counter cache.
	updates := restarted.Reconcile()
	if len(updates) != 2 {
		t.Fatalf("expected updates for 2 feeds, got %+v", updates)
	}
	f2, _ := restarted.FeedCounterState("f2")
	if f2.UnreadCount != 1 {
		t.Errorf("expected f2 unread 1, got %d", f2.UnreadCount)
	}

	// Idempotent: nothing new the second time.
	if updates := restarted.Reconcile(); len(updates) != 0 {
		t.Errorf("expected no-op second reconcile, got %+v", updates)
	}
}

// TestDegradedModeWorkflow exercises the quota-exceeded path end to end.
func TestDegradedModeWorkflow(t *testing.T) {
	kv := storage.NewMemoryKV()
	manager := state.NewManager(kv, state.Options{})
	manager.Initialize()
	defer manager.Cleanup()

	kv.FailWritesWith(storage.ErrQuotaExceeded)

	result := manager.MarkArticleRead("a1", "f1")
	if !result.Success || !result.Pending {
		t.Fatalf("expected degraded success with pending flag, got %+v", result)
	}

	status := manager.GetSystemStatus()
	if status.StorageAvailable {
		t.Error("expected storage unavailable in status")
	}
	if status.Queue.Count != 1 {
		t.Errorf("expected the mark held in memory, got %d", status.Queue.Count)
	}

	// Storage recovers; subsequent marks persist again.
	kv.FailWritesWith(nil)
	result = manager.MarkArticleRead("a2", "f1")
	if result.Pending {
		t.Errorf("expected durable write after recovery, got %+v", result)
	}
}

// TestEmergencyResetWorkflow verifies the circuit breaker leaves a usable
// manager behind even with dead storage.
func TestEmergencyResetWorkflow(t *testing.T) {
	kv := storage.NewMemoryKV()
	manager := state.NewManager(kv, state.Options{})
	manager.Initialize()
	defer manager.Cleanup()

	manager.MarkArticleRead("a1", "f1")
	kv.SetUnavailable(true)

	manager.EmergencyReset()

	if manager.QueueStats().Count != 0 {
		t.Error("expected empty queue after reset")
	}

	// Still usable afterwards.
	kv.SetUnavailable(false)
	if result := manager.MarkArticleRead("a2", "f1"); !result.Success {
		t.Errorf("expected working manager after reset, got %+v", result)
	}
}
