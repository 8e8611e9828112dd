// ABOUTME: Tests for the fallback handler
// ABOUTME: Covers fallback execution, retry backoff, cached probing, and the capped log

package fallback

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harper/readstate/internal/storage"
)

func TestExecuteSuccessPath(t *testing.T) {
	h := New(storage.NewMemoryKV(), Options{})

	value, usedFallback := Execute(h, "read", func() (int, error) {
		return 42, nil
	}, func() int {
		t.Fatal("fallback must not run on success")
		return 0
	})
	if value != 42 || usedFallback {
		t.Errorf("got value=%d fallback=%v, want 42 false", value, usedFallback)
	}

	log := h.Log()
	if len(log) != 1 || log[0].Outcome != OutcomeSuccess {
		t.Errorf("unexpected log: %+v", log)
	}
}

func TestExecuteFallbackPath(t *testing.T) {
	h := New(storage.NewMemoryKV(), Options{})

	value, usedFallback := Execute(h, "read", func() (string, error) {
		return "", errors.New("boom")
	}, func() string {
		return "default"
	})
	if value != "default" || !usedFallback {
		t.Errorf("got value=%q fallback=%v, want default true", value, usedFallback)
	}

	log := h.Log()
	if len(log) != 1 || log[0].Outcome != OutcomeFallback || log[0].Error != "boom" {
		t.Errorf("unexpected log: %+v", log)
	}
}

func TestExecuteWithRetryEventualSuccess(t *testing.T) {
	h := New(storage.NewMemoryKV(), Options{RetryAttempts: 3, RetryBackoff: time.Millisecond})

	calls := 0
	err := h.ExecuteWithRetry(context.Background(), "flush", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}

	// Two failure records plus the final success.
	log := h.Log()
	if len(log) != 3 || log[2].Outcome != OutcomeSuccess {
		t.Errorf("unexpected log: %+v", log)
	}
}

func TestExecuteWithRetryExhausted(t *testing.T) {
	h := New(storage.NewMemoryKV(), Options{RetryAttempts: 2, RetryBackoff: time.Millisecond})

	wantErr := errors.New("permanent")
	calls := 0
	err := h.ExecuteWithRetry(context.Background(), "flush", func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected the last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestExecuteWithRetryHonorsContext(t *testing.T) {
	h := New(storage.NewMemoryKV(), Options{RetryAttempts: 5, RetryBackoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.ExecuteWithRetry(ctx, "flush", func() error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStorageAvailableCachesProbe(t *testing.T) {
	kv := storage.NewMemoryKV()
	h := New(kv, Options{ProbeTTL: time.Hour})

	if !h.StorageAvailable() {
		t.Fatal("expected healthy storage to probe true")
	}

	// Within the TTL the stale cached result is served.
	kv.SetUnavailable(true)
	if !h.StorageAvailable() {
		t.Error("expected cached true inside the probe TTL")
	}

	if h.ForceRecheck() {
		t.Error("ForceRecheck must bypass the cache")
	}
	if h.StorageAvailable() {
		t.Error("expected refreshed cache to report false")
	}
}

func TestShouldUseFallbackMode(t *testing.T) {
	h := New(storage.NewMemoryKV(), Options{ProbeTTL: time.Hour})

	if h.ShouldUseFallbackMode() {
		t.Error("fresh handler with healthy storage must not recommend fallback")
	}

	for i := 0; i < 3; i++ {
		h.RecordOutcome("op", OutcomeFailure, errors.New("fail"))
	}
	if !h.ShouldUseFallbackMode() {
		t.Error("expected fallback mode after repeated failures")
	}

	// Successes push the failures out of the recent window.
	for i := 0; i < 10; i++ {
		h.RecordOutcome("op", OutcomeSuccess, nil)
	}
	if h.ShouldUseFallbackMode() {
		t.Error("old failures outside the window must not count")
	}
}

func TestShouldUseFallbackModeOnUnavailableStorage(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.SetUnavailable(true)
	h := New(kv, Options{})

	if !h.ShouldUseFallbackMode() {
		t.Error("unavailable storage must force fallback mode")
	}
}

func TestLogIsCapped(t *testing.T) {
	h := New(storage.NewMemoryKV(), Options{})

	for i := 0; i < 150; i++ {
		h.RecordOutcome(fmt.Sprintf("op%d", i), OutcomeSuccess, nil)
	}

	log := h.Log()
	if len(log) != maxLogEntries {
		t.Fatalf("expected log capped at %d, got %d", maxLogEntries, len(log))
	}
	// Oldest entries evicted first.
	if log[0].Name != "op50" || log[len(log)-1].Name != "op149" {
		t.Errorf("unexpected window: first=%s last=%s", log[0].Name, log[len(log)-1].Name)
	}
}
