// ABOUTME: Tests for the in-memory key-value backend
// ABOUTME: Covers CRUD, defensive copies, and failure injection

package storage

import (
	"errors"
	"testing"
)

func TestMemoryKVRoundTrip(t *testing.T) {
	kv := NewMemoryKV()

	if _, err := kv.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Set("a", []byte("1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, err := kv.Get("a")
	if err != nil || string(value) != "1" {
		t.Errorf("Get: got %q err=%v", value, err)
	}

	if err := kv.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := kv.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryKVKeysSorted(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set("b", []byte("2"))
	kv.Set("a", []byte("1"))
	kv.Set("c", []byte("3"))

	keys, err := kv.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestMemoryKVDefensiveCopies(t *testing.T) {
	kv := NewMemoryKV()

	value := []byte("original")
	kv.Set("a", value)
	value[0] = 'X'

	got, _ := kv.Get("a")
	if string(got) != "original" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}

	got[0] = 'Y'
	again, _ := kv.Get("a")
	if string(again) != "original" {
		t.Errorf("returned value aliased stored buffer: %q", again)
	}
}

func TestMemoryKVFailureInjection(t *testing.T) {
	kv := NewMemoryKV()

	kv.FailWritesWith(ErrQuotaExceeded)
	if err := kv.Set("a", []byte("1")); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}

	kv.FailWritesWith(nil)
	if err := kv.Set("a", []byte("1")); err != nil {
		t.Errorf("expected recovery after clearing the injected error, got %v", err)
	}

	kv.SetUnavailable(true)
	if _, err := kv.Get("a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get: expected ErrUnavailable, got %v", err)
	}
	if err := kv.Set("b", []byte("2")); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Set: expected ErrUnavailable, got %v", err)
	}
	if err := kv.Delete("a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Delete: expected ErrUnavailable, got %v", err)
	}
	if _, err := kv.Keys(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Keys: expected ErrUnavailable, got %v", err)
	}

	kv.SetUnavailable(false)
	if got, err := kv.Get("a"); err != nil || string(got) != "1" {
		t.Errorf("expected data intact after recovery, got %q err=%v", got, err)
	}
}
