// ABOUTME: Durable key-value storage interface and sentinel errors
// ABOUTME: Defines the contract shared by the charm, sqlite, and memory backends

package storage

import "errors"

var (
	// ErrNotFound is returned by Get when a key has no value.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned by Set when the store is full.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrUnavailable is returned when the store cannot be reached at all,
	// e.g. the backing database is locked, deleted, or disabled by policy.
	ErrUnavailable = errors.New("storage unavailable")
)

// KV is the narrow durable store contract the read-state cache persists
// through. Writes may fail at any time (quota, policy); callers are
// expected to treat failures as degradation, not fatal errors.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys returns all keys in the store.
	Keys() ([]string, error)

	// Close releases resources held by the store.
	Close() error
}
