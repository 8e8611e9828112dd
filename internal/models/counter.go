// ABOUTME: Counter models for per-feed unread/total aggregates
// ABOUTME: Includes delta updates, baseline counts, and queue statistics

package models

import "time"

// CounterState is the cached per-feed aggregate exposed to the UI.
// UnreadCount and TotalCount are never negative.
type CounterState struct {
	FeedID      string    `json:"feedId"`
	UnreadCount int       `json:"unreadCount"`
	TotalCount  int       `json:"totalCount"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// CounterUpdate is a per-feed delta computed from unprocessed queue entries.
type CounterUpdate struct {
	FeedID      string `json:"feedId"`
	DeltaUnread int    `json:"deltaUnread"`
	DeltaTotal  int    `json:"deltaTotal"`
}

// FeedCounts is an authoritative per-feed count from the backend,
// consumed when rebasing the counter cache.
type FeedCounts struct {
	FeedID      string `json:"feedId"`
	UnreadCount int    `json:"unreadCount"`
	TotalCount  int    `json:"totalCount"`
}

// QueueStats summarizes the pending queue for status display.
type QueueStats struct {
	Count            int   `json:"count"`
	OldestTimestamp  int64 `json:"oldestTimestamp,omitempty"`
	NewestTimestamp  int64 `json:"newestTimestamp,omitempty"`
	StorageAvailable bool  `json:"storageAvailable"`
}

// Result reports the outcome of a mutating call on the state manager.
// Pending means the in-memory state changed but persistence did not land;
// the entry will be retried on the next successful write of the queue.
type Result struct {
	Success      bool          `json:"success"`
	ResponseTime time.Duration `json:"responseTime"`
	FallbackUsed bool          `json:"fallbackUsed"`
	Pending      bool          `json:"pending"`
}
