// ABOUTME: Queue entry model representing a single pending read-state mutation
// ABOUTME: Defines the action vocabulary and the processed-ledger key format

package models

import (
	"fmt"
	"time"
)

// Action is the kind of mutation a queue entry carries.
type Action string

const (
	ActionMarkRead   Action = "mark_read"
	ActionMarkUnread Action = "mark_unread"
	ActionToggleStar Action = "toggle_star"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionMarkRead, ActionMarkUnread, ActionToggleStar:
		return true
	}
	return false
}

// UnreadDelta returns the effect of the action on a feed's unread count.
func (a Action) UnreadDelta() int {
	switch a {
	case ActionMarkRead:
		return -1
	case ActionMarkUnread:
		return 1
	}
	return 0
}

// QueueEntry represents a single pending mutation awaiting flush to the
// authoritative backend. At most one live entry per ArticleID exists in
// the queue at any time.
type QueueEntry struct {
	ArticleID string `json:"articleId"`
	FeedID    string `json:"feedId"`
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"` // wall-clock milliseconds
}

// NewQueueEntry creates a QueueEntry stamped with the current time.
func NewQueueEntry(articleID, feedID string, action Action) QueueEntry {
	return QueueEntry{
		ArticleID: articleID,
		FeedID:    feedID,
		Action:    action,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Key returns the processed-ledger key for this entry. Two enqueues of the
// same article at different times produce distinct keys, so a re-enqueued
// article is counted again after a flush.
func (e QueueEntry) Key() string {
	return fmt.Sprintf("%s_%d", e.ArticleID, e.Timestamp)
}

// ArticleRef identifies an article and its owning feed for batch operations.
type ArticleRef struct {
	ArticleID string `json:"articleId"`
	FeedID    string `json:"feedId"`
}
