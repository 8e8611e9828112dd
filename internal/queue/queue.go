// ABOUTME: Bounded FIFO queue of pending read-state mutations
// ABOUTME: Latest-wins per article, best-effort persistence, empirical availability probing

package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/harper/readstate/internal/models"
	"github.com/harper/readstate/internal/storage"
)

const (
	// DefaultMaxEntries caps the queue; oldest entries are evicted first.
	DefaultMaxEntries = 1000

	// DefaultStorageKey is where the serialized queue lives in the KV store.
	DefaultStorageKey = "queue:pending"

	probeKey = "queue:probe"
)

// Options configures a Queue.
type Options struct {
	// MaxEntries bounds the queue. Zero means DefaultMaxEntries.
	MaxEntries int

	// StorageKey overrides the persistence key. Empty means DefaultStorageKey.
	StorageKey string

	// GracefulDegradation swallows persistence failures so callers keep
	// operating against the in-memory mirror. Disable in test or server
	// contexts that want hard errors.
	GracefulDegradation bool
}

// Queue is an append-only, bounded, FIFO-evicting log of pending
// mutations. The in-memory slice is the instantaneous source of truth;
// the KV store holds a best-effort serialized mirror.
type Queue struct {
	kv       storage.KV
	key      string
	max      int
	graceful bool

	entries   []models.QueueEntry
	available bool

	warnedCorruption bool
}

// New builds a Queue, rebuilding the in-memory mirror from the KV store
// and probing storage availability.
func New(kv storage.KV, opts Options) *Queue {
	q := &Queue{
		kv:       kv,
		key:      opts.StorageKey,
		max:      opts.MaxEntries,
		graceful: opts.GracefulDegradation,
	}
	if q.key == "" {
		q.key = DefaultStorageKey
	}
	if q.max <= 0 {
		q.max = DefaultMaxEntries
	}

	q.load()
	q.probe()
	return q
}

// Enqueue validates and appends an entry, replacing any live entry for the
// same article and evicting the oldest entries past the cap. The returned
// bool reports whether the queue was persisted durably; with graceful
// degradation enabled, persistence failures yield (false, nil).
func (q *Queue) Enqueue(entry models.QueueEntry) (bool, error) {
	if entry.ArticleID == "" {
		return false, fmt.Errorf("invalid queue entry: empty articleId")
	}
	if !entry.Action.Valid() {
		return false, fmt.Errorf("invalid queue entry: unknown action %q", entry.Action)
	}

	// Latest-wins: a repeated toggle before flush replaces the prior entry
	// instead of stacking a second counter adjustment.
	q.removeInMemory(entry.ArticleID)
	q.entries = append(q.entries, entry)

	if len(q.entries) > q.max {
		q.entries = q.entries[len(q.entries)-q.max:]
	}

	return q.persist()
}

// Dequeue removes and returns the oldest entry. The entry leaves the
// in-memory queue even when re-persisting the shrunken queue fails; the
// error reports that failure (nil in graceful mode).
func (q *Queue) Dequeue() (models.QueueEntry, bool, error) {
	if len(q.entries) == 0 {
		return models.QueueEntry{}, false, nil
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	_, err := q.persist()
	return entry, true, err
}

// DequeueArticle removes and returns the live entry for articleID, if any.
func (q *Queue) DequeueArticle(articleID string) (models.QueueEntry, bool, error) {
	for i, entry := range q.entries {
		if entry.ArticleID == articleID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			_, err := q.persist()
			return entry, true, err
		}
	}
	return models.QueueEntry{}, false, nil
}

// RemoveByArticleID removes the live entry for articleID, reporting
// whether one existed.
func (q *Queue) RemoveByArticleID(articleID string) (bool, error) {
	_, ok, err := q.DequeueArticle(articleID)
	return ok, err
}

// BatchDequeue removes the live entries for all given article ids and
// returns how many were removed. The queue is persisted once.
func (q *Queue) BatchDequeue(articleIDs []string) (int, error) {
	drop := make(map[string]bool, len(articleIDs))
	for _, id := range articleIDs {
		drop[id] = true
	}

	kept := q.entries[:0]
	removed := 0
	for _, entry := range q.entries {
		if drop[entry.ArticleID] {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	q.entries = kept

	var err error
	if removed > 0 {
		_, err = q.persist()
	}
	return removed, err
}

// Entries returns an ordered snapshot of the queue.
func (q *Queue) Entries() []models.QueueEntry {
	out := make([]models.QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of live entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Stats summarizes the queue for status display.
func (q *Queue) Stats() models.QueueStats {
	stats := models.QueueStats{
		Count:            len(q.entries),
		StorageAvailable: q.available,
	}
	if len(q.entries) > 0 {
		stats.OldestTimestamp = q.entries[0].Timestamp
		stats.NewestTimestamp = q.entries[len(q.entries)-1].Timestamp
	}
	return stats
}

// Clear empties both the in-memory queue and the durable mirror.
func (q *Queue) Clear() error {
	q.entries = nil
	if err := q.kv.Delete(q.key); err != nil {
		q.available = false
		if q.graceful {
			return nil
		}
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// StorageAvailable reports the cached result of the last probe or write.
func (q *Queue) StorageAvailable() bool {
	return q.available
}

// RecheckAvailability re-probes the durable store and returns the result.
func (q *Queue) RecheckAvailability() bool {
	q.probe()
	return q.available
}

func (q *Queue) removeInMemory(articleID string) {
	for i, entry := range q.entries {
		if entry.ArticleID == articleID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

func (q *Queue) persist() (bool, error) {
	data, err := json.Marshal(q.entries)
	if err != nil {
		// QueueEntry contains only marshalable fields; treat as a bug.
		return false, fmt.Errorf("marshal queue: %w", err)
	}

	if err := q.kv.Set(q.key, data); err != nil {
		q.available = false
		if q.graceful {
			return false, nil
		}
		return false, fmt.Errorf("persist queue: %w", err)
	}

	q.available = true
	return true, nil
}

// probe tests availability empirically with a round-tripped token.
// Storage can be present but full or disabled by policy, so feature
// detection alone is not enough. The token is unique per probe so two
// processes sharing a store cannot confuse each other's probes.
func (q *Queue) probe() {
	token := []byte(uuid.NewString())
	if err := q.kv.Set(probeKey, token); err != nil {
		q.available = false
		return
	}
	got, err := q.kv.Get(probeKey)
	_ = q.kv.Delete(probeKey)
	q.available = err == nil && bytes.Equal(got, token)
}

// persistedEntry accepts both the current {action} and the legacy {type}
// field name. Normalization happens once here; business logic only ever
// sees the canonical QueueEntry.
type persistedEntry struct {
	ArticleID  string        `json:"articleId"`
	FeedID     string        `json:"feedId"`
	Action     models.Action `json:"action"`
	LegacyType models.Action `json:"type"`
	Timestamp  int64         `json:"timestamp"`
}

func (p persistedEntry) normalize() (models.QueueEntry, bool) {
	action := p.Action
	if action == "" {
		action = p.LegacyType
	}
	if p.ArticleID == "" || !action.Valid() {
		return models.QueueEntry{}, false
	}
	return models.QueueEntry{
		ArticleID: p.ArticleID,
		FeedID:    p.FeedID,
		Action:    action,
		Timestamp: p.Timestamp,
	}, true
}

// load rebuilds the in-memory mirror, tolerating corrupt or partially
// shaped persisted data: well-formed entries are kept, the rest dropped.
func (q *Queue) load() {
	data, err := q.kv.Get(q.key)
	if err != nil {
		// Missing or unreachable: start empty.
		return
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		q.warnCorruption()
		return
	}

	entries := make([]models.QueueEntry, 0, len(raw))
	for _, item := range raw {
		var p persistedEntry
		if err := json.Unmarshal(item, &p); err != nil {
			q.warnCorruption()
			continue
		}
		entry, ok := p.normalize()
		if !ok {
			q.warnCorruption()
			continue
		}
		entries = append(entries, entry)
	}
	q.entries = entries
}

func (q *Queue) warnCorruption() {
	if q.warnedCorruption {
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: some persisted queue entries were corrupted and dropped\n")
	q.warnedCorruption = true
}
