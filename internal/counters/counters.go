// ABOUTME: Counter reconciler deriving per-feed unread/total deltas from queue entries
// ABOUTME: TTL-guarded baseline rebasing, clamped counters, optimistic mark helpers

package counters

import (
	"sort"
	"time"

	"github.com/harper/readstate/internal/models"
	"github.com/harper/readstate/internal/queue"
)

// DefaultBaselineTTL is how long an optimistic counter update shields a
// feed from a late-arriving authoritative refresh.
const DefaultBaselineTTL = 5 * time.Minute

// Options configures a Reconciler.
type Options struct {
	// LedgerCapacity bounds the processed-entry ledger. Zero means
	// DefaultLedgerCapacity.
	LedgerCapacity int

	// BaselineTTL overrides DefaultBaselineTTL when positive.
	BaselineTTL time.Duration
}

// Reconciler folds queue entries into an in-memory per-feed counter
// cache. The queue is the single source for both durable replay and
// incremental counting; the processed ledger keeps re-runs of the
// counting pass from recounting mutations already applied.
type Reconciler struct {
	queue     *queue.Queue
	states    map[string]*models.CounterState
	processed *ledger
	ttl       time.Duration
}

// New builds a Reconciler over q.
func New(q *queue.Queue, opts Options) *Reconciler {
	ttl := opts.BaselineTTL
	if ttl <= 0 {
		ttl = DefaultBaselineTTL
	}
	return &Reconciler{
		queue:     q,
		states:    make(map[string]*models.CounterState),
		processed: newLedger(opts.LedgerCapacity),
		ttl:       ttl,
	}
}

// Reconcile scans the queue for entries not yet in the processed ledger,
// groups them by feed, and returns the summed per-feed deltas. All newly
// seen entries are marked processed. Returns an empty slice when there is
// nothing new, so calling twice in a row is a no-op the second time.
func (r *Reconciler) Reconcile() []models.CounterUpdate {
	byFeed := make(map[string]*models.CounterUpdate)
	var order []string

	for _, entry := range r.queue.Entries() {
		key := entry.Key()
		if r.processed.Has(key) {
			continue
		}
		r.processed.Add(key)

		update, ok := byFeed[entry.FeedID]
		if !ok {
			update = &models.CounterUpdate{FeedID: entry.FeedID}
			byFeed[entry.FeedID] = update
			order = append(order, entry.FeedID)
		}
		update.DeltaUnread += entry.Action.UnreadDelta()
	}

	updates := make([]models.CounterUpdate, 0, len(order))
	for _, feedID := range order {
		updates = append(updates, *byFeed[feedID])
	}
	return updates
}

// ApplyUpdates folds deltas into the cache, clamping counts at zero and
// stamping LastUpdated.
func (r *Reconciler) ApplyUpdates(updates []models.CounterUpdate) {
	now := time.Now()
	for _, update := range updates {
		state := r.stateFor(update.FeedID)
		state.UnreadCount = clamp(state.UnreadCount + update.DeltaUnread)
		state.TotalCount = clamp(state.TotalCount + update.DeltaTotal)
		state.LastUpdated = now
	}
}

// ApplyBaseline applies authoritative server counts, but only for feeds
// whose cached entry is missing or older than the TTL. A fresh optimistic
// update is never clobbered by a stale authoritative refresh.
func (r *Reconciler) ApplyBaseline(counts []models.FeedCounts) {
	now := time.Now()
	for _, c := range counts {
		state, ok := r.states[c.FeedID]
		if ok && now.Sub(state.LastUpdated) < r.ttl {
			continue
		}
		if !ok {
			state = &models.CounterState{FeedID: c.FeedID}
			r.states[c.FeedID] = state
		}
		state.UnreadCount = clamp(c.UnreadCount)
		state.TotalCount = clamp(c.TotalCount)
		state.LastUpdated = now
	}
}

// MarkRead enqueues a mark_read mutation and immediately applies the -1
// unread delta for the feed. Returns the elapsed time for the full
// round-trip and whether the queue was persisted durably.
func (r *Reconciler) MarkRead(articleID, feedID string) (time.Duration, bool, error) {
	return r.mark(articleID, feedID, models.ActionMarkRead)
}

// MarkUnread is the +1 counterpart of MarkRead.
func (r *Reconciler) MarkUnread(articleID, feedID string) (time.Duration, bool, error) {
	return r.mark(articleID, feedID, models.ActionMarkUnread)
}

// ToggleStar enqueues a star toggle. Stars do not affect counts.
func (r *Reconciler) ToggleStar(articleID, feedID string) (time.Duration, bool, error) {
	return r.mark(articleID, feedID, models.ActionToggleStar)
}

func (r *Reconciler) mark(articleID, feedID string, action models.Action) (time.Duration, bool, error) {
	start := time.Now()

	entry := models.NewQueueEntry(articleID, feedID, action)
	persisted, err := r.queue.Enqueue(entry)
	if err != nil {
		return time.Since(start), persisted, err
	}

	// Applied here, so the next reconciliation pass must not count it again.
	r.processed.Add(entry.Key())
	if delta := action.UnreadDelta(); delta != 0 {
		r.ApplyUpdates([]models.CounterUpdate{{FeedID: feedID, DeltaUnread: delta}})
	}

	return time.Since(start), persisted, nil
}

// BatchMarkRead marks several articles read, aggregating deltas per feed
// into a single ApplyUpdates call to avoid redundant intermediate states.
func (r *Reconciler) BatchMarkRead(refs []models.ArticleRef) (time.Duration, bool, error) {
	start := time.Now()
	persisted := true

	byFeed := make(map[string]*models.CounterUpdate)
	var order []string

	for _, ref := range refs {
		entry := models.NewQueueEntry(ref.ArticleID, ref.FeedID, models.ActionMarkRead)
		ok, err := r.queue.Enqueue(entry)
		if err != nil {
			return time.Since(start), false, err
		}
		if !ok {
			persisted = false
		}
		r.processed.Add(entry.Key())

		update, seen := byFeed[ref.FeedID]
		if !seen {
			update = &models.CounterUpdate{FeedID: ref.FeedID}
			byFeed[ref.FeedID] = update
			order = append(order, ref.FeedID)
		}
		update.DeltaUnread--
	}

	updates := make([]models.CounterUpdate, 0, len(order))
	for _, feedID := range order {
		updates = append(updates, *byFeed[feedID])
	}
	r.ApplyUpdates(updates)

	return time.Since(start), persisted, nil
}

// Reset clears the queue, the processed ledger, and all cached counters,
// establishing a fresh baseline boundary after a successful full sync.
func (r *Reconciler) Reset() error {
	err := r.queue.Clear()
	r.processed.Clear()
	r.states = make(map[string]*models.CounterState)
	return err
}

// InvalidateCache clears cached counters without touching the queue.
func (r *Reconciler) InvalidateCache() {
	r.states = make(map[string]*models.CounterState)
}

// TotalUnread sums UnreadCount across all cached feeds.
func (r *Reconciler) TotalUnread() int {
	total := 0
	for _, state := range r.states {
		total += state.UnreadCount
	}
	return total
}

// FeedState returns a copy of the cached state for feedID.
func (r *Reconciler) FeedState(feedID string) (models.CounterState, bool) {
	state, ok := r.states[feedID]
	if !ok {
		return models.CounterState{}, false
	}
	return *state, true
}

// AllStates returns copies of all cached states, sorted by feed id.
func (r *Reconciler) AllStates() []models.CounterState {
	out := make([]models.CounterState, 0, len(r.states))
	for _, state := range r.states {
		out = append(out, *state)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FeedID < out[j].FeedID
	})
	return out
}

// LedgerSize reports how many entry keys the processed ledger holds.
func (r *Reconciler) LedgerSize() int {
	return r.processed.Len()
}

func (r *Reconciler) stateFor(feedID string) *models.CounterState {
	state, ok := r.states[feedID]
	if !ok {
		state = &models.CounterState{FeedID: feedID}
		r.states[feedID] = state
	}
	return state
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
