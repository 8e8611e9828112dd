// ABOUTME: Fixed-capacity processed-entry ledger
// ABOUTME: Ring buffer of keys plus membership map for O(1) insert, evict, and lookup

package counters

// DefaultLedgerCapacity bounds the processed-entry ledger.
const DefaultLedgerCapacity = 1000

// ledger records which queue entries have already been folded into
// counter deltas, so a repeated reconciliation pass never double-applies
// the same mutation. When full, the oldest key is evicted.
type ledger struct {
	keys []string
	seen map[string]struct{}
	head int
	size int
}

func newLedger(capacity int) *ledger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &ledger{
		keys: make([]string, capacity),
		seen: make(map[string]struct{}, capacity),
	}
}

func (l *ledger) Has(key string) bool {
	_, ok := l.seen[key]
	return ok
}

func (l *ledger) Add(key string) {
	if l.Has(key) {
		return
	}
	if l.size == len(l.keys) {
		delete(l.seen, l.keys[l.head])
	} else {
		l.size++
	}
	l.keys[l.head] = key
	l.seen[key] = struct{}{}
	l.head = (l.head + 1) % len(l.keys)
}

func (l *ledger) Len() int {
	return l.size
}

func (l *ledger) Clear() {
	l.seen = make(map[string]struct{}, len(l.keys))
	l.head = 0
	l.size = 0
}
