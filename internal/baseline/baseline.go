// ABOUTME: Authoritative per-feed counts for rebasing the counter cache
// ABOUTME: Static source for tests plus a gofeed-backed feed prober

package baseline

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/harper/readstate/internal/models"
)

// Source supplies authoritative per-feed counts, consumed by the state
// manager's baseline rebase.
type Source interface {
	Counts(ctx context.Context) ([]models.FeedCounts, error)
}

// StaticSource returns a fixed set of counts. Useful for tests and for
// backends that deliver counts out of band.
type StaticSource []models.FeedCounts

func (s StaticSource) Counts(_ context.Context) ([]models.FeedCounts, error) {
	out := make([]models.FeedCounts, len(s))
	copy(out, s)
	return out, nil
}

// FeedSource probes live RSS/Atom feeds and reports item totals. A feed
// the local cache has never seen counts every item as unread; local
// optimistic state takes precedence through the counter cache TTL.
type FeedSource struct {
	parser *gofeed.Parser
	urls   []string
}

// NewFeedSource builds a FeedSource over the given feed URLs. The feed id
// reported for each is its URL.
func NewFeedSource(urls []string) *FeedSource {
	return &FeedSource{
		parser: gofeed.NewParser(),
		urls:   urls,
	}
}

func (f *FeedSource) Counts(ctx context.Context) ([]models.FeedCounts, error) {
	counts := make([]models.FeedCounts, 0, len(f.urls))
	var firstErr error

	for _, url := range f.urls {
		feed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch %s: %w", url, err)
			}
			continue
		}
		counts = append(counts, models.FeedCounts{
			FeedID:      url,
			UnreadCount: len(feed.Items),
			TotalCount:  len(feed.Items),
		})
	}

	if len(counts) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return counts, nil
}
