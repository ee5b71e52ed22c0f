package feeds

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/newswatch/newswatch/internal/logging"
)

// fetchTimeout is the timeout for each individual source fetch.
const fetchTimeout = 30 * time.Second

// maxConcurrentFetches limits parallel fetch operations.
const maxConcurrentFetches = 5

// Fetcher pulls items from a fixed set of sources.
// The source list is immutable after construction.
type Fetcher struct {
	sources  []Source
	maxItems int
}

// NewFetcher creates a Fetcher. maxItems caps the combined batch size;
// zero or negative means no cap.
func NewFetcher(sources []Source, maxItems int) *Fetcher {
	sourcesCopy := make([]Source, len(sources))
	copy(sourcesCopy, sources)

	return &Fetcher{
		sources:  sourcesCopy,
		maxItems: maxItems,
	}
}

// SourceCount returns the number of configured sources.
func (f *Fetcher) SourceCount() int {
	return len(f.sources)
}

// FetchAll fetches every source in parallel and returns the combined batch
// in configured source order. A failing source is logged and skipped; it
// never fails the batch.
func (f *Fetcher) FetchAll(ctx context.Context) []Item {
	results := make([][]Item, len(f.sources))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for i, src := range f.sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()

			items, err := src.Fetch(fetchCtx)
			if err != nil {
				logging.Warn("Source fetch failed", "source", src.Name(), "error", err)
				return nil // errors reported per-source, never fail the group
			}
			results[i] = items
			return nil
		})
	}

	_ = g.Wait()

	var all []Item
	for _, items := range results {
		all = append(all, items...)
	}

	if f.maxItems > 0 && len(all) > f.maxItems {
		logging.Debug("Batch truncated", "fetched", len(all), "max", f.maxItems)
		all = all[:f.maxItems]
	}

	return all
}
