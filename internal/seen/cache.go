// Package seen tracks recently notified items so the same story is not
// pushed twice within the retention window.
package seen

import (
	"sort"
	"sync"
	"time"

	"github.com/newswatch/newswatch/internal/feeds"
	"github.com/newswatch/newswatch/internal/logging"
)

// DefaultMaxRecords bounds the cache size; eviction is oldest-first.
const DefaultMaxRecords = 100

// DefaultRetention is how long an item counts as "seen". An item not
// re-supplied for this long becomes eligible for notification again.
const DefaultRetention = 24 * time.Hour

// admissionScore keeps low-importance items out of the cache entirely;
// they are below every notification threshold anyway.
const admissionScore = 7.0

// Record is the identity fingerprint of a notified item.
type Record struct {
	Title  string
	Link   string
	Score  float64
	SeenAt time.Time
}

// Cache is the in-process recency cache. The single scheduling goroutine
// is the only writer; the mutex guards against future parallel cycles.
type Cache struct {
	mu        sync.Mutex
	records   []Record
	max       int
	retention time.Duration
	now       func() time.Time
	store     *Store // optional persistence, nil when disabled
}

// NewCache creates a cache with the given bound and retention window.
// Zero values select the defaults.
func NewCache(max int, retention time.Duration) *Cache {
	if max <= 0 {
		max = DefaultMaxRecords
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Cache{
		max:       max,
		retention: retention,
		now:       time.Now,
	}
}

// AttachStore enables sqlite persistence and preloads surviving records.
// Dedupe correctness never depends on the store; load errors are logged
// and the cache starts empty.
func (c *Cache) AttachStore(store *Store) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = store
	records, err := store.Load(c.now().Add(-c.retention))
	if err != nil {
		logging.Warn("Failed to load seen records, starting empty", "error", err)
		return
	}
	c.records = records
	c.evictLocked()
	logging.Info("Seen cache restored", "records", len(c.records))
}

// FilterNew returns the items with effective score at or above threshold
// that have not been seen within the retention window. Title OR link
// equality with a live record counts as seen.
func (c *Cache) FilterNew(items []feeds.Item, threshold float64) []feeds.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.retention)

	var fresh []feeds.Item
	for _, item := range items {
		if item.EffectiveScore() < threshold {
			continue
		}
		if c.seenLocked(item, cutoff) {
			logging.Debug("Item suppressed by dedupe", "title", item.Title)
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}

// Record registers items as seen. Call only after a successful dispatch:
// a failed notification must stay eligible for the next cycle.
func (c *Cache) Record(items []feeds.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var added []Record
	for _, item := range items {
		if item.EffectiveScore() < admissionScore {
			continue
		}
		added = append(added, Record{
			Title:  item.Title,
			Link:   item.Link,
			Score:  item.EffectiveScore(),
			SeenAt: now,
		})
	}
	if len(added) == 0 {
		return
	}

	c.records = append(c.records, added...)
	c.evictLocked()

	if c.store != nil {
		if err := c.store.Append(added); err != nil {
			logging.Warn("Failed to persist seen records", "error", err)
		}
	}
}

// Len returns the current record count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Cache) seenLocked(item feeds.Item, cutoff time.Time) bool {
	for _, r := range c.records {
		if r.SeenAt.Before(cutoff) {
			continue
		}
		if r.Title == item.Title || (item.Link != "" && r.Link == item.Link) {
			return true
		}
	}
	return false
}

// evictLocked drops the oldest records once the bound is exceeded.
// Independent of the retention window.
func (c *Cache) evictLocked() {
	if len(c.records) <= c.max {
		return
	}
	sort.SliceStable(c.records, func(i, j int) bool {
		return c.records[i].SeenAt.Before(c.records[j].SeenAt)
	})
	c.records = c.records[len(c.records)-c.max:]
}
