package seen

import (
	"fmt"
	"testing"
	"time"

	"github.com/newswatch/newswatch/internal/feeds"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func item(title, link string, score float64) feeds.Item {
	return feeds.Item{Title: title, Link: link, HeuristicScore: score}
}

func TestFilterNewSuppressesRepeats(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	c := NewCache(0, 0)
	c.now = fixedClock(base)

	first := []feeds.Item{item("Markets rally on rate cut", "https://example.com/rally", 8.0)}

	fresh := c.FilterNew(first, 7.5)
	if len(fresh) != 1 {
		t.Fatalf("expected 1 fresh item in first cycle, got %d", len(fresh))
	}
	c.Record(fresh)

	// Second cycle three hours later, same link.
	c.now = fixedClock(base.Add(3 * time.Hour))
	fresh = c.FilterNew(first, 7.5)
	if len(fresh) != 0 {
		t.Fatalf("expected repeat to be suppressed, got %d items", len(fresh))
	}

	// Past the retention window the item is eligible again.
	c.now = fixedClock(base.Add(25 * time.Hour))
	fresh = c.FilterNew(first, 7.5)
	if len(fresh) != 1 {
		t.Fatalf("expected item to be eligible after retention, got %d", len(fresh))
	}
}

func TestFilterNewMatchesTitleOrLink(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	c := NewCache(0, 0)
	c.now = fixedClock(base)

	c.Record([]feeds.Item{item("Election results announced", "https://a.example/1", 8.5)})

	cases := []struct {
		name string
		in   feeds.Item
		want int
	}{
		{"same title different link", item("Election results announced", "https://b.example/other", 8.0), 0},
		{"same link different title", item("Wahlergebnis verkündet", "https://a.example/1", 8.0), 0},
		{"both different", item("Unrelated summit story", "https://c.example/2", 8.0), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.FilterNew([]feeds.Item{tc.in}, 7.5)
			if len(got) != tc.want {
				t.Errorf("got %d items, want %d", len(got), tc.want)
			}
		})
	}
}

func TestFilterNewThreshold(t *testing.T) {
	c := NewCache(0, 0)
	items := []feeds.Item{
		item("Above threshold", "https://x/1", 7.6),
		item("Below threshold", "https://x/2", 7.4),
	}
	fresh := c.FilterNew(items, 7.5)
	if len(fresh) != 1 || fresh[0].Title != "Above threshold" {
		t.Fatalf("expected only the above-threshold item, got %v", fresh)
	}
}

func TestRecordSkipsLowScores(t *testing.T) {
	c := NewCache(0, 0)
	c.Record([]feeds.Item{
		item("Important", "https://x/1", 7.0),
		item("Mundane", "https://x/2", 6.9),
	})
	if c.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", c.Len())
	}
}

func TestRecordNotCalledKeepsItemEligible(t *testing.T) {
	// Dispatch failed, so Record was never invoked. The item must show
	// up again next cycle.
	c := NewCache(0, 0)
	items := []feeds.Item{item("Server fire at exchange", "https://x/1", 9.0)}

	if got := c.FilterNew(items, 7.5); len(got) != 1 {
		t.Fatalf("first cycle: got %d items", len(got))
	}
	if got := c.FilterNew(items, 7.5); len(got) != 1 {
		t.Fatalf("second cycle without Record: got %d items, want 1", len(got))
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	c := NewCache(5, 0)

	for i := 0; i < 7; i++ {
		c.now = fixedClock(base.Add(time.Duration(i) * time.Minute))
		c.Record([]feeds.Item{item(fmt.Sprintf("Story %d", i), fmt.Sprintf("https://x/%d", i), 8.0)})
	}

	if c.Len() != 5 {
		t.Fatalf("expected cache bounded at 5, got %d", c.Len())
	}

	// Stories 0 and 1 were evicted and are eligible again even though
	// they are well inside the retention window.
	c.now = fixedClock(base.Add(10 * time.Minute))
	got := c.FilterNew([]feeds.Item{item("Story 0", "https://x/0", 8.0)}, 7.5)
	if len(got) != 1 {
		t.Fatalf("expected evicted item to be eligible, got %d", len(got))
	}
	got = c.FilterNew([]feeds.Item{item("Story 6", "https://x/6", 8.0)}, 7.5)
	if len(got) != 0 {
		t.Fatalf("expected retained item to stay suppressed, got %d", len(got))
	}
}

func TestDeepScoreDrivesDedupe(t *testing.T) {
	c := NewCache(0, 0)
	deep := 8.5
	it := feeds.Item{Title: "Analyzed story", Link: "https://x/1", HeuristicScore: 6.0, DeepScore: &deep}

	fresh := c.FilterNew([]feeds.Item{it}, 7.5)
	if len(fresh) != 1 {
		t.Fatal("expected deep score to pass the threshold")
	}
	c.Record(fresh)
	if c.Len() != 1 {
		t.Fatal("expected deep score to pass admission")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	records := []Record{
		{Title: "Old story", Link: "https://x/old", Score: 8.0, SeenAt: base.Add(-30 * time.Hour)},
		{Title: "Recent story", Link: "https://x/new", Score: 9.0, SeenAt: base.Add(-1 * time.Hour)},
	}
	if err := store.Append(records); err != nil {
		t.Fatalf("append: %v", err)
	}

	loaded, err := store.Load(base.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 surviving record, got %d", len(loaded))
	}
	if loaded[0].Title != "Recent story" || loaded[0].Score != 9.0 {
		t.Errorf("unexpected record: %+v", loaded[0])
	}
}

func TestAttachStoreRestoresRecords(t *testing.T) {
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if err := store.Append([]Record{
		{Title: "Persisted story", Link: "https://x/1", Score: 8.0, SeenAt: base.Add(-time.Hour)},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	c := NewCache(0, 0)
	c.now = fixedClock(base)
	c.AttachStore(store)

	got := c.FilterNew([]feeds.Item{item("Persisted story", "https://x/1", 8.0)}, 7.5)
	if len(got) != 0 {
		t.Fatalf("expected restored record to suppress item, got %d", len(got))
	}
}
