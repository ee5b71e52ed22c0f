package feeds

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	name  string
	items []Item
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]Item, error) {
	return f.items, f.err
}

func TestFetchAllPreservesSourceOrder(t *testing.T) {
	sources := []Source{
		&fakeSource{name: "a", items: []Item{{Title: "a1"}, {Title: "a2"}}},
		&fakeSource{name: "b", items: []Item{{Title: "b1"}}},
		&fakeSource{name: "c", items: []Item{{Title: "c1"}}},
	}

	f := NewFetcher(sources, 0)
	items := f.FetchAll(context.Background())

	want := []string{"a1", "a2", "b1", "c1"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, title := range want {
		if items[i].Title != title {
			t.Errorf("position %d: expected %q, got %q", i, title, items[i].Title)
		}
	}
}

func TestFetchAllSkipsFailingSource(t *testing.T) {
	sources := []Source{
		&fakeSource{name: "good", items: []Item{{Title: "x"}}},
		&fakeSource{name: "bad", err: errors.New("connection refused")},
		&fakeSource{name: "also-good", items: []Item{{Title: "y"}}},
	}

	f := NewFetcher(sources, 0)
	items := f.FetchAll(context.Background())

	if len(items) != 2 {
		t.Fatalf("expected 2 items from surviving sources, got %d", len(items))
	}
	if items[0].Title != "x" || items[1].Title != "y" {
		t.Errorf("unexpected items: %v", items)
	}
}

func TestFetchAllCapsBatchSize(t *testing.T) {
	var items []Item
	for i := 0; i < 10; i++ {
		items = append(items, Item{Title: "t"})
	}
	f := NewFetcher([]Source{&fakeSource{name: "a", items: items}}, 5)

	got := f.FetchAll(context.Background())
	if len(got) != 5 {
		t.Errorf("expected batch capped at 5, got %d", len(got))
	}
}

func TestEffectiveScore(t *testing.T) {
	item := Item{HeuristicScore: 6.5}
	if s := item.EffectiveScore(); s != 6.5 {
		t.Errorf("expected heuristic score 6.5, got %f", s)
	}

	deep := 8.0
	item.DeepScore = &deep
	if s := item.EffectiveScore(); s != 8.0 {
		t.Errorf("expected deep score 8.0, got %f", s)
	}
}

func TestNormalizeDirection(t *testing.T) {
	cases := map[string]Direction{
		"UP":       DirectionUp,
		"DOWN":     DirectionDown,
		"NEUTRAL":  DirectionNeutral,
		"SIDEWAYS": DirectionNeutral,
		"":         DirectionNeutral,
	}
	for in, want := range cases {
		if got := NormalizeDirection(in); got != want {
			t.Errorf("NormalizeDirection(%q) = %q, want %q", in, got, want)
		}
	}
}
