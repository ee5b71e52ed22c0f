// Package pipeline orchestrates one analysis cycle: fetch, score,
// analyze, dedupe, notify.
package pipeline

import (
	"context"

	"github.com/newswatch/newswatch/internal/feeds"
	"github.com/newswatch/newswatch/internal/logging"
	"github.com/newswatch/newswatch/internal/ranking"
	"github.com/newswatch/newswatch/internal/seen"
)

// emergencyScanSize limits the breaking-news check to the newest items.
const emergencyScanSize = 10

// Summary captures the outcome of one cycle.
type Summary struct {
	Fetched        int
	Analyzed       int
	HighPriority   int // effective score >= 8.0
	MediumPriority int // effective score in [7.0, 8.0)
	Notified       int
}

// Observer receives progress callbacks during a cycle. All methods may
// be called from the cycle goroutine; a nil Observer is fine.
type Observer interface {
	StageStart(stage string)
	ItemScored(item feeds.Item, score float64)
	CycleComplete(summary Summary)
}

// Fetcher is the item intake. Implemented by feeds.Fetcher.
type Fetcher interface {
	FetchAll(ctx context.Context) []feeds.Item
}

// Analyzer is the deep-analysis stage. Implemented by analyze.Analyzer.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, items []feeds.Item) []feeds.Item
	Available() bool
}

// Dispatcher sends notifications. Implemented by notify.Dispatcher.
// Notify and NotifyEmergency return the items actually delivered.
type Dispatcher interface {
	Notify(ctx context.Context, items []feeds.Item) []feeds.Item
	NotifyEmergency(ctx context.Context, items []feeds.Item) []feeds.Item
	SendDigest(ctx context.Context, items []feeds.Item) int
}

// Options are the per-cycle thresholds, captured at construction.
type Options struct {
	TopK                  int     // deep-analysis batch size
	NotificationThreshold float64 // per-item push threshold
	EmergencyThreshold    float64 // breaking-news threshold
}

// Pipeline wires the stages of a cycle. Safe to reuse across cycles;
// the scheduler runs them one at a time.
type Pipeline struct {
	fetcher    Fetcher
	analyzer   Analyzer
	dispatcher Dispatcher
	cache      *seen.Cache
	observer   Observer
	opts       Options
}

// New builds a pipeline. observer may be nil.
func New(fetcher Fetcher, analyzer Analyzer, dispatcher Dispatcher, cache *seen.Cache, opts Options, observer Observer) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	return &Pipeline{
		fetcher:    fetcher,
		analyzer:   analyzer,
		dispatcher: dispatcher,
		cache:      cache,
		observer:   observer,
		opts:       opts,
	}
}

// RunFull executes the complete cycle: fetch everything, heuristic-score
// all items, deep-analyze the top candidates, merge, dedupe against the
// recency cache, and push what survives.
func (p *Pipeline) RunFull(ctx context.Context) error {
	items, err := p.scoreAndAnalyze(ctx)
	if err != nil {
		return err
	}

	summary := p.summarize(items)
	summary.Notified = p.dispatch(ctx, items, p.opts.NotificationThreshold, false)

	p.complete(summary)
	return nil
}

// RunEmergency checks only the newest items against the emergency
// threshold using heuristic scores; matches are pushed immediately with
// the breaking-news prefix.
func (p *Pipeline) RunEmergency(ctx context.Context) error {
	p.stage("fetch")
	items := p.fetcher.FetchAll(ctx)
	if len(items) > emergencyScanSize {
		items = items[:emergencyScanSize]
	}

	p.stage("heuristic")
	items = ranking.ScoreAll(items)
	p.observeScores(items)

	var breaking []feeds.Item
	for _, item := range items {
		if item.EffectiveScore() >= p.opts.EmergencyThreshold {
			breaking = append(breaking, item)
		}
	}
	if len(breaking) == 0 {
		logging.Info("Emergency check: nothing breaking", "scanned", len(items))
		return nil
	}
	logging.Warn("Breaking news detected", "count", len(breaking))

	summary := p.summarize(items)
	summary.Notified = p.dispatch(ctx, breaking, p.opts.EmergencyThreshold, true)
	p.complete(summary)
	return nil
}

// RunDigest performs a full scoring cycle and sends the ranked overview
// only. Digest items are not recorded as seen, so the next full run can
// still push them individually.
func (p *Pipeline) RunDigest(ctx context.Context) error {
	items, err := p.scoreAndAnalyze(ctx)
	if err != nil {
		return err
	}

	p.stage("digest")
	p.dispatcher.SendDigest(ctx, items)
	p.complete(p.summarize(items))
	return nil
}

// scoreAndAnalyze is the shared front half: fetch, heuristic pass,
// deep analysis of the top candidates, stable merge.
func (p *Pipeline) scoreAndAnalyze(ctx context.Context) ([]feeds.Item, error) {
	p.stage("fetch")
	items := p.fetcher.FetchAll(ctx)
	if len(items) == 0 {
		logging.Warn("No items fetched")
		return nil, nil
	}

	p.stage("heuristic")
	items = ranking.ScoreAll(items)

	p.stage("analyze")
	topK, rest := ranking.Select(items, p.opts.TopK)
	topK = p.analyzer.AnalyzeBatch(ctx, topK)
	merged := ranking.Merge(topK, rest)
	p.observeScores(merged)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return merged, nil
}

// dispatch filters against the recency cache, pushes, and records only
// the items that were actually delivered. An item whose push failed or
// that fell past the per-cycle cap stays unrecorded and retries next
// cycle.
func (p *Pipeline) dispatch(ctx context.Context, items []feeds.Item, threshold float64, emergency bool) int {
	p.stage("notify")
	fresh := p.cache.FilterNew(items, threshold)
	if len(fresh) == 0 {
		logging.Info("No new items above threshold", "threshold", threshold)
		return 0
	}

	var sent []feeds.Item
	if emergency {
		sent = p.dispatcher.NotifyEmergency(ctx, fresh)
	} else {
		sent = p.dispatcher.Notify(ctx, fresh)
	}
	if len(sent) > 0 {
		p.cache.Record(sent)
	}
	return len(sent)
}

func (p *Pipeline) summarize(items []feeds.Item) Summary {
	s := Summary{Fetched: len(items)}
	for _, item := range items {
		score := item.EffectiveScore()
		if item.DeepScore != nil {
			s.Analyzed++
		}
		switch {
		case score >= 8.0:
			s.HighPriority++
		case score >= 7.0:
			s.MediumPriority++
		}
	}
	return s
}

func (p *Pipeline) complete(summary Summary) {
	logging.Info("Analysis complete",
		"items", summary.Fetched,
		"high_priority", summary.HighPriority,
		"medium_priority", summary.MediumPriority,
		"notified", summary.Notified)
	if p.observer != nil {
		p.observer.CycleComplete(summary)
	}
}

func (p *Pipeline) stage(name string) {
	logging.Debug("Stage start", "stage", name)
	if p.observer != nil {
		p.observer.StageStart(name)
	}
}

func (p *Pipeline) observeScores(items []feeds.Item) {
	if p.observer == nil {
		return
	}
	for _, item := range items {
		p.observer.ItemScored(item, item.EffectiveScore())
	}
}
