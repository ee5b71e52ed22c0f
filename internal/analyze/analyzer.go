package analyze

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/newswatch/newswatch/internal/brain"
	"github.com/newswatch/newswatch/internal/feeds"
	"github.com/newswatch/newswatch/internal/logging"
)

// analysisFailed marks items whose relevance call errored; the heuristic
// score stands in for the deep score.
const analysisFailed = "Fehler bei der Analyse"

// impactFailed marks items whose market-impact call errored.
const impactFailed = "Fehler bei der Aktienanalyse"

// maxConcurrentAnalyses bounds parallel reasoning-service calls. The
// shared limiter still spaces out the actual requests.
const maxConcurrentAnalyses = 3

// maxResponseTokens keeps responses short; the format is two lines.
const maxResponseTokens = 200

// Analyzer refines item scores through a reasoning-service provider.
// All calls go through the shared rate limiter, which the dispatcher
// also uses, so the combined outbound request rate stays bounded.
type Analyzer struct {
	provider   brain.Provider
	limiter    *rate.Limiter
	withImpact bool
}

// New creates an Analyzer. withImpact enables the secondary
// market-impact call per item.
func New(provider brain.Provider, limiter *rate.Limiter, withImpact bool) *Analyzer {
	return &Analyzer{
		provider:   provider,
		limiter:    limiter,
		withImpact: withImpact,
	}
}

// Available reports whether the underlying provider can be called.
func (a *Analyzer) Available() bool {
	return a.provider != nil && a.provider.Available()
}

// AnalyzeBatch deep-analyzes every item in place and returns the slice.
// A single item's failure never aborts the batch: the item falls back to
// its heuristic score with a diagnostic rationale and processing
// continues. Results land at their original indexes, so batch order is
// deterministic regardless of call interleaving.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, items []feeds.Item) []feeds.Item {
	if len(items) == 0 {
		return items
	}

	if !a.Available() {
		logging.Warn("Reasoning service not available, keeping heuristic scores")
		for i := range items {
			score := items[i].HeuristicScore
			items[i].DeepScore = &score
			items[i].Rationale = analysisFailed
		}
		return items
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentAnalyses)

	for i := range items {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			a.analyzeItem(ctx, &items[i])
			return nil // per-item failures already handled
		})
	}
	_ = g.Wait()

	return items
}

// analyzeItem runs the relevance call and, when enabled, the market
// impact call for one item, writing results into the scoring envelope.
func (a *Analyzer) analyzeItem(ctx context.Context, item *feeds.Item) {
	if err := a.limiter.Wait(ctx); err != nil {
		a.fallback(item, err)
		return
	}

	resp, err := a.provider.Generate(ctx, brain.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   relevancePrompt(item),
		MaxTokens:    maxResponseTokens,
	})
	if err != nil {
		a.fallback(item, err)
	} else {
		score, reasoning := parseRelevance(resp.Content)
		item.DeepScore = &score
		item.Rationale = reasoning
		logging.Debug("Item analyzed", "title", item.Title, "score", score)
	}

	if !a.withImpact {
		return
	}

	if err := a.limiter.Wait(ctx); err != nil {
		item.Impact = failedImpact()
		return
	}

	impactResp, err := a.provider.Generate(ctx, brain.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   impactPrompt(item),
		MaxTokens:    maxResponseTokens,
	})
	if err != nil {
		logging.Warn("Market impact analysis failed", "title", item.Title, "error", err)
		item.Impact = failedImpact()
		return
	}

	impact := parseImpact(impactResp.Content)
	item.Impact = &impact
}

// fallback reuses the item's heuristic score when the relevance call
// fails, so the item stays comparable in the merged ranking.
func (a *Analyzer) fallback(item *feeds.Item, err error) {
	logging.Warn("Deep analysis failed", "title", item.Title, "error", err)
	score := item.HeuristicScore
	item.DeepScore = &score
	item.Rationale = analysisFailed
	if a.withImpact {
		item.Impact = failedImpact()
	}
}

func failedImpact() *feeds.MarketImpact {
	return &feeds.MarketImpact{
		Score:     defaultImpactScore,
		Direction: feeds.DirectionNeutral,
		Rationale: impactFailed,
	}
}
