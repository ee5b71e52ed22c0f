package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/newswatch/newswatch/internal/analyze"
	"github.com/newswatch/newswatch/internal/brain"
	"github.com/newswatch/newswatch/internal/config"
	"github.com/newswatch/newswatch/internal/feeds"
	"github.com/newswatch/newswatch/internal/feeds/rss"
	"github.com/newswatch/newswatch/internal/logging"
	"github.com/newswatch/newswatch/internal/notify"
	"github.com/newswatch/newswatch/internal/pipeline"
	"github.com/newswatch/newswatch/internal/sched"
	"github.com/newswatch/newswatch/internal/seen"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// Mode flags are stripped before config parsing so go-flags only
	// sees its own options.
	var once, digestOnly bool
	var rest []string
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--once":
			once = true
		case "--digest":
			digestOnly = true
		default:
			rest = append(rest, arg)
		}
	}

	cfg, err := config.Load(rest)
	if err != nil {
		return err
	}

	if err := logging.Init(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, cleanup, err := buildCache(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	p := buildPipeline(cfg, cache)

	switch {
	case once:
		logging.Info("Running single full cycle")
		return p.RunFull(ctx)
	case digestOnly:
		logging.Info("Running single digest cycle")
		return p.RunDigest(ctx)
	}

	runner := &reloadableRunner{current: p}
	go watchReload(ctx, cfg, cache, runner)

	scheduler, err := sched.New(runner, sched.Config{
		FullRunTimes:      cfg.ScheduleTimes,
		EmergencyInterval: cfg.EmergencyInterval,
		DigestTime:        cfg.DigestTime,
	})
	if err != nil {
		return err
	}

	if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// reloadableRunner lets SIGHUP swap the pipeline under the scheduler.
// Jobs run synchronously in the scheduler loop, so a swap takes effect
// at the next cycle boundary.
type reloadableRunner struct {
	mu      sync.Mutex
	current sched.Runner
}

func (r *reloadableRunner) runner() sched.Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *reloadableRunner) swap(next sched.Runner) {
	r.mu.Lock()
	r.current = next
	r.mu.Unlock()
}

func (r *reloadableRunner) RunFull(ctx context.Context) error      { return r.runner().RunFull(ctx) }
func (r *reloadableRunner) RunEmergency(ctx context.Context) error { return r.runner().RunEmergency(ctx) }
func (r *reloadableRunner) RunDigest(ctx context.Context) error    { return r.runner().RunDigest(ctx) }

// watchReload rebuilds the pipeline from a fresh config snapshot on
// SIGHUP. The seen cache carries over so dedupe state survives a
// reload; schedule cadence changes still need a restart.
func watchReload(ctx context.Context, cfg *config.Config, cache *seen.Cache, runner *reloadableRunner) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			fresh, err := cfg.Reload()
			if err != nil {
				logging.Warn("Config reload failed, keeping current settings", "error", err)
				continue
			}
			runner.swap(buildPipeline(fresh, cache))
			cfg = fresh
			logging.Info("Configuration reloaded")
		}
	}
}

// buildCache creates the recency cache, with sqlite persistence when
// configured.
func buildCache(cfg *config.Config) (*seen.Cache, func(), error) {
	cache := seen.NewCache(0, 0)
	if cfg.SeenDB == "" {
		return cache, func() {}, nil
	}

	store, err := seen.OpenStore(cfg.SeenDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open seen store: %w", err)
	}
	cache.AttachStore(store)
	return cache, func() { store.Close() }, nil
}

// buildPipeline wires the per-cycle components from a config snapshot.
func buildPipeline(cfg *config.Config, cache *seen.Cache) *pipeline.Pipeline {
	var sources []feeds.Source
	for _, url := range cfg.FeedURLs {
		sources = append(sources, rss.New(url))
	}
	fetcher := feeds.NewFetcher(sources, cfg.MaxArticles)

	var provider brain.Provider
	switch cfg.ModelType {
	case "ollama":
		provider = brain.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel)
	default:
		provider = brain.NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel)
	}

	// One limiter paces all outbound calls, analysis and pushes alike.
	limiter := rate.NewLimiter(rate.Every(cfg.RateLimit), 1)
	analyzer := analyze.New(provider, limiter, cfg.StockAnalysis)

	dispatcher := notify.NewDispatcher(
		notify.NewClient(cfg.PushbulletKey),
		cfg.EnableNotifications,
		limiter,
	)

	return pipeline.New(fetcher, analyzer, dispatcher, cache, pipeline.Options{
		TopK:                  cfg.TopK,
		NotificationThreshold: cfg.NotificationThreshold,
		EmergencyThreshold:    cfg.EmergencyThreshold,
	}, nil)
}
