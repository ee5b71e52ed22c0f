// Package config loads settings from environment variables and flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/newswatch/newswatch/internal/sched"
)

type rawCfg struct {
	// Feed intake
	Feeds       string `long:"feeds" env:"RSS_FEEDS" default:"https://feeds.reuters.com/Reuters/PoliticsNews" description:"Comma-separated RSS feed URLs"`
	MaxArticles int    `long:"max-articles" env:"MAX_ARTICLES" default:"75" description:"Item cap per cycle"`

	// Analysis provider
	ModelType     string `long:"model-type" env:"AI_MODEL_TYPE" default:"openai" description:"Analysis provider: openai or ollama"`
	OpenAIKey     string `long:"openai-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	OpenAIModel   string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-3.5-turbo" description:"OpenAI model name"`
	OllamaBaseURL string `long:"ollama-url" env:"OLLAMA_BASE_URL" default:"http://localhost:11434" description:"Ollama endpoint"`
	OllamaModel   string `long:"ollama-model" env:"OLLAMA_MODEL" default:"llama2" description:"Ollama model name"`
	StockAnalysis bool   `long:"stock-analysis" env:"STOCK_ANALYSIS" description:"Also analyze market impact"`
	RateLimitMS   int    `long:"rate-limit-ms" env:"RATE_LIMIT_MS" default:"500" description:"Delay between outbound calls in milliseconds"`

	// Scoring and notification thresholds
	NotificationThreshold float64 `long:"notification-threshold" env:"NOTIFICATION_THRESHOLD" default:"7.5" description:"Minimum score for a push notification"`
	EmergencyThreshold    float64 `long:"emergency-threshold" env:"EMERGENCY_THRESHOLD" default:"9.5" description:"Minimum score for a breaking-news push"`
	TopK                  int     `long:"top-k" env:"MAX_TOP_K" default:"10" description:"Number of items that get full analysis"`

	// Schedules
	ScheduleTimes    string `long:"schedule-times" env:"SCHEDULE_TIMES" default:"06:00,09:00,12:00,15:00,18:00,21:00" description:"Full-run wall clock times"`
	EmergencyMinutes int    `long:"emergency-interval" env:"EMERGENCY_INTERVAL_MINUTES" default:"30" description:"Minutes between breaking-news checks, 0 disables"`
	DigestTime       string `long:"digest-time" env:"DIGEST_TIME" default:"08:00" description:"Daily digest time, empty disables"`

	// Notifications
	PushbulletKey       string `long:"pushbullet-key" env:"PUSHBULLET_API_KEY" description:"Pushbullet access token"`
	EnableNotifications bool   `long:"enable-notifications" env:"ENABLE_MOBILE_NOTIFICATIONS" description:"Send mobile push notifications"`

	// Persistence
	SeenDB string `long:"seen-db" env:"SEEN_DB" description:"Path to the seen-items sqlite database, empty disables"`
}

// Config is an immutable settings snapshot. Cycles keep the snapshot
// they started with; Reload produces a fresh one.
type Config struct {
	FeedURLs    []string
	MaxArticles int

	ModelType     string
	OpenAIKey     string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string
	StockAnalysis bool
	RateLimit     time.Duration

	NotificationThreshold float64
	EmergencyThreshold    float64
	TopK                  int

	ScheduleTimes     []string
	EmergencyInterval time.Duration
	DigestTime        string

	PushbulletKey       string
	EnableNotifications bool

	SeenDB string

	args []string
}

// Load parses args plus the environment into a validated snapshot.
// Pass os.Args[1:].
func Load(args []string) (*Config, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	cfg := &Config{
		FeedURLs:              splitList(raw.Feeds),
		MaxArticles:           raw.MaxArticles,
		ModelType:             strings.ToLower(strings.TrimSpace(raw.ModelType)),
		OpenAIKey:             raw.OpenAIKey,
		OpenAIModel:           raw.OpenAIModel,
		OllamaBaseURL:         raw.OllamaBaseURL,
		OllamaModel:           raw.OllamaModel,
		StockAnalysis:         raw.StockAnalysis,
		RateLimit:             time.Duration(raw.RateLimitMS) * time.Millisecond,
		NotificationThreshold: raw.NotificationThreshold,
		EmergencyThreshold:    raw.EmergencyThreshold,
		TopK:                  raw.TopK,
		ScheduleTimes:         splitList(raw.ScheduleTimes),
		EmergencyInterval:     time.Duration(raw.EmergencyMinutes) * time.Minute,
		DigestTime:            strings.TrimSpace(raw.DigestTime),
		PushbulletKey:         raw.PushbulletKey,
		EnableNotifications:   raw.EnableNotifications,
		SeenDB:                raw.SeenDB,
		args:                  append([]string(nil), args...),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Reload re-parses the environment with the original args into a new
// snapshot. The receiver is unchanged.
func (c *Config) Reload() (*Config, error) {
	return Load(c.args)
}

func (c *Config) validate() error {
	if len(c.FeedURLs) == 0 {
		return fmt.Errorf("at least one feed URL is required")
	}
	if c.MaxArticles < 1 {
		return fmt.Errorf("max articles must be at least 1, got %d", c.MaxArticles)
	}
	if c.ModelType != "openai" && c.ModelType != "ollama" {
		return fmt.Errorf("unknown model type %q, want openai or ollama", c.ModelType)
	}
	if c.NotificationThreshold < 1 || c.NotificationThreshold > 10 {
		return fmt.Errorf("notification threshold must be in [1,10], got %.1f", c.NotificationThreshold)
	}
	if c.EmergencyThreshold < 1 || c.EmergencyThreshold > 10 {
		return fmt.Errorf("emergency threshold must be in [1,10], got %.1f", c.EmergencyThreshold)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top-k must be at least 1, got %d", c.TopK)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}
	if c.EmergencyInterval < 0 {
		return fmt.Errorf("emergency interval must be non-negative")
	}
	for _, raw := range c.ScheduleTimes {
		if _, err := sched.ParseClockTime(raw); err != nil {
			return fmt.Errorf("schedule time: %w", err)
		}
	}
	if c.DigestTime != "" {
		if _, err := sched.ParseClockTime(c.DigestTime); err != nil {
			return fmt.Errorf("digest time: %w", err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
