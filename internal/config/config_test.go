package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.FeedURLs) != 1 {
		t.Errorf("FeedURLs = %v, want one default feed", cfg.FeedURLs)
	}
	if cfg.MaxArticles != 75 {
		t.Errorf("MaxArticles = %d, want 75", cfg.MaxArticles)
	}
	if cfg.ModelType != "openai" {
		t.Errorf("ModelType = %q, want openai", cfg.ModelType)
	}
	if cfg.NotificationThreshold != 7.5 {
		t.Errorf("NotificationThreshold = %v, want 7.5", cfg.NotificationThreshold)
	}
	if cfg.EmergencyThreshold != 9.5 {
		t.Errorf("EmergencyThreshold = %v, want 9.5", cfg.EmergencyThreshold)
	}
	if cfg.TopK != 10 {
		t.Errorf("TopK = %d, want 10", cfg.TopK)
	}
	if len(cfg.ScheduleTimes) != 6 || cfg.ScheduleTimes[0] != "06:00" || cfg.ScheduleTimes[5] != "21:00" {
		t.Errorf("ScheduleTimes = %v", cfg.ScheduleTimes)
	}
	if cfg.EmergencyInterval != 30*time.Minute {
		t.Errorf("EmergencyInterval = %v, want 30m", cfg.EmergencyInterval)
	}
	if cfg.DigestTime != "08:00" {
		t.Errorf("DigestTime = %q, want 08:00", cfg.DigestTime)
	}
	if cfg.RateLimit != 500*time.Millisecond {
		t.Errorf("RateLimit = %v, want 500ms", cfg.RateLimit)
	}
	if cfg.EnableNotifications {
		t.Error("notifications enabled by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RSS_FEEDS", "https://a.example/rss, https://b.example/rss")
	t.Setenv("AI_MODEL_TYPE", "Ollama")
	t.Setenv("MAX_ARTICLES", "20")
	t.Setenv("STOCK_ANALYSIS", "true")
	t.Setenv("ENABLE_MOBILE_NOTIFICATIONS", "true")
	t.Setenv("PUSHBULLET_API_KEY", "pb-key")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.FeedURLs) != 2 || cfg.FeedURLs[1] != "https://b.example/rss" {
		t.Errorf("FeedURLs = %v", cfg.FeedURLs)
	}
	if cfg.ModelType != "ollama" {
		t.Errorf("ModelType = %q, want ollama (normalized)", cfg.ModelType)
	}
	if cfg.MaxArticles != 20 {
		t.Errorf("MaxArticles = %d, want 20", cfg.MaxArticles)
	}
	if !cfg.StockAnalysis || !cfg.EnableNotifications {
		t.Error("boolean env toggles not applied")
	}
	if cfg.PushbulletKey != "pb-key" {
		t.Errorf("PushbulletKey = %q", cfg.PushbulletKey)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("MAX_ARTICLES", "20")

	cfg, err := Load([]string{"--max-articles", "40"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxArticles != 40 {
		t.Errorf("MaxArticles = %d, want flag value 40", cfg.MaxArticles)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"threshold too high", map[string]string{"NOTIFICATION_THRESHOLD": "11"}},
		{"threshold too low", map[string]string{"EMERGENCY_THRESHOLD": "0.5"}},
		{"bad model type", map[string]string{"AI_MODEL_TYPE": "claude"}},
		{"zero top-k", map[string]string{"MAX_TOP_K": "0"}},
		{"bad schedule time", map[string]string{"SCHEDULE_TIMES": "06:00,25:00"}},
		{"bad digest time", map[string]string{"DIGEST_TIME": "8am"}},
		{"empty feeds", map[string]string{"RSS_FEEDS": " , "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestReloadPicksUpNewEnvironment(t *testing.T) {
	t.Setenv("NOTIFICATION_THRESHOLD", "7.5")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t.Setenv("NOTIFICATION_THRESHOLD", "8.5")
	fresh, err := cfg.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if cfg.NotificationThreshold != 7.5 {
		t.Errorf("original snapshot mutated: %v", cfg.NotificationThreshold)
	}
	if fresh.NotificationThreshold != 8.5 {
		t.Errorf("reload missed new value: %v", fresh.NotificationThreshold)
	}
}
