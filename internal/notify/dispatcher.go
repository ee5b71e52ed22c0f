package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/newswatch/newswatch/internal/feeds"
	"github.com/newswatch/newswatch/internal/logging"
	"github.com/newswatch/newswatch/internal/ranking"
)

// maxNotificationsPerCycle caps the per-item pushes of a single cycle.
// The digest still covers everything.
const maxNotificationsPerCycle = 10

// digestChunkLines is the number of overview lines per digest note.
// Pushbullet truncates long bodies.
const digestChunkLines = 25

// Dispatcher sends per-item pushes and digests, rate limited.
type Dispatcher struct {
	client  *Client
	enabled bool
	limiter *rate.Limiter
	now     func() time.Time
}

// NewDispatcher wires the dispatcher. The limiter is shared with the
// analyzer so all outbound calls observe the same pacing.
func NewDispatcher(client *Client, enabled bool, limiter *rate.Limiter) *Dispatcher {
	return &Dispatcher{
		client:  client,
		enabled: enabled,
		limiter: limiter,
		now:     time.Now,
	}
}

// Notify pushes one link notification per item, preceded by a timestamp
// note. Items must already be filtered to the notification threshold.
// Failures are logged and skipped; the returned slice holds exactly the
// items whose push succeeded, so callers can record those and no others.
func (d *Dispatcher) Notify(ctx context.Context, items []feeds.Item) []feeds.Item {
	return d.notify(ctx, items, false)
}

// NotifyEmergency is Notify with a breaking-news title prefix. The
// caller applies the emergency threshold.
func (d *Dispatcher) NotifyEmergency(ctx context.Context, items []feeds.Item) []feeds.Item {
	return d.notify(ctx, items, true)
}

func (d *Dispatcher) notify(ctx context.Context, items []feeds.Item, emergency bool) []feeds.Item {
	if !d.ready() || len(items) == 0 {
		return nil
	}

	now := d.now()
	timestamp := fmt.Sprintf("📰 Hier kommen die Nachrichten vom %s um %s Uhr:",
		now.Format("02.01.2006"), now.Format("15:04"))
	if err := d.send(ctx, func() error {
		return d.client.PushNote(ctx, "📅 News-Update", timestamp)
	}); err != nil {
		logging.Warn("Failed to send timestamp note", "error", err)
	}

	var sent []feeds.Item
	for _, item := range items {
		if len(sent) >= maxNotificationsPerCycle {
			logging.Info("Notification cap reached, remaining items go to the digest",
				"skipped", len(items)-len(sent))
			break
		}

		title := "📰 " + item.Title
		if emergency {
			title = "🚨 BREAKING: " + item.Title
		}

		err := d.send(ctx, func() error {
			return d.client.PushLink(ctx, title, itemBody(item), item.Link)
		})
		if err != nil {
			logging.Warn("Failed to send notification", "title", item.Title, "error", err)
			continue
		}
		sent = append(sent, item)
		logging.Info("Notification sent", "title", item.Title, "score", item.EffectiveScore())
	}
	return sent
}

// SendDigest pushes a ranked overview of all items as note chunks.
// A failed chunk is logged and skipped; the remaining chunks still go
// out. Returns the number of chunks delivered.
func (d *Dispatcher) SendDigest(ctx context.Context, items []feeds.Item) int {
	if !d.ready() {
		return 0
	}

	lines := []string{"📊 Alle Artikel im Überblick:", ""}
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%2d. [%.1f] %s %s",
			i+1, item.EffectiveScore(), scoreTier(item.EffectiveScore()), item.Title))
	}

	part := 0
	sent := 0
	for start := 0; start < len(lines); start += digestChunkLines {
		end := start + digestChunkLines
		if end > len(lines) {
			end = len(lines)
		}
		part++

		title := fmt.Sprintf("📋 Artikel-Übersicht (Teil %d)", part)
		body := strings.Join(lines[start:end], "\n")
		if err := d.send(ctx, func() error {
			return d.client.PushNote(ctx, title, body)
		}); err != nil {
			logging.Warn("Failed to send digest part", "part", part, "error", err)
			continue
		}
		sent++
		logging.Info("Digest part sent", "part", part)
	}
	return sent
}

// ready performs the one-time enabled/credential check for a call.
// Disabled or unconfigured dispatchers never touch the network.
func (d *Dispatcher) ready() bool {
	if !d.enabled {
		logging.Debug("Notifications disabled")
		return false
	}
	if d.client == nil || !d.client.Configured() {
		logging.Warn("Notifications enabled but no Pushbullet API key configured")
		return false
	}
	return true
}

func (d *Dispatcher) send(ctx context.Context, push func() error) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return push()
}

// itemBody builds the notification body: score, clipped description,
// rationale unless the item only got the heuristic pass, and the market
// take when present.
func itemBody(item feeds.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score: %.1f/10\n%s", item.EffectiveScore(), clip(item.Description, 200))

	if item.Rationale != "" && !strings.Contains(item.Rationale, ranking.HeuristicOnlyRationale) {
		fmt.Fprintf(&b, "\n\nBegründung: %s", clip(item.Rationale, 150))
	}
	if item.Impact != nil && item.Impact.Score > 1.0 {
		fmt.Fprintf(&b, "\n\n📈 Börse: %.1f/10 %s", item.Impact.Score, item.Impact.Direction)
		if len(item.Impact.Stocks) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(item.Impact.Stocks, ", "))
		}
	}
	return b.String()
}

func scoreTier(score float64) string {
	switch {
	case score >= 9:
		return "🔴"
	case score >= 8:
		return "🟡"
	case score >= 7:
		return "🟢"
	default:
		return "🔵"
	}
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
