// Package notify sends mobile push notifications via Pushbullet.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.pushbullet.com/v2/pushes"

// Client is a minimal Pushbullet pushes client.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient creates a client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type pushRequest struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// PushNote sends a plain note push.
func (c *Client) PushNote(ctx context.Context, title, body string) error {
	return c.push(ctx, pushRequest{Type: "note", Title: title, Body: body})
}

// PushLink sends a link push pointing at url.
func (c *Client) PushLink(ctx context.Context, title, body, url string) error {
	return c.push(ctx, pushRequest{Type: "link", Title: title, Body: body, URL: url})
}

func (c *Client) push(ctx context.Context, push pushRequest) error {
	payload, err := json.Marshal(push)
	if err != nil {
		return fmt.Errorf("marshal push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Access-Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushbullet returned status %d", resp.StatusCode)
	}
	return nil
}
