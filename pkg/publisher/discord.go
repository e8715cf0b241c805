package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// DiscordConfig holds everything the Discord publisher needs.
type DiscordConfig struct {
	WebhookURL string
	SummaryMax int
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Discord posts items to a channel through an incoming webhook.
type Discord struct {
	DiscordConfig
	client *http.Client
}

// NewDiscord creates a Discord publisher from typed configuration.
func NewDiscord(cfg DiscordConfig) *Discord {
	if cfg.SummaryMax <= 0 {
		cfg.SummaryMax = 1900 // hard API limit is 2000
	}
	return &Discord{DiscordConfig: cfg, client: newClient(cfg.Timeout)}
}

// Name implements the publisher contract.
func (d *Discord) Name() string { return "discord" }

// Publish delivers one item as a plain webhook message.
func (d *Discord) Publish(ctx context.Context, item domain.Item) error {
	lgr.Printf("[DEBUG] discord publish %q", item.Title)
	msg := item
	msg.Title = "**" + item.Title + "**"
	return d.PostText(ctx, Message(msg, d.SummaryMax))
}

// PostText sends a raw text message, used for operator alerts and
// service notices.
func (d *Discord) PostText(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return fmt.Errorf("discord payload: %w", err)
	}

	err = send(ctx, d.client, d.Retries, d.RetryDelay, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (d *Discord) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
