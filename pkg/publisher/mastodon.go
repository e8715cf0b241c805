package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// MastodonConfig holds everything the Mastodon publisher needs.
type MastodonConfig struct {
	InstanceURL string // e.g. https://mastodon.social
	AccessToken string
	PostMax     int
	Timeout     time.Duration
	Retries     int
	RetryDelay  time.Duration
}

// Mastodon posts items as public statuses via the instance API.
type Mastodon struct {
	MastodonConfig
	client *http.Client
}

// NewMastodon creates a Mastodon publisher from typed configuration.
func NewMastodon(cfg MastodonConfig) *Mastodon {
	if cfg.PostMax <= 0 {
		cfg.PostMax = 500
	}
	cfg.InstanceURL = strings.TrimRight(cfg.InstanceURL, "/")
	return &Mastodon{MastodonConfig: cfg, client: newClient(cfg.Timeout)}
}

// Name implements the publisher contract.
func (m *Mastodon) Name() string { return "mastodon" }

// Publish delivers one item as a status.
func (m *Mastodon) Publish(ctx context.Context, item domain.Item) error {
	lgr.Printf("[DEBUG] mastodon publish %q", item.Title)

	form := url.Values{
		"status":     {Message(item, m.PostMax)},
		"visibility": {"public"},
	}

	err := send(ctx, m.client, m.Retries, m.RetryDelay, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			m.InstanceURL+"/api/v1/statuses", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+m.AccessToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("mastodon send: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (m *Mastodon) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
