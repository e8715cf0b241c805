package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-pkgz/lgr"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// TwitterConfig holds everything the Twitter publisher needs. Posting
// requires an OAuth 1.0a user context, app-only bearer tokens can't
// create tweets.
type TwitterConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
	TweetMax       int
	Timeout        time.Duration
	Retries        int
	RetryDelay     time.Duration
}

// Twitter posts items as tweets through the v2 API.
type Twitter struct {
	TwitterConfig
	client  *http.Client
	baseURL string // overridable in tests
}

// tcoURLLen is what any URL counts for in a tweet after t.co wrapping,
// regardless of its real length.
const tcoURLLen = 23

// NewTwitter creates a Twitter publisher from typed configuration.
func NewTwitter(cfg TwitterConfig) *Twitter {
	if cfg.TweetMax <= 0 {
		cfg.TweetMax = 280
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	oaCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	client := oaCfg.Client(oauth1.NoContext, oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret))
	client.Timeout = cfg.Timeout

	return &Twitter{
		TwitterConfig: cfg,
		client:        client,
		baseURL:       "https://api.twitter.com",
	}
}

// Name implements the publisher contract.
func (t *Twitter) Name() string { return "twitter" }

// Publish delivers one item as a tweet.
func (t *Twitter) Publish(ctx context.Context, item domain.Item) error {
	lgr.Printf("[DEBUG] twitter publish %q", item.Title)

	payload, err := json.Marshal(map[string]string{"text": t.buildText(item)})
	if err != nil {
		return fmt.Errorf("twitter payload: %w", err)
	}

	err = send(ctx, t.client, t.Retries, t.RetryDelay, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/2/tweets", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("twitter send: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (t *Twitter) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// buildText keeps the tweet under TweetMax with the URL budgeted at its
// t.co length, the title gets whatever room remains.
func (t *Twitter) buildText(item domain.Item) string {
	room := t.TweetMax - tcoURLLen - 1
	if room <= 0 {
		return item.URL
	}
	title := Truncate(item.Title, room)
	if item.URL == "" {
		return title
	}
	return title + "\n" + item.URL
}
