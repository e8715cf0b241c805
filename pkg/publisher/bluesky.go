package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// BlueskyConfig holds everything the Bluesky publisher needs.
type BlueskyConfig struct {
	Handle      string
	AppPassword string
	PostMax     int
	Timeout     time.Duration
	Retries     int
	RetryDelay  time.Duration
}

// Bluesky posts items via the AT protocol XRPC API. A session is
// created lazily on first publish and refreshed when it expires.
type Bluesky struct {
	BlueskyConfig
	client  *http.Client
	baseURL string // overridable in tests

	mu        sync.Mutex
	accessJWT string
	did       string
}

// NewBluesky creates a Bluesky publisher from typed configuration.
func NewBluesky(cfg BlueskyConfig) *Bluesky {
	if cfg.PostMax <= 0 {
		cfg.PostMax = 300
	}
	return &Bluesky{
		BlueskyConfig: cfg,
		client:        newClient(cfg.Timeout),
		baseURL:       "https://bsky.social",
	}
}

// Name implements the publisher contract.
func (b *Bluesky) Name() string { return "bluesky" }

// Publish delivers one item as a post with a clickable link facet.
func (b *Bluesky) Publish(ctx context.Context, item domain.Item) error {
	lgr.Printf("[DEBUG] bluesky publish %q", item.Title)

	text := b.buildText(item)
	if err := b.createPost(ctx, text); err == nil {
		return nil
	} else if !isAuthErr(err) {
		return fmt.Errorf("bluesky send: %w", err)
	}

	// session expired, re-login once and retry the post
	b.resetSession()
	if err := b.createPost(ctx, text); err != nil {
		return fmt.Errorf("bluesky send after re-login: %w", err)
	}
	return nil
}

// Close releases idle connections.
func (b *Bluesky) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

// buildText keeps the whole post under PostMax: the URL always fits,
// the title gets whatever room remains. A URL leaving no room at all
// degrades the post to the bare link.
func (b *Bluesky) buildText(item domain.Item) string {
	room := b.PostMax - utf8.RuneCountInString(item.URL) - 1
	if room <= 0 {
		return item.URL
	}
	return Truncate(item.Title, room) + "\n" + item.URL
}

func (b *Bluesky) createPost(ctx context.Context, text string) error {
	jwt, did, err := b.session(ctx)
	if err != nil {
		return err
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if facets := linkFacets(text); len(facets) > 0 {
		record["facets"] = facets
	}

	payload, err := json.Marshal(map[string]any{
		"repo":       did,
		"collection": "app.bsky.feed.post",
		"record":     record,
	})
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	return send(ctx, b.client, b.Retries, b.RetryDelay, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			b.baseURL+"/xrpc/com.atproto.repo.createRecord", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+jwt)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// session returns the current access token, logging in if needed.
func (b *Bluesky) session(ctx context.Context) (jwt, did string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.accessJWT != "" {
		return b.accessJWT, b.did, nil
	}

	payload, err := json.Marshal(map[string]string{
		"identifier": b.Handle,
		"password":   b.AppPassword,
	})
	if err != nil {
		return "", "", fmt.Errorf("marshal login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/xrpc/com.atproto.server.createSession", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("login status %d", resp.StatusCode)
	}

	var session struct {
		AccessJwt string `json:"accessJwt"`
		Did       string `json:"did"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", "", fmt.Errorf("decode session: %w", err)
	}

	b.accessJWT = session.AccessJwt
	b.did = session.Did
	return b.accessJWT, b.did, nil
}

func (b *Bluesky) resetSession() {
	b.mu.Lock()
	b.accessJWT, b.did = "", ""
	b.mu.Unlock()
}

func isAuthErr(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized
}

var reURL = regexp.MustCompile(`https?://\S+`)

// linkFacets builds richtext facets marking every URL in text as a
// clickable link. Byte offsets, as the protocol requires.
func linkFacets(text string) []map[string]any {
	var facets []map[string]any
	for _, loc := range reURL.FindAllStringIndex(text, -1) {
		facets = append(facets, map[string]any{
			"index": map[string]int{"byteStart": loc[0], "byteEnd": loc[1]},
			"features": []map[string]any{{
				"$type": "app.bsky.richtext.facet#link",
				"uri":   text[loc[0]:loc[1]],
			}},
		})
	}
	return facets
}
