package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feedrelay/feedrelay/pkg/domain"
)

// Snapshot is the result of one conditional feed fetch. Items keep feed
// order, newest first. ETag and Modified carry the response validators
// when the server provided them; empty values mean "keep what you had".
type Snapshot struct {
	Items       []domain.Item
	NotModified bool
	ETag        string
	Modified    string
}

// Poller fetches the feed over HTTP with conditional caching
// (If-None-Match / If-Modified-Since) and parses it into items.
type Poller struct {
	url       string
	baseURL   string
	client    *http.Client
	parser    *gofeed.Parser
	converter *Converter
	userAgent string
}

// NewPoller creates a poller for the given feed URL. baseURL resolves
// relative item links; timeout bounds the whole fetch+parse.
func NewPoller(feedURL, baseURL string, timeout time.Duration) *Poller {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Poller{
		url:     feedURL,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		parser:    gofeed.NewParser(),
		converter: NewConverter(baseURL),
		userAgent: "feedrelay/1.0",
	}
}

// Poll performs a conditional fetch using the previous validators. A
// 304 response yields an empty snapshot with NotModified set. Transport
// and server errors are returned as errors; the caller treats them as
// "no new items this tick" with validators left unchanged.
func (p *Poller) Poll(ctx context.Context, etag, modified string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if modified != "" {
		req.Header.Set("If-Modified-Since", modified)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	snap := &Snapshot{
		ETag:     resp.Header.Get("ETag"),
		Modified: resp.Header.Get("Last-Modified"),
	}

	switch resp.StatusCode {
	case http.StatusNotModified:
		snap.NotModified = true
		return snap, nil
	case http.StatusOK:
		// fall through to parse
	default:
		return nil, fmt.Errorf("feed %s: unexpected status %d", p.url, resp.StatusCode)
	}

	parsed, err := p.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", p.url, err)
	}

	snap.Items = make([]domain.Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		snap.Items = append(snap.Items, p.converter.Convert(it))
	}
	return snap, nil
}
