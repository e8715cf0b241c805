package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blueskyTestServer(t *testing.T, onRecord func(body map[string]any) int) (*httptest.Server, *int) {
	t.Helper()
	logins := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			logins++
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "user.bsky.social", creds["identifier"])
			w.Write([]byte(`{"accessJwt":"jwt-1","did":"did:plc:abc"}`))
		case "/xrpc/com.atproto.repo.createRecord":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(onRecord(body))
			w.Write([]byte(`{}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	return ts, &logins
}

func TestBluesky_Publish(t *testing.T) {
	var gotRecord map[string]any
	ts, logins := blueskyTestServer(t, func(body map[string]any) int {
		gotRecord = body
		return http.StatusOK
	})
	defer ts.Close()

	b := NewBluesky(BlueskyConfig{Handle: "user.bsky.social", AppPassword: "pw", Retries: 1, RetryDelay: time.Millisecond})
	b.baseURL = ts.URL

	require.NoError(t, b.Publish(context.Background(), testItem()))
	assert.Equal(t, 1, *logins)

	assert.Equal(t, "did:plc:abc", gotRecord["repo"])
	assert.Equal(t, "app.bsky.feed.post", gotRecord["collection"])

	record := gotRecord["record"].(map[string]any)
	text := record["text"].(string)
	assert.Contains(t, text, "Big <News>")
	assert.Contains(t, text, "https://example.com/articles/1")
	assert.NotEmpty(t, record["facets"], "URL must be a clickable facet")

	// session is reused on the second publish
	require.NoError(t, b.Publish(context.Background(), testItem()))
	assert.Equal(t, 1, *logins)
}

func TestBluesky_ReloginOnExpiredSession(t *testing.T) {
	first := true
	ts, logins := blueskyTestServer(t, func(map[string]any) int {
		if first {
			first = false
			return http.StatusUnauthorized
		}
		return http.StatusOK
	})
	defer ts.Close()

	b := NewBluesky(BlueskyConfig{Handle: "user.bsky.social", AppPassword: "pw", Retries: 1, RetryDelay: time.Millisecond})
	b.baseURL = ts.URL

	require.NoError(t, b.Publish(context.Background(), testItem()))
	assert.Equal(t, 2, *logins, "expired session triggers one re-login")
}

func TestBluesky_TextFitsPostMax(t *testing.T) {
	b := NewBluesky(BlueskyConfig{Handle: "u", AppPassword: "p", PostMax: 100})

	item := testItem()
	for i := 0; i < 20; i++ {
		item.Title += " very long title"
	}
	text := b.buildText(item)
	assert.LessOrEqual(t, utf8.RuneCountInString(text), 100)
	assert.Contains(t, text, item.URL, "URL never truncated")

	item.Title = strings.Repeat("längere Überschrift ", 20)
	text = b.buildText(item)
	assert.True(t, utf8.ValidString(text))
	assert.LessOrEqual(t, utf8.RuneCountInString(text), 100)
}

func TestBluesky_URLDominatesPostMax(t *testing.T) {
	b := NewBluesky(BlueskyConfig{Handle: "u", AppPassword: "p", PostMax: 30})

	item := testItem()
	item.URL = "https://example.com/a/very/deep/path"
	text := b.buildText(item)
	assert.Equal(t, item.URL, text, "no room for a title degrades to the bare link")
}

func TestLinkFacets(t *testing.T) {
	facets := linkFacets("read this: https://example.com/a and https://example.com/b")
	require.Len(t, facets, 2)

	idx := facets[0]["index"].(map[string]int)
	assert.Equal(t, len("read this: "), idx["byteStart"])

	assert.Nil(t, linkFacets("no links here"))
}
