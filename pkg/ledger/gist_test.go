package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGist_Pull(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/gist-123", r.URL.Path)
		assert.Equal(t, "token tkn", r.Header.Get("Authorization"))
		w.Write([]byte(`{"files":{"relay_state.json":{"content":"{\"last_id\":\"id-1\",\"sent\":{}}"}}}`))
	}))
	defer ts.Close()

	g := NewGist("tkn", "gist-123", "relay_state.json")
	g.baseURL = ts.URL

	data, err := g.Pull(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_id":"id-1","sent":{}}`, string(data))
}

func TestGist_PullMissingFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"files":{"other.json":{"content":"{}"}}}`))
	}))
	defer ts.Close()

	g := NewGist("tkn", "gist-123", "relay_state.json")
	g.baseURL = ts.URL

	_, err := g.Pull(context.Background())
	assert.Error(t, err)
}

func TestGist_PullBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	g := NewGist("tkn", "gist-123", "relay_state.json")
	g.baseURL = ts.URL

	_, err := g.Pull(context.Background())
	assert.Error(t, err)
}

func TestGist_Push(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/gist-123", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	g := NewGist("tkn", "gist-123", "relay_state.json")
	g.baseURL = ts.URL

	require.NoError(t, g.Push(context.Background(), []byte(`{"last_id":"id-2"}`)))

	var payload struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, `{"last_id":"id-2"}`, payload.Files["relay_state.json"].Content)
}

func TestGist_PushBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	g := NewGist("tkn", "gist-123", "relay_state.json")
	g.baseURL = ts.URL

	assert.Error(t, g.Push(context.Background(), []byte(`{}`)))
}
