package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const gistAPI = "https://api.github.com/gists"

// Gist mirrors the ledger JSON into a single file of a GitHub Gist.
// Needs a personal access token with the gist scope and an existing
// gist ID. All operations are best-effort from the caller's point of
// view; errors are returned but never fatal to dispatch.
type Gist struct {
	token    string
	gistID   string
	fileName string
	client   *http.Client
	baseURL  string // overridable in tests
}

// NewGist creates a gist mirror storing the ledger under fileName.
func NewGist(token, gistID, fileName string) *Gist {
	return &Gist{
		token:    token,
		gistID:   gistID,
		fileName: fileName,
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  gistAPI,
	}
}

// Pull fetches the mirrored ledger content from the gist.
func (g *Gist) Pull(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+g.gistID, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create gist request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gist fetch status %d", resp.StatusCode)
	}

	var gist struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return nil, fmt.Errorf("decode gist response: %w", err)
	}

	f, ok := gist.Files[g.fileName]
	if !ok {
		return nil, fmt.Errorf("gist has no file %q", g.fileName)
	}
	return []byte(f.Content), nil
}

// Push uploads the ledger content to the gist file.
func (g *Gist) Push(ctx context.Context, data []byte) error {
	payload, err := json.Marshal(map[string]any{
		"files": map[string]any{
			g.fileName: map[string]string{"content": string(data)},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal gist payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, g.baseURL+"/"+g.gistID, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create gist request: %w", err)
	}
	g.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("update gist: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gist update status %d", resp.StatusCode)
	}
	return nil
}

func (g *Gist) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "feedrelay/1.0")
}
