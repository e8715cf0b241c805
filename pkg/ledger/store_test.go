package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.json"), 100)
	l := s.Load(context.Background())
	require.NotNil(t, l)
	assert.Empty(t, l.LastID)
	assert.Empty(t, l.ETag)
	assert.NotNil(t, l.Sent)
}

func TestStore_LoadCorrupted(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{ garbage"},
		{"wrong shape", `["array", "not", "object"]`},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			l := NewStore(path, 100).Load(context.Background())
			require.NotNil(t, l, "corruption must never halt the pipeline")
			assert.Empty(t, l.LastID)
			assert.NotNil(t, l.Sent)
		})
	}
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path, 100)

	l := New()
	l.LastID = "id-5"
	l.ETag = `"abc123"`
	l.Modified = "Mon, 02 Jan 2006 15:04:05 GMT"
	s.MarkSent(l, "discord", "id-5")
	s.MarkSent(l, "telegram", "id-4")
	s.MarkSent(l, "telegram", "id-5")
	require.NoError(t, s.Save(context.Background(), l))

	loaded := s.Load(context.Background())
	assert.Equal(t, "id-5", loaded.LastID)
	assert.Equal(t, `"abc123"`, loaded.ETag)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", loaded.Modified)
	assert.Equal(t, []string{"id-5"}, loaded.Sent["discord"])
	assert.Equal(t, []string{"id-4", "id-5"}, loaded.Sent["telegram"])
}

func TestStore_SaveTruncatesRings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path, 3)

	l := New()
	l.Sent["discord"] = []string{"a", "b", "c", "d", "e"}
	require.NoError(t, s.Save(context.Background(), l))

	loaded := s.Load(context.Background())
	assert.Equal(t, []string{"c", "d", "e"}, loaded.Sent["discord"])
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "state.json"), 10)
	require.NoError(t, s.Save(context.Background(), New()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestStore_SaveFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path, 10)

	l := New()
	l.LastID = "id-1"
	require.NoError(t, s.Save(context.Background(), l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "last_id")
	assert.Contains(t, raw, "etag")
	assert.Contains(t, raw, "modified")
	assert.Contains(t, raw, "sent")
}

type mirrorMock struct {
	pullData []byte
	pullErr  error
	pushed   [][]byte
	pushErr  error
}

func (m *mirrorMock) Pull(context.Context) ([]byte, error) { return m.pullData, m.pullErr }
func (m *mirrorMock) Push(_ context.Context, data []byte) error {
	m.pushed = append(m.pushed, data)
	return m.pushErr
}

func TestStore_LoadPullsMirrorWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	mirror := &mirrorMock{pullData: []byte(`{"last_id":"id-9","sent":{"discord":["id-9"]}}`)}

	l := NewStore(path, 10).WithMirror(mirror).Load(context.Background())
	assert.Equal(t, "id-9", l.LastID)
	assert.True(t, l.HasSent("discord", "id-9"))

	// mirrored content persisted locally for the next load
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStore_LoadMirrorFailureFallsBackToFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	mirror := &mirrorMock{pullErr: errors.New("gist down")}

	l := NewStore(path, 10).WithMirror(mirror).Load(context.Background())
	require.NotNil(t, l)
	assert.Empty(t, l.LastID)
}

func TestStore_SavePushesMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	mirror := &mirrorMock{}
	s := NewStore(path, 10).WithMirror(mirror)

	l := New()
	l.LastID = "id-3"
	require.NoError(t, s.Save(context.Background(), l))
	require.Len(t, mirror.pushed, 1)
	assert.Contains(t, string(mirror.pushed[0]), "id-3")

	// push failure is logged, not returned
	mirror.pushErr = errors.New("gist down")
	assert.NoError(t, s.Save(context.Background(), l))
}

func TestStore_LocalFilePreferredOverMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_id":"local","sent":{}}`), 0o600))
	mirror := &mirrorMock{pullData: []byte(`{"last_id":"remote","sent":{}}`)}

	l := NewStore(path, 10).WithMirror(mirror).Load(context.Background())
	assert.Equal(t, "local", l.LastID)
}
