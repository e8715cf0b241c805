package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pkgz/lgr"
)

// Mirror replicates the raw ledger JSON to a remote location so the
// delivery state survives re-deployments that lose the local disk.
type Mirror interface {
	Pull(ctx context.Context) ([]byte, error)
	Push(ctx context.Context, data []byte) error
}

// Store persists the ledger as a single JSON file, written atomically.
// Exactly one process instance is assumed to own the file, so no
// external locking is used.
type Store struct {
	path     string
	ringSize int
	mirror   Mirror
}

// NewStore creates a ledger store. ringSize bounds each destination's
// sent ring on save.
func NewStore(path string, ringSize int) *Store {
	return &Store{path: path, ringSize: ringSize}
}

// WithMirror attaches an optional remote mirror. Pull is attempted when
// the local file is missing, push happens best-effort after each save.
func (s *Store) WithMirror(m Mirror) *Store {
	s.mirror = m
	return s
}

// Load reads the persisted ledger. A missing file yields a fresh empty
// ledger (after trying the mirror, if any). Malformed content is logged
// and replaced with a fresh ledger: corruption must never halt the
// pipeline, the worst outcome is a cold start.
func (s *Store) Load(ctx context.Context) *Ledger {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if pulled := s.pullMirror(ctx); pulled != nil {
			return pulled
		}
		return New()
	}
	if err != nil {
		lgr.Printf("[WARN] can't read ledger %s, starting fresh: %v", s.path, err)
		return New()
	}

	res, err := decode(data)
	if err != nil {
		lgr.Printf("[WARN] corrupted ledger %s, starting fresh: %v", s.path, err)
		return New()
	}
	return res
}

// Save truncates every sent ring and writes the ledger via a temp file
// and atomic rename, so a crash never leaves a partial ledger behind.
func (s *Store) Save(ctx context.Context, l *Ledger) error {
	l.Truncate(s.ringSize)

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("write ledger %s: %w", s.path, err)
	}

	if s.mirror != nil {
		if err := s.mirror.Push(ctx, data); err != nil {
			lgr.Printf("[WARN] ledger mirror push failed: %v", err)
		}
	}
	return nil
}

// MarkSent records a confirmed delivery in the ledger using the store's
// configured ring size.
func (s *Store) MarkSent(l *Ledger, destination, id string) {
	l.MarkSent(destination, id, s.ringSize)
}

func (s *Store) pullMirror(ctx context.Context) *Ledger {
	if s.mirror == nil {
		return nil
	}
	data, err := s.mirror.Pull(ctx)
	if err != nil {
		lgr.Printf("[WARN] ledger mirror pull failed: %v", err)
		return nil
	}
	res, err := decode(data)
	if err != nil {
		lgr.Printf("[WARN] ledger mirror content invalid: %v", err)
		return nil
	}
	lgr.Printf("[INFO] ledger restored from mirror, cursor %q", res.LastID)
	if err := atomicWrite(s.path, data); err != nil {
		lgr.Printf("[WARN] can't persist mirrored ledger locally: %v", err)
	}
	return res
}

func decode(data []byte) (*Ledger, error) {
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	if l.Sent == nil {
		l.Sent = map[string][]string{}
	}
	return &l, nil
}

// atomicWrite publishes data to path with write-to-temp-then-rename
// semantics. On any failure the temp file is removed and the original
// file is left untouched.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
