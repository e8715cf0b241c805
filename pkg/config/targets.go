package config

import (
	"encoding/json"
	"os"
	"slices"

	"github.com/go-pkgz/lgr"
)

// Targets resolves the set of enabled destinations from a small JSON
// file, re-read on every call so routing can be flipped at runtime
// without a restart. A missing or broken file falls back to the full
// configured set, the safe direction for a delivery pipeline.
type Targets struct {
	path     string
	fallback []string
}

// targetsFile is the on-disk format: {"enabled": ["telegram", "discord"]}
type targetsFile struct {
	Enabled []string `json:"enabled"`
}

// NewTargets makes a targets provider. fallback is the list used when
// the file can't be read, normally every configured destination.
func NewTargets(path string, fallback []string) *Targets {
	return &Targets{path: path, fallback: fallback}
}

// Enabled returns the currently enabled destination names. Names not in
// the fallback set are ignored, they have no configured credentials.
func (t *Targets) Enabled() []string {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			lgr.Printf("[WARN] can't read targets file %s, all destinations enabled: %v", t.path, err)
		}
		return t.fallback
	}

	var tf targetsFile
	if err := json.Unmarshal(data, &tf); err != nil {
		lgr.Printf("[WARN] malformed targets file %s, all destinations enabled: %v", t.path, err)
		return t.fallback
	}

	res := make([]string, 0, len(tf.Enabled))
	for _, name := range tf.Enabled {
		if slices.Contains(t.fallback, name) {
			res = append(res, name)
		} else {
			lgr.Printf("[WARN] targets file enables unknown destination %q, ignored", name)
		}
	}
	return res
}
