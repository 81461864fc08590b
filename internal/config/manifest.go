package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// WorldManifest is a read-only descriptor of a loaded script bundle —
// the id/version/author metadata an external Script loader's bundle
// carries alongside its templates (§6), cached so a Cursor doesn't
// re-parse it on every lookup.
type WorldManifest struct {
	ID      string `toml:"id"`
	Version string `toml:"version"`
	Author  string `toml:"author"`
	Title   string `toml:"title"`
}

// LoadWorldManifest reads manifest.toml from bundleDir.
func LoadWorldManifest(bundleDir string) (*WorldManifest, error) {
	path := filepath.Join(bundleDir, "manifest.toml")
	data, err := os.ReadFile(path) // #nosec G304 - path from caller-supplied bundle dir
	if err != nil {
		return nil, fmt.Errorf("config: read manifest: %w", err)
	}
	var m WorldManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: decode manifest: %w", err)
	}
	return &m, nil
}
