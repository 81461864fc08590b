package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWorldManifest(t *testing.T) {
	dir := t.TempDir()
	toml := "id = \"riverside-keep\"\nversion = \"0.3.1\"\nauthor = \"river\"\ntitle = \"Riverside Keep\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.toml"), []byte(toml), 0o600))

	m, err := LoadWorldManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "riverside-keep", m.ID)
	assert.Equal(t, "0.3.1", m.Version)
	assert.Equal(t, "river", m.Author)
	assert.Equal(t, "Riverside Keep", m.Title)
}

func TestLoadWorldManifest_MissingFileErrors(t *testing.T) {
	_, err := LoadWorldManifest(t.TempDir())
	assert.Error(t, err)
}

func TestLoadWorldManifest_InvalidTomlErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.toml"), []byte("not = [valid"), 0o600))

	_, err := LoadWorldManifest(dir)
	assert.Error(t, err)
}
