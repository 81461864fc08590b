package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocalConfig(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		wantAuthor string
		wantDir    string
		wantWatch  bool
	}{
		{name: "empty file"},
		{name: "author only", yaml: "author: river\n", wantAuthor: "river"},
		{
			name:       "full config",
			yaml:       "author: river\nbundle-dir: ./custom\nno-watch: true\n",
			wantAuthor: "river",
			wantDir:    "./custom",
			wantWatch:  true,
		},
		{
			name:       "comment not matched",
			yaml:       "# author: ghost\nauthor: river\n",
			wantAuthor: "river",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if tc.yaml != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "tangl.yaml"), []byte(tc.yaml), 0o600))
			}
			cfg := LoadLocalConfig(dir)
			assert.Equal(t, tc.wantAuthor, cfg.Author)
			assert.Equal(t, tc.wantDir, cfg.BundleDir)
			assert.Equal(t, tc.wantWatch, cfg.NoWatch)
		})
	}
}

func TestLoadLocalConfig_MissingFileReturnsEmpty(t *testing.T) {
	cfg := LoadLocalConfig(t.TempDir())
	assert.Equal(t, &LocalConfig{}, cfg)
}

func TestLoadLocalConfigWithEnv_OverridesAuthor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tangl.yaml"), []byte("author: river\n"), 0o600))
	t.Setenv("TANGL_AUTHOR", "env-author")

	cfg := LoadLocalConfigWithEnv(dir)
	assert.Equal(t, "env-author", cfg.Author)
}

func TestLoadLocalConfigWithEnv_FallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tangl.yaml"), []byte("author: river\n"), 0o600))

	cfg := LoadLocalConfigWithEnv(dir)
	assert.Equal(t, "river", cfg.Author)
}
