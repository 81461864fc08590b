package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of a bundle's tangl.yaml worth reading
// directly rather than through the viper singleton — useful once the
// cwd has moved since Load ran, or before it has run at all.
type LocalConfig struct {
	Author    string `yaml:"author"`
	BundleDir string `yaml:"bundle-dir"`
	NoWatch   bool   `yaml:"no-watch"`
}

// LoadLocalConfig reads and parses tangl.yaml directly from dir.
// Returns an empty LocalConfig (never nil) if the file doesn't exist or
// can't be parsed — callers treat a missing local override the same as
// an absent one.
func LoadLocalConfig(dir string) *LocalConfig {
	path := filepath.Join(dir, "tangl.yaml")
	data, err := os.ReadFile(path) // #nosec G304 - path from caller-supplied bundle dir
	if err != nil {
		return &LocalConfig{}
	}
	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalConfigWithEnv reads tangl.yaml and applies TANGL_AUTHOR as an
// override, taking precedence over the file value.
func LoadLocalConfigWithEnv(dir string) *LocalConfig {
	cfg := LoadLocalConfig(dir)
	if author := os.Getenv("TANGL_AUTHOR"); author != "" {
		cfg.Author = author
	}
	return cfg
}
