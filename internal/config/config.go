// Package config loads the ambient settings a cursor needs to boot: the
// GLOBAL behavior-registry layering order, provisioning proximity bands,
// and journal channel defaults. Mirrors the teacher's split between a
// viper-backed global config and a direct yaml.v3 LocalConfig reader for
// callers whose working directory changed before viper initialized.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for overrides, e.g.
// TANGL_LOG_LEVEL overrides the log-level key.
const EnvPrefix = "TANGL"

// GlobalConfig is the process-wide configuration layered from defaults,
// an optional YAML file, and TANGL_-prefixed environment variables.
type GlobalConfig struct {
	// BootstrapOrder is the registry layering order, outermost first,
	// that tanglctl's dispatch-dryrun reports in. Defaults to
	// global/system/application/author/local. Cursor does not read it;
	// its step chain order is fixed in cursor.registries.
	BootstrapOrder []string `mapstructure:"bootstrap-order"`

	// ProximityBands is a named set of proximity values loaded from
	// config. The provision package does not read it: DependencyOffers
	// are scored against the fixed 0/5/10/20 bands in calculateProximity.
	ProximityBands map[string]int `mapstructure:"proximity-bands"`

	// JournalChannels are the StreamRegistry channel names a fresh
	// journal should pre-declare (e.g. "render", "plan").
	JournalChannels []string `mapstructure:"journal-channels"`

	// BundleDir is the default external script-loader bundle directory.
	BundleDir string `mapstructure:"bundle-dir"`

	// LogLevel is the tangllog verbosity: debug, info, warn, or error.
	LogLevel string `mapstructure:"log-level"`
}

func defaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		BootstrapOrder:  []string{"global", "system", "application", "author", "local"},
		ProximityBands:  map[string]int{"immediate": 0, "local": 10, "regional": 100, "global": 999},
		JournalChannels: []string{"render", "plan"},
		BundleDir:       "./bundle",
		LogLevel:        "info",
	}
}

// Load builds a GlobalConfig by layering defaults, an optional YAML file
// at path (falling back to the TANGL_CONFIG env var when path is
// empty), and TANGL_-prefixed environment variable overrides. A missing
// config file is not an error — defaults and env vars still apply,
// matching the teacher's "don't error if it doesn't exist" convention
// for optional project config.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := defaultGlobalConfig()
	v.SetDefault("bootstrap-order", def.BootstrapOrder)
	v.SetDefault("proximity-bands", def.ProximityBands)
	v.SetDefault("journal-channels", def.JournalChannels)
	v.SetDefault("bundle-dir", def.BundleDir)
	v.SetDefault("log-level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg GlobalConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
