// Command tanglctl is a minimal debugging CLI over the engine's core
// packages: dispatch-dryrun, provision-dryrun, journal dump, and graph
// inspect. It is not
// the interactive story-playing REPL (out of scope) — every subcommand
// here operates against a small built-in demo scene, since the engine
// has no on-disk graph serialization format of its own to load from.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/derekmerck/tangl-go/internal/config"
)

var (
	jsonOutput bool
	configPath string
	globalCfg  *config.GlobalConfig
)

var rootCmd = &cobra.Command{
	Use:   "tanglctl",
	Short: "tanglctl - debugging aids for the tangl story-engine core",
	Long: `tanglctl inspects the engine's graph, behavior dispatch, and journal
machinery against a small built-in demo scene. It is a debugging tool,
not a way to play a story — there is no world-bundle loader or REPL here.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("tanglctl: %w", err)
		}
		globalCfg = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a tangl config YAML file (default: $TANGL_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(dispatchDryrunCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
