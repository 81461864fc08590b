package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derekmerck/tangl-go/internal/behavior"
	"github.com/derekmerck/tangl-go/internal/cursor"
	"github.com/derekmerck/tangl-go/internal/entity"
)

var dispatchDryrunTask string

var dispatchDryrunCmd = &cobra.Command{
	Use:   "dispatch-dryrun",
	Short: "List which behaviors would match the demo cursor's current node, without invoking any",
	Run: func(cmd *cobra.Command, args []string) {
		c := buildDemoCursor()

		matchedAny := false
		for _, reg := range registriesInBootstrapOrder(c) {
			matched := entity.FilterForSelector(reg.All(), c.At, nil)
			for _, b := range matched {
				if dispatchDryrunTask != "" && !b.HasTask(dispatchDryrunTask) {
					continue
				}
				matchedAny = true
				fmt.Printf("%-10s %s\n", reg.Label(), b.Label())
			}
		}
		if !matchedAny {
			fmt.Println("(no behaviors would match)")
		}
	},
}

func init() {
	dispatchDryrunCmd.Flags().StringVar(&dispatchDryrunTask, "task", "", "Restrict to behaviors matching this task tag")
}

// registriesInBootstrapOrder orders a cursor's registries the way
// config.GlobalConfig.BootstrapOrder names them, or in the cursor's own
// fixed chain order when no config order is set. Names it doesn't
// recognize are skipped.
func registriesInBootstrapOrder(c *cursor.Cursor) []*behavior.Registry {
	byName := map[string]*behavior.Registry{
		"global":      c.Global,
		"system":      c.System,
		"application": c.Application,
		"author":      c.Author,
		"local":       c.Local,
	}
	order := []string{"global", "system", "application", "author", "local"}
	if globalCfg != nil && len(globalCfg.BootstrapOrder) > 0 {
		order = globalCfg.BootstrapOrder
	}
	out := make([]*behavior.Registry, 0, len(order))
	for _, name := range order {
		if reg, ok := byName[name]; ok {
			out = append(out, reg)
		}
	}
	return out
}
