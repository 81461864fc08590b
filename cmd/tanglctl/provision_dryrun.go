package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derekmerck/tangl-go/internal/provision"
)

var provisionDryrunStep int64

var provisionDryrunCmd = &cobra.Command{
	Use:   "provision-dryrun",
	Short: "Build (without executing) a provisioning plan for the demo cursor's current node",
	Run: func(cmd *cobra.Command, args []string) {
		c := buildDemoCursor()
		pctx := provision.NewProvisioningContext(c.Graph, provisionDryrunStep, 0)
		plan, unresolvedHard, waivedSoft := provision.BuildPlan(pctx, c.At, c.Provisioners)

		steps := plan.Steps()
		if len(steps) == 0 {
			fmt.Println("(no open requirements to plan)")
		}
		for _, step := range steps {
			fmt.Printf("requirement %q:\n", step.Requirement.Label())
			for _, a := range step.Audit {
				mark := " "
				if step.DepOffer != nil && a.ProviderID != nil && step.DepOffer.ProviderID != nil && *a.ProviderID == *step.DepOffer.ProviderID {
					mark = "*"
				}
				fmt.Printf("  %s cost=%-4d proximity=%-4d (%s)\n", mark, a.Cost, a.Proximity, a.ProximityDetail)
			}
		}
		for _, r := range unresolvedHard {
			fmt.Printf("unresolved (hard): %s\n", r.Label())
		}
		for _, r := range waivedSoft {
			fmt.Printf("waived (soft): %s\n", r.Label())
		}
	},
}

func init() {
	provisionDryrunCmd.Flags().Int64Var(&provisionDryrunStep, "step", 1, "Cursor step number to seed the provisioning context's RNG with")
	rootCmd.AddCommand(provisionDryrunCmd)
}
