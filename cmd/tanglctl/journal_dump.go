package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derekmerck/tangl-go/internal/cursor"
	"github.com/derekmerck/tangl-go/internal/journal"
)

var journalDumpSteps int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the demo cursor's journal",
}

var journalDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Step the demo cursor and dump the resulting journal records",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := buildDemoCursor()
		for i := 0; i < journalDumpSteps; i++ {
			if err := c.Step(context.Background()); err != nil {
				return fmt.Errorf("tanglctl: step %d: %w", i+1, err)
			}
		}

		records := c.Journal.GetSlice(1, c.Journal.MaxSeq(), nil)
		if jsonOutput {
			type line struct {
				Seq        int64  `json:"seq"`
				RecordType string `json:"record_type"`
			}
			out := make([]line, 0, len(records))
			for _, r := range records {
				out = append(out, line{Seq: r.SeqValue(), RecordType: recordTypeOf(r)})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		for _, r := range records {
			fmt.Printf("%4d  %s\n", r.SeqValue(), recordTypeOf(r))
			if f, ok := r.(*cursor.Fragment); ok {
				fmt.Printf("      %v\n", f.Payload)
			}
		}
		return nil
	},
}

func init() {
	journalDumpCmd.Flags().IntVar(&journalDumpSteps, "steps", 3, "Number of cursor steps to run before dumping")
	journalCmd.AddCommand(journalDumpCmd)
}

func recordTypeOf(r journal.Recordish) string {
	typed, ok := r.(interface{ HasRecordType(any) bool })
	if !ok {
		return "record"
	}
	for _, t := range []string{"call_receipt", "planning_receipt", "fragment"} {
		if typed.HasRecordType(t) {
			return t
		}
	}
	return "record"
}
