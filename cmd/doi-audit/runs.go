// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doi-audit/internal/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded processing runs",
	Long: `Runs lists past process invocations from the local run journal,
newest first: when they started, which files they touched, which
operations were enabled, and how their rows fared.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsCmd.Flags().String("journal", "", "run journal database path (default doi-audit.db)")
	runsCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	j, err := journal.Open(journalPath(cmd))
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-24s  %-10s  %5s  %4s  %6s  %7s\n",
		"ID", "Started", "Input", "Ops", "Rows", "OK", "Failed", "Skipped")
	for _, r := range runs {
		ops := "none"
		switch {
		case r.Retrieve && r.Resolve:
			ops = "both"
		case r.Retrieve:
			ops = "retrieve"
		case r.Resolve:
			ops = "resolve"
		}
		input := r.InputPath
		if len(input) > 24 {
			input = "..." + input[len(input)-21:]
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-24s  %-10s  %5d  %4d  %6d  %7d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), input, ops,
			r.Rows, r.OK, r.Failed, r.Skipped)
	}
	return nil
}
