package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mcqgen/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent quiz generation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.EventRepo().QueryQuizRuns(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No quiz runs found.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-8s  %-24s  %-12s  %4s  %4s  %4s  %4s  %3s  %-8s\n",
			"Timestamp", "Run", "Model", "Tone", "Req", "Got", "Bad", "Rej", "Att", "Outcome")
		fmt.Fprintln(out, strings.Repeat("─", 104))

		for _, r := range runs {
			fmt.Fprintf(out, "%-19s  %-8s  %-24s  %-12s  %4d  %4d  %4d  %4d  %3d  %-8s\n",
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(r.RunID, 8),
				truncate(r.Model, 24),
				r.Tone,
				r.Requested,
				r.Produced,
				r.Malformed,
				r.Rejected,
				r.Attempts,
				r.Outcome,
			)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
}
