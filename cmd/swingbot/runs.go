package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [strategy] [run-id]",
	Short: "List archived runs of a strategy or show one summary",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	log, err := cliLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := newApp(log)
	if err != nil {
		return err
	}
	archive := a.Archive()
	if archive == nil {
		return fmt.Errorf("archive is disabled in the configuration")
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		ids, err := archive.Runs(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	id, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[1], err)
	}
	summary, err := archive.Load(cmd.Context(), args[0], id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
