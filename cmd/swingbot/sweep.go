package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/report"
)

var (
	sweepFlags runFlags
	sweepGrid  []string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [strategy]",
	Short: "Run a strategy over a parameter grid",
	Long: `Run one backtest per combination of --grid values on a single data load.
Example: swingbot sweep momentum --symbols SPY --from 2020-01-01 \
  --grid ema_fast=10,20 --grid ema_slow=50,100`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringSliceVar(&sweepFlags.symbols, "symbols", nil, "Symbols to backtest, comma separated (required)")
	f.StringVar(&sweepFlags.from, "from", "", "Start date YYYY-MM-DD (required)")
	f.StringVar(&sweepFlags.to, "to", "", "End date YYYY-MM-DD (default today)")
	f.StringVar(&sweepFlags.source, "source", "", "Data source override (csv, yahoo, binance)")
	f.StringArrayVarP(&sweepFlags.params, "param", "p", nil, "Fixed strategy parameter key=value (repeatable)")
	f.StringArrayVarP(&sweepGrid, "grid", "g", nil, "Grid axis key=v1,v2,... (repeatable, required)")
	f.BoolVar(&sweepFlags.archive, "archive", false, "Write every successful run to the result archive")

	sweepCmd.MarkFlagRequired("symbols")
	sweepCmd.MarkFlagRequired("from")
	sweepCmd.MarkFlagRequired("grid")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	log, err := cliLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	grid, err := backtest.ParseGrid(sweepGrid)
	if err != nil {
		return err
	}

	a, err := newApp(log)
	if err != nil {
		return err
	}

	req, err := sweepFlags.request(args[0])
	if err != nil {
		return err
	}

	results, err := a.Sweep(cmd.Context(), req, grid)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d combinations on %v\n\n", req.Strategy, len(results), req.Symbols)
	return report.SweepTable(cmd.OutOrStdout(), results)
}
