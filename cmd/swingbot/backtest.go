package main

import (
	"github.com/spf13/cobra"

	"github.com/newthinker/swingbot/internal/report"
)

var (
	backtestFlags runFlags
	backtestSplit bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Run a backtest of one strategy",
	Long: `Run a strategy against historical bars and show performance statistics.
Use --split to run a single-instrument strategy once per symbol with an
equal share of the capital.`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringSliceVar(&backtestFlags.symbols, "symbols", nil, "Symbols to backtest, comma separated (required)")
	f.StringVar(&backtestFlags.from, "from", "", "Start date YYYY-MM-DD (required)")
	f.StringVar(&backtestFlags.to, "to", "", "End date YYYY-MM-DD (default today)")
	f.StringVar(&backtestFlags.source, "source", "", "Data source override (csv, yahoo, binance)")
	f.StringArrayVarP(&backtestFlags.params, "param", "p", nil, "Strategy parameter key=value (repeatable)")
	f.BoolVar(&backtestFlags.benchmark, "benchmark", false, "Compare against equal-weight buy and hold")
	f.BoolVar(&backtestFlags.archive, "archive", false, "Write the run to the result archive")
	f.BoolVar(&backtestSplit, "split", false, "Run per symbol and sum the legs")

	backtestCmd.MarkFlagRequired("symbols")
	backtestCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log, err := cliLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := newApp(log)
	if err != nil {
		return err
	}

	req, err := backtestFlags.request(args[0])
	if err != nil {
		return err
	}
	req.Split = backtestSplit

	res, err := a.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	return report.Text(cmd.OutOrStdout(), res)
}
