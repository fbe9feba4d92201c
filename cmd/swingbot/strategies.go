package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/newthinker/swingbot/internal/strategy/catalog"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKIND\tLOOKBACK\tDESCRIPTION")
		for _, info := range catalog.Default().GetAll() {
			kind := "single"
			if info.Portfolio {
				kind = "portfolio"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", info.Name, kind, info.Lookback, info.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
