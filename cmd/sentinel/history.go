package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PortfolioSentinel/internal/portfolio"
	"PortfolioSentinel/internal/report"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <ticker>",
	Short: "Show the recorded verdicts of a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ticker := portfolio.NormalizeTicker(args[0])
		records, err := a.recorder.VerdictHistory(ticker, historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.FormatVerdictHistory(ticker, records))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of verdicts to show")
	rootCmd.AddCommand(historyCmd)
}
