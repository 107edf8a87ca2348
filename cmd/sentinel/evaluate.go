package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"PortfolioSentinel/internal/report"
)

var (
	evalPretty  bool
	evalOffline bool
	evalJSON    bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [tickers...]",
	Short: "Evaluate tickers once and print the report",
	Long:  "Evaluate the given tickers, or every tracked security when none are given, and print the batch report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(evalOffline)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		batch, err := a.scheduler.RunBatch(ctx, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if evalJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(batch.Verdicts())
		}
		rendered, err := report.Render(batch.Markdown, evalPretty)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().BoolVar(&evalPretty, "pretty", false, "render the report for the terminal")
	evaluateCmd.Flags().BoolVar(&evalOffline, "offline", false, "skip the market data refresh")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "print the verdicts as JSON")
	rootCmd.AddCommand(evaluateCmd)
}
