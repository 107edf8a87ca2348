package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/report"
)

var (
	alertNote    string
	alertStock   float64
	alertCash    float64
	alertHedge   float64
	alertHistory int
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage the market alert level",
}

var alertSetCmd = &cobra.Command{
	Use:   "set <green|yellow|orange|red>",
	Short: "Open a new market alert, closing the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := model.ParseAlertLevel(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		split, ok := a.cfg.AllocationFor(level)
		if !ok {
			return fmt.Errorf("no allocation configured for alert level %s", level)
		}
		flags := cmd.Flags()
		if flags.Changed("stock") || flags.Changed("cash") || flags.Changed("hedge") {
			split.Stock, split.Cash, split.Hedge = alertStock, alertCash, alertHedge
		}

		opened, err := a.recorder.OpenAlert(model.MarketAlert{
			Level:    level,
			StockPct: split.Stock,
			CashPct:  split.Cash,
			HedgePct: split.Hedge,
			Note:     alertNote,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.FormatAlert(opened))
		return nil
	},
}

var alertShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current market alert",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if alertHistory > 0 {
			alerts, err := a.recorder.AlertHistory(alertHistory)
			if err != nil {
				return err
			}
			fmt.Fprint(out, report.FormatAlertHistory(alerts))
			return nil
		}
		current, err := a.recorder.CurrentAlert()
		if err != nil {
			return err
		}
		fmt.Fprint(out, report.FormatAlert(current))
		return nil
	},
}

func init() {
	alertSetCmd.Flags().StringVar(&alertNote, "note", "", "reason for the change")
	alertSetCmd.Flags().Float64Var(&alertStock, "stock", 0, "stock allocation percent, overriding the level default")
	alertSetCmd.Flags().Float64Var(&alertCash, "cash", 0, "cash allocation percent, overriding the level default")
	alertSetCmd.Flags().Float64Var(&alertHedge, "hedge", 0, "hedge allocation percent, overriding the level default")
	alertShowCmd.Flags().IntVar(&alertHistory, "history", 0, "show the last N alerts instead of the current one")

	alertCmd.AddCommand(alertSetCmd, alertShowCmd)
	rootCmd.AddCommand(alertCmd)
}
