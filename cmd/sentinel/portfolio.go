package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/portfolio"
	"PortfolioSentinel/internal/report"
)

var (
	trackClass        string
	trackGreen        float64
	trackRed          float64
	trackGrey         float64
	trackTarget       float64
	trackPhase        string
	holdShares        float64
	holdCost          float64
	portfolioCurrency string
)

var trackCmd = &cobra.Command{
	Use:   "track <ticker>",
	Short: "Add a security or update its class, price lines and lifecycle tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		sec, ok := a.book.Security(args[0])
		if !ok {
			sec = model.Security{Ticker: args[0]}
		}
		flags := cmd.Flags()
		if flags.Changed("class") {
			sec.AssetClass = model.AssetClass(trackClass)
		}
		if flags.Changed("phase") {
			if trackPhase == "" {
				sec.LifecycleTag = nil
			} else {
				p, err := model.ParseLifecyclePhase(trackPhase)
				if err != nil {
					return err
				}
				sec.LifecycleTag = &p
			}
		}
		lines := []struct {
			flag string
			val  float64
			dst  **float64
		}{
			{"green", trackGreen, &sec.GreenLine},
			{"red", trackRed, &sec.RedLine},
			{"grey", trackGrey, &sec.GreyLine},
			{"target", trackTarget, &sec.PriceTarget},
		}
		for _, l := range lines {
			if !flags.Changed(l.flag) {
				continue
			}
			*l.dst = nil
			if l.val > 0 {
				*l.dst = model.Float(l.val)
			}
		}
		if err := a.book.UpsertSecurity(sec); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tracking %s (%s)\n", portfolio.NormalizeTicker(sec.Ticker), sec.AssetClass)
		return nil
	},
}

var holdCmd = &cobra.Command{
	Use:   "hold <ticker>",
	Short: "Record a position; zero shares removes it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		pos := model.Position{Ticker: args[0], Shares: holdShares, AvgCost: holdCost, CurrentPrice: holdCost}
		if prev := a.book.Position(args[0]); prev != nil && prev.CurrentPrice > 0 {
			pos.CurrentPrice = prev.CurrentPrice
		}
		return a.book.SetPosition(pos)
	},
}

var cashCmd = &cobra.Command{
	Use:   "cash [amount]",
	Short: "Show the portfolio value, or set the uninvested cash balance",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			var amount float64
			if _, err := fmt.Sscanf(args[0], "%g", &amount); err != nil || amount < 0 {
				return fmt.Errorf("invalid cash amount %q", args[0])
			}
			if err := a.book.SetCash(amount); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "portfolio value %s, %d positions\n",
			report.FormatMoney(a.book.TotalValue(), portfolioCurrency), len(a.book.Positions()))
		return nil
	},
}

func init() {
	trackCmd.Flags().StringVar(&trackClass, "class", "", "asset class: core-grower, high-beta-cyclical, binary-outcome or turnaround")
	trackCmd.Flags().Float64Var(&trackGreen, "green", 0, "green line (buy zone ceiling), 0 clears it")
	trackCmd.Flags().Float64Var(&trackRed, "red", 0, "red line (sell zone floor), 0 clears it")
	trackCmd.Flags().Float64Var(&trackGrey, "grey", 0, "grey danger line, 0 clears it")
	trackCmd.Flags().Float64Var(&trackTarget, "target", 0, "price target, 0 clears it")
	trackCmd.Flags().StringVar(&trackPhase, "phase", "", "lifecycle tag: wait-time, upcoming or active-inflection; empty clears it")

	holdCmd.Flags().Float64Var(&holdShares, "shares", 0, "number of shares held")
	holdCmd.Flags().Float64Var(&holdCost, "cost", 0, "average cost per share")
	_ = holdCmd.MarkFlagRequired("shares")

	cashCmd.Flags().StringVar(&portfolioCurrency, "currency", report.DefaultCurrency, "currency code for display")

	rootCmd.AddCommand(trackCmd, holdCmd, cashCmd)
}
