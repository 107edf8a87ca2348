package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runNow bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled evaluation until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a.scheduler.Publish = func(md string) { fmt.Fprintln(cmd.OutOrStdout(), md) }
		if err := a.scheduler.Register(ctx, a.cfg.Schedule.EvaluateCron); err != nil {
			return err
		}
		a.scheduler.Start()
		defer a.scheduler.Stop()

		if runNow || os.Getenv("RUN_ON_START") == "true" {
			a.log.Info().Msg("running evaluation on start")
			go func() {
				if _, err := a.scheduler.RunBatch(ctx, nil); err != nil {
					a.log.Error().Err(err).Msg("evaluation on start failed")
				}
			}()
		}

		a.log.Info().Str("cron", a.cfg.Schedule.EvaluateCron).Msg("sentinel is running, press Ctrl+C to stop")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		a.log.Info().Msg("shutdown signal received, stopping")
		cancel()
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runNow, "now", false, "evaluate once immediately after starting")
	rootCmd.AddCommand(runCmd)
}
