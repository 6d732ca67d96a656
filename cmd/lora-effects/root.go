package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "lora-effects",
		Short:         "Inspect and merge bitemporal LoRa registrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Must run before the configuration is first used.
			if logLevel != "" {
				return os.Setenv("LOG_LEVEL", logLevel)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "silent|error|warn|info|debug (default: LOG_LEVEL)")

	cmd.AddCommand(newEffectsCmd())
	cmd.AddCommand(newValidateRangeCmd())
	cmd.AddCommand(newMergeCmd())
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorLine(err))
		os.Exit(exitCode(err))
	}
}
