package main

import (
	"fmt"

	"event-registration/paymentflow"

	"github.com/spf13/cobra"
)

func resumeCmd(guard paymentflow.Guard) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Save a registration whose payment was received but not recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runner, err := newFlowRunner(cfg, guard, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := runner.ctl.Init(ctx); err != nil {
				return err
			}
			if runner.ctl.Snapshot().State == paymentflow.Idle {
				fmt.Fprintln(cmd.OutOrStdout(), paymentflow.MsgNothingToVerify)
				return nil
			}
			runner.ctl.RetrySave(ctx)
			return runner.settle(ctx)
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget a pending payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := cfg.sessionStore()
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Pending payment cleared.")
			return nil
		},
	}
}
