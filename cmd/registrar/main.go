package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	guard := newInterruptGuard(cancel, os.Stderr)
	stop := guard.listen(os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:     "registrar",
		Short:   "Pay for an event and complete registration",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./registrar.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "Backend URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Request timeout")

	rootCmd.AddCommand(payCmd(guard))
	rootCmd.AddCommand(resumeCmd(guard))
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(sportsCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
