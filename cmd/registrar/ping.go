package main

import (
	"fmt"
	"text/tabwriter"

	"event-registration/client"

	"github.com/spf13/cobra"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Wait until the backend is awake",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			api := cfg.apiClient()
			fmt.Fprintf(cmd.OutOrStdout(), "Waiting for %s ...\n", api.ServerRoot())
			if !client.NewProber(api).EnsureReady(cmd.Context(), cfg.ReadyWait) {
				return fmt.Errorf("backend not ready after %s", cfg.ReadyWait)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Backend is ready.")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [orderId]",
		Short: "Show the status of a payment order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			resp, err := cfg.apiClient().PaymentStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Order:\t%s\n", resp.OrderID)
			fmt.Fprintf(w, "Status:\t%s\n", resp.Status)
			fmt.Fprintf(w, "Amount:\t%.2f %s\n", resp.Amount, resp.Currency)
			fmt.Fprintf(w, "Sport:\t%s\n", resp.SportName)
			if resp.RegistrationID != "" {
				fmt.Fprintf(w, "Registration:\t%s\n", resp.RegistrationID)
			}
			return w.Flush()
		},
	}
}

func sportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sports",
		Short: "List the sports open for registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sports, err := cfg.apiClient().Sports(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tTEAM\tFEE")
			for _, s := range sports {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n", s.ID, s.Name, s.Category, s.TeamSize, s.Fee)
			}
			return w.Flush()
		},
	}
}
