package main

import (
	"fmt"
	"os"
	"path/filepath"

	"event-registration/models"
	"event-registration/paymentflow"

	"github.com/spf13/cobra"
)

func payCmd(guard paymentflow.Guard) *cobra.Command {
	var form models.RegistrationForm
	var sportID, photo string

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Register for a sport and pay the fee",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sport, err := cfg.sport(sportID)
			if err != nil {
				remote, rerr := cfg.apiClient().Sport(cmd.Context(), sportID)
				if rerr != nil {
					return err
				}
				sport = *remote
			}

			var doc *paymentflow.Document
			if photo != "" {
				f, err := os.Open(photo)
				if err != nil {
					return fmt.Errorf("open photo: %w", err)
				}
				doc, err = paymentflow.ReadDocument(filepath.Base(photo), f)
				f.Close()
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			runner, err := newFlowRunner(cfg, guard, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// a proof left by an earlier run must be saved before paying again
			if err := runner.ctl.Init(ctx); err != nil {
				return err
			}
			if runner.ctl.Snapshot().State != paymentflow.Idle {
				return runner.settle(ctx)
			}

			runner.loadGateway(ctx)
			if err := runner.ctl.Submit(ctx, sport, form, doc); err != nil {
				if models.IsValidation(err) {
					fmt.Fprintln(out, "Please fix the following:")
					renderer{out: out}.fieldErrors(runner.ctl.Snapshot().Errors)
				}
				return err
			}
			return runner.settle(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&sportID, "sport", "", "Sport id from registrar.yaml or the backend catalog")
	f.StringVar(&form.Name, "name", "", "Full name")
	f.StringVar(&form.UniversityName, "university", "", "University name")
	f.StringVar(&form.Branch, "branch", "", "Branch")
	f.StringVar(&form.TeamName, "team", "", "Team name (team sports)")
	f.StringVar(&form.MobileNo, "mobile", "", "10 digit mobile number")
	f.StringVar(&form.Email, "email", "", "Email address")
	f.StringVar(&form.AadharNo, "aadhar", "", "12 digit Aadhar number")
	f.StringVar(&photo, "photo", "", "Path to Aadhar card photo")
	_ = cmd.MarkFlagRequired("sport")

	return cmd
}
