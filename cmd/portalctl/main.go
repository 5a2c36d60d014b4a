package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"zentrix.com/portal/infrastructure/devops"
	"zentrix.com/portal/portal/app"
	"zentrix.com/portal/portal/core"
	"zentrix.com/portal/portal/model"
	"zentrix.com/portal/security"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configArgs []string
	cmd := &cobra.Command{
		Use:          "portalctl",
		Short:        "Operator tooling for the employee portal",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringArrayVar(&configArgs, "config", nil, "Config override in --name=value form, repeatable (e.g. --config=--sheets-timeout=30s)")

	load := func(cmd *cobra.Command) (*app.App, error) {
		cfg, err := devops.Load(cmd.Context(), configArgs)
		if err != nil {
			return nil, err
		}
		app.NewLogger(cfg)
		return app.New(cmd.Context(), cfg)
	}

	cmd.AddCommand(tokenCmd(), reconcileCmd(load), serialCmd(load), pendingCmd(load))
	return cmd
}

type loader func(cmd *cobra.Command) (*app.App, error)

func tokenCmd() *cobra.Command {
	var (
		name, username, role, secret string
		ttl                          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("PORTAL_AUTH_JWT_SECRET")
			}
			if secret == "" {
				return errors.New("a signing secret is required (--secret or PORTAL_AUTH_JWT_SECRET)")
			}
			token, err := security.CreateSessionToken(security.Identity{
				Name:     name,
				Username: username,
				Role:     role,
			}, []byte(secret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Employee display name")
	cmd.Flags().StringVar(&username, "username", "", "Employee username")
	cmd.Flags().StringVar(&role, "role", "user", "Employee role")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func reconcileCmd(load loader) *cobra.Command {
	var (
		employee string
		all      bool
		xlsx     string
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Print the month's mispunch digest, optionally exporting a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if employee == "" && !all {
				return errors.New("pass --employee or --all")
			}
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			viewer := model.Viewer{Name: employee}
			if all {
				viewer.Role = model.RoleAdmin
			}
			result := a.Attendance.Summary(cmd.Context(), viewer)
			if result.LoadFailed {
				return fmt.Errorf("%s", result.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), core.Digest(result.Summary, time.Now().In(a.Attendance.Location)))

			if xlsx == "" {
				return nil
			}
			book, err := core.ExportAttendance(result.Summary)
			if err != nil {
				return err
			}
			defer book.Close()
			return book.SaveAs(xlsx)
		},
	}
	cmd.Flags().StringVar(&employee, "employee", "", "Employee name")
	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every employee")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Write the summary workbook to this path")
	return cmd
}

func serialCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serial",
		Short: "Travel serial numbers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Show the serial the next IN submission would receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			serial, err := a.Travel.NextSerial(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), serial)
			return nil
		},
	})
	return cmd
}

func pendingCmd(load loader) *cobra.Command {
	var employee string
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect or clear an employee's pending OUT slot",
	}
	cmd.PersistentFlags().StringVar(&employee, "employee", "", "Employee name")
	_ = cmd.MarkPersistentFlagRequired("employee")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the reconciled session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.Travel.State(cmd.Context(), employee)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Drop both pending slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Slots.Clear(cmd.Context(), employee); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared pending slots for %s\n", employee)
			return nil
		},
	})
	return cmd
}
