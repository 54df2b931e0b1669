package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/kbm/pkg/config"
	"github.com/dmitrymomot/kbm/pkg/controlplane"
	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/pg"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

func newTenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants without the HTTP API",
	}
	cmd.AddCommand(newTenantCreateCommand(), newTenantListCommand())
	return cmd
}

func newTenantCreateCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create <subdomain>",
		Short: "Provision a tenant database and register the tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return withService(c.Context(), func(svc *controlplane.Service) error {
				t, err := svc.Provision(c.Context(), controlplane.SignupRequest{Identifier: args[0], Name: name})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.OutOrStdout(), "created %s (%s)\n", t.ID, t.DatabasePath)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "company name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTenantListCommand() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered tenants",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return withService(c.Context(), func(svc *controlplane.Service) error {
				tenants, err := svc.List(c.Context(), controlplane.Filter{Status: tenant.Status(status)})
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SUBDOMAIN\tSTATUS\tNAME\tCREATED")
				for _, t := range tenants {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Name, t.CreatedAt.Format("2006-01-02"))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only tenants with this status")
	return cmd
}

// withService opens the configured control plane and tenant storage for the
// duration of fn.
func withService(ctx context.Context, fn func(*controlplane.Service) error) error {
	var (
		app      appConfig
		cpCfg    controlplane.Config
		tenantDB tenantdb.Config
		pgCfg    pg.Config
	)
	if err := config.Load(&app); err != nil {
		return err
	}
	if err := config.Load(&cpCfg); err != nil {
		return err
	}
	if err := config.Load(&tenantDB); err != nil {
		return err
	}
	if cpCfg.Driver == controlplane.DriverPostgres {
		if err := config.Load(&pgCfg); err != nil {
			return err
		}
	}

	log := logger.Discard()
	registry, err := controlplane.Open(ctx, cpCfg, pgCfg, log)
	if err != nil {
		return err
	}
	defer registry.Close()

	dbs := tenantdb.New(tenantDB, tenantdb.WithLogger(log))
	defer dbs.Close()

	return fn(controlplane.NewService(registry.Store, dbs, controlplane.WithQuotas(app.quotas())))
}
