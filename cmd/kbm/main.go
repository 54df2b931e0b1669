// Command kbm serves the multi-tenant key management API and carries the
// operator commands that share its configuration.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "kbm:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "kbm",
		Short:         "Multi-tenant key management service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return serve(c.Context())
		},
	}
	root.SetOut(stdout)
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			Long: `
Runs the HTTP API. Tenant subdomains of BASE_DOMAIN serve the items API,
the bare domain serves signup and the admin API.
`,
			Args: cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return serve(c.Context())
			},
		},
		newTokenCommand(),
		newTenantCommand(),
	)
	return root
}
