package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/kbm/internal/accounts"
	"github.com/dmitrymomot/kbm/pkg/config"
	"github.com/dmitrymomot/kbm/pkg/identity"
)

func newTokenCommand() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token",
		Long: `
Signs a bearer token with JWT_SECRET and prints it. Tokens holding the admin
role (ADMIN_ROLE) unlock the /admin endpoints on the base domain.
`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			var cfg identity.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			svc, err := identity.New(cfg)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			token, err := svc.IssueWithTTL(subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), token)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&subject, "subject", "s", "", "token subject, e.g. the operator's email")
	flags.StringVarP(&role, "role", "r", accounts.DefaultAdminRole, "role claim")
	flags.DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to JWT_TOKEN_TTL")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
