package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/whikwon/nexusnote/pkg/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		secret string
		issuer string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:         "token <user-id>",
		Short:       "Mint an API token signed with the server's JWT secret",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("a signing secret is required: pass --secret or set JWT_SECRET")
			}

			gen, err := auth.NewJWTGenerator(secret, issuer, []string{auth.DefaultAudience}, ttl)
			if err != nil {
				return err
			}
			token, err := gen.GenerateToken(args[0], email, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (default $JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "nexusnote", "token issuer; must match the server's JWT_ISSUER")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
