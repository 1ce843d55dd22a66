package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/domain"
)

// secretEnv is read when --secret is not given. It matches the server's
// auth.token_secret setting.
const secretEnv = "SHOPDESK_AUTH_TOKEN_SECRET"

func newTokenCmd() *cobra.Command {
	var (
		userID string
		name   string
		role   string
		secret string
		ttl    time.Duration
	)

	c := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token",
		Long: `Token signs a bearer token the shopdesk server accepts in token mode.
The secret comes from --secret or ` + secretEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv(secretEnv)
			}
			if secret == "" {
				return errors.New("a signing secret is required (--secret or " + secretEnv + ")")
			}
			r, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("--role: %w", err)
			}

			token, err := auth.IssueToken(auth.Actor{UserID: userID, Name: name, Role: r}, []byte(secret), ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVar(&userID, "user-id", "", "User ID placed in the token subject")
	c.Flags().StringVar(&name, "name", "", "Display name")
	c.Flags().StringVar(&role, "role", string(domain.RoleCashier), "Role")
	c.Flags().StringVar(&secret, "secret", "", "Signing secret")
	c.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	c.MarkFlagRequired("user-id")
	return c
}
