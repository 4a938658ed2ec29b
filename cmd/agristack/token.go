package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "agristack/internal/jwt_token"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			if name != "" {
				p.Name = name
			}
			if ttl <= 0 {
				ttl = c.cfg.Auth.TokenTTL
			}
			tokens := jwttoken.NewJWTService(c.cfg.Auth.JWTSigningKey, c.cfg.Auth.Issuer, c.cfg.Auth.Audience)
			token, err := tokens.GenerateAccessToken(p, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default JWT_TOKEN_TTL)")
	return cmd
}
