package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/capitalize-ai/appbuilder/internal/middleware"
)

type TokenFlags struct {
	Secret string
	UserID string
	TTL    time.Duration
}

func NewTokenFlags() *TokenFlags {
	return &TokenFlags{
		Secret: os.Getenv("JWT_SECRET"),
		TTL:    24 * time.Hour,
	}
}

func (f *TokenFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Secret, "secret", f.Secret, "HMAC secret shared with the server (env JWT_SECRET)")
	fs.StringVar(&f.UserID, "user", f.UserID, "User ID to put in the token subject")
	fs.DurationVar(&f.TTL, "ttl", f.TTL, "Token lifetime")
}

func NewTokenCommand() *cobra.Command {
	f := NewTokenFlags()

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Long: `Mint an HS256 bearer token for local development.
The secret must match the server's JWT_SECRET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.Secret == "" || f.UserID == "" {
				return fmt.Errorf("--secret and --user are required")
			}
			token, err := middleware.NewToken(f.Secret, f.UserID, f.TTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}
