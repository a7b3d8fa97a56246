package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch a token and print its metadata",
		Long: `Fetch a token from the configured endpoint and print its type and
expiry. The access token itself is only printed with --show.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tm, err := opts.newTokenManager(cmd.Context())
			if err != nil {
				return err
			}

			// The token from construction is printed as is, even when it is
			// already inside the safety margin.
			token := tm.LastToken()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token_type: %s\n", token.TokenType)
			fmt.Fprintf(out, "expires_in: %s\n", token.ExpiresIn)
			fmt.Fprintf(out, "refresh_at: %s\n", token.ExpiresAt.UTC().Format(time.RFC3339))
			if show {
				fmt.Fprintf(out, "access_token: %s\n", token.AccessToken)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the access token")

	return cmd
}
