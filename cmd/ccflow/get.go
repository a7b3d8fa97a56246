package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AmmannChristian/ccflow/httpclient"
	"github.com/spf13/cobra"
)

func newGetCmd(opts *rootOptions) *cobra.Command {
	var headers []string

	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Perform an authenticated GET request",
		Long: `Perform a GET request carrying an Authorization header built from a
freshly fetched token, then print the response status and body.
Non-2xx responses exit with status 1 after printing the body.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			builder := httpclient.NewBuilder().
				WithOAuth2(ctx, opts.tokenURL, opts.clientID, opts.clientSecret, opts.managerOptions()...).
				WithTimeout(opts.timeout)
			if opts.transport != nil {
				builder = builder.WithBaseTransport(opts.transport)
			}

			client, err := builder.Build()
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, args[0], nil)
			if err != nil {
				return fmt.Errorf("invalid URL: %w", err)
			}
			for _, h := range headers {
				name, value, ok := cutHeader(h)
				if !ok {
					return fmt.Errorf("invalid header %q, expected Name: value", h)
				}
				req.Header.Add(name, value)
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(cmd.ErrOrStderr(), resp.Status)
			if _, err := io.Copy(out, resp.Body); err != nil {
				return fmt.Errorf("failed to read response body: %w", err)
			}

			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				return fmt.Errorf("request failed with status %d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra request header, repeatable (Name: value)")

	return cmd
}

func cutHeader(h string) (string, string, bool) {
	name, value, ok := strings.Cut(h, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}
