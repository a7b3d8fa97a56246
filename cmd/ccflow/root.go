package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AmmannChristian/ccflow/oauth2client"
	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (request failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthInit indicates the token manager could not be constructed,
	// either from incomplete credentials or a rejected initial fetch.
	ExitCodeAuthInit = 2
)

// Environment variables consulted when the matching flag is not set.
const (
	envClientID      = "CLIENT_ID"
	envClientSecret  = "CLIENT_SECRET"
	envTokenEndpoint = "TOKEN_ENDPOINT"
	envScopes        = "SCOPES"
)

type rootOptions struct {
	clientID     string
	clientSecret string
	tokenURL     string
	scopes       []string
	timeout      time.Duration
	verbose      bool

	// transport replaces network access for the token endpoint and the
	// target API. Nil in production.
	transport http.RoundTripper
	getenv    func(string) string
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	if opts.getenv == nil {
		opts.getenv = os.Getenv
	}

	cmd := &cobra.Command{
		Use:   "ccflow",
		Short: "Fetch OAuth2 client-credentials tokens and call protected APIs",
		Long: `ccflow authenticates against an OAuth2 token endpoint with the
client-credentials grant and either prints the issued token or uses it
to perform an authenticated request.

Credentials are read from flags, falling back to the CLIENT_ID,
CLIENT_SECRET, TOKEN_ENDPOINT and SCOPES environment variables.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.clientID, "client-id", "", "OAuth2 client ID (env "+envClientID+")")
	flags.StringVar(&opts.clientSecret, "client-secret", "", "OAuth2 client secret (env "+envClientSecret+")")
	flags.StringVar(&opts.tokenURL, "token-endpoint", "", "OAuth2 token endpoint URL (env "+envTokenEndpoint+")")
	flags.StringSliceVar(&opts.scopes, "scope", nil, "requested scope, repeatable (env "+envScopes+", space or comma separated)")
	flags.DurationVar(&opts.timeout, "timeout", oauth2client.DefaultHTTPTimeout, "timeout for each HTTP request")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log token fetches to stderr")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		opts.applyEnv()
	}

	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newGetCmd(opts))

	return cmd
}

// applyEnv fills unset credentials from the environment.
func (o *rootOptions) applyEnv() {
	if o.clientID == "" {
		o.clientID = o.getenv(envClientID)
	}
	if o.clientSecret == "" {
		o.clientSecret = o.getenv(envClientSecret)
	}
	if o.tokenURL == "" {
		o.tokenURL = o.getenv(envTokenEndpoint)
	}
	if len(o.scopes) == 0 {
		o.scopes = splitScopes(o.getenv(envScopes))
	}
}

func splitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
}

// managerOptions translates the flags into token manager options.
func (o *rootOptions) managerOptions() []oauth2client.Option {
	var opts []oauth2client.Option
	if len(o.scopes) > 0 {
		opts = append(opts, oauth2client.WithScopes(o.scopes...))
	}
	if o.verbose {
		opts = append(opts, oauth2client.WithLoggingEnabled())
	}
	if o.transport != nil {
		opts = append(opts, oauth2client.WithHTTPClient(&http.Client{
			Transport: o.transport,
			Timeout:   o.timeout,
		}))
	} else if o.timeout > 0 {
		opts = append(opts, oauth2client.WithFetchTimeout(o.timeout))
	}
	return opts
}

func (o *rootOptions) newTokenManager(ctx context.Context) (*oauth2client.TokenManager, error) {
	return oauth2client.NewTokenManager(ctx, o.tokenURL, o.clientID, o.clientSecret, o.managerOptions()...)
}

// execute runs the CLI and returns the process exit code.
func execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(&rootOptions{})
	cmd.Version = version
	cmd.SetVersionTemplate(`{{printf "ccflow version %s\n" .Version}}`)

	if err := cmd.ExecuteContext(ctx); err != nil {
		return getExitCode(err)
	}
	return ExitCodeSuccess
}

// getExitCode maps an error to the exit code scripts can branch on.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var initErr *oauth2client.AuthInitError
	if errors.As(err, &initErr) {
		return ExitCodeAuthInit
	}

	return ExitCodeError
}
