package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/AmmannChristian/ccflow/internal/tlsconfig"
	"github.com/AmmannChristian/ccflow/oauth2client"
)

// Builder provides a fluent interface for constructing HTTP clients
// with optional OAuth2 authentication and TLS/mTLS support.
type Builder struct {
	// Authentication: either a ready authenticator or the parameters for a
	// TokenManager created during Build.
	authenticator RequestAuthenticator
	oauth2Enabled bool
	oauth2Ctx     context.Context
	oauth2Creds   oauth2client.Credentials
	oauth2Opts    []oauth2client.Option

	tls tlsconfig.Files

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
}

// NewBuilder creates a new HTTP client builder.
func NewBuilder() *Builder {
	return &Builder{
		timeout:         30 * time.Second, // Default 30s timeout
		followRedirects: true,
	}
}

// WithAuthenticator sets the authenticator applied to every request, typically
// a shared *oauth2client.TokenManager.
func (b *Builder) WithAuthenticator(auth RequestAuthenticator) *Builder {
	b.authenticator = auth
	b.oauth2Enabled = false
	return b
}

// WithOAuth2 enables OAuth2 client credentials authentication. The
// TokenManager is created by Build, so a failed initial token fetch is
// reported there.
//
// Parameters:
//   - ctx: Context for token requests
//   - tokenURL: OAuth2 token endpoint (e.g., "https://auth.example.com/oauth/v2/token")
//   - clientID: OAuth2 client identifier
//   - clientSecret: OAuth2 client secret
//   - opts: TokenManager options (e.g., oauth2client.WithScopes("openid"))
func (b *Builder) WithOAuth2(ctx context.Context, tokenURL, clientID, clientSecret string, opts ...oauth2client.Option) *Builder {
	b.authenticator = nil
	b.oauth2Enabled = true
	b.oauth2Ctx = ctx
	b.oauth2Creds = oauth2client.Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	b.oauth2Opts = opts
	return b
}

// WithTLS enables TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	b.tls.CAFile = caFile
	b.tls.CertFile = certFile
	b.tls.KeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tls.InsecureSkipVerify = true
	return b
}

// WithTimeout sets the request timeout for the HTTP client.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
// This is useful for adding custom middleware or using a custom connection pool.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
// By default, the client follows up to 10 redirects.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build constructs the HTTP client with the configured options.
//
// Returns:
//   - *http.Client: Configured HTTP client
//   - error: Error if configuration is invalid or the initial token fetch fails
func (b *Builder) Build() (*http.Client, error) {
	transport, err := b.buildBaseTransport()
	if err != nil {
		return nil, err
	}

	auth := b.authenticator
	if b.oauth2Enabled {
		tm, err := oauth2client.NewTokenManager(
			b.oauth2Ctx,
			b.oauth2Creds.TokenURL,
			b.oauth2Creds.ClientID,
			b.oauth2Creds.ClientSecret,
			b.oauth2Opts...,
		)
		if err != nil {
			return nil, fmt.Errorf("httpclient: %w", err)
		}
		auth = tm
	}

	if auth != nil {
		transport = NewAuthTransport(auth, transport)
	}

	// Build HTTP client
	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	// Configure redirect policy
	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// buildBaseTransport returns the configured base transport, or a clone of
// http.DefaultTransport carrying the TLS settings.
func (b *Builder) buildBaseTransport() (http.RoundTripper, error) {
	if b.baseTransport != nil {
		return b.baseTransport, nil
	}

	httpTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		// Whatever default transport is configured (e.g., a test stub)
		return http.DefaultTransport, nil
	}
	httpTransport = httpTransport.Clone()

	tlsConfig, err := tlsconfig.Load(b.tls)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	httpTransport.TLSClientConfig = tlsConfig

	return httpTransport, nil
}
