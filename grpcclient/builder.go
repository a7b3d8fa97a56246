package grpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/AmmannChristian/ccflow/internal/tlsconfig"
	"github.com/AmmannChristian/ccflow/oauth2client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrNoAddress is returned by Build when WithAddress was not called.
var ErrNoAddress = errors.New("grpcclient: server address is required")

// oauth2Params holds the arguments of WithOAuth2 until Build creates the
// token manager.
type oauth2Params struct {
	creds oauth2client.Credentials
	opts  []oauth2client.Option
}

// Builder assembles a *grpc.ClientConn that authenticates every call with a
// client-credentials token.
//
// Tokens are attached as per-RPC credentials. gRPC refuses to send them over
// a plaintext connection unless WithInsecure was chosen explicitly.
type Builder struct {
	address string

	tokenManager *oauth2client.TokenManager
	oauth2       *oauth2Params

	tls       tlsconfig.Files
	plaintext bool

	dialOpts []grpc.DialOption
}

// NewBuilder creates a new gRPC client builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithAddress sets the server address (e.g., "server.example.com:9090").
func (b *Builder) WithAddress(address string) *Builder {
	b.address = address
	return b
}

// WithOAuth2 has Build create a token manager for the given client. The
// initial token fetch happens in Build and its failure is returned there.
func (b *Builder) WithOAuth2(tokenURL, clientID, clientSecret string, opts ...oauth2client.Option) *Builder {
	b.tokenManager = nil
	b.oauth2 = &oauth2Params{
		creds: oauth2client.Credentials{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		opts: opts,
	}
	return b
}

// WithTokenManager authenticates with an existing manager, so one token is
// shared across connections.
func (b *Builder) WithTokenManager(tm *oauth2client.TokenManager) *Builder {
	b.tokenManager = tm
	b.oauth2 = nil
	return b
}

// WithTLS verifies the server against caFile (system roots when empty) and
// presents certFile/keyFile for mTLS when both are set. serverName overrides
// the name checked in the server certificate.
func (b *Builder) WithTLS(caFile, certFile, keyFile, serverName string) *Builder {
	b.tls = tlsconfig.Files{
		CAFile:     caFile,
		CertFile:   certFile,
		KeyFile:    keyFile,
		ServerName: serverName,
	}
	b.plaintext = false
	return b
}

// WithInsecure dials without TLS. Tokens are then sent in cleartext, which is
// only acceptable for local development and tests.
func (b *Builder) WithInsecure() *Builder {
	b.plaintext = true
	b.tls = tlsconfig.Files{}
	return b
}

// WithDialOptions appends dial options after the builder's own.
func (b *Builder) WithDialOptions(opts ...grpc.DialOption) *Builder {
	b.dialOpts = append(b.dialOpts, opts...)
	return b
}

// Build dials the connection. ctx is used only for the initial token fetch.
//
// Errors from the token manager are wrapped and still match
// *oauth2client.AuthInitError with errors.As.
func (b *Builder) Build(ctx context.Context) (*grpc.ClientConn, error) {
	if b.address == "" {
		return nil, ErrNoAddress
	}

	transportCreds, err := b.transportCredentials()
	if err != nil {
		return nil, err
	}

	tm, err := b.resolveTokenManager(ctx)
	if err != nil {
		return nil, err
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(transportCreds)}
	if tm != nil {
		opts = append(opts, grpc.WithPerRPCCredentials(tm.PerRPCCredentials(!b.plaintext)))
	}
	opts = append(opts, b.dialOpts...)

	conn, err := grpc.NewClient(b.address, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcclient: dial failed: %w", err)
	}

	return conn, nil
}

func (b *Builder) transportCredentials() (credentials.TransportCredentials, error) {
	if b.plaintext {
		return insecure.NewCredentials(), nil
	}

	cfg, err := tlsconfig.Load(b.tls)
	if err != nil {
		return nil, fmt.Errorf("grpcclient: %w", err)
	}
	return credentials.NewTLS(cfg), nil
}

func (b *Builder) resolveTokenManager(ctx context.Context) (*oauth2client.TokenManager, error) {
	if b.oauth2 == nil {
		return b.tokenManager, nil
	}

	tm, err := oauth2client.NewTokenManager(
		ctx,
		b.oauth2.creds.TokenURL,
		b.oauth2.creds.ClientID,
		b.oauth2.creds.ClientSecret,
		b.oauth2.opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("grpcclient: %w", err)
	}
	return tm, nil
}
