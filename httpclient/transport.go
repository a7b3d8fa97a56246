package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RequestAuthenticator attaches credentials to an outgoing request.
// *oauth2client.TokenManager implements it.
type RequestAuthenticator interface {
	Apply(req *http.Request) (*http.Request, error)
}

// AuthTransport is an http.RoundTripper that authenticates every outgoing
// request before delegating to Base.
//
// The caller's request is never modified; Apply runs on a clone.
type AuthTransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Authenticator sets the Authorization header.
	Authenticator RequestAuthenticator
}

// RoundTrip implements http.RoundTripper interface.
// If authentication fails the request is not sent.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Authenticator == nil {
		closeBody(req)
		return nil, errors.New("httpclient: Authenticator is nil")
	}

	authed, err := t.Authenticator.Apply(req.Clone(req.Context()))
	if err != nil {
		closeBody(req)
		return nil, fmt.Errorf("httpclient: failed to authenticate request: %w", err)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(authed)
}

// closeBody honors the RoundTripper contract of closing the body on error.
func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

// NewAuthTransport creates a new AuthTransport with the given authenticator.
// The base transport defaults to http.DefaultTransport if not specified.
func NewAuthTransport(auth RequestAuthenticator, base http.RoundTripper) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &AuthTransport{
		Base:          base,
		Authenticator: auth,
	}
}

// NewHTTPClient is a convenience function that creates a simple authenticated HTTP client.
// For more configuration options, use Builder instead.
//
// Example:
//
//	tm, err := oauth2client.NewTokenManager(ctx, tokenURL, clientID, clientSecret)
//	if err != nil {
//	    return err
//	}
//	client := httpclient.NewHTTPClient(tm)
//	resp, err := client.Get("https://api.example.com/data")
func NewHTTPClient(auth RequestAuthenticator) *http.Client {
	return &http.Client{
		Transport: NewAuthTransport(auth, nil),
		Timeout:   30 * time.Second,
	}
}
