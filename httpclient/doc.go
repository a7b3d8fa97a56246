// Package httpclient offers HTTP client construction helpers with OAuth2 authentication and TLS/mTLS options.
//
// AuthTransport wraps any RoundTripper and runs a RequestAuthenticator, typically an
// oauth2client.TokenManager, on a clone of every outgoing request. If no valid token can be
// obtained the request is not sent. Builder assembles an http.Client with authentication,
// configurable TLS (custom CA, mTLS, insecure for tests), timeouts, base transports, and redirect
// handling.
//
// # Features
//
//   - RequestAuthenticator capability instead of a library-specific auth hook
//   - Fluent builder for http.Client with optional client-credentials token injection
//   - TLS 1.2+ by default, with custom CA/mTLS and optional InsecureSkipVerify
//   - Custom timeouts, base transport override, and redirect disabling
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithOAuth2(ctx,
//	        "https://auth.example.com/oauth/v2/token",
//	        "client-id",
//	        "client-secret",
//	        oauth2client.WithScopes("openid", "profile"),
//	    ).
//	    WithTLS("/path/to/ca.crt", "", "").
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err) // wraps *oauth2client.AuthInitError when the first fetch fails
//	}
//
//	resp, err := client.Get("https://api.example.com/data")
//
// # Manual Transport Wrapping
//
//	transport := httpclient.NewAuthTransport(tm, nil)
//	client := &http.Client{Transport: transport}
//
// All components are safe for concurrent use if the provided authenticator is.
package httpclient
