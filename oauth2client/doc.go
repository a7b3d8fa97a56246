// Package oauth2client manages OAuth2 client-credentials access tokens for HTTP and gRPC clients.
//
// A TokenManager fetches its first token at construction, treats a token as stale once it is
// within a safety margin (60s by default) of the server-reported lifetime, and refreshes it
// lazily on the next use. Concurrent callers that find the token stale share one request to the
// token endpoint. Failures are never retried and a stale token is never handed out.
//
// # Features
//
//   - Client-credentials grant sent as a form-encoded POST, redirects never followed
//   - Strict response validation (access_token, token_type, expires_in as number or string)
//   - Typed errors: AuthInitError, TokenFetchError, TokenParseError
//   - Apply for mutating *http.Request headers; gRPC interceptors and PerRPCCredentials
//   - Injectable Clock for deterministic expiry tests
//   - Optional logging (WithLogger, WithLoggingEnabled)
//
// # Quick Start
//
//	tm, err := oauth2client.NewTokenManager(
//	    ctx,
//	    "https://auth.example.com/oauth/v2/token",
//	    "client-id",
//	    "client-secret",
//	    oauth2client.WithLoggingEnabled(),
//	)
//	if err != nil {
//	    log.Fatal(err) // *oauth2client.AuthInitError
//	}
//
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.example.com/items", nil)
//	if _, err := tm.Apply(req); err != nil {
//	    return err
//	}
//
//	conn, err := grpc.NewClient(
//	    "server:9090",
//	    grpc.WithUnaryInterceptor(tm.UnaryClientInterceptor()),
//	    grpc.WithStreamInterceptor(tm.StreamClientInterceptor()),
//	)
//
// # Notes
//
//   - Retry and backoff belong to the caller; each refresh is exactly one request.
//   - Tokens returned by EnsureValidToken are immutable snapshots. Call it again instead of
//     holding on to one across requests.
package oauth2client
