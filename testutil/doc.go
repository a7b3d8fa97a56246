// Package testutil provides test helpers for ccflow packages.
//
// It includes an in-memory token endpoint that needs no sockets, a settable clock for expiry
// tests, and generators for self-signed certificates and JWT access tokens.
//
// # Utilities
//
//   - MockOAuth2Server: stub token endpoint that records and counts requests
//   - StaticJSONResponse, StatusResponse, Sequence, TokenJSON: canned token endpoint behavior
//   - RoundTripFunc: inline http.RoundTripper implementations
//   - FakeClock: manually advanced oauth2client.Clock
//   - SignedJWT: HS256 token carrying an exp claim
//   - WriteTestCACert / WriteTestCertAndKey: temporary CA and leaf certificates for TLS tests
package testutil
