// Package grpcclient provides a fluent builder for secure gRPC client connections with optional
// OAuth2 client-credentials authentication.
//
// It defaults to TLS 1.2+ using system roots. Tokens are attached as per-RPC call credentials
// that require transport security, so a token is never sent over plaintext unless WithInsecure
// is chosen explicitly.
//
// # Features
//
//   - Fluent builder for gRPC clients
//   - OAuth2 client-credentials integration via oauth2client, or a shared TokenManager
//   - Build fails fast when the initial token fetch is rejected
//   - Secure-by-default TLS; optional custom CA and mTLS; WithInsecure for local development
//   - Additional dial options via WithDialOptions
//
// # Quick Start
//
//	conn, err := grpcclient.NewBuilder().
//	    WithAddress("server.example.com:9090").
//	    WithOAuth2(
//	        "https://auth.example.com/oauth/v2/token",
//	        "client-id",
//	        "client-secret",
//	        oauth2client.WithScopes("openid", "profile"),
//	    ).
//	    WithTLS("/path/to/ca.crt", "", "", "server.example.com").
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	client := pb.NewYourServiceClient(conn)
//
// # TLS Behavior
//
// TLS is enabled by default with system CAs and TLS 1.2 minimum. WithTLS allows supplying a custom
// root CA and optional client cert/key for mTLS; both cert and key must be provided together.
package grpcclient
