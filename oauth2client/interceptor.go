package oauth2client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

// UnaryClientInterceptor returns a gRPC unary client interceptor that automatically
// adds the access token to request metadata.
//
// The interceptor adds "authorization: <token_type> <access_token>" to the outgoing
// request context metadata. If token fetch fails, the RPC call is aborted with an error.
// The interceptor respects the RPC context's cancellation and deadline.
//
// Usage:
//
//	conn, err := grpc.NewClient(
//	    "server:9090",
//	    grpc.WithUnaryInterceptor(tokenManager.UnaryClientInterceptor()),
//	)
func (tm *TokenManager) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		token, err := tm.EnsureValidToken(ctx)
		if err != nil {
			return fmt.Errorf("oauth2client: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", token.AuthorizationHeader())

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that automatically
// adds the access token to request metadata.
//
// If token fetch fails, stream creation is aborted with an error.
//
// Usage:
//
//	conn, err := grpc.NewClient(
//	    "server:9090",
//	    grpc.WithStreamInterceptor(tokenManager.StreamClientInterceptor()),
//	)
func (tm *TokenManager) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		token, err := tm.EnsureValidToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("oauth2client: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", token.AuthorizationHeader())

		return streamer(ctx, desc, cc, method, opts...)
	}
}

// PerRPCCredentials exposes the manager as gRPC call credentials, for use with
// grpc.WithPerRPCCredentials. With requireTLS set, gRPC refuses to send the
// token over an insecure connection.
func (tm *TokenManager) PerRPCCredentials(requireTLS bool) credentials.PerRPCCredentials {
	return &perRPCCredentials{tm: tm, requireTLS: requireTLS}
}

type perRPCCredentials struct {
	tm         *TokenManager
	requireTLS bool
}

func (c *perRPCCredentials) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	token, err := c.tm.EnsureValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"authorization": token.AuthorizationHeader()}, nil
}

func (c *perRPCCredentials) RequireTransportSecurity() bool {
	return c.requireTLS
}
