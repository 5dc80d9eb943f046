package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/bharadwajkrishnan/finai/internal/logger"
)

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the authorization token from request metadata.
// Methods listed in exempt (full method names) skip the check.
// A "Bearer " prefix on the header value is accepted.
func AuthInterceptor(validToken string, exempt ...string) grpc.UnaryServerInterceptor {
	skip := exemptSet(exempt)
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !skip[info.FullMethod] {
			if err := authorize(ctx, validToken); err != nil {
				logger.FromContext(ctx).Warn("Rejected gRPC call", "method", info.FullMethod, "error", err)
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor is AuthInterceptor for streaming calls
func StreamAuthInterceptor(validToken string, exempt ...string) grpc.StreamServerInterceptor {
	skip := exemptSet(exempt)
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !skip[info.FullMethod] {
			if err := authorize(ss.Context(), validToken); err != nil {
				logger.FromContext(ss.Context()).Warn("Rejected gRPC stream", "method", info.FullMethod, "error", err)
				return err
			}
		}
		return handler(srv, ss)
	}
}

func authorize(ctx context.Context, validToken string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}

	if strings.TrimPrefix(authHeaders[0], "Bearer ") != validToken {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

func exemptSet(methods []string) map[string]bool {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[m] = true
	}
	return set
}
