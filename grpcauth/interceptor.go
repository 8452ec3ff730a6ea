// Package grpcauth provides gRPC interceptors that authenticate internal
// service calls with the same signed session tokens the HTTP layer issues.
// The token travels as a bearer credential in the authorization metadata;
// the interceptor verifies it and places the user id in the context.
package grpcauth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rkrish/linkauth"
)

// DefaultMetadataKeyAuthorization is the metadata key carrying the bearer
// session token.
const DefaultMetadataKeyAuthorization = "authorization"

type contextKey string

const contextKeyUserID contextKey = "grpcauth_user_id"

// Config configures the auth interceptors.
type Config struct {
	// Issuer verifies incoming session tokens.
	Issuer *linkauth.Issuer

	// MetadataKeyAuthorization overrides the metadata key. Defaults to
	// "authorization".
	MetadataKeyAuthorization string

	// RequireAuth when true rejects unauthenticated requests. When false,
	// requests proceed and UserIDFromContext returns empty.
	RequireAuth bool

	// PublicMethods is a set of full method names ("/pkg.Service/Method")
	// that skip the auth requirement. Only consulted when RequireAuth is
	// true.
	PublicMethods map[string]bool
}

// NewConfig returns a config that requires auth for every method except the
// listed public ones.
func NewConfig(issuer *linkauth.Issuer, publicMethods ...string) *Config {
	config := &Config{
		Issuer:        issuer,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

func (c *Config) metadataKey() string {
	if c.MetadataKeyAuthorization != "" {
		return c.MetadataKeyAuthorization
	}
	return DefaultMetadataKeyAuthorization
}

// UserIDFromContext returns the authenticated user id placed by the
// interceptors, or "" when the call is unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyUserID).(string); ok {
		return v
	}
	return ""
}

// UnaryServerInterceptor verifies the session token on unary calls.
func UnaryServerInterceptor(config *Config) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		userID := verifiedUserID(ctx, config)
		if userID == "" && config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		if userID != "" {
			ctx = context.WithValue(ctx, contextKeyUserID, userID)
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor verifies the session token on streaming calls.
func StreamServerInterceptor(config *Config) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		userID := verifiedUserID(ctx, config)
		if userID == "" && config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			return status.Error(codes.Unauthenticated, "authentication required")
		}
		if userID != "" {
			ss = &wrappedStream{ServerStream: ss, ctx: context.WithValue(ctx, contextKeyUserID, userID)}
		}
		return handler(srv, ss)
	}
}

// TokenToOutgoingContext attaches a session token as a bearer credential on
// an outgoing call.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyAuthorization, "Bearer "+token)
}

// verifiedUserID extracts and verifies the bearer token from incoming
// metadata. An invalid token is indistinguishable from a missing one.
func verifiedUserID(ctx context.Context, config *Config) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(config.metadataKey()) {
		token, found := strings.CutPrefix(value, "Bearer ")
		if !found {
			token = value
		}
		claims, err := config.Issuer.VerifySession(token)
		if err == nil && claims.Subject != "" {
			return claims.Subject
		}
	}
	return ""
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
