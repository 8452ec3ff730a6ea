package grpcauth

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rkrish/linkauth"
)

func testIssuer() *linkauth.Issuer {
	return &linkauth.Issuer{SecretKey: "grpc-test-secret", Issuer: "linkauth-test"}
}

func sessionToken(t *testing.T, issuer *linkauth.Issuer, userID string) string {
	t.Helper()
	token, err := issuer.IssueSession(&linkauth.User{ID: userID, Name: "Test", Email: "t@x.com"})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	return token
}

func incomingCtx(token string) context.Context {
	md := metadata.Pairs(DefaultMetadataKeyAuthorization, "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryServerInterceptor(t *testing.T) {
	issuer := testIssuer()
	valid := sessionToken(t, issuer, "user-1")
	foreign := sessionToken(t, &linkauth.Issuer{SecretKey: "other-secret"}, "user-1")

	tests := []struct {
		name       string
		config     *Config
		ctx        context.Context
		method     string
		wantCode   codes.Code
		wantUserID string
	}{
		{
			name:       "valid token",
			config:     NewConfig(issuer),
			ctx:        incomingCtx(valid),
			method:     "/test.Service/Private",
			wantCode:   codes.OK,
			wantUserID: "user-1",
		},
		{
			name:     "missing metadata",
			config:   NewConfig(issuer),
			ctx:      context.Background(),
			method:   "/test.Service/Private",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "foreign signature",
			config:   NewConfig(issuer),
			ctx:      incomingCtx(foreign),
			method:   "/test.Service/Private",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "public method skips the requirement",
			config:   NewConfig(issuer, "/test.Service/Public"),
			ctx:      context.Background(),
			method:   "/test.Service/Public",
			wantCode: codes.OK,
		},
		{
			name:       "optional auth lets anonymous through",
			config:     &Config{Issuer: issuer},
			ctx:        context.Background(),
			method:     "/test.Service/Private",
			wantCode:   codes.OK,
			wantUserID: "",
		},
		{
			name: "custom metadata key",
			config: &Config{
				Issuer:                   issuer,
				RequireAuth:              true,
				MetadataKeyAuthorization: "x-session",
			},
			ctx: metadata.NewIncomingContext(context.Background(),
				metadata.Pairs("x-session", "Bearer "+valid)),
			method:     "/test.Service/Private",
			wantCode:   codes.OK,
			wantUserID: "user-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			interceptor := UnaryServerInterceptor(tc.config)

			var gotUserID string
			handler := func(ctx context.Context, req any) (any, error) {
				gotUserID = UserIDFromContext(ctx)
				return "ok", nil
			}

			_, err := interceptor(tc.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tc.method}, handler)
			if got := status.Code(err); got != tc.wantCode {
				t.Fatalf("Expected code %v, got %v (err %v)", tc.wantCode, got, err)
			}
			if tc.wantCode == codes.OK && gotUserID != tc.wantUserID {
				t.Errorf("Expected user id %q in context, got %q", tc.wantUserID, gotUserID)
			}
		})
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context { return f.ctx }

func TestStreamServerInterceptor(t *testing.T) {
	issuer := testIssuer()
	interceptor := StreamServerInterceptor(NewConfig(issuer))
	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/Watch"}

	t.Run("rejects unauthenticated", func(t *testing.T) {
		stream := &fakeServerStream{ctx: context.Background()}
		err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
			t.Fatal("Handler must not run")
			return nil
		})
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("Expected Unauthenticated, got %v", err)
		}
	})

	t.Run("propagates user id", func(t *testing.T) {
		token := sessionToken(t, issuer, "user-2")
		stream := &fakeServerStream{ctx: incomingCtx(token)}
		err := interceptor(nil, stream, info, func(srv any, ss grpc.ServerStream) error {
			if got := UserIDFromContext(ss.Context()); got != "user-2" {
				t.Errorf("Expected user-2 in stream context, got %q", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Interceptor failed: %v", err)
		}
	})
}

func TestTokenToOutgoingContext(t *testing.T) {
	ctx := TokenToOutgoingContext(context.Background(), "abc")
	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("Expected outgoing metadata")
	}
	values := md.Get(DefaultMetadataKeyAuthorization)
	if len(values) != 1 || values[0] != "Bearer abc" {
		t.Errorf("Unexpected metadata: %v", values)
	}
}
