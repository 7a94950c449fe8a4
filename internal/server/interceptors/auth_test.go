package interceptors

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"workforce-console/backend/internal/security"
)

func testToken(t *testing.T, mutate func(*security.SessionClaims)) (string, *security.TokenVerifier) {
	t.Helper()
	signer, verifier, err := security.NewTestKeys()
	if err != nil {
		t.Fatalf("NewTestKeys: %v", err)
	}
	c := security.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		OrgID:            "org-1",
		SessionID:        "session-1",
		Email:            "user-1@example.com",
		OrgRole:          "admin",
	}
	if mutate != nil {
		mutate(&c)
	}
	token, err := signer.Sign(c, time.Now())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return token, verifier
}

func withBearer(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func okHandler(ctx context.Context, req interface{}) (interface{}, error) {
	return ctx, nil
}

func TestAuthUnary_PublicMethod(t *testing.T) {
	_, verifier := testToken(t, nil)
	interceptor := AuthUnary(verifier, map[string]bool{"/grpc.health.v1.Health/Check": true})

	resp, err := interceptor(context.Background(), "request", &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, okHandler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if _, ok := GetClaims(resp.(context.Context)); ok {
		t.Error("public call without token must not carry claims")
	}

	resp, err = interceptor(withBearer("garbage"), "request", &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, okHandler)
	if err != nil || resp == nil {
		t.Fatalf("public call with bad token should pass through: %v", err)
	}
}

func TestAuthUnary_ProtectedMethod_NoToken(t *testing.T) {
	_, verifier := testToken(t, nil)
	interceptor := AuthUnary(verifier, nil)

	_, err := interceptor(context.Background(), "request", &grpc.UnaryServerInfo{FullMethod: "/workforce.v1.RosterService/Refresh"}, okHandler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestAuthUnary_ProtectedMethod_ValidToken(t *testing.T) {
	token, verifier := testToken(t, nil)
	interceptor := AuthUnary(verifier, nil)

	resp, err := interceptor(withBearer(token), "request", &grpc.UnaryServerInfo{FullMethod: "/workforce.v1.RosterService/Refresh"}, okHandler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	ctx := resp.(context.Context)
	if uid, _ := GetUserID(ctx); uid != "user-1" {
		t.Errorf("user_id = %q", uid)
	}
	if oid, _ := GetOrgID(ctx); oid != "org-1" {
		t.Errorf("org_id = %q", oid)
	}
	if sid, _ := GetSessionID(ctx); sid != "session-1" {
		t.Errorf("session_id = %q", sid)
	}
	if GetEmail(ctx) != "user-1@example.com" {
		t.Errorf("email = %q", GetEmail(ctx))
	}
	if GetRoleHints(ctx).ActiveOrgRole != "admin" {
		t.Errorf("hints = %+v", GetRoleHints(ctx))
	}
}

func TestAuthUnary_ProtectedMethod_Rejected(t *testing.T) {
	noOrg, verifier := testToken(t, func(c *security.SessionClaims) { c.OrgID = "" })
	expired, _ := testToken(t, func(c *security.SessionClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	})
	interceptor := AuthUnary(verifier, nil)

	for name, token := range map[string]string{"invalid": "invalid-token", "no org": noOrg, "expired": expired} {
		t.Run(name, func(t *testing.T) {
			_, err := interceptor(withBearer(token), "request", &grpc.UnaryServerInfo{FullMethod: "/workforce.v1.RosterService/Refresh"}, okHandler)
			if status.Code(err) != codes.Unauthenticated {
				t.Errorf("code = %v, want Unauthenticated", status.Code(err))
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	tests := map[string]string{
		"Bearer token123":       "token123",
		"bearer token123":       "token123",
		"  Bearer   token123  ": "token123",
		"Basic token123":        "",
		"Bear":                  "",
	}
	for header, want := range tests {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", header))
		if got := extractBearer(ctx); got != want {
			t.Errorf("extractBearer(%q) = %q, want %q", header, got, want)
		}
	}
	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("no metadata: %q", got)
	}
}

func TestAuthUnary_OrgHeaderMustMatchSession(t *testing.T) {
	token, verifier := testToken(t, nil)
	interceptor := AuthUnary(verifier, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/workforce.v1.RosterService/GetSnapshot"}

	md := metadata.Pairs("authorization", "Bearer "+token, OrgHeader, "org-2")
	_, err := interceptor(metadata.NewIncomingContext(context.Background(), md), "request", info, okHandler)
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("mismatched org: code = %v, want PermissionDenied", status.Code(err))
	}

	md = metadata.Pairs("authorization", "Bearer "+token, OrgHeader, "org-1")
	if _, err := interceptor(metadata.NewIncomingContext(context.Background(), md), "request", info, okHandler); err != nil {
		t.Errorf("matching org: %v", err)
	}
}

func TestAuthUnary_NilVerifier(t *testing.T) {
	token, _ := testToken(t, nil)
	interceptor := AuthUnary(nil, nil)
	_, err := interceptor(withBearer(token), "request", &grpc.UnaryServerInfo{FullMethod: "/workforce.v1.RosterService/Refresh"}, okHandler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}
