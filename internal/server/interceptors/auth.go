package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"workforce-console/backend/internal/security"
)

const (
	bearerPrefix = "bearer "
	// OrgHeader optionally pins the organization a request is meant for.
	OrgHeader = "x-org-id"
)

// SessionVerifier validates a raw session token.
type SessionVerifier interface {
	Verify(token string) (*security.SessionClaims, error)
}

var errUnauthenticated = status.Error(codes.Unauthenticated, "missing or invalid authorization")

// AuthUnary verifies the Bearer session token and stores its claims in the context.
// Only sessions bound to an organization are accepted. When the request carries an
// x-org-id header it must name the session's organization.
// Methods in publicMethods run without a token; a bad token on them is ignored.
func AuthUnary(verifier SessionVerifier, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		public := publicMethods[info.FullMethod]
		claims, err := authenticate(ctx, verifier)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, err
		}
		if org := firstHeader(ctx, OrgHeader); org != "" && org != claims.OrgID {
			return nil, status.Error(codes.PermissionDenied, "session is not bound to the requested organization")
		}
		return handler(WithClaims(ctx, claims), req)
	}
}

func authenticate(ctx context.Context, verifier SessionVerifier) (*security.SessionClaims, error) {
	token := extractBearer(ctx)
	if token == "" || verifier == nil {
		return nil, errUnauthenticated
	}
	claims, err := verifier.Verify(token)
	if err != nil || claims == nil || claims.OrgID == "" {
		return nil, errUnauthenticated
	}
	return claims, nil
}

func firstHeader(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	v := firstHeader(ctx, "authorization")
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
