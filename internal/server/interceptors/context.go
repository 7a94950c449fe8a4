package interceptors

import (
	"context"

	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/security"
)

type contextKey struct{ name string }

var (
	userIDKey    = contextKey{"user_id"}
	orgIDKey     = contextKey{"org_id"}
	sessionIDKey = contextKey{"session_id"}
	claimsKey    = contextKey{"claims"}
)

// WithIdentity returns a context with user_id, org_id, and session_id set.
func WithIdentity(ctx context.Context, userID, orgID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, orgIDKey, orgID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// WithClaims stores verified session claims and the identity they carry.
func WithClaims(ctx context.Context, c *security.SessionClaims) context.Context {
	if c == nil {
		return ctx
	}
	ctx = WithIdentity(ctx, c.Subject, c.OrgID, c.SessionID)
	return context.WithValue(ctx, claimsKey, c)
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetOrgID returns the org_id from context and true if set; otherwise "", false.
func GetOrgID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(orgIDKey).(string)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set; otherwise "", false.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}

// GetClaims returns the verified session claims, if any.
func GetClaims(ctx context.Context) (*security.SessionClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*security.SessionClaims)
	return c, ok && c != nil
}

// GetEmail returns the session email, or "".
func GetEmail(ctx context.Context) string {
	if c, ok := GetClaims(ctx); ok {
		return c.Email
	}
	return ""
}

// GetRoleHints returns the session-derived role hints, empty without claims.
func GetRoleHints(ctx context.Context) membership.RoleHints {
	if c, ok := GetClaims(ctx); ok {
		return c.Hints()
	}
	return membership.RoleHints{}
}

// UserID is GetUserID without the ok flag, for use as an audit actor extractor.
func UserID(ctx context.Context) string {
	v, _ := GetUserID(ctx)
	return v
}
