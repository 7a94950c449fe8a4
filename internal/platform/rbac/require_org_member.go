package rbac

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/roster/domain"
	"workforce-console/backend/internal/server/interceptors"
)

// SnapshotSource returns the latest published roster of an organization.
type SnapshotSource interface {
	Snapshot(orgID string) (*domain.View, bool)
}

// Principal is the authenticated caller with its effective role in the context org.
type Principal struct {
	OrgID  string
	UserID string
	Email  string
	Role   membership.Role
	Hints  membership.RoleHints
}

// RequireOrgMember ensures the caller is authenticated for an org and, when a complete roster
// snapshot exists, listed in it. The role is resolved from the member record first, then the
// session hints. Returns a gRPC error (Unauthenticated or PermissionDenied) on failure.
func RequireOrgMember(ctx context.Context, snapshots SnapshotSource) (Principal, error) {
	orgID, okOrg := interceptors.GetOrgID(ctx)
	userID, okUser := interceptors.GetUserID(ctx)
	if !okOrg || orgID == "" || !okUser || userID == "" {
		return Principal{}, status.Error(codes.Unauthenticated, "org and user context required")
	}
	p := Principal{
		OrgID:  orgID,
		UserID: userID,
		Email:  interceptors.GetEmail(ctx),
		Hints:  interceptors.GetRoleHints(ctx),
	}
	if snapshots != nil {
		if view, ok := snapshots.Snapshot(orgID); ok {
			m, found := view.Member(userID)
			if !found && p.Email != "" {
				m, found = view.Member(p.Email)
			}
			switch {
			case found:
				p.Hints.MembershipRole = string(m.Role)
			case view.MembersErr == "":
				return Principal{}, status.Error(codes.PermissionDenied, "not a member of this organization")
			}
		}
	}
	p.Role = p.Hints.Effective(orgID)
	return p, nil
}
