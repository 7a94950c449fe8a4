package rbac

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	bulk "workforce-console/backend/internal/bulk/service"
	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/policy/engine"
)

// RequireOrgAdmin ensures the caller is a member with role owner or admin in the context org.
func RequireOrgAdmin(ctx context.Context, snapshots SnapshotSource) (Principal, error) {
	p, err := RequireOrgMember(ctx, snapshots)
	if err != nil {
		return Principal{}, err
	}
	if p.Role != membership.RoleOwner && p.Role != membership.RoleAdmin {
		return Principal{}, status.Error(codes.PermissionDenied, "organization admin or owner required")
	}
	return p, nil
}

// Authorize asks the policy engine whether p may run action. A nil evaluator only admits
// owners and admins.
func Authorize(ctx context.Context, evaluator engine.Evaluator, p Principal, action string, targets int, targetRole membership.Role) error {
	if evaluator == nil {
		if p.Role == membership.RoleOwner || p.Role == membership.RoleAdmin {
			return nil
		}
		return status.Error(codes.PermissionDenied, "organization admin or owner required")
	}
	d, err := evaluator.Evaluate(ctx, engine.Request{
		OrgID:      p.OrgID,
		ActorID:    p.UserID,
		ActorRole:  p.Role,
		Action:     action,
		Targets:    targets,
		TargetRole: targetRole,
	})
	if err != nil {
		return status.Error(codes.Internal, "policy evaluation failed")
	}
	if !d.Allow {
		return status.Error(codes.PermissionDenied, d.Reason)
	}
	return nil
}

// BulkAuthorizer checks bulk batches against the policy for the caller in the request context.
type BulkAuthorizer struct {
	Snapshots SnapshotSource
	Evaluator engine.Evaluator
}

// AuthorizeBulk implements bulk/service.Authorizer. Denials carry the status message only.
func (a BulkAuthorizer) AuthorizeBulk(ctx context.Context, orgID string, action bulk.Action, targets int) error {
	p, err := RequireOrgMember(ctx, a.Snapshots)
	if err == nil && p.OrgID != orgID {
		err = status.Error(codes.PermissionDenied, "organization mismatch")
	}
	if err == nil {
		err = Authorize(ctx, a.Evaluator, p, action.AuditAction(), targets, action.TargetRole)
	}
	if err != nil {
		return errors.New(status.Convert(err).Message())
	}
	return nil
}
