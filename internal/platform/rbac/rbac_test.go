package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	bulk "workforce-console/backend/internal/bulk/service"
	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/policy/engine"
	"workforce-console/backend/internal/roster/domain"
	"workforce-console/backend/internal/security"
	"workforce-console/backend/internal/server/interceptors"
)

type snapshots map[string]*domain.View

func (s snapshots) Snapshot(orgID string) (*domain.View, bool) {
	v, ok := s[orgID]
	return v, ok
}

func roster(members ...membership.Member) snapshots {
	v := &domain.View{OrgID: "org-1"}
	for _, m := range members {
		v.Members = append(v.Members, domain.EnrichedMember{Member: m})
	}
	return snapshots{"org-1": v}
}

func session(userID, email, orgRole string) context.Context {
	return interceptors.WithClaims(context.Background(), &security.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		OrgID:            "org-1",
		SessionID:        "s-1",
		Email:            email,
		OrgRole:          orgRole,
	})
}

func code(err error) codes.Code { return status.Code(err) }

func TestRequireOrgMember_NoContext(t *testing.T) {
	_, err := RequireOrgMember(context.Background(), nil)
	if code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", code(err))
	}
}

func TestRequireOrgMember_MembershipRoleBeatsSession(t *testing.T) {
	snap := roster(membership.Member{ID: "m-1", UserID: "user-1", Role: membership.RoleMember})
	p, err := RequireOrgMember(session("user-1", "", "owner"), snap)
	if err != nil {
		t.Fatalf("RequireOrgMember: %v", err)
	}
	if p.Role != membership.RoleMember {
		t.Errorf("role = %q, want member", p.Role)
	}
}

func TestRequireOrgMember_MatchesByEmail(t *testing.T) {
	snap := roster(membership.Member{ID: "m-1", Email: "a@example.com", Role: membership.RoleAdmin})
	p, err := RequireOrgMember(session("user-1", "a@example.com", ""), snap)
	if err != nil {
		t.Fatalf("RequireOrgMember: %v", err)
	}
	if p.Role != membership.RoleAdmin {
		t.Errorf("role = %q, want admin", p.Role)
	}
}

func TestRequireOrgMember_NotListed(t *testing.T) {
	snap := roster(membership.Member{ID: "m-9", UserID: "user-9"})
	_, err := RequireOrgMember(session("user-1", "", "admin"), snap)
	if code(err) != codes.PermissionDenied {
		t.Errorf("code = %v, want PermissionDenied", code(err))
	}

	snap["org-1"].MembersErr = "identity unavailable"
	p, err := RequireOrgMember(session("user-1", "", "admin"), snap)
	if err != nil {
		t.Fatalf("partial snapshot must fall back to session hints: %v", err)
	}
	if p.Role != membership.RoleAdmin {
		t.Errorf("role = %q, want admin", p.Role)
	}
}

func TestRequireOrgMember_NoSnapshotUsesHints(t *testing.T) {
	p, err := RequireOrgMember(session("user-1", "", ""), snapshots{})
	if err != nil {
		t.Fatalf("RequireOrgMember: %v", err)
	}
	if p.Role != membership.RoleMember {
		t.Errorf("undecidable role must default to member, got %q", p.Role)
	}
}

func TestRequireOrgAdmin(t *testing.T) {
	tests := []struct {
		role membership.Role
		want codes.Code
	}{
		{membership.RoleOwner, codes.OK},
		{membership.RoleAdmin, codes.OK},
		{membership.RoleMember, codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			snap := roster(membership.Member{ID: "m-1", UserID: "user-1", Role: tt.role})
			_, err := RequireOrgAdmin(session("user-1", "", ""), snap)
			if code(err) != tt.want {
				t.Errorf("code = %v, want %v", code(err), tt.want)
			}
		})
	}
}

type fixedEvaluator struct {
	decision engine.Decision
	err      error
	last     engine.Request
}

func (f *fixedEvaluator) Evaluate(_ context.Context, req engine.Request) (engine.Decision, error) {
	f.last = req
	return f.decision, f.err
}

func TestAuthorize(t *testing.T) {
	admin := Principal{OrgID: "org-1", UserID: "user-1", Role: membership.RoleAdmin}
	member := Principal{OrgID: "org-1", UserID: "user-2", Role: membership.RoleMember}

	if err := Authorize(context.Background(), nil, admin, "assign_shift", 1, ""); err != nil {
		t.Errorf("nil evaluator, admin: %v", err)
	}
	if err := Authorize(context.Background(), nil, member, "assign_shift", 1, ""); code(err) != codes.PermissionDenied {
		t.Errorf("nil evaluator, member: %v", err)
	}

	ev := &fixedEvaluator{decision: engine.Decision{Reason: "batch too large"}}
	err := Authorize(context.Background(), ev, admin, "bulk_remove", 50, "")
	if code(err) != codes.PermissionDenied || status.Convert(err).Message() != "batch too large" {
		t.Errorf("deny: %v", err)
	}
	if ev.last.Targets != 50 || ev.last.ActorRole != membership.RoleAdmin {
		t.Errorf("request = %+v", ev.last)
	}

	ev = &fixedEvaluator{err: errors.New("eval")}
	if err := Authorize(context.Background(), ev, admin, "bulk_remove", 1, ""); code(err) != codes.Internal {
		t.Errorf("eval error: %v", err)
	}
}

func TestBulkAuthorizer_WithDefaultPolicy(t *testing.T) {
	ev, err := engine.NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	snap := roster(
		membership.Member{ID: "m-1", UserID: "user-1", Role: membership.RoleAdmin},
		membership.Member{ID: "m-2", UserID: "user-2", Role: membership.RoleMember},
	)
	a := BulkAuthorizer{Snapshots: snap, Evaluator: ev}

	if err := a.AuthorizeBulk(session("user-1", "", ""), "org-1", bulk.ActionRemove, 2); err != nil {
		t.Errorf("admin remove: %v", err)
	}
	if err := a.AuthorizeBulk(session("user-2", "", ""), "org-1", bulk.ActionRemove, 2); err == nil || err.Error() != "admin role required" {
		t.Errorf("member remove: %v", err)
	}
	if err := a.AuthorizeBulk(session("user-1", "", ""), "org-2", bulk.ActionRemove, 1); err == nil || err.Error() != "organization mismatch" {
		t.Errorf("other org: %v", err)
	}
	if err := a.AuthorizeBulk(context.Background(), "org-1", bulk.ActionRemove, 1); err == nil {
		t.Error("unauthenticated must be denied")
	}
}
