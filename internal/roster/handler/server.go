// Package handler serves RosterService over gRPC.
package handler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	workforcev1 "workforce-console/backend/api/workforce/v1"
	assignment "workforce-console/backend/internal/assignment/service"
	"workforce-console/backend/internal/audit"
	bulk "workforce-console/backend/internal/bulk/service"
	"workforce-console/backend/internal/clock"
	"workforce-console/backend/internal/logger"
	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/platform/rbac"
	"workforce-console/backend/internal/policy/engine"
	"workforce-console/backend/internal/roster/domain"
	"workforce-console/backend/internal/roster/service"
	"workforce-console/backend/internal/server/interceptors"
)

// Refresher rebuilds an organization's roster on behalf of a caller.
type Refresher interface {
	Refresh(ctx context.Context, orgID string, caller service.Caller) (*domain.View, error)
}

// Mutator writes single-member schedule and location changes.
type Mutator interface {
	AssignShift(ctx context.Context, orgID string, req assignment.ShiftRequest) error
	AssignLocations(ctx context.Context, orgID string, req assignment.LocationRequest) error
	RemoveLocation(ctx context.Context, orgID, memberID, geofenceID string) error
}

// BulkApplier runs bulk actions.
type BulkApplier interface {
	Apply(ctx context.Context, orgID string, action bulk.Action, selection []bulk.Item) (bulk.Result, error)
}

// Inviter sends invitations.
type Inviter interface {
	Invite(ctx context.Context, orgID, email string, role membership.Role) (*membership.Invitation, error)
}

// Deps wires the Server. Evaluator may be nil, which admits owners and admins only.
type Deps struct {
	Roster    Refresher
	Snapshots rbac.SnapshotSource
	Mutator   Mutator
	Bulk      BulkApplier
	Inviter   Inviter
	Evaluator engine.Evaluator
	Clock     clock.Clock
	Log       *zap.Logger
}

// Server implements RosterService.
type Server struct {
	workforcev1.UnimplementedRosterServiceServer
	deps Deps
	log  *zap.Logger
}

// NewServer returns a RosterService server. Calls whose dependency is nil return Unimplemented.
func NewServer(deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	return &Server{deps: deps, log: logger.OrNop(deps.Log).Named("roster.handler")}
}

// CallerFromContext derives the pipeline caller from the authenticated session.
func CallerFromContext(ctx context.Context) service.Caller {
	id := interceptors.UserID(ctx)
	if id == "" {
		id = interceptors.GetEmail(ctx)
	}
	return service.Caller{MemberID: id, Hints: interceptors.GetRoleHints(ctx)}
}

// Refresh rebuilds the caller's organization roster.
func (s *Server) Refresh(ctx context.Context, _ *workforcev1.RefreshRequest) (*workforcev1.RosterView, error) {
	if s.deps.Roster == nil {
		return nil, status.Error(codes.Unimplemented, "roster refresh not configured")
	}
	p, err := rbac.RequireOrgMember(ctx, s.deps.Snapshots)
	if err != nil {
		return nil, err
	}
	view, err := s.deps.Roster.Refresh(ctx, p.OrgID, CallerFromContext(ctx))
	if err != nil {
		s.log.Error("refresh failed", zap.String("org_id", p.OrgID), zap.Error(err))
		return nil, status.Error(codes.Internal, "roster refresh failed")
	}
	return viewToProto(view, s.deps.Clock.Now()), nil
}

// GetSnapshot returns the latest published roster, refreshing once when none exists yet.
func (s *Server) GetSnapshot(ctx context.Context, _ *workforcev1.GetSnapshotRequest) (*workforcev1.RosterView, error) {
	p, err := rbac.RequireOrgMember(ctx, s.deps.Snapshots)
	if err != nil {
		return nil, err
	}
	view, err := s.snapshot(ctx, p.OrgID)
	if err != nil {
		return nil, err
	}
	return viewToProto(view, s.deps.Clock.Now()), nil
}

func (s *Server) snapshot(ctx context.Context, orgID string) (*domain.View, error) {
	if s.deps.Snapshots != nil {
		if v, ok := s.deps.Snapshots.Snapshot(orgID); ok {
			return v, nil
		}
	}
	if s.deps.Roster == nil {
		return nil, status.Error(codes.NotFound, "no roster snapshot")
	}
	v, err := s.deps.Roster.Refresh(ctx, orgID, CallerFromContext(ctx))
	if err != nil {
		s.log.Error("refresh failed", zap.String("org_id", orgID), zap.Error(err))
		return nil, status.Error(codes.Internal, "roster refresh failed")
	}
	return v, nil
}

// AssignShift appends a schedule record for one member.
func (s *Server) AssignShift(ctx context.Context, req *workforcev1.AssignShiftRequest) (*workforcev1.OutcomeResponse, error) {
	p, err := s.authorizeMutation(ctx, audit.ActionAssignShift)
	if err != nil {
		return nil, err
	}
	sr := assignment.ShiftRequest{
		MemberID:       s.resourceID(p.OrgID, req.MemberID),
		ShiftID:        strings.TrimSpace(req.ShiftID),
		EffectiveUntil: req.EffectiveUntil,
	}
	if req.EffectiveFrom != nil {
		sr.EffectiveFrom = *req.EffectiveFrom
	}
	return s.outcome(ctx, p, audit.ActionAssignShift, s.deps.Mutator.AssignShift(ctx, p.OrgID, sr)), nil
}

// AssignLocations links geofences to one member.
func (s *Server) AssignLocations(ctx context.Context, req *workforcev1.AssignLocationsRequest) (*workforcev1.OutcomeResponse, error) {
	p, err := s.authorizeMutation(ctx, audit.ActionAssignLocations)
	if err != nil {
		return nil, err
	}
	err = s.deps.Mutator.AssignLocations(ctx, p.OrgID, assignment.LocationRequest{
		MemberID:    s.resourceID(p.OrgID, req.MemberID),
		GeofenceIDs: req.GeofenceIDs,
		AssignAll:   req.AssignAll,
	})
	return s.outcome(ctx, p, audit.ActionAssignLocations, err), nil
}

// RemoveLocation unlinks one geofence from one member.
func (s *Server) RemoveLocation(ctx context.Context, req *workforcev1.RemoveLocationRequest) (*workforcev1.OutcomeResponse, error) {
	p, err := s.authorizeMutation(ctx, audit.ActionRemoveLocation)
	if err != nil {
		return nil, err
	}
	err = s.deps.Mutator.RemoveLocation(ctx, p.OrgID, s.resourceID(p.OrgID, req.MemberID), strings.TrimSpace(req.GeofenceID))
	return s.outcome(ctx, p, audit.ActionRemoveLocation, err), nil
}

func (s *Server) authorizeMutation(ctx context.Context, action string) (rbac.Principal, error) {
	if s.deps.Mutator == nil {
		return rbac.Principal{}, status.Error(codes.Unimplemented, "assignments not configured")
	}
	p, err := rbac.RequireOrgMember(ctx, s.deps.Snapshots)
	if err != nil {
		return rbac.Principal{}, err
	}
	if err := rbac.Authorize(ctx, s.deps.Evaluator, p, action, 1, ""); err != nil {
		return rbac.Principal{}, err
	}
	return p, nil
}

// resourceID maps the id a console row is addressed by (member id, user id or email) to the
// user id the resource service and the enrichment cache key members by. Ids missing from the
// snapshot are passed through.
func (s *Server) resourceID(orgID, id string) string {
	id = strings.TrimSpace(id)
	if id == "" || s.deps.Snapshots == nil {
		return id
	}
	view, ok := s.deps.Snapshots.Snapshot(orgID)
	if !ok {
		return id
	}
	if m, ok := view.Member(id); ok {
		if rid := m.ResourceID(); rid != "" {
			return rid
		}
	}
	return id
}

// outcome reports mutation failures in the response body; they are not RPC errors.
// A successful mutation republishes the roster so the next snapshot read reflects it.
func (s *Server) outcome(ctx context.Context, p rbac.Principal, action string, err error) *workforcev1.OutcomeResponse {
	if err != nil {
		s.log.Info("mutation failed",
			zap.String("org_id", p.OrgID),
			zap.String("action", action),
			zap.Error(err),
		)
		return outcomeToProto(assignment.Outcome(err))
	}
	if s.deps.Roster != nil {
		if _, rerr := s.deps.Roster.Refresh(ctx, p.OrgID, CallerFromContext(ctx)); rerr != nil {
			s.log.Warn("refresh after mutation failed",
				zap.String("org_id", p.OrgID),
				zap.String("action", action),
				zap.Error(rerr),
			)
		}
	}
	return outcomeToProto(assignment.Outcome(nil))
}

// ApplyBulk runs a bulk action over members and invitations selected by id. Ids missing
// from the current roster are reported as not applicable.
func (s *Server) ApplyBulk(ctx context.Context, req *workforcev1.ApplyBulkRequest) (*workforcev1.BulkResponse, error) {
	if s.deps.Bulk == nil {
		return nil, status.Error(codes.Unimplemented, "bulk actions not configured")
	}
	p, err := rbac.RequireOrgMember(ctx, s.deps.Snapshots)
	if err != nil {
		return nil, err
	}
	action, err := parseAction(req.Action, req.TargetRole)
	if err != nil {
		return nil, err
	}
	view, err := s.snapshot(ctx, p.OrgID)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.Bulk.Apply(ctx, p.OrgID, action, selection(view, req.MemberIDs, req.InvitationIDs))
	if errors.Is(err, bulk.ErrForbidden) {
		return nil, status.Error(codes.PermissionDenied, domain.OutcomeFromError(err).Reason)
	}
	return bulkToProto(res, s.deps.Clock.Now()), nil
}

func parseAction(name, targetRole string) (bulk.Action, error) {
	switch bulk.ActionKind(strings.ToLower(strings.TrimSpace(name))) {
	case bulk.KindRemove:
		return bulk.ActionRemove, nil
	case bulk.KindChangeRole:
		role, ok := membership.ParseRole(targetRole)
		if !ok {
			role = membership.Role(targetRole)
		}
		return bulk.ActionChangeRole(role), nil
	default:
		return bulk.Action{}, status.Error(codes.InvalidArgument, "action must be remove or change_role")
	}
}

func selection(view *domain.View, memberIDs, invitationIDs []string) []bulk.Item {
	items := make([]bulk.Item, 0, len(memberIDs)+len(invitationIDs))
	for _, id := range memberIDs {
		if m, ok := view.Member(id); ok {
			items = append(items, bulk.MemberItem(m.Member))
			continue
		}
		items = append(items, bulk.MemberItem(membership.Member{ID: id}))
	}
	for _, id := range invitationIDs {
		inv := membership.Invitation{ID: id}
		for _, candidate := range view.Invitations {
			if candidate.ID == id {
				inv = candidate
				break
			}
		}
		items = append(items, bulk.InvitationItem(inv))
	}
	return items
}

// InviteMember invites an email address as admin or member.
func (s *Server) InviteMember(ctx context.Context, req *workforcev1.InviteMemberRequest) (*workforcev1.InviteMemberResponse, error) {
	if s.deps.Inviter == nil {
		return nil, status.Error(codes.Unimplemented, "invitations not configured")
	}
	p, err := rbac.RequireOrgMember(ctx, s.deps.Snapshots)
	if err != nil {
		return nil, err
	}
	role := membership.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if err := rbac.Authorize(ctx, s.deps.Evaluator, p, audit.ActionInviteMember, 1, role); err != nil {
		return nil, err
	}
	inv, err := s.deps.Inviter.Invite(ctx, p.OrgID, req.Email, role)
	switch {
	case err == nil:
		return &workforcev1.InviteMemberResponse{Invitation: invitationToProto(inv, s.deps.Clock.Now())}, nil
	case errors.Is(err, service.ErrAlreadyMember), errors.Is(err, service.ErrAlreadyInvited):
		return nil, status.Error(codes.AlreadyExists, err.Error())
	case service.IsRejection(err):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	default:
		s.log.Warn("invite failed", zap.String("org_id", p.OrgID), zap.Error(err))
		return nil, status.Error(codes.Unavailable, "identity service unavailable")
	}
}
