package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"workforce-console/backend/internal/audit"
	auditdomain "workforce-console/backend/internal/audit/domain"
	"workforce-console/backend/internal/clock"
	"workforce-console/backend/internal/events"
	"workforce-console/backend/internal/logger"
	membership "workforce-console/backend/internal/membership/domain"
)

var (
	ErrInvalidEmail     = errors.New("a valid email is required")
	ErrRoleNotInvitable = errors.New("invitations grant admin or member only")
	ErrAlreadyMember    = errors.New("email already belongs to a member")
	ErrAlreadyInvited   = errors.New("email already has a pending invitation")
)

// InviteSender creates invitations in the identity service.
type InviteSender interface {
	InviteMember(ctx context.Context, orgID, email string, role membership.Role) (*membership.Invitation, error)
}

// Inviter invites new members and refreshes the roster afterwards.
type Inviter struct {
	sender InviteSender
	roster Bound
	store  *Store
	events events.Publisher
	audit  audit.Recorder
	actor  audit.ContextExtractor
	clock  clock.Clock
	log    *zap.Logger
}

// NewInviter returns an Inviter. refresh runs after every successful invitation.
func NewInviter(sender InviteSender, refresh Bound, store *Store, pub events.Publisher, rec audit.Recorder, actor audit.ContextExtractor, clk clock.Clock, log *zap.Logger) *Inviter {
	if pub == nil {
		pub = events.Nop{}
	}
	if rec == nil {
		rec = audit.Nop{}
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Inviter{sender: sender, roster: refresh, store: store, events: pub, audit: rec, actor: actor, clock: clk, log: logger.OrNop(log).Named("invite")}
}

// Invite validates and sends an invitation. Duplicate emails are rejected against the latest
// snapshot when one exists; the identity service stays the final authority.
func (i *Inviter) Invite(ctx context.Context, orgID, email string, role membership.Role) (*membership.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	inv, err := i.invite(ctx, orgID, email, role)

	entry := audit.Entry{OrgID: orgID, Action: audit.ActionInviteMember, Resource: audit.ResourceInvitation, Subject: email, Outcome: auditdomain.OutcomeSuccess}
	meta := map[string]string{"role": string(role)}
	var pe *inviteRejection
	switch {
	case errors.As(err, &pe):
		entry.Outcome = auditdomain.OutcomeRejected
		meta["error"] = err.Error()
	case err != nil:
		entry.Outcome = auditdomain.OutcomeFailure
		meta["error"] = err.Error()
	}
	entry.Metadata = meta
	i.audit.Record(ctx, entry)
	if err != nil {
		return nil, err
	}

	var actor string
	if i.actor != nil {
		actor = i.actor(ctx)
	}
	log := logger.WithTrace(ctx, logger.WithOrg(i.log, orgID))
	if ev, err := events.New(events.TypeMemberInvited, orgID, actor, email, map[string]string{"invitation_id": inv.ID, "role": string(inv.Role)}, i.clock.Now()); err == nil {
		if err := i.events.Publish(ctx, ev); err != nil {
			log.Warn("publish invitation event failed", zap.Error(err))
		}
	}
	if i.roster.p != nil {
		if _, err := i.roster.Refresh(ctx, orgID); err != nil {
			log.Warn("post-invite refresh failed", zap.Error(err))
		}
	}
	return inv, nil
}

type inviteRejection struct{ err error }

func (r *inviteRejection) Error() string  { return r.err.Error() }
func (r *inviteRejection) Unwrap() error  { return r.err }
func (r *inviteRejection) Reason() string { return r.err.Error() }

func (i *Inviter) invite(ctx context.Context, orgID, email string, role membership.Role) (*membership.Invitation, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, &inviteRejection{ErrOrgRequired}
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, &inviteRejection{ErrInvalidEmail}
	}
	parsed, ok := membership.ParseRole(string(role))
	if !ok || !parsed.Invitable() {
		return nil, &inviteRejection{ErrRoleNotInvitable}
	}
	if i.store != nil {
		if view, ok := i.store.Snapshot(orgID); ok {
			for _, m := range view.Members {
				if strings.EqualFold(m.Email, email) {
					return nil, &inviteRejection{ErrAlreadyMember}
				}
			}
			for _, inv := range view.Invitations {
				if strings.EqualFold(inv.Email, email) && inv.Cancellable(i.clock.Now()) {
					return nil, &inviteRejection{ErrAlreadyInvited}
				}
			}
		}
	}
	inv, err := i.sender.InviteMember(ctx, orgID, email, parsed)
	if err != nil {
		return nil, fmt.Errorf("invite member: %w", err)
	}
	return inv, nil
}

// IsRejection reports whether err rejected an invitation before it reached the identity service.
func IsRejection(err error) bool {
	var r *inviteRejection
	return errors.As(err, &r)
}
